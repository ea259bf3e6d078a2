package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/buger/jsonparser"

	"audiofp/apperr"
	"audiofp/db"
	"audiofp/shazam"
	"audiofp/utils"
	"audiofp/wav"
)

const maxUploadSize = 5000 << 20 // 5 GB

var fpConfig = shazam.DefaultAudiobookConfig()

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeAppError(logger *slog.Logger, w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	logger.Error("request failed", slog.Int("status", status), utils.ErrAttr(err))
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func saveUploadedFile(r *http.Request) (string, string, int64, error) {
	file, header, err := r.FormFile("file")
	if err != nil {
		return "", "", 0, apperr.Wrap(apperr.InvalidInput, "no file provided", err)
	}
	defer file.Close()

	if err := utils.CreateFolder("tmp"); err != nil {
		return "", "", 0, apperr.Wrap(apperr.Storage, "failed to create tmp dir", err)
	}

	tmpPath := filepath.Join("tmp", header.Filename)
	dst, err := os.Create(tmpPath)
	if err != nil {
		return "", "", 0, apperr.Wrap(apperr.Storage, "failed to create temp file", err)
	}
	defer dst.Close()

	written, err := io.Copy(dst, file)
	if err != nil {
		return "", "", 0, apperr.Wrap(apperr.Storage, "failed to write file", err)
	}

	return tmpPath, header.Filename, written, nil
}

// handleFind implements POST /api/find: a multipart upload ("file") is
// fingerprinted and matched against the index.
func handleFind(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeAppError(logger, w, apperr.New(apperr.InvalidInput, "method not allowed"))
			return
		}

		ctx := r.Context()
		reqStart := time.Now()

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			writeAppError(logger, w, apperr.Wrap(apperr.InvalidInput, "file too large or invalid form", err))
			return
		}

		tmpPath, filename, fileSize, err := saveUploadedFile(r)
		if err != nil {
			writeAppError(logger, w, err)
			return
		}
		defer os.Remove(tmpPath)

		logger.Info("find: file received", slog.String("file", filename), slog.Int64("bytes", fileSize))

		fingerprint, err := shazam.FingerprintAudioChunked(ctx, logger, tmpPath, utils.GenerateUniqueID(), fpConfig)
		if err != nil {
			writeAppError(logger, w, err)
			return
		}

		sampleFP := make(map[uint32]uint32, len(fingerprint))
		for addr, couple := range fingerprint {
			sampleFP[addr] = couple.AnchorTimeMs
		}

		dbClient, err := db.NewClient()
		if err != nil {
			writeAppError(logger, w, err)
			return
		}
		defer dbClient.Close()

		matches, searchDuration, err := shazam.FindMatchesFGP(logger, dbClient, sampleFP)
		if err != nil {
			writeAppError(logger, w, err)
			return
		}

		logger.Info("find: completed", slog.Duration("took", time.Since(reqStart)), slog.Duration("searchTime", searchDuration), slog.Int("matches", len(matches)))
		writeJSON(w, http.StatusOK, matches)
	}
}

// handleDownload implements POST /api/download. actual media retrieval is
// out of scope for the core; the request is accepted and logged.
func handleDownload(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeAppError(logger, w, apperr.New(apperr.InvalidInput, "method not allowed"))
			return
		}

		raw, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			writeAppError(logger, w, apperr.Wrap(apperr.InvalidInput, "failed to read body", err))
			return
		}

		// single-field extraction, no need to unmarshal the whole body into a struct
		url, err := jsonparser.GetString(raw, "url")
		if err != nil || url == "" {
			writeAppError(logger, w, apperr.New(apperr.InvalidInput, "missing url"))
			return
		}

		logger.Info("download requested", slog.String("url", url))
		w.WriteHeader(http.StatusOK)
	}
}

// handleSave implements POST /api/save?force=<bool>: a multipart upload is
// registered and fingerprinted into the corpus.
func handleSave(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeAppError(logger, w, apperr.New(apperr.InvalidInput, "method not allowed"))
			return
		}

		ctx := r.Context()
		reqStart := time.Now()
		force := r.URL.Query().Get("force") == "true"

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			writeAppError(logger, w, apperr.Wrap(apperr.InvalidInput, "file too large or invalid form", err))
			return
		}

		tmpPath, filename, fileSize, err := saveUploadedFile(r)
		if err != nil {
			writeAppError(logger, w, err)
			return
		}
		defer os.Remove(tmpPath)

		logger.Info("save: file received", slog.String("file", filename), slog.Int64("bytes", fileSize))

		title := r.FormValue("title")
		artist := r.FormValue("artist")
		externalRef := r.FormValue("externalRef")

		metadata, metaErr := wav.GetMetadata(tmpPath)
		if metaErr == nil {
			if title == "" {
				title = metadata.Format.Tags["title"]
			}
			if artist == "" {
				artist = metadata.Format.Tags["artist"]
			}
		}
		if title == "" {
			title = strings.TrimSuffix(filename, filepath.Ext(filename))
		}
		if artist == "" {
			artist = "unknown"
		}

		dbClient, err := db.NewClient()
		if err != nil {
			writeAppError(logger, w, err)
			return
		}
		defer dbClient.Close()

		lookup := resolveLookup(ctx, logger)

		songID, fpCount, err := ingestAudio(ctx, logger, dbClient, lookup, tmpPath, title, artist, externalRef, force, fpConfig)
		if err != nil {
			writeAppError(logger, w, err)
			return
		}

		logger.Info("save: completed", slog.String("title", title), slog.Int("fingerprints", fpCount), slog.Duration("took", time.Since(reqStart)))
		writeJSON(w, http.StatusOK, map[string]any{
			"song_id":      songID,
			"title":        title,
			"artist":       artist,
			"fingerprints": fpCount,
		})
	}
}

// handleErase implements POST /api/erase: wipes the index.
func handleErase(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeAppError(logger, w, apperr.New(apperr.InvalidInput, "method not allowed"))
			return
		}

		dbClient, err := db.NewClient()
		if err != nil {
			writeAppError(logger, w, err)
			return
		}
		defer dbClient.Close()

		if err := dbClient.DeleteCollection("fingerprints"); err != nil {
			writeAppError(logger, w, err)
			return
		}
		if err := dbClient.DeleteCollection("songs"); err != nil {
			writeAppError(logger, w, err)
			return
		}

		logger.Info("index erased")
		w.WriteHeader(http.StatusOK)
	}
}
