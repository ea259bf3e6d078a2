package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/fatih/color"

	"audiofp/db"
	"audiofp/download"
	"audiofp/shazam"
	"audiofp/utils"
	"audiofp/wav"
)

const songsDir = "songs"

func find(ctx context.Context, logger *slog.Logger, filePath string) {
	logger.Info("fingerprinting sample with chunked processing", slog.String("file", filePath))

	fingerprint, err := shazam.FingerprintAudioChunked(ctx, logger, filePath, utils.GenerateUniqueID(), fpConfig)
	if err != nil {
		color.Red("error generating fingerprint: %v", err)
		return
	}

	sampleFingerprint := make(map[uint32]uint32, len(fingerprint))
	for address, couple := range fingerprint {
		sampleFingerprint[address] = couple.AnchorTimeMs
	}

	dbClient, err := db.NewClient()
	if err != nil {
		color.Red("error creating DB client: %v", err)
		return
	}
	defer dbClient.Close()

	logger.Info("searching database", slog.Int("fingerprints", len(sampleFingerprint)))

	matches, searchDuration, err := shazam.FindMatchesFGP(logger, dbClient, sampleFingerprint)
	if err != nil {
		color.Red("error finding matches: %v", err)
		return
	}

	if len(matches) == 0 {
		fmt.Println("no match found.")
		fmt.Printf("search took: %s\n", searchDuration)
		return
	}

	topMatches := matches
	if len(matches) >= 20 {
		fmt.Println("top 20 matches:")
		topMatches = matches[:20]
	} else {
		fmt.Println("matches:")
	}

	for _, match := range topMatches {
		fmt.Printf("\t- %s by %s, score: %.2f\n", match.SongTitle, match.SongArtist, match.Score)
	}

	fmt.Printf("\nsearch took: %s\n", searchDuration)
	topMatch := topMatches[0]
	color.Green("final prediction: %s by %s, score: %.2f\n", topMatch.SongTitle, topMatch.SongArtist, topMatch.Score)
}

func serve(logger *slog.Logger, protocol, port string) {
	protocol = strings.ToLower(protocol)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/find", handleFind(logger))
	mux.HandleFunc("/api/download", handleDownload(logger))
	mux.HandleFunc("/api/save", handleSave(logger))
	mux.HandleFunc("/api/erase", handleErase(logger))

	mux.Handle("/", http.FileServer(http.Dir("static")))

	handler := requestLogger(logger, corsMiddleware(mux))

	logger.Info("starting server", slog.String("port", port), slog.String("protocol", protocol))
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		logger.Error("server error", slog.Any("error", err))
		os.Exit(1)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: 200}
		next.ServeHTTP(rec, r)

		if strings.HasPrefix(r.URL.Path, "/api/") {
			logger.Info("http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.status),
				slog.Duration("took", time.Since(start)))
		}
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func erase(logger *slog.Logger, songsDir string, dbOnly, all bool) {
	dbClient, err := db.NewClient()
	if err != nil {
		color.Red("error creating DB client: %v", err)
		return
	}
	defer dbClient.Close()

	if err := dbClient.DeleteCollection("fingerprints"); err != nil {
		color.Red("error deleting fingerprints: %v", err)
	}
	if err := dbClient.DeleteCollection("songs"); err != nil {
		color.Red("error deleting songs: %v", err)
	}

	fmt.Println("database cleared")

	if !all {
		fmt.Println("erase complete")
		return
	}

	err = filepath.Walk(songsDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		switch filepath.Ext(path) {
		case ".wav", ".m4a", ".mp3", ".flac", ".ogg":
			return os.Remove(path)
		}
		return nil
	})
	if err != nil {
		color.Red("error cleaning files in %s: %v", songsDir, err)
	}
	fmt.Println("audio files cleared")
	fmt.Println("erase complete")
}

func save(ctx context.Context, logger *slog.Logger, path string, force bool) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		color.Red("error: %v", err)
		return
	}

	if !fileInfo.IsDir() {
		if err := saveEntry(ctx, logger, path, force); err != nil {
			color.Red("error saving (%v): %v", path, err)
		}
		return
	}

	var filePaths []string
	filepath.Walk(path, func(fp string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			filePaths = append(filePaths, fp)
		}
		return nil
	})

	processFilesConcurrently(ctx, logger, filePaths, force)
}

func processFilesConcurrently(ctx context.Context, logger *slog.Logger, filePaths []string, force bool) {
	maxWorkers := runtime.NumCPU() / 2
	numFiles := len(filePaths)

	if numFiles == 0 {
		return
	}
	if numFiles < maxWorkers {
		maxWorkers = numFiles
	}
	if maxWorkers < 1 {
		maxWorkers = 1
	}

	jobs := make(chan string, numFiles)
	results := make(chan error, numFiles)

	for w := 0; w < maxWorkers; w++ {
		go func() {
			for fp := range jobs {
				results <- saveEntry(ctx, logger, fp, force)
			}
		}()
	}

	for _, fp := range filePaths {
		jobs <- fp
	}
	close(jobs)

	successCount, errorCount := 0, 0
	for i := 0; i < numFiles; i++ {
		if err := <-results; err != nil {
			color.Red("error: %v", err)
			errorCount++
		} else {
			successCount++
		}
	}

	fmt.Printf("\nprocessed %d files: %d successful, %d failed\n", numFiles, successCount, errorCount)
}

func saveEntry(ctx context.Context, logger *slog.Logger, filePath string, force bool) error {
	metadata, err := wav.GetMetadata(filePath)

	title, artist := "", ""
	if err == nil {
		title = metadata.Format.Tags["title"]
		artist = metadata.Format.Tags["artist"]
	}

	if title == "" {
		title = utils.NameFromPath(filePath)
	}
	if artist == "" {
		artist = "unknown"
	}

	dbClient, err := db.NewClient()
	if err != nil {
		return fmt.Errorf("failed to create DB client: %w", err)
	}
	defer dbClient.Close()

	lookup := resolveLookup(ctx, logger)

	_, fpCount, err := ingestAudio(ctx, logger, dbClient, lookup, filePath, title, artist, "", force, fpConfig)
	if err != nil {
		return fmt.Errorf("failed to process '%s': %w", filePath, err)
	}

	fmt.Printf("indexed '%s' by '%s' (%d fingerprints)\n", title, artist, fpCount)
	return nil
}

// resolveLookup prefers the real YouTube-backed collaborator, falling back
// to a no-op when YOUTUBE_API_KEY isn't configured.
func resolveLookup(ctx context.Context, logger *slog.Logger) download.Lookup {
	yt, err := download.NewYouTubeLookup(ctx, logger)
	if err != nil {
		return download.NoopLookup{}
	}
	return yt
}

// downloadURL is the CLI `download <url>` subcommand. actual media
// retrieval is out of scope for the core (see SPEC_FULL §4.10); this
// accepts the request and logs it, mirroring what /api/download does.
func downloadURL(logger *slog.Logger, url string) {
	logger.Info("download requested", slog.String("url", url))
	fmt.Printf("accepted: %s (downloading is not performed by this build)\n", url)
}
