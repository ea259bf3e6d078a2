package main

import (
	"context"
	"log/slog"

	"audiofp/apperr"
	"audiofp/db"
	"audiofp/download"
	"audiofp/shazam"
)

// ingestAudio runs the full ingest orchestrator (SPEC_FULL §4.9): register,
// fingerprint, store, with a compensating delete if either the
// fingerprinting or the storage step fails after registration succeeded.
func ingestAudio(ctx context.Context, logger *slog.Logger, dbClient db.Client, lookup download.Lookup, filePath, title, artist, externalRef string, force bool, cfg shazam.FingerprintConfig) (songID uint32, fpCount int, err error) {
	if externalRef == "" && !force {
		ref, lookupErr := lookup.Lookup(ctx, title, artist)
		if lookupErr == nil {
			externalRef = ref
		} else {
			logger.Info("metadata lookup did not resolve an external ref", slog.String("title", title), slog.String("artist", artist))
		}
	}

	songID, err = dbClient.RegisterSong(title, artist, externalRef)
	if err != nil {
		return 0, 0, err
	}

	logger.Info("registered song, fingerprinting", slog.Any("songID", songID), slog.String("title", title))

	fingerprints, err := shazam.FingerprintAudioChunked(ctx, logger, filePath, songID, cfg)
	if err != nil {
		if delErr := dbClient.DeleteSongByID(songID); delErr != nil {
			logger.Error("failed to roll back song after fingerprint failure", slog.Any("songID", songID), slog.Any("error", delErr))
		}
		return 0, 0, apperr.Wrap(apperr.DSPFailure, "failed to fingerprint audio", err)
	}

	if err := dbClient.StoreFingerprints(fingerprints); err != nil {
		if delErr := dbClient.DeleteSongByID(songID); delErr != nil {
			logger.Error("failed to roll back song after store failure", slog.Any("songID", songID), slog.Any("error", delErr))
		}
		return 0, 0, err
	}

	return songID, len(fingerprints), nil
}
