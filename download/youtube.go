// Package download provides the thin metadata-lookup collaborator the
// ingest orchestrator uses to fill in a song's external reference when the
// caller doesn't supply one.
package download

import (
	"context"
	"log/slog"

	"google.golang.org/api/option"
	youtube "google.golang.org/api/youtube/v3"

	"audiofp/apperr"
	"audiofp/utils"
)

// Lookup resolves (title, artist) to an external reference id. It is a
// genuine collaborator interface, not a stub: YouTubeLookup below actually
// calls out to the YouTube Data API. It deliberately does no playlist/album
// traversal, retry/backoff, or quota management.
type Lookup interface {
	Lookup(ctx context.Context, title, artist string) (externalRef string, err error)
}

// YouTubeLookup queries the YouTube Data API's search endpoint for
// "<title> <artist> audio" and returns the top result's video id.
type YouTubeLookup struct {
	svc    *youtube.Service
	logger *slog.Logger
}

// NewYouTubeLookup builds a lookup collaborator using YOUTUBE_API_KEY.
// Returns an error if the key is unset, so callers can fall back to
// NoopLookup instead of failing ingest outright.
func NewYouTubeLookup(ctx context.Context, logger *slog.Logger) (*YouTubeLookup, error) {
	apiKey := utils.GetEnv("YOUTUBE_API_KEY", "")
	if apiKey == "" {
		return nil, apperr.New(apperr.InvalidInput, "YOUTUBE_API_KEY is not set")
	}

	svc, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "creating youtube client", err)
	}

	return &YouTubeLookup{svc: svc, logger: logger}, nil
}

func (y *YouTubeLookup) Lookup(ctx context.Context, title, artist string) (string, error) {
	query := title + " " + artist + " audio"

	call := y.svc.Search.List([]string{"id"}).
		Q(query).
		MaxResults(1).
		Type("video").
		Context(ctx)

	resp, err := call.Do()
	if err != nil {
		return "", apperr.Wrap(apperr.Storage, "youtube search failed", err)
	}
	if len(resp.Items) == 0 || resp.Items[0].Id == nil {
		return "", apperr.New(apperr.NotFound, "no youtube results for "+query)
	}

	videoID := resp.Items[0].Id.VideoId
	y.logger.Debug("resolved external ref via youtube", slog.String("title", title), slog.String("videoID", videoID))
	return videoID, nil
}

// NoopLookup always fails lookup; used in tests and offline environments
// so ingest proceeds with an empty external ref instead of blocking.
type NoopLookup struct{}

func (NoopLookup) Lookup(ctx context.Context, title, artist string) (string, error) {
	return "", apperr.New(apperr.NotFound, "metadata lookup disabled")
}
