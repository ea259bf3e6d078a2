package main

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"audiofp/apperr"
	"audiofp/download"
	"audiofp/models"
	"audiofp/shazam"
)

// fakeIngestClient is an in-memory db.Client stand-in that also records
// whether DeleteSongByID was called, so rollback behavior can be asserted.
type fakeIngestClient struct {
	songs          map[uint32]models.Song
	nextID         uint32
	storeErr       error
	deletedSongIDs []uint32
}

func newFakeIngestClient() *fakeIngestClient {
	return &fakeIngestClient{songs: map[uint32]models.Song{}, nextID: 1}
}

func (f *fakeIngestClient) Close() error { return nil }

func (f *fakeIngestClient) RegisterSong(title, artist, externalRef string) (uint32, error) {
	id := f.nextID
	f.nextID++
	f.songs[id] = models.Song{ID: id, Title: title, Artist: artist, ExternalRef: externalRef}
	return id, nil
}

func (f *fakeIngestClient) StoreFingerprints(map[uint32]models.Couple) error { return f.storeErr }

func (f *fakeIngestClient) GetCouples(addresses []uint32) (map[uint32][]models.Couple, error) {
	return map[uint32][]models.Couple{}, nil
}

func (f *fakeIngestClient) TotalSongs() (int, error) { return len(f.songs), nil }

func (f *fakeIngestClient) GetSong(filterKey string, value interface{}) (models.Song, bool, error) {
	return models.Song{}, false, nil
}

func (f *fakeIngestClient) GetSongByID(songID uint32) (models.Song, bool, error) {
	s, ok := f.songs[songID]
	return s, ok, nil
}

func (f *fakeIngestClient) GetSongByExternalRef(string) (models.Song, bool, error) {
	return models.Song{}, false, nil
}

func (f *fakeIngestClient) GetSongByKey(string) (models.Song, bool, error) {
	return models.Song{}, false, nil
}

func (f *fakeIngestClient) DeleteSongByID(songID uint32) error {
	f.deletedSongIDs = append(f.deletedSongIDs, songID)
	delete(f.songs, songID)
	return nil
}

func (f *fakeIngestClient) DeleteCollection(string) error { return nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestIngestAudio_RollsBackSongOnFingerprintFailure(t *testing.T) {
	client := newFakeIngestClient()

	_, _, err := ingestAudio(context.Background(), testLogger(), client, download.NoopLookup{},
		"/nonexistent/path/does-not-exist.wav", "Alpha", "Artist-A", "", true, shazam.DefaultMusicConfig())

	require.Error(t, err)
	assert.Equal(t, apperr.DSPFailure, apperr.KindOf(err))
	assert.Empty(t, client.songs, "song must be rolled back after fingerprint failure")
	assert.Len(t, client.deletedSongIDs, 1)
}

func TestIngestAudio_ForceSkipsMetadataLookup(t *testing.T) {
	client := newFakeIngestClient()

	// a lookup that would panic if invoked, proving force=true bypasses it
	lookup := panicLookup{}

	_, _, err := ingestAudio(context.Background(), testLogger(), client, lookup,
		"/nonexistent/path/does-not-exist.wav", "Alpha", "Artist-A", "", true, shazam.DefaultMusicConfig())

	require.Error(t, err) // still fails at fingerprinting, but lookup was never called
}

type panicLookup struct{}

func (panicLookup) Lookup(ctx context.Context, title, artist string) (string, error) {
	panic("lookup should not be called when force=true")
}
