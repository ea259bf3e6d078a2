package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"audiofp/apperr"
	"audiofp/models"
)

func newTestSQLiteClient(t *testing.T) *SQLiteClient {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.sqlite3")
	client, err := NewSQLiteClient(path)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestSQLite_MinimalIndexScenario(t *testing.T) {
	client := newTestSQLiteClient(t)

	songID, err := client.RegisterSong("Alpha", "Artist-A", "yt-1")
	require.NoError(t, err)

	fingerprints := map[uint32]models.Couple{
		1: {AnchorTimeMs: 0, SongID: songID},
		2: {AnchorTimeMs: 100, SongID: songID},
	}
	require.NoError(t, client.StoreFingerprints(fingerprints))

	total, err := client.TotalSongs()
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestSQLite_ExactClipQueryScenario(t *testing.T) {
	client := newTestSQLiteClient(t)

	songID, err := client.RegisterSong("Alpha", "Artist-A", "yt-1")
	require.NoError(t, err)

	require.NoError(t, client.StoreFingerprints(map[uint32]models.Couple{
		1: {AnchorTimeMs: 0, SongID: songID},
		2: {AnchorTimeMs: 100, SongID: songID},
	}))

	couples, err := client.GetCouples([]uint32{1, 2, 999})
	require.NoError(t, err)

	assert.Len(t, couples[1], 1)
	assert.Len(t, couples[2], 1)
	assert.Empty(t, couples[999])
}

func TestSQLite_CascadingDeleteScenario(t *testing.T) {
	client := newTestSQLiteClient(t)

	songID, err := client.RegisterSong("Alpha", "Artist-A", "yt-1")
	require.NoError(t, err)

	require.NoError(t, client.StoreFingerprints(map[uint32]models.Couple{
		1: {AnchorTimeMs: 0, SongID: songID},
		2: {AnchorTimeMs: 100, SongID: songID},
	}))

	require.NoError(t, client.DeleteSongByID(songID))

	couples, err := client.GetCouples([]uint32{1, 2})
	require.NoError(t, err)
	assert.Empty(t, couples[1])
	assert.Empty(t, couples[2])

	_, found, err := client.GetSongByID(songID)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSQLite_DedupOnRegisterScenario(t *testing.T) {
	client := newTestSQLiteClient(t)

	_, err := client.RegisterSong("Alpha", "Artist-A", "yt-1")
	require.NoError(t, err)

	_, err = client.RegisterSong("Alpha", "Artist-A", "yt-2")
	require.Error(t, err)
	assert.Equal(t, apperr.AlreadyExists, apperr.KindOf(err))

	total, err := client.TotalSongs()
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestSQLite_GetSongRejectsUnknownFilterKey(t *testing.T) {
	client := newTestSQLiteClient(t)

	_, _, err := client.GetSong("bogus", "value")
	require.Error(t, err)
	assert.Equal(t, apperr.InvalidInput, apperr.KindOf(err))
}

func TestSQLite_StoreFingerprintsIsIdempotent(t *testing.T) {
	client := newTestSQLiteClient(t)

	songID, err := client.RegisterSong("Alpha", "Artist-A", "yt-1")
	require.NoError(t, err)

	batch := map[uint32]models.Couple{1: {AnchorTimeMs: 0, SongID: songID}}
	require.NoError(t, client.StoreFingerprints(batch))
	require.NoError(t, client.StoreFingerprints(batch))

	couples, err := client.GetCouples([]uint32{1})
	require.NoError(t, err)
	assert.Len(t, couples[1], 1)
}
