package shazam

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"audiofp/models"
)

// fakeDBClient is an in-memory stand-in for db.Client used to exercise the
// matcher without a real storage backend.
type fakeDBClient struct {
	couples map[uint32][]models.Couple
	songs   map[uint32]models.Song
}

func newFakeDBClient() *fakeDBClient {
	return &fakeDBClient{couples: map[uint32][]models.Couple{}, songs: map[uint32]models.Song{}}
}

func (f *fakeDBClient) Close() error { return nil }
func (f *fakeDBClient) RegisterSong(title, artist, externalRef string) (uint32, error) {
	return 0, nil
}
func (f *fakeDBClient) StoreFingerprints(map[uint32]models.Couple) error { return nil }
func (f *fakeDBClient) GetCouples(addresses []uint32) (map[uint32][]models.Couple, error) {
	result := make(map[uint32][]models.Couple, len(addresses))
	for _, a := range addresses {
		result[a] = f.couples[a]
	}
	return result, nil
}
func (f *fakeDBClient) TotalSongs() (int, error) { return len(f.songs), nil }
func (f *fakeDBClient) GetSong(filterKey string, value interface{}) (models.Song, bool, error) {
	return models.Song{}, false, nil
}
func (f *fakeDBClient) GetSongByID(songID uint32) (models.Song, bool, error) {
	s, ok := f.songs[songID]
	return s, ok, nil
}
func (f *fakeDBClient) GetSongByExternalRef(string) (models.Song, bool, error) {
	return models.Song{}, false, nil
}
func (f *fakeDBClient) GetSongByKey(string) (models.Song, bool, error) {
	return models.Song{}, false, nil
}
func (f *fakeDBClient) DeleteSongByID(songID uint32) error {
	delete(f.songs, songID)
	return nil
}
func (f *fakeDBClient) DeleteCollection(string) error { return nil }

func silentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFindMatchesFGP_ExactClipQueryScenario(t *testing.T) {
	client := newFakeDBClient()
	client.songs[1] = models.Song{ID: 1, Title: "Alpha", Artist: "Artist-A"}
	client.couples[10] = []models.Couple{{AnchorTimeMs: 0, SongID: 1}}
	client.couples[20] = []models.Couple{{AnchorTimeMs: 100, SongID: 1}}

	query := map[uint32]uint32{10: 0, 20: 100}

	matches, _, err := FindMatchesFGP(silentLogger(), client, query)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, uint32(1), matches[0].SongID)
	assert.GreaterOrEqual(t, matches[0].Score, 1.0)
	assert.Equal(t, uint32(0), matches[0].TimestampMs)
}

func TestFindMatchesFGP_UnrelatedQueryScenario(t *testing.T) {
	client := newFakeDBClient()
	client.songs[1] = models.Song{ID: 1, Title: "Alpha", Artist: "Artist-A"}
	client.couples[10] = []models.Couple{{AnchorTimeMs: 0, SongID: 1}}

	query := map[uint32]uint32{999: 0}

	matches, elapsed, err := FindMatchesFGP(silentLogger(), client, query)
	require.NoError(t, err)
	assert.Empty(t, matches)
	assert.GreaterOrEqual(t, elapsed.Nanoseconds(), int64(0))
}

func TestFindMatchesFGP_DropsMatchForMissingSong(t *testing.T) {
	client := newFakeDBClient()
	client.couples[10] = []models.Couple{{AnchorTimeMs: 0, SongID: 42}}
	client.couples[20] = []models.Couple{{AnchorTimeMs: 100, SongID: 42}}

	query := map[uint32]uint32{10: 0, 20: 100}

	matches, _, err := FindMatchesFGP(silentLogger(), client, query)
	require.NoError(t, err)
	assert.Empty(t, matches, "song 42 was never registered, so it must be silently dropped")
}
