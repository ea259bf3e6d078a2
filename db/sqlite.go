package db

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"audiofp/apperr"
	"audiofp/models"
	"audiofp/utils"
)

// SQLiteClient is the relational backend: a single file, one writer at a
// time (enforced by the driver's own lock), good enough for the per-song
// serializability the index contract asks for.
type SQLiteClient struct {
	db *sql.DB
}

// NewSQLiteClient opens (creating if absent) the sqlite3 file at dataSourceName
// and ensures the songs/fingerprints tables exist.
func NewSQLiteClient(dataSourceName string) (*SQLiteClient, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "error connecting to sqlite", err)
	}
	if err := db.Ping(); err != nil {
		return nil, apperr.Wrap(apperr.Storage, "error connecting to sqlite", err)
	}
	if err := createSQLiteTables(db); err != nil {
		return nil, apperr.Wrap(apperr.Storage, "error creating tables", err)
	}
	return &SQLiteClient{db: db}, nil
}

func createSQLiteTables(db *sql.DB) error {
	const createSongsTable = `
	CREATE TABLE IF NOT EXISTS songs (
		id INTEGER PRIMARY KEY,
		title TEXT NOT NULL,
		artist TEXT NOT NULL,
		externalRef TEXT UNIQUE,
		key TEXT NOT NULL UNIQUE
	);`

	const createFingerprintsTable = `
	CREATE TABLE IF NOT EXISTS fingerprints (
		address INTEGER NOT NULL,
		anchorTimeMs INTEGER NOT NULL,
		songID INTEGER NOT NULL,
		PRIMARY KEY (address, anchorTimeMs, songID)
	);`

	if _, err := db.Exec(createSongsTable); err != nil {
		return fmt.Errorf("creating songs table: %w", err)
	}
	if _, err := db.Exec(createFingerprintsTable); err != nil {
		return fmt.Errorf("creating fingerprints table: %w", err)
	}
	return nil
}

func (c *SQLiteClient) Close() error {
	return c.db.Close()
}

// RegisterSong inserts a new song row with a freshly generated id and
// dedup key. The unique constraints on key/externalRef surface as
// AlreadyExists.
func (c *SQLiteClient) RegisterSong(songTitle, songArtist, externalRef string) (uint32, error) {
	tx, err := c.db.Begin()
	if err != nil {
		return 0, apperr.Wrap(apperr.Storage, "starting transaction", err)
	}
	defer tx.Rollback()

	songID := utils.GenerateUniqueID()
	songKey := utils.GenerateSongKey(songTitle, songArtist)

	var externalRefArg interface{}
	if externalRef != "" {
		externalRefArg = externalRef
	}

	_, err = tx.Exec(
		"INSERT INTO songs (id, title, artist, externalRef, key) VALUES (?, ?, ?, ?, ?)",
		songID, songTitle, songArtist, externalRefArg, songKey,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, apperr.Wrap(apperr.AlreadyExists, "song with that key or external ref already exists", err)
		}
		return 0, apperr.Wrap(apperr.Storage, "failed to insert song", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, apperr.Wrap(apperr.Storage, "committing song registration", err)
	}
	return songID, nil
}

// StoreFingerprints upserts every (address, anchorTimeMs, songID) triple in
// one transaction. INSERT OR REPLACE makes repeat calls with the same
// fingerprints idempotent.
func (c *SQLiteClient) StoreFingerprints(fingerprints map[uint32]models.Couple) error {
	if len(fingerprints) == 0 {
		return nil
	}

	tx, err := c.db.Begin()
	if err != nil {
		return apperr.Wrap(apperr.Storage, "starting transaction", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("INSERT OR REPLACE INTO fingerprints (address, anchorTimeMs, songID) VALUES (?, ?, ?)")
	if err != nil {
		return apperr.Wrap(apperr.Storage, "preparing insert", err)
	}
	defer stmt.Close()

	for address, couple := range fingerprints {
		if _, err := stmt.Exec(address, couple.AnchorTimeMs, couple.SongID); err != nil {
			return apperr.Wrap(apperr.Storage, "inserting fingerprint", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperr.Wrap(apperr.Storage, "committing fingerprints", err)
	}
	return nil
}

// GetCouples returns the postings for each address, with an empty (not
// absent) slice for addresses that have none.
func (c *SQLiteClient) GetCouples(addresses []uint32) (map[uint32][]models.Couple, error) {
	couples := make(map[uint32][]models.Couple, len(addresses))

	stmt, err := c.db.Prepare("SELECT anchorTimeMs, songID FROM fingerprints WHERE address = ?")
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "preparing query", err)
	}
	defer stmt.Close()

	for _, address := range addresses {
		rows, err := stmt.Query(address)
		if err != nil {
			return nil, apperr.Wrap(apperr.Storage, "querying couples", err)
		}

		var list []models.Couple
		for rows.Next() {
			var c models.Couple
			if err := rows.Scan(&c.AnchorTimeMs, &c.SongID); err != nil {
				rows.Close()
				return nil, apperr.Wrap(apperr.Storage, "scanning couple", err)
			}
			list = append(list, c)
		}
		rows.Close()

		couples[address] = list
	}

	return couples, nil
}

func (c *SQLiteClient) TotalSongs() (int, error) {
	var count int
	if err := c.db.QueryRow("SELECT COUNT(*) FROM songs").Scan(&count); err != nil {
		return 0, apperr.Wrap(apperr.Storage, "counting songs", err)
	}
	return count, nil
}

var allowedSongFilters = map[string]string{
	"id":          "id",
	"externalRef": "externalRef",
	"key":         "key",
}

// GetSong looks a song up by one of "id", "externalRef", "key". filterKey
// values outside that set are rejected before touching the database.
func (c *SQLiteClient) GetSong(filterKey string, value interface{}) (models.Song, bool, error) {
	column, ok := allowedSongFilters[filterKey]
	if !ok {
		return models.Song{}, false, apperr.New(apperr.InvalidInput, "invalid song filter key: "+filterKey)
	}

	query := fmt.Sprintf("SELECT id, title, artist, externalRef, key FROM songs WHERE %s = ?", column)

	var song models.Song
	var externalRef sql.NullString
	err := c.db.QueryRow(query, value).Scan(&song.ID, &song.Title, &song.Artist, &externalRef, &song.Key)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Song{}, false, nil
		}
		return models.Song{}, false, apperr.Wrap(apperr.Storage, "querying song", err)
	}
	song.ExternalRef = externalRef.String

	return song, true, nil
}

func (c *SQLiteClient) GetSongByID(songID uint32) (models.Song, bool, error) {
	return c.GetSong("id", songID)
}

func (c *SQLiteClient) GetSongByExternalRef(externalRef string) (models.Song, bool, error) {
	return c.GetSong("externalRef", externalRef)
}

func (c *SQLiteClient) GetSongByKey(key string) (models.Song, bool, error) {
	return c.GetSong("key", key)
}

// DeleteSongByID removes the song row and cascades to its fingerprints.
func (c *SQLiteClient) DeleteSongByID(songID uint32) error {
	tx, err := c.db.Begin()
	if err != nil {
		return apperr.Wrap(apperr.Storage, "starting transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM fingerprints WHERE songID = ?", songID); err != nil {
		return apperr.Wrap(apperr.Storage, "deleting fingerprints", err)
	}
	if _, err := tx.Exec("DELETE FROM songs WHERE id = ?", songID); err != nil {
		return apperr.Wrap(apperr.Storage, "deleting song", err)
	}

	if err := tx.Commit(); err != nil {
		return apperr.Wrap(apperr.Storage, "committing delete", err)
	}
	return nil
}

// DeleteCollection wipes one of the two known tables.
func (c *SQLiteClient) DeleteCollection(collectionName string) error {
	if collectionName != "songs" && collectionName != "fingerprints" {
		return apperr.New(apperr.InvalidInput, "unknown collection: "+collectionName)
	}
	if _, err := c.db.Exec(fmt.Sprintf("DELETE FROM %s", collectionName)); err != nil {
		return apperr.Wrap(apperr.Storage, "deleting collection", err)
	}
	return nil
}
