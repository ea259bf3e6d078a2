package db

import (
	"audiofp/apperr"
	"audiofp/models"
	"audiofp/utils"
)

// Client is the storage-neutral index contract. Two concrete backends
// (SQLite, MongoDB) implement it, selected at runtime by DB_TYPE.
type Client interface {
	Close() error
	RegisterSong(songTitle, songArtist, externalRef string) (uint32, error)
	StoreFingerprints(fingerprints map[uint32]models.Couple) error
	GetCouples(addresses []uint32) (map[uint32][]models.Couple, error)
	TotalSongs() (int, error)
	GetSong(filterKey string, value interface{}) (models.Song, bool, error)
	GetSongByID(songID uint32) (models.Song, bool, error)
	GetSongByExternalRef(externalRef string) (models.Song, bool, error)
	GetSongByKey(key string) (models.Song, bool, error)
	DeleteSongByID(songID uint32) error
	DeleteCollection(collectionName string) error
}

// NewClient builds the Client named by the DB_TYPE environment variable
// ("sqlite", default; "mongo"/"document").
func NewClient() (Client, error) {
	switch dbType := utils.GetEnv("DB_TYPE", "sqlite"); dbType {
	case "sqlite", "":
		dbFile := utils.GetEnv("DB_FILE", "db.sqlite3")
		return NewSQLiteClient(dbFile)
	case "mongo", "document":
		return NewMongoClient()
	default:
		return nil, apperr.New(apperr.InvalidInput, "unknown DB_TYPE: "+dbType)
	}
}
