package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"audiofp/apperr"
	"audiofp/models"
	"audiofp/utils"
)

const mongoDatabaseName = "audiofp"

// MongoClient is the document backend. fingerprints documents are keyed
// by _id = address with postings kept in a couples array; songs
// documents are keyed by _id = songID with a unique index on key and a
// separate partial unique index on externalRef (only documents that carry
// one, since an empty externalRef is omitted).
type MongoClient struct {
	client *mongo.Client
}

// NewMongoClient connects using DB_HOST/DB_PORT/DB_USER/DB_PASS and
// ensures the songs unique indexes exist. The database name is always
// mongoDatabaseName; DB_NAME is not read.
func NewMongoClient() (*MongoClient, error) {
	host := utils.GetEnv("DB_HOST", "localhost")
	port := utils.GetEnv("DB_PORT", "27017")
	user := utils.GetEnv("DB_USER", "")
	pass := utils.GetEnv("DB_PASS", "")

	var uri string
	if user != "" {
		uri = "mongodb://" + user + ":" + pass + "@" + host + ":" + port
	} else {
		uri = "mongodb://" + host + ":" + port
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetAppName(mongoDatabaseName))
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "error connecting to mongo", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, apperr.Wrap(apperr.Storage, "error pinging mongo", err)
	}

	mc := &MongoClient{client: client}
	if err := mc.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return mc, nil
}

func (c *MongoClient) ensureIndexes(ctx context.Context) error {
	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "key", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := c.songsCollection().Indexes().CreateOne(ctx, indexModel); err != nil {
		return apperr.Wrap(apperr.Storage, "creating unique index on songs.key", err)
	}

	externalRefIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "externalRef", Value: 1}},
		Options: options.Index().SetUnique(true).
			SetPartialFilterExpression(bson.D{{Key: "externalRef", Value: bson.D{{Key: "$exists", Value: true}}}}),
	}
	if _, err := c.songsCollection().Indexes().CreateOne(ctx, externalRefIndex); err != nil {
		return apperr.Wrap(apperr.Storage, "creating unique index on songs.externalRef", err)
	}
	return nil
}

func (c *MongoClient) fingerprintsCollection() *mongo.Collection {
	return c.client.Database(mongoDatabaseName).Collection("fingerprints")
}

func (c *MongoClient) songsCollection() *mongo.Collection {
	return c.client.Database(mongoDatabaseName).Collection("songs")
}

func (c *MongoClient) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.client.Disconnect(ctx)
}

type mongoCouple struct {
	AnchorTimeMs uint32 `bson:"anchorTimeMs"`
	SongID       uint32 `bson:"songID"`
}

// StoreFingerprints upserts a couple into each address document's couples
// array. $addToSet skips a couple that is already present, so repeat calls
// with identical fingerprints are idempotent, as in the SQLite backend.
func (c *MongoClient) StoreFingerprints(fingerprints map[uint32]models.Couple) error {
	ctx := context.Background()
	collection := c.fingerprintsCollection()

	for address, couple := range fingerprints {
		filter := bson.D{{Key: "_id", Value: address}}
		update := bson.D{{Key: "$addToSet", Value: bson.D{{Key: "couples", Value: mongoCouple{
			AnchorTimeMs: couple.AnchorTimeMs,
			SongID:       couple.SongID,
		}}}}}

		_, err := collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
		if err != nil {
			return apperr.Wrap(apperr.Storage, "upserting fingerprint document", err)
		}
	}
	return nil
}

type fingerprintDoc struct {
	ID      uint32        `bson:"_id"`
	Couples []mongoCouple `bson:"couples"`
}

func (c *MongoClient) GetCouples(addresses []uint32) (map[uint32][]models.Couple, error) {
	ctx := context.Background()
	collection := c.fingerprintsCollection()

	result := make(map[uint32][]models.Couple, len(addresses))
	for _, address := range addresses {
		var doc fingerprintDoc
		err := collection.FindOne(ctx, bson.D{{Key: "_id", Value: address}}).Decode(&doc)
		if err == mongo.ErrNoDocuments {
			result[address] = nil
			continue
		}
		if err != nil {
			return nil, apperr.Wrap(apperr.Storage, "querying fingerprint document", err)
		}

		couples := make([]models.Couple, len(doc.Couples))
		for i, mc := range doc.Couples {
			couples[i] = models.Couple{AnchorTimeMs: mc.AnchorTimeMs, SongID: mc.SongID}
		}
		result[address] = couples
	}
	return result, nil
}

func (c *MongoClient) TotalSongs() (int, error) {
	ctx := context.Background()
	count, err := c.songsCollection().CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, apperr.Wrap(apperr.Storage, "counting songs", err)
	}
	return int(count), nil
}

type songDoc struct {
	ID          uint32 `bson:"_id"`
	Title       string `bson:"title"`
	Artist      string `bson:"artist"`
	ExternalRef string `bson:"externalRef,omitempty"`
	Key         string `bson:"key"`
}

func (c *MongoClient) RegisterSong(songTitle, songArtist, externalRef string) (uint32, error) {
	ctx := context.Background()

	songID := utils.GenerateUniqueID()
	key := utils.GenerateSongKey(songTitle, songArtist)

	doc := songDoc{ID: songID, Title: songTitle, Artist: songArtist, Key: key, ExternalRef: externalRef}

	_, err := c.songsCollection().InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return 0, apperr.Wrap(apperr.AlreadyExists, "song with that key or external ref already exists", err)
		}
		return 0, apperr.Wrap(apperr.Storage, "failed to insert song", err)
	}
	return songID, nil
}

var allowedMongoSongFilters = map[string]string{
	"id":          "_id",
	"externalRef": "externalRef",
	"key":         "key",
}

func (c *MongoClient) GetSong(filterKey string, value interface{}) (models.Song, bool, error) {
	field, ok := allowedMongoSongFilters[filterKey]
	if !ok {
		return models.Song{}, false, apperr.New(apperr.InvalidInput, "invalid song filter key: "+filterKey)
	}

	ctx := context.Background()
	var doc songDoc
	err := c.songsCollection().FindOne(ctx, bson.D{{Key: field, Value: value}}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return models.Song{}, false, nil
	}
	if err != nil {
		return models.Song{}, false, apperr.Wrap(apperr.Storage, "querying song document", err)
	}

	return models.Song{
		ID:          doc.ID,
		Title:       doc.Title,
		Artist:      doc.Artist,
		ExternalRef: doc.ExternalRef,
		Key:         doc.Key,
	}, true, nil
}

func (c *MongoClient) GetSongByID(songID uint32) (models.Song, bool, error) {
	return c.GetSong("id", songID)
}

func (c *MongoClient) GetSongByExternalRef(externalRef string) (models.Song, bool, error) {
	return c.GetSong("externalRef", externalRef)
}

func (c *MongoClient) GetSongByKey(key string) (models.Song, bool, error) {
	return c.GetSong("key", key)
}

// DeleteSongByID removes the song document and pulls every couple
// belonging to it out of the fingerprints collection's couples arrays.
func (c *MongoClient) DeleteSongByID(songID uint32) error {
	ctx := context.Background()

	_, err := c.fingerprintsCollection().UpdateMany(
		ctx,
		bson.D{},
		bson.D{{Key: "$pull", Value: bson.D{{Key: "couples", Value: bson.D{{Key: "songID", Value: songID}}}}}},
	)
	if err != nil {
		return apperr.Wrap(apperr.Storage, "pulling couples for deleted song", err)
	}

	if _, err := c.songsCollection().DeleteOne(ctx, bson.D{{Key: "_id", Value: songID}}); err != nil {
		return apperr.Wrap(apperr.Storage, "deleting song document", err)
	}
	return nil
}

func (c *MongoClient) DeleteCollection(collectionName string) error {
	if collectionName != "songs" && collectionName != "fingerprints" {
		return apperr.New(apperr.InvalidInput, "unknown collection: "+collectionName)
	}
	ctx := context.Background()
	if err := c.client.Database(mongoDatabaseName).Collection(collectionName).Drop(ctx); err != nil {
		return apperr.Wrap(apperr.Storage, "dropping collection", err)
	}
	return nil
}
