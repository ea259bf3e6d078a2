// Package models holds the plain data types shared across the fingerprinting
// pipeline, the index store, and the HTTP/CLI transports.
package models

// Couple is one occurrence of a fingerprint address in the corpus: the
// anchor peak's time (in the song it belongs to) and the song it belongs to.
type Couple struct {
	AnchorTimeMs uint32
	SongID       uint32
}

// Song is the identity record for one corpus entry.
type Song struct {
	ID          uint32
	Title       string
	Artist      string
	ExternalRef string
	Key         string // dedup key: "<title>---<artist>"
}

// Match is a scored candidate returned by the matcher for one query.
type Match struct {
	SongID      uint32  `json:"song_id"`
	SongTitle   string  `json:"song_title"`
	SongArtist  string  `json:"song_artist"`
	ExternalRef string  `json:"external_ref"`
	TimestampMs uint32  `json:"timestamp"`
	Score       float64 `json:"score"`
}

// RecordData describes an in-browser / in-app recorded clip before it has
// been materialized to a WAV file on disk.
type RecordData struct {
	Audio      string // base64-encoded PCM
	Duration   float64
	Channels   int
	SampleRate int
	SampleSize int
}

// Track holds a file's tag metadata. The CLI's `save` path reads title and
// artist into plain strings and does not build a Track.
type Track struct {
	Title    string
	Artist   string
	Album    string
	Duration float64
}
