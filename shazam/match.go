package shazam

import (
	"log/slog"
	"sort"
	"time"

	"audiofp/apperr"
	"audiofp/db"
	"audiofp/models"
)

// coherenceToleranceMs is the maximum drift, in milliseconds, between a
// query pair's time delta and the corresponding database pair's time delta
// for that pair to count as coherent.
const coherenceToleranceMs = 100

// FindMatchesFGP scores sample, a query address -> anchor-time-ms map,
// against the index and returns ranked matches plus the wall-clock time
// the whole lookup took.
func FindMatchesFGP(logger *slog.Logger, dbClient db.Client, sample map[uint32]uint32) ([]models.Match, time.Duration, error) {
	startTime := time.Now()

	addresses := make([]uint32, 0, len(sample))
	for address := range sample {
		addresses = append(addresses, address)
	}

	postings, err := dbClient.GetCouples(addresses)
	if err != nil {
		return nil, time.Since(startTime), apperr.Wrap(apperr.Storage, "fetching couples", err)
	}

	// pairs[songID] accumulates (queryAnchorMs, dbAnchorMs) for every
	// posting under every address this song shares with the query.
	type timePair struct{ queryMs, dbMs uint32 }
	pairs := map[uint32][]timePair{}

	for address, queryAnchorMs := range sample {
		for _, couple := range postings[address] {
			pairs[couple.SongID] = append(pairs[couple.SongID], timePair{
				queryMs: queryAnchorMs,
				dbMs:    couple.AnchorTimeMs,
			})
		}
	}

	type scored struct {
		songID     uint32
		score      int
		minDBAnchor uint32
	}
	var candidates []scored

	for songID, ps := range pairs {
		var score int
		minDB := ps[0].dbMs

		for i := 0; i < len(ps); i++ {
			if ps[i].dbMs < minDB {
				minDB = ps[i].dbMs
			}
			for j := i + 1; j < len(ps); j++ {
				queryDelta := absDiffUint32(ps[i].queryMs, ps[j].queryMs)
				dbDelta := absDiffUint32(ps[i].dbMs, ps[j].dbMs)
				if absDiffUint32(queryDelta, dbDelta) < coherenceToleranceMs {
					score++
				}
			}
		}

		if score > 0 {
			candidates = append(candidates, scored{songID: songID, score: score, minDBAnchor: minDB})
		}
	}

	matches := make([]models.Match, 0, len(candidates))
	for _, c := range candidates {
		song, found, err := dbClient.GetSongByID(c.songID)
		if err != nil {
			return nil, time.Since(startTime), apperr.Wrap(apperr.Storage, "fetching matched song", err)
		}
		if !found {
			logger.Info("dropping match for song no longer in index", slog.Any("songID", c.songID))
			continue
		}

		matches = append(matches, models.Match{
			SongID:      song.ID,
			SongTitle:   song.Title,
			SongArtist:  song.Artist,
			ExternalRef: song.ExternalRef,
			TimestampMs: c.minDBAnchor,
			Score:       float64(c.score),
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].SongID < matches[j].SongID
	})

	return matches, time.Since(startTime), nil
}

func absDiffUint32(a, b uint32) uint32 {
	if a > b {
		return a - b
	}
	return b - a
}
