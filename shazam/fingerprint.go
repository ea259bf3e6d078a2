package shazam

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"audiofp/apperr"
	"audiofp/models"
	"audiofp/utils"
	"audiofp/wav"
)

const (
	maxFreqBits  = 9
	maxDeltaBits = 14
)

// Fingerprint generates fingerprints from a list of peaks.
// each fingerprint is an (address -> couple) entry where the address
// encodes a frequency pair + time delta, and the couple holds the
// anchor time and song ID.
func Fingerprint(peaks []Peak, songID uint32, cfg FingerprintConfig) map[uint32]models.Couple {
	fingerprints := map[uint32]models.Couple{}

	for i, anchor := range peaks {
		for j := i + 1; j < len(peaks) && j <= i+cfg.TargetZoneSize; j++ {
			target := peaks[j]
			address := createAddress(anchor, target)
			fingerprints[address] = models.Couple{
				AnchorTimeMs: uint32(anchor.Time * 1000),
				SongID:       songID,
			}
		}
	}

	return fingerprints
}

// createAddress packs an anchor/target peak pair into a 32-bit address:
// bits 31-23 anchor freq bin, bits 22-14 target freq bin, bits 13-0 delta ms.
// anchor/target freq bins are the real part of the peak's FFT coefficient,
// taken directly (not a Hz value derived from the bin index).
func createAddress(anchor, target Peak) uint32 {
	anchorFreqBin := uint32(real(anchor.Freq))
	targetFreqBin := uint32(real(target.Freq))
	deltaMsRaw := uint32((target.Time - anchor.Time) * 1000)

	anchorFreqBits := anchorFreqBin & ((1 << maxFreqBits) - 1)
	targetFreqBits := targetFreqBin & ((1 << maxFreqBits) - 1)
	deltaBits := deltaMsRaw & ((1 << maxDeltaBits) - 1)

	return (anchorFreqBits << 23) | (targetFreqBits << 14) | deltaBits
}

// DecodeAddress is the inverse of createAddress, splitting a fingerprint
// address back into its anchor freq bin, target freq bin, and delta ms.
func DecodeAddress(address uint32) (anchorFreqBin, targetFreqBin, deltaMs uint32) {
	anchorFreqBin = (address >> 23) & ((1 << maxFreqBits) - 1)
	targetFreqBin = (address >> 14) & ((1 << maxFreqBits) - 1)
	deltaMs = address & ((1 << maxDeltaBits) - 1)
	return
}

// FingerprintAudioChunked processes an audio file in bounded-memory
// chunks using ffmpeg for segment extraction. each chunk is independently
// converted to WAV, fingerprinted, and merged into the result map.
// memory usage is proportional to chunkDurationSec, not total file length.
// the low-pass filter's state is NOT shared across chunks in this path
// since each chunk is decoded through a fresh Spectrogram call; the small
// overlap window between chunks compensates for the resulting edge effects.
func FingerprintAudioChunked(ctx context.Context, logger *slog.Logger, inputPath string, songID uint32, cfg FingerprintConfig) (map[uint32]models.Couple, error) {
	duration, err := wav.GetAudioDuration(inputPath)
	if err != nil {
		return nil, apperr.Wrap(apperr.DSPFailure, "failed to get audio duration", err)
	}

	logger.Info("fingerprinting audio",
		slog.Float64("durationSec", duration),
		slog.Float64("chunkDurationSec", cfg.ChunkDurationSec))

	fingerprints := make(map[uint32]models.Couple)

	chunkDur := cfg.ChunkDurationSec
	if chunkDur <= 0 {
		chunkDur = duration
	}

	// small overlap avoids losing peak pairs that straddle chunk boundaries
	overlap := 5.0
	step := chunkDur - overlap
	if step <= 0 {
		step = chunkDur
	}

	chunkIdx := 0
	for start := 0.0; start < duration; start += step {
		select {
		case <-ctx.Done():
			return nil, apperr.Wrap(apperr.Cancelled, "fingerprinting cancelled", ctx.Err())
		default:
		}

		dur := chunkDur
		if start+dur > duration {
			dur = duration - start
		}
		if dur <= 0 {
			break
		}

		chunkStart := time.Now()
		logger.Debug("extracting chunk", slog.Int("chunk", chunkIdx), slog.Float64("start", start), slog.Float64("dur", dur))

		chunkPath, err := wav.ExtractChunkAsWAV(inputPath, start, dur)
		if err != nil {
			return nil, apperr.Wrap(apperr.DSPFailure, "chunk extraction failed", err)
		}

		wavInfo, err := wav.ReadWavInfo(chunkPath)
		os.Remove(chunkPath)
		if err != nil {
			return nil, apperr.Wrap(apperr.DSPFailure, "reading chunk wav failed", err)
		}

		spectro, err := Spectrogram(wavInfo.LeftChannelSamples, wavInfo.SampleRate, cfg)
		if err != nil {
			return nil, apperr.Wrap(apperr.DSPFailure, "spectrogram failed", err)
		}

		peaks := ExtractPeaks(spectro, wavInfo.Duration, cfg)

		// offset peak times so they reflect position in the full file
		for i := range peaks {
			peaks[i].Time += start
		}

		chunkFP := Fingerprint(peaks, songID, cfg)
		utils.ExtendMap(fingerprints, chunkFP)

		logger.Debug("chunk fingerprinted",
			slog.Int("chunk", chunkIdx),
			slog.Int("peaks", len(peaks)),
			slog.Int("fingerprints", len(chunkFP)),
			slog.Duration("took", time.Since(chunkStart)))

		// release chunk memory before next iteration
		wavInfo = nil
		spectro = nil
		runtime.GC()

		chunkIdx++
	}

	logger.Info("fingerprinting complete", slog.Int("fingerprints", len(fingerprints)), slog.Int("chunks", chunkIdx))
	return fingerprints, nil
}

// FingerprintAudio processes the entire file using the default music
// config, through FingerprintAudioChunked, so files longer than that
// config's ChunkDurationSec are still processed in chunks.
func FingerprintAudio(ctx context.Context, logger *slog.Logger, songFilePath string, songID uint32) (map[uint32]models.Couple, error) {
	return FingerprintAudioChunked(ctx, logger, songFilePath, songID, DefaultMusicConfig())
}
