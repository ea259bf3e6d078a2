package shazam

import (
	"math"

	"audiofp/apperr"
)

// Spectrogram runs the filter -> downsample -> windowed-FFT chain and
// returns the complex STFT: one full FFT result per frame. The complex
// coefficients are kept, not reduced to magnitude, because the fingerprint
// hasher encodes a peak's dominant-bin coefficient directly (see
// ExtractPeaks/createAddress).
func Spectrogram(sample []float64, sampleRate int, cfg FingerprintConfig) ([][]complex128, error) {
	filteredSample := LowPassFilter(cfg.MaxFreqHz, float64(sampleRate), sample)

	targetRate := sampleRate / cfg.DSPRatio
	downsampledSample, err := Downsample(filteredSample, sampleRate, targetRate)
	if err != nil {
		return nil, apperr.Wrap(apperr.DSPFailure, "couldn't downsample audio sample", err)
	}

	// free the filtered copy early; chunked ingest keeps memory bounded by
	// not holding onto both the original and filtered buffers at once
	filteredSample = nil

	window := buildWindow(cfg.WindowSize, cfg.Window)

	numWindows := len(downsampledSample) / (cfg.WindowSize - cfg.HopSize)
	spectrogram := make([][]complex128, 0, numWindows)

	for i := 0; i < numWindows; i++ {
		start := i * cfg.HopSize
		frame := make([]float64, cfg.WindowSize)
		// zero-pads the tail when start+WindowSize runs past N_down; frame
		// is already zero-valued from make, so only the in-range part is copied
		end := start + cfg.WindowSize
		if end > len(downsampledSample) {
			end = len(downsampledSample)
		}
		copy(frame, downsampledSample[start:end])

		for j := range window {
			frame[j] *= window[j]
		}

		spectrogram = append(spectrogram, FFT(frame))
	}

	return spectrogram, nil
}

func buildWindow(size int, fn WindowFunc) []float64 {
	w := make([]float64, size)
	switch fn {
	case WindowHanning:
		for i := range w {
			theta := 2 * math.Pi * float64(i) / float64(size-1)
			w[i] = 0.5 - 0.5*math.Cos(theta)
		}
	default: // WindowHamming
		for i := range w {
			theta := 2 * math.Pi * float64(i) / float64(size-1)
			w[i] = 0.54 - 0.46*math.Cos(theta)
		}
	}
	return w
}
