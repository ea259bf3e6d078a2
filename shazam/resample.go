package shazam

import (
	"audiofp/apperr"
)

// Downsample downsamples input from originalSampleRate to targetSampleRate
// by averaging integer-ratio blocks of samples.
func Downsample(input []float64, originalSampleRate, targetSampleRate int) ([]float64, error) {
	if targetSampleRate <= 0 || originalSampleRate <= 0 {
		return nil, apperr.New(apperr.InvalidInput, "sample rates must be positive")
	}
	if targetSampleRate > originalSampleRate {
		return nil, apperr.New(apperr.DSPFailure, "target sample rate must be less than or equal to original sample rate")
	}

	ratio := originalSampleRate / targetSampleRate
	if ratio <= 0 {
		return nil, apperr.New(apperr.DSPFailure, "invalid ratio calculated from sample rates")
	}

	resampled := make([]float64, 0, len(input)/ratio+1)
	for i := 0; i < len(input); i += ratio {
		end := i + ratio
		if end > len(input) {
			end = len(input)
		}

		var sum float64
		for j := i; j < end; j++ {
			sum += input[j]
		}
		resampled = append(resampled, sum/float64(end-i))
	}

	return resampled, nil
}
