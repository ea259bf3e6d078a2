package shazam

import "math/cmplx"

// Peak is a local spectral maximum: a time coordinate and the complex FFT
// coefficient of the dominant bin in its frequency band. Freq deliberately
// holds the coefficient itself, not a bin-index-derived Hz value:
// createAddress uses Re(Freq) directly as the encoded frequency bin,
// matching the original correlator's address scheme exactly (see
// DESIGN.md's peak-frequency decision).
type Peak struct {
	Freq complex128
	Time float64 // seconds from the start of the sample
}

// ExtractPeaks walks each frame of spectrogram band by band, finds the
// dominant bin in each of cfg.FreqBands, then emits a peak for every band
// whose dominant magnitude clears the *cross-band* average magnitude for
// that frame (the average of the band maxima themselves, not a per-band
// average of every bin in the band).
func ExtractPeaks(spectrogram [][]complex128, audioDuration float64, cfg FingerprintConfig) []Peak {
	if len(spectrogram) == 0 {
		return nil
	}

	binDuration := audioDuration / float64(len(spectrogram))

	var peaks []Peak

	for frameIdx, frame := range spectrogram {
		type bandMax struct {
			mag   float64
			freq  complex128
			index int
		}

		maxes := make([]bandMax, 0, len(cfg.FreqBands))

		for _, band := range cfg.FreqBands {
			minBin, maxBin := band[0], band[1]
			if maxBin > len(frame) {
				maxBin = len(frame)
			}
			if minBin >= maxBin {
				continue
			}

			m := bandMax{index: minBin}
			for bin := minBin; bin < maxBin; bin++ {
				mag := cmplx.Abs(frame[bin])
				if mag > m.mag {
					m.mag = mag
					m.freq = frame[bin]
					m.index = bin
				}
			}
			maxes = append(maxes, m)
		}

		if len(maxes) == 0 {
			continue
		}

		var sum float64
		for _, m := range maxes {
			sum += m.mag
		}
		avg := sum / float64(len(maxes))

		for _, m := range maxes {
			if m.mag > avg {
				peakTimeInBin := float64(m.index) * binDuration / float64(len(frame))
				peaks = append(peaks, Peak{
					Freq: m.freq,
					Time: float64(frameIdx)*binDuration + peakTimeInBin,
				})
			}
		}
	}

	return peaks
}
