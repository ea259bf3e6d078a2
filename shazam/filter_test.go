package shazam

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLowPassFilter_AttenuatesHighFrequencyMoreThanLow(t *testing.T) {
	sampleRate := 44100.0
	cutoff := 1000.0
	n := 2048

	low := make([]float64, n)
	high := make([]float64, n)
	for i := 0; i < n; i++ {
		tSec := float64(i) / sampleRate
		low[i] = sinWave(100, tSec)
		high[i] = sinWave(15000, tSec)
	}

	lowOut := LowPassFilter(cutoff, sampleRate, low)
	highOut := LowPassFilter(cutoff, sampleRate, high)

	assert.Greater(t, rmsAmplitude(lowOut[len(lowOut)/2:]), rmsAmplitude(highOut[len(highOut)/2:]))
}

func TestStatefulLowPassFilter_PersistsStateAcrossChunks(t *testing.T) {
	sampleRate := 44100.0
	cutoff := 1000.0
	n := 1024

	whole := make([]float64, 2*n)
	for i := range whole {
		whole[i] = sinWave(50, float64(i)/sampleRate)
	}

	oneShot := NewStatefulLowPassFilter(cutoff, sampleRate).Filter(whole)

	chunked := NewStatefulLowPassFilter(cutoff, sampleRate)
	chunkA := chunked.Filter(whole[:n])
	chunkB := chunked.Filter(whole[n:])

	for i, v := range append(append([]float64{}, chunkA...), chunkB...) {
		assert.InDelta(t, oneShot[i], v, 1e-9)
	}
}

func sinWave(freqHz, t float64) float64 {
	return math.Sin(2 * math.Pi * freqHz * t)
}

func rmsAmplitude(samples []float64) float64 {
	var sumSq float64
	for _, s := range samples {
		sumSq += s * s
	}
	return math.Sqrt(sumSq / float64(len(samples)))
}
