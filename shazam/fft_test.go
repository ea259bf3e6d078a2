package shazam

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFFT_BasicSignal(t *testing.T) {
	sampleRate := 1000.0
	frequency := 10.0
	numSamples := 64

	signal := make([]float64, numSamples)
	for i := range signal {
		signal[i] = math.Sin(2 * math.Pi * frequency * float64(i) / sampleRate)
	}

	result := FFT(signal)
	require.Len(t, result, numSamples)

	expectedBin := int(frequency * float64(numSamples) / sampleRate)
	peakBin, maxMag := 0, 0.0
	for i := 0; i < numSamples/2; i++ {
		if mag := cmplx.Abs(result[i]); mag > maxMag {
			maxMag, peakBin = mag, i
		}
	}

	assert.InDeltaf(t, float64(expectedBin), float64(peakBin), 2, "peak bin off by more than tolerance")
}

func TestFFT_DCSignal(t *testing.T) {
	signal := make([]float64, 8)
	for i := range signal {
		signal[i] = 5.0
	}

	result := FFT(signal)

	assert.InDelta(t, 5.0*float64(len(signal)), cmplx.Abs(result[0]), 0.01)
	for i := 1; i < len(result); i++ {
		assert.InDeltaf(t, 0, cmplx.Abs(result[i]), 0.01, "bin %d should be near zero", i)
	}
}

func TestFFT_PowerOfTwoSizes(t *testing.T) {
	for _, size := range []int{2, 4, 8, 16, 32, 64, 128, 256} {
		signal := make([]float64, size)
		for i := range signal {
			signal[i] = float64(i)
		}
		assert.Len(t, FFT(signal), size)
	}
}

func TestFFT_ConjugateSymmetryForRealInput(t *testing.T) {
	signal := []float64{1, 2, 3, 4, 4, 3, 2, 1}
	result := FFT(signal)
	n := len(result)

	for k := 1; k < n/2; k++ {
		expected := cmplx.Conj(result[n-k])
		assert.Less(t, cmplx.Abs(result[k]-expected), 1e-9)
	}
}
