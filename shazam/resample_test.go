package shazam

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"audiofp/apperr"
)

func TestDownsample_IdentityWhenRatesEqual(t *testing.T) {
	input := []float64{1, 2, 3, 4, 5}
	out, err := Downsample(input, 44100, 44100)
	require.NoError(t, err)
	assert.Equal(t, input, out)
}

func TestDownsample_AveragesBlocks(t *testing.T) {
	input := []float64{1, 3, 5, 7}
	out, err := Downsample(input, 4, 2)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.InDelta(t, 2.0, out[0], 1e-9)
	assert.InDelta(t, 6.0, out[1], 1e-9)
}

func TestDownsample_RejectsTargetAboveOriginal(t *testing.T) {
	_, err := Downsample([]float64{1, 2}, 100, 200)
	require.Error(t, err)
	assert.Equal(t, apperr.DSPFailure, apperr.KindOf(err))
}

func TestDownsample_RejectsNonPositiveRates(t *testing.T) {
	_, err := Downsample([]float64{1, 2}, 0, 0)
	require.Error(t, err)
	assert.Equal(t, apperr.InvalidInput, apperr.KindOf(err))
}
