package shazam

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// encoder round-trip, worked example: anchor (t=1.000s, band coefficient
// 100), target (t=1.050s, band coefficient 200) -> (100<<23)|(200<<14)|50
// = 842137650.
func TestCreateAddress_WorkedExample(t *testing.T) {
	anchor := Peak{Freq: 100, Time: 1.000}
	target := Peak{Freq: 200, Time: 1.050}

	address := createAddress(anchor, target)

	assert.Equal(t, uint32(842137650), address)
}

func TestDecodeAddress_IsInverseOfCreateAddress(t *testing.T) {
	anchor := Peak{Freq: 100, Time: 1.000}
	target := Peak{Freq: 200, Time: 1.050}

	address := createAddress(anchor, target)
	anchorBin, targetBin, deltaMs := DecodeAddress(address)

	assert.Equal(t, uint32(100), anchorBin)
	assert.Equal(t, uint32(200), targetBin)
	assert.Equal(t, uint32(50), deltaMs)
}

func TestFingerprint_MinimalIndexScenario(t *testing.T) {
	peaks := []Peak{
		{Freq: 500, Time: 0.0},
		{Freq: 600, Time: 0.1},
		{Freq: 700, Time: 0.2},
	}
	cfg := DefaultMusicConfig()

	fingerprints := Fingerprint(peaks, 1, cfg)

	require.Len(t, fingerprints, 3, "anchor 0 pairs with 1,2; anchor 1 pairs with 2")

	anchorTimes := make(map[uint32]bool)
	for _, couple := range fingerprints {
		require.Equal(t, uint32(1), couple.SongID)
		anchorTimes[couple.AnchorTimeMs] = true
	}
	assert.True(t, anchorTimes[0])
	assert.True(t, anchorTimes[100])
}

func TestFingerprint_EmptyAndSinglePeakProduceNoPairs(t *testing.T) {
	cfg := DefaultMusicConfig()

	assert.Empty(t, Fingerprint(nil, 1, cfg))
	assert.Empty(t, Fingerprint([]Peak{{Freq: 100, Time: 0}}, 1, cfg))
}

func TestFingerprint_TargetZoneBoundsPairsPerAnchor(t *testing.T) {
	cfg := DefaultMusicConfig()
	cfg.TargetZoneSize = 2

	peaks := make([]Peak, 10)
	for i := range peaks {
		peaks[i] = Peak{Freq: complex(float64(100*(i+1)), 0), Time: float64(i) * 0.01}
	}

	fingerprints := Fingerprint(peaks, 7, cfg)

	// anchors 0..7 get 2 pairs each, anchor 8 gets 1, anchor 9 gets 0
	assert.Len(t, fingerprints, 8*2+1)
}
