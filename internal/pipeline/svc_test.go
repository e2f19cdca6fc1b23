package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mxcodec/webcodecs/internal/backend"
)

func TestTemporalLayerID_L1T1HasNoSVC(t *testing.T) {
	assert.Equal(t, -1, temporalLayerID(backend.ScalabilityL1T1, 0))
	assert.Equal(t, -1, temporalLayerID(backend.ScalabilityL1T1, 5))
}

func TestTemporalLayerID_L1T2Pattern(t *testing.T) {
	got := make([]int, 6)
	for i := range got {
		got[i] = temporalLayerID(backend.ScalabilityL1T2, i)
	}
	assert.Equal(t, []int{0, 1, 0, 1, 0, 1}, got)
}

func TestTemporalLayerID_L1T3Pattern(t *testing.T) {
	got := make([]int, 8)
	for i := range got {
		got[i] = temporalLayerID(backend.ScalabilityL1T3, i)
	}
	assert.Equal(t, []int{0, 2, 1, 2, 0, 2, 1, 2}, got)
}

func TestTemporalLayerID_L1T3_24FramesSixAtLayerZero(t *testing.T) {
	count := 0
	for i := 0; i < 24; i++ {
		if temporalLayerID(backend.ScalabilityL1T3, i) == 0 {
			count++
		}
	}
	assert.Equal(t, 6, count)
}
