package pipeline

import "github.com/mxcodec/webcodecs/internal/backend"

// svcPatterns gives the fixed temporalLayerId sequence per scalability
// mode (spec §4.4 "computed from output index using the pattern 0,1
// (L1T2) or 0,2,1,2 (L1T3)").
var svcPatterns = map[backend.ScalabilityMode][]int{
	backend.ScalabilityL1T2: {0, 1},
	backend.ScalabilityL1T3: {0, 2, 1, 2},
}

// temporalLayerID returns the layer id for the output at outputIndex (a
// counter starting at 0 and incrementing per dispatched output), or -1
// if mode carries no SVC layering (L1T1).
func temporalLayerID(mode backend.ScalabilityMode, outputIndex int) int {
	pattern, ok := svcPatterns[mode]
	if !ok {
		return -1
	}
	return pattern[outputIndex%len(pattern)]
}
