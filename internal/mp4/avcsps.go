package mp4

import (
	"github.com/Eyevinn/mp4ff/avc"

	"github.com/rs/zerolog/log"
)

// deriveAvcDimensionsFromAnnexB scans an Annex-B byte stream for its first
// SPS NAL unit and parses it with mp4ff, returning the coded dimensions it
// carries (spec §4.5 sample description: SPS-derived coded dimensions for
// AVC, supplementing a caller-supplied VideoDecoderConfig that may leave
// codedWidth/codedHeight unset).
func deriveAvcDimensionsFromAnnexB(data []byte) (width, height int, ok bool) {
	nalus := avc.ExtractNalusFromByteStream(data)
	for _, nalu := range nalus {
		if len(nalu) == 0 || nalu[0]&0x1F != 7 { // 7 = SPS
			continue
		}
		sps, err := avc.ParseSPSNALUnit(nalu, true)
		if err != nil {
			log.Warn().Err(err).Msg("mp4: failed to parse AVC SPS for coded dimensions")
			return 0, 0, false
		}
		return int(sps.Width), int(sps.Height), true
	}
	return 0, 0, false
}
