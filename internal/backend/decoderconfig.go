package backend

import (
	"github.com/mxcodec/webcodecs/internal/bitstream"
	"github.com/mxcodec/webcodecs/internal/frame"
)

// Fixture NAL units used by the software reference video backends to
// populate a structurally well-formed avcC/hvcC/av1C when the caller has
// not supplied real parameter sets of their own (VideoEncoderConfig never
// carries them — a real hardware/software codec backend, out of scope per
// spec §1, is what would actually produce these). They are deliberately
// NOT validated against H.264/H.265/AV1 semantics: this engine's job is to
// carry decoderConfig.description through the pipeline and container
// layers unmodified, not to produce a decodable elementary stream.
var (
	placeholderAVCSPS = []byte{0x67, 0x42, 0xC0, 0x1E, 0x00, 0x00, 0x00, 0x00}
	placeholderAVCPPS = []byte{0x68, 0xCE, 0x3C, 0x80}
	placeholderHEVCVPS = []byte{0x40, 0x01, 0x0C, 0x01}
	placeholderHEVCSPS = []byte{0x42, 0x01, 0x01, 0x01, 0x60}
	placeholderHEVCPPS = []byte{0x44, 0x01}
	placeholderAV1SeqHdr = []byte{0x0A, 0x0B}
)

// buildVideoDecoderConfig computes the EncodedVideoChunkMetadata.decoderConfig
// delivered with the first output chunk after configure() (spec §4.4).
func buildVideoDecoderConfig(family Family, cfg VideoEncoderConfig) *frame.DecoderConfig {
	dc := &frame.DecoderConfig{
		Codec:       cfg.Codec,
		CodedWidth:  cfg.Width,
		CodedHeight: cfg.Height,
	}
	switch family {
	case FamilyAVC:
		dc.Description = bitstream.BuildAvcC([][]byte{placeholderAVCSPS}, [][]byte{placeholderAVCPPS})
	case FamilyHEVC:
		dc.Description = bitstream.BuildHvcC(
			[][]byte{placeholderHEVCVPS},
			[][]byte{placeholderHEVCSPS},
			[][]byte{placeholderHEVCPPS},
		)
	case FamilyVP9:
		dc.Description = bitstream.BuildVpcC(0, 10, 8, 1, false)
	case FamilyAV1:
		dc.Description = bitstream.BuildAv1C(0, 4, false, false, placeholderAV1SeqHdr)
	case FamilyVP8:
		// VP8 has no ISOBMFF codec-configuration-record; description is empty.
	}
	return dc
}

// buildAudioDecoderConfig is the audio analogue (spec §4.4 "Opus requires
// OpusHead in description on first decode; encoders emit it").
func buildAudioDecoderConfig(family Family, cfg AudioEncoderConfig) *frame.DecoderConfig {
	dc := &frame.DecoderConfig{
		Codec:            cfg.Codec,
		SampleRate:       cfg.SampleRate,
		NumberOfChannels: cfg.NumberOfChannels,
	}
	if family == FamilyOpus {
		dc.Description = bitstream.BuildOpusHead(cfg.NumberOfChannels, uint32(cfg.SampleRate), 312)
	}
	return dc
}
