package mp4

import "github.com/mxcodec/webcodecs/internal/bitstream"

// TrackKind distinguishes video and audio tracks (spec §4.5 "addVideoTrack"
// / "addAudioTrack").
type TrackKind int

const (
	KindVideo TrackKind = iota
	KindAudio
)

// SampleDescription is everything the stsd sample entry for a track needs:
// the codec family identifying the entry fourcc, and the decoder config
// carrying codedWidth/Height or sampleRate/channels plus the extradata
// description already built by internal/backend (spec §4.4 "decoderConfig").
type SampleDescription struct {
	Family      string // "avc", "hevc", "vp8", "vp9", "av1", "aac", "opus", "mp3", "flac", "vorbis", "pcm"
	CodedWidth  int
	CodedHeight int
	SampleRate  int
	Channels    int
	Description []byte // avcC/hvcC/vpcC/av1C/OpusHead payload, or esds payload for AAC
}

// buildVisualSampleEntry wraps a codec-specific configuration record box
// into a VisualSampleEntry (ISO/IEC 14496-12 §8.5.2), the stsd child for
// video tracks.
func buildVisualSampleEntry(fourcc string, width, height int, configBox []byte) []byte {
	payload := make([]byte, 78)
	// reserved[6], data_reference_index=1
	payload[7] = 1
	// pre_defined, reserved, pre_defined[3]
	putU16(payload[16:18], uint16(width))
	putU16(payload[18:20], uint16(height))
	putU32(payload[20:24], 0x00480000) // horizresolution 72dpi
	putU32(payload[24:28], 0x00480000) // vertresolution 72dpi
	// reserved(4), frame_count=1
	putU16(payload[34:36], 1)
	// compressorname[32] left zeroed
	putU16(payload[74:76], 0x0018) // depth = 24
	putU16(payload[76:78], 0xFFFF) // pre_defined = -1

	return box(fourcc, append(payload, configBox...))
}

// buildAudioSampleEntry wraps a codec-specific configuration record box
// into an AudioSampleEntry (ISO/IEC 14496-12 §8.5.2), the stsd child for
// audio tracks.
func buildAudioSampleEntry(fourcc string, sampleRate, channels int, configBox []byte) []byte {
	payload := make([]byte, 28)
	// reserved[6], data_reference_index=1
	payload[7] = 1
	// reserved[8]
	putU16(payload[16:18], uint16(channels))
	putU16(payload[18:20], 16) // samplesize
	// pre_defined, reserved
	putU32(payload[24:28], uint32(sampleRate)<<16)

	return box(fourcc, append(payload, configBox...))
}

func fourccFor(family string) string {
	switch family {
	case "avc":
		return "avc1"
	case "hevc":
		return "hev1"
	case "vp8":
		return "vp08"
	case "vp9":
		return "vp09"
	case "av1":
		return "av01"
	case "aac":
		return "mp4a"
	case "opus":
		return "Opus"
	case "mp3":
		return ".mp3"
	case "flac":
		return "fLaC"
	case "vorbis":
		return "vorb"
	default:
		return "pcm "
	}
}

// buildStsd assembles the stsd full box containing exactly one sample
// entry, following the decoder-config-record-per-family mapping from
// spec §4.5 ("populating stsd ... including avcC/hvcC/vpcC/av1C/esds").
func buildStsd(desc SampleDescription) []byte {
	fourcc := fourccFor(desc.Family)
	var entry []byte
	switch desc.Family {
	case "avc":
		entry = buildVisualSampleEntry(fourcc, desc.CodedWidth, desc.CodedHeight, box("avcC", desc.Description))
	case "hevc":
		entry = buildVisualSampleEntry(fourcc, desc.CodedWidth, desc.CodedHeight, box("hvcC", desc.Description))
	case "vp9":
		entry = buildVisualSampleEntry(fourcc, desc.CodedWidth, desc.CodedHeight, box("vpcC", desc.Description))
	case "av1":
		entry = buildVisualSampleEntry(fourcc, desc.CodedWidth, desc.CodedHeight, box("av1C", desc.Description))
	case "vp8":
		entry = buildVisualSampleEntry(fourcc, desc.CodedWidth, desc.CodedHeight, nil)
	case "aac":
		esds := bitstream.BuildEsds(1, desc.Description)
		entry = buildAudioSampleEntry(fourcc, desc.SampleRate, desc.Channels, box("esds", esds))
	case "opus":
		entry = buildAudioSampleEntry(fourcc, desc.SampleRate, desc.Channels, box("dOps", dOpsFromOpusHead(desc.Description)))
	default:
		entry = buildAudioSampleEntry(fourcc, desc.SampleRate, desc.Channels, nil)
	}

	countBuf := make([]byte, 4)
	putU32(countBuf, 1)
	return fullBox("stsd", 0, 0, append(countBuf, entry...))
}

// dOpsFromOpusHead re-derives the OpusSpecificBox (dOps, ISO/IEC
// 14496-12 Amd.2) fields from the OpusHead payload the backend already
// built, rather than recomputing them independently — both describe the
// same channel/pre-skip/sample-rate triple.
func dOpsFromOpusHead(opusHead []byte) []byte {
	if len(opusHead) < 19 {
		return make([]byte, 11)
	}
	buf := make([]byte, 11)
	buf[0] = 0 // version
	buf[1] = opusHead[9] // output channel count
	putU16(buf[2:4], u16LE(opusHead[10:12])) // pre-skip
	putU32(buf[4:8], u32LE(opusHead[12:16])) // input sample rate
	// output gain[2], channel mapping family[1] left zeroed
	return buf
}

func u16LE(b []byte) uint16 { return uint16(b[0]) | uint16(b[1])<<8 }
func u32LE(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
