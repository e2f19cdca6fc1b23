package webm

// codecIDFor maps a backend codec family to its Matroska CodecID (Matroska
// codec registry, https://www.matroska.org/technical/codec_specs.html).
func codecIDFor(family string) string {
	switch family {
	case "avc":
		return "V_MPEG4/ISO/AVC"
	case "hevc":
		return "V_MPEGH/ISO/HEVC"
	case "vp8":
		return "V_VP8"
	case "vp9":
		return "V_VP9"
	case "av1":
		return "V_AV1"
	case "aac":
		return "A_AAC"
	case "opus":
		return "A_OPUS"
	case "mp3":
		return "A_MPEG/L3"
	case "vorbis":
		return "A_VORBIS"
	case "flac":
		return "A_FLAC"
	default:
		return "A_PCM/INT/LIT"
	}
}

// familyForCodecID inverts codecIDFor for the CodecIDs this package emits.
func familyForCodecID(codecID string) string {
	switch codecID {
	case "V_MPEG4/ISO/AVC":
		return "avc"
	case "V_MPEGH/ISO/HEVC":
		return "hevc"
	case "V_VP8":
		return "vp8"
	case "V_VP9":
		return "vp9"
	case "V_AV1":
		return "av1"
	case "A_AAC":
		return "aac"
	case "A_OPUS":
		return "opus"
	case "A_MPEG/L3":
		return "mp3"
	case "A_VORBIS":
		return "vorbis"
	case "A_FLAC":
		return "flac"
	default:
		return "pcm"
	}
}
