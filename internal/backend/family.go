// Package backend implements the codec backend abstraction (spec §4.2): a
// uniform open/send/receive/flush/close surface that every codec family
// implements, plus the software reference family backends this engine
// ships (the concrete native codec library itself is an external
// collaborator, out of scope per spec §1).
package backend

import "strings"

// Family identifies a codec family recognized from a WebCodecs codec
// string (spec §6 "A partial-prefix recogniser maps vendor-specific
// strings to canonical codec families").
type Family string

const (
	FamilyAVC    Family = "avc"
	FamilyHEVC   Family = "hevc"
	FamilyVP8    Family = "vp8"
	FamilyVP9    Family = "vp9"
	FamilyAV1    Family = "av1"
	FamilyAAC    Family = "aac"
	FamilyOpus   Family = "opus"
	FamilyMP3    Family = "mp3"
	FamilyFLAC   Family = "flac"
	FamilyVorbis Family = "vorbis"
	FamilyPCMS16 Family = "pcm-s16"
	FamilyPCMF32 Family = "pcm-f32"
)

// RecognizeCodec maps a WebCodecs codec string (spec §6: "avc1.PPCCLL",
// "hev1.*"/"hvc1.*", "vp8", "vp09.*", "av01.*", "mp4a.40.*", "opus", "mp3",
// "flac", "vorbis", "pcm-s16", "pcm-f32") to its canonical Family.
func RecognizeCodec(codec string) (Family, bool) {
	switch {
	case strings.HasPrefix(codec, "avc1.") || strings.HasPrefix(codec, "avc3."):
		return FamilyAVC, true
	case strings.HasPrefix(codec, "hev1.") || strings.HasPrefix(codec, "hvc1."):
		return FamilyHEVC, true
	case codec == "vp8":
		return FamilyVP8, true
	case strings.HasPrefix(codec, "vp09."):
		return FamilyVP9, true
	case strings.HasPrefix(codec, "av01."):
		return FamilyAV1, true
	case strings.HasPrefix(codec, "mp4a.40"):
		return FamilyAAC, true
	case codec == "opus":
		return FamilyOpus, true
	case codec == "mp3":
		return FamilyMP3, true
	case codec == "flac":
		return FamilyFLAC, true
	case codec == "vorbis":
		return FamilyVorbis, true
	case codec == "pcm-s16":
		return FamilyPCMS16, true
	case codec == "pcm-f32":
		return FamilyPCMF32, true
	default:
		return "", false
	}
}

// IsVideo reports whether f names a video codec family.
func (f Family) IsVideo() bool {
	switch f {
	case FamilyAVC, FamilyHEVC, FamilyVP8, FamilyVP9, FamilyAV1:
		return true
	default:
		return false
	}
}

// IsAudio reports whether f names an audio codec family.
func (f Family) IsAudio() bool {
	return !f.IsVideo()
}

// IsPCM reports whether f passes through samples without re-encoding
// (spec §4.4 "PCM codecs pass through without re-encoding").
func (f Family) IsPCM() bool {
	return f == FamilyPCMS16 || f == FamilyPCMF32
}
