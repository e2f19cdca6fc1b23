package frame

// VideoPixelFormat enumerates the pixel layouts a VideoFrame may carry
// (spec §3 "VideoFrame").
type VideoPixelFormat string

const (
	I420  VideoPixelFormat = "I420"
	I420A VideoPixelFormat = "I420A"
	I422  VideoPixelFormat = "I422"
	I444  VideoPixelFormat = "I444"
	NV12  VideoPixelFormat = "NV12"
	RGBA  VideoPixelFormat = "RGBA"
	RGBX  VideoPixelFormat = "RGBX"
	BGRA  VideoPixelFormat = "BGRA"
	BGRX  VideoPixelFormat = "BGRX"
)

// planar reports whether format stores chroma in separate planes rather
// than interleaved with luma/alpha.
func (f VideoPixelFormat) planar() bool {
	switch f {
	case I420, I420A, I422, I444, NV12:
		return true
	default:
		return false
	}
}

// requiresEvenDimensions reports whether codedWidth/codedHeight must be
// even for this format (spec §4.1: "planar formats require even coded
// dimensions").
func (f VideoPixelFormat) requiresEvenDimensions() bool {
	return f.planar()
}

// byteSize returns the number of bytes a frame of this format occupies for
// the given coded dimensions, or 0 with ok=false if the format is unknown.
func (f VideoPixelFormat) byteSize(width, height int) (size int, ok bool) {
	lumaSize := width * height
	chromaSamples := ((width + 1) / 2) * ((height + 1) / 2)
	switch f {
	case I420:
		return lumaSize + 2*chromaSamples, true
	case I420A:
		return lumaSize + 2*chromaSamples + lumaSize, true
	case I422:
		// Chroma is subsampled horizontally only: half-width, full-height planes.
		chromaSamples = ((width + 1) / 2) * height
		return lumaSize + 2*chromaSamples, true
	case I444:
		return lumaSize * 3, true
	case NV12:
		return lumaSize + 2*chromaSamples, true
	case RGBA, RGBX, BGRA, BGRX:
		return lumaSize * 4, true
	default:
		return 0, false
	}
}

// AudioSampleFormat enumerates the PCM sample layouts an AudioData may
// carry (spec §3 "AudioData").
type AudioSampleFormat string

const (
	U8        AudioSampleFormat = "u8"
	S16       AudioSampleFormat = "s16"
	S32       AudioSampleFormat = "s32"
	F32       AudioSampleFormat = "f32"
	U8Planar  AudioSampleFormat = "u8-planar"
	S16Planar AudioSampleFormat = "s16-planar"
	S32Planar AudioSampleFormat = "s32-planar"
	F32Planar AudioSampleFormat = "f32-planar"
)

// BytesPerSample returns bytesPerSample(format) from spec §3's AudioData
// invariant.
func (f AudioSampleFormat) BytesPerSample() int {
	switch f {
	case U8, U8Planar:
		return 1
	case S16, S16Planar:
		return 2
	case S32, S32Planar, F32, F32Planar:
		return 4
	default:
		return 0
	}
}

// Planar reports whether channels are stored in separate planes rather
// than interleaved.
func (f AudioSampleFormat) Planar() bool {
	switch f {
	case U8Planar, S16Planar, S32Planar, F32Planar:
		return true
	default:
		return false
	}
}
