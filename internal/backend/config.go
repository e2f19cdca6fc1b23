package backend

// BitrateMode enumerates spec §3's VideoEncoderConfig.bitrateMode.
type BitrateMode string

const (
	BitrateConstant BitrateMode = "constant"
	BitrateVariable BitrateMode = "variable" // default
)

// LatencyMode enumerates spec §3's VideoEncoderConfig.latencyMode.
type LatencyMode string

const (
	LatencyQuality   LatencyMode = "quality" // default
	LatencyRealtime  LatencyMode = "realtime"
)

// ScalabilityMode enumerates spec §3/§4.4's SVC temporal-layering modes.
type ScalabilityMode string

const (
	ScalabilityL1T1 ScalabilityMode = "L1T1" // default, no layering
	ScalabilityL1T2 ScalabilityMode = "L1T2"
	ScalabilityL1T3 ScalabilityMode = "L1T3"
)

// LayerCount returns how many temporal layers m defines.
func (m ScalabilityMode) LayerCount() int {
	switch m {
	case ScalabilityL1T2:
		return 2
	case ScalabilityL1T3:
		return 3
	default:
		return 1
	}
}

// HardwareAcceleration enumerates spec §3's hardwareAcceleration preference.
type HardwareAcceleration string

const (
	HWNoPreference    HardwareAcceleration = "no-preference" // default
	HWPreferHardware  HardwareAcceleration = "prefer-hardware"
	HWPreferSoftware  HardwareAcceleration = "prefer-software"
)

// AlphaOption enumerates spec §3's alpha handling preference.
type AlphaOption string

const (
	AlphaKeep    AlphaOption = "keep"
	AlphaDiscard AlphaOption = "discard" // default
)

// ContentHint enumerates spec §3's contentHint.
type ContentHint string

const (
	ContentText   ContentHint = "text"
	ContentMotion ContentHint = "motion"
	ContentDetail ContentHint = "detail"
)

// AVCSpecific carries spec §3's "codec-family specifics (avc.format ∈
// {annexb, avc})".
type AVCSpecific struct {
	Format string // "annexb" | "avc", default "avc"
}

// VideoEncoderConfig mirrors spec §3's VideoEncoderConfig record.
type VideoEncoderConfig struct {
	Codec                string
	Width, Height        int
	Bitrate              int64 // bits/s
	Framerate            float64
	BitrateMode          BitrateMode
	LatencyMode          LatencyMode
	ScalabilityMode      ScalabilityMode
	HardwareAcceleration HardwareAcceleration
	Alpha                AlphaOption
	ContentHint          ContentHint
	AVC                  AVCSpecific
}

// Normalize fills in the spec-defined defaults for any zero-valued field
// (used by isConfigSupported's "config: normalized" result, spec §4.4).
func (c VideoEncoderConfig) Normalize() VideoEncoderConfig {
	if c.BitrateMode == "" {
		c.BitrateMode = BitrateVariable
	}
	if c.LatencyMode == "" {
		c.LatencyMode = LatencyQuality
	}
	if c.ScalabilityMode == "" {
		c.ScalabilityMode = ScalabilityL1T1
	}
	if c.HardwareAcceleration == "" {
		c.HardwareAcceleration = HWNoPreference
	}
	if c.Alpha == "" {
		c.Alpha = AlphaDiscard
	}
	if c.AVC.Format == "" {
		c.AVC.Format = "avc"
	}
	return c
}

// VideoDecoderConfig mirrors spec §3's VideoDecoderConfig record.
type VideoDecoderConfig struct {
	Codec                string
	CodedWidth           int
	CodedHeight          int
	Description          []byte
	HardwareAcceleration HardwareAcceleration
}

func (c VideoDecoderConfig) Normalize() VideoDecoderConfig {
	if c.HardwareAcceleration == "" {
		c.HardwareAcceleration = HWNoPreference
	}
	return c
}

// AudioEncoderConfig mirrors spec §3's audio config record ("Audio configs
// analogously carry sampleRate, numberOfChannels, bitrate").
type AudioEncoderConfig struct {
	Codec            string
	SampleRate       int
	NumberOfChannels int
	Bitrate          int64
}

func (c AudioEncoderConfig) Normalize() AudioEncoderConfig { return c }

// AudioDecoderConfig mirrors spec §3's audio decoder config record.
type AudioDecoderConfig struct {
	Codec            string
	SampleRate       int
	NumberOfChannels int
	Description      []byte // e.g. OpusHead
}

func (c AudioDecoderConfig) Normalize() AudioDecoderConfig { return c }
