// Package config loads process-wide tunables for the codec engine via
// environment variables, mirroring the envconfig-based ServerConfig
// pattern used throughout the host application.
package config

import "github.com/kelseyhightower/envconfig"

// EngineConfig holds settings that apply across every pipeline instance in
// the process, as opposed to per-call VideoEncoderConfig/VideoDecoderConfig
// records which callers supply to configure().
type EngineConfig struct {
	Queue       Queue
	HWAccel     HWAccel
	Container   Container
}

// Load reads EngineConfig from the environment, filling defaults for unset
// fields.
func Load() (EngineConfig, error) {
	var cfg EngineConfig
	if err := envconfig.Process("WEBCODECS", &cfg); err != nil {
		return EngineConfig{}, err
	}
	return cfg, nil
}

// Queue controls back-pressure behavior (spec §5 "Back-pressure").
type Queue struct {
	// EncodeHighWaterMark is the encodeQueueSize above which encode()
	// signals QuotaExceeded instead of accepting more input.
	EncodeHighWaterMark int `envconfig:"ENCODE_QUEUE_HIGH_WATER_MARK" default:"32"`
	// DecodeHighWaterMark is the decodeQueueSize equivalent for decoders.
	DecodeHighWaterMark int `envconfig:"DECODE_QUEUE_HIGH_WATER_MARK" default:"32"`
}

// HWAccel controls hardware-accelerator negotiation (spec §4.3).
type HWAccel struct {
	// Disabled forces every pipeline to open software backends only,
	// regardless of the caller's HardwareAcceleration preference.
	Disabled bool `envconfig:"HWACCEL_DISABLED" default:"false"`
}

// Container controls default muxer behavior (spec §4.5).
type Container struct {
	// DefaultVideoTimescale is loaded from the environment (spec §4.5:
	// "defaults: video fps×1000 or 90 000"). No muxer reads it: the mux
	// command builds its MP4 muxer with a fixed 90000 video timescale.
	DefaultVideoTimescale uint32 `envconfig:"DEFAULT_VIDEO_TIMESCALE" default:"90000"`
}
