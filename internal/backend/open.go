package backend

import (
	"github.com/rs/zerolog/log"

	"github.com/mxcodec/webcodecs/internal/codecerr"
	"github.com/mxcodec/webcodecs/internal/hwaccel"
)

// hardwareOpenHook lets tests run the hardware-open path as if an
// accelerator were present. A hook error is a failed hardware open; when
// the hook returns nil the per-kind hardware open still runs, and every
// kind's hardware open fails, so no hardware backend is ever opened
// (spec §4.3 "A hardware
// attempt that fails with a backend error flips that accelerator to
// unavailable for the process and, unless the caller requested
// prefer-hardware, retries once in software"). Production builds never
// populate this: there is no real hardware backend wired in yet, so
// attemptHardwareThunk always reports "not attempted" and falls through to
// software, exactly as it would on a host with no accelerators detected.
var hardwareOpenHook func(name string) error

// resolveHardwarePreference implements spec §4.3's negotiation protocol
// uniformly for all four backend kinds: callers pass the open attempts as
// thunks so this stays codec-agnostic.
func resolveHardwarePreference(hw HardwareAcceleration, openHardware func() error, openSoftware func() error) error {
	switch hw {
	case HWPreferSoftware:
		return openSoftware()
	case HWPreferHardware:
		attempted, err := attemptHardwareThunk(openHardware)
		if attempted && err == nil {
			return nil
		}
		if attempted && err != nil {
			// prefer-hardware never falls back silently to software (spec §4.3).
			return codecerr.Wrap(codecerr.OperationError, "backend.resolveHardwarePreference", err)
		}
		return codecerr.New(codecerr.NotSupported, "backend.resolveHardwarePreference", "no hardware accelerator available")
	default: // no-preference
		attempted, err := attemptHardwareThunk(openHardware)
		if attempted && err == nil {
			return nil
		}
		return openSoftware()
	}
}

func attemptHardwareThunk(openHardware func() error) (attempted bool, err error) {
	acc, present := hwaccel.Preferred()
	if !present || hardwareOpenHook == nil {
		return false, nil
	}
	if hookErr := hardwareOpenHook(acc.Name); hookErr != nil {
		log.Warn().Str("accelerator", acc.Name).Err(hookErr).Msg("backend: hardware open failed, falling back")
		hwaccel.MarkUnavailable(acc.Name)
		return true, hookErr
	}
	if err := openHardware(); err != nil {
		log.Warn().Str("accelerator", acc.Name).Err(err).Msg("backend: hardware open failed, falling back")
		hwaccel.MarkUnavailable(acc.Name)
		return true, err
	}
	return true, nil
}

// OpenVideoEncoder negotiates and opens a VideoEncoderBackend for cfg
// (spec §4.2 "open(family, config)", §4.3 hardware negotiation).
func OpenVideoEncoder(cfg VideoEncoderConfig) (VideoEncoderBackend, error) {
	cfg = cfg.Normalize()
	family, ok := RecognizeCodec(cfg.Codec)
	if !ok || !family.IsVideo() {
		return nil, codecerr.New(codecerr.NotSupported, "backend.OpenVideoEncoder", "unrecognized video codec: "+cfg.Codec)
	}

	var backend VideoEncoderBackend
	err := resolveHardwarePreference(cfg.HardwareAcceleration,
		func() error {
			return codecerr.New(codecerr.NotSupported, "backend.OpenVideoEncoder", "no hardware video encoder backend wired in")
		},
		func() error {
			backend = newSoftwareVideoEncoder(family, cfg)
			return nil
		},
	)
	if err != nil {
		return nil, err
	}
	return backend, nil
}

// OpenVideoDecoder negotiates and opens a VideoDecoderBackend for cfg.
func OpenVideoDecoder(cfg VideoDecoderConfig) (VideoDecoderBackend, error) {
	cfg = cfg.Normalize()
	family, ok := RecognizeCodec(cfg.Codec)
	if !ok || !family.IsVideo() {
		return nil, codecerr.New(codecerr.NotSupported, "backend.OpenVideoDecoder", "unrecognized video codec: "+cfg.Codec)
	}

	var backend VideoDecoderBackend
	err := resolveHardwarePreference(cfg.HardwareAcceleration,
		func() error {
			return codecerr.New(codecerr.NotSupported, "backend.OpenVideoDecoder", "no hardware video decoder backend wired in")
		},
		func() error {
			backend = newSoftwareVideoDecoder(family, cfg)
			return nil
		},
	)
	if err != nil {
		return nil, err
	}
	return backend, nil
}

// OpenAudioEncoder negotiates and opens an AudioEncoderBackend for cfg.
// Audio codec families never carry a hardwareAcceleration preference in
// spec §3, so this always opens the software path.
func OpenAudioEncoder(cfg AudioEncoderConfig) (AudioEncoderBackend, error) {
	cfg = cfg.Normalize()
	family, ok := RecognizeCodec(cfg.Codec)
	if !ok || !family.IsAudio() {
		return nil, codecerr.New(codecerr.NotSupported, "backend.OpenAudioEncoder", "unrecognized audio codec: "+cfg.Codec)
	}
	return newSoftwareAudioEncoder(family, cfg), nil
}

// OpenAudioDecoder negotiates and opens an AudioDecoderBackend for cfg.
func OpenAudioDecoder(cfg AudioDecoderConfig) (AudioDecoderBackend, error) {
	cfg = cfg.Normalize()
	family, ok := RecognizeCodec(cfg.Codec)
	if !ok || !family.IsAudio() {
		return nil, codecerr.New(codecerr.NotSupported, "backend.OpenAudioDecoder", "unrecognized audio codec: "+cfg.Codec)
	}
	return newSoftwareAudioDecoder(family, cfg), nil
}

// SetHardwareOpenHookForTest installs a test-only hook that runs before
// each hardware open attempt, exercising the fallback protocol in spec
// §4.3 without a real accelerator present. A hook error fails the attempt
// at once; a nil return leaves it to the per-kind hardware open, which
// always fails. Passing nil restores the no-hardware-backend default.
func SetHardwareOpenHookForTest(hook func(name string) error) {
	hardwareOpenHook = hook
}
