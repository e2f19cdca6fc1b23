package pipeline

import (
	"github.com/rs/zerolog/log"

	"github.com/mxcodec/webcodecs/internal/backend"
	"github.com/mxcodec/webcodecs/internal/codecerr"
	"github.com/mxcodec/webcodecs/internal/config"
	"github.com/mxcodec/webcodecs/internal/frame"
)

type audioChunkOutput struct {
	chunk *frame.EncodedAudioChunk
	meta  *frame.EncodedAudioChunkMetadata
}

// AudioEncoder implements spec §4.4's state machine specialized to audio
// encoding (spec §4.4 "Audio encoder specifics").
type AudioEncoder struct {
	engineCfg config.EngineConfig
	output    AudioOutputFunc
	onError   ErrorFunc

	state   State
	backend backend.AudioEncoderBackend
	cfg     backend.AudioEncoderConfig

	encodeQueueSize int
	queued          []audioChunkOutput
}

func NewAudioEncoder(engineCfg config.EngineConfig, output AudioOutputFunc, onError ErrorFunc) *AudioEncoder {
	return &AudioEncoder{engineCfg: engineCfg, output: output, onError: onError, state: StateUnconfigured}
}

// IsConfigSupportedAudioEncoder implements the static isConfigSupported(cfg).
func IsConfigSupportedAudioEncoder(cfg backend.AudioEncoderConfig) (supported bool, normalized backend.AudioEncoderConfig) {
	normalized = cfg.Normalize()
	family, ok := backend.RecognizeCodec(normalized.Codec)
	if !ok || !family.IsAudio() {
		return false, normalized
	}
	if normalized.SampleRate <= 0 || normalized.NumberOfChannels <= 0 {
		return false, normalized
	}
	return true, normalized
}

func (e *AudioEncoder) State() State           { return e.state }
func (e *AudioEncoder) EncodeQueueSize() int   { return e.encodeQueueSize }

func (e *AudioEncoder) Configure(cfg backend.AudioEncoderConfig) error {
	const op = "AudioEncoder.Configure"
	if e.state == StateClosed {
		return codecerr.New(codecerr.InvalidState, op, "encoder is closed")
	}

	supported, normalized := IsConfigSupportedAudioEncoder(cfg)
	if !supported {
		family, ok := backend.RecognizeCodec(cfg.Codec)
		if !ok || !family.IsAudio() {
			return codecerr.New(codecerr.NotSupported, op, "unrecognized audio codec: "+cfg.Codec)
		}
		return codecerr.New(codecerr.TypeError, op, "sampleRate and numberOfChannels must be positive")
	}

	if e.state == StateConfigured {
		if err := e.drainOnReconfigure(); err != nil {
			return err
		}
	}

	b, err := backend.OpenAudioEncoder(normalized)
	if err != nil {
		return codecerr.Wrap(codecerr.NotSupported, op, err)
	}

	e.backend = b
	e.cfg = normalized
	e.encodeQueueSize = 0
	e.queued = nil
	e.state = StateConfigured
	log.Debug().Str("codec", normalized.Codec).Msg("pipeline: audio encoder configured")
	return nil
}

func (e *AudioEncoder) drainOnReconfigure() error {
	if e.backend == nil {
		return nil
	}
	if err := e.backend.Flush(); err == nil {
		e.drainBackend()
	}
	return e.backend.Close()
}

func (e *AudioEncoder) Encode(a *frame.AudioData) error {
	const op = "AudioEncoder.Encode"
	if e.state != StateConfigured {
		return codecerr.New(codecerr.InvalidState, op, "encoder is not configured")
	}

	hwm := e.engineCfg.Queue.EncodeHighWaterMark
	if hwm > 0 && e.encodeQueueSize >= hwm {
		err := codecerr.New(codecerr.QuotaExceeded, op, "encodeQueueSize exceeds high-water mark")
		e.dispatchError(err)
		return err
	}

	e.encodeQueueSize++
	if err := e.backend.SendFrame(a); err != nil {
		e.encodeQueueSize--
		wrapped := codecerr.Wrap(codecerr.EncodingError, op, err)
		e.fail(wrapped)
		return wrapped
	}
	e.drainBackend()
	e.encodeQueueSize--
	return nil
}

func (e *AudioEncoder) Flush() error {
	const op = "AudioEncoder.Flush"
	if e.state != StateConfigured {
		return codecerr.New(codecerr.InvalidState, op, "encoder is not configured")
	}
	if err := e.backend.Flush(); err != nil {
		wrapped := codecerr.Wrap(codecerr.EncodingError, op, err)
		e.fail(wrapped)
		return wrapped
	}
	e.drainBackend()
	return nil
}

func (e *AudioEncoder) Reset() error {
	if e.backend != nil {
		_ = e.backend.Reset()
		_ = e.backend.Close()
		e.backend = nil
	}
	e.queued = nil
	e.encodeQueueSize = 0
	e.state = StateUnconfigured
	return nil
}

func (e *AudioEncoder) Close() error {
	if e.state == StateClosed {
		return nil
	}
	if e.backend != nil {
		_ = e.backend.Close()
		e.backend = nil
	}
	e.queued = nil
	e.state = StateClosed
	return nil
}

func (e *AudioEncoder) TakeEncodedChunks() []*frame.EncodedAudioChunk {
	out := make([]*frame.EncodedAudioChunk, len(e.queued))
	for i, q := range e.queued {
		out[i] = q.chunk
	}
	e.queued = nil
	return out
}

func (e *AudioEncoder) drainBackend() {
	for {
		chunk, meta, err := e.backend.Receive()
		if err != nil {
			return
		}
		if e.output != nil {
			e.output(chunk, meta)
			continue
		}
		e.queued = append(e.queued, audioChunkOutput{chunk: chunk, meta: meta})
	}
}

func (e *AudioEncoder) dispatchError(err error) {
	if e.onError != nil {
		e.onError(err)
	}
}

func (e *AudioEncoder) fail(err error) {
	e.dispatchError(err)
	if e.backend != nil {
		_ = e.backend.Close()
		e.backend = nil
	}
	e.state = StateClosed
}
