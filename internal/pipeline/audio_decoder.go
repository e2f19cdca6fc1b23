package pipeline

import (
	"github.com/rs/zerolog/log"

	"github.com/mxcodec/webcodecs/internal/backend"
	"github.com/mxcodec/webcodecs/internal/codecerr"
	"github.com/mxcodec/webcodecs/internal/config"
	"github.com/mxcodec/webcodecs/internal/frame"
)

// AudioDecoder implements spec §4.4's state machine specialized to audio
// decoding.
type AudioDecoder struct {
	engineCfg config.EngineConfig
	output    AudioDataOutputFunc
	onError   ErrorFunc

	state   State
	backend backend.AudioDecoderBackend
	cfg     backend.AudioDecoderConfig

	decodeQueueSize int
	queued          []*frame.AudioData
}

func NewAudioDecoder(engineCfg config.EngineConfig, output AudioDataOutputFunc, onError ErrorFunc) *AudioDecoder {
	return &AudioDecoder{engineCfg: engineCfg, output: output, onError: onError, state: StateUnconfigured}
}

// IsConfigSupportedAudioDecoder implements the static isConfigSupported(cfg).
func IsConfigSupportedAudioDecoder(cfg backend.AudioDecoderConfig) (supported bool, normalized backend.AudioDecoderConfig) {
	normalized = cfg.Normalize()
	family, ok := backend.RecognizeCodec(normalized.Codec)
	if !ok || !family.IsAudio() {
		return false, normalized
	}
	return true, normalized
}

func (d *AudioDecoder) State() State           { return d.state }
func (d *AudioDecoder) DecodeQueueSize() int   { return d.decodeQueueSize }

func (d *AudioDecoder) Configure(cfg backend.AudioDecoderConfig) error {
	const op = "AudioDecoder.Configure"
	if d.state == StateClosed {
		return codecerr.New(codecerr.InvalidState, op, "decoder is closed")
	}

	supported, normalized := IsConfigSupportedAudioDecoder(cfg)
	if !supported {
		return codecerr.New(codecerr.NotSupported, op, "unrecognized audio codec: "+cfg.Codec)
	}

	if d.state == StateConfigured {
		if err := d.drainOnReconfigure(); err != nil {
			return err
		}
	}

	b, err := backend.OpenAudioDecoder(normalized)
	if err != nil {
		return codecerr.Wrap(codecerr.NotSupported, op, err)
	}

	d.backend = b
	d.cfg = normalized
	d.decodeQueueSize = 0
	d.queued = nil
	d.state = StateConfigured
	log.Debug().Str("codec", normalized.Codec).Msg("pipeline: audio decoder configured")
	return nil
}

func (d *AudioDecoder) drainOnReconfigure() error {
	if d.backend == nil {
		return nil
	}
	if err := d.backend.Flush(); err == nil {
		d.drainBackend()
	}
	return d.backend.Close()
}

func (d *AudioDecoder) Decode(c *frame.EncodedAudioChunk) error {
	const op = "AudioDecoder.Decode"
	if d.state != StateConfigured {
		return codecerr.New(codecerr.InvalidState, op, "decoder is not configured")
	}

	hwm := d.engineCfg.Queue.DecodeHighWaterMark
	if hwm > 0 && d.decodeQueueSize >= hwm {
		err := codecerr.New(codecerr.QuotaExceeded, op, "decodeQueueSize exceeds high-water mark")
		d.dispatchError(err)
		return err
	}

	d.decodeQueueSize++
	if err := d.backend.SendPacket(c); err != nil {
		d.decodeQueueSize--
		wrapped := codecerr.Wrap(codecerr.DecodingError, op, err)
		d.fail(wrapped)
		return wrapped
	}
	d.drainBackend()
	d.decodeQueueSize--
	return nil
}

func (d *AudioDecoder) Flush() error {
	const op = "AudioDecoder.Flush"
	if d.state != StateConfigured {
		return codecerr.New(codecerr.InvalidState, op, "decoder is not configured")
	}
	if err := d.backend.Flush(); err != nil {
		wrapped := codecerr.Wrap(codecerr.DecodingError, op, err)
		d.fail(wrapped)
		return wrapped
	}
	d.drainBackend()
	return nil
}

func (d *AudioDecoder) Reset() error {
	if d.backend != nil {
		_ = d.backend.Reset()
		_ = d.backend.Close()
		d.backend = nil
	}
	for _, a := range d.queued {
		a.Close()
	}
	d.queued = nil
	d.decodeQueueSize = 0
	d.state = StateUnconfigured
	return nil
}

func (d *AudioDecoder) Close() error {
	if d.state == StateClosed {
		return nil
	}
	if d.backend != nil {
		_ = d.backend.Close()
		d.backend = nil
	}
	for _, a := range d.queued {
		a.Close()
	}
	d.queued = nil
	d.state = StateClosed
	return nil
}

func (d *AudioDecoder) TakeAudioData() []*frame.AudioData {
	out := d.queued
	d.queued = nil
	return out
}

func (d *AudioDecoder) drainBackend() {
	for {
		a, err := d.backend.Receive()
		if err != nil {
			return
		}
		if d.output != nil {
			d.output(a)
			continue
		}
		d.queued = append(d.queued, a)
	}
}

func (d *AudioDecoder) dispatchError(err error) {
	if d.onError != nil {
		d.onError(err)
	}
}

func (d *AudioDecoder) fail(err error) {
	d.dispatchError(err)
	if d.backend != nil {
		_ = d.backend.Close()
		d.backend = nil
	}
	d.state = StateClosed
}
