package pipeline

import (
	"github.com/rs/zerolog/log"

	"github.com/mxcodec/webcodecs/internal/backend"
	"github.com/mxcodec/webcodecs/internal/codecerr"
	"github.com/mxcodec/webcodecs/internal/config"
	"github.com/mxcodec/webcodecs/internal/frame"
)

// VideoDecoder implements spec §4.4's state machine specialized to video
// decoding.
type VideoDecoder struct {
	engineCfg config.EngineConfig
	output    VideoFrameOutputFunc
	onError   ErrorFunc

	state   State
	backend backend.VideoDecoderBackend
	cfg     backend.VideoDecoderConfig

	decodeQueueSize int
	queued          []*frame.VideoFrame
}

// NewVideoDecoder constructs an unconfigured VideoDecoder.
func NewVideoDecoder(engineCfg config.EngineConfig, output VideoFrameOutputFunc, onError ErrorFunc) *VideoDecoder {
	return &VideoDecoder{engineCfg: engineCfg, output: output, onError: onError, state: StateUnconfigured}
}

// IsConfigSupportedVideoDecoder implements the static isConfigSupported(cfg).
func IsConfigSupportedVideoDecoder(cfg backend.VideoDecoderConfig) (supported bool, normalized backend.VideoDecoderConfig) {
	normalized = cfg.Normalize()
	family, ok := backend.RecognizeCodec(normalized.Codec)
	if !ok || !family.IsVideo() {
		return false, normalized
	}
	return true, normalized
}

func (d *VideoDecoder) State() State       { return d.state }
func (d *VideoDecoder) DecodeQueueSize() int { return d.decodeQueueSize }

// Configure opens a new decoder backend (spec §4.4 "configure(cfg)").
func (d *VideoDecoder) Configure(cfg backend.VideoDecoderConfig) error {
	const op = "VideoDecoder.Configure"
	if d.state == StateClosed {
		return codecerr.New(codecerr.InvalidState, op, "decoder is closed")
	}

	supported, normalized := IsConfigSupportedVideoDecoder(cfg)
	if !supported {
		return codecerr.New(codecerr.NotSupported, op, "unrecognized video codec: "+cfg.Codec)
	}

	if d.state == StateConfigured {
		if err := d.drainOnReconfigure(); err != nil {
			return err
		}
	}

	if d.engineCfg.HWAccel.Disabled {
		normalized.HardwareAcceleration = backend.HWPreferSoftware
	}

	b, err := backend.OpenVideoDecoder(normalized)
	if err != nil {
		return codecerr.Wrap(codecerr.NotSupported, op, err)
	}

	d.backend = b
	d.cfg = normalized
	d.decodeQueueSize = 0
	d.queued = nil
	d.state = StateConfigured
	log.Debug().Str("codec", normalized.Codec).Msg("pipeline: video decoder configured")
	return nil
}

func (d *VideoDecoder) drainOnReconfigure() error {
	if d.backend == nil {
		return nil
	}
	if err := d.backend.Flush(); err == nil {
		d.drainBackend()
	}
	return d.backend.Close()
}

// Decode submits an EncodedVideoChunk (spec §4.4 "decode(chunk)").
func (d *VideoDecoder) Decode(c *frame.EncodedVideoChunk) error {
	const op = "VideoDecoder.Decode"
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

// Flush drains all outputs (spec §4.4 "flush()").
func (d *VideoDecoder) Flush() error {
	const op = "VideoDecoder.Flush"
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

// Reset cancels pending work and returns to unconfigured.
func (d *VideoDecoder) Reset() error {
	if d.backend != nil {
		_ = d.backend.Reset()
		_ = d.backend.Close()
		d.backend = nil
	}
	for _, f := range d.queued {
		f.Close()
	}
	d.queued = nil
	d.decodeQueueSize = 0
	d.state = StateUnconfigured
	return nil
}

// Close is idempotent.
func (d *VideoDecoder) Close() error {
	if d.state == StateClosed {
		return nil
	}
	if d.backend != nil {
		_ = d.backend.Close()
		d.backend = nil
	}
	for _, f := range d.queued {
		f.Close()
	}
	d.queued = nil
	d.state = StateClosed
	return nil
}

// TakeFrames drains buffered outputs in queue mode.
func (d *VideoDecoder) TakeFrames() []*frame.VideoFrame {
	out := d.queued
	d.queued = nil
	return out
}

func (d *VideoDecoder) drainBackend() {
	for {
		f, err := d.backend.Receive()
		if err != nil {
			return
		}
		if d.output != nil {
			d.output(f)
			continue
		}
		d.queued = append(d.queued, f)
	}
}

func (d *VideoDecoder) dispatchError(err error) {
	if d.onError != nil {
		d.onError(err)
	}
}

func (d *VideoDecoder) fail(err error) {
	d.dispatchError(err)
	if d.backend != nil {
		_ = d.backend.Close()
		d.backend = nil
	}
	d.state = StateClosed
}
