package pipeline

import (
	"github.com/rs/zerolog/log"

	"github.com/mxcodec/webcodecs/internal/backend"
	"github.com/mxcodec/webcodecs/internal/codecerr"
	"github.com/mxcodec/webcodecs/internal/config"
	"github.com/mxcodec/webcodecs/internal/frame"
)

type videoChunkOutput struct {
	chunk *frame.EncodedVideoChunk
	meta  *frame.EncodedVideoChunkMetadata
}

// VideoEncoder implements spec §4.4's state machine specialized to video
// encoding.
type VideoEncoder struct {
	engineCfg config.EngineConfig
	output    VideoOutputFunc
	onError   ErrorFunc

	state   State
	backend backend.VideoEncoderBackend
	cfg     backend.VideoEncoderConfig

	encodeQueueSize int
	outputIndex     int
	queued          []videoChunkOutput
}

// NewVideoEncoder constructs an unconfigured VideoEncoder. Passing a nil
// output selects queue mode (spec §4.4 "Queue mode: outputs accumulate;
// takeEncodedChunks() drains them").
func NewVideoEncoder(engineCfg config.EngineConfig, output VideoOutputFunc, onError ErrorFunc) *VideoEncoder {
	return &VideoEncoder{engineCfg: engineCfg, output: output, onError: onError, state: StateUnconfigured}
}

// IsConfigSupportedVideo implements the static isConfigSupported(cfg)
// (spec §4.4: "never throws for structurally valid configs").
func IsConfigSupportedVideo(cfg backend.VideoEncoderConfig) (supported bool, normalized backend.VideoEncoderConfig) {
	normalized = cfg.Normalize()
	family, ok := backend.RecognizeCodec(normalized.Codec)
	if !ok || !family.IsVideo() {
		return false, normalized
	}
	if normalized.Width <= 0 || normalized.Height <= 0 {
		return false, normalized
	}
	return true, normalized
}

// State reports the current lifecycle state.
func (e *VideoEncoder) State() State { return e.state }

// EncodeQueueSize reports the number of inputs currently submitted but not
// yet fully drained (spec §5 "Back-pressure").
func (e *VideoEncoder) EncodeQueueSize() int { return e.encodeQueueSize }

// Configure opens a new backend for cfg (spec §4.4 "configure(cfg)").
func (e *VideoEncoder) Configure(cfg backend.VideoEncoderConfig) error {
	const op = "VideoEncoder.Configure"
	if e.state == StateClosed {
		return codecerr.New(codecerr.InvalidState, op, "encoder is closed")
	}

	supported, normalized := IsConfigSupportedVideo(cfg)
	if !supported {
		family, ok := backend.RecognizeCodec(cfg.Codec)
		if !ok || !family.IsVideo() {
			return codecerr.New(codecerr.NotSupported, op, "unrecognized video codec: "+cfg.Codec)
		}
		return codecerr.New(codecerr.TypeError, op, "width and height must be positive")
	}

	if e.state == StateConfigured {
		if err := e.drainOnReconfigure(); err != nil {
			return err
		}
	}

	if e.engineCfg.HWAccel.Disabled {
		normalized.HardwareAcceleration = backend.HWPreferSoftware
	}

	b, err := backend.OpenVideoEncoder(normalized)
	if err != nil {
		return codecerr.Wrap(codecerr.NotSupported, op, err)
	}

	e.backend = b
	e.cfg = normalized
	e.encodeQueueSize = 0
	e.outputIndex = 0
	e.queued = nil
	e.state = StateConfigured
	log.Debug().Str("codec", normalized.Codec).Msg("pipeline: video encoder configured")
	return nil
}

func (e *VideoEncoder) drainOnReconfigure() error {
	if e.backend == nil {
		return nil
	}
	if err := e.backend.Flush(); err == nil {
		e.drainBackend()
	}
	return e.backend.Close()
}

// Encode submits a VideoFrame for encoding (spec §4.4 "encode(frame, opts?)").
func (e *VideoEncoder) Encode(f *frame.VideoFrame, forceKeyFrame bool) error {
	const op = "VideoEncoder.Encode"
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
	if err := e.backend.SendFrame(f, forceKeyFrame); err != nil {
		e.encodeQueueSize--
		wrapped := codecerr.Wrap(codecerr.EncodingError, op, err)
		e.fail(wrapped)
		return wrapped
	}
	e.drainBackend()
	e.encodeQueueSize--
	return nil
}

// Flush signals end-of-input and drains all outputs (spec §4.4 "flush()").
func (e *VideoEncoder) Flush() error {
	const op = "VideoEncoder.Flush"
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

// Reset cancels pending work and returns to unconfigured (spec §4.4 "reset()").
func (e *VideoEncoder) Reset() error {
	if e.backend != nil {
		_ = e.backend.Reset()
		_ = e.backend.Close()
		e.backend = nil
	}
	e.queued = nil
	e.encodeQueueSize = 0
	e.outputIndex = 0
	e.state = StateUnconfigured
	return nil
}

// Close is idempotent and transitions to closed (spec §4.4 "close()").
func (e *VideoEncoder) Close() error {
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

// TakeEncodedChunks drains buffered outputs in queue mode (spec §4.4
// "takeEncodedChunks()"). Idempotent: a second call returns empty.
func (e *VideoEncoder) TakeEncodedChunks() []*frame.EncodedVideoChunk {
	out := make([]*frame.EncodedVideoChunk, len(e.queued))
	for i, q := range e.queued {
		out[i] = q.chunk
	}
	e.queued = nil
	return out
}

// drainBackend polls the backend until Again/Eof, dispatching each output.
func (e *VideoEncoder) drainBackend() {
	for {
		chunk, meta, err := e.backend.Receive()
		if err != nil {
			return // Again or Eof: nothing more to deliver right now
		}
		e.dispatchOutput(chunk, meta)
	}
}

func (e *VideoEncoder) dispatchOutput(chunk *frame.EncodedVideoChunk, meta *frame.EncodedVideoChunkMetadata) {
	if layer := temporalLayerID(e.cfg.ScalabilityMode, e.outputIndex); layer >= 0 {
		if meta == nil {
			meta = &frame.EncodedVideoChunkMetadata{}
		}
		meta.SVC = &frame.SVCMetadata{TemporalLayerID: layer}
	}
	e.outputIndex++

	if e.output != nil {
		e.output(chunk, meta)
		return
	}
	e.queued = append(e.queued, videoChunkOutput{chunk: chunk, meta: meta})
}

func (e *VideoEncoder) dispatchError(err error) {
	if e.onError != nil {
		e.onError(err)
	}
}

// fail transitions the encoder to closed and surfaces err (spec §7
// "Errors ... the pipeline then transitions to closed").
func (e *VideoEncoder) fail(err error) {
	e.dispatchError(err)
	if e.backend != nil {
		_ = e.backend.Close()
		e.backend = nil
	}
	e.state = StateClosed
}
