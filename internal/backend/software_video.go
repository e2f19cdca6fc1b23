package backend

import (
	"github.com/rs/zerolog/log"

	"github.com/mxcodec/webcodecs/internal/frame"
)

type pendingVideoOutput struct {
	chunk *frame.EncodedVideoChunk
	meta  *frame.EncodedVideoChunkMetadata
}

// softwareVideoEncoder is the reference VideoEncoderBackend used when no
// hardware accelerator was negotiated, or when the caller set
// hardwareAcceleration: prefer-software (spec §4.2, §4.3).
type softwareVideoEncoder struct {
	family  Family
	cfg     VideoEncoderConfig
	outputs []pendingVideoOutput

	frameIndex  int
	configSent  bool
	flushed     bool
	closed      bool
}

func newSoftwareVideoEncoder(family Family, cfg VideoEncoderConfig) *softwareVideoEncoder {
	return &softwareVideoEncoder{family: family, cfg: cfg}
}

func (e *softwareVideoEncoder) SendFrame(f *frame.VideoFrame, forceKeyFrame bool) error {
	if e.closed {
		return ErrAgain
	}
	payload, err := encodeSyntheticFrame(f)
	if err != nil {
		return err
	}
	ts, err := f.Timestamp()
	if err != nil {
		return err
	}
	dur, err := f.Duration()
	if err != nil {
		return err
	}

	chunkType := frame.DeltaChunk
	if e.frameIndex == 0 || forceKeyFrame {
		chunkType = frame.KeyChunk
	}

	var meta *frame.EncodedVideoChunkMetadata
	if !e.configSent {
		meta = &frame.EncodedVideoChunkMetadata{DecoderConfig: buildVideoDecoderConfig(e.family, e.cfg)}
		e.configSent = true
	}

	e.outputs = append(e.outputs, pendingVideoOutput{
		chunk: &frame.EncodedVideoChunk{Type: chunkType, Timestamp: ts, Duration: dur, Data: payload},
		meta:  meta,
	})
	e.frameIndex++
	return nil
}

func (e *softwareVideoEncoder) Receive() (*frame.EncodedVideoChunk, *frame.EncodedVideoChunkMetadata, error) {
	if len(e.outputs) > 0 {
		out := e.outputs[0]
		e.outputs = e.outputs[1:]
		return out.chunk, out.meta, nil
	}
	if e.flushed {
		return nil, nil, ErrEOF
	}
	return nil, nil, ErrAgain
}

func (e *softwareVideoEncoder) Flush() error {
	e.flushed = true
	return nil
}

func (e *softwareVideoEncoder) Reset() error {
	e.outputs = nil
	e.frameIndex = 0
	e.configSent = false
	e.flushed = false
	return nil
}

func (e *softwareVideoEncoder) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	e.outputs = nil
	log.Debug().Str("family", string(e.family)).Msg("backend: software video encoder closed")
	return nil
}

// softwareVideoDecoder is the reference VideoDecoderBackend counterpart.
type softwareVideoDecoder struct {
	family  Family
	cfg     VideoDecoderConfig
	outputs []*frame.VideoFrame
	flushed bool
	closed  bool
}

func newSoftwareVideoDecoder(family Family, cfg VideoDecoderConfig) *softwareVideoDecoder {
	return &softwareVideoDecoder{family: family, cfg: cfg}
}

func (d *softwareVideoDecoder) SendPacket(c *frame.EncodedVideoChunk) error {
	if d.closed {
		return ErrAgain
	}
	f, err := decodeSyntheticFrame(c.Data, c.Timestamp)
	if err != nil {
		return err
	}
	d.outputs = append(d.outputs, f)
	return nil
}

func (d *softwareVideoDecoder) Receive() (*frame.VideoFrame, error) {
	if len(d.outputs) > 0 {
		out := d.outputs[0]
		d.outputs = d.outputs[1:]
		return out, nil
	}
	if d.flushed {
		return nil, ErrEOF
	}
	return nil, ErrAgain
}

func (d *softwareVideoDecoder) Flush() error {
	d.flushed = true
	return nil
}

func (d *softwareVideoDecoder) Reset() error {
	for _, f := range d.outputs {
		f.Close()
	}
	d.outputs = nil
	d.flushed = false
	return nil
}

func (d *softwareVideoDecoder) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	for _, f := range d.outputs {
		f.Close()
	}
	d.outputs = nil
	return nil
}
