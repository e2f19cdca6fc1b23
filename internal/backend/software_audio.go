package backend

import "github.com/mxcodec/webcodecs/internal/frame"

type pendingAudioOutput struct {
	chunk *frame.EncodedAudioChunk
	meta  *frame.EncodedAudioChunkMetadata
}

// softwareAudioEncoder is the reference AudioEncoderBackend. PCM codec
// families pass samples through unmodified (spec §4.4 "PCM codecs pass
// through without re-encoding"); others go through the same synthetic
// self-describing payload the video path uses.
type softwareAudioEncoder struct {
	family  Family
	cfg     AudioEncoderConfig
	outputs []pendingAudioOutput

	configSent bool
	flushed    bool
	closed     bool
}

func newSoftwareAudioEncoder(family Family, cfg AudioEncoderConfig) *softwareAudioEncoder {
	return &softwareAudioEncoder{family: family, cfg: cfg}
}

func (e *softwareAudioEncoder) SendFrame(a *frame.AudioData) error {
	if e.closed {
		return ErrAgain
	}

	var payload []byte
	var err error
	if e.family.IsPCM() {
		payload, err = a.Data()
	} else {
		payload, err = encodeSyntheticAudio(a)
	}
	if err != nil {
		return err
	}
	ts, err := a.Timestamp()
	if err != nil {
		return err
	}

	var meta *frame.EncodedAudioChunkMetadata
	if !e.configSent {
		meta = &frame.EncodedAudioChunkMetadata{DecoderConfig: buildAudioDecoderConfig(e.family, e.cfg)}
		e.configSent = true
	}

	e.outputs = append(e.outputs, pendingAudioOutput{
		chunk: &frame.EncodedAudioChunk{Type: frame.KeyChunk, Timestamp: ts, Data: payload},
		meta:  meta,
	})
	return nil
}

func (e *softwareAudioEncoder) Receive() (*frame.EncodedAudioChunk, *frame.EncodedAudioChunkMetadata, error) {
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

func (e *softwareAudioEncoder) Flush() error {
	e.flushed = true
	return nil
}

func (e *softwareAudioEncoder) Reset() error {
	e.outputs = nil
	e.configSent = false
	e.flushed = false
	return nil
}

func (e *softwareAudioEncoder) Close() error {
	e.closed = true
	e.outputs = nil
	return nil
}

// softwareAudioDecoder is the reference AudioDecoderBackend counterpart.
type softwareAudioDecoder struct {
	family  Family
	cfg     AudioDecoderConfig
	outputs []*frame.AudioData
	flushed bool
	closed  bool
}

func newSoftwareAudioDecoder(family Family, cfg AudioDecoderConfig) *softwareAudioDecoder {
	return &softwareAudioDecoder{family: family, cfg: cfg}
}

func (d *softwareAudioDecoder) SendPacket(c *frame.EncodedAudioChunk) error {
	if d.closed {
		return ErrAgain
	}

	if d.family.IsPCM() {
		format := frame.S16
		if d.family == FamilyPCMF32 {
			format = frame.F32
		}
		bps := format.BytesPerSample()
		if bps == 0 || d.cfg.NumberOfChannels <= 0 {
			return ErrAgain
		}
		numFrames := len(c.Data) / (bps * d.cfg.NumberOfChannels)
		a, err := frame.NewAudioData(c.Data, frame.AudioDataInit{
			Format:           format,
			SampleRate:       d.cfg.SampleRate,
			NumberOfFrames:   numFrames,
			NumberOfChannels: d.cfg.NumberOfChannels,
			Timestamp:        c.Timestamp,
		})
		if err != nil {
			return err
		}
		d.outputs = append(d.outputs, a)
		return nil
	}

	a, err := decodeSyntheticAudio(c.Data, c.Timestamp)
	if err != nil {
		return err
	}
	d.outputs = append(d.outputs, a)
	return nil
}

func (d *softwareAudioDecoder) Receive() (*frame.AudioData, error) {
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

func (d *softwareAudioDecoder) Flush() error {
	d.flushed = true
	return nil
}

func (d *softwareAudioDecoder) Reset() error {
	for _, a := range d.outputs {
		a.Close()
	}
	d.outputs = nil
	d.flushed = false
	return nil
}

func (d *softwareAudioDecoder) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	for _, a := range d.outputs {
		a.Close()
	}
	d.outputs = nil
	return nil
}
