package backend

import (
	"encoding/binary"
	"fmt"

	"github.com/mxcodec/webcodecs/internal/frame"
)

// encodeSyntheticFrame serializes a VideoFrame's format/dimensions/pixel
// data into a self-describing payload. The software reference backends
// use this in place of a real bitstream (spec §1: the concrete codec
// library is an external, pluggable collaborator out of scope for this
// spec); it lets the reference VideoDecoder reconstruct an equivalent
// VideoFrame on the far side of a round trip.
func encodeSyntheticFrame(f *frame.VideoFrame) ([]byte, error) {
	data, err := f.Data()
	if err != nil {
		return nil, err
	}
	format, err := f.Format()
	if err != nil {
		return nil, err
	}
	w, err := f.CodedWidth()
	if err != nil {
		return nil, err
	}
	h, err := f.CodedHeight()
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 0, 9+len(format)+len(data))
	buf = append(buf, byte(len(format)))
	buf = append(buf, []byte(format)...)
	var dims [8]byte
	binary.BigEndian.PutUint32(dims[0:4], uint32(w))
	binary.BigEndian.PutUint32(dims[4:8], uint32(h))
	buf = append(buf, dims[:]...)
	buf = append(buf, data...)
	return buf, nil
}

func decodeSyntheticFrame(payload []byte, timestamp int64) (*frame.VideoFrame, error) {
	if len(payload) < 1 {
		return nil, fmt.Errorf("synthetic payload too short: %d bytes", len(payload))
	}
	n := int(payload[0])
	if len(payload) < 1+n+8 {
		return nil, fmt.Errorf("synthetic payload truncated")
	}
	format := frame.VideoPixelFormat(payload[1 : 1+n])
	rest := payload[1+n:]
	w := binary.BigEndian.Uint32(rest[0:4])
	h := binary.BigEndian.Uint32(rest[4:8])
	data := rest[8:]

	return frame.NewVideoFrame(data, frame.VideoFrameBufferInit{
		Format:      format,
		CodedWidth:  int(w),
		CodedHeight: int(h),
		Timestamp:   timestamp,
	})
}

// encodeSyntheticAudio serializes an AudioData's format/layout/samples.
func encodeSyntheticAudio(a *frame.AudioData) ([]byte, error) {
	data, err := a.Data()
	if err != nil {
		return nil, err
	}
	format, err := a.Format()
	if err != nil {
		return nil, err
	}
	sr, err := a.SampleRate()
	if err != nil {
		return nil, err
	}
	frames, err := a.NumberOfFrames()
	if err != nil {
		return nil, err
	}
	channels, err := a.NumberOfChannels()
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 0, 13+len(format)+len(data))
	buf = append(buf, byte(len(format)))
	buf = append(buf, []byte(format)...)
	var header [12]byte
	binary.BigEndian.PutUint32(header[0:4], uint32(sr))
	binary.BigEndian.PutUint32(header[4:8], uint32(frames))
	binary.BigEndian.PutUint32(header[8:12], uint32(channels))
	buf = append(buf, header[:]...)
	buf = append(buf, data...)
	return buf, nil
}

func decodeSyntheticAudio(payload []byte, timestamp int64) (*frame.AudioData, error) {
	if len(payload) < 1 {
		return nil, fmt.Errorf("synthetic audio payload too short")
	}
	n := int(payload[0])
	if len(payload) < 1+n+12 {
		return nil, fmt.Errorf("synthetic audio payload truncated")
	}
	format := frame.AudioSampleFormat(payload[1 : 1+n])
	rest := payload[1+n:]
	sr := binary.BigEndian.Uint32(rest[0:4])
	frames := binary.BigEndian.Uint32(rest[4:8])
	channels := binary.BigEndian.Uint32(rest[8:12])
	data := rest[12:]

	return frame.NewAudioData(data, frame.AudioDataInit{
		Format:           format,
		SampleRate:       int(sr),
		NumberOfFrames:   int(frames),
		NumberOfChannels: int(channels),
		Timestamp:        timestamp,
	})
}
