package frame

import (
	"fmt"

	"github.com/mxcodec/webcodecs/internal/codecerr"
)

// AudioDataInit describes a raw PCM buffer being wrapped into an AudioData
// (spec §3 "AudioData").
type AudioDataInit struct {
	Format            AudioSampleFormat
	SampleRate        int
	NumberOfFrames    int
	NumberOfChannels  int
	Timestamp         int64
}

// AudioData owns interleaved or planar PCM samples plus WebCodecs metadata.
// Like VideoFrame, each handle is independently closeable over a shared,
// ref-counted allocation (spec §3, §4.1).
type AudioData struct {
	buf    *refBuffer
	closed bool

	format           AudioSampleFormat
	sampleRate       int
	numberOfFrames   int
	numberOfChannels int
	timestamp        int64
}

// NewAudioData validates spec §3's invariant — "buffer size =
// numberOfFrames × numberOfChannels × bytesPerSample(format)" — and wraps
// data into an AudioData.
func NewAudioData(data []byte, init AudioDataInit) (*AudioData, error) {
	const op = "frame.NewAudioData"

	if init.SampleRate <= 0 {
		return nil, codecerr.New(codecerr.TypeError, op, "sampleRate must be positive")
	}
	if init.NumberOfFrames <= 0 || init.NumberOfChannels <= 0 {
		return nil, codecerr.New(codecerr.TypeError, op, "numberOfFrames/numberOfChannels must be positive")
	}
	bps := init.Format.BytesPerSample()
	if bps == 0 {
		return nil, codecerr.New(codecerr.TypeError, op, fmt.Sprintf("unknown sample format %q", init.Format))
	}
	want := init.NumberOfFrames * init.NumberOfChannels * bps
	if len(data) != want {
		return nil, codecerr.New(codecerr.TypeError, op,
			fmt.Sprintf("buffer length %d does not match numberOfFrames*numberOfChannels*bytesPerSample=%d", len(data), want))
	}

	return &AudioData{
		buf:              newRefBuffer(data),
		format:           init.Format,
		sampleRate:       init.SampleRate,
		numberOfFrames:   init.NumberOfFrames,
		numberOfChannels: init.NumberOfChannels,
		timestamp:        init.Timestamp,
	}, nil
}

func (a *AudioData) checkOpen(op string) error {
	if a.closed {
		return codecerr.New(codecerr.InvalidState, op, "AudioData is closed")
	}
	return nil
}

func (a *AudioData) Format() (AudioSampleFormat, error) {
	if err := a.checkOpen("AudioData.Format"); err != nil {
		return "", err
	}
	return a.format, nil
}

func (a *AudioData) SampleRate() (int, error) {
	if err := a.checkOpen("AudioData.SampleRate"); err != nil {
		return 0, err
	}
	return a.sampleRate, nil
}

func (a *AudioData) NumberOfFrames() (int, error) {
	if err := a.checkOpen("AudioData.NumberOfFrames"); err != nil {
		return 0, err
	}
	return a.numberOfFrames, nil
}

func (a *AudioData) NumberOfChannels() (int, error) {
	if err := a.checkOpen("AudioData.NumberOfChannels"); err != nil {
		return 0, err
	}
	return a.numberOfChannels, nil
}

func (a *AudioData) Timestamp() (int64, error) {
	if err := a.checkOpen("AudioData.Timestamp"); err != nil {
		return 0, err
	}
	return a.timestamp, nil
}

func (a *AudioData) Data() ([]byte, error) {
	if err := a.checkOpen("AudioData.Data"); err != nil {
		return nil, err
	}
	return a.buf.data, nil
}

// Clone increments the ref count and returns an independent handle.
func (a *AudioData) Clone() (*AudioData, error) {
	if err := a.checkOpen("AudioData.Clone"); err != nil {
		return nil, err
	}
	a.buf.retain()
	clone := *a
	clone.closed = false
	return &clone, nil
}

// Close releases one reference; idempotent.
func (a *AudioData) Close() {
	if a.closed {
		return
	}
	a.closed = true
	a.buf.release()
}

func (a *AudioData) IsClosed() bool {
	return a.closed
}
