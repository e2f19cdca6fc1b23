package backend

import (
	"errors"

	"github.com/mxcodec/webcodecs/internal/frame"
)

// ErrAgain is returned by SendFrame/SendPacket/Receive when the backend
// cannot currently accept more input or has no output ready (spec §4.2
// "may return Again (backend full)").
var ErrAgain = errors.New("backend: again")

// ErrEOF is returned by Receive once Flush has fully drained the backend
// (spec §4.2 "subsequent receive() drains remainder until Eof").
var ErrEOF = errors.New("backend: eof")

// VideoEncoderBackend is the per-instance native encoder handle (spec §4.2
// capability set, video-encode specialization).
type VideoEncoderBackend interface {
	SendFrame(f *frame.VideoFrame, forceKeyFrame bool) error
	Receive() (*frame.EncodedVideoChunk, *frame.EncodedVideoChunkMetadata, error)
	Flush() error
	Reset() error
	Close() error
}

// VideoDecoderBackend is the per-instance native decoder handle.
type VideoDecoderBackend interface {
	SendPacket(c *frame.EncodedVideoChunk) error
	Receive() (*frame.VideoFrame, error)
	Flush() error
	Reset() error
	Close() error
}

// AudioEncoderBackend is the per-instance native audio encoder handle.
type AudioEncoderBackend interface {
	SendFrame(a *frame.AudioData) error
	Receive() (*frame.EncodedAudioChunk, *frame.EncodedAudioChunkMetadata, error)
	Flush() error
	Reset() error
	Close() error
}

// AudioDecoderBackend is the per-instance native audio decoder handle.
type AudioDecoderBackend interface {
	SendPacket(c *frame.EncodedAudioChunk) error
	Receive() (*frame.AudioData, error)
	Flush() error
	Reset() error
	Close() error
}
