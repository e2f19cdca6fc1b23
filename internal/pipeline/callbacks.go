package pipeline

import "github.com/mxcodec/webcodecs/internal/frame"

// VideoOutputFunc receives one encoder output chunk (spec §4.4 "Callback
// mode: outputs are delivered through output(chunk, metadata)").
type VideoOutputFunc func(chunk *frame.EncodedVideoChunk, metadata *frame.EncodedVideoChunkMetadata)

// AudioOutputFunc is the audio analogue.
type AudioOutputFunc func(chunk *frame.EncodedAudioChunk, metadata *frame.EncodedAudioChunkMetadata)

// VideoFrameOutputFunc is a decoder's output callback.
type VideoFrameOutputFunc func(f *frame.VideoFrame)

// AudioDataOutputFunc is an audio decoder's output callback.
type AudioDataOutputFunc func(a *frame.AudioData)

// ErrorFunc receives pipeline errors in callback mode (spec §4.4
// "error(e) callbacks").
type ErrorFunc func(err error)
