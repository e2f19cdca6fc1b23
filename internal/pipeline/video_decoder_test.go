package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mxcodec/webcodecs/internal/backend"
	"github.com/mxcodec/webcodecs/internal/codecerr"
	"github.com/mxcodec/webcodecs/internal/frame"
	"github.com/mxcodec/webcodecs/internal/hwaccel"
)

func TestVideoDecoder_RoundTripThroughEncoder(t *testing.T) {
	hwaccel.ResetFallbackState()
	defer hwaccel.ResetFallbackState()

	var chunks []*frame.EncodedVideoChunk
	enc := NewVideoEncoder(testEngineConfig(), func(c *frame.EncodedVideoChunk, m *frame.EncodedVideoChunkMetadata) {
		chunks = append(chunks, c)
	}, nil)
	require.NoError(t, enc.Configure(backend.VideoEncoderConfig{Codec: "avc1.42001E", Width: 16, Height: 16}))
	require.NoError(t, enc.Encode(testVideoFrame(t, 7), true))
	require.NoError(t, enc.Flush())
	require.Len(t, chunks, 1)

	var frames []*frame.VideoFrame
	dec := NewVideoDecoder(testEngineConfig(), func(f *frame.VideoFrame) {
		frames = append(frames, f)
	}, nil)
	require.NoError(t, dec.Configure(backend.VideoDecoderConfig{Codec: "avc1.42001E", CodedWidth: 16, CodedHeight: 16}))
	require.NoError(t, dec.Decode(chunks[0]))
	require.NoError(t, dec.Flush())

	require.Len(t, frames, 1)
	defer frames[0].Close()
	ts, err := frames[0].Timestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(7), ts)
}

func TestVideoDecoder_CloseTwiceDoesNotThrowAndReadsClosed(t *testing.T) {
	hwaccel.ResetFallbackState()
	defer hwaccel.ResetFallbackState()

	dec := NewVideoDecoder(testEngineConfig(), nil, nil)
	require.NoError(t, dec.Configure(backend.VideoDecoderConfig{Codec: "avc1.42001E", CodedWidth: 16, CodedHeight: 16}))
	require.NoError(t, dec.Close())
	require.NoError(t, dec.Close())
	assert.Equal(t, StateClosed, dec.State())
}

func TestVideoDecoder_DecodeBeforeConfigureFailsInvalidState(t *testing.T) {
	dec := NewVideoDecoder(testEngineConfig(), nil, nil)
	err := dec.Decode(&frame.EncodedVideoChunk{Type: frame.KeyChunk})
	require.Error(t, err)
	assert.True(t, codecerr.Is(err, codecerr.InvalidState))
}

func TestVideoDecoder_ResetReturnsToUnconfigured(t *testing.T) {
	hwaccel.ResetFallbackState()
	defer hwaccel.ResetFallbackState()

	dec := NewVideoDecoder(testEngineConfig(), nil, nil)
	require.NoError(t, dec.Configure(backend.VideoDecoderConfig{Codec: "avc1.42001E", CodedWidth: 16, CodedHeight: 16}))
	require.NoError(t, dec.Reset())
	assert.Equal(t, StateUnconfigured, dec.State())
}
