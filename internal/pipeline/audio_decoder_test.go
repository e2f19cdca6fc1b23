package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mxcodec/webcodecs/internal/backend"
	"github.com/mxcodec/webcodecs/internal/frame"
)

func TestAudioDecoder_RoundTripThroughEncoder(t *testing.T) {
	var chunks []*frame.EncodedAudioChunk
	enc := NewAudioEncoder(testEngineConfig(), func(c *frame.EncodedAudioChunk, m *frame.EncodedAudioChunkMetadata) {
		chunks = append(chunks, c)
	}, nil)
	require.NoError(t, enc.Configure(backend.AudioEncoderConfig{Codec: "opus", SampleRate: 48000, NumberOfChannels: 2}))
	require.NoError(t, enc.Encode(testAudioData(t, 960, 5)))
	require.NoError(t, enc.Flush())
	require.Len(t, chunks, 1)

	var outs []*frame.AudioData
	dec := NewAudioDecoder(testEngineConfig(), func(a *frame.AudioData) {
		outs = append(outs, a)
	}, nil)
	require.NoError(t, dec.Configure(backend.AudioDecoderConfig{Codec: "opus", SampleRate: 48000, NumberOfChannels: 2}))
	require.NoError(t, dec.Decode(chunks[0]))
	require.NoError(t, dec.Flush())

	require.Len(t, outs, 1)
	defer outs[0].Close()
	ts, err := outs[0].Timestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(5), ts)
}

func TestAudioDecoder_CloseIsIdempotent(t *testing.T) {
	dec := NewAudioDecoder(testEngineConfig(), nil, nil)
	require.NoError(t, dec.Configure(backend.AudioDecoderConfig{Codec: "opus", SampleRate: 48000, NumberOfChannels: 2}))
	require.NoError(t, dec.Close())
	require.NoError(t, dec.Close())
	assert.Equal(t, StateClosed, dec.State())
}
