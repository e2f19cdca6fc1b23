package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mxcodec/webcodecs/internal/backend"
	"github.com/mxcodec/webcodecs/internal/codecerr"
	"github.com/mxcodec/webcodecs/internal/frame"
)

func testAudioData(t *testing.T, frames int, ts int64) *frame.AudioData {
	t.Helper()
	data := make([]byte, frames*2*4)
	a, err := frame.NewAudioData(data, frame.AudioDataInit{
		Format: frame.F32, SampleRate: 48000, NumberOfFrames: frames, NumberOfChannels: 2, Timestamp: ts,
	})
	require.NoError(t, err)
	return a
}

func TestAudioEncoder_Scenario_TenChunksOpus(t *testing.T) {
	var chunks []*frame.EncodedAudioChunk
	enc := NewAudioEncoder(testEngineConfig(), func(c *frame.EncodedAudioChunk, m *frame.EncodedAudioChunkMetadata) {
		chunks = append(chunks, c)
	}, nil)
	require.NoError(t, enc.Configure(backend.AudioEncoderConfig{Codec: "opus", SampleRate: 48000, NumberOfChannels: 2}))

	for i := 0; i < 10; i++ {
		require.NoError(t, enc.Encode(testAudioData(t, 960, int64(i*20000))))
	}
	require.NoError(t, enc.Flush())
	require.Len(t, chunks, 10)
}

func TestAudioEncoder_IsConfigSupported_InvalidCodecNeverThrows(t *testing.T) {
	supported, _ := IsConfigSupportedAudioEncoder(backend.AudioEncoderConfig{Codec: "invalid-codec", SampleRate: 48000, NumberOfChannels: 2})
	assert.False(t, supported)
}

func TestAudioEncoder_ConfigureClosedFailsInvalidState(t *testing.T) {
	enc := NewAudioEncoder(testEngineConfig(), nil, nil)
	require.NoError(t, enc.Close())
	err := enc.Configure(backend.AudioEncoderConfig{Codec: "opus", SampleRate: 48000, NumberOfChannels: 2})
	require.Error(t, err)
	assert.True(t, codecerr.Is(err, codecerr.InvalidState))
}

func TestAudioEncoder_PCMPassthroughViaPipeline(t *testing.T) {
	var chunks []*frame.EncodedAudioChunk
	enc := NewAudioEncoder(testEngineConfig(), func(c *frame.EncodedAudioChunk, m *frame.EncodedAudioChunkMetadata) {
		chunks = append(chunks, c)
	}, nil)
	require.NoError(t, enc.Configure(backend.AudioEncoderConfig{Codec: "pcm-f32", SampleRate: 48000, NumberOfChannels: 2}))
	a := testAudioData(t, 4, 0)
	data, err := a.Data()
	require.NoError(t, err)
	require.NoError(t, enc.Encode(a))
	require.NoError(t, enc.Flush())
	require.Len(t, chunks, 1)
	assert.Equal(t, data, chunks[0].Data)
}
