package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mxcodec/webcodecs/internal/frame"
)

func mustAudioData(t *testing.T, frames, channels int, ts int64) *frame.AudioData {
	t.Helper()
	data := make([]byte, frames*channels*4)
	for i := range data {
		data[i] = byte(i)
	}
	a, err := frame.NewAudioData(data, frame.AudioDataInit{
		Format: frame.F32, SampleRate: 48000, NumberOfFrames: frames, NumberOfChannels: channels, Timestamp: ts,
	})
	require.NoError(t, err)
	return a
}

func TestSoftwareAudioEncoderDecoderRoundTrip_NonPCM(t *testing.T) {
	enc := newSoftwareAudioEncoder(FamilyOpus, AudioEncoderConfig{Codec: "opus", SampleRate: 48000, NumberOfChannels: 2})
	defer enc.Close()
	dec := newSoftwareAudioDecoder(FamilyOpus, AudioDecoderConfig{Codec: "opus", SampleRate: 48000, NumberOfChannels: 2})
	defer dec.Close()

	original := mustAudioData(t, 8, 2, 10)
	require.NoError(t, enc.SendFrame(original))
	chunk, meta, err := enc.Receive()
	require.NoError(t, err)
	require.NotNil(t, meta)
	require.NotNil(t, meta.DecoderConfig)
	assert.NotEmpty(t, meta.DecoderConfig.Description) // OpusHead

	require.NoError(t, dec.SendPacket(chunk))
	out, err := dec.Receive()
	require.NoError(t, err)
	defer out.Close()

	origData, _ := original.Data()
	outData, _ := out.Data()
	assert.Equal(t, origData, outData)
}

func TestSoftwareAudioEncoder_PCMPassthroughCarriesNoDescription(t *testing.T) {
	enc := newSoftwareAudioEncoder(FamilyPCMS16, AudioEncoderConfig{Codec: "pcm-s16", SampleRate: 44100, NumberOfChannels: 1})
	defer enc.Close()

	data := make([]byte, 4*2)
	a, err := frame.NewAudioData(data, frame.AudioDataInit{
		Format: frame.S16, SampleRate: 44100, NumberOfFrames: 4, NumberOfChannels: 1,
	})
	require.NoError(t, err)

	require.NoError(t, enc.SendFrame(a))
	chunk, meta, err := enc.Receive()
	require.NoError(t, err)
	assert.Equal(t, data, chunk.Data)
	require.NotNil(t, meta)
	assert.Empty(t, meta.DecoderConfig.Description)
}

func TestSoftwareAudioEncoder_FlushThenEOF(t *testing.T) {
	enc := newSoftwareAudioEncoder(FamilyOpus, AudioEncoderConfig{Codec: "opus", SampleRate: 48000, NumberOfChannels: 2})
	defer enc.Close()
	require.NoError(t, enc.Flush())
	_, _, err := enc.Receive()
	assert.ErrorIs(t, err, ErrEOF)
}

func TestSoftwareAudioDecoder_ResetClosesOutputs(t *testing.T) {
	dec := newSoftwareAudioDecoder(FamilyOpus, AudioDecoderConfig{Codec: "opus", SampleRate: 48000, NumberOfChannels: 2})
	defer dec.Close()

	enc := newSoftwareAudioEncoder(FamilyOpus, AudioEncoderConfig{Codec: "opus", SampleRate: 48000, NumberOfChannels: 2})
	defer enc.Close()
	require.NoError(t, enc.SendFrame(mustAudioData(t, 4, 2, 0)))
	chunk, _, err := enc.Receive()
	require.NoError(t, err)
	require.NoError(t, dec.SendPacket(chunk))

	require.NoError(t, dec.Reset())
	_, err = dec.Receive()
	assert.ErrorIs(t, err, ErrAgain)
}
