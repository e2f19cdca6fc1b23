package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mxcodec/webcodecs/internal/codecerr"
)

func TestNewAudioData_Valid(t *testing.T) {
	buf := make([]byte, 960*2*2) // s16, 960 frames, stereo
	a, err := NewAudioData(buf, AudioDataInit{
		Format:           S16,
		SampleRate:       48000,
		NumberOfFrames:   960,
		NumberOfChannels: 2,
		Timestamp:        0,
	})
	require.NoError(t, err)
	defer a.Close()

	frames, err := a.NumberOfFrames()
	require.NoError(t, err)
	assert.Equal(t, 960, frames)
}

func TestNewAudioData_WrongBufferLength(t *testing.T) {
	_, err := NewAudioData(make([]byte, 10), AudioDataInit{
		Format:           S16,
		SampleRate:       48000,
		NumberOfFrames:   960,
		NumberOfChannels: 2,
	})
	require.Error(t, err)
	assert.True(t, codecerr.Is(err, codecerr.TypeError))
}

func TestAudioData_CloneAndRefCount(t *testing.T) {
	buf := make([]byte, 480*1*4) // f32 mono
	a, err := NewAudioData(buf, AudioDataInit{
		Format:           F32,
		SampleRate:       48000,
		NumberOfFrames:   480,
		NumberOfChannels: 1,
	})
	require.NoError(t, err)

	clone, err := a.Clone()
	require.NoError(t, err)

	a.Close()
	_, err = clone.Data()
	require.NoError(t, err)

	clone.Close()
	_, err = clone.Data()
	require.Error(t, err)
}

func TestAudioData_ClosedRejectsClone(t *testing.T) {
	buf := make([]byte, 4)
	a, err := NewAudioData(buf, AudioDataInit{Format: U8, SampleRate: 8000, NumberOfFrames: 4, NumberOfChannels: 1})
	require.NoError(t, err)
	a.Close()

	_, err = a.Clone()
	require.Error(t, err)
	assert.True(t, codecerr.Is(err, codecerr.InvalidState))
}
