package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mxcodec/webcodecs/internal/frame"
)

func TestSoftwareVideoEncoder_FirstChunkCarriesDecoderConfig(t *testing.T) {
	enc := newSoftwareVideoEncoder(FamilyAVC, VideoEncoderConfig{Codec: "avc1.42001E", Width: 4, Height: 4})
	defer enc.Close()

	f := mustVideoFrame(t, 4, 4, 0)
	require.NoError(t, enc.SendFrame(f, false))

	chunk, meta, err := enc.Receive()
	require.NoError(t, err)
	assert.Equal(t, frame.KeyChunk, chunk.Type)
	require.NotNil(t, meta)
	require.NotNil(t, meta.DecoderConfig)
	assert.NotEmpty(t, meta.DecoderConfig.Description)

	_, _, err = enc.Receive()
	assert.ErrorIs(t, err, ErrAgain)

	require.NoError(t, enc.Flush())
	_, _, err = enc.Receive()
	assert.ErrorIs(t, err, ErrEOF)
}

func TestSoftwareVideoEncoder_SubsequentChunksOmitConfig(t *testing.T) {
	enc := newSoftwareVideoEncoder(FamilyAVC, VideoEncoderConfig{Codec: "avc1.42001E", Width: 4, Height: 4})
	defer enc.Close()

	require.NoError(t, enc.SendFrame(mustVideoFrame(t, 4, 4, 0), false))
	require.NoError(t, enc.SendFrame(mustVideoFrame(t, 4, 4, 1), false))

	_, meta1, err := enc.Receive()
	require.NoError(t, err)
	assert.NotNil(t, meta1)

	chunk2, meta2, err := enc.Receive()
	require.NoError(t, err)
	assert.Nil(t, meta2)
	assert.Equal(t, frame.DeltaChunk, chunk2.Type)
}

func TestSoftwareVideoEncoderDecoderRoundTrip(t *testing.T) {
	enc := newSoftwareVideoEncoder(FamilyAVC, VideoEncoderConfig{Codec: "avc1.42001E", Width: 4, Height: 4})
	defer enc.Close()
	dec := newSoftwareVideoDecoder(FamilyAVC, VideoDecoderConfig{Codec: "avc1.42001E", CodedWidth: 4, CodedHeight: 4})
	defer dec.Close()

	original := mustVideoFrame(t, 4, 4, 42)
	require.NoError(t, enc.SendFrame(original, true))
	chunk, _, err := enc.Receive()
	require.NoError(t, err)

	require.NoError(t, dec.SendPacket(chunk))
	out, err := dec.Receive()
	require.NoError(t, err)
	defer out.Close()

	ts, err := out.Timestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(42), ts)

	origData, _ := original.Data()
	outData, _ := out.Data()
	assert.Equal(t, origData, outData)
}

func TestSoftwareVideoEncoder_ForceKeyFrame(t *testing.T) {
	enc := newSoftwareVideoEncoder(FamilyAVC, VideoEncoderConfig{Codec: "avc1.42001E", Width: 4, Height: 4})
	defer enc.Close()

	require.NoError(t, enc.SendFrame(mustVideoFrame(t, 4, 4, 0), false))
	require.NoError(t, enc.SendFrame(mustVideoFrame(t, 4, 4, 1), true))

	c1, _, _ := enc.Receive()
	assert.Equal(t, frame.KeyChunk, c1.Type)
	c2, _, _ := enc.Receive()
	assert.Equal(t, frame.KeyChunk, c2.Type)
}

func TestSoftwareVideoEncoder_ClosedRejectsSendFrame(t *testing.T) {
	enc := newSoftwareVideoEncoder(FamilyAVC, VideoEncoderConfig{Codec: "avc1.42001E", Width: 4, Height: 4})
	require.NoError(t, enc.Close())
	err := enc.SendFrame(mustVideoFrame(t, 4, 4, 0), false)
	assert.ErrorIs(t, err, ErrAgain)
}

func mustVideoFrame(t *testing.T, w, h int, ts int64) *frame.VideoFrame {
	t.Helper()
	data := make([]byte, w*h+2*((w+1)/2)*((h+1)/2))
	for i := range data {
		data[i] = byte(i)
	}
	f, err := frame.NewVideoFrame(data, frame.VideoFrameBufferInit{
		Format: frame.I420, CodedWidth: w, CodedHeight: h, Timestamp: ts,
	})
	require.NoError(t, err)
	return f
}
