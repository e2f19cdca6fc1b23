package webm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mxcodec/webcodecs/internal/bitstream"
	"github.com/mxcodec/webcodecs/internal/frame"
)

func i64(v int64) *int64 { return &v }

func TestWebmMuxer_VideoVP9AlphaRoundTrip(t *testing.T) {
	m := NewWebmMuxer()
	trackID, err := m.AddVideoTrack("vp9", 320, 240, true)
	require.NoError(t, err)

	vpcC := bitstream.BuildVpcC(0, 10, 8, 1, false)
	dc := &frame.DecoderConfig{Codec: "vp09.00.10.08", CodedWidth: 320, CodedHeight: 240, Description: vpcC}

	var gotChunks []*frame.EncodedVideoChunk
	demux := NewWebmDemuxer(
		func(c *frame.EncodedVideoChunk) { gotChunks = append(gotChunks, c) },
		nil,
		func(err error) { t.Fatalf("unexpected demux error: %v", err) },
	)

	for i := 0; i < 4; i++ {
		chunkType := frame.DeltaChunk
		var meta *frame.EncodedVideoChunkMetadata
		var alpha []byte
		if i == 0 {
			chunkType = frame.KeyChunk
			meta = &frame.EncodedVideoChunkMetadata{DecoderConfig: dc}
		}
		if i == 1 {
			alpha = []byte{0xAA, 0xBB}
		}
		chunk := &frame.EncodedVideoChunk{
			Type: chunkType, Timestamp: int64(i) * 33000, Duration: i64(33000),
			Data: []byte{byte(i), byte(i + 1)},
		}
		require.NoError(t, m.AddVideoChunk(trackID, chunk, meta, alpha))
	}
	require.NoError(t, m.Flush())
	out, err := m.Finalize()
	require.NoError(t, err)
	require.NotEmpty(t, out)

	require.NoError(t, demux.LoadBuffer(out))

	videoConfig, ok := demux.VideoDecoderConfig()
	require.True(t, ok)
	assert.Equal(t, 320, videoConfig.CodedWidth)
	assert.Equal(t, 240, videoConfig.CodedHeight)
	assert.Equal(t, vpcC, videoConfig.Description)

	require.NoError(t, demux.DemuxAsync())
	require.Len(t, gotChunks, 4)
	for i, c := range gotChunks {
		assert.Equal(t, frame.KeyChunk == c.Type, i == 0)
		assert.Equal(t, int64(i)*33000, c.Timestamp)
		require.NotNil(t, c.Duration)
		assert.Equal(t, int64(33000), *c.Duration)
		assert.Equal(t, []byte{byte(i), byte(i + 1)}, c.Data)
	}
}

func TestWebmMuxer_AudioOpusRoundTrip(t *testing.T) {
	m := NewWebmMuxer()
	trackID, err := m.AddAudioTrack("opus", 48000, 2)
	require.NoError(t, err)

	opusHead := bitstream.BuildOpusHead(2, 48000, 312)
	dc := &frame.DecoderConfig{Codec: "opus", SampleRate: 48000, NumberOfChannels: 2, Description: opusHead}

	var gotChunks []*frame.EncodedAudioChunk
	demux := NewWebmDemuxer(nil, func(c *frame.EncodedAudioChunk) { gotChunks = append(gotChunks, c) }, func(err error) {
		t.Fatalf("unexpected demux error: %v", err)
	})

	for i := 0; i < 3; i++ {
		var meta *frame.EncodedAudioChunkMetadata
		if i == 0 {
			meta = &frame.EncodedAudioChunkMetadata{DecoderConfig: dc}
		}
		chunk := &frame.EncodedAudioChunk{Type: frame.KeyChunk, Timestamp: int64(i) * 20000, Duration: i64(20000), Data: []byte{0xCC, byte(i)}}
		require.NoError(t, m.AddAudioChunk(trackID, chunk, meta))
	}
	require.NoError(t, m.Flush())
	out, err := m.Finalize()
	require.NoError(t, err)

	require.NoError(t, demux.LoadBuffer(out))

	audioConfig, ok := demux.AudioDecoderConfig()
	require.True(t, ok)
	assert.Equal(t, 48000, audioConfig.SampleRate)
	assert.Equal(t, 2, audioConfig.NumberOfChannels)
	assert.Equal(t, opusHead, audioConfig.Description)

	require.NoError(t, demux.DemuxAsync())
	require.Len(t, gotChunks, 3)
	for i, c := range gotChunks {
		assert.Equal(t, frame.KeyChunk, c.Type)
		assert.Equal(t, []byte{0xCC, byte(i)}, c.Data)
	}
}

func TestWebmMuxer_FirstChunkMustBeKeyFrame(t *testing.T) {
	m := NewWebmMuxer()
	trackID, err := m.AddVideoTrack("vp8", 16, 16, false)
	require.NoError(t, err)

	chunk := &frame.EncodedVideoChunk{Type: frame.DeltaChunk, Timestamp: 0, Data: []byte{1}}
	err = m.AddVideoChunk(trackID, chunk, &frame.EncodedVideoChunkMetadata{DecoderConfig: &frame.DecoderConfig{}}, nil)
	assert.Error(t, err)
}

func TestWebmMuxer_FirstChunkMustCarryDecoderConfig(t *testing.T) {
	m := NewWebmMuxer()
	trackID, err := m.AddVideoTrack("vp8", 16, 16, false)
	require.NoError(t, err)

	chunk := &frame.EncodedVideoChunk{Type: frame.KeyChunk, Timestamp: 0, Data: []byte{1}}
	err = m.AddVideoChunk(trackID, chunk, nil, nil)
	assert.Error(t, err)
}

func TestWebmMuxer_CloseIsIdempotent(t *testing.T) {
	m := NewWebmMuxer()
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
}

func TestWebmDemuxer_PartialInputProducesNoOutputNoError(t *testing.T) {
	demux := NewWebmDemuxer(nil, nil, func(err error) { t.Fatalf("unexpected error on partial input: %v", err) })
	require.NoError(t, demux.Feed([]byte{0x1A, 0x45}))
	require.NoError(t, demux.DemuxAsync())
}

func TestWebmDemuxer_MalformedInputHaltsWithError(t *testing.T) {
	var gotErr error
	demux := NewWebmDemuxer(nil, nil, func(err error) { gotErr = err })

	badTracks := elem(idTracks, elem(idTrackEntry, []byte("not a real track entry")))
	err := demux.Feed(badTracks)
	assert.Error(t, err)
	assert.Error(t, gotErr)
}
