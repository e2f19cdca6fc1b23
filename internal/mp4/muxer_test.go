package mp4

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mxcodec/webcodecs/internal/bitstream"
	"github.com/mxcodec/webcodecs/internal/frame"
)

func i64(v int64) *int64 { return &v }

func TestMp4Muxer_VideoOnlyRoundTrip(t *testing.T) {
	m := NewMp4Muxer(90000)
	trackID, err := m.AddVideoTrack("avc", 320, 240)
	require.NoError(t, err)

	avcC := bitstream.BuildAvcC([][]byte{{0x67, 0x42, 0xC0, 0x1E}}, [][]byte{{0x68, 0xCE, 0x3C, 0x80}})
	dc := &frame.DecoderConfig{Codec: "avc1.42C01E", CodedWidth: 320, CodedHeight: 240, Description: avcC}

	for i := 0; i < 5; i++ {
		chunkType := frame.DeltaChunk
		var meta *frame.EncodedVideoChunkMetadata
		if i == 0 {
			chunkType = frame.KeyChunk
			meta = &frame.EncodedVideoChunkMetadata{DecoderConfig: dc}
		}
		chunk := &frame.EncodedVideoChunk{
			Type:      chunkType,
			Timestamp: int64(i) * 33333,
			Duration:  i64(33333),
			Data:      []byte{byte(i), byte(i + 1), byte(i + 2)},
		}
		require.NoError(t, m.AddVideoChunk(trackID, chunk, meta))
	}
	require.NoError(t, m.Flush())

	out, err := m.Finalize()
	require.NoError(t, err)
	require.NotEmpty(t, out)

	var gotChunks []*frame.EncodedVideoChunk
	demux := NewMp4Demuxer(
		func(c *frame.EncodedVideoChunk) { gotChunks = append(gotChunks, c) },
		nil,
		func(err error) { t.Fatalf("unexpected demux error: %v", err) },
	)
	require.NoError(t, demux.LoadBuffer(out))

	videoConfig, ok := demux.VideoDecoderConfig()
	require.True(t, ok)
	assert.Equal(t, 320, videoConfig.CodedWidth)
	assert.Equal(t, 240, videoConfig.CodedHeight)
	assert.Equal(t, avcC, videoConfig.Description)

	require.NoError(t, demux.DemuxAsync())
	require.Len(t, gotChunks, 5)
	assert.Equal(t, frame.KeyChunk, gotChunks[0].Type)
	// Both conversions truncate: 33333 us is 2999 ticks at 90 kHz, and
	// 2999 ticks read back as 33322 us.
	const ticksPerChunk = 33333 * 90000 / 1_000_000
	for i, c := range gotChunks {
		assert.Equal(t, frame.DeltaChunk == c.Type, i != 0)
		assert.Equal(t, int64(i)*ticksPerChunk*1_000_000/90000, c.Timestamp)
		require.NotNil(t, c.Duration)
		assert.Equal(t, int64(ticksPerChunk*1_000_000/90000), *c.Duration)
		assert.Equal(t, []byte{byte(i), byte(i + 1), byte(i + 2)}, c.Data)
	}
}

func TestMp4Muxer_AudioOpusRoundTrip(t *testing.T) {
	m := NewMp4Muxer(90000)
	trackID, err := m.AddAudioTrack("opus", 48000, 2)
	require.NoError(t, err)

	opusHead := bitstream.BuildOpusHead(2, 48000, 312)
	dc := &frame.DecoderConfig{Codec: "opus", SampleRate: 48000, NumberOfChannels: 2, Description: opusHead}

	for i := 0; i < 3; i++ {
		var meta *frame.EncodedAudioChunkMetadata
		if i == 0 {
			meta = &frame.EncodedAudioChunkMetadata{DecoderConfig: dc}
		}
		chunk := &frame.EncodedAudioChunk{
			Type:      frame.KeyChunk,
			Timestamp: int64(i) * 20000,
			Duration:  i64(20000),
			Data:      []byte{0xAA, 0xBB, byte(i)},
		}
		require.NoError(t, m.AddAudioChunk(trackID, chunk, meta))
	}
	require.NoError(t, m.Flush())
	out, err := m.Finalize()
	require.NoError(t, err)

	var gotChunks []*frame.EncodedAudioChunk
	demux := NewMp4Demuxer(nil, func(c *frame.EncodedAudioChunk) { gotChunks = append(gotChunks, c) }, func(err error) {
		t.Fatalf("unexpected demux error: %v", err)
	})
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
		assert.Equal(t, []byte{0xAA, 0xBB, byte(i)}, c.Data)
	}
}

func TestMp4Muxer_MultipleFlushesProduceMultipleFragments(t *testing.T) {
	m := NewMp4Muxer(90000)
	trackID, err := m.AddVideoTrack("vp9", 640, 480)
	require.NoError(t, err)

	vpcC := bitstream.BuildVpcC(0, 10, 8, 1, false)
	dc := &frame.DecoderConfig{Codec: "vp09.00.10.08", CodedWidth: 640, CodedHeight: 480, Description: vpcC}

	var gotChunks []*frame.EncodedVideoChunk
	demux := NewMp4Demuxer(func(c *frame.EncodedVideoChunk) { gotChunks = append(gotChunks, c) }, nil, func(err error) {
		t.Fatalf("unexpected demux error: %v", err)
	})

	for i := 0; i < 6; i++ {
		chunkType := frame.DeltaChunk
		var meta *frame.EncodedVideoChunkMetadata
		if i == 0 {
			chunkType = frame.KeyChunk
			meta = &frame.EncodedVideoChunkMetadata{DecoderConfig: dc}
		}
		chunk := &frame.EncodedVideoChunk{Type: chunkType, Timestamp: int64(i) * 16666, Duration: i64(16666), Data: []byte{byte(i)}}
		require.NoError(t, m.AddVideoChunk(trackID, chunk, meta))
		if i%3 == 2 {
			require.NoError(t, m.Flush())
		}
	}
	out, err := m.Finalize()
	require.NoError(t, err)

	require.NoError(t, demux.LoadBuffer(out))
	require.NoError(t, demux.DemuxAsync())
	require.Len(t, gotChunks, 6)
	assert.Equal(t, frame.KeyChunk, gotChunks[0].Type)
}

func TestMp4Muxer_FirstChunkMustBeKeyFrame(t *testing.T) {
	m := NewMp4Muxer(90000)
	trackID, err := m.AddVideoTrack("avc", 16, 16)
	require.NoError(t, err)

	chunk := &frame.EncodedVideoChunk{Type: frame.DeltaChunk, Timestamp: 0, Data: []byte{1}}
	err = m.AddVideoChunk(trackID, chunk, &frame.EncodedVideoChunkMetadata{DecoderConfig: &frame.DecoderConfig{}})
	assert.Error(t, err)
}

func TestMp4Muxer_FirstChunkMustCarryDecoderConfig(t *testing.T) {
	m := NewMp4Muxer(90000)
	trackID, err := m.AddVideoTrack("avc", 16, 16)
	require.NoError(t, err)

	chunk := &frame.EncodedVideoChunk{Type: frame.KeyChunk, Timestamp: 0, Data: []byte{1}}
	err = m.AddVideoChunk(trackID, chunk, nil)
	assert.Error(t, err)
}

func TestMp4Muxer_CloseIsIdempotent(t *testing.T) {
	m := NewMp4Muxer(90000)
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
}

func TestMp4Demuxer_PartialInputProducesNoOutputNoError(t *testing.T) {
	demux := NewMp4Demuxer(nil, nil, func(err error) { t.Fatalf("unexpected error on partial input: %v", err) })
	require.NoError(t, demux.Feed([]byte{0x00, 0x00}))
	require.NoError(t, demux.DemuxAsync())
}

func TestMp4Demuxer_MalformedInputHaltsWithError(t *testing.T) {
	var gotErr error
	demux := NewMp4Demuxer(nil, nil, func(err error) { gotErr = err })

	badMoov := box("moov", box("trak", []byte("not a real trak")))
	err := demux.Feed(badMoov)
	assert.Error(t, err)
	assert.Error(t, gotErr)

	err = demux.Feed([]byte{0x00, 0x00, 0x00, 0x08, 'm', 'o', 'o', 'f'})
	assert.Error(t, err)
}
