package webm

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mxcodec/webcodecs/internal/codecerr"
	"github.com/mxcodec/webcodecs/internal/frame"
)

func ieeeFloat64(v float64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, math.Float64bits(v))
	return b
}

const timestampScaleNs = 1_000_000 // 1 ms per timecode unit (spec §4.5)

type pendingBlock struct {
	trackNum   uint64
	timeMs     int64
	durationMs *int64
	keyframe   bool
	data       []byte
	alphaData  []byte
}

type webmTrack struct {
	id         uint32
	trackUID   uint64
	kind       int // trackTypeVideo / trackTypeAudio
	family     string
	width      int
	height     int
	sampleRate int
	channels   int
	alpha      bool

	sawFirst    bool
	descSet     bool
	description []byte
}

// WebmMuxer builds a live WebM stream incrementally: an init segment (EBML
// header + Segment/SeekHead/Info/Tracks) followed by one Cluster per Flush
// call (spec §4.5 "WebM muxer").
type WebmMuxer struct {
	tracks      []*webmTrack
	nextTrackID uint32

	initWritten bool
	closed      bool
	out         bytes.Buffer

	pending []pendingBlock
}

// NewWebmMuxer constructs an empty muxer.
func NewWebmMuxer() *WebmMuxer {
	return &WebmMuxer{nextTrackID: 1}
}

func newTrackUID() uint64 {
	id := uuid.New()
	return readUint(id[:8])
}

// AddVideoTrack registers a video track. alpha requests BlockAdditions
// carrying a VP9 alpha plane alongside the base block (spec §4.5 "alpha
// flag ... adds BlockAdditions carrying alpha plane for VP9 α").
func (m *WebmMuxer) AddVideoTrack(family string, width, height int, alpha bool) (int, error) {
	const op = "WebmMuxer.AddVideoTrack"
	if m.closed {
		return 0, codecerr.New(codecerr.InvalidState, op, "muxer is closed")
	}
	t := &webmTrack{
		id: m.nextTrackID, trackUID: newTrackUID(), kind: trackTypeVideo,
		family: family, width: width, height: height, alpha: alpha,
	}
	m.nextTrackID++
	m.tracks = append(m.tracks, t)
	return int(t.id), nil
}

// AddAudioTrack registers an audio track.
func (m *WebmMuxer) AddAudioTrack(family string, sampleRate, channels int) (int, error) {
	const op = "WebmMuxer.AddAudioTrack"
	if m.closed {
		return 0, codecerr.New(codecerr.InvalidState, op, "muxer is closed")
	}
	t := &webmTrack{
		id: m.nextTrackID, trackUID: newTrackUID(), kind: trackTypeAudio,
		family: family, sampleRate: sampleRate, channels: channels,
	}
	m.nextTrackID++
	m.tracks = append(m.tracks, t)
	return int(t.id), nil
}

func (m *WebmMuxer) trackByID(trackID int) (*webmTrack, error) {
	for _, t := range m.tracks {
		if int(t.id) == trackID {
			return t, nil
		}
	}
	return nil, codecerr.New(codecerr.TypeError, "WebmMuxer", "unknown trackId")
}

// microsToMs truncates toward zero, per spec §4.5's documented rounding.
func microsToMs(us int64) int64 { return us / 1000 }

// AddVideoChunk appends one encoded video chunk (spec §4.5
// "addVideoChunk(chunk, metadata, trackId?)"). alphaData, when non-nil, is
// carried as a BlockAdditions payload alongside the base VP9 block.
func (m *WebmMuxer) AddVideoChunk(trackID int, chunk *frame.EncodedVideoChunk, metadata *frame.EncodedVideoChunkMetadata, alphaData []byte) error {
	const op = "WebmMuxer.AddVideoChunk"
	if m.closed {
		return codecerr.New(codecerr.InvalidState, op, "muxer is closed")
	}
	t, err := m.trackByID(trackID)
	if err != nil {
		return err
	}
	if !t.sawFirst {
		if chunk.Type != frame.KeyChunk {
			return codecerr.New(codecerr.DataError, op, "first chunk on a track must be a key frame")
		}
		if metadata == nil || metadata.DecoderConfig == nil {
			return codecerr.New(codecerr.DataError, op, "first chunk must carry decoderConfig")
		}
		t.description = metadata.DecoderConfig.Description
		t.descSet = true
		t.sawFirst = true
	}
	m.pending = append(m.pending, pendingBlock{
		trackNum: uint64(t.id), timeMs: microsToMs(chunk.Timestamp), durationMs: microsToMsPtr(chunk.Duration),
		keyframe: chunk.Type == frame.KeyChunk, data: chunk.Data, alphaData: alphaData,
	})
	return nil
}

func microsToMsPtr(us *int64) *int64 {
	if us == nil {
		return nil
	}
	ms := microsToMs(*us)
	return &ms
}

// AddAudioChunk is the audio analogue of AddVideoChunk.
func (m *WebmMuxer) AddAudioChunk(trackID int, chunk *frame.EncodedAudioChunk, metadata *frame.EncodedAudioChunkMetadata) error {
	const op = "WebmMuxer.AddAudioChunk"
	if m.closed {
		return codecerr.New(codecerr.InvalidState, op, "muxer is closed")
	}
	t, err := m.trackByID(trackID)
	if err != nil {
		return err
	}
	if !t.sawFirst {
		if metadata == nil || metadata.DecoderConfig == nil {
			return codecerr.New(codecerr.DataError, op, "first chunk must carry decoderConfig")
		}
		t.description = metadata.DecoderConfig.Description
		t.descSet = true
		t.sawFirst = true
	}
	m.pending = append(m.pending, pendingBlock{
		trackNum: uint64(t.id), timeMs: microsToMs(chunk.Timestamp), durationMs: microsToMsPtr(chunk.Duration),
		keyframe: true, data: chunk.Data,
	})
	return nil
}

func buildEBMLHeader() []byte {
	body := concat(
		elem(idEBMLVersion, uintBytes(1)),
		elem(idEBMLReadVersion, uintBytes(1)),
		elem(idEBMLMaxIDLength, uintBytes(4)),
		elem(idEBMLMaxSizeLen, uintBytes(8)),
		elem(idDocType, []byte("webm")),
		elem(idDocTypeVersion, uintBytes(2)),
		elem(idDocTypeReadVer, uintBytes(2)),
	)
	return elem(idEBML, body)
}

func buildInfo() []byte {
	body := concat(
		elem(idTimestampScale, uintBytes(timestampScaleNs)),
		elem(idMuxingApp, []byte("mxcodec-webcodecs")),
		elem(idWritingApp, []byte("mxcodec-webcodecs")),
	)
	return elem(idInfo, body)
}

func buildTrackEntry(t *webmTrack) []byte {
	parts := [][]byte{
		elem(idTrackNum, uintBytes(uint64(t.id))),
		elem(idTrackUID, putBigEndianUint64(t.trackUID)),
		elem(idTrackType, uintBytes(uint64(t.kind))),
		elem(idCodecID, []byte(codecIDFor(t.family))),
	}
	if len(t.description) > 0 {
		parts = append(parts, elem(idCodecPriv, t.description))
	}
	if t.kind == trackTypeVideo {
		videoBody := concat(
			elem(idPixelWidth, uintBytes(uint64(t.width))),
			elem(idPixelHeight, uintBytes(uint64(t.height))),
		)
		if t.alpha {
			videoBody = concat(videoBody, elem(idAlphaMode, uintBytes(1)))
		}
		parts = append(parts, elem(idVideo, videoBody))
	} else {
		audioBody := concat(
			elem(idSampFreq, ieeeFloat64(float64(t.sampleRate))),
			elem(idChannels, uintBytes(uint64(t.channels))),
		)
		parts = append(parts, elem(idAudio, audioBody))
	}
	return elem(idTrackEntry, concat(parts...))
}

func buildTracks(tracks []*webmTrack) []byte {
	var body []byte
	for _, t := range tracks {
		body = append(body, buildTrackEntry(t)...)
	}
	return elem(idTracks, body)
}

// writeInitSegment writes the EBML header and opens the Segment with
// SeekHead/Info/Tracks (spec §4.5 "emits EBML header, Segment with
// SeekHead, Info ... Tracks").
func (m *WebmMuxer) writeInitSegment() {
	m.out.Write(buildEBMLHeader())
	m.out.Write(idSegment)
	m.out.Write(unknownSize)

	seekHeadBody := concat(
		elem(idSeek, concat(elem(idSeekID, idInfo), elem(idSeekPos, uintBytes(0)))),
		elem(idSeek, concat(elem(idSeekID, idTracks), elem(idSeekPos, uintBytes(0)))),
	)
	m.out.Write(elem(idSeekHead, seekHeadBody))
	m.out.Write(buildInfo())
	m.out.Write(buildTracks(m.tracks))
}

// buildBlockGroup wraps one sample in a BlockGroup: a Block (no keyframe
// bit of its own — Matroska convention is that the *absence* of
// ReferenceBlock marks a keyframe), an optional BlockDuration, and an
// optional BlockAdditions carrying a VP9 alpha plane (spec §4.5 "alpha ...
// BlockAdditions").
func buildBlockGroup(trackNum uint64, relMs int16, keyframe bool, durationMs *int64, data, alphaData []byte) []byte {
	trackVint := vint(trackNum)
	content := make([]byte, len(trackVint)+3+len(data))
	copy(content, trackVint)
	content[len(trackVint)] = byte(relMs >> 8)
	content[len(trackVint)+1] = byte(relMs)
	copy(content[len(trackVint)+3:], data)
	parts := [][]byte{elem(idBlock, content)}

	if !keyframe {
		parts = append(parts, elem(idReferenceBlock, []byte{0xFF})) // marker: -1, a past reference
	}
	if durationMs != nil {
		parts = append(parts, elem(idBlockDuration, uintBytes(uint64(*durationMs))))
	}
	if alphaData != nil {
		blockMore := elem(idBlockMore, concat(elem(idBlockAddID, uintBytes(1)), elem(idBlockAdditional, alphaData)))
		parts = append(parts, elem(idBlockAdditions, blockMore))
	}
	return elem(idBlockGroup, concat(parts...))
}

// Flush writes the init segment (once every track has seen its first
// chunk) and one Cluster carrying every pending block (spec §4.5
// "interleaved Clusters").
func (m *WebmMuxer) Flush() error {
	const op = "WebmMuxer.Flush"
	if m.closed {
		return codecerr.New(codecerr.InvalidState, op, "muxer is closed")
	}
	if !m.initWritten {
		allReady := len(m.tracks) > 0
		for _, t := range m.tracks {
			if !t.descSet {
				allReady = false
			}
		}
		if !allReady {
			return nil
		}
		m.writeInitSegment()
		m.initWritten = true
		log.Debug().Int("tracks", len(m.tracks)).Msg("webm: init segment written")
	}
	if len(m.pending) == 0 {
		return nil
	}

	clusterStartMs := m.pending[0].timeMs
	for _, b := range m.pending {
		if b.timeMs < clusterStartMs {
			clusterStartMs = b.timeMs
		}
	}

	var blocks []byte
	for _, b := range m.pending {
		rel := int16(b.timeMs - clusterStartMs)
		blocks = append(blocks, buildBlockGroup(b.trackNum, rel, b.keyframe, b.durationMs, b.data, b.alphaData)...)
	}
	clusterBody := concat(elem(idTimestamp, uintBytes(uint64(clusterStartMs))), blocks)
	m.out.Write(elem(idCluster, clusterBody))
	m.pending = nil
	return nil
}

// Finalize drains any remaining pending blocks and returns the complete
// byte stream written so far (spec §4.5 "finalize() → bytes").
func (m *WebmMuxer) Finalize() ([]byte, error) {
	if err := m.Flush(); err != nil {
		return nil, err
	}
	return m.out.Bytes(), nil
}

// Close is idempotent (spec §4.5/§8 "close() is idempotent and never throws").
func (m *WebmMuxer) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	m.tracks = nil
	return nil
}
