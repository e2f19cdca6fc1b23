package mp4

import (
	"bytes"

	"github.com/rs/zerolog/log"

	"github.com/mxcodec/webcodecs/internal/codecerr"
	"github.com/mxcodec/webcodecs/internal/frame"
)

type muxerTrack struct {
	id           uint32
	kind         TrackKind
	family       string
	timescale    uint32
	desc         SampleDescription
	descSet      bool
	sawFirst     bool
	prevTimeUs   int64
	hasPrevTime  bool
	cumulativeTicks uint64
	pending      []Sample
}

// Mp4Muxer builds a fragmented MP4 stream incrementally: an init segment
// (ftyp+moov) followed by one moof/mdat fragment per Flush call (spec
// §4.5 "MP4 muxer").
type Mp4Muxer struct {
	tracks      []*muxerTrack
	nextTrackID uint32
	seqNum      uint32

	initWritten bool
	closed      bool
	out         bytes.Buffer

	defaultVideoTimescale uint32
}

// NewMp4Muxer constructs an empty muxer. defaultVideoTimescale is used
// when no better timescale can be derived for a video track (spec §4.5
// "defaults: video fps×1000 or 90 000").
func NewMp4Muxer(defaultVideoTimescale uint32) *Mp4Muxer {
	if defaultVideoTimescale == 0 {
		defaultVideoTimescale = 90000
	}
	return &Mp4Muxer{nextTrackID: 1, defaultVideoTimescale: defaultVideoTimescale}
}

// AddVideoTrack registers a video track and returns its trackId (spec §4.5
// "addVideoTrack(cfg) → trackId"). The sample entry itself is completed
// lazily from the first chunk's metadata.decoderConfig.
func (m *Mp4Muxer) AddVideoTrack(family string, codedWidth, codedHeight int) (int, error) {
	const op = "Mp4Muxer.AddVideoTrack"
	if m.closed {
		return 0, codecerr.New(codecerr.InvalidState, op, "muxer is closed")
	}
	t := &muxerTrack{
		id:        m.nextTrackID,
		kind:      KindVideo,
		family:    family,
		timescale: m.defaultVideoTimescale,
		desc:      SampleDescription{Family: family, CodedWidth: codedWidth, CodedHeight: codedHeight},
	}
	m.nextTrackID++
	m.tracks = append(m.tracks, t)
	return int(t.id), nil
}

// AddAudioTrack registers an audio track and returns its trackId. The
// track timescale is the sample rate (spec §4.5 "audio = sampleRate").
func (m *Mp4Muxer) AddAudioTrack(family string, sampleRate, channels int) (int, error) {
	const op = "Mp4Muxer.AddAudioTrack"
	if m.closed {
		return 0, codecerr.New(codecerr.InvalidState, op, "muxer is closed")
	}
	t := &muxerTrack{
		id:        m.nextTrackID,
		kind:      KindAudio,
		family:    family,
		timescale: uint32(sampleRate),
		desc:      SampleDescription{Family: family, SampleRate: sampleRate, Channels: channels},
	}
	m.nextTrackID++
	m.tracks = append(m.tracks, t)
	return int(t.id), nil
}

func (m *Mp4Muxer) trackByID(trackID int) (*muxerTrack, error) {
	for _, t := range m.tracks {
		if int(t.id) == trackID {
			return t, nil
		}
	}
	return nil, codecerr.New(codecerr.TypeError, "Mp4Muxer", "unknown trackId")
}

func ticksForDuration(durationUs int64, timescale uint32) uint32 {
	if durationUs <= 0 {
		return 0
	}
	return uint32((durationUs * int64(timescale)) / 1_000_000)
}

// AddVideoChunk appends one encoded video chunk to trackId's pending
// fragment (spec §4.5 "addVideoChunk(chunk, metadata, trackId?)").
func (m *Mp4Muxer) AddVideoChunk(trackID int, chunk *frame.EncodedVideoChunk, metadata *frame.EncodedVideoChunkMetadata) error {
	const op = "Mp4Muxer.AddVideoChunk"
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
		t.desc.Description = metadata.DecoderConfig.Description
		t.descSet = true
		t.sawFirst = true

		if t.family == "avc" && (t.desc.CodedWidth == 0 || t.desc.CodedHeight == 0) {
			if w, h, ok := deriveAvcDimensionsFromAnnexB(chunk.Data); ok {
				t.desc.CodedWidth, t.desc.CodedHeight = w, h
			}
		}
	}

	duration := int64(0)
	if chunk.Duration != nil {
		duration = *chunk.Duration
	} else if t.hasPrevTime {
		duration = chunk.Timestamp - t.prevTimeUs
	}
	t.prevTimeUs = chunk.Timestamp
	t.hasPrevTime = true

	flags := NonSyncSampleFlags
	if chunk.Type == frame.KeyChunk {
		flags = SyncSampleFlags
	}
	t.pending = append(t.pending, Sample{
		Duration: ticksForDuration(duration, t.timescale),
		Size:     uint32(len(chunk.Data)),
		Flags:    flags,
		Data:     chunk.Data,
	})
	return nil
}

// AddAudioChunk is the audio analogue of AddVideoChunk.
func (m *Mp4Muxer) AddAudioChunk(trackID int, chunk *frame.EncodedAudioChunk, metadata *frame.EncodedAudioChunkMetadata) error {
	const op = "Mp4Muxer.AddAudioChunk"
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
		t.desc.Description = metadata.DecoderConfig.Description
		t.descSet = true
		t.sawFirst = true
	}

	duration := int64(0)
	if chunk.Duration != nil {
		duration = *chunk.Duration
	} else if t.hasPrevTime {
		duration = chunk.Timestamp - t.prevTimeUs
	}
	t.prevTimeUs = chunk.Timestamp
	t.hasPrevTime = true

	t.pending = append(t.pending, Sample{
		Duration: ticksForDuration(duration, t.timescale),
		Size:     uint32(len(chunk.Data)),
		Flags:    SyncSampleFlags, // every audio access unit is independently decodable
		Data:     chunk.Data,
	})
	return nil
}

// Flush writes the init segment (once all tracks have seen their first
// chunk) and one moof/mdat fragment carrying every track's pending
// samples (spec §4.5 "flush()").
func (m *Mp4Muxer) Flush() error {
	const op = "Mp4Muxer.Flush"
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
			return nil // nothing to flush yet; not every track has a first chunk
		}
		inits := make([]trackInit, len(m.tracks))
		for i, t := range m.tracks {
			inits[i] = trackInit{TrackID: t.id, Kind: t.kind, Timescale: t.timescale, Desc: t.desc}
		}
		m.out.Write(buildFtyp())
		m.out.Write(buildMoov(m.defaultVideoTimescale, inits))
		m.initWritten = true
		log.Debug().Int("tracks", len(m.tracks)).Msg("mp4: init segment written")
	}

	var trafs []trafInput
	for _, t := range m.tracks {
		if len(t.pending) == 0 {
			continue
		}
		trafs = append(trafs, trafInput{TrackID: t.id, BaseDecodeTime: t.cumulativeTicks, Samples: t.pending})
	}
	if len(trafs) == 0 {
		return nil
	}

	m.out.Write(buildFragment(m.seqNum, trafs))
	m.seqNum++

	for _, t := range m.tracks {
		for _, s := range t.pending {
			t.cumulativeTicks += uint64(s.Duration)
		}
		t.pending = nil
	}
	return nil
}

// Finalize drains any remaining pending samples and returns the complete
// byte stream written so far (spec §4.5 "finalize() → bytes").
func (m *Mp4Muxer) Finalize() ([]byte, error) {
	if err := m.Flush(); err != nil {
		return nil, err
	}
	return m.out.Bytes(), nil
}

// Close is idempotent (spec §4.5/§8 "close() is idempotent and never throws").
func (m *Mp4Muxer) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	m.tracks = nil
	return nil
}
