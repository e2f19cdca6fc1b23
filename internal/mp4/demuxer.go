package mp4

import (
	"github.com/rs/zerolog/log"

	"github.com/mxcodec/webcodecs/internal/codecerr"
	"github.com/mxcodec/webcodecs/internal/frame"
)

// VideoOutputFunc / AudioOutputFunc are the demuxer's per-chunk callbacks
// (spec §4.6 "Constructed with {videoOutput, audioOutput, error}").
type VideoOutputFunc func(*frame.EncodedVideoChunk)
type AudioOutputFunc func(*frame.EncodedAudioChunk)
type ErrorFunc func(error)

type demuxedTrack struct {
	id            uint32
	kind          TrackKind
	timescale     uint32
	decoderConfig *frame.DecoderConfig
}

// Mp4Demuxer parses a fragmented-MP4 byte stream written by Mp4Muxer
// (spec §4.6 "Demuxers (C6)").
type Mp4Demuxer struct {
	videoOutput VideoOutputFunc
	audioOutput AudioOutputFunc
	onError     ErrorFunc

	tracks      map[uint32]*demuxedTrack
	trackOrder  []uint32
	moovParsed  bool
	halted      bool

	pendingMoof [][]byte
	pendingMdat [][]byte
}

// NewMp4Demuxer constructs a demuxer with the spec's three callbacks.
func NewMp4Demuxer(videoOutput VideoOutputFunc, audioOutput AudioOutputFunc, onError ErrorFunc) *Mp4Demuxer {
	return &Mp4Demuxer{
		videoOutput: videoOutput,
		audioOutput: audioOutput,
		onError:     onError,
		tracks:      make(map[uint32]*demuxedTrack),
	}
}

// LoadBuffer parses container bytes in one call (spec §4.6
// "loadBuffer(bytes)"). Partial input produces no output and no error;
// malformed input produces error(DataError) and halts.
func (d *Mp4Demuxer) LoadBuffer(data []byte) error {
	return d.Feed(data)
}

// Feed consumes more container bytes, usable for streaming ingestion
// (spec §4.6 "streaming feed(bytes)").
func (d *Mp4Demuxer) Feed(data []byte) error {
	if d.halted {
		return codecerr.New(codecerr.DataError, "Mp4Demuxer.Feed", "demuxer already halted on malformed input")
	}
	for _, b := range parseBoxes(data) {
		switch b.Type {
		case "ftyp":
			// no structural information needed from ftyp
		case "moov":
			if err := d.parseMoov(b.Payload); err != nil {
				d.fail(err)
				return err
			}
			d.moovParsed = true
		case "moof":
			d.pendingMoof = append(d.pendingMoof, b.Payload)
		case "mdat":
			d.pendingMdat = append(d.pendingMdat, b.Payload)
		}
	}
	return nil
}

func (d *Mp4Demuxer) fail(err error) {
	d.halted = true
	if d.onError != nil {
		d.onError(err)
	}
}

func (d *Mp4Demuxer) parseMoov(moov []byte) error {
	const op = "Mp4Demuxer.parseMoov"
	for _, trakBox := range parseBoxes(moov) {
		if trakBox.Type != "trak" {
			continue
		}
		t, err := d.parseTrak(trakBox.Payload)
		if err != nil {
			return codecerr.New(codecerr.DataError, op, err.Error())
		}
		d.tracks[t.id] = t
		d.trackOrder = append(d.trackOrder, t.id)
	}
	if len(d.tracks) == 0 {
		return codecerr.New(codecerr.DataError, op, "moov contains no trak boxes")
	}
	return nil
}

func (d *Mp4Demuxer) parseTrak(trak []byte) (*demuxedTrack, error) {
	// tkhd, mdhd and hdlr are full boxes: each Payload starts with the
	// 4-byte version/flags word.
	tkhd, ok := findBox(trak, "tkhd")
	if !ok || len(tkhd.Payload) < 16 {
		return nil, errMalformed("trak missing tkhd")
	}
	trackID := u32(tkhd.Payload[12:16])

	mdiaBox, ok := findBox(trak, "mdia")
	if !ok {
		return nil, errMalformed("trak missing mdia")
	}
	mdhd, ok := findBox(mdiaBox.Payload, "mdhd")
	if !ok || len(mdhd.Payload) < 16 {
		return nil, errMalformed("mdia missing mdhd")
	}
	timescale := u32(mdhd.Payload[12:16])

	hdlr, ok := findBox(mdiaBox.Payload, "hdlr")
	if !ok || len(hdlr.Payload) < 12 {
		return nil, errMalformed("mdia missing hdlr")
	}
	handlerType := string(hdlr.Payload[8:12])
	kind := KindAudio
	if handlerType == "vide" {
		kind = KindVideo
	}

	minfBox, ok := findBox(mdiaBox.Payload, "minf")
	if !ok {
		return nil, errMalformed("mdia missing minf")
	}
	stblBox, ok := findBox(minfBox.Payload, "stbl")
	if !ok {
		return nil, errMalformed("minf missing stbl")
	}
	stsd, ok := findBox(stblBox.Payload, "stsd")
	if !ok || len(stsd.Payload) < 8 {
		return nil, errMalformed("stbl missing stsd")
	}

	dc, err := decoderConfigFromStsd(stsd.Payload[4:], kind)
	if err != nil {
		return nil, err
	}

	return &demuxedTrack{id: trackID, kind: kind, timescale: timescale, decoderConfig: dc}, nil
}

func errMalformed(msg string) error {
	return codecerr.New(codecerr.DataError, "Mp4Demuxer", msg)
}

// VideoDecoderConfig returns the first video track's decoder config once
// moov has been parsed (spec §4.6 "videoDecoderConfig ... become available").
func (d *Mp4Demuxer) VideoDecoderConfig() (*frame.DecoderConfig, bool) {
	for _, id := range d.trackOrder {
		t := d.tracks[id]
		if t.kind == KindVideo {
			return t.decoderConfig, true
		}
	}
	return nil, false
}

// AudioDecoderConfig is the audio analogue.
func (d *Mp4Demuxer) AudioDecoderConfig() (*frame.DecoderConfig, bool) {
	for _, id := range d.trackOrder {
		t := d.tracks[id]
		if t.kind == KindAudio {
			return t.decoderConfig, true
		}
	}
	return nil, false
}

// DemuxAsync walks every buffered moof/mdat fragment pair and dispatches
// chunks in decode order (spec §4.6 "demuxAsync() walks the sample
// tables (MP4) ... and dispatches ... in decode order").
func (d *Mp4Demuxer) DemuxAsync() error {
	const op = "Mp4Demuxer.DemuxAsync"
	if !d.moovParsed {
		return nil // partial input: no structural headers yet, no output, no error
	}
	n := len(d.pendingMoof)
	if len(d.pendingMdat) < n {
		n = len(d.pendingMdat)
	}

	for i := 0; i < n; i++ {
		moofPayload := d.pendingMoof[i]
		mdatPayload := d.pendingMdat[i]
		moofTotalSize := uint32(len(moofPayload) + 8)

		for _, trafBox := range parseBoxes(moofPayload) {
			if trafBox.Type != "traf" {
				continue
			}
			if err := d.dispatchTraf(trafBox.Payload, moofTotalSize, mdatPayload); err != nil {
				wrapped := codecerr.Wrap(codecerr.DataError, op, err)
				d.fail(wrapped)
				return wrapped
			}
		}
	}
	d.pendingMoof = d.pendingMoof[n:]
	d.pendingMdat = d.pendingMdat[n:]
	return nil
}

func (d *Mp4Demuxer) dispatchTraf(traf []byte, moofTotalSize uint32, mdat []byte) error {
	tfhd, ok := findBox(traf, "tfhd")
	if !ok || len(tfhd.Payload) < 8 {
		return errMalformed("traf missing tfhd")
	}
	trackID := u32(tfhd.Payload[4:8])
	track, ok := d.tracks[trackID]
	if !ok {
		return errMalformed("traf references unknown track")
	}

	var baseDecodeTime uint64
	if tfdt, ok := findBox(traf, "tfdt"); ok && len(tfdt.Payload) >= 4 {
		version := tfdt.Payload[0]
		if version == 1 && len(tfdt.Payload) >= 12 {
			baseDecodeTime = u64(tfdt.Payload[4:12])
		} else if len(tfdt.Payload) >= 8 {
			baseDecodeTime = uint64(u32(tfdt.Payload[4:8]))
		}
	}

	trun, ok := findBox(traf, "trun")
	if !ok {
		return errMalformed("traf missing trun")
	}
	samples, dataOffset, err := parseTrun(trun.Payload)
	if err != nil {
		return err
	}

	sampleStart := dataOffset - moofTotalSize - 8
	cumulativeTicks := baseDecodeTime
	var runningByteOffset uint32
	for _, s := range samples {
		timestampUs := ticksToMicros(cumulativeTicks, track.timescale)
		durationUs := ticksToMicros(uint64(s.Duration), track.timescale)
		offset := sampleStart + runningByteOffset
		if uint64(offset)+uint64(s.Size) > uint64(len(mdat)) {
			return errMalformed("sample extends past mdat bounds")
		}
		data := mdat[offset : offset+s.Size]

		chunkType := frame.DeltaChunk
		if s.Flags == SyncSampleFlags {
			chunkType = frame.KeyChunk
		}

		switch track.kind {
		case KindVideo:
			if d.videoOutput != nil {
				d.videoOutput(&frame.EncodedVideoChunk{Type: chunkType, Timestamp: timestampUs, Duration: &durationUs, Data: data})
			}
		case KindAudio:
			if d.audioOutput != nil {
				d.audioOutput(&frame.EncodedAudioChunk{Type: chunkType, Timestamp: timestampUs, Duration: &durationUs, Data: data})
			}
		}

		cumulativeTicks += uint64(s.Duration)
		runningByteOffset += s.Size
	}
	return nil
}

func ticksToMicros(ticks uint64, timescale uint32) int64 {
	if timescale == 0 {
		return 0
	}
	return int64(ticks * 1_000_000 / uint64(timescale))
}

func parseTrun(payload []byte) (samples []Sample, dataOffset uint32, err error) {
	if len(payload) < 8 {
		return nil, 0, errMalformed("trun too short")
	}
	flags := u32(payload[0:4]) & 0x00FFFFFF
	sampleCount := u32(payload[4:8])
	pos := 8

	if flags&0x000001 != 0 {
		if len(payload) < pos+4 {
			return nil, 0, errMalformed("trun missing data_offset")
		}
		dataOffset = u32(payload[pos : pos+4])
		pos += 4
	}
	if flags&0x000004 != 0 {
		pos += 4 // first_sample_flags, unused: per-sample flags are always present in our writer
	}

	samples = make([]Sample, sampleCount)
	for i := 0; i < int(sampleCount); i++ {
		var s Sample
		if flags&0x000100 != 0 {
			s.Duration = u32(payload[pos : pos+4])
			pos += 4
		}
		if flags&0x000200 != 0 {
			s.Size = u32(payload[pos : pos+4])
			pos += 4
		}
		if flags&0x000400 != 0 {
			s.Flags = u32(payload[pos : pos+4])
			pos += 4
		}
		if flags&0x000800 != 0 {
			s.CompositionTimeOffset = int32(u32(payload[pos : pos+4]))
			pos += 4
		}
		samples[i] = s
	}
	return samples, dataOffset, nil
}

// Close releases parser state (spec §4.6 "close() releases parser state").
func (d *Mp4Demuxer) Close() error {
	d.tracks = nil
	d.trackOrder = nil
	d.pendingMoof = nil
	d.pendingMdat = nil
	log.Debug().Msg("mp4: demuxer closed")
	return nil
}
