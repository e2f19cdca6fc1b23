package webm

import (
	"bytes"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/mxcodec/webcodecs/internal/codecerr"
	"github.com/mxcodec/webcodecs/internal/frame"
)

// VideoOutputFunc / AudioOutputFunc are the demuxer's per-chunk callbacks
// (spec §4.6 "Constructed with {videoOutput, audioOutput, error}").
type VideoOutputFunc func(*frame.EncodedVideoChunk)
type AudioOutputFunc func(*frame.EncodedAudioChunk)
type ErrorFunc func(error)

type element struct {
	ID      string
	Payload []byte
}

type demuxedTrack struct {
	number        uint64
	kind          int
	decoderConfig *frame.DecoderConfig
}

// WebmDemuxer parses an EBML/Matroska byte stream written by WebmMuxer
// (spec §4.6 "Demuxers (C6)").
type WebmDemuxer struct {
	videoOutput VideoOutputFunc
	audioOutput AudioOutputFunc
	onError     ErrorFunc

	tracks     map[uint64]*demuxedTrack
	trackOrder []uint64
	tracksParsed bool
	halted     bool

	pendingClusters [][]byte
}

// NewWebmDemuxer constructs a demuxer with the spec's three callbacks.
func NewWebmDemuxer(videoOutput VideoOutputFunc, audioOutput AudioOutputFunc, onError ErrorFunc) *WebmDemuxer {
	return &WebmDemuxer{
		videoOutput: videoOutput,
		audioOutput: audioOutput,
		onError:     onError,
		tracks:      make(map[uint64]*demuxedTrack),
	}
}

// LoadBuffer parses container bytes in one call (spec §4.6
// "loadBuffer(bytes)").
func (d *WebmDemuxer) LoadBuffer(data []byte) error {
	return d.Feed(data)
}

// Feed consumes more container bytes (spec §4.6 "streaming feed(bytes)").
func (d *WebmDemuxer) Feed(data []byte) error {
	if d.halted {
		return codecerr.New(codecerr.DataError, "WebmDemuxer.Feed", "demuxer already halted on malformed input")
	}
	for _, el := range parseTopLevel(data) {
		switch el.ID {
		case string(idEBML):
			// no structural information needed
		case string(idTracks):
			if err := d.parseTracks(el.Payload); err != nil {
				d.fail(err)
				return err
			}
			d.tracksParsed = true
		case string(idCluster):
			d.pendingClusters = append(d.pendingClusters, el.Payload)
		}
	}
	return nil
}

func (d *WebmDemuxer) fail(err error) {
	d.halted = true
	if d.onError != nil {
		d.onError(err)
	}
}

func errMalformed(msg string) error {
	return codecerr.New(codecerr.DataError, "WebmDemuxer", msg)
}

func (d *WebmDemuxer) parseTracks(payload []byte) error {
	for _, el := range parseChildren(payload) {
		if el.ID != string(idTrackEntry) {
			continue
		}
		t, err := parseTrackEntry(el.Payload)
		if err != nil {
			return err
		}
		d.tracks[t.number] = t
		d.trackOrder = append(d.trackOrder, t.number)
	}
	if len(d.tracks) == 0 {
		return errMalformed("Tracks contains no TrackEntry")
	}
	return nil
}

func parseTrackEntry(payload []byte) (*demuxedTrack, error) {
	var (
		number       uint64
		trackType    uint64
		codecID      string
		codecPrivate []byte
		width, height int
		sampleRate   int
		channels     int
		haveNumber, haveType, haveCodec bool
	)
	for _, el := range parseChildren(payload) {
		switch el.ID {
		case string(idTrackNum):
			number = readUint(el.Payload)
			haveNumber = true
		case string(idTrackType):
			trackType = readUint(el.Payload)
			haveType = true
		case string(idCodecID):
			codecID = string(el.Payload)
			haveCodec = true
		case string(idCodecPriv):
			codecPrivate = el.Payload
		case string(idVideo):
			for _, v := range parseChildren(el.Payload) {
				switch v.ID {
				case string(idPixelWidth):
					width = int(readUint(v.Payload))
				case string(idPixelHeight):
					height = int(readUint(v.Payload))
				}
			}
		case string(idAudio):
			for _, a := range parseChildren(el.Payload) {
				switch a.ID {
				case string(idSampFreq):
					sampleRate = int(float64FromIEEE(a.Payload))
				case string(idChannels):
					channels = int(readUint(a.Payload))
				}
			}
		}
	}
	if !haveNumber || !haveType || !haveCodec {
		return nil, errMalformed("TrackEntry missing TrackNumber/TrackType/CodecID")
	}

	family := familyForCodecID(codecID)
	dc := &frame.DecoderConfig{Codec: family, Description: codecPrivate}
	if trackType == trackTypeVideo {
		dc.CodedWidth, dc.CodedHeight = width, height
	} else {
		dc.SampleRate, dc.NumberOfChannels = sampleRate, channels
	}

	return &demuxedTrack{number: number, kind: int(trackType), decoderConfig: dc}, nil
}

// VideoDecoderConfig returns the first video track's decoder config once
// Tracks has been parsed.
func (d *WebmDemuxer) VideoDecoderConfig() (*frame.DecoderConfig, bool) {
	for _, n := range d.trackOrder {
		t := d.tracks[n]
		if t.kind == trackTypeVideo {
			return t.decoderConfig, true
		}
	}
	return nil, false
}

// AudioDecoderConfig is the audio analogue.
func (d *WebmDemuxer) AudioDecoderConfig() (*frame.DecoderConfig, bool) {
	for _, n := range d.trackOrder {
		t := d.tracks[n]
		if t.kind == trackTypeAudio {
			return t.decoderConfig, true
		}
	}
	return nil, false
}

// DemuxAsync walks every buffered Cluster and dispatches chunks in decode
// order (spec §4.6 "demuxAsync() walks ... clusters (WebM) and dispatches
// ... in decode order").
func (d *WebmDemuxer) DemuxAsync() error {
	const op = "WebmDemuxer.DemuxAsync"
	if !d.tracksParsed {
		return nil
	}
	for _, cluster := range d.pendingClusters {
		if err := d.dispatchCluster(cluster); err != nil {
			wrapped := codecerr.Wrap(codecerr.DataError, op, err)
			d.fail(wrapped)
			return wrapped
		}
	}
	d.pendingClusters = nil
	return nil
}

func (d *WebmDemuxer) dispatchCluster(payload []byte) error {
	var clusterTimeMs int64
	for _, el := range parseChildren(payload) {
		switch el.ID {
		case string(idTimestamp):
			clusterTimeMs = int64(readUint(el.Payload))
		case string(idSimpleBlock):
			if err := d.dispatchSimpleBlock(el.Payload, clusterTimeMs); err != nil {
				return err
			}
		case string(idBlockGroup):
			if err := d.dispatchBlockGroup(el.Payload, clusterTimeMs); err != nil {
				return err
			}
		}
	}
	return nil
}

// parseBlockHeader reads a Block/SimpleBlock content payload's track
// number vint and 2-byte relative timecode, returning the remaining bytes
// as (flags-byte-inclusive) sample data.
func parseBlockHeader(content []byte) (trackNum uint64, relMs int16, rest []byte, err error) {
	trackNum, width, ok := readVint(content)
	if !ok || len(content) < width+3 {
		return 0, 0, nil, errMalformed("Block too short")
	}
	relMs = int16(uint16(content[width])<<8 | uint16(content[width+1]))
	// content[width+2] is the flags byte (lacing bits, keyframe bit for
	// SimpleBlock); lacing is never produced by WebmMuxer so data follows
	// immediately.
	return trackNum, relMs, content[width+3:], nil
}

func (d *WebmDemuxer) dispatchSimpleBlock(payload []byte, clusterTimeMs int64) error {
	trackNum, relMs, data, err := parseBlockHeader(payload)
	if err != nil {
		return err
	}
	flags := payload[len(payload)-len(data)-1]
	keyframe := flags&0x80 != 0
	return d.emit(trackNum, clusterTimeMs+int64(relMs), nil, keyframe, data, nil)
}

func (d *WebmDemuxer) dispatchBlockGroup(payload []byte, clusterTimeMs int64) error {
	var (
		trackNum           uint64
		relMs              int16
		data               []byte
		hasReferenceBlock  bool
		durationMs         *int64
		alphaData          []byte
		sawBlock           bool
	)
	for _, el := range parseChildren(payload) {
		switch el.ID {
		case string(idBlock):
			tn, rel, d2, err := parseBlockHeader(el.Payload)
			if err != nil {
				return err
			}
			trackNum, relMs, data, sawBlock = tn, rel, d2, true
		case string(idReferenceBlock):
			hasReferenceBlock = true
		case string(idBlockDuration):
			v := int64(readUint(el.Payload))
			durationMs = &v
		case string(idBlockAdditions):
			for _, more := range parseChildren(el.Payload) {
				if more.ID != string(idBlockMore) {
					continue
				}
				for _, child := range parseChildren(more.Payload) {
					if child.ID == string(idBlockAdditional) {
						alphaData = child.Payload
					}
				}
			}
		}
	}
	if !sawBlock {
		return errMalformed("BlockGroup missing Block")
	}
	return d.emit(trackNum, clusterTimeMs+int64(relMs), durationMs, !hasReferenceBlock, data, alphaData)
}

func (d *WebmDemuxer) emit(trackNum uint64, timeMs int64, durationMs *int64, keyframe bool, data, alphaData []byte) error {
	track, ok := d.tracks[trackNum]
	if !ok {
		return errMalformed("Block references unknown track")
	}
	chunkType := frame.DeltaChunk
	if keyframe {
		chunkType = frame.KeyChunk
	}
	timestampUs := timeMs * 1000
	var durationUs *int64
	if durationMs != nil {
		v := *durationMs * 1000
		durationUs = &v
	}

	// alphaData is carried through BlockAdditions for VP9 α but is not
	// re-surfaced as a separate output chunk; see DESIGN.md.
	switch track.kind {
	case trackTypeVideo:
		if d.videoOutput != nil {
			d.videoOutput(&frame.EncodedVideoChunk{Type: chunkType, Timestamp: timestampUs, Duration: durationUs, Data: data})
		}
	case trackTypeAudio:
		if d.audioOutput != nil {
			d.audioOutput(&frame.EncodedAudioChunk{Type: chunkType, Timestamp: timestampUs, Duration: durationUs, Data: data})
		}
	}
	return nil
}

// float64FromIEEE decodes an EBML Float element, which may be either a
// 4-byte or 8-byte IEEE-754 value; WebmMuxer always writes 8-byte doubles.
func float64FromIEEE(b []byte) float64 {
	var v uint64
	for _, x := range b {
		v = v<<8 | uint64(x)
	}
	if len(b) == 4 {
		return float64(math.Float32frombits(uint32(v)))
	}
	return math.Float64frombits(v)
}

// isUnknownSizeVint reports whether the raw vint-encoded bytes b represent
// EBML's reserved "size unknown" value for their width.
func isUnknownSizeVint(b []byte) bool {
	value, width, ok := readVint(b)
	if !ok {
		return false
	}
	return value == (uint64(1)<<(7*width))-1
}

// parseTopLevel walks the flat top-level element sequence WebmMuxer writes:
// EBML header, then Segment's id+unknown-size marker (flattened — its
// children follow immediately at this same level), then SeekHead/Info/
// Tracks/Cluster.
func parseTopLevel(data []byte) []element {
	var out []element
	pos := 0
	for pos < len(data) {
		id, idw, ok := readID(data[pos:])
		if !ok {
			break
		}
		sizeStart := pos + idw
		sizeBytes, sizew, ok := readVintBytes(data[sizeStart:])
		if !ok {
			break
		}
		if bytes.Equal(id, idSegment) && isUnknownSizeVint(sizeBytes) {
			pos = sizeStart + sizew
			continue
		}
		size, _, ok := readVint(sizeBytes)
		if !ok {
			break
		}
		hdr := idw + sizew
		if pos+hdr+int(size) > len(data) {
			break // partial input: stop without error
		}
		payload := data[pos+hdr : pos+hdr+int(size)]
		out = append(out, element{ID: string(id), Payload: payload})
		pos += hdr + int(size)
	}
	return out
}

// parseChildren walks a fully-buffered container's direct children (no
// unknown-size elements occur below Segment level in this package's own
// output).
func parseChildren(data []byte) []element {
	var out []element
	pos := 0
	for pos < len(data) {
		id, idw, ok := readID(data[pos:])
		if !ok {
			break
		}
		size, sizew, ok := readVint(data[pos+idw:])
		if !ok {
			break
		}
		hdr := idw + sizew
		if pos+hdr+int(size) > len(data) {
			break
		}
		payload := data[pos+hdr : pos+hdr+int(size)]
		out = append(out, element{ID: string(id), Payload: payload})
		pos += hdr + int(size)
	}
	return out
}

func readID(b []byte) (id []byte, width int, ok bool) {
	if len(b) == 0 {
		return nil, 0, false
	}
	first := b[0]
	width = 1
	mask := byte(0x80)
	for mask != 0 && first&mask == 0 {
		mask >>= 1
		width++
	}
	if mask == 0 || len(b) < width {
		return nil, 0, false
	}
	idCopy := make([]byte, width)
	copy(idCopy, b[:width])
	return idCopy, width, true
}

func readVintBytes(b []byte) (raw []byte, width int, ok bool) {
	if len(b) == 0 {
		return nil, 0, false
	}
	first := b[0]
	width = 1
	mask := byte(0x80)
	for mask != 0 && first&mask == 0 {
		mask >>= 1
		width++
	}
	if mask == 0 || len(b) < width {
		return nil, 0, false
	}
	return b[:width], width, true
}

// Close releases parser state (spec §4.6 "close() releases parser state").
func (d *WebmDemuxer) Close() error {
	d.tracks = nil
	d.trackOrder = nil
	d.pendingClusters = nil
	log.Debug().Msg("webm: demuxer closed")
	return nil
}
