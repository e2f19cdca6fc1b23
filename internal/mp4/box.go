// Package mp4 implements a hand-rolled ISO-BMFF (MP4) box reader/writer
// and the Mp4Muxer/Mp4Demuxer surfaces from spec.md §4.5/§4.6. Box
// construction is grounded on the public ISO/IEC 14496-12 box-framing
// rules (4-byte size + 4-byte fourcc + payload) rather than mined from
// any retrieval-pack file: no example repo builds MP4 boxes at this
// level (helixml-helix delegates the whole box tree to mp4ff). See
// DESIGN.md for why this engine does not call mp4ff's own box
// constructors for anything beyond SPS parsing.
package mp4

import "encoding/binary"

// box frames one ISO-BMFF box: a big-endian uint32 size (including the
// 8-byte header) followed by the 4-character type and the payload.
func box(fourcc string, payload []byte) []byte {
	buf := make([]byte, 8+len(payload))
	binary.BigEndian.PutUint32(buf[0:4], uint32(8+len(payload)))
	copy(buf[4:8], fourcc)
	copy(buf[8:], payload)
	return buf
}

// fullBox is box() with the version+flags header ISO-BMFF "full boxes"
// (stsd, mvhd, tkhd, mdhd, ...) carry ahead of their own payload.
func fullBox(fourcc string, version byte, flags uint32, payload []byte) []byte {
	header := make([]byte, 4)
	header[0] = version
	var flagBytes [4]byte
	binary.BigEndian.PutUint32(flagBytes[:], flags)
	copy(header[1:4], flagBytes[1:4])
	return box(fourcc, append(header, payload...))
}

// container concatenates already-framed child boxes; ISO-BMFF container
// boxes (moov, trak, mdia, minf, stbl, moof, traf) are just the
// concatenation of their children under one outer box header.
func container(fourcc string, children ...[]byte) []byte {
	var payload []byte
	for _, c := range children {
		payload = append(payload, c...)
	}
	return box(fourcc, payload)
}

func putU16(b []byte, v uint16) { binary.BigEndian.PutUint16(b, v) }
func putU32(b []byte, v uint32) { binary.BigEndian.PutUint32(b, v) }
func putU64(b []byte, v uint64) { binary.BigEndian.PutUint64(b, v) }

func u16(b []byte) uint16 { return binary.BigEndian.Uint16(b) }
func u32(b []byte) uint32 { return binary.BigEndian.Uint32(b) }
func u64(b []byte) uint64 { return binary.BigEndian.Uint64(b) }

// rawBox is one parsed ISO-BMFF box as read back by the demuxer: its
// fourcc and its full payload (body only, header stripped). For full
// boxes the version/flags word stays at the start of Payload.
type rawBox struct {
	Type    string
	Payload []byte
}

// parseBoxes walks a flat sequence of sibling boxes starting at data and
// returns each one parsed, stopping at the end of data. It does not
// recurse into children; callers re-invoke parseBoxes on a box's payload
// to descend into a container.
func parseBoxes(data []byte) []rawBox {
	var out []rawBox
	for len(data) >= 8 {
		size := u32(data[0:4])
		fourcc := string(data[4:8])
		if size < 8 || uint64(size) > uint64(len(data)) {
			break
		}
		out = append(out, rawBox{Type: fourcc, Payload: data[8:size]})
		data = data[size:]
	}
	return out
}

// findBox returns the first child box of the given fourcc within data's
// top-level box sequence.
func findBox(data []byte, fourcc string) (rawBox, bool) {
	for _, b := range parseBoxes(data) {
		if b.Type == fourcc {
			return b, true
		}
	}
	return rawBox{}, false
}
