package mp4

// Sample is one encoded access unit ready to be written into a moof/mdat
// fragment (spec §4.5 "addVideoChunk"/"addAudioChunk").
type Sample struct {
	Duration              uint32 // in the track's timescale
	Size                  uint32
	Flags                 uint32
	CompositionTimeOffset int32
	Data                  []byte
}

// Standard ISO/IEC 14496-12 sample_flags values for a sync (key) sample
// and a non-sync (delta) sample; widely reused across fMP4 muxers.
const (
	SyncSampleFlags    uint32 = 0x02000000
	NonSyncSampleFlags uint32 = 0x01010000
)

type trafInput struct {
	TrackID        uint32
	BaseDecodeTime uint64
	Samples        []Sample
}

func buildMfhd(sequenceNumber uint32) []byte {
	payload := make([]byte, 4)
	putU32(payload, sequenceNumber)
	return fullBox("mfhd", 0, 0, payload)
}

func buildTfhd(trackID uint32) []byte {
	payload := make([]byte, 4)
	putU32(payload, trackID)
	return fullBox("tfhd", 0, 0x020000, payload) // default-base-is-moof
}

func buildTfdt(baseDecodeTime uint64) []byte {
	payload := make([]byte, 8)
	putU64(payload, baseDecodeTime)
	return fullBox("tfdt", 1, 0, payload)
}

const trunFlags = 0x000001 | 0x000100 | 0x000200 | 0x000400 | 0x000800

func buildTrun(samples []Sample, dataOffset uint32) []byte {
	payload := make([]byte, 8, 8+16*len(samples))
	putU32(payload[0:4], uint32(len(samples)))
	putU32(payload[4:8], dataOffset)
	for _, s := range samples {
		var entry [16]byte
		putU32(entry[0:4], s.Duration)
		putU32(entry[4:8], s.Size)
		putU32(entry[8:12], s.Flags)
		putU32(entry[12:16], uint32(s.CompositionTimeOffset))
		payload = append(payload, entry[:]...)
	}
	return fullBox("trun", 0, trunFlags, payload)
}

// buildFragment assembles one moof+mdat pair carrying every track's
// pending samples (spec §4.5 "interleaves mdat progressively", and
// DESIGN.md's fMP4-muxing-strategy note).
func buildFragment(sequenceNumber uint32, trafs []trafInput) []byte {
	var mdatPayload []byte
	offsetsWithinMdat := make([]uint32, len(trafs))
	for i, t := range trafs {
		offsetsWithinMdat[i] = uint32(len(mdatPayload))
		for _, s := range t.Samples {
			mdatPayload = append(mdatPayload, s.Data...)
		}
	}

	// Pass 1: build moof with placeholder data_offset=0 to learn its size.
	// Box sizes never depend on the concrete data_offset value, so this
	// size is already final.
	placeholderMoof := assembleMoof(sequenceNumber, trafs, make([]uint32, len(trafs)))
	moofSize := uint32(len(placeholderMoof))

	dataOffsets := make([]uint32, len(trafs))
	for i := range trafs {
		dataOffsets[i] = moofSize + 8 + offsetsWithinMdat[i]
	}
	moof := assembleMoof(sequenceNumber, trafs, dataOffsets)

	mdat := box("mdat", mdatPayload)
	return append(moof, mdat...)
}

func assembleMoof(sequenceNumber uint32, trafs []trafInput, dataOffsets []uint32) []byte {
	mfhd := buildMfhd(sequenceNumber)
	children := [][]byte{mfhd}
	for i, t := range trafs {
		tfhd := buildTfhd(t.TrackID)
		tfdt := buildTfdt(t.BaseDecodeTime)
		trun := buildTrun(t.Samples, dataOffsets[i])
		children = append(children, container("traf", tfhd, tfdt, trun))
	}
	return container("moof", children...)
}
