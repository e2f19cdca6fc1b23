package mp4

func buildMvhd(timescale uint32, nextTrackID uint32) []byte {
	payload := make([]byte, 96)
	// creation_time[4], modification_time[4] left zero
	putU32(payload[8:12], timescale)
	// duration[4] left zero: unknown at init-segment time
	putU32(payload[16:20], 0x00010000) // rate = 1.0
	putU16(payload[20:22], 0x0100)     // volume = 1.0
	// reserved[2], reserved[8]
	putU32(payload[32:36], 0x00010000)
	putU32(payload[48:52], 0x00010000)
	putU32(payload[64:68], 0x40000000)
	// pre_defined[24]
	putU32(payload[92:96], nextTrackID)
	return fullBox("mvhd", 0, 0, payload)
}

// buildMoov assembles the init segment's moov: mvhd, one trak per track,
// and mvex with one trex per track (required for a fragmented-MP4 init
// segment, spec §4.5's fMP4 strategy — see DESIGN.md).
func buildMoov(timescale uint32, tracks []trackInit) []byte {
	mvhd := buildMvhd(timescale, uint32(len(tracks)+1))

	children := [][]byte{mvhd}
	var trexBoxes []byte
	for _, t := range tracks {
		children = append(children, buildTrak(t))
		trexBoxes = append(trexBoxes, buildTrex(t.TrackID)...)
	}
	mvex := box("mvex", trexBoxes)
	children = append(children, mvex)

	return container("moov", children...)
}

// buildFtyp assembles the ftyp box (spec §4.5 "emits ftyp/moov").
func buildFtyp() []byte {
	payload := make([]byte, 8)
	copy(payload[0:4], "isom")
	putU32(payload[4:8], 512)
	payload = append(payload, []byte("isomiso5avc1mp41")...)
	return box("ftyp", payload)
}
