package mp4

// trackInit holds what's needed to build the init segment's trak entry
// for one track (spec §4.5 "moov with trak/mdia/minf/stbl").
type trackInit struct {
	TrackID   uint32
	Kind      TrackKind
	Timescale uint32
	Desc      SampleDescription
}

func buildTkhd(trackID uint32, kind TrackKind, width, height int) []byte {
	payload := make([]byte, 80)
	// creation_time[4], modification_time[4] left zero
	putU32(payload[8:12], trackID)
	// reserved[4]
	// duration[4] left zero: unknown at init-segment time (fragmented)
	// reserved[8], layer[2], alternate_group[2]
	if kind == KindAudio {
		putU16(payload[32:34], 0x0100) // volume = 1.0
	}
	// reserved[2]
	// unity matrix
	putU32(payload[36:40], 0x00010000)
	putU32(payload[52:56], 0x00010000)
	putU32(payload[68:72], 0x40000000)
	if kind == KindVideo {
		putU32(payload[72:76], uint32(width)<<16)
		putU32(payload[76:80], uint32(height)<<16)
	}
	return fullBox("tkhd", 0, 0x7, payload) // flags: track_enabled|in_movie|in_preview
}

func buildMdhd(timescale uint32) []byte {
	payload := make([]byte, 20)
	// creation_time[4], modification_time[4] left zero
	putU32(payload[8:12], timescale)
	// duration[4] left zero
	putU16(payload[16:18], 0x55C4) // language = "und"
	return fullBox("mdhd", 0, 0, payload)
}

func buildHdlr(kind TrackKind) []byte {
	var handlerType, name string
	if kind == KindVideo {
		handlerType, name = "vide", "VideoHandler\x00"
	} else {
		handlerType, name = "soun", "SoundHandler\x00"
	}
	payload := make([]byte, 8, 8+len(name))
	copy(payload[4:8], handlerType)
	payload = append(payload, []byte(name)...)
	return fullBox("hdlr", 0, 0, payload)
}

func buildMinf(kind TrackKind, stsd []byte) []byte {
	var mediaHeader []byte
	if kind == KindVideo {
		mediaHeader = fullBox("vmhd", 0, 1, make([]byte, 8))
	} else {
		mediaHeader = fullBox("smhd", 0, 0, make([]byte, 4))
	}

	url := fullBox("url ", 0, 1, nil) // flags=1: self-contained media
	entryCount := make([]byte, 4)
	putU32(entryCount, 1)
	dref := fullBox("dref", 0, 0, append(entryCount, url...))
	dinf := container("dinf", dref)

	emptyTable := fullBox("stts", 0, 0, make([]byte, 4))
	emptySampleToChunk := fullBox("stsc", 0, 0, make([]byte, 4))
	emptySampleSize := fullBox("stsz", 0, 0, make([]byte, 8))
	emptyChunkOffset := fullBox("stco", 0, 0, make([]byte, 4))
	stbl := container("stbl", stsd, emptyTable, emptySampleToChunk, emptySampleSize, emptyChunkOffset)

	return container("minf", mediaHeader, dinf, stbl)
}

func buildTrak(t trackInit) []byte {
	width, height := t.Desc.CodedWidth, t.Desc.CodedHeight
	tkhd := buildTkhd(t.TrackID, t.Kind, width, height)
	mdhd := buildMdhd(t.Timescale)
	hdlr := buildHdlr(t.Kind)
	stsd := buildStsd(t.Desc)
	minf := buildMinf(t.Kind, stsd)
	mdia := container("mdia", mdhd, hdlr, minf)
	return container("trak", tkhd, mdia)
}

func buildTrex(trackID uint32) []byte {
	payload := make([]byte, 20)
	putU32(payload[0:4], trackID)
	putU32(payload[4:8], 1)  // default_sample_description_index
	putU32(payload[8:12], 0) // default_sample_duration
	putU32(payload[12:16], 0)
	putU32(payload[16:20], 0)
	return fullBox("trex", 0, 0, payload)
}
