package mp4

import "github.com/mxcodec/webcodecs/internal/frame"

// familyForFourcc inverts fourccFor for the sample entry types buildStsd
// emits.
func familyForFourcc(fourcc string) string {
	switch fourcc {
	case "avc1":
		return "avc"
	case "hev1":
		return "hevc"
	case "vp08":
		return "vp8"
	case "vp09":
		return "vp9"
	case "av01":
		return "av1"
	case "mp4a":
		return "aac"
	case "Opus":
		return "opus"
	case ".mp3":
		return "mp3"
	case "fLaC":
		return "flac"
	case "vorb":
		return "vorbis"
	default:
		return "pcm"
	}
}

// decoderConfigFromStsd reads the single sample entry an Mp4Muxer writes
// and rebuilds the frame.DecoderConfig a decoder would need (spec §4.6
// "videoDecoderConfig/audioDecoderConfig ... become available").
// data is the stsd full box's payload with the version/flags header
// already stripped: entry_count(4) followed by one sample entry box.
func decoderConfigFromStsd(data []byte, kind TrackKind) (*frame.DecoderConfig, error) {
	if len(data) < 4 {
		return nil, errMalformed("stsd too short")
	}
	entryCount := u32(data[0:4])
	if entryCount == 0 {
		return nil, errMalformed("stsd has no sample entries")
	}
	entries := parseBoxes(data[4:])
	if len(entries) == 0 {
		return nil, errMalformed("stsd sample entry missing")
	}
	entry := entries[0]
	family := familyForFourcc(entry.Type)

	if kind == KindVideo {
		return decoderConfigFromVisualEntry(family, entry.Payload)
	}
	return decoderConfigFromAudioEntry(family, entry.Payload)
}

func decoderConfigFromVisualEntry(family string, payload []byte) (*frame.DecoderConfig, error) {
	if len(payload) < 78 {
		return nil, errMalformed("VisualSampleEntry too short")
	}
	width := int(u16(payload[16:18]))
	height := int(u16(payload[18:20]))
	configPayload := payload[78:]

	var description []byte
	switch family {
	case "avc":
		if b, ok := findBox(configPayload, "avcC"); ok {
			description = b.Payload
		}
	case "hevc":
		if b, ok := findBox(configPayload, "hvcC"); ok {
			description = b.Payload
		}
	case "vp9":
		if b, ok := findBox(configPayload, "vpcC"); ok {
			description = b.Payload
		}
	case "av1":
		if b, ok := findBox(configPayload, "av1C"); ok {
			description = b.Payload
		}
	}

	return &frame.DecoderConfig{Codec: family, CodedWidth: width, CodedHeight: height, Description: description}, nil
}

func decoderConfigFromAudioEntry(family string, payload []byte) (*frame.DecoderConfig, error) {
	if len(payload) < 28 {
		return nil, errMalformed("AudioSampleEntry too short")
	}
	channels := int(u16(payload[16:18]))
	sampleRate := int(u32(payload[24:28]) >> 16)
	configPayload := payload[28:]

	var description []byte
	switch family {
	case "aac":
		if b, ok := findBox(configPayload, "esds"); ok {
			description = b.Payload
		}
	case "opus":
		if b, ok := findBox(configPayload, "dOps"); ok {
			description = opusHeadFromDOps(b.Payload, channels, sampleRate)
		}
	}

	return &frame.DecoderConfig{Codec: family, SampleRate: sampleRate, NumberOfChannels: channels, Description: description}, nil
}

// opusHeadFromDOps reverses dOpsFromOpusHead, rebuilding the little-endian
// OpusHead identification header from the big-endian dOps box fields.
func opusHeadFromDOps(dOps []byte, channels, sampleRate int) []byte {
	buf := make([]byte, 19)
	copy(buf[0:8], "OpusHead")
	buf[8] = 1 // version
	if len(dOps) >= 8 {
		buf[9] = dOps[1] // output channel count
		preSkip := u16(dOps[2:4])
		rate := u32(dOps[4:8])
		buf[10] = byte(preSkip)
		buf[11] = byte(preSkip >> 8)
		buf[12] = byte(rate)
		buf[13] = byte(rate >> 8)
		buf[14] = byte(rate >> 16)
		buf[15] = byte(rate >> 24)
	} else {
		buf[9] = byte(channels)
		buf[12] = byte(sampleRate)
		buf[13] = byte(sampleRate >> 8)
		buf[14] = byte(sampleRate >> 16)
		buf[15] = byte(sampleRate >> 24)
	}
	// output gain[2], channel mapping family[1] already zeroed
	return buf
}
