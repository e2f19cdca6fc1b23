// Package bitstream builds the codec-specific decoder configuration
// ("extradata") records referenced throughout spec.md §4.4/§4.5/§6:
// avcC, hvcC, vpcC, av1C, OpusHead, and esds. Each builder follows the
// relevant ISO/AV1 registered binary layout directly; none of it is
// mined from the retrieval pack (no example repo constructs these boxes
// at the byte level — helixml-helix instead delegates to mp4ff's own
// SPS-parsing constructor, which this package intentionally does not
// call, see DESIGN.md), so these are grounded on the public container
// format specifications spec.md §6 names by box fourcc.
package bitstream

import "encoding/binary"

// BuildAvcC assembles an AVCDecoderConfigurationRecord (avcC) from one or
// more SPS/PPS NAL units, each including its NAL header byte.
func BuildAvcC(spsList, ppsList [][]byte) []byte {
	var profile, compat, level byte
	if len(spsList) > 0 && len(spsList[0]) >= 4 {
		profile = spsList[0][1]
		compat = spsList[0][2]
		level = spsList[0][3]
	}

	buf := []byte{
		1, // configurationVersion
		profile,
		compat,
		level,
		0xFC | 3, // reserved(6)='111111' + lengthSizeMinusOne(2)=3 (4-byte lengths)
		0xE0 | byte(len(spsList)&0x1F),
	}
	for _, sps := range spsList {
		buf = appendU16LenPrefixed(buf, sps)
	}
	buf = append(buf, byte(len(ppsList)))
	for _, pps := range ppsList {
		buf = appendU16LenPrefixed(buf, pps)
	}
	return buf
}

// BuildHvcC assembles a simplified HEVCDecoderConfigurationRecord (hvcC)
// carrying VPS/SPS/PPS arrays. Profile/tier/level and the other advisory
// fields are set to permissive defaults since this engine's HEVC backend
// is a software reference double, not a bit-exact hardware encoder.
func BuildHvcC(vps, sps, pps [][]byte) []byte {
	buf := make([]byte, 0, 23)
	buf = append(buf, 1)          // configurationVersion
	buf = append(buf, 0x01)       // general_profile_space(2)=0 general_tier_flag(1)=0 general_profile_idc(5)=1
	buf = append(buf, 0, 0, 0, 0) // general_profile_compatibility_flags
	buf = append(buf, 0, 0, 0, 0, 0, 0) // general_constraint_indicator_flags (48 bits)
	buf = append(buf, 93)         // general_level_idc (level 3.1 placeholder)
	buf = append(buf, 0xF0, 0)    // reserved(4)+min_spatial_segmentation_idc(12)
	buf = append(buf, 0xFC)       // reserved(6)+parallelismType(2)=0
	buf = append(buf, 0xFC|1)     // reserved(6)+chromaFormat(2)=1 (4:2:0)
	buf = append(buf, 0xF8|0)     // reserved(5)+bitDepthLumaMinus8(3)=0
	buf = append(buf, 0xF8|0)     // reserved(5)+bitDepthChromaMinus8(3)=0
	buf = append(buf, 0, 0)       // avgFrameRate
	buf = append(buf, 0x0F)       // constantFrameRate(2)=0 numTemporalLayers(3)=1 temporalIdNested(1)=1 lengthSizeMinusOne(2)=3

	arrays := [][2]interface{}{
		{byte(32), vps}, // NAL unit type 32 = VPS
		{byte(33), sps}, // 33 = SPS
		{byte(34), pps}, // 34 = PPS
	}
	numArrays := 0
	for _, a := range arrays {
		if len(a[1].([][]byte)) > 0 {
			numArrays++
		}
	}
	buf = append(buf, byte(numArrays))
	for _, a := range arrays {
		nalus := a[1].([][]byte)
		if len(nalus) == 0 {
			continue
		}
		nalType := a[0].(byte)
		buf = append(buf, 0x80|nalType) // array_completeness=1, reserved=0, NAL_unit_type
		var countBuf [2]byte
		binary.BigEndian.PutUint16(countBuf[:], uint16(len(nalus)))
		buf = append(buf, countBuf[:]...)
		for _, n := range nalus {
			buf = appendU16LenPrefixed(buf, n)
		}
	}
	return buf
}

// BuildVpcC assembles a VPCodecConfigurationBox (vpcC) payload (full-box
// version+flags are prepended by the caller when wrapping in the box
// header; this returns the body only).
func BuildVpcC(profile, level, bitDepth byte, chromaSubsampling byte, fullRange bool) []byte {
	var rangeBit byte
	if fullRange {
		rangeBit = 1
	}
	buf := []byte{
		profile,
		level,
		(bitDepth << 4) | (chromaSubsampling << 1) | rangeBit,
		2, // colourPrimaries: unspecified
		2, // transferCharacteristics: unspecified
		2, // matrixCoefficients: unspecified
		0, 0, // codecIntializationDataSize = 0
	}
	return buf
}

// BuildAv1C assembles an AV1CodecConfigurationBox (av1C) payload carrying
// the raw AV1 sequence-header OBU as configOBUs.
func BuildAv1C(seqProfile, seqLevelIdx byte, highBitdepth, monochrome bool, seqHeaderOBU []byte) []byte {
	buf := make([]byte, 4, 4+len(seqHeaderOBU))
	buf[0] = 0x80 | 1 // marker=1, version=1
	buf[1] = (seqProfile << 5) | (seqLevelIdx & 0x1F)
	var flags byte
	if highBitdepth {
		flags |= 0x40
	}
	if monochrome {
		flags |= 0x20
	}
	buf[2] = flags
	buf[3] = 0 // reserved/presentation-delay fields, none present
	buf = append(buf, seqHeaderOBU...)
	return buf
}

// BuildOpusHead assembles the 19-byte OpusHead identification header
// (spec §4.4 "Opus requires OpusHead in description on first decode").
func BuildOpusHead(channels int, sampleRate uint32, preSkip uint16) []byte {
	buf := make([]byte, 19)
	copy(buf[0:8], "OpusHead")
	buf[8] = 1 // version
	buf[9] = byte(channels)
	binary.LittleEndian.PutUint16(buf[10:12], preSkip)
	binary.LittleEndian.PutUint32(buf[12:16], sampleRate)
	binary.LittleEndian.PutUint16(buf[16:18], 0) // output gain
	buf[18] = 0                                  // channel mapping family
	return buf
}

// BuildEsds assembles a minimal MPEG-4 ES_Descriptor (esds box payload)
// wrapping an AAC AudioSpecificConfig.
func BuildEsds(trackID uint16, audioSpecificConfig []byte) []byte {
	decSpecificInfo := tlv(0x05, audioSpecificConfig)

	decoderConfigDescr := tlv(0x04, append([]byte{
		0x40,       // objectTypeIndication: AAC
		0x15,       // streamType(6)=audio(5)<<2 | upStream(1)=0 | reserved(1)=1
		0, 0, 0,    // bufferSizeDB(24)
		0, 0, 0, 0, // maxBitrate
		0, 0, 0, 0, // avgBitrate
	}, decSpecificInfo...))

	slConfigDescr := tlv(0x06, []byte{0x02})

	var esID [2]byte
	binary.BigEndian.PutUint16(esID[:], trackID)
	esDescr := tlv(0x03, append(append(append([]byte{}, esID[:]...), 0x00), append(decoderConfigDescr, slConfigDescr...)...))

	return esDescr
}

// tlv encodes one MPEG-4 descriptor: tag byte + single-byte length (valid
// for payloads under 128 bytes, which covers every extradata blob this
// engine produces) + payload.
func tlv(tag byte, payload []byte) []byte {
	buf := make([]byte, 0, 2+len(payload))
	buf = append(buf, tag, byte(len(payload)))
	buf = append(buf, payload...)
	return buf
}

func appendU16LenPrefixed(buf []byte, data []byte) []byte {
	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(data)))
	buf = append(buf, lenBuf[:]...)
	return append(buf, data...)
}
