package bitstream

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildOpusHead(t *testing.T) {
	head := BuildOpusHead(2, 48000, 312)
	require.Len(t, head, 19)
	assert.Equal(t, "OpusHead", string(head[0:8]))
	assert.Equal(t, byte(1), head[8]) // version
	assert.Equal(t, byte(2), head[9]) // channels
	assert.Equal(t, uint16(312), binary.LittleEndian.Uint16(head[10:12]))
	assert.Equal(t, uint32(48000), binary.LittleEndian.Uint32(head[12:16]))
}

func TestBuildAvcC_StructuralRoundTrip(t *testing.T) {
	sps := []byte{0x67, 0x42, 0x00, 0x1E, 0xAA, 0xBB}
	pps := []byte{0x68, 0xCE, 0x3C, 0x80}

	avcC := BuildAvcC([][]byte{sps}, [][]byte{pps})

	require.Greater(t, len(avcC), 6)
	assert.Equal(t, byte(1), avcC[0])       // version
	assert.Equal(t, sps[1], avcC[1])        // profile
	assert.Equal(t, sps[2], avcC[2])        // compat
	assert.Equal(t, sps[3], avcC[3])        // level
	assert.Equal(t, byte(0xE0|1), avcC[5]) // numSPS = 1

	spsLen := binary.BigEndian.Uint16(avcC[6:8])
	assert.Equal(t, uint16(len(sps)), spsLen)
	assert.Equal(t, sps, avcC[8:8+int(spsLen)])

	rest := avcC[8+int(spsLen):]
	numPPS := rest[0]
	assert.Equal(t, byte(1), numPPS)
	ppsLen := binary.BigEndian.Uint16(rest[1:3])
	assert.Equal(t, uint16(len(pps)), ppsLen)
	assert.Equal(t, pps, rest[3:3+int(ppsLen)])
}

func TestBuildVpcC_FieldPacking(t *testing.T) {
	vpcC := BuildVpcC(0, 10, 8, 1, false)
	require.Len(t, vpcC, 8)
	assert.Equal(t, byte(0), vpcC[0])  // profile
	assert.Equal(t, byte(10), vpcC[1]) // level
	assert.Equal(t, byte(8<<4|1<<1|0), vpcC[2])
	assert.Equal(t, uint16(0), binary.BigEndian.Uint16(vpcC[6:8]))
}

func TestBuildAv1C_Marker(t *testing.T) {
	seqHeader := []byte{0x0A, 0x0B}
	av1C := BuildAv1C(0, 4, false, false, seqHeader)
	require.Len(t, av1C, 4+len(seqHeader))
	assert.Equal(t, byte(0x81), av1C[0])
	assert.Equal(t, seqHeader, av1C[4:])
}

func TestBuildEsds_ContainsAudioSpecificConfig(t *testing.T) {
	asc := []byte{0x12, 0x10} // AAC-LC, 44100Hz, stereo (typical 2-byte ASC)
	esds := BuildEsds(1, asc)
	assert.True(t, bytes.Contains(esds, asc))
	assert.Equal(t, byte(0x03), esds[0]) // ES_Descriptor tag
}
