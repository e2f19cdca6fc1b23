package frame

// ChunkType classifies an encoded chunk as a keyframe or a delta frame
// (spec §3 "EncodedVideoChunk / EncodedAudioChunk").
type ChunkType string

const (
	KeyChunk   ChunkType = "key"
	DeltaChunk ChunkType = "delta"
)

// EncodedVideoChunk is an immutable carrier for one encoded video access
// unit. Unlike VideoFrame, chunks are plain values — the spec does not
// describe a close()/ref-count lifecycle for them.
type EncodedVideoChunk struct {
	Type      ChunkType
	Timestamp int64
	Duration  *int64
	Data      []byte
}

// EncodedAudioChunk is the audio analogue of EncodedVideoChunk.
type EncodedAudioChunk struct {
	Type      ChunkType
	Timestamp int64
	Duration  *int64
	Data      []byte
}

// DecoderConfig is the codec-specific initialization data a decoder needs
// before it can make sense of encoded chunks (spec §3 "Codec config
// records", §6 "Extradata").
type DecoderConfig struct {
	Codec         string
	CodedWidth    int
	CodedHeight   int
	Description   []byte // avcC / hvcC / vpcC / av1C / OpusHead, family-specific
	SampleRate    int    // audio only
	NumberOfChannels int // audio only
}

// SVCMetadata carries the computed temporal-layer id for one encoder
// output (spec §4.4 "metadata.svc.temporalLayerId").
type SVCMetadata struct {
	TemporalLayerID int
}

// EncodedVideoChunkMetadata accompanies an EncodedVideoChunk on the first
// chunk after configure() and on every decoderConfig change (spec §3, §4.4).
type EncodedVideoChunkMetadata struct {
	DecoderConfig *DecoderConfig
	SVC           *SVCMetadata
}

// EncodedAudioChunkMetadata is the audio analogue; audio pipelines do not
// define SVC layering.
type EncodedAudioChunkMetadata struct {
	DecoderConfig *DecoderConfig
}
