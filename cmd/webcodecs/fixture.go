package main

import (
	"github.com/mxcodec/webcodecs/internal/frame"
)

// syntheticVideoFrame builds an I420 test frame: a solid field whose
// luma value walks with the frame index, so consecutive frames are
// distinguishable in a round trip without needing a real video fixture.
func syntheticVideoFrame(index, width, height int, timestampUs, durationUs int64) (*frame.VideoFrame, error) {
	lumaSize := width * height
	chromaSize := ((width + 1) / 2) * ((height + 1) / 2)
	data := make([]byte, lumaSize+2*chromaSize)
	luma := byte(16 + (index*17)%200)
	for i := 0; i < lumaSize; i++ {
		data[i] = luma
	}
	for i := lumaSize; i < len(data); i++ {
		data[i] = 128
	}
	dur := durationUs
	return frame.NewVideoFrame(data, frame.VideoFrameBufferInit{
		Format:      frame.I420,
		CodedWidth:  width,
		CodedHeight: height,
		Timestamp:   timestampUs,
		Duration:    &dur,
	})
}

// syntheticAudioData builds a silent S16 PCM buffer of numFrames samples.
func syntheticAudioData(numFrames, sampleRate, channels int, timestampUs int64) (*frame.AudioData, error) {
	data := make([]byte, numFrames*channels*2)
	return frame.NewAudioData(data, frame.AudioDataInit{
		Format:           frame.S16,
		SampleRate:       sampleRate,
		NumberOfFrames:   numFrames,
		NumberOfChannels: channels,
		Timestamp:        timestampUs,
	})
}
