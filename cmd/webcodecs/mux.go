package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mxcodec/webcodecs/internal/backend"
	"github.com/mxcodec/webcodecs/internal/config"
	"github.com/mxcodec/webcodecs/internal/frame"
	"github.com/mxcodec/webcodecs/internal/mp4"
	"github.com/mxcodec/webcodecs/internal/pipeline"
	"github.com/mxcodec/webcodecs/internal/webm"
)

func newMuxCmd() *cobra.Command {
	var (
		container  string
		videoCodec string
		audioCodec string
		width      int
		height     int
		sampleRate int
		channels   int
		frames     int
		out        string
	)

	cmd := &cobra.Command{
		Use:   "mux",
		Short: "Encode a synthetic fixture and write it to an MP4 or WebM container",
		RunE: func(cmd *cobra.Command, args []string) error {
			engineCfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			videoChunks, videoMetas, err := encodeSyntheticVideo(engineCfg, videoCodec, width, height, frames)
			if err != nil {
				return fmt.Errorf("encode video: %w", err)
			}
			var audioChunks []*frame.EncodedAudioChunk
			var audioMetas []*frame.EncodedAudioChunkMetadata
			if audioCodec != "" {
				audioChunks, audioMetas, err = encodeSyntheticAudio(engineCfg, audioCodec, sampleRate, channels, frames)
				if err != nil {
					return fmt.Errorf("encode audio: %w", err)
				}
			}

			var payload []byte
			switch container {
			case "mp4":
				payload, err = writeMp4(videoCodec, width, height, videoChunks, videoMetas, audioCodec, sampleRate, channels, audioChunks, audioMetas)
			case "webm":
				payload, err = writeWebm(videoCodec, width, height, videoChunks, videoMetas, audioCodec, sampleRate, channels, audioChunks, audioMetas)
			default:
				return fmt.Errorf("unknown container %q (want mp4 or webm)", container)
			}
			if err != nil {
				return err
			}

			if err := os.WriteFile(out, payload, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			log.Info().Str("container", container).Str("out", out).Str("size", humanize.Bytes(uint64(len(payload)))).Msg("webcodecs: mux complete")
			return nil
		},
	}

	cmd.Flags().StringVar(&container, "container", "mp4", "output container: mp4 or webm")
	cmd.Flags().StringVar(&videoCodec, "video-codec", "avc1.42C01E", "WebCodecs video codec string")
	cmd.Flags().StringVar(&audioCodec, "audio-codec", "opus", "WebCodecs audio codec string, empty to omit audio")
	cmd.Flags().IntVar(&width, "width", 320, "coded width")
	cmd.Flags().IntVar(&height, "height", 240, "coded height")
	cmd.Flags().IntVar(&sampleRate, "sample-rate", 48000, "audio sample rate")
	cmd.Flags().IntVar(&channels, "channels", 2, "audio channel count")
	cmd.Flags().IntVar(&frames, "frames", 30, "number of video/audio frames to synthesize")
	cmd.Flags().StringVar(&out, "out", "out.mp4", "output file path")

	return cmd
}

func encodeSyntheticVideo(engineCfg config.EngineConfig, codec string, width, height, frames int) ([]*frame.EncodedVideoChunk, []*frame.EncodedVideoChunkMetadata, error) {
	var chunks []*frame.EncodedVideoChunk
	var metas []*frame.EncodedVideoChunkMetadata
	enc := pipeline.NewVideoEncoder(engineCfg,
		func(c *frame.EncodedVideoChunk, m *frame.EncodedVideoChunkMetadata) {
			chunks = append(chunks, c)
			metas = append(metas, m)
		},
		func(err error) { log.Error().Err(err).Msg("webcodecs: video encoder error") },
	)
	defer enc.Close()

	if err := enc.Configure(backend.VideoEncoderConfig{Codec: codec, Width: width, Height: height}); err != nil {
		return nil, nil, err
	}

	const frameDurationUs = 33333
	for i := 0; i < frames; i++ {
		f, err := syntheticVideoFrame(i, width, height, int64(i)*frameDurationUs, frameDurationUs)
		if err != nil {
			return nil, nil, err
		}
		err = enc.Encode(f, i == 0)
		f.Close()
		if err != nil {
			return nil, nil, err
		}
	}
	if err := enc.Flush(); err != nil {
		return nil, nil, err
	}
	return chunks, metas, nil
}

func encodeSyntheticAudio(engineCfg config.EngineConfig, codec string, sampleRate, channels, frames int) ([]*frame.EncodedAudioChunk, []*frame.EncodedAudioChunkMetadata, error) {
	var chunks []*frame.EncodedAudioChunk
	var metas []*frame.EncodedAudioChunkMetadata
	enc := pipeline.NewAudioEncoder(engineCfg,
		func(c *frame.EncodedAudioChunk, m *frame.EncodedAudioChunkMetadata) {
			chunks = append(chunks, c)
			metas = append(metas, m)
		},
		func(err error) { log.Error().Err(err).Msg("webcodecs: audio encoder error") },
	)
	defer enc.Close()

	if err := enc.Configure(backend.AudioEncoderConfig{Codec: codec, SampleRate: sampleRate, NumberOfChannels: channels}); err != nil {
		return nil, nil, err
	}

	const samplesPerFrame = 960 // 20ms @ 48kHz
	for i := 0; i < frames; i++ {
		durationUs := int64(samplesPerFrame) * 1_000_000 / int64(sampleRate)
		a, err := syntheticAudioData(samplesPerFrame, sampleRate, channels, int64(i)*durationUs)
		if err != nil {
			return nil, nil, err
		}
		err = enc.Encode(a)
		a.Close()
		if err != nil {
			return nil, nil, err
		}
	}
	if err := enc.Flush(); err != nil {
		return nil, nil, err
	}
	return chunks, metas, nil
}

func writeMp4(
	videoCodec string, width, height int, videoChunks []*frame.EncodedVideoChunk, videoMetas []*frame.EncodedVideoChunkMetadata,
	audioCodec string, sampleRate, channels int, audioChunks []*frame.EncodedAudioChunk, audioMetas []*frame.EncodedAudioChunkMetadata,
) ([]byte, error) {
	muxer := mp4.NewMp4Muxer(90000)
	videoFamily, _ := backend.RecognizeCodec(videoCodec)
	videoTrack, err := muxer.AddVideoTrack(string(videoFamily), width, height)
	if err != nil {
		return nil, err
	}
	for i, c := range videoChunks {
		if err := muxer.AddVideoChunk(videoTrack, c, videoMetas[i]); err != nil {
			return nil, err
		}
	}

	if audioCodec != "" {
		audioFamily, _ := backend.RecognizeCodec(audioCodec)
		audioTrack, err := muxer.AddAudioTrack(string(audioFamily), sampleRate, channels)
		if err != nil {
			return nil, err
		}
		for i, c := range audioChunks {
			if err := muxer.AddAudioChunk(audioTrack, c, audioMetas[i]); err != nil {
				return nil, err
			}
		}
	}

	if err := muxer.Flush(); err != nil {
		return nil, err
	}
	return muxer.Finalize()
}

func writeWebm(
	videoCodec string, width, height int, videoChunks []*frame.EncodedVideoChunk, videoMetas []*frame.EncodedVideoChunkMetadata,
	audioCodec string, sampleRate, channels int, audioChunks []*frame.EncodedAudioChunk, audioMetas []*frame.EncodedAudioChunkMetadata,
) ([]byte, error) {
	muxer := webm.NewWebmMuxer()
	videoFamily, _ := backend.RecognizeCodec(videoCodec)
	videoTrack, err := muxer.AddVideoTrack(string(videoFamily), width, height, false)
	if err != nil {
		return nil, err
	}
	for i, c := range videoChunks {
		if err := muxer.AddVideoChunk(videoTrack, c, videoMetas[i], nil); err != nil {
			return nil, err
		}
	}

	if audioCodec != "" {
		audioFamily, _ := backend.RecognizeCodec(audioCodec)
		audioTrack, err := muxer.AddAudioTrack(string(audioFamily), sampleRate, channels)
		if err != nil {
			return nil, err
		}
		for i, c := range audioChunks {
			if err := muxer.AddAudioChunk(audioTrack, c, audioMetas[i]); err != nil {
				return nil, err
			}
		}
	}

	if err := muxer.Flush(); err != nil {
		return nil, err
	}
	return muxer.Finalize()
}
