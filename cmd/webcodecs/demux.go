package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mxcodec/webcodecs/internal/frame"
	"github.com/mxcodec/webcodecs/internal/mp4"
	"github.com/mxcodec/webcodecs/internal/webm"
)

func newDemuxCmd() *cobra.Command {
	var container string

	cmd := &cobra.Command{
		Use:   "demux",
		Short: "Parse an MP4 or WebM file and print a chunk summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			var videoCount, audioCount int
			var videoBytes, audioBytes uint64
			onVideo := func(c *frame.EncodedVideoChunk) {
				videoCount++
				videoBytes += uint64(len(c.Data))
			}
			onAudio := func(c *frame.EncodedAudioChunk) {
				audioCount++
				audioBytes += uint64(len(c.Data))
			}
			var demuxErr error
			onError := func(err error) { demuxErr = err }

			switch container {
			case "mp4":
				d := mp4.NewMp4Demuxer(onVideo, onAudio, onError)
				if err := d.LoadBuffer(data); err != nil {
					return err
				}
				if err := d.DemuxAsync(); err != nil {
					return err
				}
			case "webm":
				d := webm.NewWebmDemuxer(onVideo, onAudio, onError)
				if err := d.LoadBuffer(data); err != nil {
					return err
				}
				if err := d.DemuxAsync(); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown container %q (want mp4 or webm)", container)
			}
			if demuxErr != nil {
				return demuxErr
			}

			fmt.Fprintf(out, "video: %d chunks, %s\n", videoCount, humanize.Bytes(videoBytes))
			fmt.Fprintf(out, "audio: %d chunks, %s\n", audioCount, humanize.Bytes(audioBytes))
			return nil
		},
	}

	cmd.Flags().StringVar(&container, "container", "mp4", "input container: mp4 or webm")
	return cmd
}
