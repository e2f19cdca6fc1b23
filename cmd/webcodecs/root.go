// Package main implements the webcodecs CLI: a small Cobra binary that
// exercises the library end to end (probe, mux, demux, serve), the same
// shape as the host application's own command tree.
package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "webcodecs",
		Short: "webcodecs",
		Long:  "WebCodecs-conformant media processing engine",
	}

	root.AddCommand(newVersionCmd())
	root.AddCommand(newProbeCmd())
	root.AddCommand(newMuxCmd())
	root.AddCommand(newDemuxCmd())
	root.AddCommand(newServeCmd())

	return root
}

func execute() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	root := newRootCmd()
	root.SetContext(context.Background())
	root.SetOut(os.Stdout)
	if err := root.Execute(); err != nil {
		log.Fatal().Err(err).Msg("webcodecs: command failed")
	}
}

func main() {
	execute()
}
