package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mxcodec/webcodecs/internal/hwaccel"
)

func newProbeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Print the hardware accelerator registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			preferred, hasPreferred := hwaccel.Preferred()
			for _, acc := range hwaccel.List() {
				marker := " "
				if hasPreferred && acc.Name == preferred.Name {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %-14s available=%-5t %s\n", marker, acc.Name, acc.Available(), acc.Description)
			}
			return nil
		},
	}
}
