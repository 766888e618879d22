package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/xhedwig/ofdp-sdg/pkg/topology"
)

func newGenCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "gen KIND:SIZE",
		Short: "Write a synthetic topology as YAML",
		Long: `gen writes a generated topology in the YAML topology format.

Kinds: linear:N, grid:N (N x N), torus:N, fattree:K (K even).`,
		Example: "  ofdp-sdg gen fattree:4 -o fattree4.yaml",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := topology.Generate(args[0])
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}
			return topology.Encode(w, g.Snapshot())
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "Write to this file instead of stdout")
	return cmd
}
