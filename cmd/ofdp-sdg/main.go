// Command ofdp-sdg runs the OpenFlow discovery probing controller. Each
// round it picks the switches that emit discovery probes by solving a
// security game over the current topology.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/xhedwig/ofdp-sdg/pkg/config"
	"github.com/xhedwig/ofdp-sdg/pkg/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ofdp-sdg",
		Short: "Game theoretic scheduling of OpenFlow topology discovery probes",
		Long: `ofdp-sdg decides, every probing round, which switches send topology
discovery probes. Switches are weighted by degree and play a two action
game against their neighbours; the best response equilibrium selects the
switches that probe.

Configuration is read from ofdp-sdg.toml, OFDP_SDG_* environment variables
and flags, in increasing priority.`,
		SilenceUsage: true,
		// Keep stdout for plans and generated topologies
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetOutput(cmd.ErrOrStderr())
			logging.SetLevel(slog.LevelInfo)
		},
	}
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		newRunCmd(),
		newSolveCmd(),
		newGenCmd(),
	)
	return root
}
