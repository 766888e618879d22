package main

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/xhedwig/ofdp-sdg/pkg/config"
	"github.com/xhedwig/ofdp-sdg/pkg/output"
)

func newSolveCmd() *cobra.Command {
	var emit bool

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Print the probing plan for the configured topology",
		Long: `solve computes the assignment one probing round would use and prints it.
With --emit it also runs that round, pacing the probes by --guard.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			cfg.ApplyLogging()

			c, err := newController(cfg, nil, nil)
			if err != nil {
				return err
			}

			snap := c.graph.Snapshot()
			plan, err := c.scheduler.Plan(snap)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			output.PrintPlan(out, snap, plan)

			if !emit {
				return nil
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			summary, err := c.scheduler.Round(ctx)
			output.PrintRound(out, summary)
			return err
		},
	}
	cmd.Flags().BoolVar(&emit, "emit", false, "Run one probing round after printing the plan")
	return cmd
}
