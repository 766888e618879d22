package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/xhedwig/ofdp-sdg/pkg/config"
	"github.com/xhedwig/ofdp-sdg/pkg/game"
	"github.com/xhedwig/ofdp-sdg/pkg/logging"
	"github.com/xhedwig/ofdp-sdg/pkg/metrics"
	"github.com/xhedwig/ofdp-sdg/pkg/pubsub"
	"github.com/xhedwig/ofdp-sdg/pkg/scheduler"
	"github.com/xhedwig/ofdp-sdg/pkg/topology"
	"github.com/xhedwig/ofdp-sdg/pkg/watcher"
	"github.com/xhedwig/ofdp-sdg/pkg/web"
)

const (
	watchQuietPeriod = 200 * time.Millisecond
	watchMaxWait     = 2 * time.Second
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the probing loop until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			cfg.ApplyLogging()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}
}

// controller bundles what a running controller is made of
type controller struct {
	graph     *topology.Graph
	scheduler *scheduler.Scheduler
	publisher *pubsub.SSEPublisher
	metrics   *metrics.Registry
}

func newController(cfg *config.Config, publisher *pubsub.SSEPublisher, reg *metrics.Registry) (*controller, error) {
	payoffs, err := cfg.BuildPayoffs()
	if err != nil {
		return nil, err
	}
	solver, err := game.NewSolver(payoffs, cfg.SolverOptions()...)
	if err != nil {
		return nil, err
	}

	graph, err := cfg.LoadTopology()
	if err != nil {
		return nil, fmt.Errorf("failed to load topology: %w", err)
	}

	var opts []scheduler.Option
	if publisher != nil {
		opts = append(opts, scheduler.WithPublisher(publisher))
	}
	if reg != nil {
		opts = append(opts, scheduler.WithMetrics(reg))
	}
	sched, err := scheduler.New(cfg.SchedulerConfig(), graph, solver, scheduler.LogEmitter{}, opts...)
	if err != nil {
		return nil, err
	}

	return &controller{graph: graph, scheduler: sched, publisher: publisher, metrics: reg}, nil
}

func topologySource(cfg *config.Config) string {
	if cfg.Generate != "" {
		return "generate:" + cfg.Generate
	}
	return cfg.Topology
}

func run(ctx context.Context, cfg *config.Config) error {
	publisher := pubsub.NewSSEPublisher()
	pubsub.ConfigureDefaultTopics(publisher)
	defer publisher.Close()

	reg := metrics.NewRegistry()

	c, err := newController(cfg, publisher, reg)
	if err != nil {
		return err
	}

	snap := c.graph.Snapshot()
	reg.UpdateTopology(snap.NodeCount(), snap.LinkCount())
	data := pubsub.NewTopologyData(snap, topology.Compare(nil, snap), topologySource(cfg))
	if err := publisher.Publish(pubsub.TopicTopology, pubsub.EventTopologyLoaded, data); err != nil {
		logging.Warn("failed to publish topology", "error", err)
	}
	logging.Info("topology loaded",
		"source", topologySource(cfg),
		"switches", snap.NodeCount(),
		"links", snap.LinkCount(),
		"components", len(c.graph.Components()),
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return c.scheduler.Run(gctx)
	})

	if cfg.Watch {
		reloader := watcher.NewReloader(c.graph, cfg.Topology, cfg.TopologyFormat,
			watcher.WithPublisher(publisher),
			watcher.WithMetrics(reg),
			watcher.WithTrigger(c.scheduler),
		)
		g.Go(func() error {
			return watcher.Watch(gctx, reloader, watchQuietPeriod, watchMaxWait)
		})
	}

	if cfg.HTTPAddr != "" {
		srv := web.NewServer(c.graph, c.scheduler,
			web.WithPublisher(publisher),
			web.WithMetrics(reg),
		)
		g.Go(func() error {
			return srv.Run(gctx, cfg.HTTPAddr)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	logging.Info("controller stopped", "rounds", c.scheduler.Rounds())
	return nil
}
