package watcher

import (
	"context"
	"fmt"
	"time"

	"github.com/xhedwig/ofdp-sdg/pkg/logging"
	"github.com/xhedwig/ofdp-sdg/pkg/metrics"
	"github.com/xhedwig/ofdp-sdg/pkg/pubsub"
	"github.com/xhedwig/ofdp-sdg/pkg/topology"
)

// Reload outcomes
const (
	ReloadApplied   = "applied"
	ReloadUnchanged = "unchanged"
	ReloadFailed    = "failed"
)

// Triggerer is notified after the live topology changed, typically to
// start a probing round early
type Triggerer interface {
	Trigger()
}

// Reloader keeps a live topology in sync with its source file
type Reloader struct {
	graph  *topology.Graph
	path   string
	format string

	publisher pubsub.Publisher
	metrics   *metrics.Registry
	trigger   Triggerer
}

// ReloaderOption configures a Reloader
type ReloaderOption func(*Reloader)

// WithPublisher publishes a topology event for every applied change
func WithPublisher(p pubsub.Publisher) ReloaderOption {
	return func(r *Reloader) { r.publisher = p }
}

// WithMetrics records reloads and topology changes
func WithMetrics(m *metrics.Registry) ReloaderOption {
	return func(r *Reloader) { r.metrics = m }
}

// WithTrigger notifies t after every applied change
func WithTrigger(t Triggerer) ReloaderOption {
	return func(r *Reloader) { r.trigger = t }
}

// NewReloader creates a reloader updating graph from the topology at path
func NewReloader(graph *topology.Graph, path, format string, opts ...ReloaderOption) *Reloader {
	r := &Reloader{graph: graph, path: path, format: format}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Files returns the files backing the topology source
func (r *Reloader) Files() []string {
	return topology.SourceFiles(r.path, r.format)
}

// Reload reads the topology source and applies the difference to the live
// graph. A source that fails to load leaves the live graph untouched.
func (r *Reloader) Reload(ctx context.Context) (topology.Diff, error) {
	start := time.Now()

	next, err := topology.Open(r.path, r.format)
	if err != nil {
		r.recordReload(ReloadFailed)
		return topology.Diff{}, fmt.Errorf("failed to reload topology: %w", err)
	}

	diff := topology.Compare(r.graph.Snapshot(), next.Snapshot())
	if diff.Empty() {
		logging.DebugContext(ctx, "topology unchanged", "path", r.path)
		r.recordReload(ReloadUnchanged)
		return diff, nil
	}

	if err := r.graph.Apply(diff); err != nil {
		r.recordReload(ReloadFailed)
		return topology.Diff{}, fmt.Errorf("failed to apply topology change: %w", err)
	}

	for _, id := range diff.AddedNodes {
		logging.InfoContext(ctx, "registered switch", "switch", id)
	}
	for _, l := range diff.AddedLinks {
		logging.InfoContext(ctx, "registered link", "link", l.String())
	}
	for _, l := range diff.RemovedLinks {
		logging.InfoContext(ctx, "removed link", "link", l.String())
	}
	for _, id := range diff.RemovedNodes {
		logging.InfoContext(ctx, "removed switch", "switch", id)
	}

	snap := r.graph.Snapshot()
	logging.InfoContext(ctx, "topology reloaded",
		"switches", snap.NodeCount(),
		"links", snap.LinkCount(),
		"duration", time.Since(start))

	r.recordReload(ReloadApplied)
	if r.metrics != nil {
		r.metrics.RecordTopologyChange("switch", "add", len(diff.AddedNodes))
		r.metrics.RecordTopologyChange("switch", "remove", len(diff.RemovedNodes))
		r.metrics.RecordTopologyChange("link", "add", len(diff.AddedLinks))
		r.metrics.RecordTopologyChange("link", "remove", len(diff.RemovedLinks))
	}
	if r.publisher != nil {
		data := pubsub.NewTopologyData(snap, diff, r.path)
		if err := r.publisher.Publish(pubsub.TopicTopology, pubsub.EventTopologyChanged, data); err != nil {
			logging.WarnContext(ctx, "failed to publish topology change", "error", err)
		}
	}
	if r.trigger != nil {
		r.trigger.Trigger()
	}

	return diff, nil
}

func (r *Reloader) recordReload(status string) {
	if r.metrics != nil {
		r.metrics.RecordReload(status)
	}
}

// Watch reloads the topology whenever its source files change, until ctx
// is cancelled. Bursts of file events within quietPeriod cause a single
// reload; a steady stream still reloads at least every maxWait.
func Watch(ctx context.Context, r *Reloader, quietPeriod, maxWait time.Duration) error {
	fw, err := NewFileWatcher(r.Files()...)
	if err != nil {
		return err
	}
	if err := fw.Start(ctx); err != nil {
		return err
	}

	debouncer := NewDebouncer(fw.Events(), quietPeriod, maxWait)
	debouncer.Start(ctx)

	for event := range debouncer.Output() {
		logging.Debug("topology source changed", "files", event.Paths)
		if _, err := r.Reload(ctx); err != nil {
			logging.Warn("keeping current topology", "error", err)
		}
	}
	return nil
}
