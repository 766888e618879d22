// Package scheduler drives periodic discovery rounds: it picks the
// switches that probe next and paces their emissions.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/xhedwig/ofdp-sdg/pkg/game"
	"github.com/xhedwig/ofdp-sdg/pkg/logging"
	"github.com/xhedwig/ofdp-sdg/pkg/metrics"
	"github.com/xhedwig/ofdp-sdg/pkg/pubsub"
	"github.com/xhedwig/ofdp-sdg/pkg/topology"
)

// SnapshotSource supplies the topology at the start of each round
type SnapshotSource interface {
	Snapshot() *topology.Snapshot
}

// Solver computes a probing assignment for a snapshot.
// *game.Solver implements it.
type Solver interface {
	Solve(snap *topology.Snapshot) (game.Result, error)
}

// Emitter sends a discovery probe out of a switch
type Emitter interface {
	Emit(ctx context.Context, id topology.NodeID) error
}

// EmitterFunc adapts a function to Emitter
type EmitterFunc func(ctx context.Context, id topology.NodeID) error

func (f EmitterFunc) Emit(ctx context.Context, id topology.NodeID) error {
	return f(ctx, id)
}

// Config holds the timing of the probing loop
type Config struct {
	// Period is the pause between the end of one round and the next
	Period time.Duration
	// Guard separates two emissions within a round
	Guard time.Duration
	// InitialDelay is waited once before the first round
	InitialDelay time.Duration
}

// DefaultConfig matches the classic controller timing: one round per
// second, 50ms between probes, ten periods of warm-up
func DefaultConfig() Config {
	return Config{
		Period:       time.Second,
		Guard:        50 * time.Millisecond,
		InitialDelay: 10 * time.Second,
	}
}

func (c Config) validate() error {
	if c.Period <= 0 {
		return fmt.Errorf("period must be positive, got %s", c.Period)
	}
	if c.Guard < 0 || c.InitialDelay < 0 {
		return fmt.Errorf("guard and initial delay must not be negative")
	}
	return nil
}

// Scheduler runs probing rounds one at a time
type Scheduler struct {
	cfg       Config
	source    SnapshotSource
	solver    Solver
	emitter   Emitter
	publisher pubsub.Publisher
	metrics   *metrics.Registry

	trigger chan struct{}

	mu     sync.RWMutex
	last   *RoundSummary
	rounds int
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithPublisher publishes a summary of every round on the schedule topic
func WithPublisher(p pubsub.Publisher) Option {
	return func(s *Scheduler) { s.publisher = p }
}

// WithMetrics records rounds, solver runs and probes
func WithMetrics(r *metrics.Registry) Option {
	return func(s *Scheduler) { s.metrics = r }
}

// New creates a scheduler. A nil emitter logs probes instead of sending
// them.
func New(cfg Config, source SnapshotSource, solver Solver, emitter Emitter, opts ...Option) (*Scheduler, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if source == nil {
		return nil, errors.New("scheduler needs a topology source")
	}
	if solver == nil {
		return nil, &game.ConfigurationError{Reason: "scheduler needs a solver"}
	}
	if emitter == nil {
		emitter = LogEmitter{}
	}

	s := &Scheduler{
		cfg:     cfg,
		source:  source,
		solver:  solver,
		emitter: emitter,
		trigger: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Trigger asks for a round now instead of at the end of the period, e.g.
// after a topology change. Triggers that arrive while one is pending are
// merged.
func (s *Scheduler) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// LastRound returns the summary of the most recent round, if any
func (s *Scheduler) LastRound() (RoundSummary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return RoundSummary{}, false
	}
	return *s.last, true
}

// Rounds returns how many rounds have finished
func (s *Scheduler) Rounds() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rounds
}

// Run executes rounds until ctx is cancelled. It waits InitialDelay
// first, then Period after each round; Trigger cuts either wait short.
// A cancelled context never starts another round.
func (s *Scheduler) Run(ctx context.Context) error {
	logging.Info("probe scheduler started",
		"period", s.cfg.Period,
		"guard", s.cfg.Guard,
		"initialDelay", s.cfg.InitialDelay,
	)
	defer logging.Info("probe scheduler stopped", "rounds", s.Rounds())

	if !s.wait(ctx, s.cfg.InitialDelay) {
		return nil
	}

	for {
		// Cancellation wins over a pending trigger
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if _, err := s.Round(ctx); err != nil && ctx.Err() == nil {
			logging.Error("probing round failed", "error", err)
		}

		if !s.wait(ctx, s.cfg.Period) {
			return nil
		}
	}
}

// wait blocks for d, a trigger, or cancellation. Reports false on
// cancellation.
func (s *Scheduler) wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
	case <-s.trigger:
		logging.Debug("probing round triggered")
	}
	return ctx.Err() == nil
}

// pause is the guard delay between two emissions
func pause(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
