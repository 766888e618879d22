package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/xhedwig/ofdp-sdg/pkg/game"
	"github.com/xhedwig/ofdp-sdg/pkg/logging"
	"github.com/xhedwig/ofdp-sdg/pkg/metrics"
	"github.com/xhedwig/ofdp-sdg/pkg/pubsub"
	"github.com/xhedwig/ofdp-sdg/pkg/topology"
)

// Schedule modes
const (
	// ModeBootstrap probes from every switch because no link is known yet
	ModeBootstrap = metrics.ModeBootstrap
	// ModeSolved uses a converged best response assignment
	ModeSolved = metrics.ModeSolved
	// ModePartial uses the best assignment of a solver run that ran out
	// of sweeps
	ModePartial = metrics.ModePartial
)

// Plan is the schedule chosen for one snapshot
type Plan struct {
	Mode       string
	Assignment game.Assignment
	// Result is nil in bootstrap mode
	Result *game.Result
}

// Plan decides who probes for a snapshot without emitting anything.
// Non-convergence is not an error here: the partial assignment is used.
func (s *Scheduler) Plan(snap *topology.Snapshot) (Plan, error) {
	if snap.LinkCount() == 0 {
		return Plan{Mode: ModeBootstrap, Assignment: game.AllHelp(snap)}, nil
	}

	result, err := s.solver.Solve(snap)
	switch {
	case err == nil:
		return Plan{Mode: ModeSolved, Assignment: result.Assignment, Result: &result}, nil
	case errors.Is(err, game.ErrDidNotConverge):
		logging.Warn("best response did not converge, using best assignment seen",
			"sweeps", result.Sweeps,
			"score", result.Score,
		)
		return Plan{Mode: ModePartial, Assignment: result.Assignment, Result: &result}, nil
	default:
		return Plan{}, err
	}
}

// RoundSummary describes one finished (or aborted) probing round
type RoundSummary struct {
	ID         string            `json:"id"`
	Mode       string            `json:"mode"`
	StartedAt  time.Time         `json:"startedAt"`
	DurationMs int64             `json:"durationMs"`
	Topology   string            `json:"topology"` // snapshot hash
	Switches   int               `json:"switches"`
	Links      int               `json:"links"`
	Sweeps     int               `json:"sweeps"`
	Converged  bool              `json:"converged"`
	Score      int               `json:"score"`
	Assignment game.Assignment   `json:"assignment"`
	Active     []topology.NodeID `json:"active"`
	Sent       int               `json:"sent"`
	Failed     int               `json:"failed"`
	Aborted    bool              `json:"aborted"`
}

// Round runs one probing round: snapshot, plan, then one probe per
// selected switch in ascending id order with Guard between emissions.
// Failed emissions are logged and counted but do not end the round.
// Cancelling ctx stops pacing at once and skips the remaining probes.
func (s *Scheduler) Round(ctx context.Context) (RoundSummary, error) {
	if err := ctx.Err(); err != nil {
		return RoundSummary{}, err
	}

	start := time.Now()
	ctx = logging.WithRoundID(ctx, uuid.NewString())

	snap := s.source.Snapshot()
	plan, err := s.Plan(snap)
	if err != nil {
		return RoundSummary{}, err
	}

	summary := RoundSummary{
		ID:         logging.GetRoundID(ctx),
		Mode:       plan.Mode,
		StartedAt:  start,
		Topology:   snap.Hash(),
		Switches:   snap.NodeCount(),
		Links:      snap.LinkCount(),
		Assignment: plan.Assignment,
		Active:     plan.Assignment.Active(),
	}
	if plan.Result != nil {
		summary.Sweeps = plan.Result.Sweeps
		summary.Converged = plan.Result.Converged
		summary.Score = plan.Result.Score
	}
	s.dump(ctx, snap, plan)

	logging.DebugContext(ctx, "probing round planned",
		"mode", summary.Mode,
		"switches", summary.Switches,
		"links", summary.Links,
		"active", len(summary.Active),
		"sweeps", summary.Sweeps,
	)

	for i, id := range summary.Active {
		if i > 0 && !pause(ctx, s.cfg.Guard) {
			summary.Aborted = true
			break
		}
		if err := s.emitter.Emit(ctx, id); err != nil {
			summary.Failed++
			s.recordProbe(metrics.ProbeFailed)
			logging.WarnContext(ctx, "probe emission failed", "switch", uint64(id), "error", err)
			continue
		}
		summary.Sent++
		s.recordProbe(metrics.ProbeSent)
	}
	summary.DurationMs = time.Since(start).Milliseconds()

	s.finish(ctx, summary, plan, time.Since(start))

	if summary.Aborted {
		return summary, ctx.Err()
	}
	return summary, nil
}

func (s *Scheduler) finish(ctx context.Context, summary RoundSummary, plan Plan, elapsed time.Duration) {
	s.mu.Lock()
	s.last = &summary
	s.rounds++
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordRound(summary.Mode, len(summary.Active), elapsed)
		s.metrics.UpdateTopology(summary.Switches, summary.Links)
		if plan.Result != nil {
			s.metrics.RecordSolve(plan.Result.Sweeps, plan.Result.Score, plan.Result.Converged)
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(pubsub.TopicSchedule, pubsub.EventRoundCompleted, summary); err != nil {
			logging.WarnContext(ctx, "failed to publish round summary", "error", err)
		}
	}

	logging.InfoContext(ctx, "probing round finished",
		"mode", summary.Mode,
		"sent", summary.Sent,
		"failed", summary.Failed,
		"aborted", summary.Aborted,
		"durationMs", summary.DurationMs,
	)
}

func (s *Scheduler) recordProbe(status string) {
	if s.metrics != nil {
		s.metrics.RecordProbe(status)
	}
}

// dump writes links, weights and the chosen actions at trace level
func (s *Scheduler) dump(ctx context.Context, snap *topology.Snapshot, plan Plan) {
	if !logging.Enabled(logging.LevelTrace) {
		return
	}
	for _, l := range snap.Links() {
		logging.TraceContext(ctx, "link", "link", l.String())
	}
	weights := game.ComputeWeights(snap)
	for _, id := range snap.Nodes() {
		logging.TraceContext(ctx, "switch",
			"switch", uint64(id),
			"weight", weights[id],
			"action", plan.Assignment[id].String(),
		)
	}
}

// LogEmitter only logs probes. It is the emitter used when no probe
// transport is attached.
type LogEmitter struct{}

func (LogEmitter) Emit(ctx context.Context, id topology.NodeID) error {
	logging.DebugContext(ctx, "discovery probe", "switch", uint64(id))
	return nil
}
