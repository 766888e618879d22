package game

import (
	"math/rand/v2"
	"sync"

	"github.com/xhedwig/ofdp-sdg/pkg/topology"
)

// Game is one instance of the probing game: a frozen topology with its
// weights and update order, played under a set of payoffs
type Game struct {
	snap    *topology.Snapshot
	weights Weights
	payoffs *Payoffs
	order   []topology.NodeID
}

// NewGame prepares a game on a snapshot
func NewGame(snap *topology.Snapshot, payoffs *Payoffs) *Game {
	w := ComputeWeights(snap)
	return &Game{
		snap:    snap,
		weights: w,
		payoffs: payoffs,
		order:   w.Order(),
	}
}

// Weights returns the switch weights of the game
func (g *Game) Weights() Weights { return g.weights }

// Order returns the sweep order; it must not be modified
func (g *Game) Order() []topology.NodeID { return g.order }

// Utilities returns what u earns by defending and by helping, given the
// current actions of its neighbors in a
func (g *Game) Utilities(a Assignment, u topology.NodeID) (defense, help int) {
	own := g.weights[u]

	defenseWeight, helpWeight := 0, 0
	for _, v := range g.snap.Neighbors(u) {
		if a[v] == Help {
			helpWeight += g.weights[v]
		} else {
			defenseWeight += g.weights[v]
		}
	}

	p := g.payoffs
	defense = p.Cell(own, defenseWeight, Defense, Defense) + p.Cell(own, helpWeight, Defense, Help)
	help = p.Cell(own, defenseWeight, Help, Defense) + p.Cell(own, helpWeight, Help, Help)
	return defense, help
}

// BestResponse returns u's best action in a. Equal utilities keep the
// current action.
func (g *Game) BestResponse(a Assignment, u topology.NodeID) Action {
	defense, help := g.Utilities(a, u)
	switch {
	case defense > help:
		return Defense
	case defense < help:
		return Help
	default:
		return a[u]
	}
}

// Sweep updates every switch once, in order, in place. Later switches see
// the updates of earlier ones. Reports whether any action changed.
func (g *Game) Sweep(a Assignment) bool {
	changed := false
	for _, u := range g.order {
		next := g.BestResponse(a, u)
		if next != a[u] {
			a[u] = next
			changed = true
		}
	}
	return changed
}

// Result is the outcome of a solver run
type Result struct {
	Assignment Assignment
	Sweeps     int
	Converged  bool
	// Score is the total weight of the switches set to Help
	Score int
	Order []topology.NodeID
}

// Solver iterates best responses to a fixed point.
// It is safe for concurrent use.
type Solver struct {
	payoffs   *Payoffs
	maxSweeps int

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures a Solver
type Option func(*Solver)

// WithMaxSweeps bounds the number of sweeps per run. Zero or less keeps
// the default of 10 sweeps per switch.
func WithMaxSweeps(n int) Option {
	return func(s *Solver) { s.maxSweeps = n }
}

// WithRand sets the random source used to seed initial assignments
func WithRand(r *rand.Rand) Option {
	return func(s *Solver) { s.rng = r }
}

// WithSeed seeds initial assignments deterministically
func WithSeed(seed uint64) Option {
	return WithRand(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// NewSolver creates a solver playing under the given payoffs
func NewSolver(payoffs *Payoffs, opts ...Option) (*Solver, error) {
	if payoffs == nil {
		return nil, &ConfigurationError{Reason: "no payoffs"}
	}

	s := &Solver{payoffs: payoffs}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return s, nil
}

// Payoffs returns the payoffs the solver plays under
func (s *Solver) Payoffs() *Payoffs { return s.payoffs }

// MaxSweeps returns the sweep bound for a topology of n switches
func (s *Solver) MaxSweeps(n int) int {
	if s.maxSweeps > 0 {
		return s.maxSweeps
	}
	return max(10*n, 1)
}

// Solve seeds every switch with a random action and runs to a fixed point
func (s *Solver) Solve(snap *topology.Snapshot) (Result, error) {
	return s.SolveFrom(snap, nil)
}

// SolveFrom runs from a warm start. Switches missing from initial are
// seeded randomly; entries for switches outside the snapshot are ignored.
//
// If no fixed point is reached within the sweep bound, the returned Result
// holds the highest scoring assignment seen at the end of any sweep
// (earliest wins on ties) and the error is a *NotConvergedError.
func (s *Solver) SolveFrom(snap *topology.Snapshot, initial Assignment) (Result, error) {
	g := NewGame(snap, s.payoffs)
	result := Result{Order: g.order}

	if snap.NodeCount() == 0 {
		result.Assignment = Assignment{}
		result.Converged = true
		return result, nil
	}

	a := s.seed(snap, initial)
	limit := s.MaxSweeps(snap.NodeCount())

	var best Assignment
	bestScore := -1
	for sweep := 1; sweep <= limit; sweep++ {
		if !g.Sweep(a) {
			result.Assignment = a
			result.Sweeps = sweep
			result.Converged = true
			result.Score = g.weights.Score(a)
			return result, nil
		}
		if score := g.weights.Score(a); score > bestScore {
			bestScore = score
			best = a.Clone()
		}
	}

	result.Assignment = best
	result.Sweeps = limit
	result.Score = bestScore
	return result, &NotConvergedError{Result: result}
}

func (s *Solver) seed(snap *topology.Snapshot, initial Assignment) Assignment {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := make(Assignment, snap.NodeCount())
	for _, id := range snap.Nodes() {
		if act, ok := initial[id]; ok {
			a[id] = act
			continue
		}
		a[id] = Action(s.rng.IntN(2))
	}
	return a
}
