package game

import "fmt"

// Matrix is a 2x2 payoff table indexed [own action][other action]
type Matrix [2][2]int

// Relation is the outcome of comparing a switch weight with a neighbor
// weight sum
type Relation int

// Relations returned by Compare
const (
	Same     Relation = 0
	Stronger Relation = 1
	Weaker   Relation = 2
)

func (r Relation) String() string {
	switch r {
	case Same:
		return "same"
	case Stronger:
		return "stronger"
	case Weaker:
		return "weaker"
	default:
		return fmt.Sprintf("Relation(%d)", int(r))
	}
}

// Compare classifies a against b
func Compare(a, b int) Relation {
	switch {
	case a == b:
		return Same
	case a > b:
		return Stronger
	default:
		return Weaker
	}
}

// Payoffs holds the three payoff matrices of the probing game.
// A Payoffs value is never modified after construction and can be shared
// between solvers without locking.
type Payoffs struct {
	sameSame   Matrix
	strongWeak Matrix
	weakStrong Matrix
}

// NewPayoffs builds payoffs from loosely shaped matrices, as decoded from
// configuration. Each one must be exactly 2x2.
func NewPayoffs(sameSame, strongWeak, weakStrong [][]int) (*Payoffs, error) {
	ss, err := toMatrix("same-same", sameSame)
	if err != nil {
		return nil, err
	}
	sw, err := toMatrix("strong-weak", strongWeak)
	if err != nil {
		return nil, err
	}
	ws, err := toMatrix("weak-strong", weakStrong)
	if err != nil {
		return nil, err
	}
	return NewPayoffsFromMatrices(ss, sw, ws), nil
}

// NewPayoffsFromMatrices builds payoffs from fixed size matrices
func NewPayoffsFromMatrices(sameSame, strongWeak, weakStrong Matrix) *Payoffs {
	return &Payoffs{sameSame: sameSame, strongWeak: strongWeak, weakStrong: weakStrong}
}

// PayoffsFromCoefficients builds payoffs from "a b c d" quadruples, laid
// out as [[d, c], [b, a]]: a is the payoff for helping against help and
// d for defending against defense.
func PayoffsFromCoefficients(sameSame, strongWeak, weakStrong [4]int) *Payoffs {
	return NewPayoffsFromMatrices(
		coefficientMatrix(sameSame),
		coefficientMatrix(strongWeak),
		coefficientMatrix(weakStrong),
	)
}

func coefficientMatrix(abcd [4]int) Matrix {
	a, b, c, d := abcd[0], abcd[1], abcd[2], abcd[3]
	return Matrix{{d, c}, {b, a}}
}

func toMatrix(name string, rows [][]int) (Matrix, error) {
	var m Matrix
	if len(rows) != 2 {
		return m, &ConfigurationError{Matrix: name, Reason: fmt.Sprintf("expected 2 rows, got %d", len(rows))}
	}
	for i, row := range rows {
		if len(row) != 2 {
			return m, &ConfigurationError{Matrix: name, Reason: fmt.Sprintf("row %d: expected 2 columns, got %d", i, len(row))}
		}
		m[i][0], m[i][1] = row[0], row[1]
	}
	return m, nil
}

// SameSame returns the matrix used when the weights are equal
func (p *Payoffs) SameSame() Matrix { return p.sameSame }

// StrongWeak returns the matrix used when the own weight is larger
func (p *Payoffs) StrongWeak() Matrix { return p.strongWeak }

// WeakStrong returns the matrix used when the own weight is smaller
func (p *Payoffs) WeakStrong() Matrix { return p.weakStrong }

// For returns the matrix selected by a relation
func (p *Payoffs) For(r Relation) Matrix {
	switch r {
	case Stronger:
		return p.strongWeak
	case Weaker:
		return p.weakStrong
	default:
		return p.sameSame
	}
}

// Cell reads [role][versus] from the matrix selected by comparing own with
// other
func (p *Payoffs) Cell(own, other int, role, versus Action) int {
	m := p.For(Compare(own, other))
	return m[role][versus]
}

func (p *Payoffs) String() string {
	return fmt.Sprintf("same-same=%v strong-weak=%v weak-strong=%v", p.sameSame, p.strongWeak, p.weakStrong)
}
