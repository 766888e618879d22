package game

import (
	"errors"
	"testing"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b int
		want Relation
	}{
		{3, 3, Same},
		{5, 3, Stronger},
		{3, 5, Weaker},
		{0, 0, Same},
	}

	for _, tt := range tests {
		if got := Compare(tt.a, tt.b); got != tt.want {
			t.Errorf("Compare(%d, %d) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestNewPayoffs(t *testing.T) {
	ok := [][]int{{1, 2}, {3, 4}}

	tests := []struct {
		name       string
		ss, sw, ws [][]int
		wantErr    bool
		matrix     string
	}{
		{name: "valid", ss: ok, sw: ok, ws: ok},
		{name: "one row", ss: [][]int{{1, 2}}, sw: ok, ws: ok, wantErr: true, matrix: "same-same"},
		{name: "three columns", ss: ok, sw: [][]int{{1, 2, 3}, {4, 5, 6}}, ws: ok, wantErr: true, matrix: "strong-weak"},
		{name: "missing", ss: ok, sw: ok, ws: nil, wantErr: true, matrix: "weak-strong"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPayoffs(tt.ss, tt.sw, tt.ws)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("NewPayoffs() error = %v", err)
				}
				if p.SameSame() != (Matrix{{1, 2}, {3, 4}}) {
					t.Errorf("SameSame() = %v", p.SameSame())
				}
				return
			}

			if !errors.Is(err, ErrConfiguration) {
				t.Fatalf("Expected ErrConfiguration, got %v", err)
			}
			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) || cfgErr.Matrix != tt.matrix {
				t.Errorf("Expected error for matrix %s, got %v", tt.matrix, err)
			}
		})
	}
}

func TestPayoffsAreImmutable(t *testing.T) {
	rows := [][]int{{1, 2}, {3, 4}}
	p, err := NewPayoffs(rows, rows, rows)
	if err != nil {
		t.Fatal(err)
	}

	rows[0][0] = 99
	m := p.StrongWeak()
	m[1][1] = 99

	if p.StrongWeak()[0][0] != 1 || p.StrongWeak()[1][1] != 4 {
		t.Errorf("Payoffs changed through caller data: %v", p.StrongWeak())
	}
}

func TestPayoffsFromCoefficients(t *testing.T) {
	p := PayoffsFromCoefficients([4]int{1, 2, 3, 4}, [4]int{5, 6, 7, 8}, [4]int{9, 10, 11, 12})

	if got, want := p.SameSame(), (Matrix{{4, 3}, {2, 1}}); got != want {
		t.Errorf("SameSame() = %v, want %v", got, want)
	}
	if got, want := p.WeakStrong(), (Matrix{{12, 11}, {10, 9}}); got != want {
		t.Errorf("WeakStrong() = %v, want %v", got, want)
	}
}

func TestCell(t *testing.T) {
	p := NewPayoffsFromMatrices(
		Matrix{{1, 2}, {3, 4}},
		Matrix{{10, 20}, {30, 40}},
		Matrix{{100, 200}, {300, 400}},
	)

	tests := []struct {
		own, other   int
		role, versus Action
		want         int
	}{
		{3, 3, Defense, Help, 2},
		{5, 3, Help, Defense, 30},
		{3, 5, Help, Help, 400},
		{3, 0, Defense, Defense, 10},
	}

	for _, tt := range tests {
		if got := p.Cell(tt.own, tt.other, tt.role, tt.versus); got != tt.want {
			t.Errorf("Cell(%d, %d, %v, %v) = %d, want %d", tt.own, tt.other, tt.role, tt.versus, got, tt.want)
		}
	}
}
