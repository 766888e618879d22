package config

import (
	"encoding/json"
	"fmt"

	"github.com/xhedwig/ofdp-sdg/pkg/game"
)

// PayoffConfig holds the raw payoff matrices as decoded from TOML or the
// environment. Either the three 2x2 matrices or the coefficients section
// must be given, not both:
//
//	[payoffs]
//	same-same   = [[0, 0], [0, 0]]
//	strong-weak = [[0, 0], [1, 1]]
//	weak-strong = [[0, 3], [1, 0]]
//
//	[payoffs.coefficients]   # "a b c d" per matrix, laid out [[d, c], [b, a]]
//	same-same   = [0, 0, 0, 0]
//	strong-weak = [1, 1, 0, 0]
//	weak-strong = [0, 1, 3, 0]
//
// Values are kept untyped so that floats and strings can be rejected
// instead of being silently truncated.
type PayoffConfig struct {
	SameSame     any                `koanf:"same-same"`
	StrongWeak   any                `koanf:"strong-weak"`
	WeakStrong   any                `koanf:"weak-strong"`
	Coefficients *CoefficientConfig `koanf:"coefficients"`
}

// CoefficientConfig is the "a b c d" form of the payoffs
type CoefficientConfig struct {
	SameSame   any `koanf:"same-same"`
	StrongWeak any `koanf:"strong-weak"`
	WeakStrong any `koanf:"weak-strong"`
}

// BuildPayoffs validates the configured matrices. Every failure is a
// *game.ConfigurationError.
func (c *Config) BuildPayoffs() (*game.Payoffs, error) {
	p := c.Payoffs
	hasMatrices := p.SameSame != nil || p.StrongWeak != nil || p.WeakStrong != nil

	switch {
	case p.Coefficients != nil && hasMatrices:
		return nil, &game.ConfigurationError{Reason: "give either payoff matrices or coefficients, not both"}
	case p.Coefficients != nil:
		return p.Coefficients.build()
	case !hasMatrices:
		return nil, &game.ConfigurationError{Reason: "no payoffs configured"}
	}

	ss, err := matrixRows("same-same", p.SameSame)
	if err != nil {
		return nil, err
	}
	sw, err := matrixRows("strong-weak", p.StrongWeak)
	if err != nil {
		return nil, err
	}
	ws, err := matrixRows("weak-strong", p.WeakStrong)
	if err != nil {
		return nil, err
	}
	return game.NewPayoffs(ss, sw, ws)
}

func (c *CoefficientConfig) build() (*game.Payoffs, error) {
	var quads [3][4]int
	for i, raw := range []struct {
		name  string
		value any
	}{
		{"same-same", c.SameSame},
		{"strong-weak", c.StrongWeak},
		{"weak-strong", c.WeakStrong},
	} {
		values, err := intList(raw.name, raw.value)
		if err != nil {
			return nil, err
		}
		if len(values) != 4 {
			return nil, &game.ConfigurationError{Matrix: raw.name, Reason: fmt.Sprintf("expected 4 coefficients a b c d, got %d", len(values))}
		}
		copy(quads[i][:], values)
	}
	return game.PayoffsFromCoefficients(quads[0], quads[1], quads[2]), nil
}

// matrixRows accepts a decoded TOML array of arrays or a JSON string
func matrixRows(name string, raw any) ([][]int, error) {
	if raw == nil {
		return nil, &game.ConfigurationError{Matrix: name, Reason: "missing"}
	}
	if s, ok := raw.(string); ok {
		var rows [][]int
		if err := json.Unmarshal([]byte(s), &rows); err != nil {
			return nil, &game.ConfigurationError{Matrix: name, Reason: fmt.Sprintf("not a matrix of integers: %v", err)}
		}
		return rows, nil
	}

	list, ok := raw.([]any)
	if !ok {
		return nil, &game.ConfigurationError{Matrix: name, Reason: fmt.Sprintf("expected a list of rows, got %T", raw)}
	}
	rows := make([][]int, 0, len(list))
	for i, r := range list {
		row, err := intList(fmt.Sprintf("%s row %d", name, i), r)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func intList(name string, raw any) ([]int, error) {
	if s, ok := raw.(string); ok {
		var values []int
		if err := json.Unmarshal([]byte(s), &values); err != nil {
			return nil, &game.ConfigurationError{Matrix: name, Reason: fmt.Sprintf("not a list of integers: %v", err)}
		}
		return values, nil
	}

	list, ok := raw.([]any)
	if !ok {
		return nil, &game.ConfigurationError{Matrix: name, Reason: fmt.Sprintf("expected a list, got %T", raw)}
	}
	values := make([]int, 0, len(list))
	for _, v := range list {
		n, ok := asInt(v)
		if !ok {
			return nil, &game.ConfigurationError{Matrix: name, Reason: fmt.Sprintf("%v is not an integer", v)}
		}
		values = append(values, n)
	}
	return values, nil
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case int32:
		return int(n), true
	case uint64:
		return int(n), true
	default:
		return 0, false
	}
}
