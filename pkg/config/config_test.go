package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xhedwig/ofdp-sdg/pkg/game"
	"github.com/xhedwig/ofdp-sdg/pkg/logging"
)

const hubConfig = `
period = "2s"
max-sweeps = 25

[payoffs]
same-same   = [[0, 0], [0, 0]]
strong-weak = [[0, 0], [1, 1]]
weak-strong = [[0, 3], [1, 0]]
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ofdp-sdg.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	f := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(f)
	require.NoError(t, f.Parse(args))
	return f
}

func TestLoadDefaults(t *testing.T) {
	f := newFlags(t, "--config", filepath.Join(t.TempDir(), "missing.toml"))

	cfg, err := Load(f)
	require.NoError(t, err)

	assert.Equal(t, time.Second, cfg.Period)
	assert.Equal(t, 50*time.Millisecond, cfg.Guard)
	assert.Equal(t, 10*time.Second, cfg.InitialDelay)
	assert.Zero(t, cfg.MaxSweeps)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel())
}

func TestLoadPriority(t *testing.T) {
	path := writeConfig(t, hubConfig)
	t.Setenv("OFDP_SDG_GUARD", "10ms")
	t.Setenv("OFDP_SDG_MAX_SWEEPS", "7")

	f := newFlags(t, "--config", path, "--max-sweeps", "3", "-vv")
	cfg, err := Load(f)
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.Period, "file overrides default")
	assert.Equal(t, 10*time.Millisecond, cfg.Guard, "env overrides default")
	assert.Equal(t, 3, cfg.MaxSweeps, "flag overrides env and file")
	assert.Equal(t, logging.LevelTrace, cfg.LogLevel())
}

func TestBuildPayoffsFromMatrices(t *testing.T) {
	f := newFlags(t, "--config", writeConfig(t, hubConfig))
	cfg, err := Load(f)
	require.NoError(t, err)

	p, err := cfg.BuildPayoffs()
	require.NoError(t, err)
	assert.Equal(t, game.Matrix{{0, 3}, {1, 0}}, p.WeakStrong())
}

func TestBuildPayoffsFromCoefficients(t *testing.T) {
	f := newFlags(t, "--config", writeConfig(t, `
[payoffs.coefficients]
same-same   = [0, 0, 0, 0]
strong-weak = [1, 1, 0, 0]
weak-strong = [0, 1, 3, 0]
`))
	cfg, err := Load(f)
	require.NoError(t, err)

	p, err := cfg.BuildPayoffs()
	require.NoError(t, err)
	assert.Equal(t, game.Matrix{{0, 0}, {1, 1}}, p.StrongWeak())
	assert.Equal(t, game.Matrix{{0, 3}, {1, 0}}, p.WeakStrong())
}

func TestBuildPayoffsFromEnv(t *testing.T) {
	t.Setenv("OFDP_SDG_PAYOFFS__SAME_SAME", "[[1,1],[1,1]]")
	t.Setenv("OFDP_SDG_PAYOFFS__STRONG_WEAK", "[[1,1],[1,1]]")
	t.Setenv("OFDP_SDG_PAYOFFS__WEAK_STRONG", "[[1,1],[2,1]]")

	cfg, err := Load(newFlags(t, "--config", filepath.Join(t.TempDir(), "none.toml")))
	require.NoError(t, err)

	p, err := cfg.BuildPayoffs()
	require.NoError(t, err)
	assert.Equal(t, game.Matrix{{1, 1}, {2, 1}}, p.WeakStrong())
}

func TestBuildPayoffsErrors(t *testing.T) {
	tests := []struct {
		name   string
		config string
	}{
		{name: "missing", config: `period = "1s"`},
		{name: "float entry", config: `
[payoffs]
same-same   = [[0, 0.5], [0, 0]]
strong-weak = [[0, 0], [1, 1]]
weak-strong = [[0, 3], [1, 0]]
`},
		{name: "three rows", config: `
[payoffs]
same-same   = [[0, 0], [0, 0], [0, 0]]
strong-weak = [[0, 0], [1, 1]]
weak-strong = [[0, 3], [1, 0]]
`},
		{name: "one matrix missing", config: `
[payoffs]
same-same   = [[0, 0], [0, 0]]
strong-weak = [[0, 0], [1, 1]]
`},
		{name: "short coefficients", config: `
[payoffs.coefficients]
same-same   = [0, 0, 0]
strong-weak = [1, 1, 0, 0]
weak-strong = [0, 1, 3, 0]
`},
		{name: "both forms", config: hubConfig + `
[payoffs.coefficients]
same-same   = [0, 0, 0, 0]
strong-weak = [1, 1, 0, 0]
weak-strong = [0, 1, 3, 0]
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(newFlags(t, "--config", writeConfig(t, tt.config)))
			require.NoError(t, err)

			_, err = cfg.BuildPayoffs()
			assert.True(t, errors.Is(err, game.ErrConfiguration), "got %v", err)
		})
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "zero period", args: []string{"--period", "0s"}},
		{name: "bad format", args: []string{"--topology", "t.yaml", "--topology-format", "csv"}},
		{name: "generate and file", args: []string{"--topology", "t.yaml", "--generate", "grid:3"}},
		{name: "watch without file", args: []string{"--watch"}},
		{name: "bad level", args: []string{"--verbosity", "loud"}},
		{name: "bad address", args: []string{"--http-addr", "nowhere"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--config", filepath.Join(t.TempDir(), "none.toml")}, tt.args...)
			_, err := Load(newFlags(t, args...))
			assert.Error(t, err)
		})
	}
}

func TestLoadTopology(t *testing.T) {
	cfg := &Config{Generate: "grid:3"}
	g, err := cfg.LoadTopology()
	require.NoError(t, err)
	assert.Equal(t, 9, g.NodeCount())

	cfg = &Config{}
	g, err = cfg.LoadTopology()
	require.NoError(t, err)
	assert.Zero(t, g.NodeCount())
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "initial-delay", envKey("OFDP_SDG_INITIAL_DELAY"))
	assert.Equal(t, "payoffs.coefficients.same-same", envKey("OFDP_SDG_PAYOFFS__COEFFICIENTS__SAME_SAME"))
}
