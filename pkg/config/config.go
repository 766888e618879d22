package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/xhedwig/ofdp-sdg/pkg/game"
	"github.com/xhedwig/ofdp-sdg/pkg/logging"
	"github.com/xhedwig/ofdp-sdg/pkg/scheduler"
	"github.com/xhedwig/ofdp-sdg/pkg/topology"
)

// DefaultFile is read from the working directory when no --config is given
const DefaultFile = "ofdp-sdg.toml"

// EnvPrefix prefixes every environment override, e.g. OFDP_SDG_PERIOD=2s.
// A double underscore descends into a section:
// OFDP_SDG_PAYOFFS__SAME_SAME='[[1,0],[0,1]]'.
const EnvPrefix = "OFDP_SDG_"

// Config holds all configuration for the controller
type Config struct {
	Period       time.Duration `koanf:"period" validate:"gt=0"`
	Guard        time.Duration `koanf:"guard" validate:"gte=0"`
	InitialDelay time.Duration `koanf:"initial-delay" validate:"gte=0"`
	MaxSweeps    int           `koanf:"max-sweeps" validate:"gte=0"`
	Seed         uint64        `koanf:"seed"` // 0 seeds from the runtime

	Topology       string `koanf:"topology"`
	TopologyFormat string `koanf:"topology-format" validate:"omitempty,oneof=yaml nodelink"`
	Generate       string `koanf:"generate" validate:"excluded_with=Topology"`
	Watch          bool   `koanf:"watch" validate:"excluded_without=Topology"`

	HTTPAddr string `koanf:"http-addr" validate:"omitempty,hostname_port"`

	Verbosity  string `koanf:"verbosity" validate:"omitempty,oneof=trace debug info warn error"`
	VerboseCnt int    `koanf:"verbose"`
	LogJSON    bool   `koanf:"log-json"`

	Payoffs PayoffConfig `koanf:"payoffs"`
}

var defaults = map[string]any{
	"period":          "1s",
	"guard":           "50ms",
	"initial-delay":   "10s",
	"max-sweeps":      0,
	"seed":            0,
	"topology":        "",
	"topology-format": "",
	"generate":        "",
	"watch":           false,
	"http-addr":       "",
	"verbosity":       "",
	"verbose":         0,
	"log-json":        false,
}

// RegisterFlags defines the flags Load understands on a flag set
func RegisterFlags(f *pflag.FlagSet) {
	f.String("config", DefaultFile, "Path to the TOML configuration file")
	f.Duration("period", time.Second, "Pause between probing rounds")
	f.Duration("guard", 50*time.Millisecond, "Delay between two probe emissions")
	f.Duration("initial-delay", 10*time.Second, "Wait before the first round")
	f.Int("max-sweeps", 0, "Best response sweep bound (0 = 10 per switch)")
	f.Uint64("seed", 0, "Seed for initial assignments (0 = random)")
	f.String("topology", "", "Topology file (YAML) or node/link list prefix")
	f.String("topology-format", "", "Topology format: yaml or nodelink (default: by extension)")
	f.String("generate", "", "Generate a topology instead, e.g. grid:4, fattree:4, linear:8")
	f.Bool("watch", false, "Reload the topology file when it changes")
	f.String("http-addr", "", "Serve the HTTP API on this address, e.g. :8080")
	f.String("verbosity", "", "Log level: trace, debug, info, warn, error")
	f.CountP("verbose", "v", "Increase verbosity (-v debug, -vv trace)")
	f.Bool("log-json", false, "Log JSON instead of compact text")
}

// Load loads configuration from defaults, config file, environment variables, and flags.
// Priority: Flags > Env > Config File > Defaults
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(makeMapProvider(defaults), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config File (optional)
	path := DefaultFile
	if f != nil {
		if v, err := f.GetString("config"); err == nil && v != "" {
			path = v
		}
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		logging.Debug("loaded config file", "path", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	// 3. Environment Variables
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags (only the ones set explicitly override)
	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps OFDP_SDG_INITIAL_DELAY to initial-delay and
// OFDP_SDG_PAYOFFS__SAME_SAME to payoffs.same-same
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	parts := strings.Split(s, "__")
	for i, p := range parts {
		parts[i] = strings.ReplaceAll(p, "_", "-")
	}
	return strings.Join(parts, ".")
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks value ranges and mutually exclusive options
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid configuration: %s fails %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// LogLevel resolves --verbosity, falling back to the -v count
func (c *Config) LogLevel() slog.Level {
	if c.Verbosity != "" {
		if level, err := logging.ParseLevel(c.Verbosity); err == nil {
			return level
		}
	}
	return logging.LevelForVerbosity(c.VerboseCnt)
}

// ApplyLogging configures the logging package from the config
func (c *Config) ApplyLogging() {
	if c.LogJSON {
		logging.SetJSONOutput(c.LogLevel())
		return
	}
	logging.SetLevel(c.LogLevel())
}

// SchedulerConfig returns the probing loop timing
func (c *Config) SchedulerConfig() scheduler.Config {
	return scheduler.Config{
		Period:       c.Period,
		Guard:        c.Guard,
		InitialDelay: c.InitialDelay,
	}
}

// SolverOptions returns the solver bound and seed
func (c *Config) SolverOptions() []game.Option {
	opts := []game.Option{game.WithMaxSweeps(c.MaxSweeps)}
	if c.Seed != 0 {
		opts = append(opts, game.WithSeed(c.Seed))
	}
	return opts
}

// LoadTopology builds the initial topology: from --generate, from the
// topology file, or empty
func (c *Config) LoadTopology() (*topology.Graph, error) {
	switch {
	case c.Generate != "":
		return topology.Generate(c.Generate)
	case c.Topology != "":
		return topology.Open(c.Topology, c.TopologyFormat)
	default:
		return topology.NewGraph(), nil
	}
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]any
}

func makeMapProvider(m map[string]any) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]any, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
