// Package fconfig is Flint's process-wide configuration: worker count,
// default backend, logging verbosity, and eager-execution mode, loaded
// through viper so a flint.ini/FLINT_* environment layer can override the
// compiled-in defaults without every caller threading a struct through.
package fconfig

import (
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

// Backend selects which executor Execute prefers for a node above the
// GPU hand-off score threshold.
type Backend string

const (
	BackendCPU Backend = "cpu"
	BackendGPU Backend = "gpu"
)

// Config is Flint's runtime-tunable settings, mirroring the teacher's
// EngineOptions but generalized past a single Engine's worker count to
// the handful of process-wide knobs spec.md's frontend exposes.
type Config struct {
	Workers   int
	LogLevel  string
	Eager     bool
	Backend   Backend
	ArenaSize int

	// SessionID tags every log line emitted by this process, so log
	// aggregation can separate interleaved runs of the same binary.
	// Generated fresh by Load; callers building a Config by hand (tests,
	// Set) may leave it empty.
	SessionID string
}

var (
	mu      sync.RWMutex
	current *Config
	v       = viper.New()
)

func init() {
	v.SetEnvPrefix("FLINT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetDefault("workers", 0) // 0 means runtime.NumCPU() at call time
	v.SetDefault("log_level", "info")
	v.SetDefault("eager", false)
	v.SetDefault("backend", string(BackendCPU))
	v.SetDefault("arena_size", 0)
}

// Load reads configPath (if non-empty) plus the FLINT_* environment and
// returns the resolved Config, also installing it as the process-wide
// Current(). configPath may be empty to use defaults and environment only.
func Load(configPath string) (*Config, error) {
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}
	cfg := &Config{
		Workers:   v.GetInt("workers"),
		LogLevel:  v.GetString("log_level"),
		Eager:     v.GetBool("eager"),
		Backend:   Backend(v.GetString("backend")),
		ArenaSize: v.GetInt("arena_size"),
		SessionID: uuid.NewString(),
	}
	mu.Lock()
	current = cfg
	mu.Unlock()
	return cfg, nil
}

// Current returns the process-wide Config, loading defaults on first use
// if Load was never called.
func Current() *Config {
	mu.RLock()
	cfg := current
	mu.RUnlock()
	if cfg != nil {
		return cfg
	}
	cfg, _ = Load("")
	return cfg
}

// Set installs cfg as the process-wide Config directly, bypassing viper;
// mainly for tests and embedders that build a Config programmatically.
func Set(cfg *Config) {
	mu.Lock()
	current = cfg
	mu.Unlock()
}
