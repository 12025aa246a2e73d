// Package config loads and validates routectl's TOML configuration in
// three phases: unmarshal, fill defaults, then reject anything
// inconsistent before the orchestrator ever sees it.
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultBatchSize         = 5000
	DefaultBackend           = "astar"
	DefaultDefaultEdgeWeight = 1.0
	DefaultHostSwitchWeight  = 0.1
	DefaultPriority          = 10
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "json"
	DefaultControllerTimeout = 15 * time.Second
	DefaultAppID             = "org.routectl.core"
	DefaultGPUBatchSize      = 1000
	DefaultGPUMaxPathLength  = 64
)

// ControllerConfig names the ONOS controller and its credentials.
type ControllerConfig struct {
	BaseURL      string `toml:"base_url"`
	Username     string `toml:"username"`
	Password     string `toml:"password"`
	PasswordHash string `toml:"password_hash"`
	TimeoutStr   string `toml:"timeout"`
}

// SidecarConfig names the optional distance/bandwidth sidecar file.
type SidecarConfig struct {
	Path              string  `toml:"path"`
	DefaultEdgeWeight float64 `toml:"default_edge_weight"`
}

// RoutingConfig selects the backend and its shared/CPU-specific tunables.
type RoutingConfig struct {
	Backend          string    `toml:"backend"`
	HostSwitchWeight float64   `toml:"host_switch_weight"`
	MaxWorkers       int       `toml:"max_workers"`
	GPU              GPUConfig `toml:"gpu"`
}

// GPUConfig holds the four tuning knobs exposed for the GPU backend.
// The goroutine-pool backend ignores block_size, grid_multiplier and
// batch_size; max_path_length bounds reconstructed paths, and a pair
// whose path would exceed it gets no route.
type GPUConfig struct {
	BlockSize      int `toml:"block_size"`
	GridMultiplier int `toml:"grid_multiplier"`
	BatchSize      int `toml:"batch_size"`
	MaxPathLength  int `toml:"max_path_length"`
}

// InstallConfig holds the installer's tunables.
type InstallConfig struct {
	BatchSize int    `toml:"batch_size"`
	Priority  int    `toml:"priority"`
	AppID     string `toml:"app_id"`
}

// MetricsConfig configures the Prometheus exporter.
type MetricsConfig struct {
	Listen string `toml:"listen"`
	// AuthToken, if set, gates /metrics and /healthz behind a bearer
	// token.
	AuthToken string `toml:"auth_token"`
}

// LogConfig configures the slog logger.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config is the root configuration tree, unmarshalled directly from TOML.
type Config struct {
	Controller ControllerConfig `toml:"controller"`
	Sidecar    SidecarConfig    `toml:"sidecar"`
	Routing    RoutingConfig    `toml:"routing"`
	Install    InstallConfig    `toml:"install"`
	Metrics    MetricsConfig    `toml:"metrics"`
	Log        LogConfig        `toml:"log"`
}

// Load reads path, applies defaults, validates, and returns the ready
// Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Routing.Backend == "" {
		cfg.Routing.Backend = DefaultBackend
	}
	if cfg.Routing.HostSwitchWeight == 0 {
		cfg.Routing.HostSwitchWeight = DefaultHostSwitchWeight
	}
	if cfg.Sidecar.DefaultEdgeWeight == 0 {
		cfg.Sidecar.DefaultEdgeWeight = DefaultDefaultEdgeWeight
	}
	if cfg.Install.BatchSize == 0 {
		cfg.Install.BatchSize = DefaultBatchSize
	}
	if cfg.Install.Priority == 0 {
		cfg.Install.Priority = DefaultPriority
	}
	if cfg.Install.AppID == "" {
		cfg.Install.AppID = DefaultAppID
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
	if cfg.Controller.TimeoutStr == "" {
		cfg.Controller.TimeoutStr = DefaultControllerTimeout.String()
	}
	if cfg.Routing.GPU.BatchSize == 0 {
		cfg.Routing.GPU.BatchSize = DefaultGPUBatchSize
	}
	if cfg.Routing.GPU.MaxPathLength == 0 {
		cfg.Routing.GPU.MaxPathLength = DefaultGPUMaxPathLength
	}
}

func validate(cfg *Config) error {
	if cfg.Controller.BaseURL == "" {
		return fmt.Errorf("controller.base_url is required")
	}
	if _, err := url.Parse(cfg.Controller.BaseURL); err != nil {
		return fmt.Errorf("controller.base_url %q is invalid: %w", cfg.Controller.BaseURL, err)
	}
	if _, err := time.ParseDuration(cfg.Controller.TimeoutStr); err != nil {
		return fmt.Errorf("controller.timeout: %w", err)
	}

	switch cfg.Routing.Backend {
	case "astar", "dijkstra-cpu", "dijkstra-gpu":
	default:
		return fmt.Errorf("routing.backend must be one of astar|dijkstra-cpu|dijkstra-gpu, got %q", cfg.Routing.Backend)
	}
	if cfg.Routing.MaxWorkers < 0 {
		return fmt.Errorf("routing.max_workers must not be negative")
	}
	if cfg.Routing.HostSwitchWeight <= 0 {
		return fmt.Errorf("routing.host_switch_weight must be positive")
	}

	if cfg.Install.BatchSize <= 0 {
		return fmt.Errorf("install.batch_size must be positive")
	}
	if cfg.Install.Priority < 0 {
		return fmt.Errorf("install.priority must not be negative")
	}

	if cfg.Controller.Password != "" && cfg.Controller.PasswordHash != "" {
		return fmt.Errorf("controller: set either password or password_hash, not both")
	}

	switch cfg.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be one of json|text, got %q", cfg.Log.Format)
	}

	return nil
}

// ControllerTimeout parses Controller.TimeoutStr, which validate has
// already confirmed is well-formed.
func (cfg *Config) ControllerTimeout() time.Duration {
	d, _ := time.ParseDuration(cfg.Controller.TimeoutStr)
	return d
}
