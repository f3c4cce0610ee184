package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Mirandateresa/malicious-url-detector/internal/model"
)

// Defaults applied to fields left empty in the YAML.
const (
	DefaultListen         = ":8000"
	DefaultStateBackend   = "file"
	DefaultStatePath      = "models/svm_model.json"
	DefaultKernel         = "rbf"
	DefaultC              = 1.0
	DefaultSimulatedDelay = 1500 * time.Millisecond
	DefaultUploadDir      = "data"
	DefaultUploadMaxBytes = 10 << 20
	DefaultBufferSize     = 1000
	DefaultStatsInterval  = 5 * time.Second
)

// LoadFromFile loads a config from a YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML bytes into a Config.
func Parse(data []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}
	if err := validate(&c); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &c, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := &Config{
		Version:     "1",
		ServiceName: "url-detector",
		Training:    TrainingConfig{SimulatedDelay: DefaultSimulatedDelay},
		Dashboard:   DashboardConfig{Enabled: true},
	}
	// Defaults never fail validation.
	_ = validate(c)
	return c
}

// validate fills defaults and checks config integrity.
func validate(c *Config) error {
	if c.Version == "" {
		return fmt.Errorf("config version is required")
	}
	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required")
	}
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	switch c.State.Backend {
	case "":
		c.State.Backend = DefaultStateBackend
	case "file", "sqlite", "memory":
	default:
		return fmt.Errorf("state.backend %q: must be file, sqlite or memory", c.State.Backend)
	}
	if c.State.Path == "" && c.State.Backend != "memory" {
		c.State.Path = DefaultStatePath
	}
	if c.State.Backend != "file" {
		c.State.Watch = false
	}

	if c.Training.DefaultKernel == "" {
		c.Training.DefaultKernel = DefaultKernel
	}
	if !model.Kernel(c.Training.DefaultKernel).IsKnown() {
		return fmt.Errorf("training.default_kernel %q is not a known kernel", c.Training.DefaultKernel)
	}
	if c.Training.DefaultC == 0 {
		c.Training.DefaultC = DefaultC
	}
	if c.Training.SimulatedDelay < 0 {
		return fmt.Errorf("training.simulated_delay must not be negative")
	}

	if c.Uploads.Dir == "" {
		c.Uploads.Dir = DefaultUploadDir
	}
	if c.Uploads.MaxBytes == 0 {
		c.Uploads.MaxBytes = DefaultUploadMaxBytes
	}
	if c.Uploads.MaxBytes < 0 {
		return fmt.Errorf("uploads.max_bytes must not be negative")
	}

	if c.RateLimits.RequestsPerSecond < 0 {
		return fmt.Errorf("rate_limits.requests_per_second must not be negative")
	}
	if c.RateLimits.RequestsPerSecond > 0 && c.RateLimits.Burst <= 0 {
		c.RateLimits.Burst = int(c.RateLimits.RequestsPerSecond) + 1
	}

	if c.Dashboard.BufferSize <= 0 {
		c.Dashboard.BufferSize = DefaultBufferSize
	}
	if c.Dashboard.StatsInterval <= 0 {
		c.Dashboard.StatsInterval = DefaultStatsInterval
	}

	return nil
}

// ApplyEnv overrides config values from the environment. PORT is honoured
// for platforms that inject it.
func ApplyEnv(c *Config, getenv func(string) string) error {
	if port := getenv("PORT"); port != "" {
		c.Listen = ":" + port
	}
	if v := getenv("URLGUARD_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := getenv("URLGUARD_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := getenv("URLGUARD_STATE_BACKEND"); v != "" {
		c.State.Backend = v
	}
	if v := getenv("URLGUARD_STATE_PATH"); v != "" {
		c.State.Path = v
	}
	if v := getenv("URLGUARD_TRAINING_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("URLGUARD_TRAINING_DELAY: %w", err)
		}
		c.Training.SimulatedDelay = d
	}
	if v := getenv("URLGUARD_RATE_LIMIT_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("URLGUARD_RATE_LIMIT_RPS: %w", err)
		}
		c.RateLimits.RequestsPerSecond = rps
	}
	return validate(c)
}
