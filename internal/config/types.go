package config

import "time"

// StateConfig selects the persistence backend for the model state.
type StateConfig struct {
	Backend string `yaml:"backend" json:"backend"`
	Path    string `yaml:"path" json:"path"`
	// Watch reloads the model when another process rewrites the state file.
	// It is forced off for backends other than file.
	Watch   bool   `yaml:"watch" json:"watch"`
}

// TrainingConfig configures the train endpoint.
type TrainingConfig struct {
	DefaultKernel  string        `yaml:"default_kernel" json:"default_kernel"`
	DefaultC       float64       `yaml:"default_c" json:"default_c"`
	SimulatedDelay time.Duration `yaml:"simulated_delay" json:"simulated_delay"`
	Seed           uint64        `yaml:"seed,omitempty" json:"seed,omitempty"`
}

// UploadConfig configures dataset uploads.
type UploadConfig struct {
	Dir      string `yaml:"dir" json:"dir"`
	MaxBytes int64  `yaml:"max_bytes" json:"max_bytes"`
}

// RateLimits configures API rate limiting. Zero disables it.
type RateLimits struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
	Burst             int     `yaml:"burst" json:"burst"`
}

// DashboardConfig configures the live dashboard.
type DashboardConfig struct {
	Enabled       bool          `yaml:"enabled" json:"enabled"`
	BufferSize    int           `yaml:"buffer_size" json:"buffer_size"`
	StatsInterval time.Duration `yaml:"stats_interval" json:"stats_interval"`
}

// Config is the top-level service configuration loaded from YAML.
type Config struct {
	Version     string          `yaml:"version" json:"version"`
	ServiceName string          `yaml:"service_name" json:"service_name"`
	Listen      string          `yaml:"listen" json:"listen"`
	LogLevel    string          `yaml:"log_level" json:"log_level"`
	AuditLog    string          `yaml:"audit_log" json:"audit_log"`
	State       StateConfig     `yaml:"state" json:"state"`
	Training    TrainingConfig  `yaml:"training" json:"training"`
	Uploads     UploadConfig    `yaml:"uploads" json:"uploads"`
	RateLimits  RateLimits      `yaml:"rate_limits" json:"rate_limits"`
	Dashboard   DashboardConfig `yaml:"dashboard" json:"dashboard"`
}
