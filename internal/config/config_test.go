package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadFromFile_Default(t *testing.T) {
	c, err := LoadFromFile("../../configs/default.yaml")
	if err != nil {
		t.Fatalf("failed to load default config: %v", err)
	}
	if c.ServiceName != "url-detector" {
		t.Errorf("expected service_name url-detector, got %s", c.ServiceName)
	}
	if c.Listen != ":8000" {
		t.Errorf("expected listen :8000, got %s", c.Listen)
	}
	if c.State.Backend != "file" || c.State.Path != "models/svm_model.json" {
		t.Errorf("unexpected state config: %+v", c.State)
	}
	if c.Training.SimulatedDelay != 1500*time.Millisecond {
		t.Errorf("expected 1.5s delay, got %s", c.Training.SimulatedDelay)
	}
	if c.RateLimits.RequestsPerSecond != 20 || c.RateLimits.Burst != 40 {
		t.Errorf("unexpected rate limits: %+v", c.RateLimits)
	}
	if !c.Dashboard.Enabled {
		t.Error("expected dashboard enabled")
	}
	if !c.State.Watch {
		t.Error("expected state watch enabled")
	}
}

func TestParse_FillsDefaults(t *testing.T) {
	c, err := Parse([]byte("version: \"1\"\nservice_name: test\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Listen != DefaultListen {
		t.Errorf("expected default listen, got %s", c.Listen)
	}
	if c.State.Backend != DefaultStateBackend || c.State.Path != DefaultStatePath {
		t.Errorf("expected default state, got %+v", c.State)
	}
	if c.Training.DefaultKernel != "rbf" || c.Training.DefaultC != 1.0 {
		t.Errorf("unexpected training defaults: %+v", c.Training)
	}
	if c.Uploads.Dir != DefaultUploadDir || c.Uploads.MaxBytes != DefaultUploadMaxBytes {
		t.Errorf("unexpected upload defaults: %+v", c.Uploads)
	}
	if c.Dashboard.BufferSize != DefaultBufferSize {
		t.Errorf("expected default buffer size, got %d", c.Dashboard.BufferSize)
	}
}

func TestParse_MemoryBackendNeedsNoPath(t *testing.T) {
	c, err := Parse([]byte("version: \"1\"\nservice_name: t\nstate:\n  backend: memory\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.State.Path != "" {
		t.Errorf("expected empty path for memory backend, got %q", c.State.Path)
	}
}

func TestParse_BurstDerivedFromRate(t *testing.T) {
	c, err := Parse([]byte("version: \"1\"\nservice_name: t\nrate_limits:\n  requests_per_second: 4.5\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.RateLimits.Burst != 5 {
		t.Errorf("expected burst 5, got %d", c.RateLimits.Burst)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"missing version", "service_name: t\n", "version"},
		{"missing name", "version: \"1\"\n", "service_name"},
		{"bad backend", "version: \"1\"\nservice_name: t\nstate:\n  backend: redis\n", "state.backend"},
		{"bad kernel", "version: \"1\"\nservice_name: t\ntraining:\n  default_kernel: laplace\n", "default_kernel"},
		{"negative delay", "version: \"1\"\nservice_name: t\ntraining:\n  simulated_delay: -1s\n", "simulated_delay"},
		{"negative rate", "version: \"1\"\nservice_name: t\nrate_limits:\n  requests_per_second: -1\n", "requests_per_second"},
		{"not yaml", "version: [", "parsing"},
	}

	for _, tc := range tests {
		_, err := Parse([]byte(tc.yaml))
		if err == nil {
			t.Errorf("%s: expected error", tc.name)
			continue
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Errorf("%s: expected error mentioning %q, got %v", tc.name, tc.want, err)
		}
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"PORT":                    "9090",
		"URLGUARD_STATE_BACKEND":  "sqlite",
		"URLGUARD_STATE_PATH":     "/tmp/state.db",
		"URLGUARD_TRAINING_DELAY": "0s",
		"URLGUARD_RATE_LIMIT_RPS": "2",
	}
	c := Default()
	c.State.Watch = true
	if err := ApplyEnv(c, func(k string) string { return env[k] }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Listen != ":9090" {
		t.Errorf("expected :9090, got %s", c.Listen)
	}
	if c.State.Backend != "sqlite" || c.State.Path != "/tmp/state.db" || c.State.Watch {
		t.Errorf("unexpected state: %+v", c.State)
	}
	if c.Training.SimulatedDelay != 0 {
		t.Errorf("expected zero delay, got %s", c.Training.SimulatedDelay)
	}
	if c.RateLimits.RequestsPerSecond != 2 {
		t.Errorf("expected 2 rps, got %v", c.RateLimits.RequestsPerSecond)
	}
}

func TestApplyEnv_BadDuration(t *testing.T) {
	c := Default()
	err := ApplyEnv(c, func(k string) string {
		if k == "URLGUARD_TRAINING_DELAY" {
			return "soon"
		}
		return ""
	})
	if err == nil {
		t.Error("expected error for bad duration")
	}
}
