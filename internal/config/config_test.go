package config

import (
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if cfg.Port != "8080" {
		t.Fatalf("unexpected port: %s", cfg.Port)
	}
	if cfg.ModelAPIURL != "http://localhost:8001" {
		t.Fatalf("unexpected model url: %s", cfg.ModelAPIURL)
	}
	if cfg.ModelTimeout != 30*time.Second {
		t.Fatalf("unexpected model timeout: %v", cfg.ModelTimeout)
	}
	if cfg.HealthCheckInterval != 30*time.Second {
		t.Fatalf("unexpected health interval: %v", cfg.HealthCheckInterval)
	}
	if cfg.MaxFileSizeBytes() != 10*1024*1024 {
		t.Fatalf("unexpected max file size: %d", cfg.MaxFileSizeBytes())
	}
	if cfg.SimulationMinDelay != 2*time.Second || cfg.SimulationMaxDelay != 3*time.Second {
		t.Fatalf("unexpected simulation delays: %v-%v", cfg.SimulationMinDelay, cfg.SimulationMaxDelay)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("MODEL_API_URL", "http://inference:9000")
	t.Setenv("MODEL_TIMEOUT_MS", "1500")
	t.Setenv("MAX_FILE_SIZE_MB", "4")

	cfg, err := LoadConfig(zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ModelAPIURL != "http://inference:9000" {
		t.Fatalf("unexpected model url: %s", cfg.ModelAPIURL)
	}
	if cfg.ModelTimeout != 1500*time.Millisecond {
		t.Fatalf("unexpected model timeout: %v", cfg.ModelTimeout)
	}
	if cfg.MaxFileSizeBytes() != 4*1024*1024 {
		t.Fatalf("unexpected max file size: %d", cfg.MaxFileSizeBytes())
	}
}

func TestLoadConfigErrors(t *testing.T) {
	cases := map[string][2]string{
		"bad timeout":     {"MODEL_TIMEOUT_MS", "soon"},
		"bad url":         {"MODEL_API_URL", "not a url"},
		"bad log level":   {"LOG_LEVEL", "verbose"},
		"zero file size":  {"MAX_FILE_SIZE_MB", "0"},
		"bad burst value": {"RATE_LIMIT_BURST", "many"},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(env[0], env[1])
			if _, err := LoadConfig(zaptest.NewLogger(t)); err == nil {
				t.Fatalf("expected error for %s=%s", env[0], env[1])
			}
		})
	}
}

func TestLoadConfigRejectsInvertedSimulationDelays(t *testing.T) {
	t.Setenv("SIMULATION_MIN_DELAY_MS", "3000")
	t.Setenv("SIMULATION_MAX_DELAY_MS", "1000")

	_, err := LoadConfig(zaptest.NewLogger(t))
	if err == nil || !strings.Contains(err.Error(), "SimulationMaxDelay") {
		t.Fatalf("expected SimulationMaxDelay validation error, got %v", err)
	}
}
