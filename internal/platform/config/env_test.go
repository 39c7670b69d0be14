package config

import (
	"strings"
	"testing"
)

type envTestConfig struct {
	Interval int `env:"PORTAL_TEST_INTERVAL" envDefault:"45"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Interval != 45 {
		t.Fatalf("expected default interval 45, got %d", cfg.Interval)
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("PORTAL_TEST_INTERVAL", "not-an-int")

	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	t.Chdir(t.TempDir())

	if err := LoadDotEnv(); err != nil {
		t.Fatalf("expected missing .env to be ignored, got %v", err)
	}
}
