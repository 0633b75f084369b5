package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Sim.TickRate <= 0 {
		t.Errorf("expected positive tick rate, got %v", cfg.Sim.TickRate)
	}
	if cfg.Persist.Driver != "memory" {
		t.Errorf("expected default driver memory, got %q", cfg.Persist.Driver)
	}
	if cfg.Sim.StartTime == 0 {
		t.Error("expected StartTime to be stamped")
	}
}

func TestLoadOverridesSim(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
[sim]
rng_seed = 42
tick_rate = "10ms"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Sim.RNGSeed != 42 {
		t.Errorf("expected RNGSeed 42, got %d", cfg.Sim.RNGSeed)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/config.toml"); err == nil {
		t.Error("expected error for missing file")
	}
}
