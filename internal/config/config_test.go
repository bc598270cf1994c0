package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("B2SIM_STEPS", "120")
	t.Setenv("B2SIM_HZ", "30")
	t.Setenv("B2SIM_WORKERS", "4")
	t.Setenv("B2SIM_VELOCITY_ITERATIONS", "not a number")
	t.Setenv("B2SIM_LISTEN", "127.0.0.1:6061")

	cfg := FromEnv()

	if cfg.Steps != 120 || cfg.Hz != 30 || cfg.Workers != 4 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.VelocityIterations != Default().VelocityIterations {
		t.Fatalf("invalid value replaced the default: %d", cfg.VelocityIterations)
	}
	if cfg.Listen != "127.0.0.1:6061" {
		t.Fatalf("listen = %q", cfg.Listen)
	}
	if cfg.TimeStep() != time.Second/30 {
		t.Fatalf("time step = %v", cfg.TimeStep())
	}
}

func TestFromDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "B2SIM_SCENE=scenes/pendulum.yaml\nB2SIM_STEPS=0\nB2SIM_PNG=out.png\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("B2SIM_PNG", "env.png")

	cfg, err := FromDotEnv(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Scene != "scenes/pendulum.yaml" {
		t.Fatalf("scene = %q", cfg.Scene)
	}
	if cfg.Steps != 0 {
		t.Fatalf("steps = %d, want 0", cfg.Steps)
	}
	if cfg.PNG != "env.png" {
		t.Fatalf("environment should win over the file, png = %q", cfg.PNG)
	}
}

func TestFromDotEnvMissingFile(t *testing.T) {
	if _, err := FromDotEnv(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
