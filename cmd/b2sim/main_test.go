package main

import (
	"context"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ByteArena/box2d/v3"
	"github.com/ByteArena/box2d/v3/internal/config"
	"github.com/prometheus/client_golang/prometheus"
)

func newTestSimulation(t *testing.T, steps int) *simulation {
	t.Helper()

	world, err := loadScene("")
	if err != nil {
		t.Fatalf("built-in scene: %v", err)
	}

	cfg := config.Default()
	cfg.Steps = steps
	cfg.Workers = 2
	return newSimulation(cfg, world)
}

func TestBuiltinScene(t *testing.T) {
	sim := newTestSimulation(t, 30)

	if n := sim.world.GetBodyCount(); n != 7 {
		t.Fatalf("bodies = %d, want 7", n)
	}
	if n := sim.world.GetJointCount(); n != 1 {
		t.Fatalf("joints = %d, want 1", n)
	}

	if err := sim.run(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	if sim.steps != 30 {
		t.Fatalf("steps = %d, want 30", sim.steps)
	}
}

func TestRouter(t *testing.T) {
	sim := newTestSimulation(t, 5)
	if err := sim.run(context.Background(), false); err != nil {
		t.Fatal(err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(sim.collector)

	ts := httptest.NewServer(sim.router(reg))
	defer ts.Close()

	get := func(path string) *http.Response {
		t.Helper()
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("GET %s: %s", path, resp.Status)
		}
		return resp
	}

	resp := get("/metrics")
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "box2d_steps_total 5") {
		t.Fatalf("metrics missing the step counter:\n%s", body)
	}

	resp = get("/snapshot.png")
	if _, err := png.Decode(resp.Body); err != nil {
		t.Fatalf("snapshot is not a png: %v", err)
	}
	resp.Body.Close()

	resp = get("/dump")
	world, err := box2d.LoadWorld(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("dump does not load: %v", err)
	}
	if world.GetBodyCount() != sim.world.GetBodyCount() {
		t.Fatalf("reloaded %d bodies, want %d", world.GetBodyCount(), sim.world.GetBodyCount())
	}
}
