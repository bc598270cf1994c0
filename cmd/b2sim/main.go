// Command b2sim runs a box2d scene, optionally serving metrics and
// snapshots over HTTP while it runs.
package main

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ByteArena/box2d/v3"
	"github.com/ByteArena/box2d/v3/debugdraw"
	"github.com/ByteArena/box2d/v3/internal/config"
	"github.com/ByteArena/box2d/v3/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed scenes/default.yaml
var defaultScene []byte

const (
	snapshotWidth  = 800
	snapshotHeight = 600
	pixelsPerMeter = 16.0
)

// simulation serializes stepping and HTTP reads of the world.
type simulation struct {
	mu        sync.Mutex
	cfg       config.SimConfig
	world     *box2d.B2World
	collector *metrics.Collector
	steps     int
}

func loadScene(path string) (*box2d.B2World, error) {
	if path == "" {
		return box2d.LoadWorld(bytes.NewReader(defaultScene))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return box2d.LoadWorld(f)
}

func newSimulation(cfg config.SimConfig, world *box2d.B2World) *simulation {
	world.SetIslandWorkers(cfg.Workers)
	return &simulation{
		cfg:       cfg,
		world:     world,
		collector: metrics.NewCollector("box2d"),
	}
}

func (s *simulation) step() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dt := s.cfg.TimeStep().Seconds()
	if err := s.world.Step(dt, s.cfg.VelocityIterations, s.cfg.PositionIterations); err != nil {
		return err
	}
	s.collector.Observe(s.world)
	s.steps++
	return nil
}

func (s *simulation) snapshot(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	canvas := debugdraw.NewCanvas(snapshotWidth, snapshotHeight, pixelsPerMeter)
	canvas.SetFlags(box2d.B2Draw_shapeBit | box2d.B2Draw_jointBit | box2d.B2Draw_centerOfMassBit)
	canvas.SetCenter(box2d.MakeB2Vec2(0, snapshotHeight/(3*pixelsPerMeter)))
	canvas.Render(s.world)
	return canvas.EncodePNG(w)
}

func (s *simulation) dump(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.world.Dump(w)
}

func (s *simulation) router(reg *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Get("/snapshot.png", func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := s.snapshot(&buf); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(buf.Bytes())
	})

	r.Get("/dump", func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := s.dump(&buf); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.Write(buf.Bytes())
	})

	return r
}

// run steps the world until the configured step count is reached or ctx
// is done. When paced, steps follow the wall clock.
func (s *simulation) run(ctx context.Context, paced bool) error {
	var tick <-chan time.Time
	if paced {
		ticker := time.NewTicker(s.cfg.TimeStep())
		defer ticker.Stop()
		tick = ticker.C
	}

	for s.cfg.Steps == 0 || s.steps < s.cfg.Steps {
		if tick != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-tick:
			}
		} else if ctx.Err() != nil {
			return nil
		}

		if err := s.step(); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	envFile := flag.String("env", ".env", "dotenv file with B2SIM_* settings")
	scene := flag.String("scene", "", "scene YAML file (default: built-in scene)")
	steps := flag.Int("steps", 0, "number of steps; 0 runs until interrupted when -listen is set")
	hz := flag.Int("hz", 0, "steps per second")
	workers := flag.Int("workers", 0, "islands solved concurrently")
	pngPath := flag.String("png", "", "write a snapshot PNG after the run")
	listen := flag.String("listen", "", "debug HTTP address, e.g. 127.0.0.1:6060")
	flag.Parse()

	cfg, err := config.FromDotEnv(*envFile)
	if err != nil {
		log.Printf("No %s file, using environment variables only", *envFile)
		cfg = config.FromEnv()
	}

	// Flags take precedence over the environment.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "scene":
			cfg.Scene = *scene
		case "steps":
			cfg.Steps = *steps
		case "hz":
			cfg.Hz = *hz
		case "workers":
			cfg.Workers = *workers
		case "png":
			cfg.PNG = *pngPath
		case "listen":
			cfg.Listen = *listen
		}
	})

	if cfg.Steps == 0 && cfg.Listen == "" {
		log.Fatal("b2sim: -steps 0 needs -listen, otherwise the run never ends")
	}

	world, err := loadScene(cfg.Scene)
	if err != nil {
		log.Fatalf("b2sim: load scene: %v", err)
	}

	sim := newSimulation(cfg, world)
	log.Printf("Loaded %d bodies, %d joints; %d Hz, %d/%d iterations, %d workers",
		world.GetBodyCount(), world.GetJointCount(), cfg.Hz,
		cfg.VelocityIterations, cfg.PositionIterations, cfg.Workers)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var srv *http.Server
	if cfg.Listen != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(sim.collector, collectors.NewGoCollector())

		srv = &http.Server{Addr: cfg.Listen, Handler: sim.router(reg)}
		go func() {
			log.Printf("Debug server on http://%s (/metrics, /snapshot.png, /dump)", cfg.Listen)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("Debug server error: %v", err)
				stop()
			}
		}()
	}

	start := time.Now()
	if err := sim.run(ctx, srv != nil); err != nil {
		log.Fatalf("b2sim: step %d: %v", sim.steps, err)
	}
	log.Printf("Ran %d steps in %v; %d contacts", sim.steps, time.Since(start).Round(time.Millisecond), world.GetContactCount())

	if cfg.PNG != "" {
		if err := writePNG(sim, cfg.PNG); err != nil {
			log.Fatalf("b2sim: %v", err)
		}
		log.Printf("Wrote %s", cfg.PNG)
	}

	if srv != nil {
		// Keep serving the final state until interrupted.
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}
}

func writePNG(sim *simulation, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := sim.snapshot(f); err != nil {
		f.Close()
		return fmt.Errorf("snapshot: %w", err)
	}
	return f.Close()
}
