package metrics

import (
	"strings"
	"testing"

	"github.com/ByteArena/box2d/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func twoBodyWorld(t *testing.T) *box2d.B2World {
	t.Helper()

	world := box2d.NewB2World(box2d.MakeB2Vec2(0, -10))

	gd := box2d.MakeB2BodyDef()
	ground, err := world.CreateBody(&gd)
	if err != nil {
		t.Fatal(err)
	}
	edge, _ := box2d.NewB2EdgeShape(box2d.MakeB2Vec2(-10, 0), box2d.MakeB2Vec2(10, 0))
	if _, err := ground.CreateFixtureFromShape(edge, 0); err != nil {
		t.Fatal(err)
	}

	bd := box2d.MakeB2BodyDef()
	bd.Type = box2d.B2_dynamicBody
	bd.Position = box2d.MakeB2Vec2(0, 0.5)
	body, err := world.CreateBody(&bd)
	if err != nil {
		t.Fatal(err)
	}
	box, _ := box2d.NewB2BoxShape(0.5, 0.5)
	if _, err := body.CreateFixtureFromShape(box, 1); err != nil {
		t.Fatal(err)
	}

	return world
}

func TestCollectorCounts(t *testing.T) {
	world := twoBodyWorld(t)
	if err := world.Step(1.0/60.0, 8, 3); err != nil {
		t.Fatal(err)
	}

	c := NewCollector("box2d")
	c.Observe(world)

	expected := `
# HELP box2d_bodies Number of bodies
# TYPE box2d_bodies gauge
box2d_bodies 2
# HELP box2d_joints Number of joints
# TYPE box2d_joints gauge
box2d_joints 0
# HELP box2d_proxies Number of broad-phase proxies
# TYPE box2d_proxies gauge
box2d_proxies 2
# HELP box2d_steps_total Number of observed world steps
# TYPE box2d_steps_total counter
box2d_steps_total 1
`
	err := testutil.CollectAndCompare(c, strings.NewReader(expected),
		"box2d_bodies", "box2d_joints", "box2d_proxies", "box2d_steps_total")
	if err != nil {
		t.Fatal(err)
	}
}

func TestCollectorRegisters(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	c := NewCollector("sim")
	if err := reg.Register(c); err != nil {
		t.Fatal(err)
	}

	c.Observe(twoBodyWorld(t))

	// One series per phase.
	if n := testutil.CollectAndCount(c, "sim_step_phase_seconds"); n != 7 {
		t.Fatalf("phase series = %d, want 7", n)
	}

	if problems, err := testutil.GatherAndLint(reg); err != nil {
		t.Fatal(err)
	} else if len(problems) > 0 {
		t.Fatalf("lint problems: %v", problems)
	}
}
