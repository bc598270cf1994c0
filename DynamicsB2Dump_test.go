package box2d_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/ByteArena/box2d/v3"
	"github.com/pmezard/go-difflib/difflib"
)

func dump(t *testing.T, world *box2d.B2World) string {
	t.Helper()
	var buf bytes.Buffer
	if err := world.Dump(&buf); err != nil {
		t.Fatal(err)
	}
	return buf.String()
}

func load(t *testing.T, doc string) *box2d.B2World {
	t.Helper()
	world, err := box2d.LoadWorld(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	return world
}

func assertSameDump(t *testing.T, want, got string) {
	t.Helper()
	if want == got {
		return
	}
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: "original",
		ToFile:   "replayed",
		Context:  3,
	})
	t.Fatalf("dumps differ:\n%s", diff)
}

func TestDumpRoundTrip(t *testing.T) {
	world := buildJointZoo(t)

	sensor := mustBody(t, world, dynamicAt(32, 5))
	fd := box2d.MakeB2FixtureDef()
	fd.Shape = mustCircle(t, box2d.MakeB2Vec2(0.25, 0), 0.5)
	fd.IsSensor = true
	fd.Filter.CategoryBits = 0x0002
	fd.Filter.GroupIndex = -3
	if _, err := sensor.CreateFixture(&fd); err != nil {
		t.Fatal(err)
	}

	ledge := mustBody(t, world, staticAt(36, 2))
	oneSided, err := box2d.NewB2OneSidedEdgeShape(
		box2d.MakeB2Vec2(-2, 0), box2d.MakeB2Vec2(-1, 0), box2d.MakeB2Vec2(1, 0), box2d.MakeB2Vec2(2, 0))
	if err != nil {
		t.Fatal(err)
	}
	mustFixture(t, ledge, oneSided, 0)

	tri, err := box2d.NewB2PolygonShape([]box2d.B2Vec2{
		box2d.MakeB2Vec2(0, 0), box2d.MakeB2Vec2(1, 0), box2d.MakeB2Vec2(0.3, 0.8),
	})
	if err != nil {
		t.Fatal(err)
	}
	spinner := mustBody(t, world, dynamicAt(40, 5))
	mustFixture(t, spinner, tri, 2)

	original := dump(t, world)
	replayed := load(t, original)
	assertSameDump(t, original, dump(t, replayed))

	if replayed.GetBodyCount() != world.GetBodyCount() || replayed.GetJointCount() != world.GetJointCount() {
		t.Fatalf("replayed world has %d bodies %d joints, want %d %d",
			replayed.GetBodyCount(), replayed.GetJointCount(), world.GetBodyCount(), world.GetJointCount())
	}

	// A replayed world evolves exactly like its source.
	step(t, world, 60)
	step(t, replayed, 60)
	assertSameDump(t, dump(t, world), dump(t, replayed))
}

const handWrittenScene = `
gravity: [0, -10]
bodies:
  - type: static
    fixtures:
      - shape: {type: edge, vertices: [[-10, 0], [10, 0]]}
  - type: dynamic
    position: [0, 2]
    fixtures:
      - density: 1
        shape: {type: polygon, halfExtents: [0.5, 0.25]}
  - type: dynamic
    position: [3, 2]
    fixtures:
      - shape: {type: circle, radius: 0.5}
joints:
  - type: distance
    bodyA: 1
    bodyB: 2
`

func TestLoadWorldFillsDefaults(t *testing.T) {
	world := load(t, handWrittenScene)

	bodies := world.GetBodies()
	if len(bodies) != 3 {
		t.Fatalf("%d bodies, want 3", len(bodies))
	}
	box := bodies[1]
	if box.GetType() != box2d.B2_dynamicBody || !box.IsSleepingAllowed() || !box.IsEnabled() || box.GetGravityScale() != 1 {
		t.Fatalf("box did not take the default body definition: %s", box)
	}

	f := box.GetFixtures()[0]
	if f.GetFriction() != 0.2 || f.GetFilterData() != box2d.MakeB2Filter() {
		t.Fatalf("fixture did not take the default definition: friction %v filter %+v", f.GetFriction(), f.GetFilterData())
	}
	poly, ok := f.GetShape().(*box2d.B2PolygonShape)
	if !ok || poly.GetVertexCount() != 4 {
		t.Fatalf("halfExtents built %T", f.GetShape())
	}
	if aabb := f.GetAABB(0); !near(aabb.UpperBound.X-aabb.LowerBound.X, 1+2*box2d.B2_polygonRadius, 1e-9) {
		t.Fatalf("box AABB %+v", aabb)
	}

	joints := world.GetJoints()
	if len(joints) != 1 || joints[0].GetType() != box2d.B2_distanceJoint {
		t.Fatalf("joints = %v", joints)
	}
	if l := joints[0].(*box2d.B2DistanceJoint).GetLength(); l != 1 {
		t.Fatalf("distance joint length %v, want the default 1", l)
	}

	step(t, world, 60)
}

func TestLoadWorldErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
		msg  string
	}{
		{
			name: "body index out of range",
			doc: `
bodies:
  - type: dynamic
joints:
  - {type: weld, bodyA: 0, bodyB: 3}
`,
			want: box2d.ErrInvalidBody,
		},
		{
			name: "gear before its joints",
			doc: `
bodies:
  - type: static
  - type: dynamic
  - type: dynamic
joints:
  - {type: gear, bodyA: 1, bodyB: 2, joint1: 1, joint2: 2}
  - {type: revolute, bodyA: 0, bodyB: 1}
  - {type: revolute, bodyA: 0, bodyB: 2}
`,
			want: box2d.ErrInvalidJointDef,
		},
		{
			name: "same body",
			doc: `
bodies:
  - type: dynamic
joints:
  - {type: rope, bodyA: 0, bodyB: 0}
`,
			want: box2d.ErrInvalidJointDef,
		},
		{
			name: "collinear polygon",
			doc: `
bodies:
  - fixtures:
      - shape: {type: polygon, vertices: [[0, 0], [1, 0], [2, 0]]}
`,
			want: box2d.ErrDegeneratePolygon,
		},
		{
			name: "three vertex edge",
			doc: `
bodies:
  - fixtures:
      - shape: {type: edge, vertices: [[0, 0], [1, 0], [2, 0]]}
`,
			want: box2d.ErrDegenerateEdge,
		},
		{
			name: "negative radius",
			doc: `
bodies:
  - fixtures:
      - shape: {type: circle, radius: -1}
`,
			want: box2d.ErrInvalidRadius,
		},
		{
			name: "unknown joint type",
			doc: `
bodies:
  - type: dynamic
  - type: dynamic
joints:
  - {type: spring, bodyA: 0, bodyB: 1}
`,
			msg: `unknown joint type "spring"`,
		},
		{
			name: "unknown body type",
			doc: `
bodies:
  - type: floating
`,
			msg: `unknown body type "floating"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			world, err := box2d.LoadWorld(strings.NewReader(tt.doc))
			if err == nil {
				t.Fatal("scene loaded")
			}
			if world != nil {
				t.Fatal("failed load returned a world")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if tt.msg != "" && !strings.Contains(err.Error(), tt.msg) {
				t.Fatalf("err = %v, want it to mention %s", err, tt.msg)
			}
		})
	}
}

func TestLoadEmptyDocument(t *testing.T) {
	world := load(t, "")
	if world.GetBodyCount() != 0 || !world.GetAllowSleeping() || !world.GetWarmStarting() {
		t.Fatal("empty document did not give a default world")
	}
	if g := world.GetGravity(); g != (box2d.B2Vec2{}) {
		t.Fatalf("gravity = %v", g)
	}
}

func TestDumpKeepsMassOverride(t *testing.T) {
	world := box2d.NewB2World(box2d.MakeB2Vec2(0, -10))
	newGround(t, world)

	bd := dynamicAt(0, 3)
	bd.AngularVelocity = 2
	bd.LinearVelocity = box2d.MakeB2Vec2(1, 0)
	body := mustBody(t, world, bd)
	mustFixture(t, body, mustBox(t, 0.5, 0.5), 1)

	override := box2d.B2MassData{Mass: 3, Center: box2d.MakeB2Vec2(0.25, 0), I: 2}
	if err := body.SetMassData(override); err != nil {
		t.Fatal(err)
	}
	plain := boxAt(t, world, 3, 3, 0.5, 0.5, 1)

	original := dump(t, world)
	if strings.Count(original, "massData:") != 1 {
		t.Fatalf("want massData only on the overridden body:\n%s", original)
	}

	replayed := load(t, original)
	assertSameDump(t, original, dump(t, replayed))

	bodies := replayed.GetBodies()
	if got := bodies[1].GetMassData(); got != body.GetMassData() {
		t.Fatalf("replayed mass %+v, want %+v", got, body.GetMassData())
	}
	if got := bodies[1].GetLinearVelocity(); got != body.GetLinearVelocity() {
		t.Fatalf("replayed velocity %v, want %v", got, body.GetLinearVelocity())
	}
	if got := bodies[2].GetMassData(); got != plain.GetMassData() {
		t.Fatalf("fixture mass %+v, want %+v", got, plain.GetMassData())
	}

	step(t, world, 30)
	step(t, replayed, 30)
	assertSameDump(t, dump(t, world), dump(t, replayed))
}
