package box2d_test

import (
	"math"
	"testing"

	"github.com/ByteArena/box2d/v3"
)

func at(x, y float64) box2d.B2Transform {
	return box2d.MakeB2TransformByPositionAndRotation(box2d.MakeB2Vec2(x, y), box2d.MakeB2Rot())
}

func TestCollideCircles(t *testing.T) {
	a := mustCircle(t, box2d.MakeB2Vec2(0, 0), 0.5)
	b := mustCircle(t, box2d.MakeB2Vec2(0, 0), 0.5)

	var m box2d.B2Manifold
	box2d.B2CollideCircles(&m, a, at(0, 0), b, at(0, 0.9))
	if m.PointCount != 1 {
		t.Fatalf("overlapping circles: %d points, want 1", m.PointCount)
	}

	var wm box2d.B2WorldManifold
	wm.Initialize(&m, at(0, 0), a.GetRadius(), at(0, 0.9), b.GetRadius())
	if !nearVec(wm.Normal, box2d.MakeB2Vec2(0, 1), 1e-12) {
		t.Fatalf("normal = %v, want (0, 1)", wm.Normal)
	}
	if !near(wm.Separations[0], -0.1, 1e-12) {
		t.Fatalf("separation = %v, want -0.1", wm.Separations[0])
	}

	box2d.B2CollideCircles(&m, a, at(0, 0), b, at(0, 1.2))
	if m.PointCount != 0 {
		t.Fatalf("separated circles: %d points", m.PointCount)
	}
}

func TestCollidePolygons(t *testing.T) {
	a := mustBox(t, 0.5, 0.5)
	b := mustBox(t, 0.5, 0.5)

	var m box2d.B2Manifold
	box2d.B2CollidePolygons(&m, a, at(0, 0), b, at(0.1, 0.95))
	if m.PointCount != 2 {
		t.Fatalf("stacked boxes: %d points, want 2", m.PointCount)
	}

	var wm box2d.B2WorldManifold
	wm.Initialize(&m, at(0, 0), a.GetRadius(), at(0.1, 0.95), b.GetRadius())
	if !nearVec(wm.Normal, box2d.MakeB2Vec2(0, 1), 1e-12) {
		t.Fatalf("normal = %v, want (0, 1)", wm.Normal)
	}
	for i := 0; i < m.PointCount; i++ {
		if wm.Separations[i] >= 0 {
			t.Fatalf("point %d separation %v, want overlap", i, wm.Separations[i])
		}
		if !near(wm.Points[i].Y, 0.475, 0.02) {
			t.Fatalf("point %d at %v, want on the shared face", i, wm.Points[i])
		}
	}
	if m.Points[0].Id.Key() == m.Points[1].Id.Key() {
		t.Fatal("manifold points share a feature id")
	}

	box2d.B2CollidePolygons(&m, a, at(0, 0), b, at(0, 2))
	if m.PointCount != 0 {
		t.Fatalf("separated boxes: %d points", m.PointCount)
	}
}

func TestCollidePolygonsReferenceFaceHysteresis(t *testing.T) {
	a := mustBox(t, 0.5, 0.5)
	b := mustBox(t, 0.5, 0.5)
	xfB := at(0.1, 0.98)

	// Both faces separate the boxes by the same amount.
	var m box2d.B2Manifold
	box2d.B2CollidePolygons(&m, a, at(0, 0), b, xfB)
	if m.PointCount != 2 || m.Type != box2d.B2Manifold_Type_FaceA {
		t.Fatalf("fresh manifold: %d points type %d, want 2 on face A", m.PointCount, m.Type)
	}

	// A near tie keeps the previous reference face.
	m.Type = box2d.B2Manifold_Type_FaceB
	box2d.B2CollidePolygons(&m, a, at(0, 0), b, xfB)
	if m.PointCount != 2 || m.Type != box2d.B2Manifold_Type_FaceB {
		t.Fatalf("tied manifold: %d points type %d, want 2 on face B", m.PointCount, m.Type)
	}

	var wm box2d.B2WorldManifold
	wm.Initialize(&m, at(0, 0), a.GetRadius(), xfB, b.GetRadius())
	if !nearVec(wm.Normal, box2d.MakeB2Vec2(0, 1), 1e-9) {
		t.Fatalf("normal on face B = %v, want (0, 1)", wm.Normal)
	}

	// A tilted box on a wide slab: face A is clearly better, so the
	// previous face B is dropped.
	slab := mustBox(t, 2, 0.5)
	angle := 0.2
	y := 0.48 + 0.5*(math.Cos(angle)+math.Sin(angle))
	xfTilted := box2d.MakeB2TransformByPositionAndRotation(box2d.MakeB2Vec2(0, y), box2d.MakeB2RotFromAngle(angle))

	m.Type = box2d.B2Manifold_Type_FaceB
	box2d.B2CollidePolygons(&m, slab, at(0, 0), b, xfTilted)
	if m.PointCount == 0 || m.Type != box2d.B2Manifold_Type_FaceA {
		t.Fatalf("tilted box: %d points type %d, want face A", m.PointCount, m.Type)
	}
}

func TestCollidePolygonAndCircle(t *testing.T) {
	box := mustBox(t, 1, 1)
	circle := mustCircle(t, box2d.MakeB2Vec2(0, 0), 0.5)

	var m box2d.B2Manifold
	box2d.B2CollidePolygonAndCircle(&m, box, at(0, 0), circle, at(1.4, 0))
	if m.PointCount != 1 {
		t.Fatalf("touching: %d points, want 1", m.PointCount)
	}

	var wm box2d.B2WorldManifold
	wm.Initialize(&m, at(0, 0), box.GetRadius(), at(1.4, 0), circle.GetRadius())
	if !nearVec(wm.Normal, box2d.MakeB2Vec2(1, 0), 1e-12) {
		t.Fatalf("normal = %v, want (1, 0)", wm.Normal)
	}

	box2d.B2CollidePolygonAndCircle(&m, box, at(0, 0), circle, at(3, 0))
	if m.PointCount != 0 {
		t.Fatalf("apart: %d points", m.PointCount)
	}
}

func TestCollideEdges(t *testing.T) {
	ground := mustEdge(t, box2d.MakeB2Vec2(-5, 0), box2d.MakeB2Vec2(5, 0))

	circle := mustCircle(t, box2d.MakeB2Vec2(0, 0), 0.5)
	var m box2d.B2Manifold
	box2d.B2CollideEdgeAndCircle(&m, ground, at(0, 0), circle, at(0, 0.4))
	if m.PointCount != 1 {
		t.Fatalf("circle on edge: %d points, want 1", m.PointCount)
	}

	var wm box2d.B2WorldManifold
	wm.Initialize(&m, at(0, 0), ground.GetRadius(), at(0, 0.4), circle.GetRadius())
	if !nearVec(wm.Normal, box2d.MakeB2Vec2(0, 1), 1e-12) {
		t.Fatalf("edge circle normal = %v, want (0, 1)", wm.Normal)
	}

	box := mustBox(t, 0.5, 0.5)
	box2d.B2CollideEdgeAndPolygon(&m, ground, at(0, 0), box, at(0, 0.49))
	if m.PointCount != 2 {
		t.Fatalf("box on edge: %d points, want 2", m.PointCount)
	}
	wm.Initialize(&m, at(0, 0), ground.GetRadius(), at(0, 0.49), box.GetRadius())
	if !nearVec(wm.Normal, box2d.MakeB2Vec2(0, 1), 1e-9) {
		t.Fatalf("edge box normal = %v, want (0, 1)", wm.Normal)
	}

	box2d.B2CollideEdgeAndPolygon(&m, ground, at(0, 0), box, at(0, 3))
	if m.PointCount != 0 {
		t.Fatalf("box above edge: %d points", m.PointCount)
	}
}

func TestDistance(t *testing.T) {
	a := mustCircle(t, box2d.MakeB2Vec2(0, 0), 0.5)
	b := mustBox(t, 0.5, 0.5)

	input := box2d.B2DistanceInput{
		ProxyA:     box2d.MakeB2DistanceProxy(a, 0),
		ProxyB:     box2d.MakeB2DistanceProxy(b, 0),
		TransformA: at(0, 0),
		TransformB: at(3, 0),
	}

	var cache box2d.B2SimplexCache
	out := box2d.B2Distance(&cache, &input)
	if !near(out.Distance, 2.5, 1e-9) {
		t.Fatalf("core distance = %v, want 2.5", out.Distance)
	}
	if !nearVec(out.PointA, box2d.MakeB2Vec2(0, 0), 1e-9) || !near(out.PointB.X, 2.5, 1e-9) {
		t.Fatalf("witness points %v %v", out.PointA, out.PointB)
	}

	input.UseRadii = true
	cache = box2d.B2SimplexCache{}
	out = box2d.B2Distance(&cache, &input)
	if want := 2.5 - 0.5 - box2d.B2_polygonRadius; !near(out.Distance, want, 1e-9) {
		t.Fatalf("distance with radii = %v, want %v", out.Distance, want)
	}
	if !near(out.PointA.X, 0.5, 1e-9) {
		t.Fatalf("witness on the circle = %v", out.PointA)
	}

	// A warm cache gives the same answer.
	again := box2d.B2Distance(&cache, &input)
	if !near(again.Distance, out.Distance, 1e-12) {
		t.Fatalf("cached distance = %v, want %v", again.Distance, out.Distance)
	}
}

func TestTimeOfImpact(t *testing.T) {
	a := mustCircle(t, box2d.MakeB2Vec2(0, 0), 0.5)
	b := mustCircle(t, box2d.MakeB2Vec2(0, 0), 0.5)

	sweep := func(from, to box2d.B2Vec2) box2d.B2Sweep {
		return box2d.B2Sweep{C0: from, C: to}
	}

	input := box2d.B2TOIInput{
		ProxyA: box2d.MakeB2DistanceProxy(a, 0),
		ProxyB: box2d.MakeB2DistanceProxy(b, 0),
		SweepA: sweep(box2d.MakeB2Vec2(0, 0), box2d.MakeB2Vec2(0, 0)),
		SweepB: sweep(box2d.MakeB2Vec2(-5, 0), box2d.MakeB2Vec2(5, 0)),
		TMax:   1,
	}

	out := box2d.B2TimeOfImpact(&input)
	if out.State != box2d.B2TOIOutput_Touching {
		t.Fatalf("state = %v, want touching", out.State)
	}

	// The bodies stop a little inside the touching distance.
	target := 1 - 3*box2d.B2_linearSlop
	if want := (5 - target) / 10; !near(out.T, want, 1e-3) {
		t.Fatalf("t = %v, want %v", out.T, want)
	}

	input.SweepB = sweep(box2d.MakeB2Vec2(-5, 3), box2d.MakeB2Vec2(5, 3))
	out = box2d.B2TimeOfImpact(&input)
	if out.State != box2d.B2TOIOutput_Separated || out.T != 1 {
		t.Fatalf("parallel pass: state %v t %v, want separated at 1", out.State, out.T)
	}
}
