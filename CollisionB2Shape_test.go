package box2d_test

import (
	"errors"
	"math"
	"testing"

	"github.com/ByteArena/box2d/v3"
)

func near(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func nearVec(a, b box2d.B2Vec2, tol float64) bool {
	return near(a.X, b.X, tol) && near(a.Y, b.Y, tol)
}

func mustBox(t *testing.T, hx, hy float64) *box2d.B2PolygonShape {
	t.Helper()
	box, err := box2d.NewB2BoxShape(hx, hy)
	if err != nil {
		t.Fatal(err)
	}
	return box
}

func mustCircle(t *testing.T, center box2d.B2Vec2, radius float64) *box2d.B2CircleShape {
	t.Helper()
	circle, err := box2d.NewB2CircleShape(center, radius)
	if err != nil {
		t.Fatal(err)
	}
	return circle
}

func mustEdge(t *testing.T, v1, v2 box2d.B2Vec2) *box2d.B2EdgeShape {
	t.Helper()
	edge, err := box2d.NewB2EdgeShape(v1, v2)
	if err != nil {
		t.Fatal(err)
	}
	return edge
}

func TestShapeConstructorErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "zero radius",
			err:  func() error { _, err := box2d.NewB2CircleShape(box2d.MakeB2Vec2(0, 0), 0); return err }(),
			want: box2d.ErrInvalidRadius,
		},
		{
			name: "NaN radius",
			err:  func() error { _, err := box2d.NewB2CircleShape(box2d.MakeB2Vec2(0, 0), math.NaN()); return err }(),
			want: box2d.ErrInvalidRadius,
		},
		{
			name: "zero length edge",
			err:  func() error { _, err := box2d.NewB2EdgeShape(box2d.MakeB2Vec2(1, 1), box2d.MakeB2Vec2(1, 1)); return err }(),
			want: box2d.ErrDegenerateEdge,
		},
		{
			name: "two point polygon",
			err: func() error {
				_, err := box2d.NewB2PolygonShape([]box2d.B2Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}})
				return err
			}(),
			want: box2d.ErrDegeneratePolygon,
		},
		{
			name: "collinear polygon",
			err: func() error {
				_, err := box2d.NewB2PolygonShape([]box2d.B2Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}})
				return err
			}(),
			want: box2d.ErrDegeneratePolygon,
		},
		{
			name: "welded polygon",
			err: func() error {
				_, err := box2d.NewB2PolygonShape([]box2d.B2Vec2{{X: 0, Y: 0}, {X: 0.001, Y: 0}, {X: 0, Y: 0.001}})
				return err
			}(),
			want: box2d.ErrDegeneratePolygon,
		},
		{
			name: "too many vertices",
			err: func() error {
				points := make([]box2d.B2Vec2, box2d.B2_maxPolygonVertices+1)
				for i := range points {
					a := 2 * math.Pi * float64(i) / float64(len(points))
					points[i] = box2d.MakeB2Vec2(math.Cos(a), math.Sin(a))
				}
				_, err := box2d.NewB2PolygonShape(points)
				return err
			}(),
			want: box2d.ErrTooManyVertices,
		},
		{
			name: "flat box",
			err:  func() error { _, err := box2d.NewB2BoxShape(1, 0); return err }(),
			want: box2d.ErrDegeneratePolygon,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.want) {
				t.Fatalf("err = %v, want %v", tt.err, tt.want)
			}
		})
	}
}

func TestPolygonHull(t *testing.T) {
	// Clockwise input with an interior point.
	points := []box2d.B2Vec2{
		{X: -1, Y: 1}, {X: 1, Y: 1}, {X: 0, Y: 0}, {X: 1, Y: -1}, {X: -1, Y: -1},
	}

	poly, err := box2d.NewB2PolygonShape(points)
	if err != nil {
		t.Fatal(err)
	}
	if n := poly.GetVertexCount(); n != 4 {
		t.Fatalf("hull has %d vertices, want 4", n)
	}
	if !poly.Validate() {
		t.Fatal("hull is not convex")
	}

	vs := poly.GetVertices()
	for i := range vs {
		a, b, c := vs[i], vs[(i+1)%len(vs)], vs[(i+2)%len(vs)]
		if box2d.B2Vec2Cross(box2d.B2Vec2Sub(b, a), box2d.B2Vec2Sub(c, b)) <= 0 {
			t.Fatalf("hull is not counter-clockwise at vertex %d: %v", i, vs)
		}
	}
	for i, n := range poly.GetNormals() {
		if !near(n.Length(), 1, 1e-12) {
			t.Fatalf("normal %d has length %v", i, n.Length())
		}
	}
	if !nearVec(poly.GetCentroid(), box2d.MakeB2Vec2(0, 0), 1e-12) {
		t.Fatalf("centroid = %v", poly.GetCentroid())
	}
}

func TestShapeMass(t *testing.T) {
	box := mustBox(t, 0.5, 0.5)
	md := box.ComputeMass(2)
	if !near(md.Mass, 2, 1e-12) {
		t.Fatalf("box mass = %v, want 2", md.Mass)
	}
	if !nearVec(md.Center, box2d.MakeB2Vec2(0, 0), 1e-12) {
		t.Fatalf("box center = %v", md.Center)
	}
	if want := 2.0 * (1 + 1) / 12; !near(md.I, want, 1e-12) {
		t.Fatalf("box inertia = %v, want %v", md.I, want)
	}

	shifted, err := box2d.NewB2OrientedBoxShape(0.5, 0.5, box2d.MakeB2Vec2(2, 0), 0.3)
	if err != nil {
		t.Fatal(err)
	}
	smd := shifted.ComputeMass(2)
	if !nearVec(smd.Center, box2d.MakeB2Vec2(2, 0), 1e-9) {
		t.Fatalf("shifted box center = %v", smd.Center)
	}
	if want := md.I + smd.Mass*4; !near(smd.I, want, 1e-9) {
		t.Fatalf("shifted box inertia = %v, want %v", smd.I, want)
	}

	circle := mustCircle(t, box2d.MakeB2Vec2(1, 0), 0.5)
	cmd := circle.ComputeMass(1)
	if want := math.Pi * 0.25; !near(cmd.Mass, want, 1e-12) {
		t.Fatalf("circle mass = %v, want %v", cmd.Mass, want)
	}
	if want := cmd.Mass * (0.5*0.25 + 1); !near(cmd.I, want, 1e-12) {
		t.Fatalf("circle inertia = %v, want %v", cmd.I, want)
	}

	edge := mustEdge(t, box2d.MakeB2Vec2(0, 0), box2d.MakeB2Vec2(2, 0))
	if emd := edge.ComputeMass(10); emd.Mass != 0 || emd.I != 0 {
		t.Fatalf("edge mass data = %+v, want zero mass", emd)
	}
}

func TestShapeTestPoint(t *testing.T) {
	xf := box2d.MakeB2TransformByPositionAndRotation(box2d.MakeB2Vec2(1, 2), box2d.MakeB2RotFromAngle(0.25*math.Pi))

	box := mustBox(t, 1, 0.5)
	if !box.TestPoint(xf, box2d.MakeB2Vec2(1, 2)) {
		t.Fatal("box does not contain its origin")
	}
	if box.TestPoint(xf, box2d.MakeB2Vec2(2.5, 2)) {
		t.Fatal("box contains a point outside its rotated extent")
	}

	circle := mustCircle(t, box2d.MakeB2Vec2(0, 0), 1)
	if !circle.TestPoint(xf, box2d.MakeB2Vec2(1.5, 2.5)) {
		t.Fatal("circle does not contain an inner point")
	}
	if circle.TestPoint(xf, box2d.MakeB2Vec2(2.5, 2)) {
		t.Fatal("circle contains an outer point")
	}

	edge := mustEdge(t, box2d.MakeB2Vec2(-1, 0), box2d.MakeB2Vec2(1, 0))
	if edge.TestPoint(box2d.MakeB2Transform(), box2d.MakeB2Vec2(0, 0)) {
		t.Fatal("edges have no interior")
	}
}

func TestShapeRayCast(t *testing.T) {
	xf := box2d.MakeB2Transform()

	tests := []struct {
		name     string
		shape    box2d.B2Shape
		input    box2d.B2RayCastInput
		hit      bool
		fraction float64
		normal   box2d.B2Vec2
	}{
		{
			name:     "box from the left",
			shape:    mustBox(t, 1, 1),
			input:    box2d.B2RayCastInput{P1: box2d.MakeB2Vec2(-3, 0), P2: box2d.MakeB2Vec2(3, 0), MaxFraction: 1},
			hit:      true,
			fraction: 2.0 / 6.0,
			normal:   box2d.MakeB2Vec2(-1, 0),
		},
		{
			name:  "box short ray",
			shape: mustBox(t, 1, 1),
			input: box2d.B2RayCastInput{P1: box2d.MakeB2Vec2(-3, 0), P2: box2d.MakeB2Vec2(3, 0), MaxFraction: 0.25},
		},
		{
			name:  "box from inside",
			shape: mustBox(t, 1, 1),
			input: box2d.B2RayCastInput{P1: box2d.MakeB2Vec2(0, 0), P2: box2d.MakeB2Vec2(3, 0), MaxFraction: 1},
		},
		{
			name:     "circle from above",
			shape:    mustCircle(t, box2d.MakeB2Vec2(0, 0), 1),
			input:    box2d.B2RayCastInput{P1: box2d.MakeB2Vec2(0, 5), P2: box2d.MakeB2Vec2(0, -5), MaxFraction: 1},
			hit:      true,
			fraction: 0.4,
			normal:   box2d.MakeB2Vec2(0, 1),
		},
		{
			name:  "circle miss",
			shape: mustCircle(t, box2d.MakeB2Vec2(0, 0), 1),
			input: box2d.B2RayCastInput{P1: box2d.MakeB2Vec2(2, 5), P2: box2d.MakeB2Vec2(2, -5), MaxFraction: 1},
		},
		{
			name:     "edge from below",
			shape:    mustEdge(t, box2d.MakeB2Vec2(-1, 0), box2d.MakeB2Vec2(1, 0)),
			input:    box2d.B2RayCastInput{P1: box2d.MakeB2Vec2(0, -2), P2: box2d.MakeB2Vec2(0, 2), MaxFraction: 1},
			hit:      true,
			fraction: 0.5,
			normal:   box2d.MakeB2Vec2(0, -1),
		},
		{
			name:  "edge past the end",
			shape: mustEdge(t, box2d.MakeB2Vec2(-1, 0), box2d.MakeB2Vec2(1, 0)),
			input: box2d.B2RayCastInput{P1: box2d.MakeB2Vec2(2, -2), P2: box2d.MakeB2Vec2(2, 2), MaxFraction: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, hit := tt.shape.RayCast(tt.input, xf, 0)
			if hit != tt.hit {
				t.Fatalf("hit = %v, want %v", hit, tt.hit)
			}
			if !hit {
				return
			}
			if !near(out.Fraction, tt.fraction, 1e-9) {
				t.Fatalf("fraction = %v, want %v", out.Fraction, tt.fraction)
			}
			if !nearVec(out.Normal, tt.normal, 1e-9) {
				t.Fatalf("normal = %v, want %v", out.Normal, tt.normal)
			}
		})
	}
}

func TestOneSidedEdgeRayCast(t *testing.T) {
	edge, err := box2d.NewB2OneSidedEdgeShape(
		box2d.MakeB2Vec2(-2, 0), box2d.MakeB2Vec2(-1, 0),
		box2d.MakeB2Vec2(1, 0), box2d.MakeB2Vec2(2, 0))
	if err != nil {
		t.Fatal(err)
	}
	if !edge.IsOneSided() {
		t.Fatal("edge is not one-sided")
	}

	xf := box2d.MakeB2Transform()
	down := box2d.B2RayCastInput{P1: box2d.MakeB2Vec2(0, 2), P2: box2d.MakeB2Vec2(0, -2), MaxFraction: 1}
	up := box2d.B2RayCastInput{P1: box2d.MakeB2Vec2(0, -2), P2: box2d.MakeB2Vec2(0, 2), MaxFraction: 1}

	// Only rays starting right of v1→v2 hit.
	if _, hit := edge.RayCast(up, xf, 0); !hit {
		t.Fatal("ray from the front side missed")
	}
	if _, hit := edge.RayCast(down, xf, 0); hit {
		t.Fatal("ray from the back side hit")
	}
}

func TestShapeAABB(t *testing.T) {
	xf := box2d.MakeB2TransformByPositionAndRotation(box2d.MakeB2Vec2(3, -1), box2d.MakeB2RotFromAngle(0.5*math.Pi))

	box := mustBox(t, 2, 0.5)
	aabb := box.ComputeAABB(xf, 0)
	r := box2d.B2_polygonRadius
	if !nearVec(aabb.LowerBound, box2d.MakeB2Vec2(2.5-r, -3-r), 1e-9) || !nearVec(aabb.UpperBound, box2d.MakeB2Vec2(3.5+r, 1+r), 1e-9) {
		t.Fatalf("rotated box aabb = %v", aabb)
	}

	circle := mustCircle(t, box2d.MakeB2Vec2(1, 0), 0.5)
	caabb := circle.ComputeAABB(xf, 0)
	if !nearVec(caabb.GetCenter(), box2d.MakeB2Vec2(3, 0), 1e-9) || !nearVec(caabb.GetExtents(), box2d.MakeB2Vec2(0.5, 0.5), 1e-9) {
		t.Fatalf("circle aabb = %v", caabb)
	}
}
