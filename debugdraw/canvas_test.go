package debugdraw

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"

	"github.com/ByteArena/box2d/v3"
)

func sameColor(a, b color.Color) bool {
	r1, g1, b1, a1 := a.RGBA()
	r2, g2, b2, a2 := b.RGBA()
	return r1 == r2 && g1 == g2 && b1 == b2 && a1 == a2
}

func TestCanvasToScreen(t *testing.T) {
	c := NewCanvas(200, 100, 10)
	c.SetCenter(box2d.MakeB2Vec2(1, 1))

	x, y := c.ToScreen(box2d.MakeB2Vec2(1, 1))
	if x != 100 || y != 50 {
		t.Fatalf("center maps to (%v, %v), want (100, 50)", x, y)
	}

	x, y = c.ToScreen(box2d.MakeB2Vec2(2, 2))
	if x != 110 || y != 40 {
		t.Fatalf("(2, 2) maps to (%v, %v), want (110, 40)", x, y)
	}
}

func TestCanvasRendersShapes(t *testing.T) {
	world := box2d.NewB2World(box2d.MakeB2Vec2(0, -10))

	bd := box2d.MakeB2BodyDef()
	ground, err := world.CreateBody(&bd)
	if err != nil {
		t.Fatal(err)
	}

	box, err := box2d.NewB2BoxShape(1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ground.CreateFixtureFromShape(box, 0); err != nil {
		t.Fatal(err)
	}

	c := NewCanvas(64, 64, 10)
	c.Render(world)

	img := c.Image()
	if sameColor(img.At(32, 32), c.Background) {
		t.Fatalf("box interior was not painted")
	}
	if !sameColor(img.At(2, 2), c.Background) {
		t.Fatalf("corner outside the box was painted: %v", img.At(2, 2))
	}

	var buf bytes.Buffer
	if err := c.EncodePNG(&buf); err != nil {
		t.Fatal(err)
	}
	decoded, err := png.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if b := decoded.Bounds(); b.Dx() != 64 || b.Dy() != 64 {
		t.Fatalf("png bounds %v", b)
	}
}

func TestCanvasFlags(t *testing.T) {
	world := box2d.NewB2World(box2d.MakeB2Vec2(0, 0))

	bd := box2d.MakeB2BodyDef()
	body, _ := world.CreateBody(&bd)
	circle, _ := box2d.NewB2CircleShape(box2d.MakeB2Vec2(0, 0), 1)
	body.CreateFixtureFromShape(circle, 0)

	c := NewCanvas(64, 64, 10)
	c.SetFlags(0)
	c.Render(world)

	if !sameColor(c.Image().At(32, 32), c.Background) {
		t.Fatalf("shapes drawn with the shape flag cleared")
	}
}
