// Package debugdraw rasterizes the debug drawing of a box2d world into an
// image with gg.
package debugdraw

import (
	"image"
	"image/color"
	"io"
	"math"

	"github.com/ByteArena/box2d/v3"
	"github.com/fogleman/gg"
)

// Canvas implements box2d.B2Draw on top of a gg context. World units are
// meters with y up; the canvas maps them to pixels around a view center.
type Canvas struct {
	dc     *gg.Context
	flags  uint32
	scale  float64 // pixels per meter
	center box2d.B2Vec2

	Background color.Color
}

// NewCanvas returns a canvas of the given pixel size drawing shapes and
// joints.
func NewCanvas(width, height int, pixelsPerMeter float64) *Canvas {
	return &Canvas{
		dc:         gg.NewContext(width, height),
		flags:      box2d.B2Draw_shapeBit | box2d.B2Draw_jointBit,
		scale:      pixelsPerMeter,
		Background: color.RGBA{12, 12, 28, 255},
	}
}

func (c *Canvas) SetFlags(flags uint32) {
	c.flags = flags
}

func (c *Canvas) GetFlags() uint32 {
	return c.flags
}

// SetCenter sets the world point shown in the middle of the image.
func (c *Canvas) SetCenter(p box2d.B2Vec2) {
	c.center = p
}

// ToScreen converts a world point to pixel coordinates.
func (c *Canvas) ToScreen(p box2d.B2Vec2) (x, y float64) {
	x = float64(c.dc.Width())/2 + (p.X-c.center.X)*c.scale
	y = float64(c.dc.Height())/2 - (p.Y-c.center.Y)*c.scale
	return x, y
}

// Clear fills the canvas with the background color.
func (c *Canvas) Clear() {
	c.dc.SetColor(c.Background)
	c.dc.Clear()
}

// Render clears the canvas and draws the world onto it.
func (c *Canvas) Render(world *box2d.B2World) {
	c.Clear()
	world.SetDebugDraw(c)
	world.DebugDraw()
}

func (c *Canvas) Image() image.Image {
	return c.dc.Image()
}

func (c *Canvas) EncodePNG(w io.Writer) error {
	return c.dc.EncodePNG(w)
}

func (c *Canvas) SavePNG(path string) error {
	return c.dc.SavePNG(path)
}

func (c *Canvas) setColor(col box2d.B2Color, alpha float64) {
	c.dc.SetRGBA(col.R, col.G, col.B, col.A*alpha)
}

func (c *Canvas) path(vertices []box2d.B2Vec2) {
	c.dc.NewSubPath()
	for _, v := range vertices {
		c.dc.LineTo(c.ToScreen(v))
	}
	c.dc.ClosePath()
}

func (c *Canvas) DrawPolygon(vertices []box2d.B2Vec2, col box2d.B2Color) {
	c.path(vertices)
	c.setColor(col, 1.0)
	c.dc.SetLineWidth(1)
	c.dc.Stroke()
}

func (c *Canvas) DrawSolidPolygon(vertices []box2d.B2Vec2, col box2d.B2Color) {
	c.path(vertices)
	c.setColor(col, 0.5)
	c.dc.FillPreserve()
	c.setColor(col, 1.0)
	c.dc.SetLineWidth(1)
	c.dc.Stroke()
}

func (c *Canvas) DrawCircle(center box2d.B2Vec2, radius float64, col box2d.B2Color) {
	x, y := c.ToScreen(center)
	c.dc.DrawCircle(x, y, radius*c.scale)
	c.setColor(col, 1.0)
	c.dc.SetLineWidth(1)
	c.dc.Stroke()
}

func (c *Canvas) DrawSolidCircle(center box2d.B2Vec2, radius float64, axis box2d.B2Vec2, col box2d.B2Color) {
	x, y := c.ToScreen(center)
	c.dc.DrawCircle(x, y, radius*c.scale)
	c.setColor(col, 0.5)
	c.dc.FillPreserve()
	c.setColor(col, 1.0)
	c.dc.SetLineWidth(1)
	c.dc.Stroke()

	// Radius line showing the rotation.
	tip := box2d.B2Vec2Add(center, box2d.B2Vec2MulScalar(radius, axis))
	c.DrawSegment(center, tip, col)
}

func (c *Canvas) DrawSegment(p1, p2 box2d.B2Vec2, col box2d.B2Color) {
	x1, y1 := c.ToScreen(p1)
	x2, y2 := c.ToScreen(p2)
	c.dc.DrawLine(x1, y1, x2, y2)
	c.setColor(col, 1.0)
	c.dc.SetLineWidth(1)
	c.dc.Stroke()
}

// DrawTransform draws the frame axes half a meter long, red for x and
// green for y.
func (c *Canvas) DrawTransform(xf box2d.B2Transform) {
	const axisScale = 0.5

	p1 := xf.P
	c.DrawSegment(p1, box2d.B2Vec2Add(p1, box2d.B2Vec2MulScalar(axisScale, xf.Q.GetXAxis())), box2d.MakeB2Color(1, 0, 0))
	c.DrawSegment(p1, box2d.B2Vec2Add(p1, box2d.B2Vec2MulScalar(axisScale, xf.Q.GetYAxis())), box2d.MakeB2Color(0, 1, 0))
}

// DrawPoint draws a dot of size pixels.
func (c *Canvas) DrawPoint(p box2d.B2Vec2, size float64, col box2d.B2Color) {
	x, y := c.ToScreen(p)
	c.dc.DrawPoint(x, y, math.Max(size/2, 0.5))
	c.setColor(col, 1.0)
	c.dc.Fill()
}
