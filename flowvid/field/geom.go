package field

import (
	"image"

	"github.com/lguimbarda/flowvid/flowvid/core"
)

// Stream produces numeric frames: flow fields, error maps or split channels.
type Stream = core.Stream[*Field]

// ImageStream produces RGB frames.
type ImageStream = core.Stream[*image.RGBA]

// PointStream produces one point set per frame.
type PointStream = core.Stream[Points]

// RectStream produces one rectangle per frame.
type RectStream = core.Stream[Rect]

// Point is a location in image coordinates. Pixel (i, j) covers
// [i, i+1)×[j, j+1) and is centred at (i+0.5, j+0.5).
type Point struct {
	X, Y float64
}

func (p Point) Add(u, v float64) Point { return Point{p.X + u, p.Y + v} }

// Points is one frame's set of tracked points.
type Points []Point

// Clone returns a copy of ps.
func (ps Points) Clone() Points {
	return append(Points(nil), ps...)
}

// Rect is an axis-aligned region given by two corners. X0 <= X1 and
// Y0 <= Y1 are expected but not enforced; drawing clamps the corners.
type Rect struct {
	X0, Y0, X1, Y1 float64
}

// Corners returns the rectangle as its two corner points.
func (r Rect) Corners() Points {
	return Points{{r.X0, r.Y0}, {r.X1, r.Y1}}
}

// RectFromCorners builds a Rect from the first two points of ps.
func RectFromCorners(ps Points) Rect {
	return Rect{ps[0].X, ps[0].Y, ps[1].X, ps[1].Y}
}
