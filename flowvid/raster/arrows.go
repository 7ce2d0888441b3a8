package raster

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/vgimg"
)

// Arrow is a displacement drawn from (X, Y) to (X+U, Y+V), in pixel
// coordinates where pixel (i, j) is centred at (i+0.5, j+0.5).
type Arrow struct {
	X, Y  float64
	U, V  float64
	Color color.NRGBA
}

// Arrows renders arrows onto a copy of img. Shafts are width pixels wide and
// heads scale with the width. Rendering is antialiased on a transparent
// canvas which is then composited over the image.
func Arrows(img *image.RGBA, arrows []Arrow, width float64) *image.RGBA {
	b := img.Bounds()
	out := Clone(img)
	if b.Empty() || len(arrows) == 0 {
		return out
	}

	// At 72 DPI one vg.Point is one pixel.
	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(b.Dx()), vg.Length(b.Dy())),
		vgimg.UseDPI(72),
		vgimg.UseBackgroundColor(color.Transparent),
	)
	h := float64(b.Dy())
	pt := func(x, y float64) vg.Point {
		return vg.Point{X: vg.Length(x), Y: vg.Length(h - y)}
	}

	head := 3 * width
	for _, a := range arrows {
		length := math.Hypot(a.U, a.V)
		if length == 0 || a.Color.A == 0 {
			continue
		}
		c.SetColor(a.Color)

		// Unit direction and normal.
		dx, dy := a.U/length, a.V/length
		nx, ny := -dy, dx
		hl := math.Min(head, length)
		bx, by := a.X+a.U-dx*hl, a.Y+a.V-dy*hl

		if length > hl {
			var shaft vg.Path
			shaft.Move(pt(a.X, a.Y))
			shaft.Line(pt(bx, by))
			c.SetLineWidth(vg.Length(width))
			c.Stroke(shaft)
		}

		var tip vg.Path
		tip.Move(pt(a.X+a.U, a.Y+a.V))
		tip.Line(pt(bx+nx*hl/2, by+ny*hl/2))
		tip.Line(pt(bx-nx*hl/2, by-ny*hl/2))
		tip.Close()
		c.Fill(tip)
	}

	draw.Draw(out, out.Bounds(), c.Image(), image.Point{}, draw.Over)
	return out
}
