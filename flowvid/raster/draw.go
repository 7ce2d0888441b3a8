package raster

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/samber/lo"

	"github.com/lguimbarda/flowvid/flowvid/field"
)

// Clone returns a copy of img with its bounds moved to the origin.
func Clone(img image.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// Cross draws a five-pixel plus centred on p. The centre is clamped one
// pixel inside the border so every arm lands in the image.
func Cross(img *image.RGBA, p field.Point, c color.RGBA) {
	b := img.Bounds()
	if b.Dx() < 3 || b.Dy() < 3 {
		return
	}
	x := lo.Clamp(int(p.X), 1, b.Dx()-2) + b.Min.X
	y := lo.Clamp(int(p.Y), 1, b.Dy()-2) + b.Min.Y
	img.SetRGBA(x, y, c)
	img.SetRGBA(x-1, y, c)
	img.SetRGBA(x+1, y, c)
	img.SetRGBA(x, y-1, c)
	img.SetRGBA(x, y+1, c)
}

// Crosses draws a Cross for every point, coloring point i with c.For(i).
func Crosses(img *image.RGBA, ps field.Points, c Color) {
	for i, p := range ps {
		Cross(img, p, c.For(i))
	}
}

// Line draws a one-pixel line from p0 towards p1 by stepping along the
// longer axis. Endpoints are truncated to pixels and clamped into the
// image; the final pixel at p1 is not drawn.
func Line(img *image.RGBA, p0, p1 field.Point, c color.RGBA) {
	b := img.Bounds()
	if b.Empty() {
		return
	}
	x0 := lo.Clamp(int(p0.X), 0, b.Dx()-1)
	y0 := lo.Clamp(int(p0.Y), 0, b.Dy()-1)
	x1 := lo.Clamp(int(p1.X), 0, b.Dx()-1)
	y1 := lo.Clamp(int(p1.Y), 0, b.Dy()-1)

	if abs(x1-x0) > abs(y1-y0) {
		if x0 > x1 {
			x0, y0, x1, y1 = x1, y1, x0, y0
		}
		slope := float64(y1-y0) / float64(x1-x0)
		for x := x0; x < x1; x++ {
			y := int(float64(y0) + float64(x-x0)*slope)
			img.SetRGBA(b.Min.X+x, b.Min.Y+y, c)
		}
		return
	}
	if y0 > y1 {
		x0, y0, x1, y1 = x1, y1, x0, y0
	}
	if y0 == y1 {
		return
	}
	slope := float64(x1-x0) / float64(y1-y0)
	for y := y0; y < y1; y++ {
		x := int(float64(x0) + float64(y-y0)*slope)
		img.SetRGBA(b.Min.X+x, b.Min.Y+y, c)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// RectOutline draws the edges of r. Corners are truncated to pixels and
// clamped into the image. Horizontal edges cover [x0, x1) and vertical
// edges [y0, y1), so the pixel at (x1, y1) stays untouched.
func RectOutline(img *image.RGBA, r field.Rect, c color.RGBA) {
	b := img.Bounds()
	if b.Empty() {
		return
	}
	x0 := lo.Clamp(int(r.X0), 0, b.Dx()-1) + b.Min.X
	y0 := lo.Clamp(int(r.Y0), 0, b.Dy()-1) + b.Min.Y
	x1 := lo.Clamp(int(r.X1), 0, b.Dx()-1) + b.Min.X
	y1 := lo.Clamp(int(r.Y1), 0, b.Dy()-1) + b.Min.Y
	for x := x0; x < x1; x++ {
		img.SetRGBA(x, y0, c)
		img.SetRGBA(x, y1, c)
	}
	for y := y0; y < y1; y++ {
		img.SetRGBA(x0, y, c)
		img.SetRGBA(x1, y, c)
	}
}

// Attenuate returns a copy of img with every color channel multiplied by
// factor and truncated.
func Attenuate(img *image.RGBA, factor float64) *image.RGBA {
	out := Clone(img)
	for i := 0; i < len(out.Pix); i += 4 {
		for c := range 3 {
			out.Pix[i+c] = uint8(float64(out.Pix[i+c]) * factor)
		}
	}
	return out
}

// Concat places b after a, to the right or, when vertical is set, below.
// The canvas is sized to hold both.
func Concat(a, b *image.RGBA, vertical bool) *image.RGBA {
	ab, bb := a.Bounds(), b.Bounds()
	var size image.Point
	var offset image.Point
	if vertical {
		size = image.Pt(max(ab.Dx(), bb.Dx()), ab.Dy()+bb.Dy())
		offset = image.Pt(0, ab.Dy())
	} else {
		size = image.Pt(ab.Dx()+bb.Dx(), max(ab.Dy(), bb.Dy()))
		offset = image.Pt(ab.Dx(), 0)
	}
	out := image.NewRGBA(image.Rectangle{Max: size})
	draw.Draw(out, image.Rectangle{Max: ab.Size()}, a, ab.Min, draw.Src)
	draw.Draw(out, image.Rectangle{Min: offset, Max: offset.Add(bb.Size())}, b, bb.Min, draw.Src)
	return out
}
