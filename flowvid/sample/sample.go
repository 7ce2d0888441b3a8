// Package sample reads flow fields at fractional locations and uses that to
// move points and accumulate flow across frames.
//
// Locations are in image coordinates relative to the field's bounds: pixel
// (i, j) covers [i, i+1)×[j, j+1) and its value is taken to sit at the
// pixel centre (i+0.5, j+0.5). Lookups never fail; locations outside the
// field read the nearest border pixel.
package sample

import (
	"math"

	"github.com/lguimbarda/flowvid/flowvid/field"
)

func clampIndex(i, n int) int {
	return min(max(i, 0), n-1)
}

// Nearest returns the vector of the pixel containing (fx, fy), after
// clamping the location into the field.
func Nearest(f *field.Field, fx, fy float64) (u, v float64) {
	b := f.Bounds()
	x := int(math.Max(0, math.Min(fx, float64(b.Dx()-1))))
	y := int(math.Max(0, math.Min(fy, float64(b.Dy()-1))))
	return f.Vec(b.Min.X+x, b.Min.Y+y)
}

// corner returns the lower of the two pixel indices whose centres bracket
// coordinate c.
func corner(c float64) int {
	i := math.Floor(c)
	if c-i > 0.5 {
		return int(i)
	}
	return int(i) - 1
}

// Bilinear interpolates the field at (fx, fy) from the four pixels whose
// centres enclose the location, weighting each by the area of the opposite
// sub-rectangle. At a pixel centre the result is that pixel's value.
func Bilinear(f *field.Field, fx, fy float64) (u, v float64) {
	b := f.Bounds()
	w, h := b.Dx(), b.Dy()

	ix, iy := corner(fx), corner(fy)
	x1, y1 := float64(ix)+0.5, float64(iy)+0.5
	x2, y2 := x1+1, y1+1

	cx1, cx2 := b.Min.X+clampIndex(ix, w), b.Min.X+clampIndex(ix+1, w)
	cy1, cy2 := b.Min.Y+clampIndex(iy, h), b.Min.Y+clampIndex(iy+1, h)

	weights := [4]float64{
		(x2 - fx) * (y2 - fy),
		(x2 - fx) * (fy - y1),
		(fx - x1) * (y2 - fy),
		(fx - x1) * (fy - y1),
	}
	corners := [4][2]int{{cx1, cy1}, {cx1, cy2}, {cx2, cy1}, {cx2, cy2}}
	for k, c := range corners {
		cu, cv := f.Vec(c[0], c[1])
		u += cu * weights[k]
		v += cv * weights[k]
	}
	return u, v
}

// At samples f with Bilinear when interpolate is set, Nearest otherwise.
func At(f *field.Field, fx, fy float64, interpolate bool) (u, v float64) {
	if interpolate {
		return Bilinear(f, fx, fy)
	}
	return Nearest(f, fx, fy)
}

// AddFlows composes two flow fields. For every pixel (x, y) with
// displacement d in acc, next is sampled at (x, y)+d and the sample is added
// to d. The result is a new field; neither input is modified.
func AddFlows(acc, next *field.Field, interpolate bool) *field.Field {
	out := acc.Clone()
	b := acc.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			u, v := acc.Vec(x, y)
			fx := float64(x-b.Min.X) + u
			fy := float64(y-b.Min.Y) + v
			su, sv := At(next, fx, fy, interpolate)
			out.SetVec(x, y, u+su, v+sv)
		}
	}
	return out
}

// Advect moves every point by the flow sampled at its location.
func Advect(ps field.Points, flow *field.Field, interpolate bool) field.Points {
	out := make(field.Points, len(ps))
	for i, p := range ps {
		out[i] = p.Add(At(flow, p.X, p.Y, interpolate))
	}
	return out
}
