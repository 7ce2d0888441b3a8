// Package field implements the numeric frame type shared by flow fields,
// error maps and split flow channels. It is loosely modelled on the Go
// image package: a Field stores float32 samples with a dynamic channel
// count, row-major, and is addressed in image coordinates.
package field

import (
	"fmt"
	"image"
	"math"
)

// Field holds float32 image-like data with one or more channels per pixel.
// A flow field has two channels (u, v) in pixel units; an error map or a
// single flow channel has one.
type Field struct {
	Pix      []float32
	Stride   int
	Channels int
	Rect     image.Rectangle
}

// New creates a zeroed Field covering r with the given channel count.
func New(r image.Rectangle, channels int) *Field {
	w, h := r.Dx(), r.Dy()
	return &Field{
		Pix:      make([]float32, channels*w*h),
		Stride:   channels * w,
		Channels: channels,
		Rect:     r,
	}
}

// NewFlow creates a zeroed w×h two-channel field.
func NewFlow(w, h int) *Field { return New(image.Rect(0, 0, w, h), 2) }

// NewScalar creates a zeroed w×h single-channel field.
func NewScalar(w, h int) *Field { return New(image.Rect(0, 0, w, h), 1) }

// Bounds returns the rectangle the Field covers.
func (f *Field) Bounds() image.Rectangle { return f.Rect }

func (f *Field) Width() int  { return f.Rect.Dx() }
func (f *Field) Height() int { return f.Rect.Dy() }

// PixOffset returns the index of the first channel of pixel (x, y) in Pix.
func (f *Field) PixOffset(x, y int) int {
	return (y-f.Rect.Min.Y)*f.Stride + (x-f.Rect.Min.X)*f.Channels
}

// At returns the channels of pixel (x, y). The slice aliases Pix.
func (f *Field) At(x, y int) []float32 {
	i := f.PixOffset(x, y)
	return f.Pix[i : i+f.Channels : i+f.Channels]
}

// Set stores val in channel c of pixel (x, y).
func (f *Field) Set(x, y, c int, val float32) {
	f.Pix[f.PixOffset(x, y)+c] = val
}

// Vec returns the first two channels of pixel (x, y) as a displacement.
func (f *Field) Vec(x, y int) (u, v float64) {
	i := f.PixOffset(x, y)
	return float64(f.Pix[i]), float64(f.Pix[i+1])
}

// SetVec stores a displacement in the first two channels of pixel (x, y).
func (f *Field) SetVec(x, y int, u, v float64) {
	i := f.PixOffset(x, y)
	f.Pix[i] = float32(u)
	f.Pix[i+1] = float32(v)
}

// Norm returns the Euclidean length of pixel (x, y) across all channels.
// For a single channel this is the absolute value.
func (f *Field) Norm(x, y int) float64 {
	var sum float64
	for _, c := range f.At(x, y) {
		sum += float64(float64(c) * float64(c))
	}
	return math.Sqrt(sum)
}

// MaxNorm returns the largest per-pixel Norm, or 0 for an empty field.
func (f *Field) MaxNorm() float64 {
	var m float64
	for y := f.Rect.Min.Y; y < f.Rect.Max.Y; y++ {
		for x := f.Rect.Min.X; x < f.Rect.Max.X; x++ {
			m = max(m, f.Norm(x, y))
		}
	}
	return m
}

// Clone returns a deep copy of f.
func (f *Field) Clone() *Field {
	g := New(f.Rect, f.Channels)
	for y := f.Rect.Min.Y; y < f.Rect.Max.Y; y++ {
		i := f.PixOffset(f.Rect.Min.X, y)
		j := g.PixOffset(g.Rect.Min.X, y)
		copy(g.Pix[j:j+g.Stride], f.Pix[i:i+g.Stride])
	}
	return g
}

// Map returns a new Field with fn applied to every sample.
func (f *Field) Map(fn func(float64) float64) *Field {
	g := f.Clone()
	for i, v := range g.Pix {
		g.Pix[i] = float32(fn(float64(v)))
	}
	return g
}

// Scale returns a new Field with every sample multiplied by s.
func (f *Field) Scale(s float64) *Field {
	return f.Map(func(v float64) float64 { return v * s })
}

// Channel returns channel c of f as a new single-channel Field.
func (f *Field) Channel(c int) *Field {
	g := New(f.Rect, 1)
	for y := f.Rect.Min.Y; y < f.Rect.Max.Y; y++ {
		for x := f.Rect.Min.X; x < f.Rect.Max.X; x++ {
			g.Set(x, y, 0, f.At(x, y)[c])
		}
	}
	return g
}

// SameShape reports whether g has the same bounds and channel count as f.
func (f *Field) SameShape(g *Field) bool {
	return f.Channels == g.Channels && f.Rect.Size() == g.Rect.Size()
}

// CheckShape returns an error unless g has the same shape as f.
func (f *Field) CheckShape(g *Field) error {
	if !f.SameShape(g) {
		return fmt.Errorf("shape %dx%dx%d does not match %dx%dx%d",
			g.Width(), g.Height(), g.Channels, f.Width(), f.Height(), f.Channels)
	}
	return nil
}
