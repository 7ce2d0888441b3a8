// Package wheel maps flow vectors to colors with the Middlebury hue wheel:
// the direction picks a hue, the magnitude picks the saturation.
package wheel

import (
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/lguimbarda/flowvid/flowvid/field"
)

// Segment lengths of the wheel, red→yellow→green→cyan→blue→magenta→red.
const (
	RY = 15
	YG = 6
	GC = 4
	CB = 11
	BM = 13
	MR = 6
)

// Size is the number of entries in the wheel.
const Size = RY + YG + GC + CB + BM + MR

// table is built on first use and never modified afterwards.
var table = sync.OnceValue(func() [Size][3]uint8 {
	var w [Size][3]uint8
	k := 0
	ramp := func(n, i int) uint8 { return uint8(math.Floor(255 * float64(i) / float64(n))) }
	fall := func(n, i int) uint8 { return uint8(math.Ceil(255 * float64(n-i) / float64(n))) }
	for i := range RY {
		w[k] = [3]uint8{255, ramp(RY, i), 0}
		k++
	}
	for i := range YG {
		w[k] = [3]uint8{fall(YG, i), 255, 0}
		k++
	}
	for i := range GC {
		w[k] = [3]uint8{0, 255, ramp(GC, i)}
		k++
	}
	for i := range CB {
		w[k] = [3]uint8{0, fall(CB, i), 255}
		k++
	}
	for i := range BM {
		w[k] = [3]uint8{ramp(BM, i), 0, 255}
		k++
	}
	for i := range MR {
		w[k] = [3]uint8{255, 0, fall(MR, i)}
		k++
	}
	return w
})

// Wheel returns a copy of the color table.
func Wheel() [Size][3]uint8 {
	return table()
}

// Color maps a displacement (u, v), expected to have magnitude at most 1,
// to a color. Zero flow is white; unit flow is fully saturated.
// Channels that leave [0, 255] for magnitudes above 1 are clamped.
func Color(u, v float64) color.RGBA {
	w := table()

	// Conversions block fused multiply-add so every platform rounds alike.
	rad := math.Sqrt(float64(u*u) + float64(v*v))
	a := math.Atan2(-v, -u) / math.Pi
	fk := (a + 1) / 2 * (Size - 1)
	k0 := int(fk)
	k1 := (k0 + 1) % Size
	f := fk - float64(k0)

	var out [3]uint8
	for i := range out {
		c0 := float64(w[k0][i]) / 255
		c1 := float64(w[k1][i]) / 255
		col := float64((1-f)*c0) + float64(f*c1)
		col = 1 - float64(rad*(1-col))
		out[i] = clamp8(math.Floor(col * 255))
	}
	return color.RGBA{R: out[0], G: out[1], B: out[2], A: 255}
}

func clamp8(x float64) uint8 {
	switch {
	case x <= 0 || math.IsNaN(x):
		return 0
	case x >= 255:
		return 255
	}
	return uint8(x)
}

// FieldToRGBA converts a two-channel field to an image, pixel by pixel.
func FieldToRGBA(f *field.Field) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width(), f.Height()))
	b := f.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			u, v := f.Vec(x, y)
			img.SetRGBA(x-b.Min.X, y-b.Min.Y, Color(u, v))
		}
	}
	return img
}
