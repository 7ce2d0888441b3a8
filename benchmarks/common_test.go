// Package benchmarks compares flowvid's frame pipelines against plain
// slice processing with other Go libraries.
package benchmarks

import (
	"math"

	"github.com/lguimbarda/flowvid/flowvid/field"
)

// Frame sizes.
const (
	SmallSide  = 64
	MediumSide = 256
	LargeSide  = 640
)

const frameCount = 16

// swirl builds n flow fields of side×side pixels rotating around the
// centre, so every wheel segment is exercised.
func swirl(n, side int) []*field.Field {
	c := float64(side) / 2
	out := make([]*field.Field, n)
	for i := range out {
		f := field.NewFlow(side, side)
		phase := float64(i) / float64(n) * math.Pi
		for y := range side {
			for x := range side {
				dx, dy := float64(x)-c, float64(y)-c
				s, co := math.Sincos(phase)
				f.SetVec(x, y, (dx*co-dy*s)/c, (dx*s+dy*co)/c)
			}
		}
		out[i] = f
	}
	return out
}
