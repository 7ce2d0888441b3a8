package filter

import (
	"image"

	"github.com/lguimbarda/flowvid/flowvid/core"
	"github.com/lguimbarda/flowvid/flowvid/field"
	"github.com/lguimbarda/flowvid/flowvid/sample"
)

// Accumulator turns frame-to-frame flow (0→1, 1→2, ...) into flow from the
// first frame (0→1, 0→2, ...). It keeps a float64 running sum shaped like
// the first frame it sees, so it must be fed frames in order.
type Accumulator struct {
	interpolate bool
	rect        image.Rectangle
	sum         []float64 // u, v per pixel, row-major
}

// NewAccumulator returns an Accumulator with an empty running sum.
// interpolate selects bilinear rather than nearest-pixel sampling.
func NewAccumulator(interpolate bool) *Accumulator {
	return &Accumulator{interpolate: interpolate}
}

func (a *Accumulator) Apply(f *field.Field) (*field.Field, error) {
	if a.sum == nil {
		a.rect = f.Rect
		a.sum = make([]float64, 2*f.Width()*f.Height())
	}
	out := field.New(a.rect, 2)
	if err := out.CheckShape(f); err != nil {
		return nil, core.Invalidf("accumulate: %v", err)
	}
	w, h := a.rect.Dx(), a.rect.Dy()
	for y := range h {
		for x := range w {
			i := 2 * (y*w + x)
			u, v := a.sum[i], a.sum[i+1]
			su, sv := sample.At(f, float64(x)+u, float64(y)+v, a.interpolate)
			a.sum[i], a.sum[i+1] = u+su, v+sv
			out.SetVec(a.rect.Min.X+x, a.rect.Min.Y+y, a.sum[i], a.sum[i+1])
		}
	}
	return out, nil
}

// Fork returns an Accumulator with the same settings and an empty sum.
func (a *Accumulator) Fork() core.Filter[*field.Field] {
	return NewAccumulator(a.interpolate)
}

// Accumulate attaches an Accumulator to a flow stream. The result can only
// be consumed sequentially.
func Accumulate(s field.Stream, interpolate bool) (field.Stream, error) {
	if err := core.Expect("AccumFlow", s, core.KindFlow); err != nil {
		return nil, err
	}
	return core.Chain[*field.Field](s, NewAccumulator(interpolate)), nil
}
