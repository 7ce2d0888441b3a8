package operator

import (
	"context"
	"image"

	"github.com/lguimbarda/flowvid/flowvid/core"
	"github.com/lguimbarda/flowvid/flowvid/field"
	"github.com/lguimbarda/flowvid/flowvid/sample"
)

// image0 returns f's bounds moved to the origin.
func image0(f *field.Field) image.Rectangle {
	return image.Rectangle{Max: f.Bounds().Size()}
}

// AddFlowPoints moves a set of seed points through a flow stream. The
// result has one more element than flow: element 0 is the seed itself and
// element i is the outcome of applying flow frame i-1.
//
// With accumulate set, each frame moves the points produced by the previous
// frame, tracking them through the video; the stream is then
// sequential-only. Without it every frame moves the original seed
// independently, and the stream is Indexed whenever flow is.
func AddFlowPoints(seed field.Points, flow field.Stream, interpolate, accumulate bool) (field.PointStream, error) {
	if err := core.Expect("AddFlowPoints", flow, core.KindFlow); err != nil {
		return nil, err
	}
	seed = seed.Clone()
	n := flow.Len() + 1

	if ix, ok := flow.(core.Indexed[*field.Field]); ok && !accumulate {
		return core.FromFunc(core.KindPoint, n, func(ctx context.Context, i int) (field.Points, error) {
			if i == 0 {
				return seed.Clone(), nil
			}
			f, err := ix.At(ctx, i-1)
			if err != nil {
				return nil, err
			}
			return sample.Advect(seed, f, interpolate), nil
		}), nil
	}

	return core.Sequence(core.KindPoint, n, func(ctx context.Context, yield func(field.Points) bool) error {
		if !yield(seed.Clone()) {
			return nil
		}
		cur := seed
		for res := range flow.All(ctx) {
			if res.IsError() {
				return res.Error()
			}
			next := sample.Advect(cur, res.Value(), interpolate)
			if accumulate {
				cur = next
			}
			if !yield(next) {
				return nil
			}
		}
		return nil
	}), nil
}

// AddFlowRect moves a rectangle through a flow stream by advecting its two
// corners independently. See AddFlowPoints for the meaning of the flags and
// the shape of the result.
func AddFlowRect(seed field.Rect, flow field.Stream, interpolate, accumulate bool) (field.RectStream, error) {
	points, err := AddFlowPoints(seed.Corners(), flow, interpolate, accumulate)
	if err != nil {
		return nil, err
	}
	return core.Map(points, core.KindRect, func(ps field.Points) (field.Rect, error) {
		return field.RectFromCorners(ps), nil
	}), nil
}
