package operator

import (
	"context"
	"image"
	"image/color"

	"github.com/lguimbarda/flowvid/flowvid/core"
	"github.com/lguimbarda/flowvid/flowvid/field"
	"github.com/lguimbarda/flowvid/flowvid/raster"
)

// DrawRectangle outlines rects[i] on a copy of images[i]. The result is as
// long as the shorter input.
func DrawRectangle(images field.ImageStream, rects field.RectStream, c color.RGBA) (field.ImageStream, error) {
	if err := core.Expect("DrawRectangle", images, core.KindRGB); err != nil {
		return nil, err
	}
	if err := core.Expect("DrawRectangle", rects, core.KindRect); err != nil {
		return nil, err
	}
	return core.ZipShortest(images, rects, core.KindRGB, func(img *image.RGBA, r field.Rect) (*image.RGBA, error) {
		out := raster.Clone(img)
		raster.RectOutline(out, r, c)
		return out, nil
	}), nil
}

// DrawPoints marks points[i] on a copy of images[i] with crosses, and draws
// the path every point took over the last numTrail frames. Point j keeps
// color c.For(j) in every frame. The result is as long as the shorter input
// and is Indexed when both inputs are.
func DrawPoints(images field.ImageStream, points field.PointStream, c raster.Color, numTrail int) (field.ImageStream, error) {
	if err := core.Expect("DrawPoints", images, core.KindRGB); err != nil {
		return nil, err
	}
	if err := core.Expect("DrawPoints", points, core.KindPoint); err != nil {
		return nil, err
	}
	if numTrail < 1 {
		return nil, core.Invalidf("DrawPoints: trail length must be at least 1, got %d", numTrail)
	}
	if c.Mode == raster.Flow {
		return nil, core.Invalidf("DrawPoints: color %q is only valid for arrows", c)
	}
	n := min(images.Len(), points.Len())

	ii, iok := images.(core.Indexed[*image.RGBA])
	pi, pok := points.(core.Indexed[field.Points])
	if iok && pok {
		return core.FromFunc(core.KindRGB, n, func(ctx context.Context, i int) (*image.RGBA, error) {
			img, err := ii.At(ctx, i)
			if err != nil {
				return nil, err
			}
			trail := make([]field.Points, 0, numTrail)
			for k := max(0, i-numTrail+1); k <= i; k++ {
				ps, err := pi.At(ctx, k)
				if err != nil {
					return nil, err
				}
				trail = append(trail, ps)
			}
			return drawTrail(img, trail, c), nil
		}), nil
	}

	frames := core.ZipShortest(images, points, core.KindUnknown, pairOf[field.Points])
	return core.Sequence(core.KindRGB, n, func(ctx context.Context, yield func(*image.RGBA) bool) error {
		trail := make([]field.Points, 0, numTrail)
		for res := range frames.All(ctx) {
			fr, err := res.Unwrap()
			if err != nil {
				return err
			}
			if len(trail) == numTrail {
				trail = append(trail[:0], trail[1:]...)
			}
			trail = append(trail, fr.v)
			if !yield(drawTrail(fr.img, trail, c)) {
				return nil
			}
		}
		return nil
	}), nil
}

// framed pairs a frame with the annotation drawn on it.
type framed[T any] struct {
	img *image.RGBA
	v   T
}

func pairOf[T any](img *image.RGBA, v T) (framed[T], error) {
	return framed[T]{img, v}, nil
}

// drawTrail joins consecutive point sets of trail with lines and marks the
// newest set with crosses.
func drawTrail(img *image.RGBA, trail []field.Points, c raster.Color) *image.RGBA {
	out := raster.Clone(img)
	for k := 1; k < len(trail); k++ {
		prev, cur := trail[k-1], trail[k]
		for j := range min(len(prev), len(cur)) {
			raster.Line(out, prev[j], cur[j], c.For(j))
		}
	}
	if len(trail) > 0 {
		raster.Crosses(out, trail[len(trail)-1], c)
	}
	return out
}
