package operator

import (
	"context"
	"image"

	"github.com/lguimbarda/flowvid/flowvid/core"
	"github.com/lguimbarda/flowvid/flowvid/field"
	"github.com/lguimbarda/flowvid/flowvid/raster"
)

// TrackFromFirst shows each frame next to the first one. Frame i of the
// result is images[0] and images[i] side by side (stacked when vertical is
// set), with points[0] marked on the left half and points[i] on the right.
// With drawLines, point j is joined across the two halves.
func TrackFromFirst(points field.PointStream, images field.ImageStream, c raster.Color, drawLines, vertical bool) (field.ImageStream, error) {
	if err := core.Expect("TrackFromFirst", points, core.KindPoint); err != nil {
		return nil, err
	}
	if err := core.Expect("TrackFromFirst", images, core.KindRGB); err != nil {
		return nil, err
	}
	if c.Mode == raster.Flow {
		return nil, core.Invalidf("TrackFromFirst: color %q is only valid for arrows", c)
	}
	t := tracker{color: c, lines: drawLines, vertical: vertical}
	n := min(images.Len(), points.Len())

	ii, iok := images.(core.Indexed[*image.RGBA])
	pi, pok := points.(core.Indexed[field.Points])
	if iok && pok {
		at := func(ctx context.Context, i int) (framed[field.Points], error) {
			img, err := ii.At(ctx, i)
			if err != nil {
				return framed[field.Points]{}, err
			}
			ps, err := pi.At(ctx, i)
			return framed[field.Points]{img, ps}, err
		}
		return core.FromFunc(core.KindRGB, n, func(ctx context.Context, i int) (*image.RGBA, error) {
			first, err := at(ctx, 0)
			if err != nil {
				return nil, err
			}
			cur, err := at(ctx, i)
			if err != nil {
				return nil, err
			}
			return t.draw(first, cur), nil
		}), nil
	}

	frames := core.ZipShortest(images, points, core.KindUnknown, pairOf[field.Points])
	return core.Sequence(core.KindRGB, n, func(ctx context.Context, yield func(*image.RGBA) bool) error {
		var first framed[field.Points]
		i := 0
		for res := range frames.All(ctx) {
			cur, err := res.Unwrap()
			if err != nil {
				return err
			}
			if i == 0 {
				first = cur
			}
			i++
			if !yield(t.draw(first, cur)) {
				return nil
			}
		}
		return nil
	}), nil
}

type tracker struct {
	color    raster.Color
	lines    bool
	vertical bool
}

func (t tracker) draw(first, cur framed[field.Points]) *image.RGBA {
	out := raster.Concat(first.img, cur.img, t.vertical)
	var dx, dy float64
	if t.vertical {
		dy = float64(first.img.Bounds().Dy())
	} else {
		dx = float64(first.img.Bounds().Dx())
	}
	moved := make(field.Points, len(cur.v))
	for j, p := range cur.v {
		moved[j] = p.Add(dx, dy)
	}
	if t.lines {
		for j := range min(len(first.v), len(moved)) {
			raster.Line(out, first.v[j], moved[j], t.color.For(j))
		}
	}
	raster.Crosses(out, first.v, t.color)
	raster.Crosses(out, moved, t.color)
	return out
}
