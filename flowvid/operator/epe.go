// Package operator combines streams into new streams: endpoint error,
// point and rectangle advection, and the drawing operators that annotate
// RGB frames.
package operator

import (
	"math"

	"github.com/lguimbarda/flowvid/flowvid/core"
	"github.com/lguimbarda/flowvid/flowvid/field"
)

// EndPointError compares an estimated flow stream with its ground truth and
// produces, per frame, the per-pixel Euclidean distance between the two
// vectors. Both streams must have the same length and, frame by frame, the
// same size.
func EndPointError(est, gt field.Stream) (field.Stream, error) {
	if err := core.Expect("EndPointError", est, core.KindFlow); err != nil {
		return nil, err
	}
	if err := core.Expect("EndPointError", gt, core.KindFlow); err != nil {
		return nil, err
	}
	return core.Zip(est, gt, core.KindEPE, epe)
}

func epe(est, gt *field.Field) (*field.Field, error) {
	if err := est.CheckShape(gt); err != nil {
		return nil, core.Invalidf("endpoint error: %v", err)
	}
	out := field.New(image0(est), 1)
	eb, gb := est.Bounds(), gt.Bounds()
	for y := 0; y < eb.Dy(); y++ {
		for x := 0; x < eb.Dx(); x++ {
			eu, ev := est.Vec(eb.Min.X+x, eb.Min.Y+y)
			gu, gv := gt.Vec(gb.Min.X+x, gb.Min.Y+y)
			du, dv := eu-gu, ev-gv
			out.Set(x, y, 0, float32(math.Sqrt(du*du+dv*dv)))
		}
	}
	return out, nil
}
