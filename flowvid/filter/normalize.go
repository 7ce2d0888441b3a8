// Package filter provides the per-frame filters that can be chained onto
// flow and endpoint-error streams: magnitude normalization and flow
// accumulation.
package filter

import (
	"context"
	"math"

	"github.com/lguimbarda/flowvid/flowvid/core"
	"github.com/lguimbarda/flowvid/flowvid/field"
)

// FrameNormalizer divides every frame by its own largest magnitude, so that
// the largest vector of each frame has length 1. All-zero frames pass
// through unchanged.
type FrameNormalizer struct{}

func (FrameNormalizer) Apply(f *field.Field) (*field.Field, error) {
	m := f.MaxNorm()
	if m == 0 {
		return f, nil
	}
	return f.Map(func(v float64) float64 { return v / m }), nil
}

// NormalizeFrame attaches a FrameNormalizer to a flow or EPE stream.
func NormalizeFrame(s field.Stream) (field.Stream, error) {
	if err := core.Expect("NormalizeFrame", s, core.KindFlow, core.KindEPE); err != nil {
		return nil, err
	}
	return core.Chain[*field.Field](s, FrameNormalizer{}), nil
}

// VideoNormalizer applies a clamped power curve to every sample using a
// precomputed threshold: components whose magnitude exceeds Clamp saturate
// to ±1, the rest map to sign(c)·(|c|/Clamp)^(1/Gamma).
type VideoNormalizer struct {
	Clamp float64
	Gamma float64
}

func (n VideoNormalizer) Apply(f *field.Field) (*field.Field, error) {
	inv := 1 / n.Gamma
	return f.Map(func(c float64) float64 {
		a := math.Abs(c)
		if a == 0 {
			return 0
		}
		sign := math.Copysign(1, c)
		if a > n.Clamp || n.Clamp == 0 {
			return sign
		}
		return sign * math.Pow(a/n.Clamp, inv)
	}), nil
}

// MaxMagnitude returns the largest per-pixel magnitude over every frame of s.
func MaxMagnitude(ctx context.Context, s field.Stream) (float64, error) {
	var m float64
	err := core.Each(ctx, s, func(_ int, f *field.Field) error {
		m = max(m, f.MaxNorm())
		return nil
	})
	return m, err
}

// NormalizeVideo normalizes a flow or EPE stream against the largest
// magnitude found anywhere in it. Finding that maximum requires a full pass
// over s, which happens here, before the returned stream is consumed.
// The threshold is that maximum times clampPct; see VideoNormalizer.
// clampPct must lie in [0, 1] and gamma must be positive.
func NormalizeVideo(ctx context.Context, s field.Stream, clampPct, gamma float64) (field.Stream, error) {
	if err := core.Expect("NormalizeVideo", s, core.KindFlow, core.KindEPE); err != nil {
		return nil, err
	}
	if clampPct < 0 || clampPct > 1 || math.IsNaN(clampPct) {
		return nil, core.Invalidf("clamp percentage %v outside [0, 1]", clampPct)
	}
	if !(gamma > 0) {
		return nil, core.Invalidf("gamma %v must be positive", gamma)
	}

	log := core.Logger(ctx)
	log.Info("normalizing against whole video", "kind", s.Kind(), "frames", s.Len())
	m, err := MaxMagnitude(ctx, s)
	if err != nil {
		return nil, err
	}
	log.Debug("video maximum found", "max", m, "clamp", m*clampPct)

	return core.Chain[*field.Field](s, VideoNormalizer{Clamp: m * clampPct, Gamma: gamma}), nil
}
