// Package convert turns numeric frame streams into images and splits flow
// fields into their components.
package convert

import (
	"context"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/lguimbarda/flowvid/flowvid/core"
	"github.com/lguimbarda/flowvid/flowvid/field"
	"github.com/lguimbarda/flowvid/flowvid/wheel"
)

// FlowToRGB colors each flow frame with the hue wheel. Input should be
// normalized so magnitudes lie in [0, 1].
func FlowToRGB(s field.Stream) (field.ImageStream, error) {
	if err := core.Expect("FlowToRGB", s, core.KindFlow); err != nil {
		return nil, err
	}
	return core.Map(s, core.KindRGB, func(f *field.Field) (*image.RGBA, error) {
		return wheel.FieldToRGBA(f), nil
	}), nil
}

// DefaultEPEColor is the base color EPEToRGB scales when none is given.
var DefaultEPEColor = color.RGBA{R: 255, G: 255, A: 255}

func scale8(c uint8, f float64) uint8 {
	v := math.Floor(float64(c) * f)
	switch {
	case v <= 0 || math.IsNaN(v):
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v)
}

// EPEToRGB paints each error map by scaling base by the per-pixel error.
// The stream should be normalized to [0, 1] first; values outside that
// range saturate.
func EPEToRGB(s field.Stream, base color.RGBA) (field.ImageStream, error) {
	if err := core.Expect("EPEToRGB", s, core.KindEPE); err != nil {
		return nil, err
	}
	return core.Map(s, core.KindRGB, func(f *field.Field) (*image.RGBA, error) {
		b := f.Bounds()
		img := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				e := float64(f.At(x, y)[0])
				img.SetRGBA(x-b.Min.X, y-b.Min.Y, color.RGBA{
					R: scale8(base.R, e),
					G: scale8(base.G, e),
					B: scale8(base.B, e),
					A: 255,
				})
			}
		}
		return img, nil
	}), nil
}

// Channel selects one component of a flow field.
type Channel int

const (
	U Channel = iota // horizontal
	V                // vertical
)

func (c Channel) String() string {
	if c == V {
		return "v"
	}
	return "u"
}

// ParseChannel accepts "u" or "v" in either case.
func ParseChannel(s string) (Channel, error) {
	switch strings.ToLower(s) {
	case "u":
		return U, nil
	case "v":
		return V, nil
	}
	return 0, core.Invalidf("channel %q is neither u nor v", s)
}

func checkChannel(c Channel) error {
	if c != U && c != V {
		return core.Invalidf("channel %d is neither u nor v", c)
	}
	return nil
}

// SplitUV extracts one component of every flow frame as a single-channel
// field of kind channel.
func SplitUV(s field.Stream, c Channel) (field.Stream, error) {
	if err := core.Expect("SplitUV", s, core.KindFlow); err != nil {
		return nil, err
	}
	if err := checkChannel(c); err != nil {
		return nil, err
	}
	return core.Map(s, core.KindChannel, func(f *field.Field) (*field.Field, error) {
		return f.Channel(int(c)), nil
	}), nil
}

// SplitUVFlow keeps one component of every flow frame and zeroes the other,
// so the result is still a flow stream.
func SplitUVFlow(s field.Stream, c Channel) (field.Stream, error) {
	if err := core.Expect("SplitUV", s, core.KindFlow); err != nil {
		return nil, err
	}
	if err := checkChannel(c); err != nil {
		return nil, err
	}
	other := 1 - int(c)
	return core.Map(s, core.KindFlow, func(f *field.Field) (*field.Field, error) {
		g := f.Clone()
		for i := other; i < len(g.Pix); i += g.Channels {
			g.Pix[i] = 0
		}
		return g, nil
	}), nil
}

// SplitUVRGB renders one component of every flow frame as gray, mapping
// -1 to black and 1 to white. Unless quiet is set, frames with components
// outside [-1, 1] are reported through the context's logger, since the
// stream was probably not normalized.
func SplitUVRGB(ctx context.Context, s field.Stream, c Channel, quiet bool) (field.ImageStream, error) {
	split, err := SplitUV(s, c)
	if err != nil {
		return nil, err
	}
	log := core.Logger(ctx)
	return core.Map(split, core.KindRGB, func(f *field.Field) (*image.RGBA, error) {
		b := f.Bounds()
		img := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		warned := quiet
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				v := float64(f.At(x, y)[0])
				if !warned && math.Abs(v) > 1 {
					log.Warn("split channel exceeds [-1, 1]; normalize the flow first", "channel", c, "value", v)
					warned = true
				}
				g := scale8(1, v*127.5+127.5)
				img.SetRGBA(x-b.Min.X, y-b.Min.Y, color.RGBA{R: g, G: g, B: g, A: 255})
			}
		}
		return img, nil
	}), nil
}
