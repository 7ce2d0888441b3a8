// Package raster draws annotations onto RGB frames: point crosses, lines,
// rectangle outlines and flow arrows.
package raster

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/lguimbarda/flowvid/flowvid/core"
)

// Palette holds the colors handed out to points in "random" mode. Point i
// always gets Palette[i%len(Palette)] so colors are stable across frames.
var Palette = [12]color.RGBA{
	{255, 255, 255, 255},
	{0, 0, 255, 255},
	{0, 255, 255, 255},
	{255, 0, 0, 255},
	{255, 255, 0, 255},
	{204, 204, 204, 255},
	{0, 0, 204, 255},
	{0, 0, 153, 255},
	{153, 153, 153, 255},
	{153, 0, 0, 255},
	{204, 0, 0, 255},
	{0, 204, 204, 255},
}

// ColorMode says how an annotation color is chosen.
type ColorMode int

const (
	Fixed  ColorMode = iota // one color for everything
	Random                  // Palette indexed by annotation number
	Flow                    // hue wheel by arrow direction (arrows only)
)

// Color is a parsed color option.
type Color struct {
	Mode  ColorMode
	Fixed color.RGBA
}

// FixedColor returns a Color that always resolves to c.
func FixedColor(c color.RGBA) Color { return Color{Mode: Fixed, Fixed: c} }

// For returns the color of annotation i. Flow mode has no per-index color
// and resolves like Random.
func (c Color) For(i int) color.RGBA {
	if c.Mode == Fixed {
		return c.Fixed
	}
	return Palette[i%len(Palette)]
}

func (c Color) String() string {
	switch c.Mode {
	case Random:
		return "random"
	case Flow:
		return "flow"
	}
	return fmt.Sprintf("%d,%d,%d", c.Fixed.R, c.Fixed.G, c.Fixed.B)
}

// ParseColor accepts "random", "flow", "r,g,b" with components in
// [0, 255], or "#rrggbb".
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "random":
		return Color{Mode: Random}, nil
	case "flow":
		return Color{Mode: Flow}, nil
	}

	if hex, ok := strings.CutPrefix(s, "#"); ok {
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil || len(hex) != 6 {
			return Color{}, core.Invalidf("color %q is not #rrggbb", s)
		}
		return FixedColor(color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}), nil
	}

	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return Color{}, core.Invalidf("color %q is not r,g,b, #rrggbb, random or flow", s)
	}
	var rgb [3]uint8
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return Color{}, core.Invalidf("color component %q not in [0, 255]", p)
		}
		rgb[i] = uint8(v)
	}
	return FixedColor(color.RGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255}), nil
}

// MarshalText lets a Color round-trip through config files.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Color) UnmarshalText(b []byte) error {
	parsed, err := ParseColor(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
