package operator

import (
	"context"
	"image"
	"image/color"
	"math"

	"github.com/lguimbarda/flowvid/flowvid/core"
	"github.com/lguimbarda/flowvid/flowvid/field"
	"github.com/lguimbarda/flowvid/flowvid/raster"
	"github.com/lguimbarda/flowvid/flowvid/wheel"
	"gonum.org/v1/gonum/floats"
)

// ArrowOption configures DrawFlowArrows.
type ArrowOption func(*arrowConfig)

type arrowConfig struct {
	attenuation float64
	color       raster.Color
	flat        bool
	minAlpha    float64
	subsample   int
	ignoreRatio bool
}

func defaultArrowConfig() arrowConfig {
	return arrowConfig{
		color:     raster.Color{Mode: raster.Flow},
		minAlpha:  1,
		subsample: 5,
	}
}

// WithBackgroundAttenuation fades the frame towards black before arrows are
// drawn: 0 keeps it as is, 1 turns it black.
func WithBackgroundAttenuation(a float64) ArrowOption {
	return func(c *arrowConfig) { c.attenuation = a }
}

// WithArrowColor sets the arrow color. Flow mode colors each arrow by its
// direction; Fixed mode paints every arrow the same.
func WithArrowColor(col raster.Color) ArrowOption {
	return func(c *arrowConfig) { c.color = col }
}

// WithFlatColors disables magnitude-dependent arrow opacity.
func WithFlatColors(flat bool) ArrowOption {
	return func(c *arrowConfig) { c.flat = flat }
}

// WithArrowMinAlpha sets the opacity of an arrow with zero flow when colors
// are not flat. The longest arrow of a frame is always opaque.
func WithArrowMinAlpha(a float64) ArrowOption {
	return func(c *arrowConfig) { c.minAlpha = a }
}

// WithSubsample averages the flow over ratio×ratio patches, one arrow each.
func WithSubsample(ratio int) ArrowOption {
	return func(c *arrowConfig) { c.subsample = ratio }
}

// WithIgnoreRatioWarning keeps the subsample ratio as given even when the
// frame size is not a multiple of it.
func WithIgnoreRatioWarning(ignore bool) ArrowOption {
	return func(c *arrowConfig) { c.ignoreRatio = ignore }
}

// DrawFlowArrows draws a subsampled arrow field of flows[i] on top of
// images[i]. The first flow frame is decoded at construction to fit the
// patch grid to the frame size: when the size is not a multiple of the
// ratio the patches are stretched so they tile the frame exactly, unless
// WithIgnoreRatioWarning is given. The result is as long as the shorter
// input.
func DrawFlowArrows(ctx context.Context, images field.ImageStream, flows field.Stream, opts ...ArrowOption) (field.ImageStream, error) {
	if err := core.Expect("DrawFlowArrows", images, core.KindRGB); err != nil {
		return nil, err
	}
	if err := core.Expect("DrawFlowArrows", flows, core.KindFlow); err != nil {
		return nil, err
	}
	cfg := defaultArrowConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	switch {
	case !(cfg.attenuation >= 0 && cfg.attenuation <= 1):
		return nil, core.Invalidf("DrawFlowArrows: background attenuation must be in [0, 1], got %v", cfg.attenuation)
	case cfg.subsample < 1:
		return nil, core.Invalidf("DrawFlowArrows: subsample ratio must be positive, got %d", cfg.subsample)
	case !(cfg.minAlpha >= 0 && cfg.minAlpha <= 1):
		return nil, core.Invalidf("DrawFlowArrows: arrow min alpha must be in [0, 1], got %v", cfg.minAlpha)
	case cfg.color.Mode == raster.Random:
		return nil, core.Invalidf("DrawFlowArrows: arrow color must be %q or a fixed color", "flow")
	}

	d := &arrowDrawer{cfg: cfg, sx: float64(cfg.subsample), sy: float64(cfg.subsample)}
	d.width = max(1, float64(cfg.subsample)/10)
	if flows.Len() > 0 {
		first, err := core.First(ctx, flows)
		if err != nil {
			return nil, err
		}
		d.fit(ctx, first.Width(), first.Height())
	}
	return core.ZipShortest(images, flows, core.KindRGB, d.draw), nil
}

type arrowDrawer struct {
	cfg    arrowConfig
	sx, sy float64
	width  float64
}

// fit stretches the patch size so that a whole number of patches covers a
// w×h frame.
func (d *arrowDrawer) fit(ctx context.Context, w, h int) {
	r := d.cfg.subsample
	if d.cfg.ignoreRatio || (w%r == 0 && h%r == 0) {
		return
	}
	if w >= r {
		d.sx = float64(r) + float64(w%r)/float64(w/r)
	}
	if h >= r {
		d.sy = float64(r) + float64(h%r)/float64(h/r)
	}
	core.Logger(ctx).Warn("subsample ratio stretched to fit frame",
		"ratio", r, "x", d.sx, "y", d.sy, "width", w, "height", h)
}

func (d *arrowDrawer) draw(img *image.RGBA, f *field.Field) (*image.RGBA, error) {
	if d.cfg.attenuation > 0 {
		img = raster.Attenuate(img, 1-d.cfg.attenuation)
	}
	w, h := f.Width(), f.Height()
	ix := int(math.RoundToEven(float64(w) / d.sx))
	iy := int(math.RoundToEven(float64(h) / d.sy))
	if ix == 0 || iy == 0 {
		return raster.Clone(img), nil
	}

	arrows := make([]raster.Arrow, 0, ix*iy)
	for y := range iy {
		for x := range ix {
			px, py := float64(x)*d.sx, float64(y)*d.sy
			qx, qy := math.Min(px+d.sx, float64(w)), math.Min(py+d.sy, float64(h))
			u, v := meanFlow(f, px, py, qx, qy)
			arrows = append(arrows, raster.Arrow{
				X: (float64(x) + 0.5) * d.sx,
				Y: (float64(y) + 0.5) * d.sy,
				U: u,
				V: v,
			})
		}
	}
	d.colorize(arrows)
	return raster.Arrows(img, arrows, d.width), nil
}

// colorize assigns arrow colors and, unless colors are flat, scales them by
// the relative arrow length so that short arrows fade towards minAlpha.
func (d *arrowDrawer) colorize(arrows []raster.Arrow) {
	sq := make([]float64, len(arrows))
	for i, a := range arrows {
		sq[i] = a.U*a.U + a.V*a.V
	}
	maxSq := floats.Max(sq)
	maxNorm := math.Sqrt(maxSq)

	for i := range arrows {
		a := &arrows[i]
		var c color.RGBA
		if d.cfg.color.Mode == raster.Flow {
			if maxNorm > 0 {
				c = wheel.Color(a.U/maxNorm, a.V/maxNorm)
			} else {
				c = wheel.Color(0, 0)
			}
		} else {
			c = d.cfg.color.Fixed
		}
		m := 1.0
		if !d.cfg.flat {
			m = d.cfg.minAlpha
			if maxSq > 0 {
				m += math.Sqrt(sq[i]/maxSq) * (1 - d.cfg.minAlpha)
			}
		}
		a.Color = color.NRGBA{
			R: uint8(float64(c.R) * m),
			G: uint8(float64(c.G) * m),
			B: uint8(float64(c.B) * m),
			A: uint8(255 * m),
		}
	}
}

// meanFlow averages the flow over the patch [px, qx)×[py, qy). Patch edges
// may fall inside a pixel; such pixels contribute in proportion to the
// covered fraction. The patch must lie within the field.
func meanFlow(f *field.Field, px, py, qx, qy float64) (u, v float64) {
	b := f.Bounds()
	var su, sv, area float64
	add := func(x, y int, weight float64) {
		fu, fv := f.Vec(b.Min.X+x, b.Min.Y+y)
		su += fu * weight
		sv += fv * weight
		area += weight
	}
	pxc, pyc := int(math.Ceil(px)), int(math.Ceil(py))
	qxf, qyf := int(math.Floor(qx)), int(math.Floor(qy))

	for y := pyc; y < qyf; y++ {
		for x := pxc; x < qxf; x++ {
			add(x, y, 1)
		}
	}

	remPx := 1 - (px - math.Trunc(px))
	remPy := 1 - (py - math.Trunc(py))
	remQx := qx - math.Trunc(qx)
	remQy := qy - math.Trunc(qy)

	if remPx < 1 {
		for y := pyc; y < qyf; y++ {
			add(pxc-1, y, remPx)
		}
		if remPy < 1 {
			add(int(px), int(py), remPx*remPy)
		}
	}
	if remPy < 1 {
		for x := pxc; x < qxf; x++ {
			add(x, pyc-1, remPy)
		}
		if remQx > 0 {
			add(int(qx), int(py), remQx*remPy)
		}
	}
	if remQx > 0 {
		for y := pyc; y < qyf; y++ {
			add(qxf, y, remQx)
		}
		if remQy > 0 {
			add(int(qx), int(qy), remQx*remQy)
		}
	}
	if remQy > 0 {
		for x := pxc; x < qxf; x++ {
			add(x, qyf, remQy)
		}
		if remPx < 1 {
			add(int(px), int(qy), remPx*remQy)
		}
	}

	if area == 0 {
		return 0, 0
	}
	return su / area, sv / area
}
