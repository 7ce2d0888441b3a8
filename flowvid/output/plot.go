package output

import (
	"context"
	"fmt"
	"image"
	stddraw "image/draw"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/lguimbarda/flowvid/flowvid/core"
	"github.com/lguimbarda/flowvid/flowvid/field"
)

// EPE histogram range: 40 logarithmically spaced bin edges from 1e-4 to
// 1e3 pixels.
const (
	EPEBinEdges = 40
	EPEMin      = 1e-4
	EPEMax      = 1e3
)

// EPEHistogram is the distribution of endpoint error over every pixel of
// every frame of a stream.
type EPEHistogram struct {
	Edges  []float64 // len(Counts)+1 bin edges
	Counts []float64

	Frames        int
	Width, Height int // of the first frame
	Samples       int // pixels seen, including those outside the bins

	Cumulative bool
	Density    bool
}

// HistogramOption configures NewEPEHistogram.
type HistogramOption func(*EPEHistogram)

// Cumulative makes each bin count everything at or below it.
func Cumulative(on bool) HistogramOption {
	return func(h *EPEHistogram) { h.Cumulative = on }
}

// Density divides counts by the number of pixels so the histogram sums to
// at most one.
func Density(on bool) HistogramOption {
	return func(h *EPEHistogram) { h.Density = on }
}

// NewEPEHistogram consumes an endpoint error stream and bins its values.
// Values outside [EPEMin, EPEMax) are counted in Samples but fall in no
// bin.
func NewEPEHistogram(ctx context.Context, s field.Stream, opts ...HistogramOption) (*EPEHistogram, error) {
	if err := core.Expect("NewEPEHistogram", s, core.KindEPE); err != nil {
		return nil, err
	}
	h := &EPEHistogram{}
	for _, opt := range opts {
		opt(h)
	}
	h.Edges = floats.LogSpan(make([]float64, EPEBinEdges), EPEMin, EPEMax)

	lo, hi := h.Edges[0], h.Edges[len(h.Edges)-1]
	var values []float64
	err := core.Each(ctx, s, func(i int, f *field.Field) error {
		if i == 0 {
			h.Width, h.Height = f.Width(), f.Height()
		}
		h.Frames++
		for _, v := range f.Pix {
			h.Samples++
			if x := float64(v); x >= lo && x < hi {
				values = append(values, x)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(values)
	h.Counts = stat.Histogram(nil, h.Edges, values, nil)
	if h.Density && h.Samples > 0 {
		floats.Scale(1/float64(h.Samples), h.Counts)
	}
	if h.Cumulative {
		floats.CumSum(h.Counts, h.Counts)
	}
	return h, nil
}

// Plot draws the histogram as a step line over a logarithmic error axis.
func (h *EPEHistogram) Plot() (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("EPE distribution\n%d frames @ %dx%dpx", h.Frames, h.Width, h.Height)
	p.X.Label.Text = "Endpoint error (px)"
	p.X.Scale = plot.LogScale{}
	p.X.Tick.Marker = plot.LogTicks{Prec: -1}
	p.X.Min, p.X.Max = h.Edges[0], h.Edges[len(h.Edges)-1]
	if h.Density {
		p.Y.Label.Text = "Fraction of pixels"
	} else {
		p.Y.Label.Text = "Pixels"
	}

	steps := make(plotter.XYs, 0, 2*len(h.Counts))
	for i, c := range h.Counts {
		steps = append(steps,
			plotter.XY{X: h.Edges[i], Y: c},
			plotter.XY{X: h.Edges[i+1], Y: c},
		)
	}
	line, err := plotter.NewLine(steps)
	if err != nil {
		return nil, err
	}
	p.Add(plotter.NewGrid(), line)
	p.Legend.Add("Estimated EPE", line)
	// Cumulative curves rise to the right; keep the legend out of the way.
	p.Legend.Top = !h.Cumulative
	return p, nil
}

// Save renders the plot to path; the format follows the extension (png,
// jpg, svg, pdf, ...).
func (h *EPEHistogram) Save(path string, width, height vg.Length) error {
	p, err := h.Plot()
	if err != nil {
		return err
	}
	return p.Save(width, height, path)
}

// Render draws p into a w×h RGBA image, for use as a video frame.
func Render(p *plot.Plot, w, h int) *image.RGBA {
	c := vgimg.NewWith(vgimg.UseWH(vg.Length(w), vg.Length(h)), vgimg.UseDPI(72))
	p.Draw(draw.New(c))
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	stddraw.Draw(out, out.Bounds(), c.Image(), c.Image().Bounds().Min, stddraw.Src)
	return out
}
