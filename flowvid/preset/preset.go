// Package preset assembles the ready-made pipelines exposed by the
// command line: each preset wires sources, filters, operators and a sink
// from a Config.
package preset

import (
	"context"
	"errors"
	"image"
	"slices"

	"github.com/samber/lo"
	"gonum.org/v1/plot/vg"

	"github.com/lguimbarda/flowvid/flowvid/convert"
	"github.com/lguimbarda/flowvid/flowvid/core"
	"github.com/lguimbarda/flowvid/flowvid/field"
	"github.com/lguimbarda/flowvid/flowvid/filter"
	"github.com/lguimbarda/flowvid/flowvid/input"
	"github.com/lguimbarda/flowvid/flowvid/operator"
	"github.com/lguimbarda/flowvid/flowvid/output"
	"github.com/lguimbarda/flowvid/flowvid/parallel"
	"github.com/lguimbarda/flowvid/flowvid/raster"
	"github.com/lguimbarda/flowvid/flowvid/sql"
)

// Preset names.
const (
	ColorFlow       = "color_flow"
	ColorEPE        = "color_epe"
	FlowArrows      = "flow_arrows"
	PlotEPE         = "plot_epe"
	TrackPoints     = "track_points"
	TrackSideBySide = "track_side_by_side"
)

func unknown(name string) error {
	return core.Invalidf("unknown preset %q, want one of %v", name, Names())
}

type runFunc func(context.Context, Config) error

var presets = map[string]runFunc{
	ColorFlow:       runColorFlow,
	ColorEPE:        runColorEPE,
	FlowArrows:      runFlowArrows,
	PlotEPE:         runPlotEPE,
	TrackPoints:     runTrackPoints,
	TrackSideBySide: runTrackSideBySide,
}

// Names lists the presets in alphabetical order.
func Names() []string {
	names := lo.Keys(presets)
	slices.Sort(names)
	return names
}

// Run executes preset with c.
func Run(ctx context.Context, preset string, c Config) error {
	run, ok := presets[preset]
	if !ok {
		return unknown(preset)
	}
	core.Logger(ctx).Info("running preset", "preset", preset)
	return run(ctx, c)
}

func (c Config) window() []input.Option {
	opts := []input.Option{input.First(c.First)}
	if c.Count > 0 {
		opts = append(opts, input.Count(c.Count))
	}
	return opts
}

func (c Config) normalize(ctx context.Context, s field.Stream) (field.Stream, error) {
	switch c.Normalize {
	case "frame":
		return filter.NormalizeFrame(s)
	case "video":
		return filter.NormalizeVideo(ctx, s, c.ClampPct, c.Gamma)
	case "none", "":
		return s, nil
	}
	return nil, core.Invalidf("normalization %q is not frame, video or none", c.Normalize)
}

// save renders images with up to Workers frames in flight and writes them
// to the configured sink.
func (c Config) save(ctx context.Context, images field.ImageStream) error {
	return c.Output.write(ctx, parallel.Prefetch(images, c.Workers))
}

func (o Output) write(ctx context.Context, images field.ImageStream) error {
	switch o.Type {
	case "images":
		w, err := output.NewImageWriter(o.Path, o.NameFormat, o.FirstID)
		if err != nil {
			return err
		}
		return w.SaveAll(ctx, images)
	case "video", "":
		w, err := output.NewVideoWriter(ctx, o.Path, o.Framerate)
		if err != nil {
			return err
		}
		if err := w.AddAll(ctx, images); err != nil {
			return errors.Join(err, w.Close())
		}
		return w.Close()
	}
	return core.Invalidf("output type %q is not video or images", o.Type)
}

func runColorFlow(ctx context.Context, c Config) error {
	flows, err := input.Flo(ctx, c.FloDir, c.window()...)
	if err != nil {
		return err
	}
	if c.AccumulateFlow {
		if flows, err = filter.Accumulate(flows, c.Interpolate); err != nil {
			return err
		}
	}
	if flows, err = c.normalize(ctx, flows); err != nil {
		return err
	}
	images, err := convert.FlowToRGB(flows)
	if err != nil {
		return err
	}
	return c.save(ctx, images)
}

// epe builds the endpoint error stream of the estimated and ground truth
// flow directories and records its statistics when a database is set.
func (c Config) epe(ctx context.Context, preset string) (field.Stream, error) {
	est, err := input.Flo(ctx, c.FloEstDir, c.window()...)
	if err != nil {
		return nil, err
	}
	gt, err := input.Flo(ctx, c.FloGTDir, c.window()...)
	if err != nil {
		return nil, err
	}
	epe, err := operator.EndPointError(est, gt)
	if err != nil {
		return nil, err
	}
	if c.StatsDB != "" {
		if err := record(ctx, c.StatsDB, preset, epe); err != nil {
			return nil, err
		}
	}
	return epe, nil
}

func record(ctx context.Context, dsn, preset string, epe field.Stream) error {
	store, err := sql.Open(ctx, dsn)
	if err != nil {
		return err
	}
	defer store.Close()
	run, err := store.BeginRun(ctx, preset)
	if err != nil {
		return err
	}
	_, err = store.RecordFrames(ctx, run.ID, epe)
	return err
}

func runColorEPE(ctx context.Context, c Config) error {
	epe, err := c.epe(ctx, ColorEPE)
	if err != nil {
		return err
	}
	if epe, err = c.normalize(ctx, epe); err != nil {
		return err
	}
	if c.EPEColor.Mode != raster.Fixed {
		return core.Invalidf("epe color must be a fixed color, got %q", c.EPEColor)
	}
	images, err := convert.EPEToRGB(epe, c.EPEColor.Fixed)
	if err != nil {
		return err
	}
	return c.save(ctx, images)
}

func runPlotEPE(ctx context.Context, c Config) error {
	epe, err := c.epe(ctx, PlotEPE)
	if err != nil {
		return err
	}
	h, err := output.NewEPEHistogram(ctx, epe, output.Cumulative(c.Cumulative), output.Density(c.Density))
	if err != nil {
		return err
	}
	return h.Save(c.Output.Path, 6*vg.Inch, 4.5*vg.Inch)
}

func runFlowArrows(ctx context.Context, c Config) error {
	flows, err := input.Flo(ctx, c.FloDir, c.window()...)
	if err != nil {
		return err
	}
	var background field.ImageStream
	opts := []operator.ArrowOption{
		operator.WithSubsample(c.Subsample),
		operator.WithArrowMinAlpha(c.ArrowMinAlpha),
	}
	if c.FlowBackground {
		norm, err := filter.NormalizeFrame(flows)
		if err != nil {
			return err
		}
		if background, err = convert.FlowToRGB(norm); err != nil {
			return err
		}
		opts = append(opts,
			operator.WithArrowColor(raster.FixedColor(colorBlack)),
			operator.WithFlatColors(true))
	} else {
		if background, err = input.RGB(ctx, c.RGBDir, c.window()...); err != nil {
			return err
		}
		opts = append(opts,
			operator.WithBackgroundAttenuation(0.4),
			operator.WithArrowColor(raster.Color{Mode: raster.Flow}))
	}
	images, err := operator.DrawFlowArrows(ctx, background, flows, opts...)
	if err != nil {
		return err
	}
	return c.save(ctx, images)
}

// track loads the frames and seed points of the tracking presets and moves
// the seed through the flow.
func (c Config) track(ctx context.Context) (field.ImageStream, field.PointStream, *image.RGBA, error) {
	flows, err := input.Flo(ctx, c.FloDir, c.window()...)
	if err != nil {
		return nil, nil, nil, err
	}
	images, err := input.RGB(ctx, c.RGBDir, c.window()...)
	if err != nil {
		return nil, nil, nil, err
	}
	first, err := core.First(ctx, images)
	if err != nil {
		return nil, nil, nil, err
	}
	seed, err := c.seed(ctx, first.Bounds().Size())
	if err != nil {
		return nil, nil, nil, err
	}
	points, err := operator.AddFlowPoints(seed, flows, c.Interpolate, c.Accumulate)
	if err != nil {
		return nil, nil, nil, err
	}
	return images, points, first, nil
}

func (c Config) seed(ctx context.Context, size image.Point) (field.Points, error) {
	if c.PointsFile != "" {
		s, err := input.ReadPoints(c.PointsFile)
		if err != nil {
			return nil, err
		}
		return core.First(ctx, s)
	}
	return input.RandomPoints(c.NumPoints, size.X, size.Y, c.Seed)
}

func runTrackPoints(ctx context.Context, c Config) error {
	images, points, _, err := c.track(ctx)
	if err != nil {
		return err
	}
	out, err := operator.DrawPoints(images, points, c.PointColor, c.NumTrail)
	if err != nil {
		return err
	}
	return c.save(ctx, out)
}

func runTrackSideBySide(ctx context.Context, c Config) error {
	images, points, first, err := c.track(ctx)
	if err != nil {
		return err
	}
	// Wide frames stack better vertically.
	b := first.Bounds()
	out, err := operator.TrackFromFirst(points, images, c.PointColor, c.DrawLines, b.Dx() > b.Dy())
	if err != nil {
		return err
	}
	return c.save(ctx, out)
}
