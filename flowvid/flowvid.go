// Package flowvid turns optical flow sequences into images, videos and
// plots.
//
// This package is the user-facing API: it re-exports the stream types and
// the most common sources, filters, operators and sinks so a pipeline can
// be written without importing the subpackages. The presets in
// flowvid/preset assemble complete pipelines from these pieces.
package flowvid

import (
	"context"
	"image"
	"image/color"

	"github.com/lguimbarda/flowvid/flowvid/convert"
	"github.com/lguimbarda/flowvid/flowvid/core"
	"github.com/lguimbarda/flowvid/flowvid/field"
	"github.com/lguimbarda/flowvid/flowvid/filter"
	"github.com/lguimbarda/flowvid/flowvid/input"
	"github.com/lguimbarda/flowvid/flowvid/operator"
	"github.com/lguimbarda/flowvid/flowvid/output"
	"github.com/lguimbarda/flowvid/flowvid/raster"
)

// Type aliases for the stream abstractions.
type (
	// Stream is a re-iterable, length-aware sequence of frames.
	Stream[T any] = core.Stream[T]

	// Indexed is a Stream that can also fetch frame i directly.
	Indexed[T any] = core.Indexed[T]

	// Result holds either a frame or the error that replaced it.
	Result[T any] = core.Result[T]

	// Hooks observes frames as a terminal consumes a stream.
	Hooks[T any] = core.Hooks[T]

	// Field is a dense float32 raster: flow, error map or split channel.
	Field = field.Field

	// Point is a sub-pixel position; Points is one set per frame.
	Point  = field.Point
	Points = field.Points
	Rect   = field.Rect

	// Color selects fixed, random or flow-derived drawing colors.
	Color = raster.Color
)

// Stream kinds.
const (
	KindFlow  = core.KindFlow
	KindRGB   = core.KindRGB
	KindEPE   = core.KindEPE
	KindRect  = core.KindRect
	KindPoint = core.KindPoint
)

// Error sentinels; match them with errors.Is.
var (
	ErrInvalidArgument = core.ErrInvalidArgument
	ErrTypeMismatch    = core.ErrTypeMismatch
	ErrLengthMismatch  = core.ErrLengthMismatch
	ErrMalformedFile   = core.ErrMalformedFile
	ErrSourceNotFound  = core.ErrSourceNotFound
)

// Sources.

// ReadFlow opens a .flo file or a directory of them.
func ReadFlow(ctx context.Context, path string, opts ...input.Option) (Stream[*Field], error) {
	return input.Flo(ctx, path, opts...)
}

// ReadRGB opens an image file or a directory of images.
func ReadRGB(ctx context.Context, path string, opts ...input.Option) (Stream[*image.RGBA], error) {
	return input.RGB(ctx, path, opts...)
}

// Filters and conversions.

// NormalizeFrame scales every frame by its own largest magnitude.
func NormalizeFrame(s Stream[*Field]) (Stream[*Field], error) {
	return filter.NormalizeFrame(s)
}

// NormalizeVideo scales the whole sequence by one clamped threshold.
func NormalizeVideo(ctx context.Context, s Stream[*Field], clampPct, gamma float64) (Stream[*Field], error) {
	return filter.NormalizeVideo(ctx, s, clampPct, gamma)
}

// Accumulate integrates a flow sequence from its first frame.
func Accumulate(s Stream[*Field], interpolate bool) (Stream[*Field], error) {
	return filter.Accumulate(s, interpolate)
}

// FlowToRGB colors flow with the color wheel.
func FlowToRGB(s Stream[*Field]) (Stream[*image.RGBA], error) {
	return convert.FlowToRGB(s)
}

// EPEToRGB paints error maps with base scaled by the error.
func EPEToRGB(s Stream[*Field], base color.RGBA) (Stream[*image.RGBA], error) {
	return convert.EPEToRGB(s, base)
}

// Operators.

// EndPointError compares estimated flow to ground truth frame by frame.
func EndPointError(est, gt Stream[*Field]) (Stream[*Field], error) {
	return operator.EndPointError(est, gt)
}

// TrackPoints moves seed points through a flow sequence.
func TrackPoints(seed Points, flow Stream[*Field], interpolate, accumulate bool) (Stream[Points], error) {
	return operator.AddFlowPoints(seed, flow, interpolate, accumulate)
}

// TrackRect moves a rectangle's corners through a flow sequence.
func TrackRect(seed Rect, flow Stream[*Field], interpolate, accumulate bool) (Stream[Rect], error) {
	return operator.AddFlowRect(seed, flow, interpolate, accumulate)
}

// Sinks.

// SaveVideo encodes a stream as a video file, GIF in process and every
// other container through ffmpeg.
func SaveVideo(ctx context.Context, s Stream[*image.RGBA], path string, framerate float64) error {
	w, err := output.NewVideoWriter(ctx, path, framerate)
	if err != nil {
		return err
	}
	if err := w.AddAll(ctx, s); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// SaveImages writes one numbered image per frame into dir.
func SaveImages(ctx context.Context, s Stream[*image.RGBA], dir, format string, firstID int) error {
	w, err := output.NewImageWriter(dir, format, firstID)
	if err != nil {
		return err
	}
	return w.SaveAll(ctx, s)
}

// Collect drains a stream into a slice, stopping at the first error.
func Collect[T any](ctx context.Context, s Stream[T]) ([]T, error) {
	return core.Slice(ctx, s)
}
