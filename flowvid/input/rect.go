package input

import (
	"slices"
	"strings"

	"github.com/lguimbarda/flowvid/flowvid/core"
	"github.com/lguimbarda/flowvid/flowvid/field"
)

// DefaultRectFormat describes a rectangle by its top-left corner and size.
const DefaultRectFormat = "x0 y0 xw yw"

var rectTokens = []string{"x0", "y0", "x1", "y1", "xw", "yw", "--"}

// rectFormat maps each token to its column, or -1 when absent.
type rectFormat map[string]int

func parseRectFormat(format string) (rectFormat, error) {
	f := rectFormat{}
	for _, tok := range rectTokens {
		f[tok] = -1
	}
	for col, tok := range strings.Fields(format) {
		if !slices.Contains(rectTokens, tok) {
			return nil, core.Invalidf("rect format %q: unknown field %q", format, tok)
		}
		if tok != "--" {
			f[tok] = col
		}
	}
	if f["x0"] < 0 || f["y0"] < 0 {
		return nil, core.Invalidf("rect format %q needs x0 and y0", format)
	}
	corner := f["x1"] >= 0 && f["y1"] >= 0
	size := f["xw"] >= 0 && f["yw"] >= 0
	if !corner && !size {
		return nil, core.Invalidf("rect format %q needs x1 and y1, or xw and yw", format)
	}
	return f, nil
}

func (f rectFormat) columns() int {
	n := 0
	for _, col := range f {
		n = max(n, col+1)
	}
	return n
}

func (f rectFormat) rect(v []float64) field.Rect {
	r := field.Rect{X0: v[f["x0"]], Y0: v[f["y0"]]}
	if f["x1"] >= 0 && f["y1"] >= 0 {
		r.X1, r.Y1 = v[f["x1"]], v[f["y1"]]
	} else {
		r.X1, r.Y1 = r.X0+v[f["xw"]], r.Y0+v[f["yw"]]
	}
	return r
}

// Rect reads a rectangle track: one rectangle per non-empty line, columns
// laid out as described by format, a space-separated list of x0, y0 (left
// and top), x1, y1 (right and bottom), xw, yw (width and height) and --
// (ignored column). An empty format means DefaultRectFormat. Lines can be
// windowed with First and Count.
func Rect(path, format string, opts ...Option) (field.RectStream, error) {
	if format == "" {
		format = DefaultRectFormat
	}
	f, err := parseRectFormat(format)
	if err != nil {
		return nil, err
	}
	w := newWindow(opts)
	if w.first < 0 {
		return nil, core.Invalidf("rect %s: negative first line %d", path, w.first)
	}
	rows, err := readRows(path)
	if err != nil {
		return nil, err
	}
	need := f.columns()
	rects := make([]field.Rect, 0, len(rows))
	for _, r := range rows {
		if len(r.values) < need {
			return nil, core.Malformedf("%s:%d: %d columns, format %q needs %d", path, r.line, len(r.values), format, need)
		}
		rects = append(rects, f.rect(r.values))
	}

	first := min(w.first, len(rects))
	end := len(rects)
	if w.count >= 0 {
		end = min(first+w.count, end)
	}
	return core.FromSlice(core.KindRect, rects[first:end]), nil
}
