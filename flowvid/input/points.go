package input

import (
	"bufio"
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"

	"github.com/lguimbarda/flowvid/flowvid/core"
	"github.com/lguimbarda/flowvid/flowvid/field"
)

// Points wraps one set of seed points as a single-element point stream.
func Points(ps field.Points) field.PointStream {
	return core.FromSlice(core.KindPoint, []field.Points{ps.Clone()})
}

// RandomPoints picks n points uniformly inside a w×h frame. The same seed
// always yields the same points.
func RandomPoints(n, w, h int, seed uint64) (field.Points, error) {
	if n < 0 || w <= 0 || h <= 0 {
		return nil, core.Invalidf("random points: n=%d in %dx%d", n, w, h)
	}
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	ps := make(field.Points, n)
	for i := range ps {
		ps[i] = field.Point{X: r.Float64() * float64(w), Y: r.Float64() * float64(h)}
	}
	return ps, nil
}

// ReadPoints reads a point track: one frame per non-empty line, each line a
// whitespace-separated list of x y pairs.
func ReadPoints(path string) (field.PointStream, error) {
	rows, err := readRows(path)
	if err != nil {
		return nil, err
	}
	frames := make([]field.Points, 0, len(rows))
	for _, row := range rows {
		if len(row.values)%2 != 0 {
			return nil, core.Malformedf("%s:%d: odd number of coordinates", path, row.line)
		}
		ps := make(field.Points, len(row.values)/2)
		for i := range ps {
			ps[i] = field.Point{X: row.values[2*i], Y: row.values[2*i+1]}
		}
		frames = append(frames, ps)
	}
	return core.FromSlice(core.KindPoint, frames), nil
}

type row struct {
	line   int
	values []float64
}

// readRows parses a text file of whitespace-separated numbers, skipping
// blank lines.
func readRows(path string) ([]row, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", core.ErrSourceNotFound, path)
	}
	defer file.Close()

	var rows []row
	sc := bufio.NewScanner(file)
	for n := 1; sc.Scan(); n++ {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		r := row{line: n, values: make([]float64, len(fields))}
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, core.Malformedf("%s:%d: %v", path, n, err)
			}
			r.values[i] = v
		}
		rows = append(rows, r)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

// WritePoints saves a point stream in the format read by ReadPoints.
func WritePoints(ctx context.Context, path string, s field.PointStream) (err error) {
	if err := core.Expect("WritePoints", s, core.KindPoint); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()
	w := bufio.NewWriter(file)
	err = core.Each(ctx, s, func(_ int, ps field.Points) error {
		for i, p := range ps {
			if i > 0 {
				w.WriteByte(' ')
			}
			w.WriteString(strconv.FormatFloat(p.X, 'g', -1, 64))
			w.WriteByte(' ')
			w.WriteString(strconv.FormatFloat(p.Y, 'g', -1, 64))
		}
		return w.WriteByte('\n')
	})
	if err != nil {
		return err
	}
	return w.Flush()
}
