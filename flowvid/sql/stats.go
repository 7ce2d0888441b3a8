package sql

import (
	"context"
	"database/sql"
	"math"
	"slices"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/lguimbarda/flowvid/flowvid/core"
	"github.com/lguimbarda/flowvid/flowvid/field"
)

// FrameStats summarises the endpoint error of one frame.
type FrameStats struct {
	Index         int
	Width, Height int
	Mean          float64
	Max           float64
	StdDev        float64 // population standard deviation
	Median        float64
}

// Summary aggregates the frames of a run.
type Summary struct {
	Frames int
	Mean   float64 // average of per-frame means
	Max    float64
}

// FrameStatistics computes the statistics of one endpoint error frame.
func FrameStatistics(i int, f *field.Field) FrameStats {
	st := FrameStats{Index: i, Width: f.Width(), Height: f.Height()}
	if len(f.Pix) == 0 {
		return st
	}
	x := make([]float64, len(f.Pix))
	for j, v := range f.Pix {
		x[j] = float64(v)
	}
	mean, variance := stat.PopMeanVariance(x, nil)
	st.Mean = mean
	st.StdDev = math.Sqrt(variance)
	st.Max = floats.Max(x)
	slices.Sort(x)
	st.Median = stat.Quantile(0.5, stat.Empirical, x, nil)
	return st
}

// RecordFrames consumes an endpoint error stream and stores the statistics
// of every frame under run id. Nothing is stored when the stream fails.
func (s *Store) RecordFrames(ctx context.Context, id uuid.UUID, epe field.Stream) (Summary, error) {
	if err := core.Expect("RecordFrames", epe, core.KindEPE); err != nil {
		return Summary{}, err
	}
	if err := s.checkRun(ctx, id); err != nil {
		return Summary{}, err
	}

	var sum Summary
	var means []float64
	err := Transaction(ctx, s.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO frames (run_id, idx, width, height, mean, max, stddev, median) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		return core.Each(ctx, epe, func(i int, f *field.Field) error {
			st := FrameStatistics(i, f)
			means = append(means, st.Mean)
			sum.Max = max(sum.Max, st.Max)
			_, err := stmt.ExecContext(ctx, id.String(), st.Index, st.Width, st.Height, st.Mean, st.Max, st.StdDev, st.Median)
			return err
		})
	})
	if err != nil {
		return Summary{}, err
	}
	sum.Frames = len(means)
	if len(means) > 0 {
		sum.Mean = stat.Mean(means, nil)
	}
	core.Logger(ctx).Info("recorded endpoint error", "run", id, "frames", sum.Frames, "mean", sum.Mean, "max", sum.Max)
	return sum, nil
}
