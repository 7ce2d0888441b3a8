package operator_test

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/lguimbarda/flowvid/flowvid/core"
	"github.com/lguimbarda/flowvid/flowvid/field"
	"github.com/lguimbarda/flowvid/flowvid/operator"
	"github.com/lguimbarda/flowvid/flowvid/raster"
)

var (
	red    = color.RGBA{255, 0, 0, 255}
	approx = cmpopts.EquateApprox(0, 1e-9)
)

func constant(w, h int, u, v float64) *field.Field {
	f := field.NewFlow(w, h)
	for y := range h {
		for x := range w {
			f.SetVec(x, y, u, v)
		}
	}
	return f
}

func black(n, w, h int) field.ImageStream {
	imgs := make([]*image.RGBA, n)
	for i := range imgs {
		imgs[i] = image.NewRGBA(image.Rect(0, 0, w, h))
	}
	return core.FromSlice(core.KindRGB, imgs)
}

// sequential hides the At method of an indexed stream.
func sequential[T any](s core.Stream[T]) core.Stream[T] {
	return core.Sequence(s.Kind(), s.Len(), func(ctx context.Context, yield func(T) bool) error {
		for res := range s.All(ctx) {
			v, err := res.Unwrap()
			if err != nil {
				return err
			}
			if !yield(v) {
				return nil
			}
		}
		return nil
	})
}

func painted(img *image.RGBA) [][2]int {
	var out [][2]int
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if c := img.RGBAAt(x, y); c.R|c.G|c.B != 0 {
				out = append(out, [2]int{x, y})
			}
		}
	}
	return out
}

func TestEndPointError(t *testing.T) {
	ctx := context.Background()
	est := field.NewFlow(2, 1)
	est.SetVec(0, 0, 3, 4)
	est.SetVec(1, 0, 1, 1)
	gt := field.NewFlow(2, 1)
	gt.SetVec(1, 0, 1, 2)

	s, err := operator.EndPointError(
		core.FromSlice(core.KindFlow, []*field.Field{est}),
		core.FromSlice(core.KindFlow, []*field.Field{gt}),
	)
	if err != nil {
		t.Fatal(err)
	}
	if s.Kind() != core.KindEPE {
		t.Errorf("kind = %v, want %v", s.Kind(), core.KindEPE)
	}
	got, err := core.First(ctx, s)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]float32{5, 1}, got.Pix); diff != "" {
		t.Errorf("epe mismatch (-want +got):\n%s", diff)
	}
}

func TestEndPointErrorOfItselfIsZero(t *testing.T) {
	ctx := context.Background()
	f := field.NewFlow(3, 2)
	for i := range f.Pix {
		f.Pix[i] = float32(i) - 2.5
	}
	s := core.FromSlice(core.KindFlow, []*field.Field{f, f})
	epe, err := operator.EndPointError(s, s)
	if err != nil {
		t.Fatal(err)
	}
	got, err := core.Slice(ctx, epe)
	if err != nil {
		t.Fatal(err)
	}
	for i, e := range got {
		if diff := cmp.Diff(make([]float32, 6), e.Pix); diff != "" {
			t.Errorf("frame %d not zero (-want +got):\n%s", i, diff)
		}
	}
}

func TestEndPointErrorFailures(t *testing.T) {
	ctx := context.Background()
	one := core.FromSlice(core.KindFlow, []*field.Field{field.NewFlow(2, 2)})
	two := core.FromSlice(core.KindFlow, []*field.Field{field.NewFlow(2, 2), field.NewFlow(2, 2)})
	other := core.FromSlice(core.KindFlow, []*field.Field{field.NewFlow(3, 2)})

	if _, err := operator.EndPointError(one, two); !errors.Is(err, core.ErrLengthMismatch) {
		t.Errorf("length mismatch: err = %v", err)
	}
	if _, err := operator.EndPointError(one, core.Retag(one, core.KindEPE)); !errors.Is(err, core.ErrTypeMismatch) {
		t.Errorf("kind mismatch: err = %v", err)
	}
	s, err := operator.EndPointError(one, other)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := core.Slice(ctx, s); !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("shape mismatch: err = %v", err)
	}
}

func TestAddFlowPoints(t *testing.T) {
	ctx := context.Background()
	flows := core.FromSlice(core.KindFlow, []*field.Field{
		constant(8, 8, 1, 2),
		constant(8, 8, 1, 2),
		constant(8, 8, 1, 2),
	})
	seed := field.Points{{X: 0.5, Y: 0.5}, {X: 2.5, Y: 1.5}}

	tests := []struct {
		name        string
		accumulate  bool
		wantIndexed bool
		step        func(k int) float64
	}{
		{"independent", false, true, func(k int) float64 { return min(float64(k), 1) }},
		{"accumulated", true, false, func(k int) float64 { return float64(k) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := operator.AddFlowPoints(seed, flows, true, tt.accumulate)
			if err != nil {
				t.Fatal(err)
			}
			if s.Len() != 4 {
				t.Errorf("Len() = %d, want 4", s.Len())
			}
			if got := core.IsIndexed(s); got != tt.wantIndexed {
				t.Errorf("IsIndexed = %v, want %v", got, tt.wantIndexed)
			}
			var want []field.Points
			for k := range 4 {
				d := tt.step(k)
				want = append(want, field.Points{seed[0].Add(d, 2*d), seed[1].Add(d, 2*d)})
			}
			// Two traversals must agree.
			for range 2 {
				got, err := core.Slice(ctx, s)
				if err != nil {
					t.Fatal(err)
				}
				if diff := cmp.Diff(want, got, approx); diff != "" {
					t.Errorf("points mismatch (-want +got):\n%s", diff)
				}
			}
		})
	}
}

func TestAddFlowRect(t *testing.T) {
	ctx := context.Background()
	flows := core.FromSlice(core.KindFlow, []*field.Field{constant(8, 8, -1, 1), constant(8, 8, -1, 1)})
	s, err := operator.AddFlowRect(field.Rect{X0: 2, Y0: 2, X1: 5, Y1: 4}, flows, false, true)
	if err != nil {
		t.Fatal(err)
	}
	if s.Kind() != core.KindRect {
		t.Errorf("kind = %v", s.Kind())
	}
	got, err := core.Slice(ctx, s)
	if err != nil {
		t.Fatal(err)
	}
	want := []field.Rect{
		{X0: 2, Y0: 2, X1: 5, Y1: 4},
		{X0: 1, Y0: 3, X1: 4, Y1: 5},
		{X0: 0, Y0: 4, X1: 3, Y1: 6},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("rects mismatch (-want +got):\n%s", diff)
	}
}

func TestAddFlowPointsRejectsRGB(t *testing.T) {
	if _, err := operator.AddFlowPoints(nil, black(1, 2, 2), false, false); err == nil {
		t.Error("expected a type mismatch")
	}
}

func TestDrawRectangle(t *testing.T) {
	ctx := context.Background()
	images := black(3, 5, 5)
	rects := core.FromSlice(core.KindRect, []field.Rect{{X0: 1, Y0: 1, X1: 3, Y1: 3}, {X0: 0, Y0: 0, X1: 1, Y1: 1}})
	s, err := operator.DrawRectangle(images, rects, red)
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want the shorter input", s.Len())
	}
	got, err := core.First(ctx, s)
	if err != nil {
		t.Fatal(err)
	}
	want := [][2]int{{1, 1}, {2, 1}, {3, 1}, {1, 2}, {3, 2}, {1, 3}, {2, 3}}
	if diff := cmp.Diff(want, painted(got)); diff != "" {
		t.Errorf("painted pixels (-want +got):\n%s", diff)
	}
	src, _ := core.First(ctx, images)
	if len(painted(src)) != 0 {
		t.Error("DrawRectangle modified its input")
	}
}

func TestDrawPoints(t *testing.T) {
	ctx := context.Background()
	points := core.FromSlice(core.KindPoint, []field.Points{
		{{X: 1, Y: 1}},
		{{X: 4, Y: 1}},
		{{X: 4, Y: 4}},
	})
	want := [][][2]int{
		{{1, 0}, {0, 1}, {1, 1}, {2, 1}, {1, 2}},
		{{4, 0}, {1, 1}, {2, 1}, {3, 1}, {4, 1}, {5, 1}, {4, 2}},
		{{4, 1}, {4, 2}, {4, 3}, {3, 4}, {4, 4}, {5, 4}, {4, 5}},
	}

	tests := []struct {
		name        string
		points      field.PointStream
		wantIndexed bool
	}{
		{"indexed", points, true},
		{"sequential", sequential[field.Points](points), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := operator.DrawPoints(black(3, 6, 6), tt.points, raster.FixedColor(red), 2)
			if err != nil {
				t.Fatal(err)
			}
			if got := core.IsIndexed(s); got != tt.wantIndexed {
				t.Errorf("IsIndexed = %v, want %v", got, tt.wantIndexed)
			}
			got, err := core.Slice(ctx, s)
			if err != nil {
				t.Fatal(err)
			}
			for i, img := range got {
				if diff := cmp.Diff(want[i], painted(img)); diff != "" {
					t.Errorf("frame %d painted pixels (-want +got):\n%s", i, diff)
				}
			}
		})
	}
}

func TestDrawPointsRandomColorsAreStable(t *testing.T) {
	ctx := context.Background()
	points := core.FromSlice(core.KindPoint, []field.Points{
		{{X: 1, Y: 1}, {X: 5, Y: 5}},
		{{X: 2, Y: 2}, {X: 6, Y: 5}},
	})
	s, err := operator.DrawPoints(black(2, 8, 8), points, raster.Color{Mode: raster.Random}, 1)
	if err != nil {
		t.Fatal(err)
	}
	got, err := core.Slice(ctx, s)
	if err != nil {
		t.Fatal(err)
	}
	if c := got[0].RGBAAt(5, 5); c != raster.Palette[1] {
		t.Errorf("frame 0 point 1 color = %v, want %v", c, raster.Palette[1])
	}
	if c := got[1].RGBAAt(6, 5); c != raster.Palette[1] {
		t.Errorf("frame 1 point 1 color = %v, want %v", c, raster.Palette[1])
	}
}

func TestDrawPointsArguments(t *testing.T) {
	points := core.FromSlice(core.KindPoint, []field.Points{{{X: 1, Y: 1}}})
	if _, err := operator.DrawPoints(black(1, 4, 4), points, raster.FixedColor(red), 0); !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("zero trail: err = %v", err)
	}
	if _, err := operator.DrawPoints(black(1, 4, 4), points, raster.Color{Mode: raster.Flow}, 1); !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("flow color: err = %v", err)
	}
}

func TestDrawFlowArrows(t *testing.T) {
	ctx := context.Background()
	flows := core.FromSlice(core.KindFlow, []*field.Field{constant(10, 10, 3, 0), field.NewFlow(10, 10)})
	images := black(2, 10, 10)

	s, err := operator.DrawFlowArrows(ctx, images, flows,
		operator.WithArrowColor(raster.FixedColor(red)),
		operator.WithFlatColors(true),
		operator.WithSubsample(5),
	)
	if err != nil {
		t.Fatal(err)
	}
	got, err := core.Slice(ctx, s)
	if err != nil {
		t.Fatal(err)
	}
	if len(painted(got[0])) == 0 {
		t.Error("no arrows drawn for non-zero flow")
	}
	for _, p := range painted(got[0]) {
		if c := got[0].RGBAAt(p[0], p[1]); c.G != 0 || c.B != 0 {
			t.Fatalf("pixel %v = %v, want a shade of red", p, c)
		}
	}
	if n := len(painted(got[1])); n != 0 {
		t.Errorf("zero flow painted %d pixels", n)
	}
}

func TestDrawFlowArrowsArguments(t *testing.T) {
	ctx := context.Background()
	flows := core.FromSlice(core.KindFlow, []*field.Field{field.NewFlow(4, 4)})
	tests := []struct {
		name string
		opt  operator.ArrowOption
	}{
		{"attenuation", operator.WithBackgroundAttenuation(1.5)},
		{"subsample", operator.WithSubsample(0)},
		{"min alpha", operator.WithArrowMinAlpha(-0.1)},
		{"random color", operator.WithArrowColor(raster.Color{Mode: raster.Random})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := operator.DrawFlowArrows(ctx, black(1, 4, 4), flows, tt.opt)
			if !errors.Is(err, core.ErrInvalidArgument) {
				t.Errorf("err = %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestTrackFromFirst(t *testing.T) {
	ctx := context.Background()
	points := core.FromSlice(core.KindPoint, []field.Points{{{X: 1, Y: 1}}, {{X: 2, Y: 2}}})

	for _, seq := range []bool{false, true} {
		var ps field.PointStream = points
		if seq {
			ps = sequential[field.Points](points)
		}
		s, err := operator.TrackFromFirst(ps, black(2, 4, 4), raster.FixedColor(red), false, false)
		if err != nil {
			t.Fatal(err)
		}
		got, err := core.Slice(ctx, s)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 {
			t.Fatalf("got %d frames, want 2", len(got))
		}
		if b := got[1].Bounds(); b != image.Rect(0, 0, 8, 4) {
			t.Errorf("bounds = %v, want 8x4", b)
		}
		want := [][2]int{{1, 0}, {0, 1}, {1, 1}, {2, 1}, {6, 1}, {1, 2}, {5, 2}, {6, 2}, {7, 2}, {6, 3}}
		if diff := cmp.Diff(want, painted(got[1])); diff != "" {
			t.Errorf("sequential=%v painted pixels (-want +got):\n%s", seq, diff)
		}
	}

	s, err := operator.TrackFromFirst(points, black(2, 4, 4), raster.FixedColor(red), true, true)
	if err != nil {
		t.Fatal(err)
	}
	img, err := core.At(ctx, s, 1)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b != image.Rect(0, 0, 4, 8) {
		t.Errorf("vertical bounds = %v, want 4x8", b)
	}
}
