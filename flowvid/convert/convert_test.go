package convert_test

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/lguimbarda/flowvid/flowvid/convert"
	"github.com/lguimbarda/flowvid/flowvid/core"
	"github.com/lguimbarda/flowvid/flowvid/field"
	"github.com/lguimbarda/flowvid/flowvid/filter"
)

func quad() *field.Field {
	f := field.NewFlow(2, 2)
	f.SetVec(0, 0, 1, 0)
	f.SetVec(1, 0, 0, 1)
	f.SetVec(0, 1, -1, 0)
	f.SetVec(1, 1, 0, -1)
	return f
}

func TestFlowToRGBGolden(t *testing.T) {
	ctx := context.Background()
	norm, err := filter.NormalizeFrame(core.FromSlice(core.KindFlow, []*field.Field{quad()}))
	if err != nil {
		t.Fatal(err)
	}
	s, err := convert.FlowToRGB(norm)
	if err != nil {
		t.Fatal(err)
	}
	if s.Kind() != core.KindRGB || !core.IsIndexed(s) {
		t.Errorf("FlowToRGB stream: kind %v indexed %v, want rgb and indexed", s.Kind(), core.IsIndexed(s))
	}
	img, err := core.First(ctx, s)
	if err != nil {
		t.Fatal(err)
	}
	want := [2][2]color.RGBA{
		{{255, 0, 0, 255}, {255, 229, 0, 255}},
		{{0, 209, 255, 255}, {88, 0, 255, 255}},
	}
	for y := range 2 {
		for x := range 2 {
			if got := img.RGBAAt(x, y); got != want[y][x] {
				t.Errorf("pixel (%d,%d) = %v, want %v", x, y, got, want[y][x])
			}
		}
	}
}

func TestFlowToRGBZeroIsWhite(t *testing.T) {
	s, err := convert.FlowToRGB(core.FromSlice(core.KindFlow, []*field.Field{field.NewFlow(3, 3)}))
	if err != nil {
		t.Fatal(err)
	}
	img, err := core.First(context.Background(), s)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < len(img.Pix); i++ {
		if img.Pix[i] != 255 {
			t.Fatalf("Pix[%d] = %d, want 255", i, img.Pix[i])
		}
	}
}

func TestEPEToRGB(t *testing.T) {
	e := field.NewScalar(3, 1)
	copy(e.Pix, []float32{0, 0.5, 1})

	tests := []struct {
		name string
		base color.RGBA
		want []color.RGBA
	}{
		{"default yellow", convert.DefaultEPEColor, []color.RGBA{{0, 0, 0, 255}, {127, 127, 0, 255}, {255, 255, 0, 255}}},
		{"custom", color.RGBA{R: 10, G: 100, B: 200, A: 255}, []color.RGBA{{0, 0, 0, 255}, {5, 50, 100, 255}, {10, 100, 200, 255}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := convert.EPEToRGB(core.FromSlice(core.KindEPE, []*field.Field{e}), tt.base)
			if err != nil {
				t.Fatal(err)
			}
			img, err := core.First(context.Background(), s)
			if err != nil {
				t.Fatal(err)
			}
			for x, want := range tt.want {
				if got := img.RGBAAt(x, 0); got != want {
					t.Errorf("pixel %d = %v, want %v", x, got, want)
				}
			}
		})
	}
}

func TestConvertKindChecks(t *testing.T) {
	flows := core.FromSlice(core.KindFlow, []*field.Field{quad()})
	epes := core.FromSlice(core.KindEPE, []*field.Field{field.NewScalar(1, 1)})

	if _, err := convert.FlowToRGB(epes); !errors.Is(err, core.ErrTypeMismatch) {
		t.Errorf("FlowToRGB(epe) error = %v", err)
	}
	if _, err := convert.EPEToRGB(flows, convert.DefaultEPEColor); !errors.Is(err, core.ErrTypeMismatch) {
		t.Errorf("EPEToRGB(flo) error = %v", err)
	}
	if _, err := convert.SplitUV(epes, convert.U); !errors.Is(err, core.ErrTypeMismatch) {
		t.Errorf("SplitUV(epe) error = %v", err)
	}
	if _, err := convert.SplitUV(flows, convert.Channel(5)); !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("SplitUV(channel 5) error = %v", err)
	}
}

func TestParseChannel(t *testing.T) {
	for in, want := range map[string]convert.Channel{"u": convert.U, "U": convert.U, "v": convert.V, "V": convert.V} {
		got, err := convert.ParseChannel(in)
		if err != nil || got != want {
			t.Errorf("ParseChannel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := convert.ParseChannel("w"); !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("ParseChannel(w) error = %v, want ErrInvalidArgument", err)
	}
}

func TestSplitUV(t *testing.T) {
	ctx := context.Background()
	f := field.NewFlow(2, 1)
	f.SetVec(0, 0, 0.5, -0.25)
	f.SetVec(1, 0, -1, 1)
	in := core.FromSlice(core.KindFlow, []*field.Field{f})

	tests := []struct {
		ch      convert.Channel
		channel []float32
		flow    []float32
	}{
		{convert.U, []float32{0.5, -1}, []float32{0.5, 0, -1, 0}},
		{convert.V, []float32{-0.25, 1}, []float32{0, -0.25, 0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.ch.String(), func(t *testing.T) {
			s, err := convert.SplitUV(in, tt.ch)
			if err != nil {
				t.Fatal(err)
			}
			if s.Kind() != core.KindChannel {
				t.Errorf("Kind() = %v, want channel", s.Kind())
			}
			got, err := core.First(ctx, s)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.channel, got.Pix); diff != "" {
				t.Errorf("SplitUV mismatch (-want +got):\n%s", diff)
			}

			fs, err := convert.SplitUVFlow(in, tt.ch)
			if err != nil {
				t.Fatal(err)
			}
			gotFlow, err := core.First(ctx, fs)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.flow, gotFlow.Pix); diff != "" {
				t.Errorf("SplitUVFlow mismatch (-want +got):\n%s", diff)
			}
		})
	}
	if f.Pix[0] != 0.5 || f.Pix[1] != -0.25 {
		t.Errorf("source frame modified: %v", f.Pix)
	}
}

func TestSplitUVRGB(t *testing.T) {
	f := field.NewFlow(4, 1)
	f.SetVec(0, 0, -1, 0)
	f.SetVec(1, 0, 0, 0)
	f.SetVec(2, 0, 1, 0)
	f.SetVec(3, 0, 2, 0)

	var buf bytes.Buffer
	ctx := core.WithLogger(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))

	s, err := convert.SplitUVRGB(ctx, core.FromSlice(core.KindFlow, []*field.Field{f}), convert.U, false)
	if err != nil {
		t.Fatal(err)
	}
	img, err := core.First(ctx, s)
	if err != nil {
		t.Fatal(err)
	}
	for x, want := range []uint8{0, 127, 255, 255} {
		if got := img.RGBAAt(x, 0); got != (color.RGBA{want, want, want, 255}) {
			t.Errorf("pixel %d = %v, want gray %d", x, got, want)
		}
	}
	if !strings.Contains(buf.String(), "normalize the flow first") {
		t.Errorf("expected a normalization warning, log was %q", buf.String())
	}

	buf.Reset()
	quiet, _ := convert.SplitUVRGB(ctx, core.FromSlice(core.KindFlow, []*field.Field{f}), convert.U, true)
	if _, err := core.First(ctx, quiet); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Errorf("quiet split logged %q", buf.String())
	}
}
