package output_test

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/gif"
	_ "image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot/vg"

	"github.com/lguimbarda/flowvid/flowvid/core"
	"github.com/lguimbarda/flowvid/flowvid/field"
	"github.com/lguimbarda/flowvid/flowvid/flo"
	"github.com/lguimbarda/flowvid/flowvid/output"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

func frames(n, w, h int) field.ImageStream {
	imgs := make([]*image.RGBA, n)
	for i := range imgs {
		imgs[i] = image.NewRGBA(image.Rect(0, 0, w, h))
		imgs[i].SetRGBA(0, 0, color.RGBA{uint8(40 * i), 0, 0, 255})
	}
	return core.FromSlice(core.KindRGB, imgs)
}

func TestFloWriter(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	w, err := output.NewFloWriter(dir, "", 3)
	if err != nil {
		t.Fatal(err)
	}
	f := field.NewFlow(2, 1)
	f.SetVec(1, 0, 0.5, -2)
	s := core.FromSlice(core.KindFlow, []*field.Field{field.NewFlow(2, 1), f})
	if err := w.SaveAll(ctx, s); err != nil {
		t.Fatal(err)
	}
	got, err := flo.ReadFile(filepath.Join(dir, "0004.flo"))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(f, got); diff != "" {
		t.Errorf("flow mismatch (-want +got):\n%s", diff)
	}
}

func TestImageWriter(t *testing.T) {
	ctx := context.Background()
	for _, format := range []string{"%03d.png", "img_%d.bmp", "%d.tiff", "%d.jpg"} {
		t.Run(format, func(t *testing.T) {
			dir := t.TempDir()
			w, err := output.NewImageWriter(dir, format, 0)
			if err != nil {
				t.Fatal(err)
			}
			if err := w.SaveAll(ctx, frames(2, 4, 3)); err != nil {
				t.Fatal(err)
			}
			entries, err := os.ReadDir(dir)
			if err != nil {
				t.Fatal(err)
			}
			if len(entries) != 2 {
				t.Fatalf("wrote %d files, want 2", len(entries))
			}
			file, err := os.Open(filepath.Join(dir, entries[0].Name()))
			if err != nil {
				t.Fatal(err)
			}
			defer file.Close()
			cfg, _, err := image.DecodeConfig(file)
			if err != nil {
				t.Fatal(err)
			}
			if cfg.Width != 4 || cfg.Height != 3 {
				t.Errorf("decoded size %dx%d, want 4x3", cfg.Width, cfg.Height)
			}
		})
	}
}

func TestWriterArguments(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		err  error
	}{
		{"missing dir", func() error { _, err := output.NewImageWriter(filepath.Join(dir, "x"), "", 0); return err }()},
		{"bad extension", func() error { _, err := output.NewImageWriter(dir, "%d.xyz", 0); return err }()},
		{"no verb", func() error { _, err := output.NewFloWriter(dir, "flow.flo", 0); return err }()},
		{"zero framerate", func() error { _, err := output.NewVideoWriter(context.Background(), "a.gif", 0); return err }()},
	}
	for _, tt := range tests {
		if !errors.Is(tt.err, core.ErrInvalidArgument) {
			t.Errorf("%s: err = %v, want ErrInvalidArgument", tt.name, tt.err)
		}
	}
}

func TestVideoWriterGIF(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "out.gif")
	w, err := output.NewVideoWriter(ctx, path, 25)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.AddAll(ctx, frames(3, 5, 4)); err != nil {
		t.Fatal(err)
	}
	if err := w.AddFrame(image.NewRGBA(image.Rect(0, 0, 4, 4))); !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("size change: err = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	anim, err := gif.DecodeAll(file)
	if err != nil {
		t.Fatal(err)
	}
	if len(anim.Image) != 3 {
		t.Errorf("decoded %d frames, want 3", len(anim.Image))
	}
	if anim.Delay[0] != 4 {
		t.Errorf("delay = %d, want 4 hundredths", anim.Delay[0])
	}
}

func epeStream(frames ...[]float32) field.Stream {
	fs := make([]*field.Field, len(frames))
	for i, pix := range frames {
		f := field.NewScalar(len(pix), 1)
		copy(f.Pix, pix)
		fs[i] = f
	}
	return core.FromSlice(core.KindEPE, fs)
}

func TestEPEHistogram(t *testing.T) {
	ctx := context.Background()
	s := epeStream([]float32{0.5, 0.5, 0}, []float32{0.5, 2, 5000})

	tests := []struct {
		name     string
		opts     []output.HistogramOption
		wantSum  float64
		wantLast float64
	}{
		{"counts", nil, 4, 0},
		{"density", []output.HistogramOption{output.Density(true)}, 4.0 / 6, 0},
		{"cumulative", []output.HistogramOption{output.Cumulative(true)}, -1, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := output.NewEPEHistogram(ctx, s, tt.opts...)
			if err != nil {
				t.Fatal(err)
			}
			if h.Frames != 2 || h.Samples != 6 || h.Width != 3 || h.Height != 1 {
				t.Errorf("frames=%d samples=%d size=%dx%d", h.Frames, h.Samples, h.Width, h.Height)
			}
			if len(h.Edges) != output.EPEBinEdges || len(h.Counts) != output.EPEBinEdges-1 {
				t.Fatalf("%d edges and %d counts", len(h.Edges), len(h.Counts))
			}
			if tt.wantSum >= 0 {
				if sum := floats.Sum(h.Counts); math.Abs(sum-tt.wantSum) > 1e-12 {
					t.Errorf("sum of counts = %v, want %v", sum, tt.wantSum)
				}
			}
			if last := h.Counts[len(h.Counts)-1]; last != tt.wantLast {
				t.Errorf("last bin = %v, want %v", last, tt.wantLast)
			}
		})
	}
}

func TestEPEHistogramPlot(t *testing.T) {
	ctx := context.Background()
	h, err := output.NewEPEHistogram(ctx, epeStream([]float32{0.01, 0.1, 1, 10}), output.Cumulative(true))
	if err != nil {
		t.Fatal(err)
	}
	p, err := h.Plot()
	if err != nil {
		t.Fatal(err)
	}
	if want := "EPE distribution\n1 frames @ 4x1px"; p.Title.Text != want {
		t.Errorf("title = %q, want %q", p.Title.Text, want)
	}
	if p.Legend.Top {
		t.Error("cumulative legend should sit at the bottom")
	}

	path := filepath.Join(t.TempDir(), "epe.png")
	if err := h.Save(path, 4*vg.Inch, 3*vg.Inch); err != nil {
		t.Fatal(err)
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Errorf("plot file not written: %v", err)
	}

	img := output.Render(p, 320, 240)
	if img.Bounds() != image.Rect(0, 0, 320, 240) {
		t.Errorf("rendered bounds = %v", img.Bounds())
	}
}

func TestEPEHistogramRejectsFlow(t *testing.T) {
	s := core.FromSlice(core.KindFlow, []*field.Field{field.NewFlow(1, 1)})
	if _, err := output.NewEPEHistogram(context.Background(), s); !errors.Is(err, core.ErrTypeMismatch) {
		t.Errorf("err = %v, want ErrTypeMismatch", err)
	}
}
