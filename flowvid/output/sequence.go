// Package output provides the sinks of a pipeline: numbered flow and image
// files, video files and the endpoint error distribution plot.
package output

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/lguimbarda/flowvid/flowvid/core"
	"github.com/lguimbarda/flowvid/flowvid/field"
	"github.com/lguimbarda/flowvid/flowvid/flo"
)

// sequence hands out numbered file names inside a directory.
type sequence struct {
	dir    string
	format string
	next   int
}

func newSequence(dir, format string, firstID int) (sequence, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return sequence{}, core.Invalidf("%s is not a directory", dir)
	}
	if !strings.Contains(format, "%") {
		return sequence{}, core.Invalidf("name format %q has no number verb", format)
	}
	return sequence{dir: dir, format: format, next: firstID}, nil
}

func (s *sequence) name() string {
	name := filepath.Join(s.dir, fmt.Sprintf(s.format, s.next))
	s.next++
	return name
}

func create(path string, write func(io.Writer) error) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()
	return write(file)
}

// FloWriter saves flow frames as numbered .flo files.
type FloWriter struct {
	seq sequence
}

// NewFloWriter writes into dir, naming files with the printf-style format
// applied to consecutive ids starting at firstID, "%04d.flo" by default.
func NewFloWriter(dir, format string, firstID int) (*FloWriter, error) {
	if format == "" {
		format = "%04d.flo"
	}
	seq, err := newSequence(dir, format, firstID)
	if err != nil {
		return nil, err
	}
	return &FloWriter{seq: seq}, nil
}

// Save writes one frame under the next id.
func (w *FloWriter) Save(f *field.Field) error {
	return flo.WriteFile(w.seq.name(), f)
}

// SaveAll writes every frame of s.
func (w *FloWriter) SaveAll(ctx context.Context, s field.Stream) error {
	if err := core.Expect("FloWriter", s, core.KindFlow); err != nil {
		return err
	}
	log := core.Logger(ctx)
	return core.Each(ctx, s, func(i int, f *field.Field) error {
		log.Debug("saving flow", "frame", i+1, "of", s.Len())
		return w.Save(f)
	})
}

type encodeFunc func(io.Writer, image.Image) error

var encoders = map[string]encodeFunc{
	".png": png.Encode,
	".jpg": func(w io.Writer, img image.Image) error {
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 95})
	},
	".bmp": bmp.Encode,
	".tif": func(w io.Writer, img image.Image) error {
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	},
}

func encoderFor(name string) (encodeFunc, error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".jpeg":
		ext = ".jpg"
	case ".tiff":
		ext = ".tif"
	}
	enc, ok := encoders[ext]
	if !ok {
		return nil, core.Invalidf("unsupported image extension %q", filepath.Ext(name))
	}
	return enc, nil
}

// ImageWriter saves RGB frames as numbered image files. The encoder is
// picked from the extension of the name format.
type ImageWriter struct {
	seq    sequence
	encode encodeFunc
}

// NewImageWriter writes into dir, naming files with the printf-style format
// applied to consecutive ids starting at firstID, "%04d.png" by default.
func NewImageWriter(dir, format string, firstID int) (*ImageWriter, error) {
	if format == "" {
		format = "%04d.png"
	}
	seq, err := newSequence(dir, format, firstID)
	if err != nil {
		return nil, err
	}
	enc, err := encoderFor(format)
	if err != nil {
		return nil, err
	}
	return &ImageWriter{seq: seq, encode: enc}, nil
}

// Save writes one frame under the next id.
func (w *ImageWriter) Save(img image.Image) error {
	return create(w.seq.name(), func(out io.Writer) error {
		return w.encode(out, img)
	})
}

// SaveAll writes every frame of s.
func (w *ImageWriter) SaveAll(ctx context.Context, s field.ImageStream) error {
	if err := core.Expect("ImageWriter", s, core.KindRGB); err != nil {
		return err
	}
	log := core.Logger(ctx)
	return core.Each(ctx, s, func(i int, img *image.RGBA) error {
		log.Debug("saving image", "frame", i+1, "of", s.Len())
		return w.Save(img)
	})
}
