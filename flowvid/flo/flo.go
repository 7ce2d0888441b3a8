// Package flo reads and writes optical flow in the Middlebury .flo format:
// a float32 tag, int32 width and height, then width*height (u, v) float32
// pairs in row-major order, all little-endian.
package flo

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"image"
	"io"
	"math"
	"os"

	"github.com/lguimbarda/flowvid/flowvid/core"
	"github.com/lguimbarda/flowvid/flowvid/field"
)

// Tag is the sanity check value at the start of every .flo file.
const Tag float32 = 202021.25

// maxPixels bounds the frame size accepted from a header.
const maxPixels = 1 << 26

// prealloc caps the samples reserved before any data has been read; larger
// frames grow as their rows arrive.
const prealloc = 1 << 20

type header struct {
	Tag    float32
	Width  int32
	Height int32
}

// Decode reads one flow field from r.
func Decode(r io.Reader) (*field.Field, error) {
	var h header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, core.Malformedf("flo header: %v", err)
	}
	if h.Tag != Tag {
		return nil, core.Malformedf("flo tag is %v, want %v", h.Tag, Tag)
	}
	w, ht := int(h.Width), int(h.Height)
	if w <= 0 || ht <= 0 || w > maxPixels/ht {
		return nil, core.Malformedf("flo size %dx%d", h.Width, h.Height)
	}

	n := 2 * w * ht
	pix := make([]float32, 0, min(n, prealloc))
	row := make([]byte, 4*2*w)
	for y := range ht {
		if _, err := io.ReadFull(r, row); err != nil {
			return nil, core.Malformedf("flo data row %d: %v", y, err)
		}
		for i := 0; i < len(row); i += 4 {
			pix = append(pix, math.Float32frombits(binary.LittleEndian.Uint32(row[i:])))
		}
	}
	f := &field.Field{Pix: pix, Stride: 2 * w, Channels: 2, Rect: image.Rect(0, 0, w, ht)}
	return f, nil
}

// Encode writes f to w. f must have two channels.
func Encode(w io.Writer, f *field.Field) error {
	if f.Channels != 2 {
		return core.Invalidf("flo: field has %d channels, want 2", f.Channels)
	}
	b := f.Bounds()
	h := header{Tag: Tag, Width: int32(b.Dx()), Height: int32(b.Dy())}
	if err := binary.Write(w, binary.LittleEndian, h); err != nil {
		return err
	}
	row := make([]byte, 4*2*b.Dx())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := f.PixOffset(b.Min.X, y)
		for i, v := range f.Pix[off : off+2*b.Dx()] {
			binary.LittleEndian.PutUint32(row[4*i:], math.Float32bits(v))
		}
		if _, err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// ReadFile decodes the .flo file at path.
func ReadFile(path string) (*field.Field, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSourceNotFound, err)
	}
	defer file.Close()
	f, err := Decode(bufio.NewReader(file))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// WriteFile encodes f into a new file at path.
func WriteFile(path string, f *field.Field) (err error) {
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
	if err := Encode(w, f); err != nil {
		return err
	}
	return w.Flush()
}
