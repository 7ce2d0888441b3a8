package input

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/lguimbarda/flowvid/flowvid/core"
	"github.com/lguimbarda/flowvid/flowvid/field"
	"github.com/lguimbarda/flowvid/flowvid/flo"
	"github.com/lguimbarda/flowvid/flowvid/raster"
)

// FloExts and ImageExts are the extensions accepted by Flo and RGB.
var (
	FloExts   = []string{".flo"}
	ImageExts = []string{".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff", ".webp"}
)

// Flo reads a .flo file, or a directory of numbered .flo files, as an
// indexed flow stream. Frames are decoded on every access.
func Flo(ctx context.Context, path string, opts ...Option) (field.Stream, error) {
	paths, err := list(ctx, path, FloExts, opts)
	if err != nil {
		return nil, err
	}
	return core.FromFunc(core.KindFlow, len(paths), func(_ context.Context, i int) (*field.Field, error) {
		return flo.ReadFile(paths[i])
	}), nil
}

// RGB reads an image file, or a directory of numbered images, as an indexed
// RGB stream. Frames are decoded on every access.
func RGB(ctx context.Context, path string, opts ...Option) (field.ImageStream, error) {
	paths, err := list(ctx, path, ImageExts, opts)
	if err != nil {
		return nil, err
	}
	return core.FromFunc(core.KindRGB, len(paths), func(_ context.Context, i int) (*image.RGBA, error) {
		return ReadImage(paths[i])
	}), nil
}

// ReadImage decodes the image at path into an RGBA frame.
func ReadImage(path string) (*image.RGBA, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrMalformedFile, path, err)
	}
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba, nil
	}
	return raster.Clone(img), nil
}

func list(ctx context.Context, path string, exts []string, opts []Option) ([]string, error) {
	w := newWindow(opts)
	paths, err := ListDir(path, exts, w.first, w.count)
	if err != nil {
		return nil, err
	}
	core.Logger(ctx).Debug("listed source", "path", path, "files", len(paths))
	return paths, nil
}
