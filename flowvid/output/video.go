package output

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lguimbarda/flowvid/flowvid/core"
	"github.com/lguimbarda/flowvid/flowvid/field"
)

// FFmpeg is the program VideoWriter runs for every format other than GIF.
var FFmpeg = "ffmpeg"

// VideoWriter encodes RGB frames into a video file. GIF files are encoded
// in process; any other extension is handed to an ffmpeg subprocess fed
// with raw RGBA frames. All frames must have the size of the first one.
type VideoWriter struct {
	path      string
	framerate float64
	size      image.Point
	frames    int

	// gif
	anim *gif.GIF

	// ffmpeg
	cmd   *exec.Cmd
	stdin io.WriteCloser
	pipe  *bufio.Writer
	ctx   context.Context
}

// NewVideoWriter prepares a video at path played at framerate frames per
// second. Nothing is written until the first frame arrives.
func NewVideoWriter(ctx context.Context, path string, framerate float64) (*VideoWriter, error) {
	if !(framerate > 0) {
		return nil, core.Invalidf("video framerate must be positive, got %v", framerate)
	}
	if filepath.Ext(path) == "" {
		return nil, core.Invalidf("video path %q has no extension", path)
	}
	return &VideoWriter{path: path, framerate: framerate, ctx: ctx}, nil
}

func (w *VideoWriter) isGIF() bool {
	return strings.EqualFold(filepath.Ext(w.path), ".gif")
}

// AddFrame appends one frame.
func (w *VideoWriter) AddFrame(img *image.RGBA) error {
	size := img.Bounds().Size()
	if w.frames == 0 {
		w.size = size
		if !w.isGIF() {
			if err := w.start(); err != nil {
				return err
			}
		}
	} else if size != w.size {
		return core.Invalidf("video frame %d is %v, first frame was %v", w.frames, size, w.size)
	}
	w.frames++

	if w.isGIF() {
		if w.anim == nil {
			w.anim = &gif.GIF{}
		}
		p := image.NewPaletted(img.Bounds(), palette.Plan9)
		draw.FloydSteinberg.Draw(p, img.Bounds(), img, img.Bounds().Min)
		w.anim.Image = append(w.anim.Image, p)
		w.anim.Delay = append(w.anim.Delay, int(100/w.framerate+0.5))
		return nil
	}

	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := img.PixOffset(b.Min.X, y)
		if _, err := w.pipe.Write(img.Pix[off : off+4*b.Dx()]); err != nil {
			return fmt.Errorf("video %s: %w", w.path, err)
		}
	}
	return nil
}

func (w *VideoWriter) start() error {
	args := []string{
		"-y", "-loglevel", "error",
		"-f", "rawvideo", "-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", w.size.X, w.size.Y),
		"-r", strconv.FormatFloat(w.framerate, 'g', -1, 64),
		"-i", "-",
		"-pix_fmt", "yuv420p",
		// yuv420p needs even dimensions.
		"-vf", "pad=ceil(iw/2)*2:ceil(ih/2)*2",
		w.path,
	}
	w.cmd = exec.CommandContext(w.ctx, FFmpeg, args...)
	w.cmd.Stderr = os.Stderr
	stdin, err := w.cmd.StdinPipe()
	if err != nil {
		return err
	}
	if err := w.cmd.Start(); err != nil {
		return fmt.Errorf("video %s: %w", w.path, err)
	}
	w.stdin = stdin
	w.pipe = bufio.NewWriterSize(stdin, 4*w.size.X*w.size.Y)
	core.Logger(w.ctx).Debug("started encoder", "program", FFmpeg, "path", w.path, "size", w.size)
	return nil
}

// AddAll appends every frame of s.
func (w *VideoWriter) AddAll(ctx context.Context, s field.ImageStream) error {
	if err := core.Expect("VideoWriter", s, core.KindRGB); err != nil {
		return err
	}
	log := core.Logger(ctx)
	return core.Each(ctx, s, func(i int, img *image.RGBA) error {
		log.Debug("encoding frame", "frame", i+1, "of", s.Len())
		return w.AddFrame(img)
	})
}

// Close finishes the file. A writer that received no frames writes nothing.
func (w *VideoWriter) Close() error {
	if w.frames == 0 {
		return nil
	}
	if w.isGIF() {
		return create(w.path, func(out io.Writer) error {
			return gif.EncodeAll(out, w.anim)
		})
	}
	err := w.pipe.Flush()
	err = errors.Join(err, w.stdin.Close())
	if werr := w.cmd.Wait(); werr != nil {
		err = errors.Join(err, fmt.Errorf("video %s: %w", w.path, werr))
	}
	return err
}
