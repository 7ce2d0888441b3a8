// Package input provides the sources of a pipeline: numbered flow and image
// files, seed points and rectangle tracks read from text files.
package input

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/lguimbarda/flowvid/flowvid/core"
)

var leadingDigits = regexp.MustCompile(`^\d+`)

// Option selects a window of a numbered file sequence.
type Option func(*window)

type window struct {
	first int
	count int // negative means up to the end
}

// First skips the first n files of a directory.
func First(n int) Option {
	return func(w *window) { w.first = n }
}

// Count limits a directory source to n files.
func Count(n int) Option {
	return func(w *window) { w.count = n }
}

func newWindow(opts []Option) window {
	w := window{count: -1}
	for _, opt := range opts {
		opt(&w)
	}
	return w
}

// ListDir resolves path into an ordered list of files. A regular file with
// one of the extensions is returned as is. For a directory, files whose
// name starts with a run of digits and ends with one of the extensions are
// sorted by the numeric value of that run (ties broken by name) and the
// window [first, first+count) is returned. A negative count means all files
// from first on. An empty exts accepts every extension.
func ListDir(path string, exts []string, first, count int) ([]string, error) {
	if first < 0 {
		return nil, core.Invalidf("list %s: negative first index %d", path, first)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", core.ErrSourceNotFound, path)
	}
	if !info.IsDir() {
		if !hasExt(path, exts) {
			return nil, fmt.Errorf("%w: %s is not a %s file", core.ErrSourceNotFound, path, strings.Join(exts, "/"))
		}
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSourceNotFound, err)
	}
	type numbered struct {
		n    uint64
		name string
	}
	var files []numbered
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !hasExt(name, exts) {
			continue
		}
		digits := leadingDigits.FindString(name)
		if digits == "" {
			continue
		}
		n, err := strconv.ParseUint(digits, 10, 64)
		if err != nil {
			continue
		}
		files = append(files, numbered{n, name})
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no numbered %s files in %s", core.ErrSourceNotFound, strings.Join(exts, "/"), path)
	}
	slices.SortFunc(files, func(a, b numbered) int {
		if c := cmp.Compare(a.n, b.n); c != 0 {
			return c
		}
		return strings.Compare(a.name, b.name)
	})

	first = min(first, len(files))
	end := len(files)
	if count >= 0 {
		end = min(first+count, end)
	}
	out := make([]string, 0, end-first)
	for _, f := range files[first:end] {
		out = append(out, filepath.Join(path, f.name))
	}
	return out, nil
}

func hasExt(name string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	return slices.Contains(exts, ext)
}
