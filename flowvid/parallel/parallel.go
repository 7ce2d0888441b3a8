// Package parallel renders the frames of an indexed stream concurrently
// while still delivering them in order.
package parallel

import (
	"context"
	"iter"

	"github.com/destel/rill"

	"github.com/lguimbarda/flowvid/flowvid/core"
)

// Prefetch returns a stream that computes up to n frames of s ahead of the
// consumer on separate goroutines. Frames are still yielded in index
// order and the first error ends the traversal.
//
// Only Indexed streams can be fetched out of order; any other stream, or
// n <= 1, is returned unchanged.
func Prefetch[T any](s core.Stream[T], n int) core.Stream[T] {
	src, ok := s.(core.Indexed[T])
	if !ok || n <= 1 {
		return s
	}
	return &prefetch[T]{src: src, n: n}
}

type prefetch[T any] struct {
	src core.Indexed[T]
	n   int
}

func (p *prefetch[T]) Kind() core.Kind { return p.src.Kind() }
func (p *prefetch[T]) Len() int        { return p.src.Len() }

func (p *prefetch[T]) At(ctx context.Context, i int) (T, error) {
	return p.src.At(ctx, i)
}

func (p *prefetch[T]) All(ctx context.Context) iter.Seq[core.Result[T]] {
	return func(yield func(core.Result[T]) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		indices := make([]int, p.src.Len())
		for i := range indices {
			indices[i] = i
		}
		frames := rill.OrderedMap(rill.FromSlice(indices, nil), p.n, func(i int) (T, error) {
			return p.at(ctx, i)
		})
		// Release the workers if the consumer stops early.
		defer rill.DrainNB(frames)

		for f := range frames {
			if f.Error != nil {
				yield(core.Err[T](f.Error))
				return
			}
			if !yield(core.Ok(f.Value)) {
				return
			}
		}
	}
}

func (p *prefetch[T]) at(ctx context.Context, i int) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = core.NewPanicError(r)
		}
	}()
	if err := ctx.Err(); err != nil {
		return v, err
	}
	return p.src.At(ctx, i)
}
