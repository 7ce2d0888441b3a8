// Package core defines the stream abstractions the visualisation pipeline
// is built from: kind-tagged streams, filters attached copy-on-write, and
// the terminal functions that drive them.
//
// A stream comes in one of two capability levels. Every stream can be
// iterated in order; an Indexed stream additionally answers random access
// because its elements do not depend on each other. Whether a derived
// stream is Indexed is decided when it is built, from the capabilities of
// its inputs and the statefulness of the stages applied to them.
//
// NOTE: this package should have no dependencies outside the standard
// library, including other flowvid packages.
package core

import (
	"context"
	"fmt"
	"iter"
)

// Stream represents an ordered, length-known sequence of frames of a single
// kind. All restarts production from the first element on every call; a
// stream built on stateful stages recomputes that state from scratch for
// each traversal, so two traversals must not be interleaved.
type Stream[T any] interface {
	Kind() Kind
	Len() int
	All(context.Context) iter.Seq[Result[T]]
}

// Indexed is a Stream whose elements can be produced independently.
type Indexed[T any] interface {
	Stream[T]
	At(ctx context.Context, i int) (T, error)
}

// IsIndexed reports whether s supports random access.
func IsIndexed[T any](s Stream[T]) bool {
	_, ok := s.(Indexed[T])
	return ok
}

// sequence is the sequential-only building block: a generator invoked anew
// on each traversal.
type sequence[T any] struct {
	kind Kind
	n    int
	gen  func(context.Context, func(T) bool) error
}

// Sequence creates a sequential stream of n elements from a generator.
// gen is called once per traversal and must call yield for each element in
// order, stopping when yield returns false. A non-nil return value is
// delivered to the consumer as the stream's final Result.
func Sequence[T any](kind Kind, n int, gen func(ctx context.Context, yield func(T) bool) error) Stream[T] {
	return &sequence[T]{kind: kind, n: n, gen: gen}
}

func (s *sequence[T]) Kind() Kind { return s.kind }
func (s *sequence[T]) Len() int   { return s.n }

func (s *sequence[T]) All(ctx context.Context) iter.Seq[Result[T]] {
	return func(yield func(Result[T]) bool) {
		stopped := false
		err := s.gen(ctx, func(v T) bool {
			if stopped {
				return false
			}
			if err := ctx.Err(); err != nil {
				stopped = true
				yield(Err[T](err))
				return false
			}
			if !yield(Ok(v)) {
				stopped = true
			}
			return !stopped
		})
		if err != nil && !stopped {
			yield(Err[T](err))
		}
	}
}

type funcStream[T any] struct {
	kind Kind
	n    int
	at   func(context.Context, int) (T, error)
}

// FromFunc creates an Indexed stream of n elements computed by at.
// Bounds are checked before at is called.
func FromFunc[T any](kind Kind, n int, at func(ctx context.Context, i int) (T, error)) Indexed[T] {
	return &funcStream[T]{kind: kind, n: n, at: at}
}

// FromSlice creates an Indexed stream over in-memory values.
func FromSlice[T any](kind Kind, values []T) Indexed[T] {
	return FromFunc(kind, len(values), func(_ context.Context, i int) (T, error) {
		return values[i], nil
	})
}

func (s *funcStream[T]) Kind() Kind { return s.kind }
func (s *funcStream[T]) Len() int   { return s.n }

func (s *funcStream[T]) At(ctx context.Context, i int) (T, error) {
	if i < 0 || i >= s.n {
		var zero T
		return zero, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, i, s.n)
	}
	return s.at(ctx, i)
}

func (s *funcStream[T]) All(ctx context.Context) iter.Seq[Result[T]] {
	return func(yield func(Result[T]) bool) {
		for i := range s.n {
			if err := ctx.Err(); err != nil {
				yield(Err[T](err))
				return
			}
			v, err := s.at(ctx, i)
			if err != nil {
				yield(Err[T](err))
				return
			}
			if !yield(Ok(v)) {
				return
			}
		}
	}
}

// Emit drains s on its own goroutine and delivers the Results over a
// channel with the given buffer size. The channel is closed after the last
// element, after an error, or when ctx is cancelled.
func Emit[T any](ctx context.Context, s Stream[T], bufferSize int) <-chan Result[T] {
	out := make(chan Result[T], bufferSize)
	go func() {
		defer close(out)
		for res := range s.All(ctx) {
			select {
			case <-ctx.Done():
				return
			case out <- res:
			}
		}
	}()
	return out
}
