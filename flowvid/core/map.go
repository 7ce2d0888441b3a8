package core

import (
	"context"
	"fmt"
	"iter"
)

// call invokes fn and turns a panic into an ErrPanic.
func call[IN, OUT any](fn func(IN) (OUT, error), v IN) (out OUT, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewPanicError(r)
		}
	}()
	return fn(v)
}

// Map creates a stream of the given kind whose elements are fn applied to
// the elements of s. The result is Indexed iff s is.
func Map[IN, OUT any](s Stream[IN], kind Kind, fn func(IN) (OUT, error)) Stream[OUT] {
	if ix, ok := s.(Indexed[IN]); ok {
		return FromFunc(kind, s.Len(), func(ctx context.Context, i int) (OUT, error) {
			v, err := ix.At(ctx, i)
			if err != nil {
				var zero OUT
				return zero, err
			}
			return call(fn, v)
		})
	}
	return Sequence(kind, s.Len(), func(ctx context.Context, yield func(OUT) bool) error {
		for res := range s.All(ctx) {
			if res.IsError() {
				return res.Error()
			}
			out, err := call(fn, res.Value())
			if err != nil {
				return err
			}
			if !yield(out) {
				return nil
			}
		}
		return nil
	})
}

// pair holds one element from each side of a Zip.
type pair[A, B any] struct {
	a A
	b B
}

// Zip combines two streams of equal length element by element. It fails
// with ErrLengthMismatch when the lengths differ. The result is Indexed iff
// both inputs are.
func Zip[A, B, OUT any](a Stream[A], b Stream[B], kind Kind, fn func(A, B) (OUT, error)) (Stream[OUT], error) {
	if a.Len() != b.Len() {
		return nil, fmt.Errorf("%w: %d and %d elements", ErrLengthMismatch, a.Len(), b.Len())
	}
	return zip(a, b, kind, a.Len(), fn), nil
}

// ZipShortest is like Zip but accepts streams of different lengths and
// stops after the shorter one.
func ZipShortest[A, B, OUT any](a Stream[A], b Stream[B], kind Kind, fn func(A, B) (OUT, error)) Stream[OUT] {
	return zip(a, b, kind, min(a.Len(), b.Len()), fn)
}

func zip[A, B, OUT any](a Stream[A], b Stream[B], kind Kind, n int, fn func(A, B) (OUT, error)) Stream[OUT] {
	joined := func(p pair[A, B]) (OUT, error) { return fn(p.a, p.b) }

	ia, okA := a.(Indexed[A])
	ib, okB := b.(Indexed[B])
	if okA && okB {
		return FromFunc(kind, n, func(ctx context.Context, i int) (OUT, error) {
			var zero OUT
			va, err := ia.At(ctx, i)
			if err != nil {
				return zero, err
			}
			vb, err := ib.At(ctx, i)
			if err != nil {
				return zero, err
			}
			return call(joined, pair[A, B]{va, vb})
		})
	}

	return Sequence(kind, n, func(ctx context.Context, yield func(OUT) bool) error {
		nextA, stopA := iter.Pull(a.All(ctx))
		defer stopA()
		nextB, stopB := iter.Pull(b.All(ctx))
		defer stopB()
		for range n {
			ra, okA := nextA()
			rb, okB := nextB()
			if !okA || !okB {
				return fmt.Errorf("%w: input ended before %d elements", ErrLengthMismatch, n)
			}
			if ra.IsError() {
				return ra.Error()
			}
			if rb.IsError() {
				return rb.Error()
			}
			out, err := call(joined, pair[A, B]{ra.Value(), rb.Value()})
			if err != nil {
				return err
			}
			if !yield(out) {
				return nil
			}
		}
		return nil
	})
}
