package core

import (
	"context"
	"fmt"
)

// Terminal functions drive a stream to produce a final result. They are the
// only place hooks registered with WithHooks fire.

// Each calls fn with the index and value of every element of s, in order.
// It stops at the first error, either from the stream or from fn.
func Each[T any](ctx context.Context, s Stream[T], fn func(int, T) error) error {
	hooks := newHookInvoker[T](ctx)
	hooks.start()
	defer hooks.complete()

	i := 0
	for res := range s.All(ctx) {
		if res.IsError() {
			hooks.fail(res.Error())
			return res.Error()
		}
		hooks.value(res.Value())
		if fn != nil {
			if err := fn(i, res.Value()); err != nil {
				hooks.fail(err)
				return err
			}
		}
		i++
	}
	return nil
}

// Slice collects every element of s.
func Slice[T any](ctx context.Context, s Stream[T]) ([]T, error) {
	out := make([]T, 0, max(s.Len(), 0))
	err := Each(ctx, s, func(_ int, v T) error {
		out = append(out, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Run drains s for its side effects.
func Run[T any](ctx context.Context, s Stream[T]) error {
	return Each(ctx, s, nil)
}

// First returns the first element of s.
func First[T any](ctx context.Context, s Stream[T]) (T, error) {
	for res := range s.All(ctx) {
		return res.Unwrap()
	}
	var zero T
	return zero, fmt.Errorf("%w: stream is empty", ErrIndexOutOfRange)
}

// At returns element i of s. Sequential streams fail with
// ErrIndexOutOfRange since their elements cannot be produced out of order.
func At[T any](ctx context.Context, s Stream[T], i int) (T, error) {
	ix, ok := s.(Indexed[T])
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s stream is sequential-only", ErrIndexOutOfRange, s.Kind())
	}
	return ix.At(ctx, i)
}
