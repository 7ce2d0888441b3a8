package core

import (
	"context"
	"iter"
	"slices"
)

// Filter is a per-element transform attached to a stream with Chain.
// Apply must not modify its argument; it returns a new value instead.
type Filter[T any] interface {
	Apply(T) (T, error)
}

// FilterFunc adapts a function to the Filter interface.
type FilterFunc[T any] func(T) (T, error)

func (f FilterFunc[T]) Apply(v T) (T, error) { return f(v) }

// Stateful is a Filter whose output depends on the elements it has already
// seen. Fork returns an instance with fresh state; a chained stream forks
// each stateful stage at the start of every traversal. A chain holding a
// Stateful stage is sequential-only.
type Stateful[T any] interface {
	Filter[T]
	Fork() Filter[T]
}

// chain is an immutable view: an upstream source plus an ordered list of
// stages. Attaching a filter builds a new chain sharing the source.
type chain[T any] struct {
	src    Stream[T]
	stages []Filter[T]
}

type indexedChain[T any] struct {
	*chain[T]
}

// Chain returns a new stream applying filters, in order, to every element
// of s at production time. s itself is left untouched, so one source can
// feed several independently filtered pipelines. The result is Indexed
// when s is and none of the filters are Stateful.
func Chain[T any](s Stream[T], filters ...Filter[T]) Stream[T] {
	src, stages := s, []Filter[T](nil)
	switch c := s.(type) {
	case *chain[T]:
		src, stages = c.src, c.stages
	case *indexedChain[T]:
		src, stages = c.src, c.stages
	}
	next := &chain[T]{
		src:    src,
		stages: append(slices.Clip(stages), filters...),
	}
	if _, ok := src.(Indexed[T]); ok && !next.stateful() {
		return &indexedChain[T]{next}
	}
	return next
}

// Stages returns the filters attached to s by Chain, in application order.
func Stages[T any](s Stream[T]) []Filter[T] {
	switch c := s.(type) {
	case *chain[T]:
		return slices.Clone(c.stages)
	case *indexedChain[T]:
		return slices.Clone(c.stages)
	}
	return nil
}

func (c *chain[T]) Kind() Kind { return c.src.Kind() }
func (c *chain[T]) Len() int   { return c.src.Len() }

func (c *chain[T]) stateful() bool {
	for _, f := range c.stages {
		if _, ok := f.(Stateful[T]); ok {
			return true
		}
	}
	return false
}

// fork returns the stage list for one traversal.
func (c *chain[T]) fork() []Filter[T] {
	stages := make([]Filter[T], len(c.stages))
	for i, f := range c.stages {
		if sf, ok := f.(Stateful[T]); ok {
			stages[i] = sf.Fork()
			continue
		}
		stages[i] = f
	}
	return stages
}

func applyStages[T any](stages []Filter[T], v T) (out T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewPanicError(r)
		}
	}()
	for _, f := range stages {
		if v, err = f.Apply(v); err != nil {
			return v, err
		}
	}
	return v, nil
}

func (c *chain[T]) All(ctx context.Context) iter.Seq[Result[T]] {
	return func(yield func(Result[T]) bool) {
		stages := c.fork()
		for res := range c.src.All(ctx) {
			if res.IsError() {
				yield(res)
				return
			}
			v, err := applyStages(stages, res.Value())
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

func (c *indexedChain[T]) At(ctx context.Context, i int) (T, error) {
	v, err := c.src.(Indexed[T]).At(ctx, i)
	if err != nil {
		return v, err
	}
	return applyStages(c.stages, v)
}
