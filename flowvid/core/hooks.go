package core

import (
	"context"
)

// Hooks holds typed observation callbacks for stream consumption.
// All fields are optional - nil means no observation for that event.
// Hooks are invoked synchronously by the terminal functions, so they
// should be fast to avoid stalling the pipeline.
type Hooks[T any] struct {
	OnStart    func()      // Consumption begins
	OnValue    func(T)     // A frame was produced
	OnError    func(error) // The stream failed
	OnComplete func()      // Consumption finished (also after an error)
}

// hooksKey is unexported to prevent collisions with user context keys.
type hooksKey[T any] struct{}

type hooksContainer[T any] struct {
	hookSets []*Hooks[T]
}

// WithHooks attaches typed hooks to the context.
// Multiple calls compose in FIFO order - hooks from earlier calls are
// invoked before hooks from later calls.
//
// Example:
//
//	ctx := core.WithHooks(ctx, core.Hooks[*image.RGBA]{
//	    OnValue: func(*image.RGBA) { frames.Add(1) },
//	})
func WithHooks[T any](ctx context.Context, hooks Hooks[T]) context.Context {
	if ctx == nil {
		panic("nil context")
	}

	existing := getHooksContainer[T](ctx)
	if existing == nil {
		return context.WithValue(ctx, hooksKey[T]{}, &hooksContainer[T]{
			hookSets: []*Hooks[T]{&hooks},
		})
	}

	next := &hooksContainer[T]{
		hookSets: make([]*Hooks[T], len(existing.hookSets), len(existing.hookSets)+1),
	}
	copy(next.hookSets, existing.hookSets)
	next.hookSets = append(next.hookSets, &hooks)
	return context.WithValue(ctx, hooksKey[T]{}, next)
}

func getHooksContainer[T any](ctx context.Context) *hooksContainer[T] {
	if ctx == nil {
		return nil
	}
	if c, ok := ctx.Value(hooksKey[T]{}).(*hooksContainer[T]); ok {
		return c
	}
	return nil
}

// hookInvoker is resolved once per traversal.
type hookInvoker[T any] struct {
	sets []*Hooks[T]
}

func newHookInvoker[T any](ctx context.Context) hookInvoker[T] {
	if c := getHooksContainer[T](ctx); c != nil {
		return hookInvoker[T]{sets: c.hookSets}
	}
	return hookInvoker[T]{}
}

func (h hookInvoker[T]) start() {
	for _, hooks := range h.sets {
		if hooks.OnStart != nil {
			hooks.OnStart()
		}
	}
}

func (h hookInvoker[T]) value(v T) {
	for _, hooks := range h.sets {
		if hooks.OnValue != nil {
			hooks.OnValue(v)
		}
	}
}

func (h hookInvoker[T]) fail(err error) {
	for _, hooks := range h.sets {
		if hooks.OnError != nil {
			hooks.OnError(err)
		}
	}
}

func (h hookInvoker[T]) complete() {
	for _, hooks := range h.sets {
		if hooks.OnComplete != nil {
			hooks.OnComplete()
		}
	}
}
