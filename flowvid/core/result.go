package core

// Result represents the outcome of producing one element of a stream.
// It holds either a value or the error that ended the stream. Results are
// what iterators and channels carry so a failure can travel alongside data.
type Result[T any] struct {
	value T
	err   error
}

// Ok creates a successful Result containing the given value.
func Ok[T any](value T) Result[T] {
	return Result[T]{value: value}
}

// Err creates an error Result. Streams stop after yielding one.
func Err[T any](err error) Result[T] {
	var zero T
	return Result[T]{value: zero, err: err}
}

// IsValue returns true if this Result contains a successful value.
func (r Result[T]) IsValue() bool {
	return r.err == nil
}

// IsError returns true if this Result carries an error.
func (r Result[T]) IsError() bool {
	return r.err != nil
}

// Value returns the contained value. Returns the zero value for errors.
func (r Result[T]) Value() T {
	return r.value
}

// Error returns the carried error, or nil for value Results.
func (r Result[T]) Error() error {
	return r.err
}

// Unwrap returns the value and error together.
func (r Result[T]) Unwrap() (T, error) {
	return r.value, r.err
}
