package core

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Failure categories. Every error produced by flowvid wraps exactly one of
// them so callers can branch with errors.Is.
var (
	// ErrInvalidArgument reports an out-of-range parameter.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrTypeMismatch reports a stream whose kind a consumer does not accept.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrLengthMismatch reports streams that must have equal length but don't.
	ErrLengthMismatch = errors.New("length mismatch")
	// ErrMalformedFile reports a file whose content cannot be decoded.
	ErrMalformedFile = errors.New("malformed file")
	// ErrSourceNotFound reports a path that yields no usable input.
	ErrSourceNotFound = errors.New("source not found")
	// ErrIndexOutOfRange reports random access beyond a stream's length
	// or on a stream that only supports sequential iteration.
	ErrIndexOutOfRange = errors.New("index out of range")
)

// Invalidf returns an error wrapping ErrInvalidArgument.
func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// Malformedf returns an error wrapping ErrMalformedFile.
func Malformedf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedFile, fmt.Sprintf(format, args...))
}

// KindError describes a stream handed to an operation that does not accept
// its kind. It unwraps to ErrTypeMismatch.
type KindError struct {
	Op   string
	Got  Kind
	Want []Kind
}

func (e *KindError) Error() string {
	want := make([]string, len(e.Want))
	for i, k := range e.Want {
		want[i] = k.String()
	}
	return fmt.Sprintf("%s: %v: got %s, want %s", e.Op, ErrTypeMismatch, e.Got, strings.Join(want, " or "))
}

func (e *KindError) Unwrap() error {
	return ErrTypeMismatch
}

// ErrPanic wraps a recovered panic value as an error.
// This is used when a per-frame function panics while a stream is produced.
// It includes a stack trace with internal flowvid frames removed.
type ErrPanic struct {
	Value any
	Stack string
}

func (e ErrPanic) Error() string {
	if e.Stack != "" {
		return fmt.Sprintf("panic: %v\n%s", e.Value, e.Stack)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// NewPanicError creates an ErrPanic from a recovered value.
func NewPanicError(recovered any) ErrPanic {
	return ErrPanic{
		Value: recovered,
		Stack: cleanStack(captureStack(4)), // skip: runtime.Callers, captureStack, NewPanicError, defer func
	}
}

func captureStack(skip int) string {
	const maxFrames = 32
	var pcs [maxFrames]uintptr
	n := runtime.Callers(skip, pcs[:])
	if n == 0 {
		return ""
	}

	frames := runtime.CallersFrames(pcs[:n])
	var sb strings.Builder
	for {
		frame, more := frames.Next()
		fmt.Fprintf(&sb, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		if !more {
			break
		}
	}
	return sb.String()
}

// cleanStack drops the flowvid/core frames (and the file:line that follows
// each of them) so the trace starts in the caller's function.
func cleanStack(stack string) string {
	var kept []string
	skipNext := false
	for _, line := range strings.Split(stack, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if !strings.HasPrefix(line, "\t") {
			skipNext = strings.Contains(line, "github.com/lguimbarda/flowvid/flowvid/core.")
			if skipNext {
				continue
			}
		} else if skipNext {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
