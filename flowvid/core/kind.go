package core

import (
	"context"
	"slices"
)

// Kind tags the semantic type of the elements a stream produces.
// Several kinds share a Go type (flow, error maps and split channels are all
// numeric fields), so the tag is what operators check at construction.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindFlow         // 2-channel displacement field
	KindRGB          // 8-bit color image
	KindEPE          // 1-channel non-negative error map
	KindRect         // one rectangle per frame
	KindPoint        // one point set per frame
	KindChannel      // 1-channel slice of a flow field
)

func (k Kind) String() string {
	switch k {
	case KindFlow:
		return "flo"
	case KindRGB:
		return "rgb"
	case KindEPE:
		return "epe"
	case KindRect:
		return "rect"
	case KindPoint:
		return "point"
	case KindChannel:
		return "channel"
	default:
		return "unknown"
	}
}

// Expect returns a *KindError when s is not of one of the accepted kinds.
// Operators call it when they are built so mismatches surface before any
// frame is decoded.
func Expect[T any](op string, s Stream[T], accepted ...Kind) error {
	if slices.Contains(accepted, s.Kind()) {
		return nil
	}
	return &KindError{Op: op, Got: s.Kind(), Want: accepted}
}

// Retag returns a view of s reporting a different kind. Access
// capability is preserved.
func Retag[T any](s Stream[T], kind Kind) Stream[T] {
	if ix, ok := s.(Indexed[T]); ok {
		return FromFunc(kind, s.Len(), ix.At)
	}
	return Sequence(kind, s.Len(), func(ctx context.Context, yield func(T) bool) error {
		for res := range s.All(ctx) {
			if res.IsError() {
				return res.Error()
			}
			if !yield(res.Value()) {
				return nil
			}
		}
		return nil
	})
}
