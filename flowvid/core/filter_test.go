package core

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func add(n int) Filter[int] {
	return FilterFunc[int](func(v int) (int, error) { return v + n, nil })
}

// runningSum replaces each element by the sum of the elements seen so far.
type runningSum struct {
	sum int
}

func (r *runningSum) Apply(v int) (int, error) {
	r.sum += v
	return r.sum, nil
}

func (r *runningSum) Fork() Filter[int] { return &runningSum{} }

func TestChainCopyOnWrite(t *testing.T) {
	ctx := context.Background()
	src := FromSlice(KindFlow, []int{1, 2, 3})

	plusOne := Chain(src, add(1))
	plusTen := Chain(src, add(10))
	both := Chain(plusOne, add(100))

	tests := []struct {
		name   string
		stream Stream[int]
		want   []int
		stages int
	}{
		{"source untouched", src, []int{1, 2, 3}, 0},
		{"first branch", plusOne, []int{2, 3, 4}, 1},
		{"second branch", plusTen, []int{11, 12, 13}, 1},
		{"extended branch", both, []int{102, 103, 104}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Slice(ctx, tt.stream)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("values (-want +got):\n%s", diff)
			}
			if n := len(Stages(tt.stream)); n != tt.stages {
				t.Errorf("len(Stages()) = %d, want %d", n, tt.stages)
			}
			if !IsIndexed(tt.stream) {
				t.Error("stateless chain over indexed source should be indexed")
			}
		})
	}

	// Appending to a branch must not leak into a sibling sharing its backing array.
	a := Chain(plusOne, add(1000))
	b := Chain(plusOne, add(-1))
	va, _ := At(ctx, a, 0)
	vb, _ := At(ctx, b, 0)
	if va != 1002 || vb != 1 {
		t.Errorf("sibling branches interfere: got %d and %d, want 1002 and 1", va, vb)
	}
}

func TestChainStateful(t *testing.T) {
	ctx := context.Background()
	s := Chain(FromSlice(KindFlow, []int{1, 2, 3}), add(1), &runningSum{})

	if IsIndexed(s) {
		t.Fatal("chain with stateful stage should be sequential")
	}
	if _, err := At(ctx, s, 0); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("At() error = %v, want ErrIndexOutOfRange", err)
	}
	for range 2 {
		got, err := Slice(ctx, s)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]int{2, 5, 9}, got); diff != "" {
			t.Errorf("each traversal should fork fresh state (-want +got):\n%s", diff)
		}
	}
}

func TestChainErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	failOnTwo := FilterFunc[int](func(v int) (int, error) {
		if v == 2 {
			return 0, boom
		}
		return v, nil
	})

	s := Chain(FromSlice(KindFlow, []int{1, 2, 3}), failOnTwo)
	if _, err := Slice(ctx, s); !errors.Is(err, boom) {
		t.Errorf("Slice() error = %v, want %v", err, boom)
	}
	if _, err := At(ctx, s, 1); !errors.Is(err, boom) {
		t.Errorf("At(1) error = %v, want %v", err, boom)
	}

	panicky := FilterFunc[int](func(int) (int, error) { panic("bad frame") })
	_, err := Slice(ctx, Chain(FromSlice(KindFlow, []int{1}), panicky))
	var perr ErrPanic
	if !errors.As(err, &perr) || perr.Value != "bad frame" {
		t.Errorf("Slice() error = %v, want ErrPanic(bad frame)", err)
	}
}
