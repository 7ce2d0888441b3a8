package parallel_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/lguimbarda/flowvid/flowvid/core"
	"github.com/lguimbarda/flowvid/flowvid/parallel"
)

func slowSquares(n int, running, peak *atomic.Int32) core.Indexed[int] {
	return core.FromFunc(core.KindUnknown, n, func(_ context.Context, i int) (int, error) {
		cur := running.Add(1)
		defer running.Add(-1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		// Later frames finish first.
		time.Sleep(time.Duration(n-i) * time.Millisecond)
		return i * i, nil
	})
}

func TestPrefetchOrder(t *testing.T) {
	var running, peak atomic.Int32
	s := parallel.Prefetch[int](slowSquares(8, &running, &peak), 4)
	got, err := core.Slice(context.Background(), s)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{0, 1, 4, 9, 16, 25, 36, 49}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("frames mismatch (-want +got):\n%s", diff)
	}
	if p := peak.Load(); p > 4 {
		t.Errorf("peak concurrency = %d, want <= 4", p)
	}
	if s.Len() != 8 || !core.IsIndexed(s) {
		t.Errorf("Len = %d, indexed = %v", s.Len(), core.IsIndexed(s))
	}
}

func TestPrefetchError(t *testing.T) {
	boom := errors.New("boom")
	s := core.FromFunc(core.KindUnknown, 5, func(_ context.Context, i int) (int, error) {
		if i == 2 {
			return 0, boom
		}
		return i, nil
	})
	var got []int
	err := core.Each(context.Background(), parallel.Prefetch[int](s, 3), func(_ int, v int) error {
		got = append(got, v)
		return nil
	})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
	if diff := cmp.Diff([]int{0, 1}, got); diff != "" {
		t.Errorf("frames before error mismatch (-want +got):\n%s", diff)
	}
}

func TestPrefetchPanic(t *testing.T) {
	s := core.FromFunc(core.KindUnknown, 3, func(_ context.Context, i int) (int, error) {
		if i == 1 {
			panic("bad frame")
		}
		return i, nil
	})
	_, err := core.Slice(context.Background(), parallel.Prefetch[int](s, 2))
	var perr core.ErrPanic
	if !errors.As(err, &perr) {
		t.Errorf("err = %v, want ErrPanic", err)
	}
}

func TestPrefetchEarlyStop(t *testing.T) {
	var running, peak atomic.Int32
	s := parallel.Prefetch[int](slowSquares(20, &running, &peak), 4)
	v, err := core.First(context.Background(), s)
	if err != nil || v != 0 {
		t.Fatalf("First = %d, %v", v, err)
	}
}

func TestPrefetchPassThrough(t *testing.T) {
	seq := core.Sequence(core.KindUnknown, 2, func(_ context.Context, yield func(int) bool) error {
		yield(1)
		yield(2)
		return nil
	})
	if got := parallel.Prefetch(seq, 4); got != seq {
		t.Error("sequential stream was wrapped")
	}
	idx := core.FromSlice(core.KindUnknown, []int{1})
	if got := parallel.Prefetch[int](idx, 1); got != core.Stream[int](idx) {
		t.Error("single worker stream was wrapped")
	}
}
