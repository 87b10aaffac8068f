package pool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestMapOrder(t *testing.T) {
	p := New(3)

	items := []int{5, 1, 4, 2, 3}
	results, err := Map(context.Background(), p, items, func(_ context.Context, n int) (int, error) {
		// Finish in a different order than submitted.
		time.Sleep(time.Duration(n) * 5 * time.Millisecond)
		return n * n, nil
	})
	if err != nil {
		t.Fatal(err)
	}

	exp := []int{25, 1, 16, 4, 9}
	for i := range exp {
		if results[i] != exp[i] {
			t.Fatalf("expected %v, got %v", exp, results)
		}
	}
}

func TestMapLimit(t *testing.T) {
	p := New(2)

	var running, peak atomic.Int32
	_, err := Map(context.Background(), p, make([]struct{}, 10), func(context.Context, struct{}) (struct{}, error) {
		n := running.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		running.Add(-1)
		return struct{}{}, nil
	})
	if err != nil {
		t.Fatal(err)
	}

	if exp, act := int32(2), peak.Load(); act > exp {
		t.Errorf("expected at most %d concurrent tasks, got %d", exp, act)
	}
}

func TestMapError(t *testing.T) {
	p := New(1)
	boom := errors.New("boom")

	var ran atomic.Int32
	_, err := Map(context.Background(), p, []int{1, 2, 3, 4}, func(_ context.Context, n int) (int, error) {
		ran.Add(1)
		if n == 2 {
			return 0, boom
		}
		return n, nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if ran.Load() == 4 {
		t.Error("expected the batch to stop after the failure")
	}
}

func TestMapCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Map(ctx, New(2), []int{1, 2}, func(_ context.Context, n int) (int, error) {
		return n, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDefaultWorkers(t *testing.T) {
	if New(0).Workers() < 1 {
		t.Fatal("expected at least one worker")
	}
}
