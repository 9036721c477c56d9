package ring

import (
	"context"
	"runtime"
	"testing"
)

func TestPeek(t *testing.T) {
	buf := New[int](8)
	if _, ok := buf.Peek(); ok {
		t.Fatal("expected an empty buffer")
	}
	buf.Push(2)
	buf.Push(3)

	if v, ok := buf.Peek(); !ok || v != 2 {
		t.Errorf("want 2, got %v (%v)", v, ok)
	}
	if want, got := 2, buf.Len(); want != got {
		t.Errorf("peek removed an item: want len %v, got %v", want, got)
	}
	buf.Pop()
	if v, ok := buf.Pop(); !ok || v != 3 {
		t.Errorf("want 3, got %v (%v)", v, ok)
	}
	if want, got := 0, buf.Len(); want != got {
		t.Errorf("want len %v, got %v", want, got)
	}
}

func TestBuffer(t *testing.T) {
	// The consumer must not starve the producer on a single thread.
	defer runtime.GOMAXPROCS(runtime.GOMAXPROCS(1))

	buf := New[int](8)

	done := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())

	var items []int
	drain := func() {
		for {
			v, ok := buf.Pop()
			if !ok {
				return
			}
			items = append(items, v)
		}
	}
	go func() {
		for {
			select {
			case <-ctx.Done():
				drain()
				done <- struct{}{}
				return
			default:
				drain()
				runtime.Gosched()
			}
		}
	}()

	const numItems = 1_000_000
	for n := 0; n < numItems; n++ {
		buf.Push(n)
	}

	cancel()
	<-done

	if len(items) != numItems {
		t.Errorf("wrong number of items: want %v, got %v", numItems, len(items))
	}

	prev := -1
	for _, v := range items {
		if want, got := prev+1, v; want != got {
			t.Fatalf("discontinuous items: want: %v, got %v", want, got)
		}
		prev++
	}
}

func TestSize(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected a panic for a size that is not a power of 2")
		}
	}()
	New[byte](6)
}
