package otel

import (
	"sync"
	"testing"
)

func TestPushAndSnapshot(t *testing.T) {
	r := NewRingBuffer(8)
	for i := 0; i < 5; i++ {
		r.Push(Event{Kind: KindFetchStart, Count: i})
	}

	snap := r.Snapshot()
	if len(snap) != 5 {
		t.Fatalf("expected 5 events, got %d", len(snap))
	}
	for i, e := range snap {
		if e.Count != i {
			t.Errorf("snap[%d].Count=%d, want %d", i, e.Count, i)
		}
	}
}

func TestWrapAround(t *testing.T) {
	r := NewRingBuffer(4)
	for i := 0; i < 8; i++ {
		r.Push(Event{Kind: KindFetchStart, Count: i})
	}

	snap := r.Snapshot()
	if len(snap) != 4 {
		t.Fatalf("expected 4 events, got %d", len(snap))
	}
	for i, e := range snap {
		if want := i + 4; e.Count != want {
			t.Errorf("snap[%d].Count=%d, want %d", i, e.Count, want)
		}
	}
}

func TestLast(t *testing.T) {
	r := NewRingBuffer(4)
	if r.Last(3) != nil {
		t.Error("Last on empty buffer should be nil")
	}
	for i := 0; i < 6; i++ {
		r.Push(Event{Kind: KindFetchStart, Count: i})
	}

	last := r.Last(3)
	if len(last) != 3 {
		t.Fatalf("expected 3, got %d", len(last))
	}
	for i, e := range last {
		if want := i + 3; e.Count != want {
			t.Errorf("last[%d].Count=%d, want %d", i, e.Count, want)
		}
	}
	if got := len(r.Last(100)); got != 4 {
		t.Errorf("Last(100) returned %d events, want 4", got)
	}
}

func TestExtraIsCopied(t *testing.T) {
	r := NewRingBuffer(2)
	extra := map[string]any{"k": 1}
	r.Push(Event{Kind: KindPivot, Extra: extra})
	extra["k"] = 2

	if got := r.Snapshot()[0].Extra["k"]; got != 1 {
		t.Errorf("Extra aliased: got %v, want 1", got)
	}
}

func TestCounts(t *testing.T) {
	r := NewRingBuffer(8)
	r.Push(Event{Kind: KindFetchStart})
	r.Push(Event{Kind: KindFetchStart})
	r.Push(Event{Kind: KindAssetEvict})

	counts := r.Counts()
	if counts[KindFetchStart] != 2 || counts[KindAssetEvict] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}
}

func TestConcurrentPush(t *testing.T) {
	r := NewRingBuffer(64)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				r.Push(Event{Kind: KindPrefetchDone})
				_ = r.Last(5)
			}
		}()
	}
	wg.Wait()
	if r.Len() != 64 {
		t.Errorf("Len=%d, want 64", r.Len())
	}
}
