package feed

import (
	"testing"

	"github.com/abelbrown/artscroll/internal/catalog"
)

func TestResolve(t *testing.T) {
	layout := []SlidePosition{
		{ID: "a", Top: 0, Height: 10},
		{ID: "b", Top: 10, Height: 10},
		{ID: "c", Top: 25, Height: 5},
	}
	tests := []struct {
		name        string
		top, height int
		want        string
		ok          bool
	}{
		{"first slide", 0, 8, "a", true},
		{"midpoint on boundary", 6, 8, "b", true},
		{"gap between slides", 15, 12, "", false},
		{"last slide", 24, 4, "c", true},
		{"past the end", 40, 10, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Resolve(tt.top, tt.height, layout)
			if got != tt.want || ok != tt.ok {
				t.Errorf("Resolve(%d, %d) = %q, %v; want %q, %v", tt.top, tt.height, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestViewportChangeIgnoresUnknownAndSame(t *testing.T) {
	h := newHarness(t, &fakeCatalog{random: [][]catalog.RawRecord{raws("a", 10)}}, Options{})
	h.settle(t, h.engine.Start(""))
	s := h.engine.State()

	top, height := viewAt(0)
	if cmd := h.tracker.OnViewportChange(top, height, slides(s)); cmd != nil {
		t.Error("same record should produce no work")
	}
	foreign := []SlidePosition{{ID: "ghost", Top: 0, Height: 100}}
	if cmd := h.tracker.OnViewportChange(0, 10, foreign); cmd != nil {
		t.Error("unknown id should produce no work")
	}
	if s.CurrentIndex() != 0 {
		t.Errorf("current = %d", s.CurrentIndex())
	}
}

func TestViewportChangeMaterializesAndPrefetches(t *testing.T) {
	h := newHarness(t, &fakeCatalog{random: [][]catalog.RawRecord{raws("a", 10)}}, Options{})
	h.settle(t, h.engine.Start(""))
	s := h.engine.State()

	top, height := viewAt(4)
	h.settle(t, h.tracker.OnViewportChange(top, height, slides(s)))

	if s.CurrentIndex() != 4 {
		t.Fatalf("current = %d", s.CurrentIndex())
	}
	if !h.engine.Rendered("a5") {
		t.Error("next record not materialized")
	}
	if h.engine.Rendered("a6") {
		t.Error("only the next record should be materialized")
	}
	if n := h.loader.count("https://img.test/a6.jpg"); n != 1 {
		t.Errorf("a6 prefetched %d times", n)
	}
}
