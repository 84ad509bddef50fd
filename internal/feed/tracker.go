package feed

import tea "github.com/charmbracelet/bubbletea"

// SlidePosition is the vertical extent of one rendered slide, in rows.
type SlidePosition struct {
	ID     string
	Top    int
	Height int
}

// Resolve returns the slide containing the viewport's vertical midpoint.
func Resolve(top, height int, slides []SlidePosition) (string, bool) {
	mid := top + height/2
	for _, s := range slides {
		if mid >= s.Top && mid < s.Top+s.Height {
			return s.ID, true
		}
	}
	return "", false
}

// Tracker maps viewport geometry to the current record.
type Tracker struct {
	state    *State
	engine   *Engine
	prefetch *Prefetcher
}

func NewTracker(e *Engine) *Tracker {
	return &Tracker{state: e.state, engine: e, prefetch: e.prefetch}
}

// OnViewportChange updates the current index from geometry. When it moves,
// the next record is materialized, prefetch is warmed and the tail trigger
// is checked. Nothing happens if the midpoint misses every slide or lands
// on the record already current.
func (t *Tracker) OnViewportChange(top, height int, slides []SlidePosition) tea.Cmd {
	id, ok := Resolve(top, height, slides)
	if !ok {
		return nil
	}
	idx := t.state.IndexOf(id)
	if idx < 0 || idx == t.state.currentIndex {
		return nil
	}
	t.state.currentIndex = idx
	return tea.Batch(
		t.engine.MaterializeAt(idx+1),
		t.prefetch.Warm(idx),
		t.engine.OnTailApproached(),
	)
}
