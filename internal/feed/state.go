package feed

import "fmt"

// State is the feed owned by one session. It is shared by reference between
// the Engine, the Tracker and the Prefetcher and must only be touched from
// the UI event loop.
type State struct {
	mode          Mode
	records       []*Record
	seen          map[string]struct{}
	currentIndex  int
	fetchInFlight bool
	generation    uint64
}

// NewState returns an empty Discovery feed at generation 0.
func NewState() *State {
	return &State{
		mode: DiscoveryMode(),
		seen: make(map[string]struct{}),
	}
}

func (s *State) Mode() Mode { return s.mode }
func (s *State) Generation() uint64 { return s.generation }
func (s *State) CurrentIndex() int { return s.currentIndex }
func (s *State) FetchInFlight() bool { return s.fetchInFlight }
func (s *State) Len() int { return len(s.records) }

// SeenCount returns the size of the dedup set (for testing).
func (s *State) SeenCount() int { return len(s.seen) }

// Has reports whether id is in the feed.
func (s *State) Has(id string) bool {
	_, ok := s.seen[id]
	return ok
}

// At returns the record at i, or nil when out of range.
func (s *State) At(i int) *Record {
	if i < 0 || i >= len(s.records) {
		return nil
	}
	return s.records[i]
}

// Current returns the record being viewed, or nil for an empty feed.
func (s *State) Current() *Record {
	return s.At(s.currentIndex)
}

// IndexOf returns the position of id, or -1.
func (s *State) IndexOf(id string) int {
	if !s.Has(id) {
		return -1
	}
	for i, r := range s.records {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// Records returns a copy of the record slice.
func (s *State) Records() []*Record {
	out := make([]*Record, len(s.records))
	copy(out, s.records)
	return out
}

// reset starts a new generation in mode.
func (s *State) reset(mode Mode) {
	s.generation++
	s.mode = mode
	s.records = nil
	s.seen = make(map[string]struct{})
	s.currentIndex = 0
}

// append adds records whose IDs are not yet present, preserving order.
func (s *State) append(recs []*Record) {
	for _, r := range recs {
		if s.Has(r.ID) {
			continue
		}
		s.records = append(s.records, r)
		s.seen[r.ID] = struct{}{}
	}
}

// remove evicts id, keeping the order of the rest. A removal at or before
// the current index moves the index back by one so it keeps pointing at the
// same record. Reports the removed position.
func (s *State) remove(id string) (int, bool) {
	idx := s.IndexOf(id)
	if idx < 0 {
		return -1, false
	}
	s.records = append(s.records[:idx], s.records[idx+1:]...)
	delete(s.seen, id)
	if idx <= s.currentIndex && s.currentIndex > 0 {
		s.currentIndex--
	}
	if s.currentIndex >= len(s.records) {
		s.currentIndex = max(len(s.records)-1, 0)
	}
	return idx, true
}

// checkInvariants reports the first violated state invariant.
func (s *State) checkInvariants() error {
	if len(s.seen) != len(s.records) {
		return fmt.Errorf("seen has %d ids, records has %d", len(s.seen), len(s.records))
	}
	ids := make(map[string]struct{}, len(s.records))
	for i, r := range s.records {
		if _, dup := ids[r.ID]; dup {
			return fmt.Errorf("duplicate id %q at %d", r.ID, i)
		}
		ids[r.ID] = struct{}{}
		if _, ok := s.seen[r.ID]; !ok {
			return fmt.Errorf("id %q at %d missing from seen", r.ID, i)
		}
	}
	if len(s.records) == 0 && s.currentIndex != 0 {
		return fmt.Errorf("empty feed with current index %d", s.currentIndex)
	}
	if len(s.records) > 0 && (s.currentIndex < 0 || s.currentIndex >= len(s.records)) {
		return fmt.Errorf("current index %d outside [0, %d)", s.currentIndex, len(s.records))
	}
	return nil
}
