package feed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/artscroll/internal/assets"
	"github.com/abelbrown/artscroll/internal/catalog"
)

// fakeCatalog serves queued discovery batches and fixed author results.
type fakeCatalog struct {
	mu          sync.Mutex
	random      [][]catalog.RawRecord
	byAuthor    map[string][]catalog.RawRecord
	err         error
	randomCalls int
	authorCalls []string
}

func (c *fakeCatalog) FetchRandom(ctx context.Context, n int) ([]catalog.RawRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.randomCalls++
	if c.err != nil {
		return nil, c.err
	}
	if len(c.random) == 0 {
		return nil, nil
	}
	batch := c.random[0]
	c.random = c.random[1:]
	return batch, nil
}

func (c *fakeCatalog) FetchByAuthor(ctx context.Context, name string, n int) ([]catalog.RawRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authorCalls = append(c.authorCalls, name)
	if c.err != nil {
		return nil, c.err
	}
	return c.byAuthor[name], nil
}

func (c *fakeCatalog) calls() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.randomCalls, len(c.authorCalls)
}

// fakeTranslator prefixes text, or fails when fail is set.
type fakeTranslator struct {
	fail bool
}

func (f fakeTranslator) Translate(ctx context.Context, text string) (string, error) {
	if f.fail {
		return "", errors.New("translator down")
	}
	return "T:" + text, nil
}

// fakeLoader fails for refs in bad and records every load.
type fakeLoader struct {
	mu     sync.Mutex
	bad    map[string]bool
	loaded []string
}

func (l *fakeLoader) Load(ctx context.Context, ref string) (assets.Info, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loaded = append(l.loaded, ref)
	if l.bad[ref] {
		return assets.Info{}, assets.ErrUndecodable
	}
	return assets.Info{Ref: ref, Width: 843, Height: 600, Format: "jpeg"}, nil
}

func (l *fakeLoader) count(ref string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, r := range l.loaded {
		if r == ref {
			n++
		}
	}
	return n
}

// fakePresenter records every call.
type fakePresenter struct {
	rendered []string
	removed  []string
	updates  map[string]string
	ready    []string
	errs     []error
}

func newFakePresenter() *fakePresenter {
	return &fakePresenter{updates: make(map[string]string)}
}

func (p *fakePresenter) Render(rec *Record) { p.rendered = append(p.rendered, rec.ID) }

func (p *fakePresenter) Remove(id string) { p.removed = append(p.removed, id) }

func (p *fakePresenter) UpdateText(id string, f Field, v string) {
	p.updates[id+"/"+f.String()] = v
}
func (p *fakePresenter) AssetReady(id string, info assets.Info) {
	p.ready = append(p.ready, id)
}

func (p *fakePresenter) ShowError(err error) { p.errs = append(p.errs, err) }

func raws(prefix string, n int) []catalog.RawRecord {
	out := make([]catalog.RawRecord, n)
	for i := range out {
		id := fmt.Sprintf("%s%d", prefix, i)
		out[i] = catalog.RawRecord{
			ID:          id,
			ImageRef:    "https://img.test/" + id + ".jpg",
			Author:      "Artist " + strings.ToUpper(prefix),
			Title:       "Title " + id,
			Description: "About " + id,
		}
	}
	return out
}

type harness struct {
	engine    *Engine
	tracker   *Tracker
	catalog   *fakeCatalog
	loader    *fakeLoader
	presenter *fakePresenter
}

func newHarness(t *testing.T, cat *fakeCatalog, opts Options) *harness {
	t.Helper()
	if opts.Shuffle == nil {
		opts.Shuffle = func(int, func(i, j int)) {}
	}
	loader := &fakeLoader{bad: make(map[string]bool)}
	pres := newFakePresenter()
	e := NewEngine(context.Background(), NewState(), Deps{
		Catalog:    cat,
		Translator: fakeTranslator{},
		Assets:     loader,
		Presenter:  pres,
	}, opts)
	return &harness{engine: e, tracker: NewTracker(e), catalog: cat, loader: loader, presenter: pres}
}

// run executes cmd synchronously, flattening batches.
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, run(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// settle runs cmd and feeds every resulting message back through the engine
// until nothing is left, checking state invariants after each step.
func (h *harness) settle(t *testing.T, cmd tea.Cmd) {
	t.Helper()
	h.deliver(t, run(cmd)...)
}

func (h *harness) deliver(t *testing.T, msgs ...tea.Msg) {
	t.Helper()
	queue := msgs
	for len(queue) > 0 {
		msg := queue[0]
		queue = queue[1:]
		next, ok := h.engine.Update(msg)
		if !ok {
			t.Fatalf("engine did not handle %T", msg)
		}
		if err := h.engine.State().checkInvariants(); err != nil {
			t.Fatalf("invariant violated after %T: %v", msg, err)
		}
		queue = append(queue, run(next)...)
	}
}

// slides lays out one 10-row slide per record.
func slides(s *State) []SlidePosition {
	out := make([]SlidePosition, 0, s.Len())
	for i, r := range s.Records() {
		out = append(out, SlidePosition{ID: r.ID, Top: i * 10, Height: 10})
	}
	return out
}

// viewAt returns a viewport top whose midpoint falls inside slide i.
func viewAt(i int) (top, height int) {
	return i*10 + 1, 6
}
