// Package feed owns the artwork feed: which records exist, in what order,
// which one is being viewed, and how the feed grows and pivots.
//
// Everything here runs on the Bubble Tea event loop. Engine methods mutate
// State directly and return tea.Cmds for blocking work; the results come back
// as messages through Update. Each command captures the generation it was
// dispatched in, and Update discards results from older generations.
package feed

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/artscroll/internal/catalog"
	"github.com/abelbrown/artscroll/internal/logging"
	"github.com/abelbrown/artscroll/internal/otel"
)

var (
	// ErrNoArtwork is shown when a fresh discovery load yields nothing displayable.
	ErrNoArtwork = errors.New("feed: catalog returned no displayable artwork")
	// ErrFetchFailed wraps the catalog error of a failed fresh load.
	ErrFetchFailed = errors.New("feed: fetch failed")
)

// Options tunes an Engine. Zero values take the defaults below.
type Options struct {
	DiscoveryBatch   int // default 15
	SearchBatch      int // default 30
	TailThreshold    int // default 3
	PrefetchAhead    int // default 2, negative disables
	FetchTimeout     time.Duration
	TranslateTimeout time.Duration
	AssetTimeout     time.Duration

	// Shuffle permutes a fresh batch before it is appended. Defaults to
	// math/rand/v2's Shuffle.
	Shuffle func(n int, swap func(i, j int))

	// Events receives feed events. Optional.
	Events *otel.Logger
}

func (o *Options) withDefaults() {
	if o.DiscoveryBatch <= 0 {
		o.DiscoveryBatch = 15
	}
	if o.SearchBatch <= 0 {
		o.SearchBatch = 30
	}
	if o.TailThreshold <= 0 {
		o.TailThreshold = 3
	}
	if o.PrefetchAhead == 0 {
		o.PrefetchAhead = 2
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = 15 * time.Second
	}
	if o.TranslateTimeout <= 0 {
		o.TranslateTimeout = 10 * time.Second
	}
	if o.AssetTimeout <= 0 {
		o.AssetTimeout = 20 * time.Second
	}
	if o.Shuffle == nil {
		o.Shuffle = rand.Shuffle
	}
}

// Deps are the engine's collaborators. Translator, Assets and Presenter may
// be nil, in which case that concern is skipped.
type Deps struct {
	Catalog    Catalog
	Translator Translator
	Assets     AssetLoader
	Presenter  Presenter
}

// Engine drives fetching, deduplication, generation resets, pivots,
// materialization and asset-failure eviction.
type Engine struct {
	ctx        context.Context
	state      *State
	catalog    Catalog
	translator Translator
	assets     AssetLoader
	presenter  Presenter
	prefetch   *Prefetcher
	opts       Options

	// rendered holds the IDs handed to the presenter in this generation.
	rendered map[string]struct{}
}

// NewEngine wires an engine around state. ctx bounds every command the
// engine dispatches.
func NewEngine(ctx context.Context, state *State, deps Deps, opts Options) *Engine {
	opts.withDefaults()
	return &Engine{
		ctx:        ctx,
		state:      state,
		catalog:    deps.Catalog,
		translator: deps.Translator,
		assets:     deps.Assets,
		presenter:  deps.Presenter,
		prefetch:   NewPrefetcher(ctx, state, deps.Assets, opts.PrefetchAhead, opts.AssetTimeout),
		opts:       opts,
		rendered:   make(map[string]struct{}),
	}
}

func (e *Engine) State() *State { return e.state }

// Rendered reports whether id has been handed to the presenter this generation.
func (e *Engine) Rendered(id string) bool {
	_, ok := e.rendered[id]
	return ok
}

// Start performs the initial load. An author of "" or UnknownAuthor starts
// in discovery.
func (e *Engine) Start(author string) tea.Cmd {
	e.emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindStartup, Msg: author})
	return e.FetchBatch(modeFor(author), false)
}

// Restart abandons any in-flight fetch and reloads discovery.
func (e *Engine) Restart() tea.Cmd {
	e.state.fetchInFlight = false
	return e.FetchBatch(DiscoveryMode(), false)
}

// FetchBatch requests a batch for mode. A fresh fetch (appendBatch false)
// resets the feed into a new generation before dispatching. While another
// fetch is in flight the request is dropped and FetchBatch returns nil.
func (e *Engine) FetchBatch(mode Mode, appendBatch bool) tea.Cmd {
	if e.state.fetchInFlight {
		e.emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindFetchDropped, Mode: mode.String()})
		return nil
	}
	if !appendBatch {
		e.reset(mode)
	}
	e.state.fetchInFlight = true

	gen := e.state.generation
	ctx, cat, timeout := e.ctx, e.catalog, e.opts.FetchTimeout
	size := e.opts.DiscoveryBatch
	if mode.Kind == AuthorSearch {
		size = e.opts.SearchBatch
	}
	e.emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindFetchStart, Mode: mode.String(), Count: size})
	logging.Debug("fetch start", "mode", mode, "append", appendBatch, "gen", gen)

	return func() tea.Msg {
		start := time.Now()
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		var (
			recs []catalog.RawRecord
			err  error
		)
		if mode.Kind == AuthorSearch {
			recs, err = cat.FetchByAuthor(ctx, mode.Author, size)
		} else {
			recs, err = cat.FetchRandom(ctx, size)
		}
		return BatchFetched{
			Generation: gen,
			Mode:       mode,
			Append:     appendBatch,
			Records:    recs,
			Err:        err,
			Dur:        time.Since(start),
		}
	}
}

// Update handles the engine's own messages. ok is false for anything else.
func (e *Engine) Update(msg tea.Msg) (cmd tea.Cmd, ok bool) {
	switch msg := msg.(type) {
	case BatchFetched:
		return e.handleBatch(msg), true
	case TextTranslated:
		return e.handleTranslation(msg), true
	case AssetLoaded:
		return e.handleAsset(msg), true
	case AssetsWarmed:
		if msg.Generation == e.state.generation {
			e.emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindPrefetchDone, Count: msg.Warmed,
				Extra: map[string]any{"failed": msg.Failed}})
		}
		return nil, true
	}
	return nil, false
}

func (e *Engine) handleBatch(msg BatchFetched) tea.Cmd {
	if msg.Generation != e.state.generation {
		e.emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindFetchStale, Generation: msg.Generation})
		return nil
	}
	e.state.fetchInFlight = false

	if msg.Err != nil {
		e.emit(otel.Event{Level: otel.LevelError, Kind: otel.KindFetchError, Mode: msg.Mode.String(),
			Dur: msg.Dur, Err: msg.Err.Error()})
		logging.Warn("fetch failed", "mode", msg.Mode, "append", msg.Append, "err", msg.Err)
		// An append failure is retried by the next tail trigger, unless
		// there is nothing left on screen to trigger it.
		if !msg.Append || e.state.Len() == 0 {
			e.showError(fmt.Errorf("%w: %w", ErrFetchFailed, msg.Err))
		}
		return nil
	}

	batch := e.admit(msg.Records)
	e.emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindFetchComplete, Mode: msg.Mode.String(),
		Dur: msg.Dur, Count: len(batch), Extra: map[string]any{"raw": len(msg.Records)}})

	if len(batch) == 0 {
		switch {
		case msg.Append && e.state.Len() > 0:
			return nil
		case e.state.mode.Kind == AuthorSearch:
			e.emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindFallback, Mode: e.state.mode.String()})
			logging.Info("author search empty, falling back to discovery", "author", e.state.mode.Author)
			return e.FetchBatch(DiscoveryMode(), false)
		default:
			e.showError(ErrNoArtwork)
			return nil
		}
	}

	e.opts.Shuffle(len(batch), func(i, j int) { batch[i], batch[j] = batch[j], batch[i] })
	e.state.append(batch)

	if !msg.Append {
		return tea.Batch(e.MaterializeAt(0), e.MaterializeAt(1), e.prefetch.Warm(0))
	}
	cur := e.state.currentIndex
	return tea.Batch(e.MaterializeAt(cur), e.MaterializeAt(cur+1))
}

// admit turns raw records into feed records, dropping those without a usable
// image or whose ID is already present in the feed or earlier in the batch.
func (e *Engine) admit(raw []catalog.RawRecord) []*Record {
	batch := make([]*Record, 0, len(raw))
	inBatch := make(map[string]struct{}, len(raw))
	for _, r := range raw {
		if r.ID == "" || !usableImageRef(r.ImageRef) || e.state.Has(r.ID) {
			continue
		}
		if _, dup := inBatch[r.ID]; dup {
			continue
		}
		inBatch[r.ID] = struct{}{}
		batch = append(batch, newRecord(r, e.state.generation))
	}
	return batch
}

// MaterializeAt hands the record at index to the presenter and dispatches
// its enrichment and image load. Out-of-range or already rendered indexes
// are no-ops.
func (e *Engine) MaterializeAt(index int) tea.Cmd {
	rec := e.state.At(index)
	if rec == nil || e.Rendered(rec.ID) {
		return nil
	}
	e.rendered[rec.ID] = struct{}{}
	if e.presenter != nil {
		e.presenter.Render(rec)
	}

	cmds := []tea.Cmd{e.translate(rec, FieldTitle)}
	if rec.HasDescription() {
		cmds = append(cmds, e.translate(rec, FieldDescription))
	}
	cmds = append(cmds, e.loadAsset(rec))
	return tea.Batch(cmds...)
}

func (e *Engine) translate(rec *Record, field Field) tea.Cmd {
	text := rec.raw(field)
	if e.translator == nil || strings.TrimSpace(text) == "" {
		return nil
	}
	ctx, tr, timeout := e.ctx, e.translator, e.opts.TranslateTimeout
	gen, id := rec.Generation, rec.ID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		out, err := tr.Translate(ctx, text)
		return TextTranslated{Generation: gen, ID: id, Field: field, Text: out, Err: err}
	}
}

func (e *Engine) handleTranslation(msg TextTranslated) tea.Cmd {
	if msg.Generation != e.state.generation {
		e.emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindTranslateStale,
			Generation: msg.Generation, RecordID: msg.ID})
		return nil
	}
	rec := e.state.At(e.state.IndexOf(msg.ID))
	if rec == nil || rec.Generation != msg.Generation {
		return nil
	}
	if msg.Err != nil {
		// Source text stays.
		e.emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindTranslateError,
			RecordID: msg.ID, Err: msg.Err.Error()})
		return nil
	}
	text := strings.TrimSpace(msg.Text)
	if text == "" || text == rec.Display(msg.Field) {
		return nil
	}
	rec.setDisplay(msg.Field, text)
	if e.presenter != nil {
		e.presenter.UpdateText(rec.ID, msg.Field, text)
	}
	return nil
}

func (e *Engine) loadAsset(rec *Record) tea.Cmd {
	if e.assets == nil {
		return nil
	}
	ctx, loader, timeout := e.ctx, e.assets, e.opts.AssetTimeout
	gen, id, ref := rec.Generation, rec.ID, rec.ImageRef
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		info, err := loader.Load(ctx, ref)
		return AssetLoaded{Generation: gen, ID: id, Info: info, Err: err}
	}
}

func (e *Engine) handleAsset(msg AssetLoaded) tea.Cmd {
	if msg.Generation != e.state.generation {
		return nil
	}
	if msg.Err != nil {
		e.emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindAssetError, RecordID: msg.ID, Err: msg.Err.Error()})
		return e.OnAssetFailure(msg.ID)
	}
	if e.state.Has(msg.ID) && e.presenter != nil {
		e.presenter.AssetReady(msg.ID, msg.Info)
	}
	return nil
}

// OnAssetFailure evicts the record whose image could not be loaded. Unknown
// IDs are ignored, so repeated failures for one record are harmless. A feed
// emptied this way reloads discovery.
func (e *Engine) OnAssetFailure(id string) tea.Cmd {
	idx, ok := e.state.remove(id)
	if !ok {
		return nil
	}
	delete(e.rendered, id)
	if e.presenter != nil {
		e.presenter.Remove(id)
	}
	e.emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindAssetEvict, RecordID: id,
		Extra: map[string]any{"index": idx, "current": e.state.currentIndex}})
	logging.Debug("evicted record", "id", id, "index", idx, "current", e.state.currentIndex)

	if e.state.Len() == 0 {
		// Nothing left to show or scroll to. A fetch in flight will refill
		// the feed; otherwise start over so an empty result is surfaced.
		e.emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindFallback, Mode: e.state.mode.String(), RecordID: id})
		logging.Info("feed emptied by image failures, reloading discovery")
		return e.FetchBatch(DiscoveryMode(), false)
	}

	// Keep the viewed record and its successor materialized.
	cur := e.state.currentIndex
	return tea.Batch(e.MaterializeAt(cur), e.MaterializeAt(cur+1))
}

// PivotToSimilar replaces the feed with works by rec's author, or with a
// fresh discovery feed when the author is unknown.
func (e *Engine) PivotToSimilar(rec *Record) tea.Cmd {
	if rec == nil {
		return nil
	}
	mode := modeFor(rec.Author)
	e.emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindPivot, RecordID: rec.ID, Mode: mode.String()})
	return e.FetchBatch(mode, false)
}

// PivotToCurrent pivots on the record being viewed.
func (e *Engine) PivotToCurrent() tea.Cmd {
	return e.PivotToSimilar(e.state.Current())
}

// OnTailApproached extends a discovery feed once the viewer is within
// TailThreshold records of its end. Author-search feeds never extend.
func (e *Engine) OnTailApproached() tea.Cmd {
	if e.state.mode.Kind != Discovery {
		return nil
	}
	if e.state.currentIndex < e.state.Len()-e.opts.TailThreshold {
		return nil
	}
	return e.FetchBatch(DiscoveryMode(), true)
}

func (e *Engine) reset(mode Mode) {
	if e.presenter != nil {
		for _, r := range e.state.records {
			if e.Rendered(r.ID) {
				e.presenter.Remove(r.ID)
			}
		}
	}
	e.rendered = make(map[string]struct{})
	e.state.reset(mode)
	e.emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindReset, Mode: mode.String()})
	logging.Debug("feed reset", "mode", mode, "gen", e.state.generation)
}

func (e *Engine) showError(err error) {
	logging.Error("feed error", "err", err)
	if e.presenter != nil {
		e.presenter.ShowError(err)
	}
}

func (e *Engine) emit(ev otel.Event) {
	if e.opts.Events == nil {
		return
	}
	ev.Comp = "feed"
	if ev.Generation == 0 {
		ev.Generation = e.state.generation
	}
	e.opts.Events.Emit(ev)
}

func modeFor(author string) Mode {
	author = strings.TrimSpace(author)
	if author == "" || author == UnknownAuthor {
		return DiscoveryMode()
	}
	return AuthorSearchMode(author)
}
