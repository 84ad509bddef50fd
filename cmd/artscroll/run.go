package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/artscroll/internal/assets"
	"github.com/abelbrown/artscroll/internal/catalog"
	"github.com/abelbrown/artscroll/internal/config"
	"github.com/abelbrown/artscroll/internal/feed"
	"github.com/abelbrown/artscroll/internal/logging"
	"github.com/abelbrown/artscroll/internal/otel"
	"github.com/abelbrown/artscroll/internal/store"
	"github.com/abelbrown/artscroll/internal/translate"
	"github.com/abelbrown/artscroll/internal/ui"
)

const eventsFile = "events.jsonl"

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// run wires the collaborators and blocks until the UI quits.
func run(ctx context.Context, cfg *config.Config, author string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := logging.Init(cfg.Logging.Dir, cfg.Logging.Level); err != nil {
		return err
	}
	defer logging.Close()

	events, closeEvents, err := openEvents(cfg)
	if err != nil {
		return err
	}
	defer closeEvents()
	ring := otel.NewRingBuffer(otel.DefaultRingSize)
	events.SetRingBuffer(ring)
	logging.Info("session", "id", events.SessionID())

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	slides := ui.NewSlides()
	engine, err := newEngine(ctx, cfg, st, events, slides)
	if err != nil {
		return err
	}
	logging.Info("starting feed", "catalog", cfg.Catalog.BaseURL, "translate", cfg.Translation.Enabled, "author", author)

	app := ui.NewApp(engine, slides, ring, author)
	program := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	if n, err := st.Count(); err == nil {
		logging.Info("session translations", "memoized", n)
	}
	events.Info(otel.KindShutdown, "main", "quit")
	return nil
}

// newEngine builds the catalog, translation and asset clients around a feed
// engine that drives presenter.
func newEngine(ctx context.Context, cfg *config.Config, st *store.Store, events *otel.Logger, presenter feed.Presenter) (*feed.Engine, error) {
	translator, err := newTranslator(cfg, st)
	if err != nil {
		return nil, err
	}

	cat := catalog.NewClient(catalog.Options{
		BaseURL:           cfg.Catalog.BaseURL,
		PageUniverse:      cfg.Catalog.PageUniverse,
		Timeout:           seconds(cfg.Catalog.TimeoutSeconds),
		RequestsPerSecond: cfg.Catalog.RequestsPerSecond,
	})
	loader := assets.NewLoader(assets.Options{
		Timeout:   seconds(cfg.Assets.TimeoutSeconds),
		CacheSize: cfg.Assets.CacheSize,
		MaxBytes:  cfg.Assets.MaxBytes,
	})

	deps := feed.Deps{Catalog: cat, Assets: loader, Presenter: presenter}
	if translator != nil {
		deps.Translator = translator
	}
	return feed.NewEngine(ctx, feed.NewState(), deps, engineOptions(cfg, events)), nil
}

func engineOptions(cfg *config.Config, events *otel.Logger) feed.Options {
	ahead := cfg.Feed.PrefetchAhead
	if ahead == 0 {
		ahead = -1 // configured off
	}
	return feed.Options{
		DiscoveryBatch:   cfg.Catalog.DiscoveryBatch,
		SearchBatch:      cfg.Catalog.SearchBatch,
		TailThreshold:    cfg.Feed.TailThreshold,
		PrefetchAhead:    ahead,
		FetchTimeout:     seconds(cfg.Catalog.TimeoutSeconds),
		TranslateTimeout: seconds(cfg.Translation.TimeoutSeconds),
		AssetTimeout:     seconds(cfg.Assets.TimeoutSeconds),
		Events:           events,
	}
}

// newTranslator returns nil when translation is off.
func newTranslator(cfg *config.Config, st *store.Store) (translate.Translator, error) {
	if !cfg.Translation.Enabled {
		return nil, nil
	}
	libre, err := translate.NewLibreClient(translate.LibreOptions{
		Endpoint:   cfg.Translation.Endpoint,
		APIKey:     cfg.Translation.APIKey,
		SourceLang: cfg.Translation.SourceLang,
		TargetLang: cfg.Translation.TargetLang,
		Timeout:    seconds(cfg.Translation.TimeoutSeconds),
	})
	if err != nil {
		return nil, err
	}
	source, target := libre.Languages()
	return translate.NewMemo(libre, st, source, target), nil
}

// openEvents opens the JSONL event log, or a discarding logger when events
// are off.
func openEvents(cfg *config.Config) (*otel.Logger, func(), error) {
	if !cfg.Logging.Events {
		l := otel.NewNullLogger()
		return l, l.Close, nil
	}
	if err := os.MkdirAll(cfg.Logging.Dir, 0755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(cfg.Logging.Dir, eventsFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("open event log: %w", err)
	}
	l := otel.NewLogger(f)
	return l, func() {
		l.Close()
		f.Close()
	}, nil
}
