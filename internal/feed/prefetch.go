package feed

import (
	"context"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"
)

// Prefetcher warms the asset cache for records just past the current one.
// Failures are ignored here; they surface again, and are acted on, when the
// record is materialized.
type Prefetcher struct {
	ctx     context.Context
	state   *State
	loader  AssetLoader
	ahead   int
	timeout time.Duration
}

func NewPrefetcher(ctx context.Context, state *State, loader AssetLoader, ahead int, timeout time.Duration) *Prefetcher {
	return &Prefetcher{ctx: ctx, state: state, loader: loader, ahead: ahead, timeout: timeout}
}

// Targets returns the image refs of the records after index, at most ahead of them.
func (p *Prefetcher) Targets(index int) []string {
	var refs []string
	for i := index + 1; i <= index+p.ahead; i++ {
		rec := p.state.At(i)
		if rec == nil {
			break
		}
		refs = append(refs, rec.ImageRef)
	}
	return refs
}

// Warm loads the targets after index concurrently.
func (p *Prefetcher) Warm(index int) tea.Cmd {
	if p.loader == nil || p.ahead <= 0 {
		return nil
	}
	refs := p.Targets(index)
	if len(refs) == 0 {
		return nil
	}
	ctx, loader, timeout := p.ctx, p.loader, p.timeout
	gen := p.state.generation
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		var failed atomic.Int64
		var g errgroup.Group
		for _, ref := range refs {
			g.Go(func() error {
				if _, err := loader.Load(ctx, ref); err != nil {
					failed.Add(1)
				}
				return nil
			})
		}
		_ = g.Wait()
		n := int(failed.Load())
		return AssetsWarmed{Generation: gen, Warmed: len(refs) - n, Failed: n}
	}
}
