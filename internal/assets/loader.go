// Package assets loads artwork images and caches their decoded headers.
package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"sync"
	"time"

	_ "golang.org/x/image/webp"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

var (
	// ErrStatus is returned for non-200 responses.
	ErrStatus = errors.New("assets: unexpected status")
	// ErrUndecodable is returned when the body is not a supported image.
	ErrUndecodable = errors.New("assets: undecodable image")
	// ErrTooLarge is returned when the body exceeds the configured limit.
	ErrTooLarge = errors.New("assets: image too large")
)

// Info describes a loaded image.
type Info struct {
	Ref    string
	Width  int
	Height int
	Format string
	Bytes  int
}

// Options configures a Loader.
type Options struct {
	Timeout   time.Duration
	CacheSize int
	MaxBytes  int64
}

// Loader fetches images over HTTP. Successful loads are cached so a
// prefetched image is free when it is shown. Concurrent loads of the same
// ref share one request.
type Loader struct {
	client   *http.Client
	limiter  *rate.Limiter
	timeout  time.Duration
	maxBytes int64
	group    singleflight.Group

	mu    sync.Mutex
	cache map[string]Info
	order []string // insertion order, oldest first
	size  int
}

// NewLoader creates a Loader.
func NewLoader(opts Options) *Loader {
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 64
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 8 << 20
	}
	return &Loader{
		client:   &http.Client{Timeout: opts.Timeout},
		limiter:  rate.NewLimiter(rate.Every(50*time.Millisecond), 6),
		timeout:  opts.Timeout,
		maxBytes: opts.MaxBytes,
		cache:    make(map[string]Info),
		size:     opts.CacheSize,
	}
}

// Load returns the image header for ref, fetching it if not cached.
func (l *Loader) Load(ctx context.Context, ref string) (Info, error) {
	if info, ok := l.cached(ref); ok {
		return info, nil
	}

	// The shared fetch outlives any one caller: it runs under the loader's
	// own timeout, and each caller waits only as long as its ctx allows.
	ch := l.group.DoChan(ref, func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.timeout)
		defer cancel()
		info, err := l.fetch(fctx, ref)
		if err != nil {
			return Info{}, err
		}
		l.store(info)
		return info, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return Info{}, res.Err
		}
		return res.Val.(Info), nil
	case <-ctx.Done():
		return Info{}, fmt.Errorf("assets: load %s: %w", ref, ctx.Err())
	}
}

// Cached reports whether ref is in the cache (for testing).
func (l *Loader) Cached(ref string) bool {
	_, ok := l.cached(ref)
	return ok
}

func (l *Loader) cached(ref string) (Info, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	info, ok := l.cache[ref]
	return info, ok
}

// store inserts info, evicting the oldest entries beyond the cache size.
func (l *Loader) store(info Info) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.cache[info.Ref]; ok {
		return
	}
	l.cache[info.Ref] = info
	l.order = append(l.order, info.Ref)
	for len(l.order) > l.size {
		delete(l.cache, l.order[0])
		l.order = l.order[1:]
	}
}

func (l *Loader) fetch(ctx context.Context, ref string) (Info, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return Info{}, fmt.Errorf("assets: rate limiter wait failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return Info{}, fmt.Errorf("assets: failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "artscroll/0.1")

	resp, err := l.client.Do(req)
	if err != nil {
		return Info{}, fmt.Errorf("assets: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Info{}, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, l.maxBytes+1))
	if err != nil {
		return Info{}, fmt.Errorf("assets: failed to read body: %w", err)
	}
	if int64(len(body)) > l.maxBytes {
		return Info{}, ErrTooLarge
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(body))
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	return Info{
		Ref:    ref,
		Width:  cfg.Width,
		Height: cfg.Height,
		Format: format,
		Bytes:  len(body),
	}, nil
}
