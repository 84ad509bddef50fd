// Package catalog fetches artwork records from an Art Institute of Chicago
// style JSON API.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// maxResultWindow is the deepest offset the API will page to (page*limit).
const maxResultWindow = 10000

var (
	// ErrStatus is returned for non-2xx responses.
	ErrStatus = errors.New("catalog: unexpected status")
	// ErrMalformed is returned when a response body cannot be decoded.
	ErrMalformed = errors.New("catalog: malformed response")
)

// Options configures a Client.
type Options struct {
	BaseURL           string
	PageUniverse      int
	Timeout           time.Duration
	RequestsPerSecond float64
	// Rand picks random pages. Nil uses a time-seeded source.
	Rand *rand.Rand
}

// Client retrieves batches of artworks. Safe for concurrent use.
type Client struct {
	baseURL string
	pages   int
	client  *http.Client
	limiter *rate.Limiter

	mu  sync.Mutex
	rng *rand.Rand
}

// NewClient creates a Client.
func NewClient(opts Options) *Client {
	if opts.PageUniverse < 1 {
		opts.PageUniverse = 1000
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 2
	}
	rng := opts.Rand
	if rng == nil {
		now := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(now, now>>1))
	}
	return &Client{
		baseURL: opts.BaseURL,
		pages:   opts.PageUniverse,
		client:  &http.Client{Timeout: opts.Timeout},
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		rng:     rng,
	}
}

// FetchRandom returns a batch from a uniformly chosen page.
func (c *Client) FetchRandom(ctx context.Context, batchSize int) ([]RawRecord, error) {
	if batchSize < 1 {
		return nil, fmt.Errorf("catalog: invalid batch size %d", batchSize)
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(c.randomPage(batchSize)))
	q.Set("limit", strconv.Itoa(batchSize))
	q.Set("fields", requestFields)
	return c.get(ctx, "/artworks", q)
}

// FetchByAuthor returns a batch of artworks whose artist matches name.
func (c *Client) FetchByAuthor(ctx context.Context, name string, batchSize int) ([]RawRecord, error) {
	if batchSize < 1 {
		return nil, fmt.Errorf("catalog: invalid batch size %d", batchSize)
	}
	if name == "" {
		return nil, errors.New("catalog: empty author name")
	}
	q := url.Values{}
	q.Set("q", name)
	q.Set("query[match][artist_title]", name)
	q.Set("limit", strconv.Itoa(batchSize))
	q.Set("fields", requestFields)
	return c.get(ctx, "/artworks/search", q)
}

// randomPage picks a page in [1, n] where n respects both the configured
// universe and the API result window for this batch size.
func (c *Client) randomPage(batchSize int) int {
	n := c.pages
	if w := maxResultWindow / batchSize; w < n {
		n = w
	}
	if n < 1 {
		n = 1
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rng.IntN(n) + 1
}

func (c *Client) get(ctx context.Context, path string, q url.Values) ([]RawRecord, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("catalog: rate limiter wait failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "artscroll/0.1")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d %s", ErrStatus, resp.StatusCode, truncate(string(body), 200))
	}

	var page apiResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return toRawRecords(page), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
