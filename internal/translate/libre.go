package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/time/rate"
)

// LibreOptions configures a LibreClient.
type LibreOptions struct {
	Endpoint   string
	APIKey     string
	SourceLang string // "auto" or a BCP 47 tag
	TargetLang string // BCP 47 tag
	Timeout    time.Duration
}

// LibreClient translates via a LibreTranslate-compatible HTTP API.
type LibreClient struct {
	endpoint string
	apiKey   string
	source   string
	target   string
	client   *http.Client
	limiter  *rate.Limiter
}

type libreRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

type libreResponse struct {
	TranslatedText string `json:"translatedText"`
	Error          string `json:"error,omitempty"`
}

// NewLibreClient creates a LibreClient. Language tags are reduced to their
// base language, which is what LibreTranslate expects ("pt-BR" -> "pt").
func NewLibreClient(opts LibreOptions) (*LibreClient, error) {
	target, err := baseLanguage(opts.TargetLang)
	if err != nil {
		return nil, fmt.Errorf("translate: target language: %w", err)
	}
	source := "auto"
	if opts.SourceLang != "" && opts.SourceLang != "auto" {
		if source, err = baseLanguage(opts.SourceLang); err != nil {
			return nil, fmt.Errorf("translate: source language: %w", err)
		}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &LibreClient{
		endpoint: strings.TrimRight(opts.Endpoint, "/"),
		apiKey:   opts.APIKey,
		source:   source,
		target:   target,
		client:   &http.Client{Timeout: opts.Timeout},
		limiter:  rate.NewLimiter(rate.Every(100*time.Millisecond), 4),
	}, nil
}

// Languages returns the source and target codes sent with each request.
func (c *LibreClient) Languages() (source, target string) {
	return c.source, c.target
}

// Translate sends text to the service.
func (c *LibreClient) Translate(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmpty
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("translate: rate limiter wait failed: %w", err)
	}

	body, err := json.Marshal(libreRequest{
		Q:      text,
		Source: c.source,
		Target: c.target,
		Format: "text",
		APIKey: c.apiKey,
	})
	if err != nil {
		return "", fmt.Errorf("translate: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/translate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("translate: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("translate: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("translate: failed to read response: %w", err)
	}

	var out libreResponse
	if resp.StatusCode != http.StatusOK {
		if json.Unmarshal(respBody, &out) == nil && out.Error != "" {
			return "", fmt.Errorf("translate: status %d: %s", resp.StatusCode, out.Error)
		}
		return "", fmt.Errorf("translate: status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("translate: failed to parse response: %w", err)
	}
	if strings.TrimSpace(out.TranslatedText) == "" {
		return "", ErrEmpty
	}
	return out.TranslatedText, nil
}

func baseLanguage(tag string) (string, error) {
	t, err := language.Parse(tag)
	if err != nil {
		return "", err
	}
	base, _ := t.Base()
	return base.String(), nil
}
