package translate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newLibre(t *testing.T, endpoint string) *LibreClient {
	t.Helper()
	c, err := NewLibreClient(LibreOptions{
		Endpoint:   endpoint,
		APIKey:     "k",
		SourceLang: "auto",
		TargetLang: "en-GB",
		Timeout:    5 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewLibreClient failed: %v", err)
	}
	return c
}

func TestLibreTranslate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/translate" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var req libreRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Q != "Nature morte" || req.Source != "auto" || req.Target != "en" || req.Format != "text" || req.APIKey != "k" {
			t.Errorf("unexpected request: %+v", req)
		}
		json.NewEncoder(w).Encode(libreResponse{TranslatedText: "Still life"})
	}))
	defer server.Close()

	got, err := newLibre(t, server.URL+"/").Translate(context.Background(), "Nature morte")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if got != "Still life" {
		t.Errorf("got %q, want %q", got, "Still life")
	}
}

func TestLibreErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"status with message", http.StatusBadRequest, `{"error":"bad lang"}`, nil},
		{"status no body", http.StatusServiceUnavailable, ``, nil},
		{"bad json", http.StatusOK, `{`, nil},
		{"empty text", http.StatusOK, `{"translatedText":"  "}`, ErrEmpty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newLibre(t, server.URL).Translate(context.Background(), "Hallo")
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLibreSkipsBlankInput(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	if _, err := newLibre(t, server.URL).Translate(context.Background(), "   "); !errors.Is(err, ErrEmpty) {
		t.Errorf("err = %v, want ErrEmpty", err)
	}
	if calls.Load() != 0 {
		t.Error("blank input should not reach the server")
	}
}

func TestNewLibreClientLanguages(t *testing.T) {
	c, err := NewLibreClient(LibreOptions{Endpoint: "x", SourceLang: "de-AT", TargetLang: "pt-BR"})
	if err != nil {
		t.Fatalf("NewLibreClient failed: %v", err)
	}
	src, dst := c.Languages()
	if src != "de" || dst != "pt" {
		t.Errorf("Languages() = %q, %q; want de, pt", src, dst)
	}

	if _, err := NewLibreClient(LibreOptions{Endpoint: "x", TargetLang: "%%"}); err == nil {
		t.Error("expected error for invalid target language")
	}
}
