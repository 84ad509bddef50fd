// Package translate provides best-effort text translation for feed enrichment.
package translate

import (
	"context"
	"errors"
)

// Translator turns source text into the configured target language.
// Callers treat any error as "translation unavailable" and keep the source.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// ErrEmpty is returned when the service answers without text.
var ErrEmpty = errors.New("translate: empty result")
