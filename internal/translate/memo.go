package translate

import (
	"context"

	"github.com/abelbrown/artscroll/internal/logging"
	"github.com/abelbrown/artscroll/internal/store"
)

// Memo serves repeated texts from the session store before asking next.
// Only successful translations are memoized.
type Memo struct {
	next   Translator
	store  *store.Store
	source string
	target string
}

// NewMemo wraps next. source and target key the memo entries.
func NewMemo(next Translator, st *store.Store, source, target string) *Memo {
	return &Memo{next: next, store: st, source: source, target: target}
}

// Translate implements Translator.
func (m *Memo) Translate(ctx context.Context, text string) (string, error) {
	if got, ok, err := m.store.GetTranslation(m.source, m.target, text); err == nil && ok {
		return got, nil
	} else if err != nil {
		logging.Warn("translation memo lookup failed", "error", err)
	}

	out, err := m.next.Translate(ctx, text)
	if err != nil {
		return "", err
	}
	if err := m.store.SaveTranslation(m.source, m.target, text, out); err != nil {
		logging.Warn("translation memo save failed", "error", err)
	}
	return out, nil
}
