package feed

import (
	"context"

	"github.com/abelbrown/artscroll/internal/assets"
	"github.com/abelbrown/artscroll/internal/catalog"
)

// Catalog supplies raw artwork batches.
type Catalog interface {
	FetchRandom(ctx context.Context, batchSize int) ([]catalog.RawRecord, error)
	FetchByAuthor(ctx context.Context, name string, batchSize int) ([]catalog.RawRecord, error)
}

// Translator enriches record text. Any error means "keep the source text".
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// AssetLoader loads an image by reference.
type AssetLoader interface {
	Load(ctx context.Context, ref string) (assets.Info, error)
}

// Presenter is the view the engine drives. Calls arrive on the event loop.
// Render receives the live record; implementations copy what they show.
type Presenter interface {
	Render(rec *Record)
	Remove(id string)
	UpdateText(id string, field Field, value string)
	AssetReady(id string, info assets.Info)
	ShowError(err error)
}
