package feed

import (
	"time"

	"github.com/abelbrown/artscroll/internal/assets"
	"github.com/abelbrown/artscroll/internal/catalog"
)

// Every message carries the generation captured when its command was
// dispatched. The engine drops messages from older generations.

// BatchFetched is the result of a catalog fetch.
type BatchFetched struct {
	Generation uint64
	Mode       Mode
	Append     bool
	Records    []catalog.RawRecord
	Err        error
	Dur        time.Duration
}

// TextTranslated is the result of one field's translation.
type TextTranslated struct {
	Generation uint64
	ID         string
	Field      Field
	Text       string
	Err        error
}

// AssetLoaded is the result of the on-demand image load of a rendered record.
type AssetLoaded struct {
	Generation uint64
	ID         string
	Info       assets.Info
	Err        error
}

// AssetsWarmed reports a finished prefetch round.
type AssetsWarmed struct {
	Generation uint64
	Warmed     int
	Failed     int
}
