package feed

import (
	"net/url"
	"strings"

	"github.com/abelbrown/artscroll/internal/catalog"
)

// UnknownAuthor is the author of records whose catalog entry names nobody.
// It never seeds an author search.
const UnknownAuthor = "Unknown Artist"

// ModeKind distinguishes the two browsing modes.
type ModeKind int

const (
	// Discovery is open-ended browsing of random catalog pages.
	Discovery ModeKind = iota
	// AuthorSearch is a feed scoped to one author.
	AuthorSearch
)

func (k ModeKind) String() string {
	if k == AuthorSearch {
		return "search"
	}
	return "discovery"
}

// Mode is the browsing mode of a feed generation. Author is set only for AuthorSearch.
type Mode struct {
	Kind   ModeKind
	Author string
}

// DiscoveryMode returns the open-ended browsing mode.
func DiscoveryMode() Mode {
	return Mode{Kind: Discovery}
}

// AuthorSearchMode returns the mode scoped to author.
func AuthorSearchMode(author string) Mode {
	return Mode{Kind: AuthorSearch, Author: author}
}

func (m Mode) String() string {
	if m.Kind == AuthorSearch {
		return "search:" + m.Author
	}
	return "discovery"
}

// Field names a translatable record field.
type Field int

const (
	FieldTitle Field = iota
	FieldDescription
)

func (f Field) String() string {
	if f == FieldDescription {
		return "description"
	}
	return "title"
}

// Record is one artwork in the feed. Identity is ID alone.
//
// Display fields start as copies of the raw ones and are replaced in place
// when a translation for the record's generation arrives.
type Record struct {
	ID                 string
	ImageRef           string
	Author             string
	RawTitle           string
	RawDescription     string // empty when the catalog has none
	DisplayTitle       string
	DisplayDescription string
	Date               string
	Medium             string
	Generation         uint64
}

func newRecord(raw catalog.RawRecord, gen uint64) *Record {
	author := strings.TrimSpace(raw.Author)
	if author == "" {
		author = UnknownAuthor
	}
	return &Record{
		ID:                 raw.ID,
		ImageRef:           raw.ImageRef,
		Author:             author,
		RawTitle:           raw.Title,
		RawDescription:     raw.Description,
		DisplayTitle:       raw.Title,
		DisplayDescription: raw.Description,
		Date:               raw.Date,
		Medium:             raw.Medium,
		Generation:         gen,
	}
}

// HasDescription reports whether the catalog supplied a description.
func (r *Record) HasDescription() bool {
	return r.RawDescription != ""
}

func (r *Record) raw(f Field) string {
	if f == FieldDescription {
		return r.RawDescription
	}
	return r.RawTitle
}

// Display returns the current display text of f.
func (r *Record) Display(f Field) string {
	if f == FieldDescription {
		return r.DisplayDescription
	}
	return r.DisplayTitle
}

func (r *Record) setDisplay(f Field, v string) {
	if f == FieldDescription {
		r.DisplayDescription = v
		return
	}
	r.DisplayTitle = v
}

// usableImageRef reports whether ref is an absolute http(s) URL.
func usableImageRef(ref string) bool {
	if strings.TrimSpace(ref) == "" {
		return false
	}
	u, err := url.Parse(ref)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
