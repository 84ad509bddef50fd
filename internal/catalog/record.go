package catalog

import (
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// RawRecord is one artwork as returned by the catalog, before it enters a feed.
// Optional fields are empty when the catalog omits them.
type RawRecord struct {
	ID          string
	ImageRef    string
	Author      string
	Title       string
	Description string
	Date        string
	Medium      string
}

// apiArtwork mirrors the fields requested from the artworks endpoints.
type apiArtwork struct {
	ID            int64   `json:"id"`
	Title         *string `json:"title"`
	ImageID       *string `json:"image_id"`
	ArtistTitle   *string `json:"artist_title"`
	ArtistDisplay *string `json:"artist_display"`
	Description   *string `json:"description"`
	DateDisplay   *string `json:"date_display"`
	MediumDisplay *string `json:"medium_display"`
}

type apiResponse struct {
	Data   []apiArtwork `json:"data"`
	Config struct {
		IIIFURL string `json:"iiif_url"`
	} `json:"config"`
}

// requestFields is the field list sent with every request.
const requestFields = "id,title,image_id,artist_title,artist_display,description,date_display,medium_display"

// defaultIIIFURL is used when a response carries no config block.
const defaultIIIFURL = "https://www.artic.edu/iiif/2"

var (
	stripPolicy  = bluemonday.StrictPolicy()
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// toRawRecords maps a response page to RawRecords. Entries without an id are skipped.
func toRawRecords(resp apiResponse) []RawRecord {
	iiif := strings.TrimRight(resp.Config.IIIFURL, "/")
	if iiif == "" {
		iiif = defaultIIIFURL
	}

	out := make([]RawRecord, 0, len(resp.Data))
	for _, a := range resp.Data {
		if a.ID == 0 {
			continue
		}
		rec := RawRecord{
			ID:          strconv.FormatInt(a.ID, 10),
			Title:       cleanText(deref(a.Title)),
			Author:      cleanText(deref(a.ArtistTitle)),
			Description: cleanText(deref(a.Description)),
			Date:        cleanText(deref(a.DateDisplay)),
			Medium:      cleanText(deref(a.MediumDisplay)),
		}
		if rec.Author == "" {
			// artist_display is "Name\nNationality, dates"; keep the name line.
			display := deref(a.ArtistDisplay)
			if i := strings.IndexByte(display, '\n'); i >= 0 {
				display = display[:i]
			}
			rec.Author = cleanText(display)
		}
		if id := strings.TrimSpace(deref(a.ImageID)); id != "" {
			rec.ImageRef = iiif + "/" + id + "/full/843,/0/default.jpg"
		}
		out = append(out, rec)
	}
	return out
}

// cleanText strips markup, decodes entities and collapses whitespace.
func cleanText(s string) string {
	if s == "" {
		return ""
	}
	s = stripPolicy.Sanitize(s)
	s = html.UnescapeString(s)
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
