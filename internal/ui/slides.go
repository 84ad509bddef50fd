package ui

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/abelbrown/artscroll/internal/assets"
	"github.com/abelbrown/artscroll/internal/feed"
)

// slide is the presenter's copy of one rendered record.
type slide struct {
	id          string
	title       string
	author      string
	date        string
	medium      string
	description string
	asset       *assets.Info
}

// Slides is the vertical strip of rendered artworks. Every slide is one
// viewport tall. It implements feed.Presenter and owns the scroll offset,
// which follows its target through a harmonica spring.
type Slides struct {
	slides []*slide
	width  int
	height int
	err    error

	spring harmonica.Spring
	pos    float64 // animated offset in rows
	vel    float64
	target float64
}

// NewSlides returns an empty strip sized for an 80x24 terminal.
func NewSlides() *Slides {
	return &Slides{
		width:  80,
		height: 23,
		// frequency, damping: quick response with almost no bounce
		spring: harmonica.NewSpring(harmonica.FPS(60), 6.0, 0.8),
	}
}

// SetSize resizes the viewport and jumps to the top of the slide in view.
func (s *Slides) SetSize(width, height int) {
	cur := s.currentAt(s.pos)
	s.width = max(width, 20)
	s.height = max(height, 1)
	s.pos = float64(cur * s.height)
	s.target, s.vel = s.pos, 0
	s.clamp()
}

// Render implements feed.Presenter. Records arrive in feed order.
func (s *Slides) Render(rec *feed.Record) {
	if s.index(rec.ID) >= 0 {
		return
	}
	s.slides = append(s.slides, &slide{
		id:          rec.ID,
		title:       rec.DisplayTitle,
		author:      rec.Author,
		date:        rec.Date,
		medium:      rec.Medium,
		description: rec.DisplayDescription,
	})
}

// Remove implements feed.Presenter. Removing a slide wholly above the
// viewport shifts the offset so the visible content does not jump.
func (s *Slides) Remove(id string) {
	i := s.index(id)
	if i < 0 {
		return
	}
	top := float64(i * s.height)
	s.slides = slices.Delete(s.slides, i, i+1)
	if top+float64(s.height) <= s.pos {
		s.pos -= float64(s.height)
		s.target -= float64(s.height)
	}
	s.clamp()
}

// UpdateText implements feed.Presenter.
func (s *Slides) UpdateText(id string, field feed.Field, value string) {
	i := s.index(id)
	if i < 0 {
		return
	}
	switch field {
	case feed.FieldTitle:
		s.slides[i].title = value
	case feed.FieldDescription:
		s.slides[i].description = value
	}
}

// AssetReady implements feed.Presenter.
func (s *Slides) AssetReady(id string, info assets.Info) {
	if i := s.index(id); i >= 0 {
		s.slides[i].asset = &info
	}
}

// ShowError implements feed.Presenter.
func (s *Slides) ShowError(err error) { s.err = err }

func (s *Slides) Err() error { return s.err }
func (s *Slides) ClearErr() { s.err = nil }
func (s *Slides) Len() int { return len(s.slides) }
func (s *Slides) Height() int { return s.height }

// IDs returns slide IDs top to bottom (for testing).
func (s *Slides) IDs() []string {
	out := make([]string, len(s.slides))
	for i, sl := range s.slides {
		out[i] = sl.id
	}
	return out
}

// Positions reports the layout for the viewport tracker.
func (s *Slides) Positions() []feed.SlidePosition {
	out := make([]feed.SlidePosition, len(s.slides))
	for i, sl := range s.slides {
		out[i] = feed.SlidePosition{ID: sl.id, Top: i * s.height, Height: s.height}
	}
	return out
}

// Offset is the current animated scroll offset in rows.
func (s *Slides) Offset() int {
	return int(math.Round(s.pos))
}

// Target is the offset the animation is heading to.
func (s *Slides) Target() int {
	return int(math.Round(s.target))
}

// ScrollBy moves the target by n rows.
func (s *Slides) ScrollBy(n int) {
	s.target += float64(n)
	s.clamp()
}

// SnapNext moves the target to the top of the slide after the one targeted.
func (s *Slides) SnapNext() {
	s.target = float64((s.currentAt(s.target) + 1) * s.height)
	s.clamp()
}

// SnapPrev moves the target to the top of the targeted slide, or of the one
// before it when already aligned.
func (s *Slides) SnapPrev() {
	cur := s.currentAt(s.target)
	top := float64(cur * s.height)
	if s.target <= top {
		top = float64((cur - 1) * s.height)
	}
	s.target = top
	s.clamp()
}

func (s *Slides) ScrollToTop() { s.target = 0 }
func (s *Slides) ScrollToBottom() { s.target = s.maxOffset() }

// AtLastSlide reports whether the target is the last slide.
func (s *Slides) AtLastSlide() bool {
	return len(s.slides) > 0 && s.currentAt(s.target) == len(s.slides)-1
}

// Animating reports whether the offset has not reached its target.
func (s *Slides) Animating() bool {
	return s.pos != s.target || s.vel != 0
}

// Step advances the spring one frame and reports whether to keep animating.
func (s *Slides) Step() bool {
	s.pos, s.vel = s.spring.Update(s.pos, s.vel, s.target)
	if math.Abs(s.pos-s.target) < 0.5 && math.Abs(s.vel) < 0.5 {
		s.pos, s.vel = s.target, 0
		return false
	}
	return true
}

// View renders the rows visible at the current offset.
func (s *Slides) View() string {
	if len(s.slides) == 0 {
		return ""
	}
	// The spring can overshoot past either end by a fraction of a row.
	off := max(s.Offset(), 0)
	first := off / s.height
	skip := off - first*s.height

	var lines []string
	for i := first; i < len(s.slides) && len(lines) < skip+s.height; i++ {
		lines = append(lines, renderSlide(s.slides[i], s.width, s.height)...)
	}
	lines = lines[min(skip, len(lines)):]
	if len(lines) > s.height {
		lines = lines[:s.height]
	}
	for len(lines) < s.height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func (s *Slides) index(id string) int {
	return slices.IndexFunc(s.slides, func(sl *slide) bool { return sl.id == id })
}

// currentAt returns the slide containing the viewport midpoint at offset.
func (s *Slides) currentAt(offset float64) int {
	if len(s.slides) == 0 {
		return 0
	}
	i := (int(math.Round(offset)) + s.height/2) / s.height
	return min(max(i, 0), len(s.slides)-1)
}

func (s *Slides) maxOffset() float64 {
	return float64(max(len(s.slides)*s.height-s.height, 0))
}

func (s *Slides) clamp() {
	hi := s.maxOffset()
	s.target = min(max(s.target, 0), hi)
	s.pos = min(max(s.pos, 0), hi)
}

// renderSlide lays out one slide as exactly height lines.
func renderSlide(sl *slide, width, height int) []string {
	inner := max(width-4, 10)

	var lines []string
	frameH := max(height*3/5-2, 1)
	for _, l := range strings.Split(renderFrame(sl.asset, inner, frameH), "\n") {
		lines = append(lines, "  "+l)
	}
	lines = append(lines, "")
	lines = append(lines, "  "+TitleStyle.Render(runewidth.Truncate(sl.title, inner, "…")))

	byline := sl.author
	if sl.date != "" {
		byline += " · " + sl.date
	}
	lines = append(lines, "  "+AuthorStyle.Render(runewidth.Truncate(byline, inner, "…")))
	if sl.medium != "" {
		lines = append(lines, "  "+MediumStyle.Render(runewidth.Truncate(sl.medium, inner, "…")))
	}
	if sl.description != "" {
		lines = append(lines, "")
		wrapped := DescriptionStyle.Width(inner).Render(sl.description)
		for _, l := range strings.Split(wrapped, "\n") {
			lines = append(lines, "  "+l)
		}
	}

	if len(lines) > height {
		lines = lines[:height]
		if height > 0 {
			lines[height-1] = "  " + EmptyStyle.Render("…")
		}
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return lines
}

// renderFrame draws the image placeholder. The frame keeps the image's
// aspect ratio, counting a terminal cell as twice as tall as wide.
func renderFrame(info *assets.Info, maxWidth, height int) string {
	if info == nil {
		return ImageFrameLoading.Width(min(maxWidth, height*4)).Height(height).Render("loading image…")
	}
	w := maxWidth
	if info.Height > 0 {
		w = min(maxWidth, height*2*info.Width/info.Height)
	}
	w = max(w, 12)
	label := fmt.Sprintf("%d × %d %s", info.Width, info.Height, strings.ToUpper(info.Format))
	if info.Bytes > 0 {
		label += "\n" + humanize.Bytes(uint64(info.Bytes))
	}
	return ImageFrame.Width(w).Height(height).Render(label)
}

var _ feed.Presenter = (*Slides)(nil)

// placeCentered is used for messages shown in place of the strip.
func placeCentered(width, height int, msg string) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, msg)
}
