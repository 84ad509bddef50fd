package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/abelbrown/artscroll/internal/otel"
)

// debugPanelChrome is the number of terminal lines consumed by DebugPanel's
// border (top + bottom = 2) and vertical padding (top + bottom = 2).
const debugPanelChrome = 4

// debugOverlay renders feed counters and the most recent events.
// Returns empty string if ring is nil.
func debugOverlay(ring *otel.RingBuffer, width, height int) string {
	if ring == nil {
		return ""
	}

	counts := ring.Counts()
	recent := ring.Last(20)

	var lines []string
	lines = append(lines, DebugHeaderStyle.Render("Feed Stats"))
	lines = append(lines, fmt.Sprintf("  Fetches:    %d complete, %d errors, %d dropped, %d stale",
		counts[otel.KindFetchComplete], counts[otel.KindFetchError],
		counts[otel.KindFetchDropped], counts[otel.KindFetchStale]))
	lines = append(lines, fmt.Sprintf("  Feed:       %d resets, %d pivots, %d fallbacks",
		counts[otel.KindReset], counts[otel.KindPivot], counts[otel.KindFallback]))
	lines = append(lines, fmt.Sprintf("  Translate:  %d errors, %d stale",
		counts[otel.KindTranslateError], counts[otel.KindTranslateStale]))
	lines = append(lines, fmt.Sprintf("  Assets:     %d errors, %d evicted, %d prefetches",
		counts[otel.KindAssetError], counts[otel.KindAssetEvict], counts[otel.KindPrefetchDone]))
	lines = append(lines, fmt.Sprintf("  Buffer:     %d / %d events", ring.Len(), ring.Cap()))
	lines = append(lines, "")

	lines = append(lines, DebugHeaderStyle.Render("Recent Events"))
	for _, e := range recent {
		line := fmt.Sprintf("  %6s  %-16s", formatAge(time.Since(e.Time)), string(e.Kind))
		if e.Generation > 0 {
			line += fmt.Sprintf("  g%d", e.Generation)
		}
		if e.Mode != "" {
			line += "  " + runewidth.Truncate(e.Mode, 24, "…")
		}
		if e.RecordID != "" {
			line += "  #" + e.RecordID
		}
		if e.Msg != "" {
			line += "  " + runewidth.Truncate(e.Msg, 40, "…")
		}
		if e.Err != "" {
			line += "  ERR:" + runewidth.Truncate(e.Err, 30, "…")
		}
		lines = append(lines, line)
	}

	// Fit the terminal, leaving room for the panel border and padding.
	maxHeight := max(height-debugPanelChrome, 1)
	if len(lines) > maxHeight {
		lines = lines[:maxHeight]
	}

	panelWidth := min(86, width-4)
	panelWidth = max(panelWidth, 20)

	return DebugPanel.Width(panelWidth).Render(strings.Join(lines, "\n"))
}

// formatAge formats a duration as a compact human string.
// Negative durations from clock skew clamp to "0ms".
func formatAge(d time.Duration) string {
	if d < 0 {
		return "0ms"
	}
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
}
