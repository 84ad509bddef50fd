package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abelbrown/artscroll/internal/config"
	"github.com/abelbrown/artscroll/internal/otel"
)

type eventsOptions struct {
	tail   int
	follow bool
	kind   string
	level  string
	comp   string
	record string
	json   bool
}

// levelRank returns a numeric rank for filtering (higher = more severe).
func levelRank(level string) int {
	switch otel.Level(level) {
	case otel.LevelInfo:
		return 1
	case otel.LevelWarn:
		return 2
	case otel.LevelError:
		return 3
	default:
		return 0
	}
}

func newEventsCommand(root *rootOptions) *cobra.Command {
	opts := &eventsOptions{}
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show the JSONL event log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.configPath)
			if err != nil {
				return err
			}
			path := filepath.Join(cfg.Logging.Dir, eventsFile)
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("event log not found at %s (run artscroll first): %w", path, err)
			}
			defer f.Close()
			return opts.print(cmd, f)
		},
	}
	cmd.Flags().IntVarP(&opts.tail, "tail", "n", 50, "Number of recent lines to show")
	cmd.Flags().BoolVarP(&opts.follow, "follow", "f", false, "Follow mode (like tail -f)")
	cmd.Flags().StringVar(&opts.kind, "kind", "", "Filter by event kind prefix (e.g. 'fetch')")
	cmd.Flags().StringVar(&opts.level, "level", "", "Minimum level: debug, info, warn, error")
	cmd.Flags().StringVar(&opts.comp, "comp", "", "Filter by component name")
	cmd.Flags().StringVar(&opts.record, "record", "", "Filter by record ID")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Output raw JSON lines")
	return cmd
}

func (o *eventsOptions) print(cmd *cobra.Command, r io.Reader) error {
	out := cmd.OutOrStdout()
	reader := bufio.NewReader(r)
	for _, l := range readTailLines(reader, o.tail, o.match) {
		fmt.Fprintln(out, o.format(l.ev, l.raw))
	}
	if !o.follow {
		return nil
	}

	for {
		line, err := reader.ReadBytes('\n')
		if err == io.EOF {
			select {
			case <-cmd.Context().Done():
				return nil
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}
		if err != nil {
			return err
		}
		line = trimLine(line)
		var ev otel.Event
		if len(line) == 0 || json.Unmarshal(line, &ev) != nil {
			continue
		}
		if o.match(ev) {
			fmt.Fprintln(out, o.format(ev, line))
		}
	}
}

func (o *eventsOptions) match(ev otel.Event) bool {
	if o.kind != "" && !strings.HasPrefix(string(ev.Kind), o.kind) {
		return false
	}
	if o.level != "" && levelRank(string(ev.Level)) < levelRank(o.level) {
		return false
	}
	if o.comp != "" && ev.Comp != o.comp {
		return false
	}
	if o.record != "" && ev.RecordID != o.record {
		return false
	}
	return true
}

func (o *eventsOptions) format(ev otel.Event, raw []byte) string {
	if o.json {
		return string(raw)
	}
	lvl := strings.ToUpper(string(ev.Level))
	if lvl == "" {
		lvl = "?"
	}

	parts := []string{fmt.Sprintf("%s %-5s [%-4s] %-16s", ev.Time.Format("15:04:05.000"), lvl, ev.Comp, ev.Kind)}
	if ev.Generation > 0 {
		parts = append(parts, fmt.Sprintf("g%d", ev.Generation))
	}
	if ev.Mode != "" {
		parts = append(parts, ev.Mode)
	}
	if ev.RecordID != "" {
		parts = append(parts, "#"+ev.RecordID)
	}
	if ev.Msg != "" {
		parts = append(parts, "- "+ev.Msg)
	}
	if ev.DurMs > 0 {
		parts = append(parts, fmt.Sprintf("(%.*fms)", durPrecision(ev.DurMs), ev.DurMs))
	}
	if ev.Count > 0 {
		parts = append(parts, fmt.Sprintf("n=%d", ev.Count))
	}
	if ev.Err != "" {
		parts = append(parts, "err="+ev.Err)
	}
	return strings.Join(parts, " ")
}

type parsedLine struct {
	ev  otel.Event
	raw []byte
}

// readTailLines reads r to EOF and returns the last n lines matching the filter.
func readTailLines(r *bufio.Reader, n int, match func(otel.Event) bool) []parsedLine {
	if n <= 0 {
		return nil
	}
	ring := make([]parsedLine, 0, n)
	for {
		line, err := r.ReadBytes('\n')
		if raw := trimLine(line); len(raw) > 0 {
			var ev otel.Event
			if json.Unmarshal(raw, &ev) == nil && match(ev) {
				if len(ring) == n {
					copy(ring, ring[1:])
					ring = ring[:n-1]
				}
				ring = append(ring, parsedLine{ev: ev, raw: raw})
			}
		}
		if err != nil {
			return ring
		}
	}
}

func trimLine(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}

func durPrecision(ms float64) int {
	if ms >= 100 {
		return 0
	}
	if ms >= 1 {
		return 1
	}
	return 2
}
