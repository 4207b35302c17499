// Package viz projects span sets into renderable shapes: waterfall bars,
// dependency graphs, and terminal output. Decoupled from fetching and state
// so it stays a pure projection package.
package viz

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/tracedeck/tracedeck/internal/api"
)

// minWidthPercent keeps zero-duration and tiny spans visible.
const minWidthPercent = 0.5

// WaterfallLayout computes the normalized horizontal layout for a span set.
// Bars are sorted ascending by start time (stable; ties keep input order).
// Every bar satisfies LeftPercent in [0,100] and WidthPercent >= 0.5. When
// all spans are simultaneous the total duration is zero; each bar then
// renders full width rather than dividing by zero.
func WaterfallLayout(spans []api.Span) []Bar {
	if len(spans) == 0 {
		return nil
	}

	ordered := make([]api.Span, len(spans))
	copy(ordered, spans)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].StartTime < ordered[j].StartTime
	})

	minStart := ordered[0].StartTime
	maxEnd := minStart
	for i := range ordered {
		if end := ordered[i].EndSeconds(); end > maxEnd {
			maxEnd = end
		}
	}
	total := maxEnd - minStart

	bars := make([]Bar, 0, len(ordered))
	for i := range ordered {
		s := &ordered[i]
		bar := Bar{
			SpanID:       s.SpanID,
			Name:         s.Name,
			Type:         s.Type,
			Status:       s.Status,
			Duration:     s.DurationSeconds(),
			ErrorMessage: s.ErrorMessage,
		}
		if total <= 0 {
			bar.LeftPercent = 0
			bar.WidthPercent = 100
		} else {
			offset := s.StartTime - minStart
			bar.LeftPercent = offset / total * 100
			bar.WidthPercent = s.DurationSeconds() / total * 100
			if bar.WidthPercent < minWidthPercent {
				bar.WidthPercent = minWidthPercent
			}
			if bar.WidthPercent > 100 {
				bar.WidthPercent = 100
			}
		}
		bars = append(bars, bar)
	}
	return bars
}

// RenderWaterfall draws the layout as text for the terminal. Width controls
// the total line width; 0 uses a sensible default (80).
func RenderWaterfall(bars []Bar, width int) string {
	if len(bars) == 0 {
		return ""
	}
	if width <= 0 {
		width = 80
	}
	const barWidth = 30

	// Longest duration string, for right-edge alignment.
	maxDurLen := 0
	for _, bar := range bars {
		l := len(formatSeconds(bar.Duration))
		if bar.Status == api.StatusFailure {
			l += 7 // " !! ERR"
		}
		if l > maxDurLen {
			maxDurLen = l
		}
	}

	labelBudget := width - barWidth - maxDurLen - 5
	if labelBudget < 8 {
		labelBudget = 8
	}

	var b strings.Builder
	for _, bar := range bars {
		label := bar.Name
		if bar.Type != "" {
			label += " (" + bar.Type + ")"
		}
		// Truncate and pad in runes, not bytes, so multibyte names stay intact.
		if runes := []rune(label); len(runes) > labelBudget {
			label = string(runes[:labelBudget-1]) + "…"
		}
		label += strings.Repeat(" ", max(0, labelBudget-utf8.RuneCountInString(label)))

		durStr := formatSeconds(bar.Duration)
		if bar.Status == api.StatusFailure {
			durStr += " !! ERR"
		}

		fmt.Fprintf(&b, " %s [%s] %s\n", label, buildBar(bar, barWidth), durStr)
	}
	return b.String()
}

// buildBar fills the cells covered by [LeftPercent, LeftPercent+WidthPercent).
func buildBar(bar Bar, barWidth int) string {
	startPos := int(bar.LeftPercent / 100 * float64(barWidth))
	endPos := int((bar.LeftPercent + bar.WidthPercent) / 100 * float64(barWidth))

	if startPos >= barWidth {
		startPos = barWidth - 1
	}
	if endPos > barWidth {
		endPos = barWidth
	}
	if endPos <= startPos {
		endPos = startPos + 1
	}

	cells := make([]byte, barWidth)
	for i := range cells {
		if i >= startPos && i < endPos {
			cells[i] = '#'
		} else {
			cells[i] = '.'
		}
	}
	return string(cells)
}

func formatSeconds(seconds float64) string {
	switch {
	case seconds <= 0:
		return "0s"
	case seconds < 0.001:
		return fmt.Sprintf("%.0fµs", seconds*1e6)
	case seconds < 1:
		return fmt.Sprintf("%.0fms", seconds*1e3)
	default:
		return fmt.Sprintf("%.2fs", seconds)
	}
}
