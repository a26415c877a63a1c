package main

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"typehide/internal/highlighter"
	"typehide/internal/visibility"
)

type byteRange struct {
	start int
	end   int
}

// visibleRanges subtracts the decorated ranges from [start, end).
func visibleRanges(start int, end int, decorations []visibility.Decoration) []byteRange {
	var cuts []byteRange
	for _, d := range decorations {
		if d.Range.End <= start || d.Range.Start >= end {
			continue
		}
		cuts = append(cuts, byteRange{max(d.Range.Start, start), min(d.Range.End, end)})
	}
	sort.Slice(cuts, func(i, j int) bool { return cuts[i].start < cuts[j].start })

	out := make([]byteRange, 0, len(cuts)+1)
	cursor := start
	for _, c := range cuts {
		if c.start > cursor {
			out = append(out, byteRange{cursor, c.start})
		}
		cursor = max(cursor, c.end)
	}
	if cursor < end {
		out = append(out, byteRange{cursor, end})
	}
	return out
}

// lineWriter accumulates styled pieces up to a cell budget.
type lineWriter struct {
	b     strings.Builder
	used  int
	width int
	full  bool
}

func (w *lineWriter) write(text string, style lipgloss.Style) {
	if w.full || text == "" {
		return
	}
	text = expandTabs(text)
	cells := runewidth.StringWidth(text)
	if w.used+cells > w.width {
		text = runewidth.Truncate(text, w.width-w.used, "")
		cells = runewidth.StringWidth(text)
		w.full = true
	}
	if text == "" {
		return
	}
	w.b.WriteString(style.Render(text))
	w.used += cells
}

func tokenStyle(cat highlighter.TokenCategory, caretLine bool) lipgloss.Style {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(appTheme.tokenColor(cat)))
	switch cat {
	case highlighter.TokenOperator:
		style = style.Faint(true)
	case highlighter.TokenError:
		style = style.Bold(true)
	case highlighter.TokenComment:
		style = style.Italic(true)
	}
	if caretLine {
		style = style.Background(lipgloss.Color(appTheme.CaretLineBG))
	}
	return style
}

// renderSourceLine draws one source line with decorated ranges removed,
// syntax colours applied and, on the caret line, the caret marked. A line
// that opens a fold ends with a marker counting the collapsed lines.
func renderSourceLine(d *viewDoc, l layer, line int, width int, caretLine bool) string {
	start, end := d.lineBounds(line)
	caret := -1
	if caretLine {
		caret = d.caretOffset()
	}

	w := &lineWriter{width: width}
	for _, r := range visibleRanges(start, end, l.decorations) {
		writeColored(w, d, r, caret, caretLine)
	}
	if caretLine && (caret >= end || caret < start) {
		w.write(" ", lipgloss.NewStyle().Reverse(true))
	}

	if fold, ok := l.foldAt(line); ok {
		marker := fmt.Sprintf(" ⋯ %d lines", fold.End-fold.Start)
		w.write(marker, lipgloss.NewStyle().Foreground(lipgloss.Color(appTheme.Fold)).Italic(true))
	}

	out := w.b.String()
	if caretLine && w.used < width {
		out += lipgloss.NewStyle().Background(lipgloss.Color(appTheme.CaretLineBG)).Render(strings.Repeat(" ", width-w.used))
	}
	return out
}

// writeColored writes r split along highlight spans and around the caret.
func writeColored(w *lineWriter, d *viewDoc, r byteRange, caret int, caretLine bool) {
	colors := d.colors
	i := sort.Search(len(colors), func(i int) bool { return colors[i].End > r.start })

	pos := r.start
	for pos < r.end && !w.full {
		cat := highlighter.TokenPlain
		next := r.end
		if i < len(colors) && colors[i].Start <= pos {
			cat = colors[i].Cat
			next = min(colors[i].End, r.end)
		} else if i < len(colors) {
			next = min(colors[i].Start, r.end)
		}

		style := tokenStyle(cat, caretLine)
		if caret >= pos && caret < next {
			w.write(d.text[pos:caret], style)
			_, size := utf8.DecodeRuneInString(d.text[caret:])
			w.write(d.text[caret:caret+size], style.Reverse(true))
			w.write(d.text[caret+size:next], style)
		} else {
			w.write(d.text[pos:next], style)
		}

		pos = next
		if i < len(colors) && colors[i].End <= pos {
			i++
		}
	}
}
