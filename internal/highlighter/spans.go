package highlighter

import "sort"

func plainSpans(text string) []Span {
	if text == "" {
		return nil
	}
	return []Span{{Start: 0, End: len(text), Cat: TokenPlain}}
}

// normalizeSpans clips spans to [0, n), drops overlaps in favour of the
// earlier span, fills gaps with plain text and merges neighbours of the same
// category.
func normalizeSpans(spans []Span, n int) []Span {
	if n <= 0 {
		return nil
	}

	clean := make([]Span, 0, len(spans))
	for _, span := range spans {
		start := max(span.Start, 0)
		end := min(span.End, n)
		if end <= start {
			continue
		}
		clean = append(clean, Span{Start: start, End: end, Cat: span.Cat})
	}

	sort.SliceStable(clean, func(i, j int) bool {
		if clean[i].Start == clean[j].Start {
			return clean[i].End < clean[j].End
		}
		return clean[i].Start < clean[j].Start
	})

	out := make([]Span, 0, len(clean)+2)
	cursor := 0
	for _, span := range clean {
		start := max(span.Start, cursor)
		if span.End <= start {
			continue
		}
		if start > cursor {
			out = appendMergedSpan(out, cursor, start, TokenPlain)
		}
		out = appendMergedSpan(out, start, span.End, span.Cat)
		cursor = span.End
	}
	if cursor < n {
		out = appendMergedSpan(out, cursor, n, TokenPlain)
	}
	return out
}

func appendMergedSpan(spans []Span, start int, end int, cat TokenCategory) []Span {
	if end <= start {
		return spans
	}
	if len(spans) > 0 {
		last := &spans[len(spans)-1]
		if last.End == start && last.Cat == cat {
			last.End = end
			return spans
		}
	}
	return append(spans, Span{Start: start, End: end, Cat: cat})
}

// CategoryAt returns the category of byte off, searching spans that cover
// the document contiguously.
func CategoryAt(spans []Span, off int) TokenCategory {
	i := sort.Search(len(spans), func(i int) bool { return spans[i].End > off })
	if i < len(spans) && spans[i].Start <= off {
		return spans[i].Cat
	}
	return TokenPlain
}
