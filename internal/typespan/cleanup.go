package typespan

import "sort"

type spanKey struct {
	kind       Kind
	start, end int
}

// cleanSpans turns raw rule output into the final result: duplicates removed,
// subsumed spans removed, line breaks trimmed from both ends, sorted by start.
func cleanSpans(source string, raw []rawSpan) []TypedSpan {
	if len(raw) == 0 {
		return nil
	}

	seen := make(map[spanKey]struct{}, len(raw))
	unique := make([]rawSpan, 0, len(raw))
	for _, r := range raw {
		k := spanKey{r.Kind, r.Start, r.End}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		unique = append(unique, r)
	}

	kept := dropSubsumed(unique)

	out := make([]TypedSpan, 0, len(kept))
	for _, r := range kept {
		start, end := trimLineBreaks(source, r.Start, r.End)
		if start >= end {
			continue
		}
		out = append(out, TypedSpan{
			Kind:  r.Kind,
			Range: SourceSpan{Start: start, End: end},
			Text:  source[start:end],
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Range.Start < out[j].Range.Start
	})
	if len(out) == 0 {
		return nil
	}
	return out
}

// dropSubsumed removes b whenever some other a has a.Start <= b.Start and
// b.End < a.End. The strict end comparison means a span sharing its end with
// a wider one survives.
func dropSubsumed(spans []rawSpan) []rawSpan {
	kept := make([]rawSpan, 0, len(spans))
	for i, b := range spans {
		subsumed := false
		for j, a := range spans {
			if i == j {
				continue
			}
			if b.Start >= a.Start && b.End < a.End {
				subsumed = true
				break
			}
		}
		if !subsumed {
			kept = append(kept, b)
		}
	}
	return kept
}

func isLineBreak(c byte) bool { return c == '\n' || c == '\r' }

func trimLineBreaks(source string, start, end int) (int, int) {
	for start < end && isLineBreak(source[start]) {
		start++
	}
	for end > start && isLineBreak(source[end-1]) {
		end--
	}
	return start, end
}
