package visibility

import "typehide/internal/typespan"

// Decoration hides one span in the editor.
type Decoration struct {
	Kind  typespan.Kind
	Range typespan.SourceSpan
}

// LineRange is an inclusive range of 0-based lines.
type LineRange struct {
	Start int
	End   int
}

func (r LineRange) Lines() int { return r.End - r.Start + 1 }

// Plan is what the editor must do to hide a document's type-level spans.
type Plan struct {
	Decorations []Decoration
	Folds       []LineRange
}

// PlanOptions tunes Compute. A negative Caret means there is no caret.
// FoldThreshold 0 disables folding.
type PlanOptions struct {
	Caret         int
	Ignored       map[typespan.Kind]bool
	FoldThreshold int
}

// Compute decides which spans to hide and which line ranges to fold. A span
// touching the caret stays visible, as do spans of ignored kinds. A hidden
// span is also folded when it covers more than FoldThreshold lines.
func Compute(spans []typespan.TypedSpan, text string, opts PlanOptions) Plan {
	var p Plan
	var li *typespan.LineIndex

	for _, s := range spans {
		if opts.Ignored[s.Kind] {
			continue
		}
		if opts.Caret >= 0 && s.Range.Contains(opts.Caret) {
			continue
		}
		p.Decorations = append(p.Decorations, Decoration{Kind: s.Kind, Range: s.Range})

		if opts.FoldThreshold <= 0 || s.Lines() <= opts.FoldThreshold {
			continue
		}
		if li == nil {
			li = typespan.NewLineIndex(text)
		}
		fold := LineRange{Start: li.Line(s.Range.Start), End: li.Line(s.Range.End)}
		if n := len(p.Folds); n > 0 && p.Folds[n-1] == fold {
			continue
		}
		p.Folds = append(p.Folds, fold)
	}
	return p
}
