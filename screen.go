package main

import (
	"sort"
	"sync"

	"typehide/internal/visibility"
)

// screen is the viewer's side of visibility.Editor: it records what the
// coordinator asks to hide and fold, and the renderer reads it back.
type screen struct {
	mu          sync.Mutex
	decorations map[string][]visibility.Decoration
	folds       map[string]map[visibility.LineRange]bool
}

func newScreen() *screen {
	return &screen{
		decorations: make(map[string][]visibility.Decoration),
		folds:       make(map[string]map[visibility.LineRange]bool),
	}
}

func (s *screen) SetDecorations(uri string, decorations []visibility.Decoration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decorations[uri] = append([]visibility.Decoration(nil), decorations...)
}

func (s *screen) ClearDecorations(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.decorations, uri)
}

func (s *screen) Fold(uri string, r visibility.LineRange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.folds[uri] == nil {
		s.folds[uri] = make(map[visibility.LineRange]bool)
	}
	s.folds[uri][r] = true
}

func (s *screen) Unfold(uri string, r visibility.LineRange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.folds[uri], r)
}

// layer is a snapshot of what is hidden in one document.
type layer struct {
	decorations []visibility.Decoration
	folds       []visibility.LineRange
}

func (s *screen) layer(uri string) layer {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := layer{decorations: s.decorations[uri]}
	for r := range s.folds[uri] {
		l.folds = append(l.folds, r)
	}
	sort.Slice(l.folds, func(i, j int) bool {
		if l.folds[i].Start == l.folds[j].Start {
			return l.folds[i].End > l.folds[j].End
		}
		return l.folds[i].Start < l.folds[j].Start
	})
	return l
}

// foldAt returns the widest fold starting at line.
func (l layer) foldAt(line int) (visibility.LineRange, bool) {
	for _, r := range l.folds {
		if r.Start == line {
			return r, true
		}
		if r.Start > line {
			break
		}
	}
	return visibility.LineRange{}, false
}

// folded reports whether line is collapsed into a fold that starts above it.
func (l layer) folded(line int) bool {
	for _, r := range l.folds {
		if r.Start >= line {
			return false
		}
		if line <= r.End {
			return true
		}
	}
	return false
}

// visibleLines lists the source lines that get a row of their own.
func (l layer) visibleLines(lineCount int) []int {
	out := make([]int, 0, lineCount)
	for i := 0; i < lineCount; i++ {
		if !l.folded(i) {
			out = append(out, i)
		}
	}
	return out
}
