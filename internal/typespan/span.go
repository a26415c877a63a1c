package typespan

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Dialect selects the grammar used to parse a source unit.
type Dialect struct {
	JSX bool
}

var (
	DialectTS  = Dialect{}
	DialectTSX = Dialect{JSX: true}
)

func (d Dialect) String() string {
	if d.JSX {
		return "tsx"
	}
	return "typescript"
}

// SourceSpan is a half-open byte range [Start, End) into one source snapshot.
type SourceSpan struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

func (s SourceSpan) Len() int { return s.End - s.Start }

// Contains reports whether off lies inside the span, end inclusive.
func (s SourceSpan) Contains(off int) bool {
	return off >= s.Start && off <= s.End
}

func (s SourceSpan) valid(textLen int) bool {
	return s.Start >= 0 && s.Start < s.End && s.End <= textLen
}

// TypedSpan is one classified range. Text is always source[Start:End].
type TypedSpan struct {
	Kind  Kind       `json:"kind" yaml:"kind"`
	Range SourceSpan `json:"range" yaml:"range"`
	Text  string     `json:"text" yaml:"text"`
}

// Lines reports how many source lines the span text touches.
func (s TypedSpan) Lines() int {
	return strings.Count(s.Text, "\n") + 1
}

// Position is a 0-based line and a 0-based rune column.
type Position struct {
	Line   int `json:"line" yaml:"line"`
	Column int `json:"column" yaml:"column"`
}

// LineIndex converts byte offsets of one text into line/column positions.
type LineIndex struct {
	text   string
	starts []int
}

func NewLineIndex(text string) *LineIndex {
	starts := make([]int, 1, strings.Count(text, "\n")+1)
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{text: text, starts: starts}
}

func (li *LineIndex) LineCount() int { return len(li.starts) }

// LineStart returns the byte offset at which line begins.
func (li *LineIndex) LineStart(line int) int {
	if line <= 0 {
		return 0
	}
	if line >= len(li.starts) {
		return len(li.text)
	}
	return li.starts[line]
}

// Line returns the line containing off.
func (li *LineIndex) Line(off int) int {
	if off <= 0 {
		return 0
	}
	if off > len(li.text) {
		off = len(li.text)
	}
	return sort.Search(len(li.starts), func(i int) bool { return li.starts[i] > off }) - 1
}

func (li *LineIndex) Position(off int) Position {
	if off < 0 {
		off = 0
	}
	if off > len(li.text) {
		off = len(li.text)
	}
	line := li.Line(off)
	return Position{Line: line, Column: utf8.RuneCountInString(li.text[li.starts[line]:off])}
}

// Offset is the inverse of Position. Columns past the end of the line clamp
// to the line end.
func (li *LineIndex) Offset(pos Position) int {
	if pos.Line < 0 {
		return 0
	}
	if pos.Line >= len(li.starts) {
		return len(li.text)
	}
	off := li.starts[pos.Line]
	for col := 0; col < pos.Column && off < len(li.text); col++ {
		if li.text[off] == '\n' {
			break
		}
		_, size := utf8.DecodeRuneInString(li.text[off:])
		off += size
	}
	return off
}
