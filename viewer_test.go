package main

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"typehide/internal/highlighter"
	"typehide/internal/lang"
	"typehide/internal/typespan"
	"typehide/internal/visibility"
)

const viewSample = "interface Point {\n  x: number;\n  y: number;\n}\nconst p: Point = { x: 1, y: 2 };"

func newTestModel(t *testing.T, hidden bool) (model, *screen) {
	t.Helper()
	scr := newScreen()
	coord := visibility.New(visibility.Config{
		CacheSize:     8,
		Workers:       1,
		FoldThreshold: 2,
		Hidden:        hidden,
	}, scr)
	t.Cleanup(coord.Close)

	d := &viewDoc{path: "/tmp/point.ts", rel: "point.ts", lang: lang.TypeScript, dialect: typespan.DialectTS}
	d.setText(viewSample)
	_, err := coord.AnalyzeNow(d.document())
	require.NoError(t, err)

	m := newModel(viewConfig{}, coord, scr, highlighter.New(4), []*viewDoc{d})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 10})
	return next.(model), scr
}

func press(t *testing.T, m model, keys ...tea.KeyMsg) model {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(k)
		m = next.(model)
	}
	return m
}

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestViewerHidesSpansAwayFromCaret(t *testing.T) {
	m, scr := newTestModel(t, true)
	d := m.doc()

	// caret on line 0 sits inside the interface
	l := scr.layer(d.path)
	require.Len(t, l.decorations, 1)
	assert.Equal(t, typespan.VariableTypeDefinition, l.decorations[0].Kind)
	assert.Empty(t, l.folds)

	m = press(t, m, runeKey("G"))
	assert.Equal(t, 4, d.caret.Line)

	l = scr.layer(d.path)
	assert.Len(t, l.decorations, 2)
	assert.Equal(t, []visibility.LineRange{{Start: 0, End: 3}}, l.folds)
	assert.Equal(t, []int{0, 4}, l.visibleLines(d.index.LineCount()))

	view := m.View()
	assert.Contains(t, view, "point.ts")
	assert.Contains(t, view, "TH on")
	assert.NotContains(t, view, ": Point")
}

func TestViewerToggleShowsEverything(t *testing.T) {
	m, scr := newTestModel(t, true)
	d := m.doc()
	m = press(t, m, runeKey("G"))
	require.NotEmpty(t, scr.layer(d.path).folds)

	m = press(t, m, runeKey("t"))
	assert.False(t, m.coord.Hidden())
	assert.Equal(t, "TH off", m.status)

	l := scr.layer(d.path)
	assert.Empty(t, l.decorations)
	assert.Empty(t, l.folds)
}

func TestViewerCaretSkipsFoldedLines(t *testing.T) {
	m, _ := newTestModel(t, true)
	d := m.doc()

	m = press(t, m, runeKey("G"), tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, d.caret.Line)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, d.caret.Line, "fold opens once the caret is inside the interface")
}

func TestViewerIgnorePrompt(t *testing.T) {
	m, scr := newTestModel(t, true)
	d := m.doc()

	m = press(t, m, runeKey("/"))
	require.True(t, m.editing)
	for _, r := range "variable-type-definition" {
		m = press(t, m, runeKey(string(r)))
	}
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.False(t, m.editing)
	assert.Equal(t, []typespan.Kind{typespan.VariableTypeDefinition}, m.coord.Ignored())
	assert.Empty(t, scr.layer(d.path).decorations)

	m = press(t, m, runeKey("/"))
	m.input.SetValue("no-such-kind")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, m.editing)
	assert.NotEmpty(t, m.errMsg)
}

func TestLayerFolds(t *testing.T) {
	l := layer{folds: []visibility.LineRange{{Start: 2, End: 5}, {Start: 8, End: 9}}}

	r, ok := l.foldAt(2)
	assert.True(t, ok)
	assert.Equal(t, visibility.LineRange{Start: 2, End: 5}, r)
	_, ok = l.foldAt(3)
	assert.False(t, ok)

	assert.False(t, l.folded(2))
	assert.True(t, l.folded(3))
	assert.True(t, l.folded(5))
	assert.False(t, l.folded(6))
	assert.True(t, l.folded(9))

	assert.Equal(t, []int{0, 1, 2, 6, 7, 8, 10}, l.visibleLines(11))
}

func TestRowOf(t *testing.T) {
	rows := []int{0, 1, 2, 6, 7}
	assert.Equal(t, 0, rowOf(rows, 0))
	assert.Equal(t, 2, rowOf(rows, 2))
	assert.Equal(t, 2, rowOf(rows, 4))
	assert.Equal(t, 4, rowOf(rows, 100))
	assert.Equal(t, 0, rowOf(nil, 3))
}

func TestVisibleRanges(t *testing.T) {
	decorations := []visibility.Decoration{
		{Range: typespan.SourceSpan{Start: 12, End: 15}},
		{Range: typespan.SourceSpan{Start: 3, End: 5}},
		{Range: typespan.SourceSpan{Start: 30, End: 40}},
	}
	assert.Equal(t, []byteRange{{0, 3}, {5, 12}, {15, 20}}, visibleRanges(0, 20, decorations))
	assert.Equal(t, []byteRange{{5, 8}}, visibleRanges(4, 8, decorations))
	assert.Empty(t, visibleRanges(30, 35, decorations))
}

func TestLineBounds(t *testing.T) {
	d := &viewDoc{}
	d.setText("ab\r\ncd\nef")

	start, end := d.lineBounds(0)
	assert.Equal(t, "ab", d.text[start:end])
	start, end = d.lineBounds(1)
	assert.Equal(t, "cd", d.text[start:end])
	start, end = d.lineBounds(2)
	assert.Equal(t, "ef", d.text[start:end])
	assert.Equal(t, 1, d.version)
}
