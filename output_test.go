package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"typehide/internal/typespan"
)

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]outputFormat{
		"":       formatText,
		"text":   formatText,
		" JSON ": formatJSON,
		"yaml":   formatYAML,
	} {
		got, err := parseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := parseFormat("xml")
	assert.Error(t, err)
}

func TestSetColorModeRejectsUnknown(t *testing.T) {
	prev := color.NoColor
	t.Cleanup(func() { color.NoColor = prev })

	require.NoError(t, setColorMode("never"))
	assert.True(t, color.NoColor)
	require.NoError(t, setColorMode("always"))
	assert.False(t, color.NoColor)
	assert.Error(t, setColorMode("sometimes"))
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, `": number"`, snippet(": number", 60))
	assert.Equal(t, `"a\nb"`, snippet("a\nb", 60))

	long := snippet(strings.Repeat("x", 100), 20)
	assert.True(t, strings.HasSuffix(long, "..."))
	assert.LessOrEqual(t, runewidth.StringWidth(long), 20)
}

func TestFilterKinds(t *testing.T) {
	spans := []typespan.TypedSpan{
		{Kind: typespan.TypeAlias},
		{Kind: typespan.AsAssertion},
		{Kind: typespan.TypeAlias},
	}
	assert.Equal(t, spans, filterKinds(spans, nil))

	got := filterKinds(spans, []typespan.Kind{typespan.TypeAlias})
	require.Len(t, got, 2)
	for _, s := range got {
		assert.Equal(t, typespan.TypeAlias, s.Kind)
	}
	assert.Empty(t, filterKinds(spans, []typespan.Kind{typespan.Interface}))
}

func writeFile(t *testing.T, dir string, name string, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSource(t *testing.T) {
	dir := t.TempDir()
	ts := writeFile(t, dir, "a.ts", "let x: number = 1;\n")
	tsx := writeFile(t, dir, "b.tsx", "const el = <A<string> />;\n")
	js := writeFile(t, dir, "c.js", "let x = 1;\n")

	source, dialect, err := loadSource(nil, ts, false)
	require.NoError(t, err)
	assert.Equal(t, "let x: number = 1;\n", source)
	assert.Equal(t, typespan.DialectTS, dialect)

	_, dialect, err = loadSource(nil, tsx, false)
	require.NoError(t, err)
	assert.Equal(t, typespan.DialectTSX, dialect)

	_, _, err = loadSource(nil, js, false)
	assert.ErrorContains(t, err, "not a TypeScript file")

	_, dialect, err = loadSource(nil, js, true)
	require.NoError(t, err)
	assert.Equal(t, typespan.DialectTSX, dialect)

	source, dialect, err = loadSource(strings.NewReader("type A = 1;"), "-", false)
	require.NoError(t, err)
	assert.Equal(t, "type A = 1;", source)
	assert.Equal(t, typespan.DialectTS, dialect)
}

func TestNewFileReport(t *testing.T) {
	source := "let a = 1;\nlet x: number = 1;\n"
	spans := typespan.Analyze(source, typespan.DialectTS)

	r := newFileReport("a.ts", source, typespan.DialectTS, spans)
	assert.Equal(t, "typescript", r.Dialect)
	require.Len(t, r.Spans, 1)

	s := r.Spans[0]
	assert.Equal(t, "variable-type-definition", s.Kind)
	assert.Equal(t, ": number", s.Text)
	assert.Equal(t, 2, s.Line)
	assert.Equal(t, 6, s.Column)
	assert.Equal(t, 16, s.Start)
	assert.Equal(t, 24, s.End)
}

func TestWriteFileReports(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	reports := []fileReport{
		{Path: "a.ts", Dialect: "typescript", Spans: []spanReport{{Kind: "as-assertion", Line: 3, Column: 7, Text: " as T"}}},
		{Path: "b.ts", Error: "boom"},
	}

	var text bytes.Buffer
	require.NoError(t, writeFileReports(&text, formatText, reports))
	out := text.String()
	assert.Contains(t, out, "a.ts (1 spans)")
	assert.Contains(t, out, "3:7")
	assert.Contains(t, out, `" as T"`)
	assert.Contains(t, out, "b.ts boom")

	var js bytes.Buffer
	require.NoError(t, writeFileReports(&js, formatJSON, reports))
	assert.Contains(t, js.String(), `"kind": "as-assertion"`)
	assert.Contains(t, js.String(), `"error": "boom"`)

	var ym bytes.Buffer
	require.NoError(t, writeFileReports(&ym, formatYAML, reports))
	assert.Contains(t, ym.String(), "kind: as-assertion")
}

func TestCountKinds(t *testing.T) {
	got := countKinds(map[typespan.Kind]int{
		typespan.AsAssertion: 2,
		typespan.TypeAlias:   1,
		typespan.Interface:   0,
	})
	assert.Equal(t, []kindCount{
		{Kind: "type-alias", Count: 1},
		{Kind: "as-assertion", Count: 2},
	}, got)
}
