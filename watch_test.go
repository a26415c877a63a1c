package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"typehide/internal/typespan"
)

func TestVersionBookPerPath(t *testing.T) {
	var b versionBook
	assert.Equal(t, 1, b.bump("a.ts"))
	assert.Equal(t, 2, b.bump("a.ts"))
	assert.Equal(t, 1, b.bump("b.ts"))
}

func TestSummarize(t *testing.T) {
	spans := []typespan.TypedSpan{
		{Kind: typespan.AsAssertion},
		{Kind: typespan.TypeAlias},
		{Kind: typespan.AsAssertion},
	}
	ev := summarize("/r/a.ts", 3, spans)
	assert.Equal(t, 3, ev.Spans)
	assert.Equal(t, 3, ev.Version)
	assert.Equal(t, []kindCount{{Kind: "type-alias", Count: 1}, {Kind: "as-assertion", Count: 2}}, ev.Kinds)
}

func TestEventPrinter(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	root := t.TempDir()
	var buf bytes.Buffer
	p := &eventPrinter{w: &buf, format: formatText, root: root, st: newStyles()}

	p.print(watchEvent{Path: filepath.Join(root, "src", "a.ts"), Version: 2, Spans: 1, Kinds: []kindCount{{Kind: "type-alias", Count: 1}}})
	p.print(watchEvent{Path: filepath.Join(root, "b.ts"), Removed: true})
	assert.Equal(t, "src/a.ts v2 1 spans type-alias=1\nb.ts removed\n", buf.String())

	buf.Reset()
	p.format = formatJSON
	p.print(watchEvent{Path: filepath.Join(root, "a.ts"), Version: 1})
	require.Contains(t, buf.String(), `"path":"a.ts"`)
	assert.Contains(t, buf.String(), `"version":1`)
}
