package typespan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanSpansDedupes(t *testing.T) {
	src := "abcdef"
	got := cleanSpans(src, []rawSpan{
		{Kind: AsAssertion, Start: 1, End: 3},
		{Kind: AsAssertion, Start: 1, End: 3},
		{Kind: SatisfiesOperator, Start: 1, End: 3},
	})

	require.Len(t, got, 2)
	assert.Equal(t, AsAssertion, got[0].Kind)
	assert.Equal(t, SatisfiesOperator, got[1].Kind)
	assert.Equal(t, "bc", got[0].Text)
}

func TestCleanSpansSubsumption(t *testing.T) {
	src := "0123456789"

	tests := []struct {
		name string
		raw  []rawSpan
		want []SourceSpan
	}{
		{
			name: "strictly inside",
			raw:  []rawSpan{{TypeAlias, 0, 10}, {FunctionParameter, 2, 5}},
			want: []SourceSpan{{0, 10}},
		},
		{
			name: "shared start, shorter end",
			raw:  []rawSpan{{TypeAlias, 2, 8}, {FunctionParameter, 2, 5}},
			want: []SourceSpan{{2, 8}},
		},
		{
			name: "shared end survives",
			raw:  []rawSpan{{TypeAlias, 0, 8}, {FunctionParameter, 4, 8}},
			want: []SourceSpan{{0, 8}, {4, 8}},
		},
		{
			name: "adjacent spans",
			raw:  []rawSpan{{AsAssertion, 0, 4}, {AsAssertion, 4, 9}},
			want: []SourceSpan{{0, 4}, {4, 9}},
		},
		{
			name: "overlap without containment",
			raw:  []rawSpan{{AsAssertion, 0, 5}, {AsAssertion, 3, 9}},
			want: []SourceSpan{{0, 5}, {3, 9}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := cleanSpans(src, tc.raw)
			ranges := make([]SourceSpan, 0, len(got))
			for _, s := range got {
				ranges = append(ranges, s.Range)
			}
			assert.Equal(t, tc.want, ranges)
		})
	}
}

func TestCleanSpansTrimsLineBreaks(t *testing.T) {
	src := "\r\n\ntype\n\r\n"
	got := cleanSpans(src, []rawSpan{{TypeAlias, 0, len(src)}})

	require.Len(t, got, 1)
	assert.Equal(t, SourceSpan{Start: 3, End: 7}, got[0].Range)
	assert.Equal(t, "type", got[0].Text)
}

func TestCleanSpansDropsBlankSpans(t *testing.T) {
	src := "a\n\n\nb"
	got := cleanSpans(src, []rawSpan{{AsAssertion, 1, 4}})
	assert.Nil(t, got)
}

func TestCleanSpansSortsStably(t *testing.T) {
	src := "0123456789"
	got := cleanSpans(src, []rawSpan{
		{AsAssertion, 6, 9},
		{TypeAlias, 0, 3},
		{SatisfiesOperator, 0, 3},
	})

	require.Len(t, got, 3)
	assert.Equal(t, TypeAlias, got[0].Kind)
	assert.Equal(t, SatisfiesOperator, got[1].Kind)
	assert.Equal(t, AsAssertion, got[2].Kind)
}

func TestCleanSpansIdempotent(t *testing.T) {
	src := "\nconst a = 1 as number;\n"
	first := cleanSpans(src, []rawSpan{{AsAssertion, 12, 22}, {VariableTypeDefinition, 0, 24}})

	again := make([]rawSpan, 0, len(first))
	for _, s := range first {
		again = append(again, rawSpan{Kind: s.Kind, Start: s.Range.Start, End: s.Range.End})
	}
	assert.Equal(t, first, cleanSpans(src, again))
}

func TestFullStart(t *testing.T) {
	w := newWalker([]byte("const a = 1 as number"), DialectTS, nil)
	w.tokenEnds = []int{5, 7, 9, 11, 14, 21}

	assert.Equal(t, 0, w.fullStart(0))
	assert.Equal(t, 11, w.fullStart(12))
	assert.Equal(t, 11, w.fullStart(13))
	assert.Equal(t, 14, w.fullStart(14))
}
