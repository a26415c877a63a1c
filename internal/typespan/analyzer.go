package typespan

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
	tsxlang "github.com/smacker/go-tree-sitter/typescript/tsx"
	tslang "github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithDiagnostics routes skipped-candidate reports to sink.
func WithDiagnostics(sink DiagnosticSink) Option {
	return func(a *Analyzer) {
		if sink != nil {
			a.diag = sink
		}
	}
}

// Analyzer owns a tree-sitter parser and reuses it across calls. It keeps no
// other state between calls. An Analyzer must not be used from more than one
// goroutine at a time; give each worker its own.
type Analyzer struct {
	parser *sitter.Parser
	langs  map[Dialect]*sitter.Language
	diag   DiagnosticSink
}

func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{
		parser: sitter.NewParser(),
		langs: map[Dialect]*sitter.Language{
			DialectTS:  tslang.GetLanguage(),
			DialectTSX: tsxlang.GetLanguage(),
		},
		diag: discardSink{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Close releases the parser.
func (a *Analyzer) Close() {
	if a.parser != nil {
		a.parser.Close()
		a.parser = nil
	}
}

// Analyze classifies every type-level span of source. The result is sorted by
// start offset, free of duplicates and of subsumed spans. A parse failure
// yields an empty result, never a partial one.
func (a *Analyzer) Analyze(source string, dialect Dialect) []TypedSpan {
	if source == "" {
		return nil
	}

	src := []byte(source)
	a.parser.SetLanguage(a.langs[dialect])
	tree, err := a.parser.ParseCtx(context.Background(), nil, src)
	if err != nil || tree == nil {
		return nil
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil
	}

	w := newWalker(src, dialect, a.diag)
	w.collectTokens(root)
	w.walk(root)
	return cleanSpans(source, w.raw)
}

// Analyze is a one-shot convenience around a fresh Analyzer.
func Analyze(source string, dialect Dialect, opts ...Option) []TypedSpan {
	a := NewAnalyzer(opts...)
	defer a.Close()
	return a.Analyze(source, dialect)
}
