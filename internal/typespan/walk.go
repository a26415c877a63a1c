package typespan

import (
	"sort"

	sitter "github.com/smacker/go-tree-sitter"
)

// construct is the closed set of syntax shapes the walker hands to a rule.
type construct int

const (
	constructNone construct = iota
	constructTypeAnnotation
	constructTypeParameters
	constructTypeArguments
	constructAssertedType
	constructTypeDeclaration
	constructSignature
	constructAmbient
	constructDeclaration
	constructImport
	constructImportSpecifier
	constructExport
	constructExportSpecifier
)

var constructNames = [...]string{
	constructNone:            "none",
	constructTypeAnnotation:  "type-annotation",
	constructTypeParameters:  "type-parameters",
	constructTypeArguments:   "type-arguments",
	constructAssertedType:    "asserted-type",
	constructTypeDeclaration: "type-declaration",
	constructSignature:       "signature",
	constructAmbient:         "ambient",
	constructDeclaration:     "declaration",
	constructImport:          "import",
	constructImportSpecifier: "import-specifier",
	constructExport:          "export",
	constructExportSpecifier: "export-specifier",
}

func (c construct) String() string {
	if int(c) < len(constructNames) {
		return constructNames[c]
	}
	return "unknown"
}

// classify decides whether the child at index of parent is a candidate.
func classify(parent *sitter.Node, child *sitter.Node, index int) construct {
	switch child.Type() {
	case "type_annotation", "asserts_annotation", "type_predicate_annotation":
		return constructTypeAnnotation
	case "type_parameters":
		return constructTypeParameters
	case "type_arguments":
		return constructTypeArguments
	case "type_alias_declaration", "interface_declaration":
		return constructTypeDeclaration
	case "function_signature", "method_signature", "abstract_method_signature":
		return constructSignature
	case "ambient_declaration":
		return constructAmbient
	case "lexical_declaration", "variable_declaration", "class_declaration", "abstract_class_declaration",
		"module", "internal_module", "enum_declaration":
		return constructDeclaration
	case "import_statement":
		return constructImport
	case "import_specifier":
		return constructImportSpecifier
	case "export_statement":
		return constructExport
	case "export_specifier":
		return constructExportSpecifier
	}

	if parent != nil && index > 0 && isAssertionParent(parent.Type()) {
		if prev := parent.Child(index - 1); prev != nil && isAssertionKeyword(prev) {
			return constructAssertedType
		}
	}
	return constructNone
}

func isAssertionParent(t string) bool {
	return t == "as_expression" || t == "satisfies_expression"
}

func isAssertionKeyword(n *sitter.Node) bool {
	if n.IsNamed() {
		return false
	}
	t := n.Type()
	return t == "as" || t == "satisfies"
}

// site is one (parent, candidate) pair handed to a rule.
type site struct {
	parent *sitter.Node
	node   *sitter.Node
	index  int
}

func (s site) sibling(delta int) *sitter.Node {
	i := s.index + delta
	if i < 0 || i >= int(s.parent.ChildCount()) {
		return nil
	}
	return s.parent.Child(i)
}

type rawSpan struct {
	Kind  Kind
	Start int
	End   int
}

type walker struct {
	src     []byte
	dialect Dialect
	diag    DiagnosticSink

	// ends of every non-trivia token, ascending
	tokenEnds []int

	raw []rawSpan
}

func newWalker(src []byte, dialect Dialect, diag DiagnosticSink) *walker {
	if diag == nil {
		diag = discardSink{}
	}
	return &walker{
		src:     src,
		dialect: dialect,
		diag:    diag,
		raw:     make([]rawSpan, 0, 64),
	}
}

// walk visits the children of node in source order. Non-candidates are always
// descended into; a candidate is descended into only when its rule says so.
func (w *walker) walk(node *sitter.Node) {
	count := int(node.ChildCount())
	for i := 0; i < count; i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		c := classify(node, child, i)
		if c == constructNone {
			w.walk(child)
			continue
		}
		if w.dispatch(c, site{parent: node, node: child, index: i}) {
			w.walk(child)
		}
	}
}

// dispatch runs the rule for c and reports whether to descend into the candidate.
func (w *walker) dispatch(c construct, s site) bool {
	switch c {
	case constructTypeAnnotation:
		return w.typeAnnotation(s)
	case constructTypeParameters:
		return w.typeParameters(s)
	case constructTypeArguments:
		return w.typeArguments(s)
	case constructAssertedType:
		return w.assertedType(s)
	case constructTypeDeclaration:
		return w.typeDeclaration(s)
	case constructSignature:
		return w.signature(s)
	case constructAmbient:
		return w.ambient(s)
	case constructDeclaration:
		return w.declaration(s)
	case constructImport:
		return w.importStatement(s)
	case constructImportSpecifier:
		return w.typeSpecifier(s, ImportTypeSpecifier)
	case constructExport:
		return w.exportStatement(s)
	case constructExportSpecifier:
		return w.typeSpecifier(s, ExportTypeSpecifier)
	}
	w.report(UnrecognizedShape, s, "no rule for construct "+c.String())
	return true
}

func (w *walker) emit(kind Kind, start int, end int) {
	if start < 0 || end > len(w.src) || start >= end {
		return
	}
	w.raw = append(w.raw, rawSpan{Kind: kind, Start: start, End: end})
}

func (w *walker) report(code DiagnosticCode, s site, msg string) {
	d := Diagnostic{
		Code:  code,
		Node:  s.node.Type(),
		Range: SourceSpan{Start: int(s.node.StartByte()), End: int(s.node.EndByte())},
		Msg:   msg,
	}
	if s.parent != nil {
		d.Parent = s.parent.Type()
	}
	w.diag.Report(d)
}

// collectTokens records the end offset of every token that is not trivia, so
// that fullStart can find the token preceding any offset.
func (w *walker) collectTokens(node *sitter.Node) {
	count := int(node.ChildCount())
	if count == 0 {
		if isTrivia(node) {
			return
		}
		start, end := int(node.StartByte()), int(node.EndByte())
		if end > start {
			w.tokenEnds = append(w.tokenEnds, end)
		}
		return
	}
	for i := 0; i < count; i++ {
		if child := node.Child(i); child != nil {
			w.collectTokens(child)
		}
	}
}

func isTrivia(n *sitter.Node) bool {
	switch n.Type() {
	case "comment", "html_comment", "hash_bang_line":
		return true
	}
	return n.IsMissing()
}

// fullStart is the offset just past the last real token ending at or before
// off: the start of a construct including its leading whitespace and comments.
func (w *walker) fullStart(off int) int {
	i := sort.Search(len(w.tokenEnds), func(i int) bool { return w.tokenEnds[i] > off })
	if i == 0 {
		return 0
	}
	return w.tokenEnds[i-1]
}

func (w *walker) fullStartOf(n *sitter.Node) int {
	return w.fullStart(int(n.StartByte()))
}
