package typespan

import (
	sitter "github.com/smacker/go-tree-sitter"
)

func isFunctionLike(t string) bool {
	switch t {
	case "function_declaration", "generator_function_declaration",
		"function", "function_expression", "generator_function",
		"arrow_function", "method_definition":
		return true
	}
	return false
}

func isClassLike(t string) bool {
	switch t {
	case "class_declaration", "class", "abstract_class_declaration":
		return true
	}
	return false
}

func isToken(n *sitter.Node, text string) bool {
	return n != nil && !n.IsNamed() && !n.IsMissing() && n.Type() == text
}

// hasBody reports whether a function-like node carries a real body.
func hasBody(fn *sitter.Node) bool {
	body := fn.ChildByFieldName("body")
	return body != nil && !body.IsMissing() && body.EndByte() > body.StartByte()
}

// typeAnnotation handles `: T`, `: x is T` and `: asserts x` depending on
// what they annotate.
func (w *walker) typeAnnotation(s site) bool {
	parent := s.parent.Type()

	if isFunctionLike(parent) {
		if !hasBody(s.parent) {
			w.overload(s.parent, s.parent, nil)
			return false
		}
		kind := FunctionReturn
		if isPredicateAnnotation(s.node) {
			kind = FunctionTypePredicate
		}
		if colon, ok := w.leadingColon(s); ok {
			w.emit(kind, colon, int(s.node.EndByte()))
		}
		return false
	}

	if s.node.Type() != "type_annotation" {
		w.report(UnrecognizedShape, s, "predicate outside a function")
		return false
	}

	var kind Kind
	var modifiers []string
	switch parent {
	case "required_parameter", "optional_parameter":
		kind, modifiers = FunctionParameter, []string{"?"}
	case "variable_declarator":
		kind, modifiers = VariableTypeDefinition, []string{"!"}
	case "public_field_definition":
		kind, modifiers = ClassPropertyTypeDefinition, []string{"?", "!"}
	default:
		w.report(UnrecognizedShape, s, "type annotation under unhandled parent")
		return false
	}

	colon, ok := w.leadingColon(s)
	if !ok {
		return false
	}
	start := colon
	if prev := s.sibling(-1); prev != nil {
		for _, m := range modifiers {
			if isToken(prev, m) {
				start = int(prev.StartByte())
				break
			}
		}
	}
	w.emit(kind, start, int(s.node.EndByte()))
	return false
}

func isPredicateAnnotation(n *sitter.Node) bool {
	switch n.Type() {
	case "asserts_annotation", "type_predicate_annotation":
		return true
	}
	if inner := n.NamedChild(0); inner != nil {
		switch inner.Type() {
		case "asserts", "type_predicate":
			return true
		}
	}
	return false
}

// leadingColon returns the offset of the `:` that opens an annotation.
func (w *walker) leadingColon(s site) (int, bool) {
	colon := s.node.Child(0)
	if !isToken(colon, ":") {
		w.report(MissingToken, s, "annotation without leading ':'")
		return 0, false
	}
	return int(colon.StartByte()), true
}

// angleRange returns the span of a `<...>` list from the opening `<` to just
// past the closing `>`.
func (w *walker) angleRange(s site) (int, int, bool) {
	count := int(s.node.ChildCount())
	if count < 2 {
		w.report(MissingToken, s, "angle list without brackets")
		return 0, 0, false
	}
	open := s.node.Child(0)
	closing := s.node.Child(count - 1)
	if !isToken(open, "<") {
		w.report(MissingToken, s, "angle list without '<'")
		return 0, 0, false
	}
	if closing == nil || closing.IsNamed() || closing.IsMissing() {
		w.report(MissingToken, s, "angle list without '>'")
		return 0, 0, false
	}
	end, ok := closeAngleEnd(closing, w.src)
	if !ok {
		w.report(MissingToken, s, "angle list closed by "+closing.Type())
		return 0, 0, false
	}
	return int(open.StartByte()), end, true
}

// closeAngleEnd is the offset just past a closing `>`. A token the lexer
// merged with what follows (`>>`, `>=`) only contributes its first byte.
func closeAngleEnd(tok *sitter.Node, src []byte) (int, bool) {
	start, end := int(tok.StartByte()), int(tok.EndByte())
	if start >= end || start >= len(src) || src[start] != '>' {
		return 0, false
	}
	if tok.Type() == ">" {
		return end, true
	}
	return start + 1, true
}

func (w *walker) typeParameters(s site) bool {
	parent := s.parent.Type()
	switch {
	case isFunctionLike(parent):
		if !hasBody(s.parent) {
			w.overload(s.parent, s.parent, nil)
			return false
		}
	case isClassLike(parent):
	default:
		w.report(UnrecognizedShape, s, "type parameters under unhandled parent")
		return false
	}

	if start, end, ok := w.angleRange(s); ok {
		w.emit(FunctionGenericDefinition, start, end)
	}
	return false
}

func (w *walker) typeArguments(s site) bool {
	var kind Kind
	switch s.parent.Type() {
	case "call_expression", "new_expression", "instantiation_expression":
		kind = FunctionCallGeneric
	case "type_assertion":
		kind = AngleBracketAssertion
	case "jsx_self_closing_element", "jsx_opening_element":
		if !w.dialect.JSX {
			w.report(UnrecognizedShape, s, "jsx element outside the jsx dialect")
			return false
		}
		kind = TsxComponentGeneric
	default:
		w.report(UnrecognizedShape, s, "type arguments under unhandled parent")
		return false
	}

	if start, end, ok := w.angleRange(s); ok {
		w.emit(kind, start, end)
	}
	return false
}

// assertedType covers ` as T`, ` as const` and ` satisfies T`, including the
// whitespace that separates the keyword from the operand.
func (w *walker) assertedType(s site) bool {
	keyword := s.sibling(-1)
	if keyword == nil || s.node.IsMissing() || s.node.EndByte() <= s.node.StartByte() {
		w.report(MissingToken, s, "assertion without a type")
		return false
	}
	kind := AsAssertion
	if keyword.Type() == "satisfies" {
		kind = SatisfiesOperator
	}
	w.emit(kind, w.fullStartOf(keyword), int(s.node.EndByte()))
	return false
}

// declarationRange is the full range of a declaration, widened to an
// enclosing export statement whose declaration it is.
func (w *walker) declarationRange(parent *sitter.Node, node *sitter.Node) (int, int) {
	if parent != nil && parent.Type() == "export_statement" {
		return w.fullStartOf(parent), int(parent.EndByte())
	}
	return w.fullStartOf(node), int(node.EndByte())
}

func (w *walker) typeDeclaration(s site) bool {
	kind := TypeAlias
	if s.node.Type() == "interface_declaration" {
		kind = Interface
	}
	start, end := w.declarationRange(s.parent, s.node)
	w.emit(kind, start, end)
	return false
}

// signature hides a body-less function or method declaration as a whole.
func (w *walker) signature(s site) bool {
	w.overload(s.parent, s.node, s.sibling(1))
	return false
}

func (w *walker) overload(parent *sitter.Node, node *sitter.Node, next *sitter.Node) {
	start, end := w.declarationRange(parent, node)
	if node == parent {
		start, end = w.fullStartOf(node), int(node.EndByte())
	}
	if isToken(next, ";") {
		end = int(next.EndByte())
	}
	w.emit(FunctionOverload, start, end)
}

func (w *walker) ambient(s site) bool {
	start, end := w.declarationRange(s.parent, s.node)
	w.emit(DeclareStatement, start, end)
	return false
}

// declaration is opaque when declare-flagged and transparent otherwise.
func (w *walker) declaration(s site) bool {
	if !hasDeclareModifier(s.parent, s.node) {
		return true
	}
	start, end := w.declarationRange(s.parent, s.node)
	w.emit(DeclareStatement, start, end)
	return false
}

func hasDeclareModifier(parent *sitter.Node, node *sitter.Node) bool {
	if parent != nil && parent.Type() == "ambient_declaration" {
		return true
	}
	count := int(node.ChildCount())
	for i := 0; i < count; i++ {
		child := node.Child(i)
		if isToken(child, "declare") {
			return true
		}
		if child != nil && child.IsNamed() && child.Type() != "decorator" {
			break
		}
	}
	return false
}

// hasTypeKeyword reports whether node carries a bare `type` token among its
// leading children, before anything named appears.
func hasTypeKeyword(node *sitter.Node, skip string) bool {
	count := int(node.ChildCount())
	for i := 0; i < count; i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		if isToken(child, "type") {
			return true
		}
		if child.IsNamed() || !isToken(child, skip) {
			return false
		}
	}
	return false
}

func (w *walker) importStatement(s site) bool {
	if !hasTypeKeyword(s.node, "import") {
		return true
	}
	w.emit(TypeOnlyImportDeclaration, w.fullStartOf(s.node), int(s.node.EndByte()))
	return false
}

func (w *walker) exportStatement(s site) bool {
	if !hasTypeKeyword(s.node, "export") {
		return true
	}
	w.emit(TypeOnlyExportDeclaration, w.fullStartOf(s.node), int(s.node.EndByte()))
	return false
}

func (w *walker) typeSpecifier(s site, kind Kind) bool {
	if hasTypeKeyword(s.node, "") {
		w.emit(kind, w.fullStartOf(s.node), int(s.node.EndByte()))
	}
	return false
}
