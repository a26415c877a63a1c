package typespan

import (
	"fmt"
	"strings"
)

// Kind says why a span was classified as type-level.
type Kind int

const (
	KindInvalid Kind = iota
	TypeAlias
	Interface
	FunctionOverload
	FunctionReturn
	FunctionTypePredicate
	FunctionParameter
	FunctionGenericDefinition
	FunctionCallGeneric
	TsxComponentGeneric
	VariableTypeDefinition
	ClassPropertyTypeDefinition
	AngleBracketAssertion
	AsAssertion
	SatisfiesOperator
	DeclareStatement
	TypeOnlyImportDeclaration
	ImportTypeSpecifier
	TypeOnlyExportDeclaration
	ExportTypeSpecifier

	kindCount
)

var kindNames = [kindCount]string{
	KindInvalid:                 "invalid",
	TypeAlias:                   "type-alias",
	Interface:                   "interface",
	FunctionOverload:            "function-overload",
	FunctionReturn:              "function-return",
	FunctionTypePredicate:       "function-type-predicate",
	FunctionParameter:           "function-parameter",
	FunctionGenericDefinition:   "function-generic-definition",
	FunctionCallGeneric:         "function-call-generic",
	TsxComponentGeneric:         "tsx-component-generic",
	VariableTypeDefinition:      "variable-type-definition",
	ClassPropertyTypeDefinition: "class-property-type-definition",
	AngleBracketAssertion:       "angle-bracket-assertion",
	AsAssertion:                 "as-assertion",
	SatisfiesOperator:           "satisfies-operator",
	DeclareStatement:            "declare-statement",
	TypeOnlyImportDeclaration:   "type-only-import-declaration",
	ImportTypeSpecifier:         "import-type-specifier",
	TypeOnlyExportDeclaration:   "type-only-export-declaration",
	ExportTypeSpecifier:         "export-type-specifier",
}

var kindByName = func() map[string]Kind {
	m := make(map[string]Kind, kindCount)
	for k := TypeAlias; k < kindCount; k++ {
		m[kindNames[k]] = k
	}
	return m
}()

// Kinds returns every valid kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, kindCount-1)
	for k := TypeAlias; k < kindCount; k++ {
		out = append(out, k)
	}
	return out
}

func (k Kind) Valid() bool {
	return k > KindInvalid && k < kindCount
}

func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind maps a kebab-case kind name back to its Kind. Matching ignores
// case and surrounding whitespace; underscores are accepted for dashes.
func ParseKind(name string) (Kind, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
	if k, ok := kindByName[key]; ok {
		return k, nil
	}
	return KindInvalid, fmt.Errorf("unknown span kind %q", name)
}

// ParseKinds parses a list of kind names, failing on the first unknown one.
func ParseKinds(names []string) ([]Kind, error) {
	out := make([]Kind, 0, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		k, err := ParseKind(name)
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, nil
}

func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid span kind %d", int(k))
	}
	return []byte(kindNames[k]), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
