package lang

import (
	"path/filepath"
	"strings"

	"typehide/internal/typespan"
)

type ID string

const (
	Plain      ID = "plain"
	JavaScript ID = "javascript"
	TypeScript ID = "typescript"
	TSX        ID = "tsx"
)

var extMap = map[string]ID{
	".ts":  TypeScript,
	".mts": TypeScript,
	".cts": TypeScript,
	".tsx": TSX,

	".js":  JavaScript,
	".jsx": JavaScript,
	".mjs": JavaScript,
	".cjs": JavaScript,
}

// Extensions lists the file extensions Analyzable accepts.
func Extensions() []string {
	return []string{".ts", ".mts", ".cts", ".tsx"}
}

func Detect(path string) ID {
	ext := strings.ToLower(filepath.Ext(filepath.Base(path)))
	if id, ok := extMap[ext]; ok {
		return id
	}
	return Plain
}

func DetectWithShebang(path string, firstLine string) ID {
	if id := Detect(path); id != Plain {
		return id
	}

	if !strings.HasPrefix(firstLine, "#!") {
		return Plain
	}
	lower := strings.ToLower(firstLine)
	switch {
	case strings.Contains(lower, "ts-node"), strings.Contains(lower, "tsx"), strings.Contains(lower, "deno"):
		return TypeScript
	case strings.Contains(lower, "node"):
		return JavaScript
	default:
		return Plain
	}
}

// Analyzable reports whether id carries TypeScript type syntax.
func (id ID) Analyzable() bool {
	return id == TypeScript || id == TSX
}

// Dialect picks the grammar for id. Only TSX enables JSX.
func (id ID) Dialect() typespan.Dialect {
	if id == TSX {
		return typespan.DialectTSX
	}
	return typespan.DialectTS
}
