package discover

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"typehide/internal/lang"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func relPaths(t *testing.T, root string, paths []string) []string {
	t.Helper()
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		rel, err := filepath.Rel(root, p)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(rel))
	}
	sort.Strings(out)
	return out
}

func TestRGArgs(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		got := rgArgs(Config{})
		want := []string{
			"--files",
			"--null",
			"--color", "never",
			"--glob", "*.ts",
			"--glob", "*.mts",
			"--glob", "*.cts",
			"--glob", "*.tsx",
			".",
		}
		assert.Equal(t, want, got)
	})

	t.Run("flags", func(t *testing.T) {
		got := rgArgs(Config{NoIgnore: true, Excludes: []string{"dist/**"}, ExcludeTests: true})
		assert.Contains(t, got, "--no-ignore")
		assert.Contains(t, got, "!dist/**")
		assert.Contains(t, got, "!**/*.spec.*")
		assert.Equal(t, ".", got[len(got)-1])
	})
}

func TestSplitNUL(t *testing.T) {
	adv, tok, err := splitNUL([]byte("a.ts\x00b.ts"), false)
	require.NoError(t, err)
	assert.Equal(t, 5, adv)
	assert.Equal(t, []byte("a.ts"), tok)

	adv, tok, err = splitNUL([]byte("b.ts"), true)
	require.NoError(t, err)
	assert.Equal(t, 4, adv)
	assert.Equal(t, []byte("b.ts"), tok)

	adv, _, _ = splitNUL([]byte("partial"), false)
	assert.Zero(t, adv)
}

func TestWalkFilesHonoursIgnores(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		".gitignore":              "generated/\n",
		"src/a.ts":                "type A = 1",
		"src/b.tsx":               "const b = <B />",
		"src/c.js":                "const c = 1",
		"src/a.spec.ts":           "it()",
		"generated/x.ts":          "type X = 1",
		"node_modules/pkg/y.d.ts": "declare const y: 1",
		"dist/out.ts":             "type O = 1",
	})

	var got []string
	err := walkFiles(context.Background(), Config{
		Root:         root,
		Excludes:     []string{"dist/"},
		ExcludeTests: true,
	}, func(path string) error {
		if lang.Detect(path).Analyzable() {
			got = append(got, path)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/a.ts", "src/b.tsx"}, relPaths(t, root, got))
}

func TestCollect(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.ts":      "type A = 1",
		"lib/b.mts": "type B = 1",
		"README.md": "# readme",
	})

	files, err := Collect(context.Background(), Config{Root: root})
	require.NoError(t, err)

	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path)
		assert.Equal(t, lang.TypeScript, f.Lang)
	}
	assert.Equal(t, []string{"a.ts", "lib/b.mts"}, relPaths(t, root, paths))
}
