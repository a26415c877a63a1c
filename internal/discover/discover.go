package discover

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"

	"typehide/internal/lang"
)

type Config struct {
	Root         string
	Excludes     []string
	NoIgnore     bool
	ExcludeTests bool
}

// File is one TypeScript source found under the root.
type File struct {
	Path string
	Lang lang.ID
}

var ErrNoRG = errors.New("rg not found in PATH")

var testExcludeGlobs = []string{
	"test/**",
	"tests/**",
	"__tests__/**",
	"**/test/**",
	"**/tests/**",
	"**/__tests__/**",
	"*.test.*",
	"*.spec.*",
	"**/*.test.*",
	"**/*.spec.*",
}

// skipDirs are never descended into by the walk fallback.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
}

// Start streams every TypeScript file under cfg.Root. It prefers ripgrep so
// that ignore files are honoured the way rg does; without rg it walks the tree.
func Start(ctx context.Context, cfg Config) (<-chan File, <-chan error) {
	out := make(chan File, 1024)
	done := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(done)

		seen := make(map[string]struct{}, 1024)
		emit := func(path string) error {
			clean := filepath.Clean(path)
			id := lang.Detect(clean)
			if !id.Analyzable() {
				return nil
			}
			if _, ok := seen[clean]; ok {
				return nil
			}
			seen[clean] = struct{}{}

			select {
			case out <- File{Path: clean, Lang: id}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := runRGFiles(ctx, cfg.Root, rgArgs(cfg), emit)
		if errors.Is(err, ErrNoRG) {
			err = walkFiles(ctx, cfg, emit)
		}
		if err != nil {
			done <- fmt.Errorf("list typescript files: %w", err)
			return
		}
		done <- nil
	}()

	return out, done
}

// Collect drains Start into a slice.
func Collect(ctx context.Context, cfg Config) ([]File, error) {
	files, done := Start(ctx, cfg)
	var out []File
	for f := range files {
		out = append(out, f)
	}
	if err := <-done; err != nil {
		return nil, err
	}
	return out, nil
}

func runRGFiles(ctx context.Context, root string, args []string, onFile func(path string) error) error {
	if _, err := exec.LookPath("rg"); err != nil {
		return ErrNoRG
	}

	cmd := exec.CommandContext(ctx, "rg", args...)
	cmd.Dir = root

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("open rg stdout: %w", err)
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start rg: %w", err)
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	scanner.Split(splitNUL)

	for scanner.Scan() {
		rel := string(scanner.Bytes())
		if rel == "" {
			continue
		}
		if err := onFile(filepath.Join(root, rel)); err != nil {
			_ = cmd.Wait()
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read rg output: %w", err)
	}

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return nil
		}
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("rg failed: %s", msg)
		}
		return fmt.Errorf("rg failed: %w", err)
	}

	return nil
}

func splitNUL(data []byte, atEOF bool) (int, []byte, error) {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF && len(data) > 0 {
		return len(data), data, nil
	}
	return 0, nil, nil
}

func rgArgs(cfg Config) []string {
	args := []string{
		"--files",
		"--null",
		"--color", "never",
	}
	if cfg.NoIgnore {
		args = append(args, "--no-ignore")
	}
	for _, ext := range lang.Extensions() {
		args = append(args, "--glob", "*"+ext)
	}
	for _, glob := range cfg.Excludes {
		args = append(args, "--glob", "!"+glob)
	}
	if cfg.ExcludeTests {
		for _, glob := range testExcludeGlobs {
			args = append(args, "--glob", "!"+glob)
		}
	}
	args = append(args, ".")
	return args
}

// walkFiles is the fallback when rg is missing. It honours the root
// .gitignore and the exclude globs with gitignore semantics.
func walkFiles(ctx context.Context, cfg Config, onFile func(path string) error) error {
	root := cfg.Root
	if root == "" {
		root = "."
	}

	var lines []string
	if !cfg.NoIgnore {
		if data, err := os.ReadFile(filepath.Join(root, ".gitignore")); err == nil {
			lines = append(lines, strings.Split(string(data), "\n")...)
		}
	}
	lines = append(lines, cfg.Excludes...)
	if cfg.ExcludeTests {
		lines = append(lines, testExcludeGlobs...)
	}
	ignore := gitignore.CompileIgnoreLines(lines...)

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if skipDirs[d.Name()] || ignore.MatchesPath(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || ignore.MatchesPath(rel) {
			return nil
		}
		return onFile(path)
	})
}
