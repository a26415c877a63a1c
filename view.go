package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"typehide/internal/highlighter"
	"typehide/internal/lang"
	"typehide/internal/typespan"
)

var (
	viewEditorCmd string
	viewTheme     string
	viewJSX       bool
)

var viewCmd = &cobra.Command{
	Use:   "view <file>...",
	Short: "Browse files with type-level spans hidden",
	Long: `Opens a terminal viewer over the given files. Spans that do not contain the caret
are hidden and declarations longer than the fold threshold are collapsed. Press t to
flip the mode, / to edit the ignored kinds and o to open the caret position in an editor.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runView,
}

func init() {
	viewCmd.Flags().StringVar(&viewEditorCmd, "editor-cmd", "", "editor command template, e.g. 'nvim +{line} {file}'")
	viewCmd.Flags().StringVar(&viewTheme, "theme", "", "chroma style name (default from config)")
	viewCmd.Flags().BoolVar(&viewJSX, "jsx", false, "parse as TSX regardless of extension")
}

func runView(cmd *cobra.Command, args []string) error {
	if err := sess.cfg.Check(); err != nil {
		return err
	}
	theme := viewTheme
	if theme == "" {
		theme = sess.cfg.Theme
	}
	if err := SetTheme(theme); err != nil {
		return err
	}

	docs, err := loadViewDocs(args, viewJSX)
	if err != nil {
		return err
	}

	scr := newScreen()
	coord, err := sess.coordinator(scr)
	if err != nil {
		return err
	}
	defer coord.Close()

	for _, d := range docs {
		if _, err := coord.AnalyzeNow(d.document()); err != nil {
			return fmt.Errorf("%s: %w", d.rel, err)
		}
	}

	m := newModel(viewConfig{EditorCmd: viewEditorCmd, JSX: viewJSX}, coord, scr, highlighter.New(64), docs)
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func loadViewDocs(paths []string, forceJSX bool) ([]*viewDoc, error) {
	cwd, _ := os.Getwd()
	docs := make([]*viewDoc, 0, len(paths))
	for _, path := range paths {
		if path == "-" {
			return nil, fmt.Errorf("view reads files only, not stdin")
		}
		source, dialect, err := loadSource(nil, path, forceJSX)
		if err != nil {
			return nil, err
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, err
		}
		rel := path
		if cwd != "" {
			if r, err := filepath.Rel(cwd, abs); err == nil {
				rel = r
			}
		}

		id := lang.Detect(path)
		if !id.Analyzable() {
			id = lang.TypeScript
			if dialect == typespan.DialectTSX {
				id = lang.TSX
			}
		}
		d := &viewDoc{path: abs, rel: rel, lang: id, dialect: dialect}
		d.setText(source)
		docs = append(docs, d)
	}
	return docs, nil
}
