package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"typehide/internal/lang"
	"typehide/internal/readfile"
	"typehide/internal/typespan"
)

var (
	analyzeFormat string
	analyzeJSX    bool
	analyzeKinds  []string
	analyzeColor  string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>...",
	Short: "List the type-level spans of TypeScript files",
	Long: `Prints every span that typehide would hide, with its kind, byte range and
position. Use - to read a single source from stdin.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeFormat, "format", "f", "text", "output format: text, json or yaml")
	analyzeCmd.Flags().BoolVar(&analyzeJSX, "jsx", false, "parse as TSX regardless of extension")
	analyzeCmd.Flags().StringSliceVarP(&analyzeKinds, "kind", "k", nil, "only report these kinds (repeatable, comma separated)")
	analyzeCmd.Flags().StringVar(&analyzeColor, "color", "auto", "colour text output: auto, always or never")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if err := sess.cfg.Check(); err != nil {
		return err
	}
	format, err := parseFormat(analyzeFormat)
	if err != nil {
		return err
	}
	if err := setColorMode(analyzeColor); err != nil {
		return err
	}
	only, err := typespan.ParseKinds(analyzeKinds)
	if err != nil {
		return err
	}

	analyzer := typespan.NewAnalyzer(sess.analyzerOptions()...)
	defer analyzer.Close()

	reports := make([]fileReport, 0, len(args))
	failed := 0
	for _, path := range args {
		source, dialect, err := loadSource(cmd.InOrStdin(), path, analyzeJSX)
		if err != nil {
			sess.logger.Warn("skip file", "path", path, "err", err)
			reports = append(reports, fileReport{Path: path, Error: err.Error()})
			failed++
			continue
		}
		spans := filterKinds(analyzer.Analyze(source, dialect), only)
		sess.logger.Debug("analyzed", "path", path, "dialect", dialect, "spans", len(spans))
		reports = append(reports, newFileReport(path, source, dialect, spans))
	}

	if err := writeFileReports(cmd.OutOrStdout(), format, reports); err != nil {
		return err
	}
	if failed == len(args) {
		return fmt.Errorf("no file could be analyzed")
	}
	return nil
}

// loadSource reads path (or stdin for "-") and picks its dialect. Files that
// are not TypeScript are rejected unless forceJSX is set.
func loadSource(stdin io.Reader, path string, forceJSX bool) (string, typespan.Dialect, error) {
	dialect := typespan.DialectTS
	if forceJSX {
		dialect = typespan.DialectTSX
	}

	if path == "-" {
		data, err := io.ReadAll(io.LimitReader(stdin, readfile.MaxSourceBytes+1))
		if err != nil {
			return "", dialect, err
		}
		if len(data) > readfile.MaxSourceBytes {
			return "", dialect, fmt.Errorf("stdin: %w", readfile.ErrTooLarge)
		}
		return string(data), dialect, nil
	}

	source, err := readfile.ReadSource(path)
	if err != nil {
		return "", dialect, err
	}
	if forceJSX {
		return source, dialect, nil
	}

	firstLine, _, _ := strings.Cut(source, "\n")
	id := lang.DetectWithShebang(path, firstLine)
	if !id.Analyzable() {
		return "", dialect, fmt.Errorf("%s: not a TypeScript file", path)
	}
	return source, id.Dialect(), nil
}

func filterKinds(spans []typespan.TypedSpan, only []typespan.Kind) []typespan.TypedSpan {
	if len(only) == 0 {
		return spans
	}
	keep := make(map[typespan.Kind]bool, len(only))
	for _, k := range only {
		keep[k] = true
	}
	out := spans[:0:0]
	for _, s := range spans {
		if keep[s.Kind] {
			out = append(out, s)
		}
	}
	return out
}
