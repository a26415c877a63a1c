package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"typehide/internal/typespan"
)

type outputFormat string

const (
	formatText outputFormat = "text"
	formatJSON outputFormat = "json"
	formatYAML outputFormat = "yaml"
)

func parseFormat(s string) (outputFormat, error) {
	switch f := outputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "", formatText:
		return formatText, nil
	case formatJSON, formatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format %q (use text, json or yaml)", s)
	}
}

// setColorMode applies --color: always, never or auto (colour only on a
// terminal without NO_COLOR).
func setColorMode(mode string) error {
	switch mode {
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	case "", "auto":
		color.NoColor = !term.IsTerminal(int(os.Stdout.Fd())) || os.Getenv("NO_COLOR") != ""
	default:
		return fmt.Errorf("invalid --color %q (use auto, always or never)", mode)
	}
	return nil
}

type reportStyles struct {
	path  *color.Color
	pos   *color.Color
	kind  *color.Color
	text  *color.Color
	count *color.Color
	err   *color.Color
}

func newStyles() *reportStyles {
	return &reportStyles{
		path:  color.New(color.Bold, color.FgHiWhite),
		pos:   color.New(color.FgHiBlack),
		kind:  color.New(color.FgCyan),
		text:  color.New(color.FgYellow),
		count: color.New(color.FgHiGreen),
		err:   color.New(color.FgRed),
	}
}

type spanReport struct {
	Kind   string `json:"kind" yaml:"kind"`
	Start  int    `json:"start" yaml:"start"`
	End    int    `json:"end" yaml:"end"`
	Line   int    `json:"line" yaml:"line"`
	Column int    `json:"column" yaml:"column"`
	Text   string `json:"text" yaml:"text"`
}

type fileReport struct {
	Path    string       `json:"path" yaml:"path"`
	Dialect string       `json:"dialect" yaml:"dialect"`
	Spans   []spanReport `json:"spans" yaml:"spans"`
	Error   string       `json:"error,omitempty" yaml:"error,omitempty"`
}

// newFileReport converts spans to report rows with 1-based line and column.
func newFileReport(path string, source string, dialect typespan.Dialect, spans []typespan.TypedSpan) fileReport {
	r := fileReport{Path: path, Dialect: dialect.String(), Spans: make([]spanReport, 0, len(spans))}
	if len(spans) == 0 {
		return r
	}
	li := typespan.NewLineIndex(source)
	for _, s := range spans {
		pos := li.Position(s.Range.Start)
		r.Spans = append(r.Spans, spanReport{
			Kind:   s.Kind.String(),
			Start:  s.Range.Start,
			End:    s.Range.End,
			Line:   pos.Line + 1,
			Column: pos.Column + 1,
			Text:   s.Text,
		})
	}
	return r
}

func writeStructured(w io.Writer, format outputFormat, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unsupported format %q", format)
}

func writeFileReports(w io.Writer, format outputFormat, reports []fileReport) error {
	if format != formatText {
		return writeStructured(w, format, reports)
	}

	s := newStyles()
	for i, r := range reports {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if r.Error != "" {
			fmt.Fprintf(w, "%s %s\n", s.path.Sprint(r.Path), s.err.Sprint(r.Error))
			continue
		}
		fmt.Fprintf(w, "%s %s\n", s.path.Sprint(r.Path), s.count.Sprintf("(%d spans)", len(r.Spans)))
		for _, sp := range r.Spans {
			loc := fmt.Sprintf("%d:%d", sp.Line, sp.Column)
			fmt.Fprintf(w, "  %s %s %s\n",
				s.pos.Sprint(runewidth.FillRight(loc, 8)),
				s.kind.Sprint(runewidth.FillRight(sp.Kind, 31)),
				s.text.Sprint(snippet(sp.Text, 60)))
		}
	}
	return nil
}

// snippet quotes text on one line and cuts it to width columns.
func snippet(text string, width int) string {
	q := strconv.Quote(text)
	if runewidth.StringWidth(q) <= width {
		return q
	}
	return runewidth.Truncate(q, width, "...")
}

type kindCount struct {
	Kind  string `json:"kind" yaml:"kind"`
	Count int    `json:"count" yaml:"count"`
}

// countKinds lists per-kind totals in kind order, skipping zeros.
func countKinds(counts map[typespan.Kind]int) []kindCount {
	out := make([]kindCount, 0, len(counts))
	for _, k := range typespan.Kinds() {
		if n := counts[k]; n > 0 {
			out = append(out, kindCount{Kind: k.String(), Count: n})
		}
	}
	return out
}
