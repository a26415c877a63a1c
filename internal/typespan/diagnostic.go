package typespan

import (
	"context"
	"fmt"
	"log/slog"
)

// DiagnosticCode classifies a non-fatal analysis problem.
type DiagnosticCode string

const (
	// UnrecognizedShape: a candidate sits under a parent no rule handles.
	UnrecognizedShape DiagnosticCode = "unrecognized-shape"
	// MissingToken: a rule expected a sibling token the parser did not produce.
	MissingToken DiagnosticCode = "missing-token"
)

// Diagnostic reports one skipped candidate. It never affects the result.
type Diagnostic struct {
	Code   DiagnosticCode
	Node   string
	Parent string
	Range  SourceSpan
	Msg    string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s under %s at [%d,%d): %s", d.Code, d.Node, d.Parent, d.Range.Start, d.Range.End, d.Msg)
}

// DiagnosticSink receives diagnostics while an analysis runs.
type DiagnosticSink interface {
	Report(Diagnostic)
}

type DiagnosticFunc func(Diagnostic)

func (f DiagnosticFunc) Report(d Diagnostic) { f(d) }

type discardSink struct{}

func (discardSink) Report(Diagnostic) {}

// LogSink writes diagnostics to logger at debug level.
func LogSink(logger *slog.Logger) DiagnosticSink {
	if logger == nil {
		return discardSink{}
	}
	return DiagnosticFunc(func(d Diagnostic) {
		logger.LogAttrs(context.Background(), slog.LevelDebug, "type span skipped",
			slog.String("code", string(d.Code)),
			slog.String("node", d.Node),
			slog.String("parent", d.Parent),
			slog.Int("start", d.Range.Start),
			slog.Int("end", d.Range.End),
			slog.String("detail", d.Msg),
		)
	})
}

// Collector keeps every diagnostic it receives. Not safe for concurrent use.
type Collector struct {
	Diagnostics []Diagnostic
}

func (c *Collector) Report(d Diagnostic) {
	c.Diagnostics = append(c.Diagnostics, d)
}
