package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"typehide/internal/discover"
	"typehide/internal/lang"
	"typehide/internal/readfile"
	"typehide/internal/typespan"
	"typehide/internal/visibility"
	"typehide/internal/watch"
)

var (
	watchFormat   string
	watchDebounce time.Duration
	watchInitial  bool
	watchColor    string
)

var watchCmd = &cobra.Command{
	Use:   "watch [root]",
	Short: "Re-analyze TypeScript files as they change",
	Long: `Watches root (default: current directory) recursively and prints one line per
changed TypeScript file with its span counts. node_modules, .git and build output
directories are not watched.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchFormat, "format", "f", "text", "output format: text or json (one object per line)")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "quiet period before a change is analyzed")
	watchCmd.Flags().BoolVar(&watchInitial, "initial", true, "analyze every file once at start")
	watchCmd.Flags().StringVar(&watchColor, "color", "auto", "colour text output: auto, always or never")
}

type watchEvent struct {
	Path    string      `json:"path"`
	Version int         `json:"version"`
	Removed bool        `json:"removed,omitempty"`
	Spans   int         `json:"spans"`
	Kinds   []kindCount `json:"kinds,omitempty"`
}

// versionBook hands out increasing document versions per path.
type versionBook struct {
	mu   sync.Mutex
	next map[string]int
}

func (b *versionBook) bump(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.next == nil {
		b.next = make(map[string]int)
	}
	b.next[path]++
	return b.next[path]
}

// eventPrinter serialises output from the coordinator workers.
type eventPrinter struct {
	mu     sync.Mutex
	w      io.Writer
	format outputFormat
	root   string
	st     *reportStyles
}

func (p *eventPrinter) print(ev watchEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if rel, err := filepath.Rel(p.root, ev.Path); err == nil {
		ev.Path = filepath.ToSlash(rel)
	}
	if p.format == formatJSON {
		_ = json.NewEncoder(p.w).Encode(ev)
		return
	}
	if ev.Removed {
		fmt.Fprintf(p.w, "%s %s\n", p.st.path.Sprint(ev.Path), p.st.pos.Sprint("removed"))
		return
	}
	parts := make([]string, 0, len(ev.Kinds))
	for _, k := range ev.Kinds {
		parts = append(parts, fmt.Sprintf("%s=%d", k.Kind, k.Count))
	}
	fmt.Fprintf(p.w, "%s %s %s %s\n",
		p.st.path.Sprint(ev.Path),
		p.st.pos.Sprintf("v%d", ev.Version),
		p.st.count.Sprintf("%d spans", ev.Spans),
		p.st.kind.Sprint(strings.Join(parts, " ")))
}

func summarize(path string, version int, spans []typespan.TypedSpan) watchEvent {
	counts := make(map[typespan.Kind]int)
	for _, s := range spans {
		counts[s.Kind]++
	}
	return watchEvent{Path: path, Version: version, Spans: len(spans), Kinds: countKinds(counts)}
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := sess.cfg.Check(); err != nil {
		return err
	}
	format, err := parseFormat(watchFormat)
	if err != nil {
		return err
	}
	if format == formatYAML {
		return fmt.Errorf("watch supports text or json output")
	}
	if err := setColorMode(watchColor); err != nil {
		return err
	}

	root := "."
	if len(args) == 1 {
		root = args[0]
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve root: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	printer := &eventPrinter{w: cmd.OutOrStdout(), format: format, root: absRoot, st: newStyles()}
	versions := &versionBook{}

	coord, err := sess.coordinator(nil, visibility.WithNotify(func(doc visibility.Document, spans []typespan.TypedSpan) {
		printer.print(summarize(doc.URI, doc.Version, spans))
	}))
	if err != nil {
		return err
	}
	defer coord.Close()

	submit := func(path string) {
		source, err := readfile.ReadSource(path)
		if err != nil {
			sess.logger.Warn("read changed file", "path", path, "err", err)
			return
		}
		doc := visibility.Document{
			URI:     path,
			Version: versions.bump(path),
			Text:    source,
			Dialect: lang.Detect(path).Dialect(),
		}
		if coord.Update(doc) {
			return
		}
		// queue full: analyze on this goroutine instead of dropping the change
		spans, err := coord.AnalyzeNow(doc)
		if err != nil {
			sess.logger.Debug("analysis dropped", "path", path, "err", err)
			return
		}
		printer.print(summarize(path, doc.Version, spans))
	}

	w, err := watch.New(absRoot, watch.WithDebounce(watchDebounce), watch.WithLogger(sess.logger))
	if err != nil {
		return fmt.Errorf("watch %s: %w", absRoot, err)
	}

	if watchInitial {
		files, err := discover.Collect(ctx, discover.Config{Root: absRoot, Excludes: sess.cfg.Excludes})
		if err != nil {
			_ = w.Close()
			return err
		}
		for _, f := range files {
			submit(f.Path)
		}
	}

	sess.logger.Info("watching", "root", absRoot)
	err = w.Run(ctx, func(ev watch.Event) {
		if ev.Removed {
			coord.Forget(ev.Path)
			printer.print(watchEvent{Path: ev.Path, Removed: true})
			return
		}
		submit(ev.Path)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
