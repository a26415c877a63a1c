package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"typehide/internal/discover"
	"typehide/internal/readfile"
	"typehide/internal/typespan"
)

var (
	scanFormat       string
	scanNoIgnore     bool
	scanExcludeTests bool
	scanExcludes     []string
	scanNoCache      bool
	scanFiles        bool
	scanColor        string
)

var scanCmd = &cobra.Command{
	Use:   "scan [root]",
	Short: "Count type-level spans across a project",
	Long: `Finds every TypeScript file under root (default: current directory), analyzes
them in parallel and prints span counts per kind. Results are cached by file size and
modification time so unchanged files are not analyzed again.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVarP(&scanFormat, "format", "f", "text", "output format: text, json or yaml")
	scanCmd.Flags().BoolVar(&scanNoIgnore, "no-ignore", false, "do not honour .gitignore and friends")
	scanCmd.Flags().BoolVar(&scanExcludeTests, "exclude-tests", false, "skip test directories and *.test.* / *.spec.* files")
	scanCmd.Flags().StringSliceVar(&scanExcludes, "exclude", nil, "glob to skip (repeatable, added to config excludes)")
	scanCmd.Flags().BoolVar(&scanNoCache, "no-cache", false, "analyze every file and do not write the cache")
	scanCmd.Flags().BoolVar(&scanFiles, "files", false, "also list per-file totals")
	scanCmd.Flags().StringVar(&scanColor, "color", "auto", "colour text output: auto, always or never")
}

type scanFileResult struct {
	Path  string `json:"path" yaml:"path"`
	Spans int    `json:"spans" yaml:"spans"`
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

type scanSummary struct {
	Root     string           `json:"root" yaml:"root"`
	Files    int              `json:"files" yaml:"files"`
	Analyzed int              `json:"analyzed" yaml:"analyzed"`
	Cached   int              `json:"cached" yaml:"cached"`
	Failed   int              `json:"failed" yaml:"failed"`
	Spans    int              `json:"spans" yaml:"spans"`
	Kinds    []kindCount      `json:"kinds" yaml:"kinds"`
	PerFile  []scanFileResult `json:"per_file,omitempty" yaml:"per_file,omitempty"`
}

func runScan(cmd *cobra.Command, args []string) error {
	if err := sess.cfg.Check(); err != nil {
		return err
	}
	format, err := parseFormat(scanFormat)
	if err != nil {
		return err
	}
	if err := setColorMode(scanColor); err != nil {
		return err
	}
	ignored, err := sess.cfg.IgnoredKinds()
	if err != nil {
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

	dcfg := discover.Config{
		Root:         absRoot,
		Excludes:     append(append([]string(nil), sess.cfg.Excludes...), scanExcludes...),
		NoIgnore:     scanNoIgnore,
		ExcludeTests: scanExcludeTests,
	}
	key := scanKey{cfg: dcfg, ignored: ignored}

	var cached map[string]scanEntry
	if !scanNoCache {
		var ok bool
		cached, ok, err = LoadScanCache(key)
		if err != nil {
			sess.logger.Warn("scan cache unavailable", "err", err)
		} else if ok {
			sess.logger.Debug("scan cache loaded", "files", len(cached))
		}
	}

	summary, entries, err := scanTree(cmd.Context(), dcfg, ignored, cached, sess.cfg.Workers)
	if err != nil {
		return err
	}
	if !scanFiles {
		summary.PerFile = nil
	}

	if !scanNoCache {
		if err := SaveScanCache(key, entries); err != nil {
			sess.logger.Warn("save scan cache", "err", err)
		}
	}

	if format != formatText {
		return writeStructured(cmd.OutOrStdout(), format, summary)
	}
	writeScanText(cmd.OutOrStdout(), summary)
	return nil
}

// scanTree analyzes every discovered file on a pool of workers, reusing the
// cached counts of files whose stamp has not changed.
func scanTree(ctx context.Context, dcfg discover.Config, ignored []typespan.Kind, cached map[string]scanEntry, workers int) (scanSummary, map[string]scanEntry, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if workers < 1 {
		workers = 1
	}
	skip := make(map[typespan.Kind]bool, len(ignored))
	for _, k := range ignored {
		skip[k] = true
	}

	files, done := discover.Start(ctx, dcfg)

	var mu sync.Mutex
	summary := scanSummary{Root: dcfg.Root}
	totals := make(map[typespan.Kind]int)
	entries := make(map[string]scanEntry)

	record := func(rel string, e scanEntry, fromCache bool) {
		n := 0
		for k, c := range e.Counts {
			totals[k] += c
			n += c
		}
		summary.Files++
		summary.Spans += n
		if fromCache {
			summary.Cached++
		} else {
			summary.Analyzed++
		}
		entries[rel] = e
		summary.PerFile = append(summary.PerFile, scanFileResult{Path: rel, Spans: n})
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			analyzer := typespan.NewAnalyzer(sess.analyzerOptions()...)
			defer analyzer.Close()

			for f := range files {
				if err := gctx.Err(); err != nil {
					return err
				}
				rel, err := filepath.Rel(dcfg.Root, f.Path)
				if err != nil {
					rel = f.Path
				}
				rel = filepath.ToSlash(rel)

				info, err := os.Stat(f.Path)
				if err != nil {
					fail(&mu, &summary, rel, err)
					continue
				}
				stamp := stampOf(info)

				if prev, ok := cached[rel]; ok && prev.Stamp.same(stamp) {
					mu.Lock()
					record(rel, prev, true)
					mu.Unlock()
					continue
				}

				source, err := readfile.ReadSource(f.Path)
				if err != nil {
					fail(&mu, &summary, rel, err)
					continue
				}
				counts := make(map[typespan.Kind]int)
				for _, s := range analyzer.Analyze(source, f.Lang.Dialect()) {
					if !skip[s.Kind] {
						counts[s.Kind]++
					}
				}

				mu.Lock()
				record(rel, scanEntry{Stamp: stamp, Counts: counts}, false)
				mu.Unlock()
			}
			return nil
		})
	}

	werr := g.Wait()
	// drain so the producer can exit if a worker stopped early
	for range files {
	}
	if err := <-done; err != nil {
		return summary, entries, err
	}
	if werr != nil {
		return summary, entries, werr
	}

	summary.Kinds = countKinds(totals)
	sort.Slice(summary.PerFile, func(i, j int) bool { return summary.PerFile[i].Path < summary.PerFile[j].Path })
	return summary, entries, nil
}

func fail(mu *sync.Mutex, summary *scanSummary, rel string, err error) {
	sess.logger.Warn("skip file", "path", rel, "err", err)
	mu.Lock()
	defer mu.Unlock()
	summary.Files++
	summary.Failed++
	summary.PerFile = append(summary.PerFile, scanFileResult{Path: rel, Error: err.Error()})
}

func writeScanText(w io.Writer, s scanSummary) {
	st := newStyles()
	fmt.Fprintf(w, "%s %s\n", st.path.Sprint(s.Root), st.count.Sprintf("%d spans in %d files", s.Spans, s.Files))
	fmt.Fprintf(w, "  %s\n", st.pos.Sprintf("analyzed %d, cached %d, failed %d", s.Analyzed, s.Cached, s.Failed))
	for _, k := range s.Kinds {
		fmt.Fprintf(w, "  %s %d\n", st.kind.Sprint(runewidth.FillRight(k.Kind, 31)), k.Count)
	}
	if len(s.PerFile) == 0 {
		return
	}
	fmt.Fprintln(w)
	for _, f := range s.PerFile {
		if f.Error != "" {
			fmt.Fprintf(w, "  %s %s\n", f.Path, st.err.Sprint(f.Error))
			continue
		}
		fmt.Fprintf(w, "  %s %d\n", f.Path, f.Spans)
	}
}
