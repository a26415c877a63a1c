// Package visibility decides what an editor hides. A Coordinator caches the
// analysis of every open document, owns the hidden/shown mode and turns spans
// into decorations and folds for an Editor.
package visibility

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"typehide/internal/typespan"
)

var (
	ErrUnknownDocument = errors.New("document has not been analyzed")
	ErrClosed          = errors.New("coordinator is closed")
)

type Config struct {
	CacheSize     int
	Workers       int
	FoldThreshold int
	Hidden        bool
	Ignored       []typespan.Kind
}

// Document is one snapshot of an editor buffer. Versions increase with every
// edit; a result for an older version never replaces a newer one.
type Document struct {
	URI     string
	Version int
	Text    string
	Dialect typespan.Dialect
}

type Option func(*Coordinator)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithModeStore loads the persisted mode and ignored kinds at construction
// and saves every later change.
func WithModeStore(store ModeStore) Option {
	return func(c *Coordinator) { c.store = store }
}

// WithNotify registers fn to run, on a worker goroutine, after a queued
// analysis is stored.
func WithNotify(fn func(doc Document, spans []typespan.TypedSpan)) Option {
	return func(c *Coordinator) { c.notify = fn }
}

type pendingKey struct {
	uri     string
	version int
}

type Coordinator struct {
	cfg    Config
	editor Editor
	store  ModeStore
	logger *slog.Logger
	notify func(doc Document, spans []typespan.TypedSpan)

	cache *docLRU
	tasks chan Document
	wg    sync.WaitGroup

	pendingMu sync.Mutex
	pending   map[pendingKey]struct{}

	// inline analysis for AnalyzeNow
	inlineMu sync.Mutex
	inline   *typespan.Analyzer

	mu      sync.Mutex
	hidden  bool
	ignored map[typespan.Kind]bool
	folds   map[string][]LineRange
	closed  bool
}

func New(cfg Config, editor Editor, opts ...Option) *Coordinator {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	c := &Coordinator{
		cfg:     cfg,
		editor:  editor,
		logger:  slog.New(slog.DiscardHandler),
		cache:   newDocLRU(cfg.CacheSize),
		tasks:   make(chan Document, cfg.Workers*64),
		pending: make(map[pendingKey]struct{}),
		hidden:  cfg.Hidden,
		ignored: kindSet(cfg.Ignored),
		folds:   make(map[string][]LineRange),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.inline = c.newAnalyzer()
	c.restore()

	for i := 0; i < cfg.Workers; i++ {
		c.wg.Add(1)
		go c.worker()
	}
	return c
}

func (c *Coordinator) newAnalyzer() *typespan.Analyzer {
	return typespan.NewAnalyzer(typespan.WithDiagnostics(typespan.LogSink(c.logger)))
}

func (c *Coordinator) restore() {
	if c.store == nil {
		return
	}
	if hidden, ok, err := c.store.LoadHidden(); err != nil {
		c.logger.Warn("load hidden mode", "err", err)
	} else if ok {
		c.hidden = hidden
	}
	if kinds, err := c.store.LoadIgnored(); err != nil {
		c.logger.Warn("load ignored kinds", "err", err)
	} else if kinds != nil {
		c.ignored = kindSet(kinds)
	}
}

// Update queues doc for analysis. It reports false when the document is
// already queued at this version or the queue is full.
func (c *Coordinator) Update(doc Document) bool {
	key := pendingKey{uri: doc.URI, version: doc.Version}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}

	c.pendingMu.Lock()
	if _, ok := c.pending[key]; ok {
		c.pendingMu.Unlock()
		return false
	}
	c.pending[key] = struct{}{}
	c.pendingMu.Unlock()

	select {
	case c.tasks <- doc:
		return true
	default:
		c.pendingMu.Lock()
		delete(c.pending, key)
		c.pendingMu.Unlock()
		c.logger.Debug("analysis queue full", "uri", doc.URI, "version", doc.Version)
		return false
	}
}

func (c *Coordinator) worker() {
	defer c.wg.Done()

	analyzer := c.newAnalyzer()
	defer analyzer.Close()

	for doc := range c.tasks {
		spans := analyzer.Analyze(doc.Text, doc.Dialect)
		kept := c.keep(doc, spans)

		c.pendingMu.Lock()
		delete(c.pending, pendingKey{uri: doc.URI, version: doc.Version})
		c.pendingMu.Unlock()

		if kept && c.notify != nil {
			c.notify(doc, spans)
		}
	}
}

func (c *Coordinator) keep(doc Document, spans []typespan.TypedSpan) bool {
	kept := c.cache.Store(entry{
		URI:     doc.URI,
		Version: doc.Version,
		Text:    doc.Text,
		Dialect: doc.Dialect,
		Spans:   spans,
	})
	if !kept {
		c.logger.Debug("stale analysis dropped", "uri", doc.URI, "version", doc.Version)
	} else {
		c.logger.Debug("document analyzed", "uri", doc.URI, "version", doc.Version, "spans", len(spans))
	}
	return kept
}

// AnalyzeNow analyzes doc on the calling goroutine and stores the result.
func (c *Coordinator) AnalyzeNow(doc Document) ([]typespan.TypedSpan, error) {
	c.inlineMu.Lock()
	if c.inline == nil {
		c.inlineMu.Unlock()
		return nil, ErrClosed
	}
	spans := c.inline.Analyze(doc.Text, doc.Dialect)
	c.inlineMu.Unlock()

	if !c.keep(doc, spans) {
		cur, _ := c.cache.Get(doc.URI)
		return nil, fmt.Errorf("%s: version %d is older than %d", doc.URI, doc.Version, cur.Version)
	}
	return spans, nil
}

// Spans returns the last stored analysis of uri.
func (c *Coordinator) Spans(uri string) ([]typespan.TypedSpan, bool) {
	e, ok := c.cache.Get(uri)
	if !ok {
		return nil, false
	}
	return e.Spans, true
}

// Forget drops uri from the cache and clears what the editor shows for it.
func (c *Coordinator) Forget(uri string) {
	c.cache.Delete(uri)

	c.mu.Lock()
	folds := c.folds[uri]
	delete(c.folds, uri)
	c.mu.Unlock()

	if c.editor == nil {
		return
	}
	for _, r := range folds {
		c.editor.Unfold(uri, r)
	}
	c.editor.ClearDecorations(uri)
}

func (c *Coordinator) Hidden() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hidden
}

func (c *Coordinator) SetHidden(hidden bool) {
	c.mu.Lock()
	c.hidden = hidden
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.SaveHidden(hidden); err != nil {
			c.logger.Warn("save hidden mode", "err", err)
		}
	}
}

// Toggle flips the mode and returns the new one.
func (c *Coordinator) Toggle() bool {
	c.mu.Lock()
	c.hidden = !c.hidden
	hidden := c.hidden
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.SaveHidden(hidden); err != nil {
			c.logger.Warn("save hidden mode", "err", err)
		}
	}
	return hidden
}

// Ignored returns the ignored kinds in declaration order.
func (c *Coordinator) Ignored() []typespan.Kind {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]typespan.Kind, 0, len(c.ignored))
	for k := range c.ignored {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (c *Coordinator) SetIgnored(kinds []typespan.Kind) {
	c.mu.Lock()
	c.ignored = kindSet(kinds)
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.SaveIgnored(kinds); err != nil {
			c.logger.Warn("save ignored kinds", "err", err)
		}
	}
}

// Plan computes decorations and folds for spans with the current ignored
// kinds and fold threshold.
func (c *Coordinator) Plan(spans []typespan.TypedSpan, text string, caret int) Plan {
	c.mu.Lock()
	ignored := c.ignored
	c.mu.Unlock()

	return Compute(spans, text, PlanOptions{
		Caret:         caret,
		Ignored:       ignored,
		FoldThreshold: c.cfg.FoldThreshold,
	})
}

// NoCaret is the caret offset for a document without a caret. Apply then
// hides every span that is not of an ignored kind.
const NoCaret = -1

// Apply brings the editor in line with the mode for uri. When hidden it sets
// decorations and folds the long spans, keeping any span that touches the
// byte offset caret visible; pass NoCaret when there is none. When shown it
// clears decorations and reverses every fold it made.
func (c *Coordinator) Apply(uri string, caret int) error {
	e, ok := c.cache.Get(uri)
	if !ok {
		return fmt.Errorf("%s: %w", uri, ErrUnknownDocument)
	}
	if c.editor == nil {
		return nil
	}

	if !c.Hidden() {
		c.mu.Lock()
		folds := c.folds[uri]
		delete(c.folds, uri)
		c.mu.Unlock()

		c.editor.ClearDecorations(uri)
		for _, r := range folds {
			c.editor.Unfold(uri, r)
		}
		return nil
	}

	p := c.Plan(e.Spans, e.Text, caret)
	c.editor.SetDecorations(uri, p.Decorations)

	c.mu.Lock()
	previous := c.folds[uri]
	c.folds[uri] = p.Folds
	c.mu.Unlock()

	want := make(map[LineRange]bool, len(p.Folds))
	for _, r := range p.Folds {
		want[r] = true
	}
	had := make(map[LineRange]bool, len(previous))
	for _, r := range previous {
		had[r] = true
		if !want[r] {
			c.editor.Unfold(uri, r)
		}
	}
	for _, r := range p.Folds {
		if !had[r] {
			c.editor.Fold(uri, r)
		}
	}
	return nil
}

// Close stops the workers after the queue drains.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	close(c.tasks)
	c.wg.Wait()

	c.inlineMu.Lock()
	c.inline.Close()
	c.inline = nil
	c.inlineMu.Unlock()
}

func kindSet(kinds []typespan.Kind) map[typespan.Kind]bool {
	set := make(map[typespan.Kind]bool, len(kinds))
	for _, k := range kinds {
		set[k] = true
	}
	return set
}
