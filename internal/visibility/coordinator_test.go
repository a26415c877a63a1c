package visibility

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"typehide/internal/typespan"
)

type fakeEditor struct {
	mu          sync.Mutex
	decorations map[string][]Decoration
	folded      map[string]map[LineRange]bool
	calls       []string
}

func newFakeEditor() *fakeEditor {
	return &fakeEditor{
		decorations: make(map[string][]Decoration),
		folded:      make(map[string]map[LineRange]bool),
	}
}

func (e *fakeEditor) SetDecorations(uri string, d []Decoration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.decorations[uri] = d
	e.calls = append(e.calls, "set "+uri)
}

func (e *fakeEditor) ClearDecorations(uri string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.decorations, uri)
	e.calls = append(e.calls, "clear "+uri)
}

func (e *fakeEditor) Fold(uri string, r LineRange) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.folded[uri] == nil {
		e.folded[uri] = make(map[LineRange]bool)
	}
	e.folded[uri][r] = true
	e.calls = append(e.calls, fmt.Sprintf("fold %s %d-%d", uri, r.Start, r.End))
}

func (e *fakeEditor) Unfold(uri string, r LineRange) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.folded[uri], r)
	e.calls = append(e.calls, fmt.Sprintf("unfold %s %d-%d", uri, r.Start, r.End))
}

type memStore struct {
	hidden    *bool
	ignored   []typespan.Kind
	failSaves bool
}

func (m *memStore) LoadHidden() (bool, bool, error) {
	if m.hidden == nil {
		return false, false, nil
	}
	return *m.hidden, true, nil
}

func (m *memStore) SaveHidden(h bool) error {
	if m.failSaves {
		return errors.New("disk full")
	}
	m.hidden = &h
	return nil
}

func (m *memStore) LoadIgnored() ([]typespan.Kind, error) { return m.ignored, nil }

func (m *memStore) SaveIgnored(kinds []typespan.Kind) error {
	m.ignored = kinds
	return nil
}

const sample = "interface Point {\n  x: number\n  y: number\n}\nconst p: Point = { x: 1, y: 2 } as Point;\n"

func TestAnalyzeNowAndApply(t *testing.T) {
	ed := newFakeEditor()
	c := New(Config{CacheSize: 4, FoldThreshold: 2, Hidden: true}, ed)
	defer c.Close()

	spans, err := c.AnalyzeNow(Document{URI: "a.ts", Version: 1, Text: sample})
	require.NoError(t, err)
	require.Len(t, spans, 3)

	require.NoError(t, c.Apply("a.ts", NoCaret))
	assert.Len(t, ed.decorations["a.ts"], 3)
	assert.True(t, ed.folded["a.ts"][LineRange{Start: 0, End: 3}])

	require.NoError(t, c.Apply("a.ts", NoCaret))
	assert.Equal(t, 1, countPrefix(ed.calls, "fold a.ts"), "an existing fold is not requested again")

	c.SetHidden(false)
	require.NoError(t, c.Apply("a.ts", NoCaret))
	assert.Empty(t, ed.decorations["a.ts"])
	assert.Empty(t, ed.folded["a.ts"])
}

func TestApplyReleasesFoldUnderCaret(t *testing.T) {
	ed := newFakeEditor()
	c := New(Config{FoldThreshold: 2, Hidden: true}, ed)
	defer c.Close()

	_, err := c.AnalyzeNow(Document{URI: "a.ts", Version: 1, Text: sample})
	require.NoError(t, err)

	require.NoError(t, c.Apply("a.ts", NoCaret))
	require.True(t, ed.folded["a.ts"][LineRange{Start: 0, End: 3}])

	require.NoError(t, c.Apply("a.ts", 5))
	assert.False(t, ed.folded["a.ts"][LineRange{Start: 0, End: 3}])
	assert.Len(t, ed.decorations["a.ts"], 2)
}

func TestApplyWithoutCaretHidesEverything(t *testing.T) {
	ed := newFakeEditor()
	c := New(Config{Hidden: true}, ed)
	defer c.Close()

	_, err := c.AnalyzeNow(Document{URI: "a.ts", Version: 1, Text: sample})
	require.NoError(t, err)

	// offset 0 is inside the interface
	require.NoError(t, c.Apply("a.ts", 0))
	assert.Len(t, ed.decorations["a.ts"], 2)

	require.NoError(t, c.Apply("a.ts", NoCaret))
	assert.Len(t, ed.decorations["a.ts"], 3)
}

func TestConcurrentTogglesAreNotLost(t *testing.T) {
	c := New(Config{Hidden: true}, nil)
	defer c.Close()

	const n = 64
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Toggle()
		}()
	}
	wg.Wait()
	assert.True(t, c.Hidden(), "an even number of flips returns to the start")

	c.Toggle()
	assert.False(t, c.Hidden())
}

func TestApplyUnknownDocument(t *testing.T) {
	c := New(Config{}, newFakeEditor())
	defer c.Close()

	assert.ErrorIs(t, c.Apply("missing.ts", 0), ErrUnknownDocument)
}

func TestStaleVersionIsDropped(t *testing.T) {
	c := New(Config{}, nil)
	defer c.Close()

	_, err := c.AnalyzeNow(Document{URI: "a.ts", Version: 2, Text: "type B = 2;"})
	require.NoError(t, err)

	_, err = c.AnalyzeNow(Document{URI: "a.ts", Version: 1, Text: "type A = 1;"})
	assert.Error(t, err)

	spans, ok := c.Spans("a.ts")
	require.True(t, ok)
	require.Len(t, spans, 1)
	assert.Equal(t, "type B = 2;", spans[0].Text)
}

func TestUpdateRunsOnWorkers(t *testing.T) {
	done := make(chan string, 4)
	c := New(Config{Workers: 2}, nil, WithNotify(func(doc Document, _ []typespan.TypedSpan) {
		done <- doc.URI
	}))
	defer c.Close()

	require.True(t, c.Update(Document{URI: "a.ts", Version: 1, Text: "let a: string;"}))

	select {
	case uri := <-done:
		assert.Equal(t, "a.ts", uri)
	case <-time.After(5 * time.Second):
		t.Fatal("analysis did not finish")
	}

	spans, ok := c.Spans("a.ts")
	require.True(t, ok)
	require.Len(t, spans, 1)
	assert.Equal(t, typespan.VariableTypeDefinition, spans[0].Kind)
}

func TestUpdateAfterClose(t *testing.T) {
	c := New(Config{}, nil)
	c.Close()
	c.Close()

	assert.False(t, c.Update(Document{URI: "a.ts", Version: 1, Text: "type A = 1"}))
	_, err := c.AnalyzeNow(Document{URI: "a.ts", Version: 1, Text: "type A = 1"})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestModeStorePersistence(t *testing.T) {
	off := false
	ms := &memStore{hidden: &off, ignored: []typespan.Kind{typespan.Interface}}

	c := New(Config{Hidden: true}, nil, WithModeStore(ms))
	defer c.Close()

	assert.False(t, c.Hidden(), "persisted mode wins over config")
	assert.Equal(t, []typespan.Kind{typespan.Interface}, c.Ignored())

	assert.True(t, c.Toggle())
	require.NotNil(t, ms.hidden)
	assert.True(t, *ms.hidden)

	c.SetIgnored([]typespan.Kind{typespan.AsAssertion, typespan.TypeAlias})
	assert.Equal(t, []typespan.Kind{typespan.TypeAlias, typespan.AsAssertion}, c.Ignored())
	assert.Equal(t, []typespan.Kind{typespan.AsAssertion, typespan.TypeAlias}, ms.ignored)
}

func TestModeSurvivesSaveFailure(t *testing.T) {
	c := New(Config{Hidden: true}, nil, WithModeStore(&memStore{failSaves: true}))
	defer c.Close()

	assert.False(t, c.Toggle())
	assert.False(t, c.Hidden())
}

func TestForget(t *testing.T) {
	ed := newFakeEditor()
	c := New(Config{FoldThreshold: 2, Hidden: true}, ed)
	defer c.Close()

	_, err := c.AnalyzeNow(Document{URI: "a.ts", Version: 1, Text: sample})
	require.NoError(t, err)
	require.NoError(t, c.Apply("a.ts", NoCaret))

	c.Forget("a.ts")
	_, ok := c.Spans("a.ts")
	assert.False(t, ok)
	assert.Empty(t, ed.folded["a.ts"])
	assert.Empty(t, ed.decorations["a.ts"])
}

func countPrefix(calls []string, prefix string) int {
	n := 0
	for _, c := range calls {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}
