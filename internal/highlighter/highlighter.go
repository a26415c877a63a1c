// Package highlighter colours TypeScript sources for the terminal viewer.
package highlighter

import (
	"container/list"
	"hash/fnv"
	"sync"

	chroma "github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"

	"typehide/internal/lang"
)

type TokenCategory int

const (
	TokenPlain TokenCategory = iota
	TokenKeyword
	TokenType
	TokenFunction
	TokenString
	TokenNumber
	TokenComment
	TokenOperator
	TokenError
)

// Span colours the bytes [Start, End) of a document.
type Span struct {
	Start int
	End   int
	Cat   TokenCategory
}

type cacheKey struct {
	Lang lang.ID
	Sum  uint64
	Len  int
}

type spanLRU struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[cacheKey]*list.Element
}

type cacheEntry struct {
	key   cacheKey
	spans []Span
}

func newSpanLRU(capacity int) *spanLRU {
	if capacity <= 0 {
		capacity = 1
	}
	return &spanLRU{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[cacheKey]*list.Element, capacity),
	}
}

func (c *spanLRU) Get(key cacheKey) ([]Span, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return nil, false
	}
	c.ll.MoveToFront(elem)
	return elem.Value.(cacheEntry).spans, true
}

func (c *spanLRU) Set(key cacheKey, spans []Span) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		elem.Value = cacheEntry{key: key, spans: spans}
		c.ll.MoveToFront(elem)
		return
	}

	c.items[key] = c.ll.PushFront(cacheEntry{key: key, spans: spans})
	if c.ll.Len() <= c.capacity {
		return
	}
	back := c.ll.Back()
	if back == nil {
		return
	}
	delete(c.items, back.Value.(cacheEntry).key)
	c.ll.Remove(back)
}

// Highlighter tokenises whole documents with chroma and remembers the result
// for the most recent texts.
type Highlighter struct {
	cache *spanLRU
}

func New(cacheSize int) *Highlighter {
	return &Highlighter{cache: newSpanLRU(cacheSize)}
}

// Document returns contiguous spans covering every byte of text.
func (h *Highlighter) Document(id lang.ID, text string) []Span {
	if text == "" {
		return nil
	}

	sum := fnv.New64a()
	_, _ = sum.Write([]byte(text))
	key := cacheKey{Lang: id, Sum: sum.Sum64(), Len: len(text)}
	if spans, ok := h.cache.Get(key); ok {
		return spans
	}

	spans := tokenise(id, text)
	h.cache.Set(key, spans)
	return spans
}

func lexerFor(id lang.ID) chroma.Lexer {
	var l chroma.Lexer
	switch id {
	case lang.TSX:
		l = lexers.Get("tsx")
		if l == nil {
			l = lexers.Get("typescript")
		}
	case lang.TypeScript:
		l = lexers.Get("typescript")
	case lang.JavaScript:
		l = lexers.Get("javascript")
	}
	if l == nil {
		l = lexers.Fallback
	}
	return chroma.Coalesce(l)
}

func tokenise(id lang.ID, text string) []Span {
	// EnsureLF would rewrite CRLF and shift every later offset.
	it, err := lexerFor(id).Tokenise(&chroma.TokeniseOptions{State: "root"}, text)
	if err != nil {
		return plainSpans(text)
	}

	raw := make([]Span, 0, 256)
	off := 0
	for tok := it(); tok != chroma.EOF; tok = it() {
		n := len(tok.Value)
		if n == 0 {
			continue
		}
		raw = append(raw, Span{Start: off, End: off + n, Cat: categorize(tok.Type)})
		off += n
		if off >= len(text) {
			break
		}
	}
	return normalizeSpans(raw, len(text))
}
