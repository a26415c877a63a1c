package visibility

import (
	"container/list"
	"sync"

	"typehide/internal/typespan"
)

// entry is the last accepted analysis of one document.
type entry struct {
	URI     string
	Version int
	Text    string
	Dialect typespan.Dialect
	Spans   []typespan.TypedSpan
}

type docLRU struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[string]*list.Element
}

func newDocLRU(capacity int) *docLRU {
	if capacity <= 0 {
		capacity = 1
	}
	return &docLRU{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[string]*list.Element, capacity),
	}
}

func (c *docLRU) Get(uri string) (entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[uri]
	if !ok {
		return entry{}, false
	}
	c.ll.MoveToFront(elem)
	return elem.Value.(entry), true
}

// Store keeps e unless a newer version of the same document is already held.
// It reports whether e was kept.
func (c *docLRU) Store(e entry) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[e.URI]; ok {
		if elem.Value.(entry).Version > e.Version {
			return false
		}
		elem.Value = e
		c.ll.MoveToFront(elem)
		return true
	}

	elem := c.ll.PushFront(e)
	c.items[e.URI] = elem

	if c.ll.Len() <= c.capacity {
		return true
	}

	back := c.ll.Back()
	if back == nil {
		return true
	}
	delete(c.items, back.Value.(entry).URI)
	c.ll.Remove(back)
	return true
}

func (c *docLRU) Delete(uri string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[uri]; ok {
		delete(c.items, uri)
		c.ll.Remove(elem)
	}
}

func (c *docLRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}
