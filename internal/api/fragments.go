package api

import (
	"sync"

	"github.com/dgallion1/docmind/internal/doctree"
	"github.com/dgallion1/docmind/internal/pane"
	"github.com/dgallion1/docmind/internal/parser"
)

// fragmentCache extracts the text-layer fragments of each stored PDF once;
// every viewer of the file builds its own Layer from the cached result.
type fragmentCache struct {
	mu      sync.Mutex
	entries map[string]*fragmentEntry
}

type fragmentEntry struct {
	once  sync.Once
	frags []doctree.Fragment
	pages int
	err   error
}

func newFragmentCache() *fragmentCache {
	return &fragmentCache{entries: map[string]*fragmentEntry{}}
}

func (c *fragmentCache) load(id, path string) ([]doctree.Fragment, int, error) {
	c.mu.Lock()
	e, ok := c.entries[id]
	if !ok {
		e = &fragmentEntry{}
		c.entries[id] = e
	}
	c.mu.Unlock()

	e.once.Do(func() { e.frags, e.pages, e.err = parser.Fragments(path) })
	return e.frags, e.pages, e.err
}

func (c *fragmentCache) drop(id string) {
	c.mu.Lock()
	delete(c.entries, id)
	c.mu.Unlock()
}

// layer starts a text layer for one viewer of the file at path.
func (c *fragmentCache) layer(id, path string) *pane.Layer {
	return pane.NewLayer(func() ([]doctree.Fragment, int, error) { return c.load(id, path) })
}
