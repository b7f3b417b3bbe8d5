package cache

import (
	"sort"
	"strings"
	"sync"
)

// SectionCache keeps the known section names keyed case-insensitively.
// It is loaded from the sections table at startup and kept current by the handlers.
type SectionCache struct {
	mu       sync.RWMutex
	sections map[string]string
}

func NewSectionCache() *SectionCache {
	return &SectionCache{sections: make(map[string]string)}
}

// Replace swaps the whole set, e.g. after a reload from the database.
func (c *SectionCache) Replace(names []string) {
	next := make(map[string]string, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		next[strings.ToLower(name)] = name
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sections = next
}

func (c *SectionCache) Add(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sections[strings.ToLower(name)] = name
}

func (c *SectionCache) Remove(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sections, strings.ToLower(strings.TrimSpace(name)))
}

// Lookup returns the stored spelling of name.
func (c *SectionCache) Lookup(name string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	stored, ok := c.sections[strings.ToLower(strings.TrimSpace(name))]
	return stored, ok
}

// Names returns the stored names sorted case-insensitively.
func (c *SectionCache) Names() []string {
	c.mu.RLock()
	out := make([]string, 0, len(c.sections))
	for _, name := range c.sections {
		out = append(out, name)
	}
	c.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i]) < strings.ToLower(out[j]) })
	return out
}
