package listview

import (
	"fmt"
	"sync"
	"time"
)

type filterKind int

const (
	filterDate filterKind = iota + 1
	filterText
)

type activeFilter struct {
	kind   filterKind
	query  string
	rng    DateRange
	params FilterParams
}

// Controller derives filtered and paginated section views from a Store.
type Controller struct {
	store *Store

	PerPage  int
	Location *time.Location
	// KeepFilters reapplies each section's last filter after Refresh instead of dropping it.
	KeepFilters bool

	mu     sync.Mutex
	active map[string]activeFilter
}

func NewController(store *Store) *Controller {
	if store == nil {
		store = NewStore()
	}
	return &Controller{
		store:    store,
		PerPage:  DefaultPerPage,
		Location: time.Local,
		active:   make(map[string]activeFilter),
	}
}

func (c *Controller) Store() *Store {
	return c.store
}

// ApplyDateFilter replaces the filtered view of every section. It is a no-op
// returning false when either date is missing or malformed.
func (c *Controller) ApplyDateFilter(start, end string) bool {
	rng, ok := ParseDateRange(start, end, c.Location)
	if !ok {
		return false
	}
	f := activeFilter{kind: filterDate, rng: rng, params: FilterParams{Start: start, End: end}}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, sec := range c.store.Sections() {
		c.applyLocked(sec.ID, f)
	}
	return true
}

// ApplyTextFilter replaces the filtered view of one section.
func (c *Controller) ApplyTextFilter(section, query string) {
	f := activeFilter{kind: filterText, query: query, params: FilterParams{Query: query}}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.applyLocked(NormalizeSection(section), f)
}

func (c *Controller) applyLocked(id string, f activeFilter) {
	raw := c.store.GetRaw(id)
	switch f.kind {
	case filterDate:
		c.store.SetFiltered(id, FilterByDate(raw, f.rng, c.Location))
	case filterText:
		c.store.SetFiltered(id, FilterByText(raw, f.query))
	}
	c.active[id] = f
}

// ClearFilter makes the raw records the active view again.
func (c *Controller) ClearFilter(section string) {
	id := NormalizeSection(section)
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.active, id)
	c.store.ClearFiltered(id)
}

// Refresh overwrites the raw records of every section in data and returns
// page 1 of each refreshed section. The store is fully replaced before any view is built.
func (c *Controller) Refresh(data map[string][]Record) []SectionView {
	c.store.SetRawAll(data)

	c.mu.Lock()
	for section := range data {
		id := NormalizeSection(section)
		f, ok := c.active[id]
		if ok && c.KeepFilters {
			c.applyLocked(id, f)
			continue
		}
		delete(c.active, id)
		c.store.ClearFiltered(id)
	}
	c.mu.Unlock()

	views := make([]SectionView, 0, len(data))
	for _, sec := range c.store.Sections() {
		if !containsNormalized(data, sec.ID) {
			continue
		}
		if view, ok := c.View(sec.ID, 1); ok {
			views = append(views, view)
		}
	}
	return views
}

func containsNormalized(data map[string][]Record, id string) bool {
	for section := range data {
		if NormalizeSection(section) == id {
			return true
		}
	}
	return false
}

// Views returns the given page of every known section.
func (c *Controller) Views(page int) []SectionView {
	sections := c.store.Sections()
	views := make([]SectionView, 0, len(sections))
	for _, sec := range sections {
		if view, ok := c.View(sec.ID, page); ok {
			views = append(views, view)
		}
	}
	return views
}

// View resolves, paginates and describes one section. ok is false for an unknown section.
// A page past the end is pulled back to the last page.
func (c *Controller) View(section string, page int) (SectionView, bool) {
	if !c.store.Has(section) {
		return SectionView{}, false
	}
	id := NormalizeSection(section)
	records := c.store.Resolve(id)

	perPage := c.PerPage
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if total := NumPages(len(records), perPage); total > 0 && page > total {
		page = total
	}
	if page < 1 {
		page = 1
	}

	c.mu.Lock()
	params := c.active[id].params
	c.mu.Unlock()

	start := (page - 1) * perPage
	sliced := Paginate(records, page, perPage)
	entries := make([]Entry, 0, len(sliced))
	for idx, rec := range sliced {
		code := rec.Code
		if code == "" {
			code = "undefined"
		}
		ts := rec.Timestamp
		if ts == "" {
			ts = "-"
		}
		entries = append(entries, Entry{
			Index:     start + idx + 1,
			InputID:   fmt.Sprintf("%s-%d", id, start+idx+1),
			Code:      code,
			Timestamp: ts,
		})
	}

	return SectionView{
		Section:    c.store.Name(id),
		ID:         id,
		DisplayID:  DisplayID(id),
		Entries:    entries,
		Pagination: BuildPagination(len(records), page, perPage),
		Filter:     params,
	}, true
}
