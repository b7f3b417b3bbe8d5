package listview

import (
	"sort"
	"strings"
	"sync"
)

// Store owns the section -> records mapping and the derived filtered views.
type Store struct {
	mu       sync.RWMutex
	names    map[string]string
	raw      map[string][]Record
	filtered map[string][]Record
}

func NewStore() *Store {
	return &Store{
		names:    make(map[string]string),
		raw:      make(map[string][]Record),
		filtered: make(map[string][]Record),
	}
}

// NormalizeSection maps a section name to its store key ("shelf-a" -> "shelf_a").
func NormalizeSection(section string) string {
	return strings.ReplaceAll(strings.TrimSpace(section), "-", "_")
}

// DisplayID maps a store key to the form used in container ids ("shelf_a" -> "shelf-a").
func DisplayID(section string) string {
	return strings.ReplaceAll(NormalizeSection(section), "_", "-")
}

func (s *Store) SetRaw(section string, records []Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setRawLocked(section, records)
}

// SetRawAll replaces every given section under one lock.
func (s *Store) SetRawAll(data map[string][]Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for section, records := range data {
		s.setRawLocked(section, records)
	}
}

func (s *Store) setRawLocked(section string, records []Record) {
	id := NormalizeSection(section)
	if _, ok := s.names[id]; !ok {
		s.names[id] = strings.TrimSpace(section)
	}
	s.raw[id] = cloneRecords(records)
}

func (s *Store) GetRaw(section string) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneRecords(s.raw[NormalizeSection(section)])
}

func (s *Store) SetFiltered(section string, records []Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filtered[NormalizeSection(section)] = cloneRecords(records)
}

func (s *Store) GetFiltered(section string) ([]Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records, ok := s.filtered[NormalizeSection(section)]
	if !ok {
		return nil, false
	}
	return cloneRecords(records), true
}

func (s *Store) ClearFiltered(section string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.filtered, NormalizeSection(section))
}

// Has reports whether the section has ever received raw records.
func (s *Store) Has(section string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.names[NormalizeSection(section)]
	return ok
}

// Name returns the section name as first stored, or the input when unknown.
func (s *Store) Name(section string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if name, ok := s.names[NormalizeSection(section)]; ok {
		return name
	}
	return strings.TrimSpace(section)
}

// Resolve returns the filtered view when one exists, else the raw records, else an empty slice.
func (s *Store) Resolve(section string) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id := NormalizeSection(section)
	if records, ok := s.filtered[id]; ok {
		return cloneRecords(records)
	}
	if records, ok := s.raw[id]; ok {
		return cloneRecords(records)
	}
	return []Record{}
}

// Sections lists known sections sorted by id.
func (s *Store) Sections() []SectionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]SectionInfo, 0, len(s.names))
	for id, name := range s.names {
		out = append(out, SectionInfo{ID: id, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Snapshot copies the raw mapping keyed by section name.
func (s *Store) Snapshot() map[string][]Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]Record, len(s.raw))
	for id, records := range s.raw {
		out[s.names[id]] = cloneRecords(records)
	}
	return out
}

func cloneRecords(records []Record) []Record {
	if records == nil {
		return []Record{}
	}
	out := make([]Record, len(records))
	copy(out, records)
	return out
}
