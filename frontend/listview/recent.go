package listview

import (
	"sort"
	"time"
)

const DefaultRecentLimit = 10

// Recent flattens every section, sorts newest first and keeps the first limit entries.
// Records with unparseable timestamps sort after all dated ones.
func Recent(data map[string][]Record, limit int, loc *time.Location) []RecentEntry {
	if limit < 1 {
		limit = DefaultRecentLimit
	}

	sections := make([]string, 0, len(data))
	for section := range data {
		sections = append(sections, section)
	}
	sort.Strings(sections)

	type dated struct {
		entry RecentEntry
		at    time.Time
		ok    bool
	}
	flat := make([]dated, 0)
	for _, section := range sections {
		for _, rec := range data[section] {
			at, ok := ParseTimestamp(rec.Timestamp, loc)
			flat = append(flat, dated{
				entry: RecentEntry{Section: section, Code: rec.Code, Timestamp: rec.Timestamp},
				at:    at,
				ok:    ok,
			})
		}
	}

	sort.SliceStable(flat, func(i, j int) bool {
		if !flat[i].ok {
			return false
		}
		if !flat[j].ok {
			return true
		}
		return flat[i].at.After(flat[j].at)
	})

	n := min(limit, len(flat))
	out := make([]RecentEntry, 0, n)
	for _, d := range flat[:n] {
		out = append(out, d.entry)
	}
	return out
}
