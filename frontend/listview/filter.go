package listview

import (
	"strings"
	"time"

	"github.com/uniplaces/carbon"
)

const dateLayout = "2006-01-02"

var zonelessLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	dateLayout,
}

// DateRange is inclusive on both ends.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ParseDateRange reads two YYYY-MM-DD dates; End is moved to 23:59:59.999 of its day.
// ok is false when either side is missing or malformed.
func ParseDateRange(start, end string, loc *time.Location) (DateRange, bool) {
	if loc == nil {
		loc = time.Local
	}
	start = strings.TrimSpace(start)
	end = strings.TrimSpace(end)
	if start == "" || end == "" {
		return DateRange{}, false
	}
	s, err := time.ParseInLocation(dateLayout, start, loc)
	if err != nil {
		return DateRange{}, false
	}
	e, err := time.ParseInLocation(dateLayout, end, loc)
	if err != nil {
		return DateRange{}, false
	}
	return DateRange{
		Start: carbon.NewCarbon(s).StartOfDay().Time,
		End:   carbon.NewCarbon(e).EndOfDay().Time.Truncate(time.Millisecond),
	}, true
}

func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// ParseTimestamp accepts RFC3339 and the zone-less ISO-like forms the server emits.
// Zone-less values are read in loc.
func ParseTimestamp(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, true
	}
	for _, layout := range zonelessLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FilterByDate keeps records whose timestamp parses and lies inside r. Order is preserved.
func FilterByDate(records []Record, r DateRange, loc *time.Location) []Record {
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		t, ok := ParseTimestamp(rec.Timestamp, loc)
		if !ok || !r.Contains(t) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// FilterByText keeps records whose code contains query, ignoring case.
// Records without a code never match.
func FilterByText(records []Record, query string) []Record {
	needle := strings.ToLower(query)
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		if rec.Code == "" {
			continue
		}
		if strings.Contains(strings.ToLower(rec.Code), needle) {
			out = append(out, rec)
		}
	}
	return out
}
