package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/KocBilge/barcode/frontend/listview"
)

// filterFlags are the command-line filters, reapplied after each refresh since a
// refresh drops the filtered views.
type filterFlags struct {
	section string
	query   string
	start   string
	end     string
}

// apply reports whether any filter was applied.
func (f filterFlags) apply(c *listview.Controller) bool {
	applied := false
	if f.start != "" && f.end != "" {
		applied = c.ApplyDateFilter(f.start, f.end)
	}
	if f.section != "" && f.query != "" {
		c.ApplyTextFilter(f.section, f.query)
		applied = true
	}
	return applied
}

type screen struct {
	out  io.Writer
	only string
}

func (s *screen) sections(views []listview.SectionView) {
	only := listview.NormalizeSection(s.only)
	for _, v := range views {
		if s.only != "" && v.ID != only {
			continue
		}
		p := v.Pagination
		fmt.Fprintf(s.out, "== %s  (%d codes, page %d/%d)\n", v.Section, p.Total, p.Page, max(p.TotalPages, 1))
		tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
		for _, e := range v.Entries {
			fmt.Fprintf(tw, "  %d\t%s\t%s\n", e.Index, e.Code, e.Timestamp)
		}
		_ = tw.Flush()
		if len(v.Entries) == 0 {
			fmt.Fprintln(s.out, "  (no barcodes)")
		}
	}
}

func (s *screen) recent(entries []listview.RecentEntry) {
	fmt.Fprintln(s.out, "-- recent")
	for _, e := range entries {
		ts := e.Timestamp
		if ts == "" {
			ts = "-"
		}
		fmt.Fprintf(s.out, "  [%s] %s (%s)\n", e.Section, e.Code, ts)
	}
}
