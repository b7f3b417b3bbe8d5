package listview

import (
	"context"
	"html"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/a-h/templ"
)

// FragmentURL is the endpoint that re-renders a section body.
func FragmentURL(section string) string {
	return "/sections/" + url.PathEscape(section) + "/list"
}

// SectionFragment renders the list and pagination containers of a section inside a
// wrapper carrying the active filter, so page buttons can request the next fragment.
func SectionFragment(view SectionView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<div class="section-body" id="section-`)
		b.WriteString(html.EscapeString(view.DisplayID))
		b.WriteString(`" data-section="`)
		b.WriteString(html.EscapeString(view.Section))
		b.WriteString(`" data-endpoint="`)
		b.WriteString(html.EscapeString(FragmentURL(view.Section)))
		b.WriteString(`" data-page="`)
		b.WriteString(strconv.Itoa(view.Pagination.Page))
		b.WriteString(`" data-q="`)
		b.WriteString(html.EscapeString(view.Filter.Query))
		b.WriteString(`" data-start="`)
		b.WriteString(html.EscapeString(view.Filter.Start))
		b.WriteString(`" data-end="`)
		b.WriteString(html.EscapeString(view.Filter.End))
		b.WriteString(`">`)
		writeSectionList(&b, view)
		writeSectionPagination(&b, view)
		b.WriteString(`</div>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func SectionList(view SectionView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		writeSectionList(&b, view)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func SectionPagination(view SectionView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		writeSectionPagination(&b, view)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func writeSectionList(b *strings.Builder, view SectionView) {
	b.WriteString(`<ul class="list-group mb-2" id="list-`)
	b.WriteString(html.EscapeString(view.DisplayID))
	b.WriteString(`">`)
	if len(view.Entries) == 0 {
		b.WriteString(`<li class="list-group-item text-body-secondary">No barcodes</li>`)
	}
	for _, e := range view.Entries {
		section := html.EscapeString(view.Section)
		code := html.EscapeString(e.Code)
		inputID := html.EscapeString(e.InputID)
		b.WriteString(`<li class="list-group-item"><div class="form-check d-flex justify-content-between w-100 align-items-center">`)
		b.WriteString(`<div data-action="details" data-section="`)
		b.WriteString(section)
		b.WriteString(`" data-code="`)
		b.WriteString(code)
		b.WriteString(`" data-timestamp="`)
		b.WriteString(html.EscapeString(e.Timestamp))
		b.WriteString(`"><input class="form-check-input me-2" type="checkbox" name="codes" value="`)
		b.WriteString(code)
		b.WriteString(`" id="`)
		b.WriteString(inputID)
		b.WriteString(`"><label class="form-check-label" for="`)
		b.WriteString(inputID)
		b.WriteString(`"><i class="bi bi-upc-scan text-primary me-2"></i>`)
		b.WriteString(code)
		b.WriteString(`</label></div>`)
		b.WriteString(`<a href="#" data-action="delete" data-section="`)
		b.WriteString(section)
		b.WriteString(`" data-code="`)
		b.WriteString(code)
		b.WriteString(`" class="btn btn-sm btn-outline-danger" title="Delete"><i class="bi bi-trash"></i></a>`)
		b.WriteString(`</div></li>`)
	}
	b.WriteString(`</ul>`)
}

func writeSectionPagination(b *strings.Builder, view SectionView) {
	p := view.Pagination
	b.WriteString(`<ul class="pagination pagination-sm" id="pagination-`)
	b.WriteString(html.EscapeString(view.DisplayID))
	b.WriteString(`">`)
	if p.HasPrev {
		writePageButton(b, p.Page-1, "&lsaquo;", "")
	}
	for _, btn := range p.Buttons {
		active := ""
		if btn.Active {
			active = " active"
		}
		writePageButton(b, btn.Number, strconv.Itoa(btn.Number), active)
	}
	if p.HasNext {
		writePageButton(b, p.Page+1, "&rsaquo;", "")
	}
	b.WriteString(`</ul>`)
}

func writePageButton(b *strings.Builder, page int, label, class string) {
	b.WriteString(`<li class="page-item`)
	b.WriteString(class)
	b.WriteString(`"><button type="button" class="page-link" data-page="`)
	b.WriteString(strconv.Itoa(page))
	b.WriteString(`">`)
	b.WriteString(label)
	b.WriteString(`</button></li>`)
}

// RecentList renders the flat "recent activity" entries.
func RecentList(entries []RecentEntry) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		for _, e := range entries {
			ts := e.Timestamp
			if ts == "" {
				ts = "-"
			}
			b.WriteString(`<li class="list-group-item">[`)
			b.WriteString(html.EscapeString(e.Section))
			b.WriteString(`] `)
			b.WriteString(html.EscapeString(e.Code))
			b.WriteString(` (`)
			b.WriteString(html.EscapeString(ts))
			b.WriteString(`)</li>`)
		}
		_, err := io.WriteString(w, b.String())
		return err
	})
}
