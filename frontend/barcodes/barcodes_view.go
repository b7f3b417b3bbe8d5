package barcodes

import (
	"context"
	"html"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/KocBilge/barcode/frontend/listview"
	sharedhtml "github.com/KocBilge/barcode/frontend/shared/html"
)

func IndexPage(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		writeTopNav(&b, data)
		b.WriteString(`<main class="container py-3">`)
		if data.Status != "" {
			b.WriteString(`<div class="alert alert-info alert-dismissible fade show" role="alert">`)
			b.WriteString(html.EscapeString(data.Status))
			b.WriteString(`<button type="button" class="btn-close" data-bs-dismiss="alert" aria-label="Close"></button></div>`)
		}
		b.WriteString(`<div class="row g-3">`)
		b.WriteString(`<div class="col-lg-5">`)
		writeScanner(&b, data)
		writeSectionForms(&b, data)
		writeDateFilter(&b)
		writeRecent(ctx, &b, data.Recent)
		b.WriteString(`</div><div class="col-lg-7">`)
		if len(data.Cards) == 0 {
			b.WriteString(`<p class="text-body-secondary">No sections yet. Add one to start scanning.</p>`)
		}
		for _, card := range data.Cards {
			if err := writeCard(ctx, &b, card); err != nil {
				return err
			}
		}
		b.WriteString(`</div></div></main>`)
		writeModal(&b)
		b.WriteString(`<footer class="container text-center text-body-secondary small py-3">&copy; `)
		b.WriteString(strconv.Itoa(data.Year))
		b.WriteString(` Barcode Tracker</footer>`)

		_, err := io.WriteString(w, sharedhtml.RenderLayout("Barcode Tracker", data.Nav.Theme, b.String()))
		return err
	})
}

func writeTopNav(b *strings.Builder, data PageData) {
	b.WriteString(`<nav class="navbar border-bottom"><div class="container">`)
	b.WriteString(`<span class="navbar-brand"><i class="bi bi-upc-scan me-2"></i>Barcode Tracker</span>`)
	b.WriteString(`<div class="d-flex gap-2">`)
	b.WriteString(`<a class="btn btn-sm btn-outline-secondary" href="/export_csv"><i class="bi bi-download me-1"></i>CSV</a>`)
	b.WriteString(`<button type="button" class="btn btn-sm btn-outline-secondary" id="themeToggle" data-theme="`)
	b.WriteString(html.EscapeString(data.Nav.Theme))
	b.WriteString(`" title="Toggle theme"><i id="themeIcon" class="bi `)
	b.WriteString(html.EscapeString(data.Nav.ThemeIcon))
	b.WriteString(`"></i></button></div></div></nav>`)
}

func writeSectionOptions(b *strings.Builder, sections []string, active string) {
	for _, name := range sections {
		escaped := html.EscapeString(name)
		b.WriteString(`<option value="`)
		b.WriteString(escaped)
		b.WriteString(`"`)
		if name == active {
			b.WriteString(` selected`)
		}
		b.WriteString(`>`)
		b.WriteString(escaped)
		b.WriteString(`</option>`)
	}
}

func writeScanner(b *strings.Builder, data PageData) {
	b.WriteString(`<div class="card mb-3"><div class="card-body">`)
	b.WriteString(`<div class="scanner mb-2"><video id="preview" autoplay muted playsinline></video><canvas id="overlay" class="drawingBuffer"></canvas></div>`)
	b.WriteString(`<div id="log" class="small text-body-secondary mb-2">Starting camera...</div>`)
	b.WriteString(`<label class="form-label" for="section">Active section</label>`)
	b.WriteString(`<select class="form-select" id="section" name="section">`)
	writeSectionOptions(b, data.Sections, data.Nav.ActiveSection)
	b.WriteString(`</select></div></div>`)
}

func writeSectionForms(b *strings.Builder, data PageData) {
	b.WriteString(`<div class="card mb-3"><div class="card-body">`)
	b.WriteString(`<form method="POST" action="/" class="input-group mb-2">`)
	b.WriteString(`<input class="form-control" name="section" placeholder="New section" required>`)
	b.WriteString(`<button class="btn btn-primary" type="submit"><i class="bi bi-plus-lg"></i> Add</button></form>`)

	b.WriteString(`<form method="POST" action="/delete_section" class="input-group mb-2" data-confirm="Delete this section and all of its barcodes?">`)
	b.WriteString(`<select class="form-select" name="section">`)
	writeSectionOptions(b, data.Sections, data.Nav.ActiveSection)
	b.WriteString(`</select><button class="btn btn-outline-danger" type="submit"><i class="bi bi-trash"></i> Delete section</button></form>`)

	b.WriteString(`<form method="POST" action="/upload" enctype="multipart/form-data" class="input-group">`)
	b.WriteString(`<input type="hidden" name="section" data-bind="active-section" value="`)
	b.WriteString(html.EscapeString(data.Nav.ActiveSection))
	b.WriteString(`"><input class="form-control" type="file" name="image" accept="image/*" required>`)
	b.WriteString(`<button class="btn btn-outline-secondary" type="submit"><i class="bi bi-image"></i> Read image</button></form>`)

	b.WriteString(`<form method="POST" action="/import_csv" enctype="multipart/form-data" class="input-group mt-2">`)
	b.WriteString(`<input class="form-control" type="file" name="file" accept=".csv,text/csv" required>`)
	b.WriteString(`<button class="btn btn-outline-secondary" type="submit"><i class="bi bi-upload"></i> Import CSV</button></form>`)
	b.WriteString(`</div></div>`)
}

func writeDateFilter(b *strings.Builder) {
	b.WriteString(`<div class="card mb-3"><div class="card-body row g-2 align-items-end">`)
	b.WriteString(`<div class="col"><label class="form-label" for="startDate">From</label><input class="form-control" type="date" id="startDate"></div>`)
	b.WriteString(`<div class="col"><label class="form-label" for="endDate">To</label><input class="form-control" type="date" id="endDate"></div>`)
	b.WriteString(`<div class="col-auto"><button type="button" class="btn btn-outline-primary" data-action="date-filter">Filter</button> `)
	b.WriteString(`<button type="button" class="btn btn-outline-secondary" data-action="clear-filter">Clear</button></div>`)
	b.WriteString(`</div></div>`)
}

func writeRecent(ctx context.Context, b *strings.Builder, entries []listview.RecentEntry) {
	b.WriteString(`<div class="card mb-3"><div class="card-header">Recent scans</div><ul class="list-group list-group-flush" id="recentList" data-endpoint="/recent">`)
	_ = listview.RecentList(entries).Render(ctx, b)
	b.WriteString(`</ul></div>`)
}

func writeCard(ctx context.Context, b *strings.Builder, card SectionCard) error {
	name := html.EscapeString(card.Name)
	b.WriteString(`<div class="card mb-3"><div class="card-header d-flex justify-content-between align-items-center"><strong>`)
	b.WriteString(name)
	b.WriteString(`</strong><a class="btn btn-sm btn-outline-secondary" target="_blank" href="/labels/`)
	b.WriteString(html.EscapeString(url.PathEscape(card.Name)))
	b.WriteString(`.pdf"><i class="bi bi-printer"></i> Labels</a></div><div class="card-body">`)
	b.WriteString(`<input class="form-control form-control-sm mb-2" type="search" placeholder="Search codes" data-action="search" data-section="`)
	b.WriteString(name)
	b.WriteString(`">`)
	b.WriteString(`<form method="POST" action="/bulk_delete" data-confirm="Delete the selected barcodes?">`)
	b.WriteString(`<input type="hidden" name="section" value="`)
	b.WriteString(name)
	b.WriteString(`">`)
	if err := listview.SectionFragment(card.View).Render(ctx, b); err != nil {
		return err
	}
	b.WriteString(`<button class="btn btn-sm btn-outline-danger" type="submit"><i class="bi bi-trash"></i> Delete selected</button></form>`)
	b.WriteString(`</div></div>`)
	return nil
}

func writeModal(b *strings.Builder) {
	b.WriteString(`<div class="modal fade" id="barcodeModal" tabindex="-1" aria-hidden="true"><div class="modal-dialog"><div class="modal-content">`)
	b.WriteString(`<div class="modal-header"><h5 class="modal-title">Barcode</h5><button type="button" class="btn-close" data-bs-dismiss="modal" aria-label="Close"></button></div>`)
	b.WriteString(`<div class="modal-body" id="barcodeModalBody"></div>`)
	b.WriteString(`</div></div></div>`)
}
