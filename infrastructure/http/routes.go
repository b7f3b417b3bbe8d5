package http

import (
	"context"

	"github.com/go-chi/chi/v5"

	"github.com/KocBilge/barcode/frontend/barcodes"
	exportspage "github.com/KocBilge/barcode/frontend/exports"
	"github.com/KocBilge/barcode/frontend/imports"
	"github.com/KocBilge/barcode/frontend/labels"
	"github.com/KocBilge/barcode/frontend/listview"
	"github.com/KocBilge/barcode/frontend/theme"
)

// RegisterBarcodeRoutes registers the scanning page, its commands and fragments.
func (s *Server) RegisterBarcodeRoutes(r chi.Router) {
	r.Get("/", barcodes.IndexPageQueryHandler(s.DB, s.Options.PerPage))
	r.Post("/", barcodes.CreateSectionCommandHandler(s.DB, s.Audit, s.Sections))
	r.Post("/delete_section", barcodes.DeleteSectionCommandHandler(s.DB, s.Audit, s.Sections))
	r.Post("/delete_code", barcodes.DeleteCodeCommandHandler(s.DB, s.Audit, s.Sections))
	r.Post("/bulk_delete", barcodes.BulkDeleteCommandHandler(s.DB, s.Audit, s.Sections))
	r.Post("/scan", barcodes.ScanCommandHandler(s.DB, s.Audit, s.Sections))
	r.Post("/upload", barcodes.UploadCommandHandler(s.DB, s.Audit, s.Sections, s.Options.MaxUploadBytes))

	r.Get("/get_latest_barcodes", barcodes.LatestBarcodesQueryHandler(s.DB))
	r.Get("/sections/{section}/list", barcodes.SectionFragmentQueryHandler(s.DB, s.Options.PerPage))
	r.Get("/recent", barcodes.RecentFragmentQueryHandler(s.DB))

	r.Post("/theme", theme.ToggleHandler())
}

func (s *Server) RegisterLabelRoutes(r chi.Router) {
	load := func(ctx context.Context, section string) ([]listview.Record, error) {
		return barcodes.LoadSectionRecords(ctx, s.DB, section)
	}
	r.Get("/labels/code.png", labels.CodePNGHandler())
	r.Get("/labels/{section}.pdf", labels.SectionLabelsPDFHandler(load))
}

func (s *Server) RegisterExportRoutes(r chi.Router) {
	r.Get("/export_csv", exportspage.BarcodesCSVHandler(s.DB))
	r.Post("/import_csv", imports.ImportCSVCommandHandler(s.DB, s.Audit, s.Sections, s.Options.MaxUploadBytes))
}
