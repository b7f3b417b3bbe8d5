package labels

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/KocBilge/barcode/frontend/listview"
)

// SectionLoader returns the records of one section, sql.ErrNoRows when it does not exist.
type SectionLoader func(ctx context.Context, section string) ([]listview.Record, error)

// SectionLabelsPDFHandler serves GET /labels/{section}.pdf.
func SectionLabelsPDFHandler(load SectionLoader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		section, err := url.PathUnescape(chi.URLParam(r, "section"))
		if err != nil || strings.TrimSpace(section) == "" {
			http.Error(w, "invalid section", http.StatusBadRequest)
			return
		}

		records, err := load(r.Context(), section)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				http.Error(w, "section not found", http.StatusNotFound)
				return
			}
			slog.Error("load section for labels failed", slog.String("section", section), slog.Any("err", err))
			http.Error(w, "failed to load section", http.StatusInternalServerError)
			return
		}

		pdfBytes, err := RenderLabelsPDF(LabelsFromRecords(section, records), time.Now())
		if err != nil {
			if errors.Is(err, ErrNoLabels) {
				http.Error(w, "section has no barcodes", http.StatusNotFound)
				return
			}
			slog.Error("render labels failed", slog.String("section", section), slog.Any("err", err))
			http.Error(w, "failed to build label pdf", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", "inline; filename=\"labels-"+sanitizeFilename(section)+".pdf\"")
		_, _ = w.Write(pdfBytes)
	}
}

// CodePNGHandler serves GET /labels/code.png?code=...
func CodePNGHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.TrimSpace(r.URL.Query().Get("code"))
		if code == "" {
			http.Error(w, "code is required", http.StatusBadRequest)
			return
		}
		img, err := RenderCode128PNG(code, 2, 80)
		if err != nil {
			http.Error(w, "code cannot be encoded", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "public, max-age=86400")
		_, _ = w.Write(img)
	}
}

func sanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
