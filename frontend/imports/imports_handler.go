package imports

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	requestcontext "github.com/KocBilge/barcode/frontend/shared/context"
	"github.com/KocBilge/barcode/infrastructure/audit"
	"github.com/KocBilge/barcode/infrastructure/cache"
	"github.com/KocBilge/barcode/infrastructure/sqlite"
)

func redirectWithStatus(w http.ResponseWriter, r *http.Request, status string) {
	http.Redirect(w, r, "/?status="+url.QueryEscape(status), http.StatusSeeOther)
}

func ImportCSVCommandHandler(db *sqlite.DB, auditSvc *audit.Service, sections *cache.SectionCache, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			redirectWithStatus(w, r, "Error: invalid upload")
			return
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			redirectWithStatus(w, r, "Error: file is required")
			return
		}
		defer file.Close()

		summary, err := ImportCSV(r.Context(), db, auditSvc, requestcontext.Actor(r.Context()), file)
		if err != nil {
			if errors.Is(err, ErrInvalidHeader) {
				redirectWithStatus(w, r, "Error: "+err.Error())
				return
			}
			slog.Error("import csv", slog.Any("err", err))
			redirectWithStatus(w, r, "Error: import failed")
			return
		}
		for _, name := range summary.NewSections {
			sections.Add(name)
		}

		status := fmt.Sprintf("Imported: %d inserted, %d skipped, %d errors", summary.Inserted, summary.Skipped, summary.Errors)
		if n := len(summary.NewSections); n > 0 {
			status += fmt.Sprintf(", %d new sections", n)
		}
		redirectWithStatus(w, r, status)
	}
}
