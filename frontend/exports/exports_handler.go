package exports

import (
	"bytes"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	requestcontext "github.com/KocBilge/barcode/frontend/shared/context"
	"github.com/KocBilge/barcode/infrastructure/sqlite"
)

// BarcodesCSVHandler serves GET /export_csv. An optional section query narrows the export.
func BarcodesCSVHandler(db *sqlite.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		section := strings.TrimSpace(r.URL.Query().Get("section"))

		var buf bytes.Buffer
		count, err := writeBarcodesCSV(r.Context(), db, &buf, section)
		if err != nil {
			slog.Error("export csv failed", slog.String("section", section), slog.Any("err", err))
			http.Error(w, "failed to export csv", http.StatusInternalServerError)
			return
		}

		filename := "barcodes.csv"
		if section != "" {
			filename = "barcodes-" + safeName(section) + ".csv"
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(filename))
		if _, err := w.Write(buf.Bytes()); err != nil {
			slog.Warn("write csv response failed", slog.Any("err", err))
			return
		}
		if err := recordExportRun(r.Context(), db, requestcontext.Actor(r.Context()), ExportTypeBarcodesCSV, section, count); err != nil {
			slog.Error("record export run failed", slog.String("type", ExportTypeBarcodesCSV), slog.Any("err", err))
		}
	}
}

func safeName(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
