package exports

import (
	"context"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/uptrace/bun"

	"github.com/KocBilge/barcode/infrastructure/sqlite"
)

func openTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.OpenDB(filepath.Join(t.TempDir(), "exports.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller unavailable")
	}
	migrationsDir := filepath.Join(filepath.Dir(file), "..", "..", "infrastructure", "sqlite", "migrations")
	if err := sqlite.ApplyMigrations(context.Background(), db, migrationsDir); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	err = db.WithWriteTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO barcodes (section, code, timestamp) VALUES
			('a', 'A-1', '2024-01-01 10:00:00'),
			('a', 'A,2', '2024-01-02 10:00:00'),
			('b', 'B-1', NULL)`)
		return err
	})
	if err != nil {
		t.Fatalf("seed barcodes: %v", err)
	}
	return db
}

func exportRuns(t *testing.T, db *sqlite.DB) (count int, rows int64) {
	t.Helper()
	err := db.WithReadTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`SELECT COUNT(*), COALESCE(SUM(row_count), 0) FROM export_runs WHERE export_type = ?`, ExportTypeBarcodesCSV).Scan(ctx, &count, &rows)
	})
	if err != nil {
		t.Fatalf("count export runs: %v", err)
	}
	return count, rows
}

func TestBarcodesCSVHandlerExportsEveryCode(t *testing.T) {
	db := openTestDB(t)
	rr := httptest.NewRecorder()
	BarcodesCSVHandler(db).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/export_csv", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Header().Get("Content-Disposition"), `"barcodes.csv"`) {
		t.Fatalf("unexpected disposition %q", rr.Header().Get("Content-Disposition"))
	}
	records, err := csv.NewReader(strings.NewReader(rr.Body.String())).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected header plus 3 rows, got %v", records)
	}
	if strings.Join(records[0], ",") != "section,code,timestamp" {
		t.Fatalf("unexpected header %v", records[0])
	}
	if records[1][1] != "A,2" {
		t.Fatalf("expected newest a code first with comma kept, got %v", records[1])
	}
	if records[3][0] != "b" || records[3][2] != "" {
		t.Fatalf("expected empty timestamp for b, got %v", records[3])
	}

	count, rows := exportRuns(t, db)
	if count != 1 || rows != 3 {
		t.Fatalf("expected one run of 3 rows, got %d runs / %d rows", count, rows)
	}
}

func TestBarcodesCSVHandlerSingleSection(t *testing.T) {
	db := openTestDB(t)
	rr := httptest.NewRecorder()
	BarcodesCSVHandler(db).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/export_csv?section=b", nil))

	records, err := csv.NewReader(strings.NewReader(rr.Body.String())).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 2 || records[1][1] != "B-1" {
		t.Fatalf("expected only B-1, got %v", records)
	}
	if !strings.Contains(rr.Header().Get("Content-Disposition"), "barcodes-b.csv") {
		t.Fatalf("unexpected disposition %q", rr.Header().Get("Content-Disposition"))
	}
}
