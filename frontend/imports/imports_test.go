package imports

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/uptrace/bun"

	"github.com/KocBilge/barcode/frontend/barcodes"
	"github.com/KocBilge/barcode/infrastructure/audit"
	"github.com/KocBilge/barcode/infrastructure/cache"
	"github.com/KocBilge/barcode/infrastructure/sqlite"
)

func openImportTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "import-test.db")
	db, err := sqlite.OpenDB(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller unavailable")
	}
	migrationsDir := filepath.Join(filepath.Dir(file), "..", "..", "infrastructure", "sqlite", "migrations")
	if err := sqlite.ApplyMigrations(context.Background(), db, migrationsDir); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return db
}

func count(t *testing.T, db *sqlite.DB, query string, args ...any) int {
	t.Helper()
	var n int
	err := db.WithReadTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(query, args...).Scan(ctx, &n)
	})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestImportCSV_InvalidHeader(t *testing.T) {
	db := openImportTestDB(t)

	_, err := ImportCSV(context.Background(), db, audit.NewService(), "test", strings.NewReader("name,value\nA,1\n"))
	if !errors.Is(err, ErrInvalidHeader) {
		t.Fatalf("expected ErrInvalidHeader, got %v", err)
	}
}

func TestImportCSV_CreatesSectionsAndSkipsDuplicates(t *testing.T) {
	db := openImportTestDB(t)
	auditSvc := audit.NewService()
	if err := barcodes.CreateSection(context.Background(), db, auditSvc, "test", "Shelf A"); err != nil {
		t.Fatalf("create section: %v", err)
	}

	in := "section,code,timestamp\n" +
		"shelf a,A-1,2024-01-01 10:00:00\n" +
		"Shelf A,a-1,2024-01-02 10:00:00\n" +
		"Cold Room,C-1,\n" +
		"Cold Room,C-2,yesterday\n" +
		",X,2024-01-01\n"
	summary, err := ImportCSV(context.Background(), db, auditSvc, "test", strings.NewReader(in))
	if err != nil {
		t.Fatalf("import csv: %v", err)
	}
	if summary.Inserted != 2 || summary.Skipped != 1 || summary.Errors != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if len(summary.NewSections) != 1 || summary.NewSections[0] != "Cold Room" {
		t.Fatalf("expected Cold Room created, got %v", summary.NewSections)
	}
	if n := count(t, db, `SELECT COUNT(*) FROM barcodes WHERE section = 'Shelf A' AND code = 'A-1'`); n != 1 {
		t.Fatalf("expected A-1 filed under stored spelling, got %d", n)
	}
	if n := count(t, db, `SELECT COUNT(*) FROM barcodes WHERE section = 'Cold Room' AND code = 'C-1' AND timestamp IS NULL`); n != 1 {
		t.Fatalf("expected blank timestamp stored as NULL, got %d", n)
	}
	if n := count(t, db, `SELECT COUNT(*) FROM audit_logs WHERE action = 'barcode.import'`); n != 1 {
		t.Fatalf("expected one import audit row, got %d", n)
	}
}

func TestImportCSV_NormalizesTimestampsForOrdering(t *testing.T) {
	db := openImportTestDB(t)
	ctx := context.Background()
	auditSvc := audit.NewService()
	if err := barcodes.CreateSection(ctx, db, auditSvc, "test", "Dock"); err != nil {
		t.Fatalf("create section: %v", err)
	}
	if _, err := barcodes.InsertBarcode(ctx, db, auditSvc, "test", "Dock", "SCANNED", "2024-01-01 09:00:00"); err != nil {
		t.Fatalf("insert scanned: %v", err)
	}

	in := "section,code,timestamp\nDock,IMPORTED,2024-01-01T08:00:00\n"
	if _, err := ImportCSV(ctx, db, auditSvc, "test", strings.NewReader(in)); err != nil {
		t.Fatalf("import csv: %v", err)
	}
	if n := count(t, db, `SELECT COUNT(*) FROM barcodes WHERE code = 'IMPORTED' AND timestamp = '2024-01-01 08:00:00'`); n != 1 {
		t.Fatalf("expected imported timestamp in stored layout")
	}

	data, err := barcodes.LoadAll(ctx, db)
	if err != nil {
		t.Fatalf("load all: %v", err)
	}
	dock := data["Dock"]
	if len(dock) != 2 || dock[0].Code != "SCANNED" || dock[1].Code != "IMPORTED" {
		t.Fatalf("expected newest scanned row first, got %+v", dock)
	}
}

func TestImportCSV_StampsRowsWithoutTimestampColumn(t *testing.T) {
	db := openImportTestDB(t)

	summary, err := ImportCSV(context.Background(), db, audit.NewService(), "test", strings.NewReader("code,section\nZ-9,Dock\n"))
	if err != nil {
		t.Fatalf("import csv: %v", err)
	}
	if summary.Inserted != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if n := count(t, db, `SELECT COUNT(*) FROM barcodes WHERE code = 'Z-9' AND timestamp IS NOT NULL`); n != 1 {
		t.Fatalf("expected import time stamped on row")
	}
}

func TestImportCSVCommandHandlerUpdatesSectionCache(t *testing.T) {
	db := openImportTestDB(t)
	sections := cache.NewSectionCache()
	h := ImportCSVCommandHandler(db, audit.NewService(), sections, 1<<20)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "barcodes.csv")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = fw.Write([]byte("section,code\nBay 4,B-1\nBay 4,B-2\n"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/import_csv", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", rr.Code)
	}
	loc, _ := url.Parse(rr.Header().Get("Location"))
	if got := loc.Query().Get("status"); got != "Imported: 2 inserted, 0 skipped, 0 errors, 1 new sections" {
		t.Fatalf("unexpected status %q", got)
	}
	if name, ok := sections.Lookup("bay 4"); !ok || name != "Bay 4" {
		t.Fatalf("expected section cache to learn Bay 4, got %q %v", name, ok)
	}
}

func TestImportCSVCommandHandlerRequiresFile(t *testing.T) {
	db := openImportTestDB(t)
	h := ImportCSVCommandHandler(db, audit.NewService(), cache.NewSectionCache(), 1<<20)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("other", "x")
	_ = mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/import_csv", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	loc, _ := url.Parse(rr.Header().Get("Location"))
	if got := loc.Query().Get("status"); got != "Error: file is required" {
		t.Fatalf("unexpected status %q", got)
	}
}
