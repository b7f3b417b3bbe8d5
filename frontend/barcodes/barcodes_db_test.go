package barcodes

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/KocBilge/barcode/infrastructure/audit"
)

func TestCreateSectionRejectsDuplicateIgnoringCase(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	auditSvc := audit.NewService()

	if err := CreateSection(ctx, db, auditSvc, "test", "  Shelf A "); err != nil {
		t.Fatalf("create section: %v", err)
	}
	if err := CreateSection(ctx, db, auditSvc, "test", "shelf a"); !errors.Is(err, ErrSectionExists) {
		t.Fatalf("expected ErrSectionExists, got %v", err)
	}
	if err := CreateSection(ctx, db, auditSvc, "test", "   "); !errors.Is(err, ErrSectionRequired) {
		t.Fatalf("expected ErrSectionRequired, got %v", err)
	}

	names, err := SectionNames(ctx, db)
	if err != nil {
		t.Fatalf("section names: %v", err)
	}
	if len(names) != 1 || names[0] != "Shelf A" {
		t.Fatalf("expected trimmed single section, got %v", names)
	}
	if n := countRows(t, db, `SELECT COUNT(*) FROM audit_logs WHERE action = 'section.create' AND actor = 'test'`); n != 1 {
		t.Fatalf("expected one audit row, got %d", n)
	}
}

func TestInsertBarcodeIgnoresDuplicateIgnoringCase(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	auditSvc := audit.NewService()
	mustCreateSection(t, db, "s1")

	inserted, err := InsertBarcode(ctx, db, auditSvc, "test", "s1", "abc-1", "2024-01-01 10:00:00")
	if err != nil || !inserted {
		t.Fatalf("expected first insert, got inserted=%v err=%v", inserted, err)
	}
	inserted, err = InsertBarcode(ctx, db, auditSvc, "test", "s1", "ABC-1", "2024-01-02 10:00:00")
	if err != nil || inserted {
		t.Fatalf("expected duplicate to be ignored, got inserted=%v err=%v", inserted, err)
	}
	if _, err := InsertBarcode(ctx, db, auditSvc, "test", "s1", " ", NowStamp()); !errors.Is(err, ErrCodeRequired) {
		t.Fatalf("expected ErrCodeRequired, got %v", err)
	}
	if n := countRows(t, db, `SELECT COUNT(*) FROM audit_logs WHERE action = 'barcode.scan'`); n != 1 {
		t.Fatalf("expected one scan audit row, got %d", n)
	}
}

func TestLoadAllOrdersNewestFirstAndKeepsEmptySections(t *testing.T) {
	db := openTestDB(t)
	mustCreateSection(t, db, "s1")
	mustCreateSection(t, db, "empty")
	insertRaw(t, db, "s1", "old", "2024-01-01 08:00:00")
	insertRaw(t, db, "s1", "new", "2024-03-01 08:00:00")
	insertRaw(t, db, "s1", "broken", "yesterday")
	insertRaw(t, db, "s1", "missing", nil)

	data, err := LoadAll(context.Background(), db)
	if err != nil {
		t.Fatalf("load all: %v", err)
	}
	if got, ok := data["empty"]; !ok || len(got) != 0 {
		t.Fatalf("expected empty section present, got %v (ok=%v)", got, ok)
	}
	records := data["s1"]
	if len(records) != 4 {
		t.Fatalf("expected 4 records, got %+v", records)
	}
	byCode := make(map[string]string)
	for _, rec := range records {
		byCode[rec.Code] = rec.Timestamp
	}
	if byCode["new"] != "2024-03-01T08:00:00" {
		t.Fatalf("expected ISO timestamp, got %q", byCode["new"])
	}
	if byCode["broken"] != "" || byCode["missing"] != "" {
		t.Fatalf("expected unreadable timestamps cleared, got %q / %q", byCode["broken"], byCode["missing"])
	}

	var newIdx, oldIdx int
	for i, rec := range records {
		switch rec.Code {
		case "new":
			newIdx = i
		case "old":
			oldIdx = i
		}
	}
	if newIdx > oldIdx {
		t.Fatalf("expected newest first, got %+v", records)
	}
}

func TestLoadSectionRecordsUnknownSection(t *testing.T) {
	db := openTestDB(t)
	if _, err := LoadSectionRecords(context.Background(), db, "nope"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestDeleteSectionRemovesItsCodes(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	auditSvc := audit.NewService()
	mustCreateSection(t, db, "s1")
	mustCreateSection(t, db, "s2")
	insertRaw(t, db, "s1", "a", "2024-01-01 08:00:00")
	insertRaw(t, db, "s2", "b", "2024-01-01 08:00:00")

	deleted, err := DeleteSection(ctx, db, auditSvc, "test", "s1")
	if err != nil || !deleted {
		t.Fatalf("expected delete, got deleted=%v err=%v", deleted, err)
	}
	if n := countRows(t, db, `SELECT COUNT(*) FROM barcodes WHERE section = 's1'`); n != 0 {
		t.Fatalf("expected s1 codes removed, got %d", n)
	}
	if n := countRows(t, db, `SELECT COUNT(*) FROM barcodes WHERE section = 's2'`); n != 1 {
		t.Fatalf("expected s2 untouched, got %d", n)
	}

	deleted, err = DeleteSection(ctx, db, auditSvc, "test", "s1")
	if err != nil || deleted {
		t.Fatalf("expected second delete to report missing, got deleted=%v err=%v", deleted, err)
	}
}

func TestSectionLookupsIgnoreCase(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	mustCreateSection(t, db, "Shelf-A")
	insertRaw(t, db, "Shelf-A", "a", "2024-01-01 08:00:00")

	if stored, err := ResolveSection(ctx, db, "SHELF-A"); err != nil || stored != "Shelf-A" {
		t.Fatalf("expected stored spelling Shelf-A, got %q err=%v", stored, err)
	}
	records, err := LoadSectionRecords(ctx, db, "shelf-a")
	if err != nil || len(records) != 1 {
		t.Fatalf("expected one record through lower-case name, got %v err=%v", records, err)
	}

	deleted, err := DeleteSection(ctx, db, audit.NewService(), "test", "SHELF-A")
	if err != nil || !deleted {
		t.Fatalf("expected delete ignoring case, got deleted=%v err=%v", deleted, err)
	}
	if n := countRows(t, db, `SELECT COUNT(*) FROM barcodes WHERE section = 'Shelf-A'`); n != 0 {
		t.Fatalf("expected codes removed with the section, got %d", n)
	}
}

func TestBulkDeleteCountsRemovedRows(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	auditSvc := audit.NewService()
	mustCreateSection(t, db, "s1")
	for _, code := range []string{"a", "b", "c"} {
		insertRaw(t, db, "s1", code, "2024-01-01 08:00:00")
	}

	removed, err := BulkDelete(ctx, db, auditSvc, "test", "s1", []string{"a", "c", "zzz"})
	if err != nil {
		t.Fatalf("bulk delete: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	removed, err = DeleteCode(ctx, db, auditSvc, "test", "s1", "b")
	if err != nil || removed != 1 {
		t.Fatalf("expected single delete, got %d err=%v", removed, err)
	}
	if n := countRows(t, db, `SELECT COUNT(*) FROM barcodes`); n != 0 {
		t.Fatalf("expected no codes left, got %d", n)
	}
}

func TestISOTimestamp(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2024-05-01 09:30:00", "2024-05-01T09:30:00", true},
		{"2024-05-01T09:30:00", "2024-05-01T09:30:00", true},
		{"2024-05-01T09:30:00+02:00", "2024-05-01T09:30:00+02:00", true},
		{"2024-05-01", "2024-05-01", true},
		{"", "", false},
		{"01/05/2024", "", false},
	}
	for _, tc := range cases {
		got, ok := ISOTimestamp(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("ISOTimestamp(%q)=%q,%v want %q,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestStoredTimestamp(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2024-05-01 09:30:00", "2024-05-01 09:30:00", true},
		{"2024-05-01T09:30:00", "2024-05-01 09:30:00", true},
		{" 2024-05-01T09:30:00.250 ", "2024-05-01 09:30:00", true},
		{"2024-05-01", "2024-05-01 00:00:00", true},
		{"", "", false},
		{"yesterday", "", false},
	}
	for _, tc := range cases {
		got, ok := StoredTimestamp(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("StoredTimestamp(%q)=%q,%v want %q,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}

	zoned := "2024-05-01T09:30:00Z"
	got, ok := StoredTimestamp(zoned)
	want := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC).In(time.Local).Format("2006-01-02 15:04:05")
	if !ok || got != want {
		t.Fatalf("StoredTimestamp(%q)=%q,%v want %q", zoned, got, ok, want)
	}
}
