package barcodes

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/uptrace/bun"

	"github.com/KocBilge/barcode/infrastructure/audit"
	"github.com/KocBilge/barcode/infrastructure/sqlite"
)

func openTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "barcodes.db")
	db, err := sqlite.OpenDB(dbPath)
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
	return db
}

func mustCreateSection(t *testing.T, db *sqlite.DB, name string) {
	t.Helper()
	if err := CreateSection(context.Background(), db, audit.NewService(), "test", name); err != nil {
		t.Fatalf("create section %q: %v", name, err)
	}
}

// insertRaw writes a row as an older tool would, bypassing timestamp formatting.
func insertRaw(t *testing.T, db *sqlite.DB, section, code string, stamp any) {
	t.Helper()
	err := db.WithWriteTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO barcodes (section, code, timestamp) VALUES (?, ?, ?)`, section, code, stamp)
		return err
	})
	if err != nil {
		t.Fatalf("insert raw barcode: %v", err)
	}
}

func countRows(t *testing.T, db *sqlite.DB, query string, args ...any) int {
	t.Helper()
	var count int
	err := db.WithReadTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(query, args...).Scan(ctx, &count)
	})
	if err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return count
}
