package barcodes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uniplaces/carbon"
	"github.com/uptrace/bun"

	"github.com/KocBilge/barcode/frontend/listview"
	"github.com/KocBilge/barcode/infrastructure/audit"
	"github.com/KocBilge/barcode/infrastructure/sqlite"
	"github.com/KocBilge/barcode/models"
)

var (
	ErrSectionExists   = errors.New("section already exists")
	ErrSectionRequired = errors.New("section name is required")
	ErrCodeRequired    = errors.New("code is required")
)

// storedLayouts are the timestamp forms found in the barcodes table.
var storedLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
}

// NowStamp is the insert timestamp in the stored text form.
func NowStamp() string {
	return carbon.Now().DateTimeString()
}

// ISOTimestamp converts a stored timestamp to YYYY-MM-DDTHH:MM:SS. ok is false when it
// cannot be read, in which case the value is published as null.
func ISOTimestamp(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	for _, layout := range storedLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			if layout == time.RFC3339Nano {
				return raw, true
			}
			return t.Format("2006-01-02T15:04:05"), true
		}
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t.Format("2006-01-02"), true
	}
	return "", false
}

// StoredTimestamp rewrites a readable timestamp into the stored text form so that rows
// from different sources order correctly as text. Zoned values are converted to local
// time; a bare date becomes local midnight.
func StoredTimestamp(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	for _, layout := range append(storedLayouts, "2006-01-02") {
		t, err := time.ParseInLocation(layout, raw, time.Local)
		if err == nil {
			return carbon.NewCarbon(t.In(time.Local)).DateTimeString(), true
		}
	}
	return "", false
}

// ListSections returns every section ordered by creation.
func ListSections(ctx context.Context, db *sqlite.DB) ([]models.Section, error) {
	sections := make([]models.Section, 0)
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().Model(&sections).OrderExpr("sec.id ASC").Scan(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return sections, nil
}

// SectionNames lists section names in creation order.
func SectionNames(ctx context.Context, db *sqlite.DB) ([]string, error) {
	sections, err := ListSections(ctx, db)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(sections))
	for _, s := range sections {
		names = append(names, s.Name)
	}
	return names, nil
}

// CreateSection adds a section. Names are compared case-insensitively.
func CreateSection(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, actor, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrSectionRequired
	}
	return db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		var count int
		if err := tx.NewRaw(`SELECT COUNT(1) FROM sections WHERE LOWER(name) = LOWER(?)`, name).Scan(ctx, &count); err != nil {
			return fmt.Errorf("check section: %w", err)
		}
		if count > 0 {
			return ErrSectionExists
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO sections (name, created_at) VALUES (?, CURRENT_TIMESTAMP)`, name); err != nil {
			return fmt.Errorf("insert section: %w", err)
		}
		return auditSvc.Write(ctx, tx, actor, "section.create", "section", name, nil, map[string]string{"name": name})
	})
}

// DeleteSection removes a section, matched ignoring case, and every code filed under it.
// deleted is false when the section does not exist.
func DeleteSection(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, actor, name string) (deleted bool, err error) {
	err = db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		stored, err := storedSectionName(ctx, tx, name)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		name = stored
		if _, err := tx.ExecContext(ctx, `DELETE FROM sections WHERE name = ?`, name); err != nil {
			return fmt.Errorf("delete section: %w", err)
		}
		codes, err := tx.ExecContext(ctx, `DELETE FROM barcodes WHERE section = ?`, name)
		if err != nil {
			return fmt.Errorf("delete section barcodes: %w", err)
		}
		removed, _ := codes.RowsAffected()
		deleted = true
		return auditSvc.Write(ctx, tx, actor, "section.delete", "section", name, map[string]any{"name": name, "codes": removed}, nil)
	})
	return deleted, err
}

// InsertBarcode stores code unless the section already holds it ignoring case.
func InsertBarcode(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, actor, section, code, stamp string) (inserted bool, err error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return false, ErrCodeRequired
	}
	err = db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO barcodes (section, code, timestamp) VALUES (?, ?, ?)`, section, code, stamp)
		if err != nil {
			return fmt.Errorf("insert barcode: %w", err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return nil
		}
		inserted = true
		return auditSvc.Write(ctx, tx, actor, "barcode.scan", "barcode", section+"/"+code, nil, listview.Record{Code: code, Timestamp: stamp})
	})
	return inserted, err
}

// DeleteCode removes one code from a section.
func DeleteCode(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, actor, section, code string) (int64, error) {
	return BulkDelete(ctx, db, auditSvc, actor, section, []string{code})
}

// BulkDelete removes the given codes from a section and returns how many rows went.
func BulkDelete(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, actor, section string, codes []string) (int64, error) {
	var removed int64
	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		for _, code := range codes {
			res, err := tx.ExecContext(ctx, `DELETE FROM barcodes WHERE section = ? AND code = ?`, section, code)
			if err != nil {
				return fmt.Errorf("delete barcode: %w", err)
			}
			n, _ := res.RowsAffected()
			removed += n
		}
		if removed == 0 {
			return nil
		}
		return auditSvc.Write(ctx, tx, actor, "barcode.delete", "section", section, map[string]any{"codes": codes}, map[string]int64{"removed": removed})
	})
	return removed, err
}

type barcodeRow struct {
	Section   string         `bun:"section"`
	Code      string         `bun:"code"`
	Timestamp sql.NullString `bun:"timestamp"`
}

// LoadAll returns every section with its codes, newest first. Sections without codes map
// to an empty slice. Timestamps are ISO formatted; unreadable ones become "".
func LoadAll(ctx context.Context, db *sqlite.DB) (map[string][]listview.Record, error) {
	rows := make([]barcodeRow, 0)
	var names []string
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := tx.NewRaw(`SELECT name FROM sections ORDER BY id ASC`).Scan(ctx, &names); err != nil {
			return err
		}
		return tx.NewRaw(`SELECT section, code, timestamp FROM barcodes ORDER BY timestamp DESC, id DESC`).Scan(ctx, &rows)
	})
	if err != nil {
		return nil, fmt.Errorf("load barcodes: %w", err)
	}

	out := make(map[string][]listview.Record, len(names))
	for _, name := range names {
		out[name] = []listview.Record{}
	}
	for _, row := range rows {
		ts, _ := ISOTimestamp(row.Timestamp.String)
		out[row.Section] = append(out[row.Section], listview.Record{Code: row.Code, Timestamp: ts})
	}
	return out, nil
}

// storedSectionName returns the stored spelling of a section matched ignoring case, or sql.ErrNoRows.
func storedSectionName(ctx context.Context, tx bun.Tx, name string) (string, error) {
	var stored string
	err := tx.NewRaw(`SELECT name FROM sections WHERE LOWER(name) = LOWER(?)`, strings.TrimSpace(name)).Scan(ctx, &stored)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("lookup section: %w", err)
	}
	return stored, err
}

// ResolveSection returns the stored spelling of name, or sql.ErrNoRows.
func ResolveSection(ctx context.Context, db *sqlite.DB, name string) (string, error) {
	var stored string
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		var err error
		stored, err = storedSectionName(ctx, tx, name)
		return err
	})
	return stored, err
}

// LoadSectionRecords returns one section's codes, newest first, or sql.ErrNoRows.
// The section is matched ignoring case.
func LoadSectionRecords(ctx context.Context, db *sqlite.DB, section string) ([]listview.Record, error) {
	rows := make([]barcodeRow, 0)
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		stored, err := storedSectionName(ctx, tx, section)
		if err != nil {
			return err
		}
		return tx.NewRaw(`SELECT section, code, timestamp FROM barcodes WHERE section = ? ORDER BY timestamp DESC, id DESC`, stored).Scan(ctx, &rows)
	})
	if err != nil {
		return nil, err
	}
	out := make([]listview.Record, 0, len(rows))
	for _, row := range rows {
		ts, _ := ISOTimestamp(row.Timestamp.String)
		out = append(out, listview.Record{Code: row.Code, Timestamp: ts})
	}
	return out, nil
}
