package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Section is a named shelf or area that scans are filed under.
type Section struct {
	bun.BaseModel `bun:"table:sections,alias:sec"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Name      string    `bun:"name,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// Barcode is one scanned code. Timestamp is stored as text and may be empty or malformed
// in rows written by older tools.
type Barcode struct {
	bun.BaseModel `bun:"table:barcodes,alias:b"`

	ID        int64  `bun:"id,pk,autoincrement"`
	Section   string `bun:"section,notnull"`
	Code      string `bun:"code,notnull"`
	Timestamp string `bun:"timestamp,nullzero"`
}

// ScannerKey authenticates a scanning device posting to /scan.
type ScannerKey struct {
	bun.BaseModel `bun:"table:scanner_keys,alias:sk"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Name      string    `bun:"name,unique,notnull"`
	KeyHash   string    `bun:"key_hash,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// AuditLog captures immutable change history for key operations.
type AuditLog struct {
	bun.BaseModel `bun:"table:audit_logs,alias:al"`

	ID         int64     `bun:"id,pk,autoincrement"`
	Actor      string    `bun:"actor,notnull"`
	Action     string    `bun:"action,notnull"`
	EntityType string    `bun:"entity_type,notnull"`
	EntityID   string    `bun:"entity_id,notnull"`
	BeforeJSON string    `bun:"before_json"`
	AfterJSON  string    `bun:"after_json"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// ExportRun records each CSV export.
type ExportRun struct {
	bun.BaseModel `bun:"table:export_runs,alias:er"`

	ID         int64     `bun:"id,pk,autoincrement"`
	Actor      string    `bun:"actor,notnull"`
	ExportType string    `bun:"export_type,notnull"`
	Section    string    `bun:"section,nullzero"`
	RowCount   int64     `bun:"row_count,notnull"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp"`
}
