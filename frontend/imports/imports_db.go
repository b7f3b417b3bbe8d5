package imports

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/uptrace/bun"

	"github.com/KocBilge/barcode/frontend/barcodes"
	"github.com/KocBilge/barcode/infrastructure/audit"
	"github.com/KocBilge/barcode/infrastructure/sqlite"
)

var ErrInvalidHeader = errors.New("invalid CSV header; expected section,code[,timestamp]")

type columns struct {
	section, code, timestamp int
}

func readHeader(header []string) (columns, error) {
	cols := columns{section: -1, code: -1, timestamp: -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))) {
		case columnSection:
			cols.section = i
		case columnCode:
			cols.code = i
		case columnTimestamp:
			cols.timestamp = i
		}
	}
	if cols.section < 0 || cols.code < 0 {
		return cols, ErrInvalidHeader
	}
	return cols, nil
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// ImportCSV loads barcodes from a CSV in the export layout. Unknown sections are
// created. Codes already stored in their section are skipped. Without a timestamp
// column every row is stamped with the import time; with one, blank cells are
// stored as NULL, readable ones are rewritten to the stored layout and unreadable
// ones count as errors.
func ImportCSV(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, actor string, reader io.Reader) (ImportSummary, error) {
	summary := ImportSummary{}
	r := csv.NewReader(reader)
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return summary, fmt.Errorf("read header: %w", err)
	}
	cols, err := readHeader(header)
	if err != nil {
		return summary, err
	}
	now := barcodes.NowStamp()

	err = db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		known := map[string]string{}
		for {
			record, err := r.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				summary.Errors++
				continue
			}
			sectionName := field(record, cols.section)
			code := field(record, cols.code)
			if sectionName == "" || code == "" {
				summary.Errors++
				continue
			}

			var stamp any = now
			if cols.timestamp >= 0 {
				raw := field(record, cols.timestamp)
				switch {
				case raw == "":
					stamp = nil
				default:
					normalized, ok := barcodes.StoredTimestamp(raw)
					if !ok {
						summary.Errors++
						continue
					}
					stamp = normalized
				}
			}

			section, err := resolveSection(ctx, tx, known, sectionName, &summary)
			if err != nil {
				return err
			}
			res, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO barcodes (section, code, timestamp) VALUES (?, ?, ?)`, section, code, stamp)
			if err != nil {
				return fmt.Errorf("insert barcode: %w", err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				summary.Skipped++
				continue
			}
			summary.Inserted++
		}

		after := map[string]any{
			"inserted":     summary.Inserted,
			"skipped":      summary.Skipped,
			"errors":       summary.Errors,
			"new_sections": summary.NewSections,
		}
		return auditSvc.Write(ctx, tx, actor, "barcode.import", "barcode", "csv", nil, after)
	})
	if err != nil {
		return ImportSummary{}, err
	}
	return summary, nil
}

// resolveSection returns the stored spelling of name, creating the section when
// it does not exist yet.
func resolveSection(ctx context.Context, tx bun.Tx, known map[string]string, name string, summary *ImportSummary) (string, error) {
	key := strings.ToLower(name)
	if stored, ok := known[key]; ok {
		return stored, nil
	}
	var stored string
	err := tx.NewRaw(`SELECT name FROM sections WHERE LOWER(name) = LOWER(?)`, name).Scan(ctx, &stored)
	switch {
	case err == nil:
	case errors.Is(err, sql.ErrNoRows):
		if _, err := tx.ExecContext(ctx, `INSERT INTO sections (name, created_at) VALUES (?, CURRENT_TIMESTAMP)`, name); err != nil {
			return "", fmt.Errorf("insert section: %w", err)
		}
		stored = name
		summary.NewSections = append(summary.NewSections, name)
	default:
		return "", fmt.Errorf("lookup section: %w", err)
	}
	known[key] = stored
	return stored, nil
}
