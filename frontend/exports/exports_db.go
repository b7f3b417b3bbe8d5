package exports

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/uptrace/bun"

	"github.com/KocBilge/barcode/infrastructure/sqlite"
	"github.com/KocBilge/barcode/models"
)

// writeBarcodesCSV writes every stored code, or only those of section when it is set,
// and returns the number of data rows written.
func writeBarcodesCSV(ctx context.Context, db *sqlite.DB, w io.Writer, section string) (int64, error) {
	rows := make([]models.Barcode, 0)
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		q := tx.NewSelect().Model(&rows)
		if section != "" {
			q = q.Where("b.section = ?", section)
		}
		return q.OrderExpr("b.section ASC, b.timestamp DESC, b.id DESC").Scan(ctx)
	})
	if err != nil {
		return 0, fmt.Errorf("load export rows: %w", err)
	}

	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write(csvHeader); err != nil {
		return 0, err
	}
	var count int64
	for _, r := range rows {
		if err := writer.Write([]string{r.Section, r.Code, r.Timestamp}); err != nil {
			return count, err
		}
		count++
	}
	writer.Flush()
	return count, writer.Error()
}

func recordExportRun(ctx context.Context, db *sqlite.DB, actor, exportType, section string, rowCount int64) error {
	return db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		run := &models.ExportRun{
			Actor:      actor,
			ExportType: exportType,
			Section:    section,
			RowCount:   rowCount,
		}
		_, err := tx.NewInsert().Model(run).ExcludeColumn("id", "created_at").Exec(ctx)
		return err
	})
}
