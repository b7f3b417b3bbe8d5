package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/KocBilge/barcode/models"
)

// Actor used when a change comes from the web page rather than a keyed device.
const BrowserActor = "browser"

// Service writes audit records inside the caller transaction.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

func (s *Service) Write(ctx context.Context, tx bun.Tx, actor, action, entityType, entityID string, before, after any) error {
	if actor == "" {
		actor = BrowserActor
	}
	beforeJSON, err := marshal(before)
	if err != nil {
		return fmt.Errorf("marshal audit before: %w", err)
	}
	afterJSON, err := marshal(after)
	if err != nil {
		return fmt.Errorf("marshal audit after: %w", err)
	}
	entry := &models.AuditLog{
		Actor:      actor,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		BeforeJSON: beforeJSON,
		AfterJSON:  afterJSON,
	}
	if _, err := tx.NewInsert().Model(entry).Exec(ctx); err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// Recent returns the newest audit entries, newest first.
func (s *Service) Recent(ctx context.Context, tx bun.Tx, limit int) ([]models.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	out := make([]models.AuditLog, 0, limit)
	err := tx.NewSelect().Model(&out).OrderExpr("al.id DESC").Limit(limit).Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select audit logs: %w", err)
	}
	return out, nil
}

func marshal(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
