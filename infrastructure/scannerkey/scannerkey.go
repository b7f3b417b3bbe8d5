package scannerkey

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/KocBilge/barcode/infrastructure/argon"
	"github.com/KocBilge/barcode/infrastructure/audit"
	"github.com/KocBilge/barcode/infrastructure/cache"
	"github.com/KocBilge/barcode/infrastructure/sqlite"
	"github.com/KocBilge/barcode/models"
)

var (
	ErrInvalidName = errors.New("device name must be 1-64 letters, digits, '-' or '_'")
	ErrInvalidKey  = errors.New("invalid scanner key")
)

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Issue creates or rotates the key of a device and returns it once in plain form
// as "<name>.<uuid>". Only the argon2id hash is stored.
func Issue(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, name string, p *argon.Params) (string, error) {
	name = strings.TrimSpace(name)
	if !namePattern.MatchString(name) {
		return "", ErrInvalidName
	}
	key := name + "." + uuid.NewString()
	hash, err := argon.CreateHash(key, p)
	if err != nil {
		return "", fmt.Errorf("hash scanner key: %w", err)
	}

	err = db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.ExecContext(ctx, `
INSERT INTO scanner_keys (name, key_hash, created_at) VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(name) DO UPDATE SET key_hash = excluded.key_hash, created_at = CURRENT_TIMESTAMP`, name, hash)
		if err != nil {
			return fmt.Errorf("upsert scanner key: %w", err)
		}
		return auditSvc.Write(ctx, tx, audit.BrowserActor, "scanner_key.issue", "scanner_key", name, nil, map[string]string{"name": name})
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

// Authenticate resolves a presented key to its device name. Verified keys are
// remembered in keys so repeat requests skip the argon2 work; the indexed row lookup
// still runs on every call.
func Authenticate(ctx context.Context, db *sqlite.DB, keys *cache.ScannerKeyCache, key string) (string, error) {
	key = strings.TrimSpace(key)
	idx := strings.LastIndex(key, ".")
	if idx <= 0 || idx == len(key)-1 {
		return "", ErrInvalidKey
	}
	name := key[:idx]

	var stored models.ScannerKey
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().Model(&stored).Where("sk.name = ?", name).Limit(1).Scan(ctx)
	})
	if errors.Is(err, sql.ErrNoRows) {
		keys.Forget(key)
		return "", ErrInvalidKey
	}
	if err != nil {
		return "", fmt.Errorf("load scanner key: %w", err)
	}

	// Trust a cached key only while the row still carries the hash it was verified against.
	if device, hash, ok := keys.Device(key); ok {
		if device == stored.Name && hash == stored.KeyHash {
			return device, nil
		}
		keys.Forget(key)
	}

	ok, err := argon.Verify(key, stored.KeyHash)
	if err != nil {
		return "", fmt.Errorf("verify scanner key: %w", err)
	}
	if !ok {
		return "", ErrInvalidKey
	}
	keys.Add(key, stored.Name, stored.KeyHash)
	return stored.Name, nil
}

// Revoke deletes the key of a device. It reports false when no key existed.
func Revoke(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, keys *cache.ScannerKeyCache, name string) (bool, error) {
	var removed bool
	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM scanner_keys WHERE name = ?`, name)
		if err != nil {
			return fmt.Errorf("delete scanner key: %w", err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return nil
		}
		removed = true
		return auditSvc.Write(ctx, tx, audit.BrowserActor, "scanner_key.revoke", "scanner_key", name, map[string]string{"name": name}, nil)
	})
	if err != nil {
		return false, err
	}
	if removed && keys != nil {
		keys.ForgetDevice(name)
	}
	return removed, nil
}
