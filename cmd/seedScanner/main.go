package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/KocBilge/barcode/infrastructure/argon"
	"github.com/KocBilge/barcode/infrastructure/audit"
	"github.com/KocBilge/barcode/infrastructure/config"
	"github.com/KocBilge/barcode/infrastructure/scannerkey"
	"github.com/KocBilge/barcode/infrastructure/sqlite"
)

func main() {
	name := flag.String("name", "", "device name the key is issued to")
	revoke := flag.Bool("revoke", false, "delete the device key instead of issuing one")
	flag.Parse()

	if strings.TrimSpace(*name) == "" {
		fmt.Fprintln(os.Stderr, "usage: seedScanner -name <device> [-revoke]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	migrationsDir := cfg.Storage.MigrationsDir
	if migrationsDir == "" {
		if dir, err := resolveMigrationsDir(); err == nil {
			migrationsDir = dir
		}
	}

	ctx := context.Background()
	db, err := sqlite.OpenMigrated(ctx, cfg.Storage.SQLitePath, migrationsDir, sqlite.Options{})
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if *revoke {
		removed, err := scannerkey.Revoke(ctx, db, audit.NewService(), nil, *name)
		if err != nil {
			log.Fatalf("revoke scanner key: %v", err)
		}
		if !removed {
			fmt.Printf("no key found for %s\n", *name)
			return
		}
		fmt.Printf("revoked key for %s\n", *name)
		return
	}

	key, err := scannerkey.Issue(ctx, db, audit.NewService(), *name, argon.DefaultParams)
	if err != nil {
		log.Fatalf("issue scanner key: %v", err)
	}
	fmt.Printf("scanner key for %s (shown once, set SCANNER_KEY on the device):\n%s\n", *name, key)
}

func resolveMigrationsDir() (string, error) {
	candidates := []string{
		filepath.Join("infrastructure", "sqlite", "migrations"),
		filepath.Join("..", "..", "infrastructure", "sqlite", "migrations"),
	}

	if _, file, _, ok := runtime.Caller(0); ok {
		candidates = append(candidates, filepath.Join(filepath.Dir(file), "..", "..", "infrastructure", "sqlite", "migrations"))
	}

	tried := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		absPath, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		tried = append(tried, absPath)

		info, err := os.Stat(absPath)
		if err != nil {
			continue
		}
		if info.IsDir() {
			return absPath, nil
		}
	}

	return "", fmt.Errorf("migrations dir not found; tried: %s", strings.Join(tried, ", "))
}
