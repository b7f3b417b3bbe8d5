package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/KocBilge/barcode/frontend/barcodes"
	"github.com/KocBilge/barcode/infrastructure/audit"
	"github.com/KocBilge/barcode/infrastructure/cache"
	"github.com/KocBilge/barcode/infrastructure/config"
	httpserver "github.com/KocBilge/barcode/infrastructure/http"
	"github.com/KocBilge/barcode/infrastructure/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx := context.Background()
	db, err := sqlite.OpenMigrated(ctx, cfg.Storage.SQLitePath, cfg.Storage.MigrationsDir, sqlite.Options{
		ReadPoolSize: cfg.Storage.ReadPoolSize,
	})
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	names, err := barcodes.SectionNames(ctx, db)
	if err != nil {
		log.Fatalf("load sections: %v", err)
	}
	sections := cache.NewSectionCache()
	sections.Replace(names)

	if cfg.Server.ShutdownGrace > 0 {
		httpserver.ShutdownTimeout = cfg.Server.ShutdownGrace
	}
	server := httpserver.NewServer(cfg.Server.Addr, db, sections, cache.NewScannerKeyCache(cfg.Server.ScannerKeyTTL), audit.NewService(), httpserver.Options{
		PerPage:        cfg.Client.PerPage,
		MaxUploadBytes: cfg.Server.MaxUploadMB << 20,
	})
	if err := server.Start(); err != nil {
		log.Fatalf("start server: %v", err)
	}
	slog.Info("barcode server listening",
		slog.String("addr", cfg.Server.Addr),
		slog.String("db", cfg.Storage.SQLitePath),
		slog.Int("sections", len(names)),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	if err := server.Stop(); err != nil {
		slog.Error("graceful shutdown failed", slog.Any("err", err))
	}
}
