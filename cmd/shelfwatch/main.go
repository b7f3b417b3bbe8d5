package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/KocBilge/barcode/frontend/listview"
	"github.com/KocBilge/barcode/infrastructure/config"
	"github.com/KocBilge/barcode/infrastructure/poller"
	"github.com/KocBilge/barcode/infrastructure/scanclient"
)

func main() {
	section := flag.String("section", "", "only show this section")
	query := flag.String("q", "", "text filter for -section")
	start := flag.String("start", "", "date filter start, YYYY-MM-DD")
	end := flag.String("end", "", "date filter end, YYYY-MM-DD")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	client := scanclient.New(cfg.Client.BaseURL, cfg.Scanner.Key, cfg.Client.Timeout)
	controller := listview.NewController(listview.NewStore())
	controller.KeepFilters = cfg.Client.KeepFilters
	if cfg.Client.PerPage > 0 {
		controller.PerPage = cfg.Client.PerPage
	}

	screen := &screen{out: os.Stdout, only: *section}
	filters := filterFlags{section: *section, query: *query, start: *start, end: *end}

	refresher := poller.New(client, controller, nil)
	refresher.RefreshInterval = cfg.Client.RefreshInterval
	refresher.RecentInterval = cfg.Client.RecentInterval

	var mu sync.Mutex
	refresher.OnRefresh = func(views []listview.SectionView) {
		mu.Lock()
		defer mu.Unlock()
		if filters.apply(controller) {
			views = controller.Views(1)
		}
		screen.sections(views)
	}
	refresher.OnRecent = func(entries []listview.RecentEntry) {
		mu.Lock()
		defer mu.Unlock()
		screen.recent(entries)
	}
	refresher.OnError = func(op string, err error) {
		slog.Warn("poll failed", slog.String("op", op), slog.String("server", cfg.Client.BaseURL), slog.Any("err", err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := refresher.Start(ctx); err != nil {
		log.Fatalf("start poller: %v", err)
	}
	slog.Info("watching", slog.String("server", cfg.Client.BaseURL), slog.Duration("every", refresher.RefreshInterval))

	<-ctx.Done()
	refresher.Stop()
}
