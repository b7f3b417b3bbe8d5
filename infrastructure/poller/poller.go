package poller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/KocBilge/barcode/frontend/listview"
)

const (
	DefaultRefreshInterval = 5 * time.Second
	DefaultRecentInterval  = 10 * time.Second

	OpRefresh = "refresh"
	OpRecent  = "recent"
)

var ErrAlreadyRunning = errors.New("poller already running")

// Fetcher returns the full section -> records map from the server.
type Fetcher interface {
	FetchLatest(ctx context.Context) (map[string][]listview.Record, error)
}

// Refresher runs the two polling loops: the section refresh and the recent-activity feed.
// Each tick fetches once; a failed fetch is reported and the next tick proceeds.
type Refresher struct {
	fetcher    Fetcher
	controller *listview.Controller
	clock      Clock

	RefreshInterval time.Duration
	RecentInterval  time.Duration
	RecentLimit     int

	OnRefresh func(views []listview.SectionView)
	OnRecent  func(entries []listview.RecentEntry)
	OnError   func(op string, err error)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(fetcher Fetcher, controller *listview.Controller, clock Clock) *Refresher {
	if clock == nil {
		clock = SystemClock{}
	}
	if controller == nil {
		controller = listview.NewController(nil)
	}
	return &Refresher{
		fetcher:         fetcher,
		controller:      controller,
		clock:           clock,
		RefreshInterval: DefaultRefreshInterval,
		RecentInterval:  DefaultRecentInterval,
		RecentLimit:     listview.DefaultRecentLimit,
	}
}

func (r *Refresher) Controller() *listview.Controller {
	return r.controller
}

// Start launches Run in the background until Stop or ctx cancellation.
func (r *Refresher) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done != nil {
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	r.cancel = cancel
	r.done = done
	go func() {
		defer close(done)
		if err := r.Run(ctx); err != nil {
			slog.Error("poller stopped", slog.Any("err", err))
		}
	}()
	return nil
}

// Stop cancels the loops and waits for them to exit. It is safe to call more than once.
func (r *Refresher) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Run blocks until ctx is done. It refreshes once immediately, then on every tick.
func (r *Refresher) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r.loop(ctx, r.RefreshInterval, DefaultRefreshInterval, r.RefreshOnce)
		return nil
	})
	g.Go(func() error {
		r.loop(ctx, r.RecentInterval, DefaultRecentInterval, r.RecentOnce)
		return nil
	})
	return g.Wait()
}

func (r *Refresher) loop(ctx context.Context, interval, fallback time.Duration, step func(context.Context) error) {
	if interval <= 0 {
		interval = fallback
	}
	ticker := r.clock.NewTicker(interval)
	defer ticker.Stop()

	_ = step(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			_ = step(ctx)
		}
	}
}

// RefreshOnce fetches, replaces every section's raw records and publishes page 1 of each.
func (r *Refresher) RefreshOnce(ctx context.Context) error {
	data, err := r.fetcher.FetchLatest(ctx)
	if err != nil {
		r.report(ctx, OpRefresh, err)
		return err
	}
	views := r.controller.Refresh(data)
	if r.OnRefresh != nil {
		r.OnRefresh(views)
	}
	return nil
}

// RecentOnce fetches and publishes the newest entries across all sections.
func (r *Refresher) RecentOnce(ctx context.Context) error {
	data, err := r.fetcher.FetchLatest(ctx)
	if err != nil {
		r.report(ctx, OpRecent, err)
		return err
	}
	entries := listview.Recent(data, r.RecentLimit, r.controller.Location)
	if r.OnRecent != nil {
		r.OnRecent(entries)
	}
	return nil
}

func (r *Refresher) report(ctx context.Context, op string, err error) {
	if ctx.Err() != nil {
		return
	}
	if r.OnError != nil {
		r.OnError(op, err)
		return
	}
	slog.Warn("poll failed", slog.String("op", op), slog.Any("err", err))
}
