package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/KocBilge/barcode/frontend/listview"
)

type manualTicker struct {
	ch chan time.Time
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }

func (t *manualTicker) Stop() {}

type manualClock struct {
	mu      sync.Mutex
	tickers map[time.Duration][]*manualTicker
	created chan time.Duration
}

func newManualClock() *manualClock {
	return &manualClock{tickers: make(map[time.Duration][]*manualTicker), created: make(chan time.Duration, 4)}
}

func (c *manualClock) NewTicker(d time.Duration) Ticker {
	t := &manualTicker{ch: make(chan time.Time, 1)}
	c.mu.Lock()
	c.tickers[d] = append(c.tickers[d], t)
	c.mu.Unlock()
	c.created <- d
	return t
}

func (c *manualClock) fire(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.tickers[d] {
		t.ch <- time.Now()
	}
}

type stubFetcher struct {
	mu   sync.Mutex
	data map[string][]listview.Record
	err  error
}

func (f *stubFetcher) set(data map[string][]listview.Record, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data, f.err = data, err
}

func (f *stubFetcher) FetchLatest(ctx context.Context) (map[string][]listview.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string][]listview.Record, len(f.data))
	for k, v := range f.data {
		out[k] = append([]listview.Record(nil), v...)
	}
	return out, nil
}

type opError struct {
	op  string
	err error
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for poller callback")
	}
	var zero T
	return zero
}

func startRefresher(t *testing.T, fetcher Fetcher) (*Refresher, *manualClock, chan []listview.SectionView, chan []listview.RecentEntry, chan opError) {
	t.Helper()
	clock := newManualClock()
	controller := listview.NewController(nil)
	controller.Location = time.UTC

	refreshed := make(chan []listview.SectionView, 4)
	recent := make(chan []listview.RecentEntry, 4)
	failures := make(chan opError, 4)

	r := New(fetcher, controller, clock)
	r.OnRefresh = func(v []listview.SectionView) { refreshed <- v }
	r.OnRecent = func(e []listview.RecentEntry) { recent <- e }
	r.OnError = func(op string, err error) { failures <- opError{op: op, err: err} }

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(r.Stop)

	receive(t, clock.created)
	receive(t, clock.created)
	return r, clock, refreshed, recent, failures
}

func TestRefresher_RefreshesOnEachTick(t *testing.T) {
	fetcher := &stubFetcher{}
	fetcher.set(map[string][]listview.Record{"shelf-a": {{Code: "A", Timestamp: "2024-01-01T10:00:00"}}}, nil)

	r, clock, refreshed, recent, _ := startRefresher(t, fetcher)

	first := receive(t, refreshed)
	if len(first) != 1 || len(first[0].Entries) != 1 {
		t.Fatalf("unexpected initial views %+v", first)
	}
	receive(t, recent)

	r.Controller().ApplyTextFilter("shelf-a", "zzz")
	fetcher.set(map[string][]listview.Record{"shelf-a": {
		{Code: "A", Timestamp: "2024-01-01T10:00:00"},
		{Code: "B", Timestamp: "2024-01-02T10:00:00"},
	}}, nil)
	clock.fire(DefaultRefreshInterval)

	views := receive(t, refreshed)
	if len(views) != 1 || views[0].Pagination.Page != 1 || len(views[0].Entries) != 2 {
		t.Fatalf("expected page 1 with both records, got %+v", views)
	}
	if _, ok := r.Controller().Store().GetFiltered("shelf-a"); ok {
		t.Fatalf("expected refresh to drop the filtered view")
	}

	clock.fire(DefaultRecentInterval)
	entries := receive(t, recent)
	if len(entries) != 2 || entries[0].Code != "B" {
		t.Fatalf("expected newest first, got %+v", entries)
	}
}

func TestRefresher_ReportsFailuresAndKeepsTicking(t *testing.T) {
	boom := errors.New("unreachable")
	fetcher := &stubFetcher{}
	fetcher.set(nil, boom)

	_, clock, refreshed, _, failures := startRefresher(t, fetcher)

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		f := receive(t, failures)
		if !errors.Is(f.err, boom) {
			t.Fatalf("unexpected error %v", f.err)
		}
		seen[f.op] = true
	}
	if !seen[OpRefresh] || !seen[OpRecent] {
		t.Fatalf("expected both loops to report, got %v", seen)
	}

	fetcher.set(map[string][]listview.Record{"s": {}}, nil)
	clock.fire(DefaultRefreshInterval)
	views := receive(t, refreshed)
	if len(views) != 1 || len(views[0].Entries) != 0 {
		t.Fatalf("expected recovery on next tick, got %+v", views)
	}
}

func TestRefresher_StartTwiceAndStopIdempotent(t *testing.T) {
	fetcher := &stubFetcher{}
	fetcher.set(map[string][]listview.Record{}, nil)

	r, _, _, _, _ := startRefresher(t, fetcher)
	if err := r.Start(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
	r.Stop()
	r.Stop()
}
