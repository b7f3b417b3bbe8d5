package main

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/KocBilge/barcode/infrastructure/scanclient"
)

type recordingSender struct {
	mu    sync.Mutex
	codes []string
}

func (s *recordingSender) Submit(_ context.Context, code, section string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes = append(s.codes, section+"/"+code)
	return scanclient.StatusOK, nil
}

func TestReadScansAppliesDedup(t *testing.T) {
	sender := &recordingSender{}
	sub := scanclient.NewSubmitter(sender, nil)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	sub.Now = func() time.Time { return now }

	input := strings.NewReader("A-1\nA-1\n\n  B-2  \nA-1\n")
	if err := readScans(context.Background(), input, sub, "dock"); err != nil {
		t.Fatalf("read scans: %v", err)
	}
	sub.Wait()

	sender.mu.Lock()
	defer sender.mu.Unlock()
	if len(sender.codes) != 3 {
		t.Fatalf("expected A-1, B-2, A-1 to be sent, got %v", sender.codes)
	}
	seen := map[string]int{}
	for _, c := range sender.codes {
		seen[c]++
	}
	if seen["dock/A-1"] != 2 || seen["dock/B-2"] != 1 {
		t.Fatalf("unexpected sends %v", sender.codes)
	}
}

func TestReadScansStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sub := scanclient.NewSubmitter(&recordingSender{}, nil)
	if err := readScans(ctx, strings.NewReader("X\n"), sub, "s"); err != nil {
		t.Fatalf("expected clean stop, got %v", err)
	}
	sub.Wait()
}
