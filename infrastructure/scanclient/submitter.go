package scanclient

import (
	"context"
	"strings"
	"sync"
	"time"
)

// DefaultDedupWindow suppresses repeats of the same code.
const DefaultDedupWindow = 3000 * time.Millisecond

// Sender delivers one scan. *Client satisfies it.
type Sender interface {
	Submit(ctx context.Context, code, section string) (string, error)
}

// Result is the outcome of one accepted submission.
type Result struct {
	Code    string
	Section string
	Status  string
	Err     error
}

type StatusFunc func(Result)

// Submitter applies the de-dup policy to decoded codes and sends accepted ones
// in the background. Failures are only reported, never retried.
type Submitter struct {
	sender   Sender
	onStatus StatusFunc

	Window  time.Duration
	Timeout time.Duration
	Now     func() time.Time

	mu       sync.Mutex
	lastCode string
	lastAt   time.Time
	sent     bool

	wg sync.WaitGroup
}

func NewSubmitter(sender Sender, onStatus StatusFunc) *Submitter {
	return &Submitter{
		sender:   sender,
		onStatus: onStatus,
		Window:   DefaultDedupWindow,
		Timeout:  10 * time.Second,
		Now:      time.Now,
	}
}

// Accept reports whether code was submitted. A code is sent when it differs from the
// previous submission or when at least Window has passed since that submission.
func (s *Submitter) Accept(code, section string) bool {
	code = strings.TrimSpace(code)
	if code == "" {
		return false
	}

	s.mu.Lock()
	now := s.Now()
	if s.sent && code == s.lastCode && now.Sub(s.lastAt) < s.Window {
		s.mu.Unlock()
		return false
	}
	s.lastCode = code
	s.lastAt = now
	s.sent = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.send(code, section)
	return true
}

func (s *Submitter) send(code, section string) {
	defer s.wg.Done()
	ctx, cancel := context.WithTimeout(context.Background(), s.Timeout)
	defer cancel()

	status, err := s.sender.Submit(ctx, code, section)
	if s.onStatus != nil {
		s.onStatus(Result{Code: code, Section: section, Status: status, Err: err})
	}
}

// Wait blocks until every in-flight submission has finished.
func (s *Submitter) Wait() {
	s.wg.Wait()
}
