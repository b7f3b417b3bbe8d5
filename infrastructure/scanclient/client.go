package scanclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/KocBilge/barcode/frontend/listview"
)

// ScannerKeyHeader authenticates device submissions in place of a CSRF token.
const ScannerKeyHeader = "X-Scanner-Key"

// Server replies to POST /scan.
const (
	StatusOK             = "OK"
	StatusAlreadyExists  = "ALREADY EXISTS"
	StatusInvalidSection = "INVALID SECTION"
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Body)
}

// Client talks to the barcode server over HTTP.
type Client struct {
	baseURL    string
	scannerKey string
	client     *http.Client
}

func New(baseURL, scannerKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		scannerKey: scannerKey,
		client:     &http.Client{Timeout: timeout},
	}
}

// FetchLatest returns every section with its records as served by /get_latest_barcodes.
// A null timestamp decodes to "".
func (c *Client) FetchLatest(ctx context.Context) (map[string][]listview.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/get_latest_barcodes", nil)
	if err != nil {
		return nil, fmt.Errorf("build fetch request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch latest: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	data := make(map[string][]listview.Record)
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode latest: %w", err)
	}
	return data, nil
}

type scanRequest struct {
	Code    string `json:"code"`
	Section string `json:"section"`
}

// Submit posts one scan and returns the server reply ("OK" or "ALREADY EXISTS").
func (c *Client) Submit(ctx context.Context, code, section string) (string, error) {
	body, err := json.Marshal(scanRequest{Code: code, Section: section})
	if err != nil {
		return "", fmt.Errorf("encode scan: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/scan", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build scan request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.scannerKey != "" {
		req.Header.Set(ScannerKeyHeader, c.scannerKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("submit scan: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", statusError(resp)
	}
	reply, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if err != nil {
		return "", fmt.Errorf("read scan reply: %w", err)
	}
	return strings.TrimSpace(string(reply)), nil
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}
