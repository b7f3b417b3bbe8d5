package context

import (
	"context"
)

type scannerKey struct{}

// NewContextWithScanner marks the request as coming from an authenticated scanning device.
func NewContextWithScanner(ctx context.Context, device string) context.Context {
	return context.WithValue(ctx, scannerKey{}, device)
}

func GetScannerFromContext(ctx context.Context) (string, bool) {
	d, ok := ctx.Value(scannerKey{}).(string)
	return d, ok && d != ""
}

// Actor names whoever made the request for the audit log.
func Actor(ctx context.Context) string {
	if d, ok := GetScannerFromContext(ctx); ok {
		return "scanner:" + d
	}
	return "browser"
}
