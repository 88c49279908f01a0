// Package providers contains the market data vendor adapters. Every
// adapter normalizes vendor payloads into ascending contracts.Bar
// series and maps vendor error conventions onto the shared sentinels,
// so the scanner can fall back between vendors without knowing them.
package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/swingscan/swingscan/internal/contracts"
)

// Sentinel errors shared by all adapters. Callers match with errors.Is.
var (
	// ErrRateLimited means the vendor throttled us; retry later or fall
	// back to another provider.
	ErrRateLimited = errors.New("provider rate limited")

	// ErrSymbolNotFound means the vendor does not know the symbol.
	// Not retryable and not a reason to fall back.
	ErrSymbolNotFound = errors.New("symbol not found")

	// ErrUnavailable covers vendor-side failures and auth problems.
	ErrUnavailable = errors.New("provider unavailable")
)

// Provider fetches daily bar data for one symbol at a time.
type Provider interface {
	// Name identifies the vendor in logs and scan provenance.
	Name() string

	// DailyBars returns up to limit daily bars in ascending timestamp
	// order, ending at the most recent completed session.
	DailyBars(ctx context.Context, symbol string, limit int) ([]contracts.Bar, error)
}

// BatchProvider is implemented by vendors whose API accepts multiple
// symbols per request. The scanner prefers it when present.
type BatchProvider interface {
	Provider

	// DailyBarsBatch returns bars for many symbols in one round trip.
	// Symbols missing from the result were unknown to the vendor.
	DailyBarsBatch(ctx context.Context, symbols []string, limit int) (map[string][]contracts.Bar, error)
}

// MetaProvider is implemented by vendors that can describe a symbol.
// Best effort: fields the vendor does not carry stay empty, and callers
// treat a failed lookup as "no metadata", never as a scan failure.
type MetaProvider interface {
	Provider

	Meta(ctx context.Context, symbol string) (*contracts.TickerMeta, error)
}

// statusError maps a non-200 vendor response onto a sentinel.
func statusError(vendor string, resp *http.Response) error {
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w", vendor, ErrRateLimited)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", vendor, ErrSymbolNotFound)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%s: auth rejected (%d): %w", vendor, resp.StatusCode, ErrUnavailable)
	default:
		return fmt.Errorf("%s: unexpected status %d (%s): %w",
			vendor, resp.StatusCode, string(body), ErrUnavailable)
	}
}
