// Package marketdata provides normalized market snapshots for tokens from an
// external market-data source.
package marketdata

import (
	"context"
	"errors"

	"solana-signal-engine/internal/domain"
)

// ErrUnavailable is returned when the data source cannot supply a snapshot
// (timeout, non-200, malformed payload, unknown token). Callers must treat it
// as "missing data", never as a zero-valued snapshot.
var ErrUnavailable = errors.New("market data unavailable")

// Client fetches market snapshots from an external provider.
type Client interface {
	// FetchSnapshot returns the current snapshot for a contract address.
	// Returns ErrUnavailable when the source cannot supply it.
	FetchSnapshot(ctx context.Context, address string) (*domain.MarketSnapshot, error)

	// Search returns snapshots for pairs matching a free-text term.
	// A term with no matches returns an empty slice, not an error.
	Search(ctx context.Context, term string) ([]*domain.MarketSnapshot, error)
}
