package quotes

import (
	"context"
	"errors"
	"time"

	"fx-arbitrage-service/internal/models"
)

// ErrSourceUnavailable reports that one or more quote sources failed for a
// symbol. A provider may still return the quotes it did obtain alongside
// this error; the scanner pairs whatever arrived.
var ErrSourceUnavailable = errors.New("quote source unavailable")

// Clock supplies the current time. Injected so tests control timestamps.
type Clock func() time.Time

// Provider returns current price quotes for a symbol from a fixed set of
// named sources.
type Provider interface {
	// Sources returns the names of the configured quote sources.
	Sources() []string

	// GetQuotes returns one quote per available source for the symbol.
	// A partial result with ErrSourceUnavailable means some sources were
	// down; any other error means the fetch failed entirely.
	GetQuotes(ctx context.Context, symbol string) ([]models.PriceQuote, error)
}
