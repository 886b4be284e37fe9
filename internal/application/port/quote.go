package port

import (
	"context"

	"tickerbot/internal/domain"
)

// QuoteProvider resolves the latest price for one symbol. Implementations
// absorb upstream schema differences and return a *domain.QuoteError on
// failure; calls must be time-bounded via ctx and the underlying transport.
type QuoteProvider interface {
	Name() string
	Fetch(ctx context.Context, symbol domain.Symbol) (domain.Quote, error)
}
