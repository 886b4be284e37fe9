package quote

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"tickerbot/internal/application/port"
	"tickerbot/internal/domain"
)

// Chain tries providers in fixed priority order and returns the first
// success. No retries, no backoff, no result merging: one failure per
// provider per call is terminal for that call.
type Chain struct {
	providers []port.QuoteProvider
}

func NewChain(providers ...port.QuoteProvider) *Chain {
	return &Chain{providers: providers}
}

func (c *Chain) Name() string { return "chain" }

func (c *Chain) Fetch(ctx context.Context, symbol domain.Symbol) (domain.Quote, error) {
	if len(c.providers) == 0 {
		return domain.Quote{}, domain.NewQuoteError(symbol, domain.ReasonUnavailable, errors.New("no providers configured"))
	}

	var notFound, last error
	for _, p := range c.providers {
		q, err := p.Fetch(ctx, symbol)
		if err == nil {
			return q, nil
		}
		last = err

		var qe *domain.QuoteError
		if errors.As(err, &qe) && qe.Reason == domain.ReasonNotFound {
			notFound = err
		}
		log.Debug().Err(err).Str("provider", p.Name()).Str("symbol", symbol.String()).Msg("provider miss, trying next")
	}

	// A NotFound from any provider is a better signal to the user than a
	// transient failure from the last one.
	if notFound != nil {
		return domain.Quote{}, notFound
	}
	if last != nil {
		return domain.Quote{}, last
	}
	return domain.Quote{}, domain.NewQuoteError(symbol, domain.ReasonUnavailable, fmt.Errorf("all providers failed"))
}
