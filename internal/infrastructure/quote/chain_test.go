package quote

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickerbot/internal/domain"
)

type stubProvider struct {
	name  string
	quote domain.Quote
	err   error
	calls int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Fetch(ctx context.Context, symbol domain.Symbol) (domain.Quote, error) {
	s.calls++
	if s.err != nil {
		return domain.Quote{}, s.err
	}
	q := s.quote
	q.Symbol = symbol
	return q, nil
}

func TestChainReturnsFirstSuccess(t *testing.T) {
	first := &stubProvider{name: "a", quote: domain.Quote{Price: 10, Source: "a"}}
	second := &stubProvider{name: "b", quote: domain.Quote{Price: 20, Source: "b"}}
	c := NewChain(first, second)

	q, err := c.Fetch(context.Background(), "2330.TW")
	require.NoError(t, err)
	assert.Equal(t, "a", q.Source)
	assert.Equal(t, 0, second.calls, "lower-priority provider must not be called")
}

func TestChainFallsBackInPriorityOrder(t *testing.T) {
	first := &stubProvider{name: "a", err: domain.NewQuoteError("2330.TW", domain.ReasonUnavailable, errors.New("down"))}
	second := &stubProvider{name: "b", quote: domain.Quote{Price: 20, Source: "b"}}
	c := NewChain(first, second)

	q, err := c.Fetch(context.Background(), "2330.TW")
	require.NoError(t, err)
	assert.Equal(t, "b", q.Source)
	assert.Equal(t, 1, first.calls)
}

func TestChainPrefersNotFoundOverTransient(t *testing.T) {
	first := &stubProvider{name: "a", err: domain.NewQuoteError("XXXX", domain.ReasonNotFound, errors.New("unknown symbol"))}
	second := &stubProvider{name: "b", err: domain.NewQuoteError("XXXX", domain.ReasonUnavailable, errors.New("down"))}
	c := NewChain(first, second)

	_, err := c.Fetch(context.Background(), "XXXX")
	var qe *domain.QuoteError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, domain.ReasonNotFound, qe.Reason)
}

func TestChainWithoutProviders(t *testing.T) {
	c := NewChain()
	_, err := c.Fetch(context.Background(), "2330.TW")
	var qe *domain.QuoteError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, domain.ReasonUnavailable, qe.Reason)
}
