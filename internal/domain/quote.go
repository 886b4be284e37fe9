package domain

import (
	"fmt"
	"time"
)

// Quote is the latest resolved price for one symbol. Quotes are fetched per
// request and never cached.
type Quote struct {
	Symbol Symbol
	Name   string
	Price  float64
	Unit   string
	Time   time.Time
	Source string
}

// DisplayName falls back to the bare code when the upstream has no name.
func (q Quote) DisplayName() string {
	if q.Name != "" {
		return q.Name
	}
	return q.Symbol.Code()
}

// QuoteReason classifies why a lookup failed.
type QuoteReason int

const (
	ReasonUnavailable QuoteReason = iota
	ReasonNotFound
	ReasonRateLimited
)

func (r QuoteReason) String() string {
	switch r {
	case ReasonNotFound:
		return "not_found"
	case ReasonRateLimited:
		return "rate_limited"
	default:
		return "unavailable"
	}
}

// QuoteError is the typed outcome of a failed lookup. All reasons are
// non-fatal: callers render an "unavailable" line instead of propagating.
type QuoteError struct {
	Symbol Symbol
	Reason QuoteReason
	Err    error
}

func (e *QuoteError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("quote %s: %s: %v", e.Symbol, e.Reason, e.Err)
	}
	return fmt.Sprintf("quote %s: %s", e.Symbol, e.Reason)
}

func (e *QuoteError) Unwrap() error { return e.Err }

// NewQuoteError wraps a cause with a reason for one symbol.
func NewQuoteError(symbol Symbol, reason QuoteReason, err error) *QuoteError {
	return &QuoteError{Symbol: symbol, Reason: reason, Err: err}
}
