package port

import (
	"errors"

	"tickerbot/internal/domain"
)

// MaxSymbols is the hard per-subscriber watchlist cap.
const MaxSymbols = 10

// ErrCapacity is returned when an add would push a watchlist past
// MaxSymbols.
var ErrCapacity = errors.New("watchlist full")

// Registry stores per-subscriber watchlists. All methods are safe under
// unbounded concurrent callers; operations for one subscriber are
// linearizable.
type Registry interface {
	// Add appends the symbol unless present (idempotent) or the watchlist
	// is full, in which case it returns ErrCapacity.
	Add(subscriber string, symbol domain.Symbol) error
	// Remove reports whether the symbol was present.
	Remove(subscriber string, symbol domain.Symbol) bool
	// List returns the watchlist in insertion order; possibly empty.
	List(subscriber string) []domain.Symbol
	// Subscribers snapshots every known subscriber id.
	Subscribers() []string
}
