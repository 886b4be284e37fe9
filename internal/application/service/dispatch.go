package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"tickerbot/internal/application/port"
	"tickerbot/internal/domain"
)

// ErrBroadcastRunning is returned when a broadcast is requested while the
// previous one is still in flight. Broadcasts never run in parallel.
var ErrBroadcastRunning = errors.New("broadcast already running")

// Broadcast target modes.
const (
	ModeFixed       = "fixed"
	ModeSubscribers = "subscribers"
)

const helpText = "Available commands:\n" +
	"quote <code> - price for one symbol\n" +
	"fixed - prices for the fixed watchlist\n" +
	"list - prices for your subscribed symbols\n" +
	"add <code> - subscribe to a symbol\n" +
	"remove <code> - unsubscribe from a symbol\n" +
	"push - broadcast now\n" +
	"help - this list"

const broadcastHeader = "Latest quotes:"

type DispatcherDeps struct {
	Registry      port.Registry
	Quotes        port.QuoteProvider
	Messenger     port.Messenger
	Fixed         []domain.Symbol
	BroadcastMode string   // ModeFixed or ModeSubscribers
	Recipients    []string // push targets in ModeFixed
	FetchLimit    int      // concurrent quote lookups per reply
	PushLimit     int      // concurrent pushes per broadcast
}

// Dispatcher executes parsed commands against the registry and the quote
// chain, and owns the broadcast path used by the scheduler.
type Dispatcher struct {
	deps DispatcherDeps

	broadcastMu sync.Mutex
}

func NewDispatcher(deps DispatcherDeps) *Dispatcher {
	if deps.FetchLimit <= 0 {
		deps.FetchLimit = 4
	}
	if deps.PushLimit <= 0 {
		deps.PushLimit = 4
	}
	if deps.BroadcastMode == "" {
		deps.BroadcastMode = ModeFixed
	}
	return &Dispatcher{deps: deps}
}

// Handle parses one inbound chat message and returns the reply text. It
// never returns an error: every failure becomes a user-visible message.
func (d *Dispatcher) Handle(ctx context.Context, subscriber, text string) string {
	cmd := domain.ParseCommand(text)

	switch cmd.Kind {
	case domain.CmdHelp:
		return helpText

	case domain.CmdQueryFixed:
		if len(d.deps.Fixed) == 0 {
			return "no fixed watchlist is configured"
		}
		return strings.Join(d.fetchLines(ctx, d.deps.Fixed), "\n")

	case domain.CmdQuerySubscribed:
		symbols := d.deps.Registry.List(subscriber)
		if len(symbols) == 0 {
			return "you have no subscribed symbols, use: add <code>"
		}
		return strings.Join(d.fetchLines(ctx, symbols), "\n")

	case domain.CmdQuerySymbol:
		if cmd.Arg == "" {
			return "usage: quote <code>"
		}
		symbol := domain.NormalizeSymbol(cmd.Arg)
		q, err := d.deps.Quotes.Fetch(ctx, symbol)
		if err != nil {
			log.Warn().Err(err).Str("symbol", symbol.String()).Msg("quote lookup failed")
			return fmt.Sprintf("price unavailable for %s, check the code", symbol)
		}
		return quoteLine(q)

	case domain.CmdAddSymbol:
		if cmd.Arg == "" {
			return "usage: add <code>"
		}
		symbol := domain.NormalizeSymbol(cmd.Arg)
		if err := d.deps.Registry.Add(subscriber, symbol); err != nil {
			if errors.Is(err, port.ErrCapacity) {
				return fmt.Sprintf("watchlist is full (max %d symbols), remove one first", port.MaxSymbols)
			}
			log.Error().Err(err).Str("subscriber", subscriber).Msg("add failed")
			return "could not add the symbol, try again later"
		}
		return fmt.Sprintf("subscribed to %s", symbol)

	case domain.CmdRemoveSymbol:
		if cmd.Arg == "" {
			return "usage: remove <code>"
		}
		symbol := domain.NormalizeSymbol(cmd.Arg)
		if !d.deps.Registry.Remove(subscriber, symbol) {
			return fmt.Sprintf("%s is not in your watchlist", symbol)
		}
		return fmt.Sprintf("removed %s", symbol)

	case domain.CmdPushNow:
		if !d.broadcastMu.TryLock() {
			return "a broadcast is already running"
		}
		go func(ctx context.Context) {
			defer d.broadcastMu.Unlock()
			d.broadcastLocked(ctx)
		}(context.WithoutCancel(ctx))
		return "broadcast started"

	default:
		return "unknown command, send 'help' for the command list"
	}
}

// BroadcastAll pushes current prices to every target of the configured
// mode. Concurrent invocations are rejected, not queued.
func (d *Dispatcher) BroadcastAll(ctx context.Context) error {
	if !d.broadcastMu.TryLock() {
		return ErrBroadcastRunning
	}
	defer d.broadcastMu.Unlock()
	d.broadcastLocked(ctx)
	return nil
}

// broadcastLocked does one full fan-out. Push failures are logged and
// isolated per subscriber; they never abort the remaining deliveries.
func (d *Dispatcher) broadcastLocked(ctx context.Context) {
	switch d.deps.BroadcastMode {
	case ModeSubscribers:
		subscribers := d.deps.Registry.Subscribers()
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(d.deps.PushLimit)
		for _, sub := range subscribers {
			g.Go(func() error {
				symbols := d.deps.Registry.List(sub)
				if len(symbols) == 0 {
					return nil
				}
				text := broadcastHeader + "\n" + strings.Join(d.fetchLines(gctx, symbols), "\n")
				d.push(gctx, sub, text)
				return nil
			})
		}
		_ = g.Wait()
		log.Info().Int("subscribers", len(subscribers)).Msg("broadcast done")

	default: // ModeFixed
		if len(d.deps.Fixed) == 0 || len(d.deps.Recipients) == 0 {
			log.Warn().Msg("fixed broadcast has no symbols or recipients")
			return
		}
		text := broadcastHeader + "\n" + strings.Join(d.fetchLines(ctx, d.deps.Fixed), "\n")
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(d.deps.PushLimit)
		for _, to := range d.deps.Recipients {
			g.Go(func() error {
				d.push(gctx, to, text)
				return nil
			})
		}
		_ = g.Wait()
		log.Info().Int("recipients", len(d.deps.Recipients)).Msg("broadcast done")
	}
}

func (d *Dispatcher) push(ctx context.Context, to, text string) {
	if err := d.deps.Messenger.Push(ctx, to, text); err != nil {
		log.Error().Err(err).Str("to", to).Msg("push failed")
	}
}

// fetchLines resolves each symbol concurrently and renders one line per
// symbol in input order. A failed lookup degrades to an unavailable line.
func (d *Dispatcher) fetchLines(ctx context.Context, symbols []domain.Symbol) []string {
	lines := make([]string, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.deps.FetchLimit)
	for i, symbol := range symbols {
		g.Go(func() error {
			q, err := d.deps.Quotes.Fetch(gctx, symbol)
			if err != nil {
				log.Warn().Err(err).Str("symbol", symbol.String()).Msg("quote lookup failed")
				lines[i] = fmt.Sprintf("%s: price unavailable", symbol)
				return nil
			}
			lines[i] = quoteLine(q)
			return nil
		})
	}
	_ = g.Wait()
	return lines
}

func quoteLine(q domain.Quote) string {
	return fmt.Sprintf("%s (%s): %.2f %s", q.DisplayName(), q.Symbol, q.Price, q.Unit)
}
