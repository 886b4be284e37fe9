package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

// Schedule modes.
const (
	ScheduleInterval = "interval" // fixed period
	ScheduleHourly   = "hourly"   // top of every hour
)

// Broadcaster is the slice of the dispatcher the scheduler needs.
type Broadcaster interface {
	BroadcastAll(ctx context.Context) error
}

type SchedulerConfig struct {
	Mode      string        // ScheduleInterval or ScheduleHourly
	Interval  time.Duration // period in interval mode
	Location  *time.Location
	OpenHour  int // first broadcast hour, inclusive
	CloseHour int // last broadcast hour, inclusive
}

// Scheduler fires broadcasts on a timer, gated on the market being open.
// It holds no state beyond the timer; serialization of overlapping
// broadcasts lives in the dispatcher.
type Scheduler struct {
	broadcaster Broadcaster
	cfg         SchedulerConfig
}

func NewScheduler(b Broadcaster, cfg SchedulerConfig) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Mode == "" {
		cfg.Mode = ScheduleInterval
	}
	return &Scheduler{broadcaster: b, cfg: cfg}
}

// Run blocks until ctx is done. Hourly mode re-arms a timer toward the next
// top of hour so drift never accumulates.
func (s *Scheduler) Run(ctx context.Context) error {
	log.Info().
		Str("mode", s.cfg.Mode).
		Dur("interval", s.cfg.Interval).
		Int("open_hour", s.cfg.OpenHour).
		Int("close_hour", s.cfg.CloseHour).
		Msg("scheduler started")

	if s.cfg.Mode == ScheduleHourly {
		return s.runHourly(ctx)
	}
	return s.runInterval(ctx)
}

func (s *Scheduler) runInterval(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			s.tick(ctx, now)
		}
	}
}

func (s *Scheduler) runHourly(ctx context.Context) error {
	timer := time.NewTimer(untilNextHour(time.Now().In(s.cfg.Location)))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-timer.C:
			s.tick(ctx, now)
			timer.Reset(untilNextHour(time.Now().In(s.cfg.Location)))
		}
	}
}

// tick runs one firing: evaluate the market-open predicate, then broadcast.
// A tick landing while a broadcast is still in flight is skipped.
func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	if !s.marketOpen(now) {
		log.Debug().Time("now", now).Msg("market closed, skipping broadcast")
		return
	}
	if err := s.broadcaster.BroadcastAll(ctx); err != nil {
		if errors.Is(err, ErrBroadcastRunning) {
			log.Warn().Msg("previous broadcast still running, tick skipped")
			return
		}
		log.Error().Err(err).Msg("broadcast failed")
	}
}

// marketOpen is true on weekdays when the hour falls inside the configured
// window, evaluated in the configured timezone.
func (s *Scheduler) marketOpen(t time.Time) bool {
	local := t.In(s.cfg.Location)
	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	h := local.Hour()
	return h >= s.cfg.OpenHour && h <= s.cfg.CloseHour
}

func untilNextHour(now time.Time) time.Duration {
	next := now.Truncate(time.Hour).Add(time.Hour)
	return next.Sub(now)
}
