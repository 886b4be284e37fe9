package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingBroadcaster struct {
	calls atomic.Int32
	err   error
}

func (c *countingBroadcaster) BroadcastAll(ctx context.Context) error {
	c.calls.Add(1)
	return c.err
}

func taipeiScheduler(b Broadcaster) *Scheduler {
	loc, _ := time.LoadLocation("Asia/Taipei")
	return NewScheduler(b, SchedulerConfig{
		Mode:      ScheduleInterval,
		Interval:  time.Hour,
		Location:  loc,
		OpenHour:  9,
		CloseHour: 13,
	})
}

func TestMarketOpenPredicate(t *testing.T) {
	s := taipeiScheduler(&countingBroadcaster{})
	loc := s.cfg.Location

	cases := []struct {
		name string
		at   time.Time
		open bool
	}{
		{"monday mid-window", time.Date(2026, 1, 5, 10, 30, 0, 0, loc), true},
		{"monday open hour", time.Date(2026, 1, 5, 9, 0, 0, 0, loc), true},
		{"monday close hour inclusive", time.Date(2026, 1, 5, 13, 59, 0, 0, loc), true},
		{"monday before open", time.Date(2026, 1, 5, 8, 59, 0, 0, loc), false},
		{"monday after close", time.Date(2026, 1, 5, 14, 0, 0, 0, loc), false},
		{"saturday", time.Date(2026, 1, 3, 10, 0, 0, 0, loc), false},
		{"sunday", time.Date(2026, 1, 4, 10, 0, 0, 0, loc), false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.open, s.marketOpen(tc.at), tc.name)
	}
}

func TestMarketOpenConvertsTimezone(t *testing.T) {
	s := taipeiScheduler(&countingBroadcaster{})
	// 02:00 UTC on a Monday is 10:00 in Taipei: open.
	assert.True(t, s.marketOpen(time.Date(2026, 1, 5, 2, 0, 0, 0, time.UTC)))
	// 10:00 UTC is 18:00 in Taipei: closed.
	assert.False(t, s.marketOpen(time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)))
}

func TestTickSkipsWhenMarketClosed(t *testing.T) {
	b := &countingBroadcaster{}
	s := taipeiScheduler(b)

	s.tick(context.Background(), time.Date(2026, 1, 3, 10, 0, 0, 0, s.cfg.Location))
	assert.Equal(t, int32(0), b.calls.Load(), "no broadcast outside market hours")

	s.tick(context.Background(), time.Date(2026, 1, 5, 10, 0, 0, 0, s.cfg.Location))
	assert.Equal(t, int32(1), b.calls.Load())
}

func TestTickToleratesRunningBroadcast(t *testing.T) {
	b := &countingBroadcaster{err: ErrBroadcastRunning}
	s := taipeiScheduler(b)

	// must not panic or retry; the tick is simply dropped
	s.tick(context.Background(), time.Date(2026, 1, 5, 10, 0, 0, 0, s.cfg.Location))
	assert.Equal(t, int32(1), b.calls.Load())
}

func TestUntilNextHour(t *testing.T) {
	now := time.Date(2026, 1, 5, 10, 15, 30, 0, time.UTC)
	assert.Equal(t, 44*time.Minute+30*time.Second, untilNextHour(now))

	top := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Hour, untilNextHour(top))
}

func TestRunStopsOnContextCancel(t *testing.T) {
	s := taipeiScheduler(&countingBroadcaster{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
