package engine

import (
	"time"

	"github.com/user/worktrack/internal/types"
)

const (
	DefaultCaptureInterval = 1800 * time.Second
	defaultPollInterval    = time.Second
	defaultStatsInterval   = time.Second
)

// WeekCatalog lists the recorded weeks.
type WeekCatalog interface {
	AvailableWeeks() ([]types.WeeklyStatView, error)
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithCapture enables the capture loop. Every interval of running time a
// snapshot is taken by capturer and stored in records.
func WithCapture(capturer types.Capturer, records types.RecordStore, interval time.Duration) Option {
	return func(e *Engine) {
		e.capturer = capturer
		e.records = records
		if interval > 0 {
			e.interval = interval
		}
	}
}

// WithCatalog sets the source for AvailableWeeks.
func WithCatalog(c WeekCatalog) Option {
	return func(e *Engine) { e.catalog = c }
}

// WithPollInterval sets how often the capture loop re-checks the session
// state while waiting for the next cycle.
func WithPollInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.poll = d
		}
	}
}

// WithStatsInterval sets the stats loop period.
func WithStatsInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.statsEvery = d
		}
	}
}
