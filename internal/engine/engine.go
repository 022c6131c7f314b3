// Package engine owns the session clock. It tracks active work time into
// weekday and weekend buckets for the current ISO week, persists them
// through a StatStore, and drives the periodic capture and stats loops.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/user/worktrack/internal/calendar"
	"github.com/user/worktrack/internal/types"
)

// ErrClosed is returned by Start after Cleanup.
var ErrClosed = errors.New("engine closed")

// Stats is a point-in-time view of the current week including the live
// segment.
type Stats struct {
	Weekday   string
	Weekend   string
	Total     string
	IsWeekend bool

	State          types.SessionState
	Week           string
	WeekdaySeconds float64
	WeekendSeconds float64
}

// Engine is the session clock. All methods are safe for concurrent use.
type Engine struct {
	mu sync.Mutex

	clock    Clock
	stats    types.StatStore
	records  types.RecordStore
	capturer types.Capturer
	catalog  WeekCatalog

	interval   time.Duration
	poll       time.Duration
	statsEvery time.Duration

	state        types.SessionState
	sessionStart time.Time
	anchor       time.Time
	key          calendar.WeekKey
	weekStart    time.Time
	weekday      float64
	weekend      float64
	lastCheck    time.Time

	onStatus func(string)
	onStats  func(weekday, total, weekend string)

	ctx           context.Context
	cancel        context.CancelFunc
	captureCancel context.CancelFunc
	closed        bool
	wg            sync.WaitGroup
}

// New creates an Engine in the Idle state and loads the current week's
// totals from stats. A stat file that cannot be decoded is logged and the
// week starts empty.
func New(stats types.StatStore, opts ...Option) *Engine {
	e := &Engine{
		clock:      SystemClock(),
		stats:      stats,
		interval:   DefaultCaptureInterval,
		poll:       defaultPollInterval,
		statsEvery: defaultStatsInterval,
		state:      types.StateIdle,
		ctx:        context.Background(),
	}
	for _, opt := range opts {
		opt(e)
	}

	now := e.clock.Now()
	e.lastCheck = now
	e.key = calendar.KeyOf(now)
	e.weekStart = calendar.StartOfWeek(now)

	stat, err := stats.LoadWeek(context.Background(), now)
	if err != nil {
		slog.Warn("could not load weekly stats, starting empty", "week", e.key.String(), "error", err)
	}
	if stat != nil {
		e.weekday = stat.WeekdaySeconds
		e.weekend = stat.WeekendSeconds
	}
	return e
}

// SetStatusCallback registers fn to receive human-readable status messages.
func (e *Engine) SetStatusCallback(fn func(string)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onStatus = fn
}

// SetStatsCallback registers fn to receive the formatted totals on every
// stats tick.
func (e *Engine) SetStatsCallback(fn func(weekday, total, weekend string)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onStats = fn
}

// Start begins a new session from Idle or Stopped and launches the capture
// loop.
func (e *Engine) Start() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if e.state != types.StateIdle && e.state != types.StateStopped {
		state := e.state
		e.mu.Unlock()
		return fmt.Errorf("start while %s: %w", state, types.ErrInvalidTransition)
	}

	now := e.clock.Now()
	e.state = types.StateRunning
	e.sessionStart = now
	e.anchor = now
	e.startCaptureLocked()
	e.mu.Unlock()

	slog.Info("session started", "week", e.Week())
	e.notify("Recording started")
	return nil
}

// Pause flushes the live segment into today's bucket and persists the
// totals. Calling Pause while not Running returns ErrInvalidTransition and
// changes nothing. A persistence error is returned after the pause has
// taken effect.
func (e *Engine) Pause() error {
	e.mu.Lock()
	if e.state != types.StateRunning {
		state := e.state
		e.mu.Unlock()
		return fmt.Errorf("pause while %s: %w", state, types.ErrInvalidTransition)
	}

	now := e.clock.Now()
	e.flushLocked(now, now)
	e.state = types.StatePaused
	e.sessionStart = time.Time{}
	msg := e.correctOvertimeLocked(now)
	err := e.persistLocked(context.Background(), now)
	e.mu.Unlock()

	if msg != "" {
		e.notify(msg)
	}
	e.notify("Recording paused")
	if err != nil {
		e.notify("Failed to save statistics: " + err.Error())
	}
	return err
}

// Resume continues a paused session.
func (e *Engine) Resume() error {
	e.mu.Lock()
	if e.state != types.StatePaused {
		state := e.state
		e.mu.Unlock()
		return fmt.Errorf("resume while %s: %w", state, types.ErrInvalidTransition)
	}

	now := e.clock.Now()
	e.state = types.StateRunning
	e.sessionStart = now
	e.anchor = now
	e.mu.Unlock()

	e.notify("Recording resumed")
	return nil
}

// Stop ends the session from Running or Paused, persists the totals and
// cancels the capture loop. A cycle already in flight completes.
func (e *Engine) Stop() error {
	e.mu.Lock()
	if e.state != types.StateRunning && e.state != types.StatePaused {
		state := e.state
		e.mu.Unlock()
		return fmt.Errorf("stop while %s: %w", state, types.ErrInvalidTransition)
	}

	now := e.clock.Now()
	e.flushLocked(now, now)
	e.state = types.StateStopped
	e.sessionStart = time.Time{}
	msg := e.correctOvertimeLocked(now)
	err := e.persistLocked(context.Background(), now)
	cancel := e.captureCancel
	e.captureCancel = nil
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if msg != "" {
		e.notify(msg)
	}
	e.notify("Recording stopped")
	if err != nil {
		e.notify("Failed to save statistics: " + err.Error())
	}
	return err
}

// Save persists the current totals with the live segment folded in. The
// accumulators themselves are not changed.
func (e *Engine) Save(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.persistLocked(ctx, e.clock.Now())
}

// State returns the current session state.
func (e *Engine) State() types.SessionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Week returns the key of the week being accumulated.
func (e *Engine) Week() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.key.String()
}

// LiveElapsed returns the duration of the live segment, zero unless
// Running.
func (e *Engine) LiveElapsed() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.liveLocked(e.clock.Now())
}

// GetStats returns the week's totals with the live segment added to the
// bucket of the current day.
func (e *Engine) GetStats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.statsLocked(e.clock.Now())
}

// AvailableWeeks lists the recorded weeks, most recent first.
func (e *Engine) AvailableWeeks() ([]types.WeeklyStatView, error) {
	if e.catalog == nil {
		return []types.WeeklyStatView{}, nil
	}
	return e.catalog.AvailableWeeks()
}

func (e *Engine) statsLocked(now time.Time) Stats {
	weekday, weekend := e.totalsLocked(now)
	return Stats{
		Weekday:        types.FormatSeconds(weekday),
		Weekend:        types.FormatSeconds(weekend),
		Total:          types.FormatSeconds(weekday + weekend),
		IsWeekend:      calendar.IsWeekend(now),
		State:          e.state,
		Week:           e.key.String(),
		WeekdaySeconds: weekday,
		WeekendSeconds: weekend,
	}
}

func (e *Engine) liveLocked(now time.Time) time.Duration {
	if e.state != types.StateRunning || e.sessionStart.IsZero() {
		return 0
	}
	return max(0, now.Sub(e.sessionStart))
}

// totalsLocked returns the accumulators with the live segment folded into
// the bucket of now.
func (e *Engine) totalsLocked(now time.Time) (float64, float64) {
	weekday, weekend := e.weekday, e.weekend
	live := e.liveLocked(now).Seconds()
	if calendar.IsWeekend(now) {
		weekend += live
	} else {
		weekday += live
	}
	return weekday, weekend
}

// flushLocked moves the live segment ending at now into the bucket of the
// day `day` falls on and restarts the segment at now.
func (e *Engine) flushLocked(now, day time.Time) {
	live := e.liveLocked(now).Seconds()
	if live == 0 {
		return
	}
	if calendar.IsWeekend(day) {
		e.weekend += live
	} else {
		e.weekday += live
	}
	e.sessionStart = now
}

func (e *Engine) persistLocked(ctx context.Context, now time.Time) error {
	weekday, weekend := e.totalsLocked(now)
	stat := &types.WeeklyStat{
		Key:            e.key,
		WeekStart:      e.weekStart,
		WeekdaySeconds: weekday,
		WeekendSeconds: weekend,
		LastUpdate:     now,
	}
	if err := e.stats.Save(ctx, stat); err != nil {
		slog.Error("failed to save weekly stats", "week", e.key.String(), "error", err)
		return err
	}
	return nil
}

func (e *Engine) notify(msg string) {
	e.mu.Lock()
	fn := e.onStatus
	e.mu.Unlock()
	if fn != nil {
		fn(msg)
	}
}
