package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/user/worktrack/internal/calendar"
	"github.com/user/worktrack/internal/types"
)

// ErrCleanupTimeout is returned by Cleanup when the loops did not exit in
// time.
var ErrCleanupTimeout = errors.New("timed out waiting for engine loops")

// Launch starts the stats loop. It runs until ctx is cancelled or Cleanup
// is called. Capture loops started afterwards derive from ctx.
func (e *Engine) Launch(ctx context.Context) {
	e.mu.Lock()
	e.ctx, e.cancel = context.WithCancel(ctx)
	ctx = e.ctx
	e.wg.Add(1)
	e.mu.Unlock()

	go func() {
		defer e.wg.Done()
		e.statsLoop(ctx)
	}()
}

// Cleanup stops an active session, cancels both loops and waits up to
// timeout for them to exit. The engine cannot be restarted afterwards.
func (e *Engine) Cleanup(timeout time.Duration) error {
	var err error
	if st := e.State(); st == types.StateRunning || st == types.StatePaused {
		err = e.Stop()
	}

	e.mu.Lock()
	e.closed = true
	cancel, captureCancel := e.cancel, e.captureCancel
	e.captureCancel = nil
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if captureCancel != nil {
		captureCancel()
	}

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Debug("engine loops stopped")
	case <-time.After(timeout):
		slog.Warn("engine loops did not stop in time", "timeout", timeout)
		err = errors.Join(err, ErrCleanupTimeout)
	}
	return err
}

func (e *Engine) startCaptureLocked() {
	if e.capturer == nil || e.records == nil {
		return
	}
	if e.captureCancel != nil {
		e.captureCancel()
	}
	ctx, cancel := context.WithCancel(e.ctx)
	e.captureCancel = cancel
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.captureLoop(ctx)
	}()
}

// captureLoop captures as soon as the session runs and then every interval.
// It idles while Paused and exits once the session is Stopped or ctx is
// done.
func (e *Engine) captureLoop(ctx context.Context) {
	ticker := time.NewTicker(e.poll)
	defer ticker.Stop()

	var last time.Time
	for {
		switch e.State() {
		case types.StateStopped, types.StateIdle:
			return
		case types.StateRunning:
			if last.IsZero() || e.clock.Now().Sub(last) >= e.interval {
				e.captureOnce(ctx)
				last = e.clock.Now()
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// captureOnce runs one capture cycle. The cycle is detached from ctx so
// that a Stop arriving mid-cycle does not cut the write short.
func (e *Engine) captureOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	ctx = context.WithoutCancel(ctx)

	e.mu.Lock()
	now := e.clock.Now()
	live := e.liveLocked(now)
	e.mu.Unlock()

	snap := e.capturer.Capture(ctx)
	rec := &types.CaptureRecord{
		ID:              types.NewRecordID(),
		Timestamp:       now,
		FormattedTime:   now.Format("2006-01-02 15:04:05"),
		IsWeekend:       calendar.IsWeekend(now),
		SessionDuration: int(live.Seconds()),
		Apps:            snap.Processes,
	}
	if rec.Apps == nil {
		rec.Apps = []types.ProcessInfo{}
	}

	dir, err := e.records.Put(ctx, calendar.KeyOf(now), rec, snap.Artifacts())
	if err != nil {
		slog.Error("capture record incomplete", "dir", dir, "error", err)
		e.notify("Capture failed: " + err.Error())
	} else {
		slog.Info("capture saved", "dir", dir, "artifacts", len(snap.Artifacts()), "processes", len(rec.Apps))
	}

	if err := e.Save(ctx); err != nil {
		e.notify("Failed to save statistics: " + err.Error())
	}
}

func (e *Engine) statsLoop(ctx context.Context) {
	ticker := time.NewTicker(e.statsEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.tick()
		}
	}
}

// tick checks for a week change and publishes the current totals.
func (e *Engine) tick() {
	e.mu.Lock()
	now := e.clock.Now()
	msg, err := e.rolloverLocked(now)
	st := e.statsLocked(now)
	fn := e.onStats
	e.mu.Unlock()

	if msg != "" {
		e.notify(msg)
	}
	if err != nil {
		e.notify("Failed to save statistics: " + err.Error())
	}
	if fn != nil {
		fn(st.Weekday, st.Total, st.Weekend)
	}
}

// rolloverLocked switches to a new ISO week when the day changed into one.
// The live segment is split at the start of the new week: the part before
// it is closed into the old week, bucketed by the day it ends on, and the
// rest stays live in the new week.
func (e *Engine) rolloverLocked(now time.Time) (string, error) {
	last := e.lastCheck
	e.lastCheck = now
	if calendar.SameDay(last, now) {
		return "", nil
	}
	key := calendar.KeyOf(now)
	if key == e.key {
		return "", nil
	}

	ctx := context.Background()
	old := e.key
	boundary := calendar.StartOfWeek(now)
	e.flushLocked(boundary, boundary.Add(-time.Nanosecond))
	errOld := e.persistLocked(ctx, boundary)

	e.key = key
	e.weekStart = boundary
	e.weekday, e.weekend = 0, 0
	errNew := e.persistLocked(ctx, now)

	slog.Info("week rolled over", "from", old.String(), "to", key.String())
	return fmt.Sprintf("New week %s started, %s closed", key, old), errors.Join(errOld, errNew)
}
