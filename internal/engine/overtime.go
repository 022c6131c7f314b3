package engine

import (
	"fmt"
	"time"

	"github.com/user/worktrack/internal/calendar"
)

// A session segment longer than OvertimeThreshold without a pause is
// treated as forgotten rather than worked: when it ends, up to OvertimeCap
// (but never more than the segment minus OvertimeGrace) is removed from the
// bucket of the day it ends on. This is a heuristic outlier filter, not an
// accounting rule.
const (
	OvertimeThreshold = 12 * time.Hour
	OvertimeCap       = 2 * time.Hour
	OvertimeGrace     = 30 * time.Minute
)

// correctOvertimeLocked ends the overtime anchor at now and applies the
// correction. It returns a status message when time was removed.
func (e *Engine) correctOvertimeLocked(now time.Time) string {
	anchor := e.anchor
	e.anchor = time.Time{}
	if anchor.IsZero() {
		return ""
	}

	elapsed := now.Sub(anchor)
	if elapsed <= OvertimeThreshold {
		return ""
	}

	cut := min(OvertimeCap, elapsed-OvertimeGrace).Seconds()
	bucket, name := &e.weekday, "weekday"
	if calendar.IsWeekend(now) {
		bucket, name = &e.weekend, "weekend"
	}
	removed := min(cut, *bucket)
	*bucket -= removed

	return fmt.Sprintf("session ran %s without a break, removed %s from the %s total",
		elapsed.Round(time.Minute), time.Duration(removed*float64(time.Second)).Round(time.Second), name)
}
