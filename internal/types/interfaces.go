// internal/types/interfaces.go
package types

import (
	"context"
	"time"

	"github.com/user/worktrack/internal/calendar"
)

// StatStore persists one WeeklyStat per ISO week.
type StatStore interface {
	Save(ctx context.Context, stat *WeeklyStat) error
	LoadWeek(ctx context.Context, now time.Time) (*WeeklyStat, error)
}

// RecordStore persists the output of one capture cycle and returns the
// directory it was written to.
type RecordStore interface {
	Put(ctx context.Context, week calendar.WeekKey, rec *CaptureRecord, artifacts []Artifact) (string, error)
}

// Capturer takes one snapshot of the machine. Parts that could not be
// captured are left empty; Capture itself never fails.
type Capturer interface {
	Capture(ctx context.Context) *Snapshot
}
