// internal/types/models.go
package types

import (
	"fmt"
	"time"

	"github.com/user/worktrack/internal/calendar"
)

// SessionState is the state of the session clock.
type SessionState int

const (
	StateIdle SessionState = iota
	StateRunning
	StatePaused
	StateStopped
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// WeeklyStat is the persisted total for one ISO week.
type WeeklyStat struct {
	Key            calendar.WeekKey
	WeekStart      time.Time
	WeekdaySeconds float64
	WeekendSeconds float64
	LastUpdate     time.Time
}

func (s *WeeklyStat) TotalSeconds() float64 {
	return s.WeekdaySeconds + s.WeekendSeconds
}

// WeeklyStatView is a decoded stat file as listed by the catalog.
type WeeklyStatView struct {
	Key            calendar.WeekKey `json:"-"`
	Week           string           `json:"week"`
	WeekStart      time.Time        `json:"week_start"`
	WeekEnd        time.Time        `json:"week_end"`
	WeekdaySeconds float64          `json:"weekday_seconds"`
	WeekendSeconds float64          `json:"weekend_seconds"`
	TotalSeconds   float64          `json:"total_seconds"`
	Weekday        string           `json:"weekday"`
	Weekend        string           `json:"weekend"`
	Total          string           `json:"total"`
	LastUpdate     time.Time        `json:"last_update,omitzero"`
	Path           string           `json:"path"`
	Encrypted      bool             `json:"encrypted"`
	DecodeFailed   bool             `json:"decode_failed,omitempty"`
}

// ProcessInfo is one entry of the running-process list.
type ProcessInfo struct {
	PID   int32  `json:"pid"`
	Name  string `json:"name"`
	Owner string `json:"username"`
}

// CaptureRecord is the info.enc document written for every capture cycle.
type CaptureRecord struct {
	ID              RecordID      `json:"id"`
	Timestamp       time.Time     `json:"timestamp"`
	FormattedTime   string        `json:"formatted_time"`
	IsWeekend       bool          `json:"is_weekend"`
	SessionDuration int           `json:"session_duration"`
	Apps            []ProcessInfo `json:"apps"`
}

type ArtifactKind string

const (
	ArtifactScreenshot ArtifactKind = "screenshot"
	ArtifactCamera     ArtifactKind = "camera"
	ArtifactInfo       ArtifactKind = "info"
)

// Artifact is an encoded image captured during a cycle.
type Artifact struct {
	Kind ArtifactKind
	Data []byte
}

// Snapshot is the raw result of one capture attempt.
type Snapshot struct {
	Screenshot []byte
	Camera     []byte
	Processes  []ProcessInfo
}

// Artifacts returns the images present in the snapshot.
func (s *Snapshot) Artifacts() []Artifact {
	var out []Artifact
	if len(s.Screenshot) > 0 {
		out = append(out, Artifact{Kind: ArtifactScreenshot, Data: s.Screenshot})
	}
	if len(s.Camera) > 0 {
		out = append(out, Artifact{Kind: ArtifactCamera, Data: s.Camera})
	}
	return out
}

// RecordSet describes one record directory on disk.
type RecordSet struct {
	Week      calendar.WeekKey `json:"-"`
	Taken     time.Time        `json:"taken"`
	Dir       string           `json:"dir"`
	Artifacts []ArtifactKind   `json:"artifacts"`
	Size      int64            `json:"size"`
}

// FormatSeconds renders seconds as zero-padded HH:MM:SS. Negative values
// are clamped to zero; hours are not wrapped at 24.
func FormatSeconds(seconds float64) string {
	if seconds < 0 || seconds != seconds {
		seconds = 0
	}
	total := int64(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
