// internal/state/stats.go
package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/user/worktrack/internal/calendar"
	"github.com/user/worktrack/internal/types"
	"github.com/user/worktrack/internal/vault"
)

// statFile is the on-disk JSON document. Dates are kept as strings because
// files written by earlier releases carry timestamps without a zone.
type statFile struct {
	Year           int     `json:"year"`
	Week           int     `json:"week"`
	WeekStart      string  `json:"week_start"`
	WeekdaySeconds float64 `json:"weekday_seconds"`
	WeekendSeconds float64 `json:"weekend_seconds"`
	Weekday        string  `json:"weekday"`
	Weekend        string  `json:"weekend"`
	Total          string  `json:"total"`
	LastUpdate     string  `json:"last_update"`
}

// legacyTimeLayouts are tried in order when parsing last_update.
var legacyTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// StatStore keeps one encrypted WeeklyStat per ISO week at
// stats/<year>_<week>.enc. Legacy plaintext copies at stats/<year>_<week>.json
// are read but never written.
type StatStore struct {
	root  string
	vault *vault.Vault
	retry *RetryPolicy
	mu    sync.Mutex
}

// NewStatStore creates a StatStore rooted at the given data directory.
func NewStatStore(root string, v *vault.Vault) *StatStore {
	return &StatStore{root: root, vault: v, retry: DefaultRetryPolicy()}
}

// Dir returns the directory holding the stat files.
func (s *StatStore) Dir() string {
	return filepath.Join(s.root, "stats")
}

// Path returns the encrypted stat file path for the given week.
func (s *StatStore) Path(key calendar.WeekKey) string {
	return filepath.Join(s.Dir(), key.String()+".enc")
}

func (s *StatStore) legacyPath(key calendar.WeekKey) string {
	return filepath.Join(s.Dir(), key.String()+".json")
}

// Save encrypts stat and atomically replaces the week's file.
func (s *StatStore) Save(ctx context.Context, stat *types.WeeklyStat) error {
	doc := statFile{
		Year:           stat.Key.Year,
		Week:           stat.Key.Week,
		WeekStart:      stat.WeekStart.Format(calendar.DateLayout),
		WeekdaySeconds: stat.WeekdaySeconds,
		WeekendSeconds: stat.WeekendSeconds,
		Weekday:        types.FormatSeconds(stat.WeekdaySeconds),
		Weekend:        types.FormatSeconds(stat.WeekendSeconds),
		Total:          types.FormatSeconds(stat.TotalSeconds()),
		LastUpdate:     stat.LastUpdate.Format(time.RFC3339),
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal stat %s: %w", stat.Key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.Path(stat.Key)
	err = s.retry.Execute(ctx, func() error {
		return s.vault.EncryptFile(path, data)
	})
	if err != nil {
		return fmt.Errorf("save stat %s: %w", stat.Key, err)
	}
	return nil
}

// Read loads the stat file for key, preferring the encrypted copy and
// falling back to a legacy plaintext one. It returns types.ErrNotFound when
// neither exists.
func (s *StatStore) Read(key calendar.WeekKey) (*types.WeeklyStat, vault.Format, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for _, path := range []string{s.Path(key), s.legacyPath(key)} {
		stat, format, err := s.readFile(path, key)
		if err == nil {
			return stat, format, nil
		}
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return nil, 0, firstErr
	}
	return nil, 0, types.ErrNotFound
}

func (s *StatStore) readFile(path string, key calendar.WeekKey) (*types.WeeklyStat, vault.Format, error) {
	var doc statFile
	format, err := s.vault.DecryptJSON(path, &doc)
	if err != nil {
		return nil, 0, err
	}
	return doc.toStat(key), format, nil
}

// LoadWeek returns the totals recorded so far for the week containing now.
// A missing file yields an empty week. A file whose week_start does not
// match the computed start of now's week is stale and also yields an empty
// week. A file that cannot be decoded yields an empty week and the error.
func (s *StatStore) LoadWeek(_ context.Context, now time.Time) (*types.WeeklyStat, error) {
	key := calendar.KeyOf(now)
	fresh := NewWeeklyStat(now)

	stat, format, err := s.Read(key)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return fresh, nil
		}
		return fresh, fmt.Errorf("load stat %s: %w", key, err)
	}

	if !calendar.SameDay(stat.WeekStart, fresh.WeekStart) {
		slog.Info("stat file belongs to another week, starting empty",
			"week", key.String(),
			"file_week_start", stat.WeekStart.Format(calendar.DateLayout),
			"week_start", fresh.WeekStart.Format(calendar.DateLayout),
		)
		return fresh, nil
	}

	slog.Debug("stat file loaded", "week", key.String(), "format", format.String())
	stat.Key = key
	stat.WeekStart = fresh.WeekStart
	return stat, nil
}

// NewWeeklyStat returns an empty stat for the week containing now.
func NewWeeklyStat(now time.Time) *types.WeeklyStat {
	return &types.WeeklyStat{
		Key:        calendar.KeyOf(now),
		WeekStart:  calendar.StartOfWeek(now),
		LastUpdate: now,
	}
}

func (d *statFile) toStat(key calendar.WeekKey) *types.WeeklyStat {
	stat := &types.WeeklyStat{
		Key:            key,
		WeekdaySeconds: d.WeekdaySeconds,
		WeekendSeconds: d.WeekendSeconds,
	}
	if d.Year != 0 && d.Week != 0 {
		stat.Key = calendar.WeekKey{Year: d.Year, Week: d.Week}
	}
	if ws, err := time.ParseInLocation(calendar.DateLayout, d.WeekStart, time.Local); err == nil {
		stat.WeekStart = ws
	}
	for _, layout := range legacyTimeLayouts {
		if t, err := time.ParseInLocation(layout, d.LastUpdate, time.Local); err == nil {
			stat.LastUpdate = t
			break
		}
	}
	return stat
}
