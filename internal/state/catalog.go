// internal/state/catalog.go
package state

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/user/worktrack/internal/calendar"
	"github.com/user/worktrack/internal/types"
	"github.com/user/worktrack/internal/vault"
)

// Catalog lists the weekly stat history. It only reads stat files.
type Catalog struct {
	stats *StatStore
}

// NewCatalog creates a Catalog over the given stat store's directory.
func NewCatalog(stats *StatStore) *Catalog {
	return &Catalog{stats: stats}
}

// AvailableWeeks decodes every stat file, one entry per (year, week),
// sorted by week start, most recent first. The encrypted copy of a week is
// preferred over a legacy plaintext one. Weeks whose files cannot be
// decoded are listed with zero totals and DecodeFailed set.
func (c *Catalog) AvailableWeeks() ([]types.WeeklyStatView, error) {
	entries, err := os.ReadDir(c.stats.Dir())
	if err != nil {
		if os.IsNotExist(err) {
			return []types.WeeklyStatView{}, nil
		}
		return nil, fmt.Errorf("read stats dir: %w", err)
	}

	type candidates struct {
		enc, json string
	}
	byWeek := make(map[calendar.WeekKey]*candidates)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := filepath.Ext(name)
		if ext != ".enc" && ext != ".json" {
			continue
		}
		key, err := calendar.ParseKey(strings.TrimSuffix(name, ext))
		if err != nil {
			continue
		}
		cand := byWeek[key]
		if cand == nil {
			cand = &candidates{}
			byWeek[key] = cand
		}
		path := filepath.Join(c.stats.Dir(), name)
		if ext == ".enc" {
			cand.enc = path
		} else {
			cand.json = path
		}
	}

	views := make([]types.WeeklyStatView, 0, len(byWeek))
	for key, cand := range byWeek {
		views = append(views, c.view(key, cand.enc, cand.json))
	}
	sort.Slice(views, func(i, j int) bool {
		return views[i].WeekStart.After(views[j].WeekStart)
	})
	return views, nil
}

// view decodes the first readable candidate file of a week.
func (c *Catalog) view(key calendar.WeekKey, paths ...string) types.WeeklyStatView {
	start, end := key.Range(time.Local)
	v := types.WeeklyStatView{
		Key:       key,
		Week:      key.String(),
		WeekStart: start,
		WeekEnd:   end,
	}

	for _, path := range paths {
		if path == "" {
			continue
		}
		if v.Path == "" {
			v.Path = path
			v.Encrypted = filepath.Ext(path) == ".enc"
		}
		stat, format, err := c.stats.readFile(path, key)
		if err != nil {
			slog.Warn("stat file could not be decoded", "path", path, "error", err)
			continue
		}
		v.Path = path
		v.Encrypted = format == vault.FormatEncrypted
		v.WeekdaySeconds = stat.WeekdaySeconds
		v.WeekendSeconds = stat.WeekendSeconds
		v.LastUpdate = stat.LastUpdate
		return finishView(v)
	}

	v.DecodeFailed = true
	return finishView(v)
}

func finishView(v types.WeeklyStatView) types.WeeklyStatView {
	v.TotalSeconds = v.WeekdaySeconds + v.WeekendSeconds
	v.Weekday = types.FormatSeconds(v.WeekdaySeconds)
	v.Weekend = types.FormatSeconds(v.WeekendSeconds)
	v.Total = types.FormatSeconds(v.TotalSeconds)
	return v
}
