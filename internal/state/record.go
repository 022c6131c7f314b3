// internal/state/record.go
package state

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/user/worktrack/internal/calendar"
	"github.com/user/worktrack/internal/types"
	"github.com/user/worktrack/internal/vault"
)

// RecordStore writes one directory of sealed files per capture cycle at
// records/<year>_<week>/<YYYYMMDD_HHMMSS>/{screenshot,camera,info}.enc.
// Record directories are never modified once written.
type RecordStore struct {
	root  string
	vault *vault.Vault
}

// NewRecordStore creates a RecordStore rooted at the given data directory.
func NewRecordStore(root string, v *vault.Vault) *RecordStore {
	return &RecordStore{root: root, vault: v}
}

// Dir returns the directory holding all week directories.
func (r *RecordStore) Dir() string {
	return filepath.Join(r.root, "records")
}

func (r *RecordStore) weekDir(week calendar.WeekKey) string {
	return filepath.Join(r.Dir(), week.String())
}

// Put seals each artifact and the record document into a new record
// directory named after rec.Timestamp. Artifacts that fail to write are
// skipped and reported in the returned error; the record document is
// written regardless.
func (r *RecordStore) Put(_ context.Context, week calendar.WeekKey, rec *types.CaptureRecord, artifacts []types.Artifact) (string, error) {
	dir := filepath.Join(r.weekDir(week), rec.Timestamp.Format(types.RecordDirLayout))
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create record dir: %w", err)
	}

	var errs []error
	for _, a := range artifacts {
		path := filepath.Join(dir, string(a.Kind)+".enc")
		if err := r.vault.EncryptFile(path, a.Data); err != nil {
			errs = append(errs, fmt.Errorf("write %s: %w", a.Kind, err))
		}
	}

	if err := r.vault.EncryptJSON(filepath.Join(dir, string(types.ArtifactInfo)+".enc"), rec); err != nil {
		errs = append(errs, fmt.Errorf("write info: %w", err))
	}

	return dir, errors.Join(errs...)
}

// Weeks returns the weeks that have a record directory, newest first.
func (r *RecordStore) Weeks() ([]calendar.WeekKey, error) {
	entries, err := os.ReadDir(r.Dir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read records dir: %w", err)
	}

	var weeks []calendar.WeekKey
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		key, err := calendar.ParseKey(e.Name())
		if err != nil {
			continue
		}
		weeks = append(weeks, key)
	}
	sort.Slice(weeks, func(i, j int) bool {
		if weeks[i].Year != weeks[j].Year {
			return weeks[i].Year > weeks[j].Year
		}
		return weeks[i].Week > weeks[j].Week
	})
	return weeks, nil
}

// List returns the record sets of a week, oldest first.
func (r *RecordStore) List(week calendar.WeekKey) ([]types.RecordSet, error) {
	entries, err := os.ReadDir(r.weekDir(week))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read week dir: %w", err)
	}

	var sets []types.RecordSet
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		taken, err := time.ParseInLocation(types.RecordDirLayout, e.Name(), time.Local)
		if err != nil {
			continue
		}
		dir := filepath.Join(r.weekDir(week), e.Name())
		set := types.RecordSet{Week: week, Taken: taken, Dir: dir}

		files, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("read record dir: %w", err)
		}
		for _, f := range files {
			name, ok := strings.CutSuffix(f.Name(), ".enc")
			if !ok || f.IsDir() {
				continue
			}
			set.Artifacts = append(set.Artifacts, types.ArtifactKind(name))
			if info, err := f.Info(); err == nil {
				set.Size += info.Size()
			}
		}
		sets = append(sets, set)
	}
	sort.Slice(sets, func(i, j int) bool { return sets[i].Taken.Before(sets[j].Taken) })
	return sets, nil
}

// AvailableDates returns the distinct YYYYMMDD dates that have at least one
// record directory, newest first.
func (r *RecordStore) AvailableDates() ([]string, error) {
	weeks, err := r.Weeks()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	for _, week := range weeks {
		entries, err := os.ReadDir(r.weekDir(week))
		if err != nil {
			return nil, fmt.Errorf("read week dir: %w", err)
		}
		for _, e := range entries {
			date, _, ok := strings.Cut(e.Name(), "_")
			if !e.IsDir() || !ok || len(date) != 8 {
				continue
			}
			seen[date] = true
		}
	}

	dates := make([]string, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates, nil
}
