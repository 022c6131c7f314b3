package main

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/user/worktrack/internal/engine"
	"github.com/user/worktrack/internal/vault"
)

const statusFileName = "status.enc"

// statusDoc is the daemon status published to status.enc.
type statusDoc struct {
	PID       int       `json:"pid"`
	State     string    `json:"state"`
	Week      string    `json:"week"`
	Weekday   string    `json:"weekday"`
	Weekend   string    `json:"weekend"`
	Total     string    `json:"total"`
	IsWeekend bool      `json:"is_weekend"`
	Message   string    `json:"message,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// statusFile writes the daemon status for `worktrack status`. Stats ticks
// are throttled to one write per minInterval; status messages always write.
type statusFile struct {
	path        string
	vault       *vault.Vault
	eng         *engine.Engine
	minInterval time.Duration

	mu        sync.Mutex
	message   string
	lastWrite time.Time
}

func newStatusFile(dataDir string, v *vault.Vault, eng *engine.Engine) *statusFile {
	return &statusFile{
		path:        filepath.Join(dataDir, statusFileName),
		vault:       v,
		eng:         eng,
		minInterval: 10 * time.Second,
	}
}

// Deliver records msg as the latest status message and writes the file.
func (s *statusFile) Deliver(msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = msg
	return s.writeLocked()
}

// Tick writes the file if the last write is older than minInterval.
func (s *statusFile) Tick() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if time.Since(s.lastWrite) < s.minInterval {
		return nil
	}
	return s.writeLocked()
}

func (s *statusFile) writeLocked() error {
	st := s.eng.GetStats()
	doc := statusDoc{
		PID:       os.Getpid(),
		State:     st.State.String(),
		Week:      st.Week,
		Weekday:   st.Weekday,
		Weekend:   st.Weekend,
		Total:     st.Total,
		IsWeekend: st.IsWeekend,
		Message:   s.message,
		UpdatedAt: time.Now(),
	}
	s.lastWrite = doc.UpdatedAt
	return s.vault.EncryptJSON(s.path, doc)
}

func (s *statusFile) Remove() {
	os.Remove(s.path)
}
