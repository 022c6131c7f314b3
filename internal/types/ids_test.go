// internal/types/ids_test.go
package types

import (
	"testing"
	"time"
)

func TestNewRecordID(t *testing.T) {
	id := NewRecordID()
	if id == "" {
		t.Error("expected non-empty RecordID")
	}
	if len(string(id)) != 36 {
		t.Errorf("expected UUID format, got %s", id)
	}
	if id == NewRecordID() {
		t.Error("expected distinct record IDs")
	}
}

func TestRecordDirLayout(t *testing.T) {
	ts := time.Date(2024, 3, 9, 10, 30, 5, 0, time.UTC)
	if got := ts.Format(RecordDirLayout); got != "20240309_103005" {
		t.Errorf("expected 20240309_103005, got %s", got)
	}
}
