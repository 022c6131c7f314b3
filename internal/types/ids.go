// internal/types/ids.go
package types

import (
	"github.com/google/uuid"
)

// RecordID identifies one capture cycle.
type RecordID string

func NewRecordID() RecordID {
	return RecordID(uuid.New().String())
}

// RecordDirLayout names the per-cycle record directory, e.g. 20240309_103000.
const RecordDirLayout = "20060102_150405"
