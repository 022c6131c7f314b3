// Package state provides the filesystem-backed, encrypted storage of weekly
// statistics and capture records, and the catalog over stat history.
package state

import "github.com/user/worktrack/internal/types"

// Compile-time interface compliance checks.
var _ types.StatStore = (*StatStore)(nil)
var _ types.RecordStore = (*RecordStore)(nil)
