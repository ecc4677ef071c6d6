package relay

import (
	"github.com/wayneeseguin/relay/pkg/types"
)

// Re-export shared types so most callers only import relay
type (
	Level    = types.Level
	Record   = types.Record
	Metadata = types.Metadata
)

// Log levels, least severe first.
const (
	LevelTrace = types.LevelTrace
	LevelDebug = types.LevelDebug
	LevelInfo  = types.LevelInfo
	LevelWarn  = types.LevelWarn
	LevelError = types.LevelError
	LevelOff   = types.LevelOff
)

// NewRecord creates a record; see types.NewRecord.
func NewRecord(level Level, target, message string) Record {
	return types.NewRecord(level, target, message)
}

// ParseLevel converts a level name; see types.ParseLevel.
func ParseLevel(s string) (Level, error) {
	return types.ParseLevel(s)
}

// minLevel returns the more verbose of two levels.
func minLevel(a, b Level) Level {
	if a < b {
		return a
	}
	return b
}

// maxLevel returns the more restrictive of two levels.
func maxLevel(a, b Level) Level {
	if a > b {
		return a
	}
	return b
}
