package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Level is the severity of a log record. Higher values are more severe.
type Level int

// Log level constants, least severe first.
const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError

	// LevelOff is only meaningful as a filter: no record can carry it,
	// so a node filtering at LevelOff passes nothing.
	LevelOff
)

var levelNames = [...]string{
	LevelTrace: "TRACE",
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
	LevelOff:   "OFF",
}

// String returns the upper-case level name.
func (l Level) String() string {
	if l < LevelTrace || l > LevelOff {
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
	return levelNames[l]
}

// Valid reports whether l is one of the five severities a record may carry.
func (l Level) Valid() bool {
	return l >= LevelTrace && l <= LevelError
}

// Allows reports whether a record at level l passes a filter whose
// minimum is filter.
func (l Level) Allows(filter Level) bool {
	return l >= filter
}

// ParseLevel converts a level name to a Level. Matching is case-insensitive.
// "warning" is accepted for LevelWarn, "none" for LevelOff.
//
// Parameters:
//   - s: The level name
//
// Returns:
//   - Level: The parsed level
//   - error: If the name is not recognized
//
// Example:
//
//	level, err := types.ParseLevel("info")
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "off", "none":
		return LevelOff, nil
	default:
		return LevelOff, errors.Errorf("unknown log level %q", s)
	}
}

// Metadata is the part of a record that can be inspected before the
// message is built.
type Metadata struct {
	Level  Level
	Target string
}

// Record describes one log event. It is immutable: the With methods
// return modified copies and leave the receiver untouched.
type Record struct {
	level      Level
	target     string
	message    string
	modulePath string
	file       string
	line       int
	hasLine    bool
	time       time.Time
}

// NewRecord creates a record stamped with the current time.
// It panics if level is not a valid record severity.
//
// Parameters:
//   - level: One of LevelTrace through LevelError
//   - target: The emitting component, "/"-separated
//   - message: The already rendered message text
//
// Returns:
//   - Record: The new record
//
// Example:
//
//	rec := types.NewRecord(types.LevelInfo, "github.com/acme/app/db", "connected")
func NewRecord(level Level, target, message string) Record {
	if !level.Valid() {
		panic(fmt.Sprintf("types: invalid record level %s", level))
	}
	return Record{
		level:   level,
		target:  target,
		message: message,
		time:    time.Now(),
	}
}

// WithSource returns a copy of r carrying source location metadata.
func (r Record) WithSource(modulePath, file string, line int) Record {
	r.modulePath = modulePath
	r.file = file
	r.line = line
	r.hasLine = true
	return r
}

// WithMessage returns a copy of r with a different message.
func (r Record) WithMessage(message string) Record {
	r.message = message
	return r
}

// WithTime returns a copy of r with a different timestamp. A zero t
// leaves the timestamp unchanged.
func (r Record) WithTime(t time.Time) Record {
	if !t.IsZero() {
		r.time = t
	}
	return r
}

// Level returns the record severity.
func (r *Record) Level() Level { return r.level }

// Target returns the emitting component.
func (r *Record) Target() string { return r.target }

// Message returns the rendered call-site message.
func (r *Record) Message() string { return r.message }

// ModulePath returns the package path of the call site, if known.
func (r *Record) ModulePath() string { return r.modulePath }

// File returns the source file of the call site, if known.
func (r *Record) File() string { return r.file }

// Line returns the source line and whether it is known.
func (r *Record) Line() (int, bool) { return r.line, r.hasLine }

// Time returns when the record was created.
func (r *Record) Time() time.Time { return r.time }

// Metadata returns the level and target.
func (r *Record) Metadata() Metadata {
	return Metadata{Level: r.level, Target: r.target}
}
