package relay

import (
	"fmt"
	"runtime"

	"github.com/wayneeseguin/relay/pkg/types"
)

// Call-site helpers for the global logger. The target defaults to the
// caller's package import path, and the record carries the caller's file
// and line. Arguments are only formatted when the record would be logged.

// Tracef logs at trace level through the global logger.
func Tracef(format string, args ...interface{}) {
	logf(2, types.LevelTrace, "", format, args...)
}

// Debugf logs at debug level through the global logger.
func Debugf(format string, args ...interface{}) {
	logf(2, types.LevelDebug, "", format, args...)
}

// Infof logs at info level through the global logger.
func Infof(format string, args ...interface{}) {
	logf(2, types.LevelInfo, "", format, args...)
}

// Warnf logs at warn level through the global logger.
func Warnf(format string, args ...interface{}) {
	logf(2, types.LevelWarn, "", format, args...)
}

// Errorf logs at error level through the global logger.
func Errorf(format string, args ...interface{}) {
	logf(2, types.LevelError, "", format, args...)
}

// Logf logs at level through the global logger.
func Logf(level types.Level, format string, args ...interface{}) {
	logf(2, level, "", format, args...)
}

// TargetLogger logs through the global logger under a fixed target.
type TargetLogger struct {
	target string
}

// For returns helpers that log under target instead of the caller's package.
//
// Example:
//
//	db := relay.For("app/db")
//	db.Warnf("slow query: %s", elapsed)
func For(target string) TargetLogger {
	return TargetLogger{target: target}
}

// Target returns the target records are logged under.
func (t TargetLogger) Target() string { return t.target }

// Enabled reports whether a record at level would be logged.
func (t TargetLogger) Enabled(level types.Level) bool {
	return Enabled(level, t.target)
}

// Tracef logs at trace level under the fixed target.
func (t TargetLogger) Tracef(format string, args ...interface{}) {
	logf(2, types.LevelTrace, t.target, format, args...)
}

// Debugf logs at debug level under the fixed target.
func (t TargetLogger) Debugf(format string, args ...interface{}) {
	logf(2, types.LevelDebug, t.target, format, args...)
}

// Infof logs at info level under the fixed target.
func (t TargetLogger) Infof(format string, args ...interface{}) {
	logf(2, types.LevelInfo, t.target, format, args...)
}

// Warnf logs at warn level under the fixed target.
func (t TargetLogger) Warnf(format string, args ...interface{}) {
	logf(2, types.LevelWarn, t.target, format, args...)
}

// Errorf logs at error level under the fixed target.
func (t TargetLogger) Errorf(format string, args ...interface{}) {
	logf(2, types.LevelError, t.target, format, args...)
}

// Logf logs at level under the fixed target.
func (t TargetLogger) Logf(level types.Level, format string, args ...interface{}) {
	logf(2, level, t.target, format, args...)
}

// logf builds and logs a record for the function skip frames above it.
func logf(skip int, level types.Level, target, format string, args ...interface{}) {
	if !level.Valid() || !level.Allows(MaxLevel()) {
		return
	}

	var module string
	pc, file, line, hasCaller := runtime.Caller(skip)
	if hasCaller {
		if fn := runtime.FuncForPC(pc); fn != nil {
			module = callerPackage(fn.Name())
		}
	}
	if target == "" {
		target = module
	}

	logger := Default()
	if !logger.Enabled(types.Metadata{Level: level, Target: target}) {
		return
	}

	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	rec := types.NewRecord(level, target, msg)
	if hasCaller {
		rec = rec.WithSource(module, file, line)
	}
	logger.Log(&rec)
}
