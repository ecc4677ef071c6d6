package relay

import (
	"sync/atomic"

	"github.com/wayneeseguin/relay/pkg/types"
)

// Process-wide logger state. installed flips exactly once; the logger is
// stored before the max level so a reader that sees a non-Off level also
// sees the logger.
var (
	installed    atomic.Bool
	globalLogger atomic.Pointer[loggerHolder]
	globalMax    atomic.Int32
)

// loggerHolder lets an interface value live behind an atomic.Pointer.
type loggerHolder struct {
	l Logger
}

func init() {
	globalMax.Store(int32(types.LevelOff))
}

// Install seals d and installs it as the global logger, using the tree's
// max level as the global gate. Only the first install succeeds; later
// calls return ErrAlreadyInstalled and change nothing.
//
// Parameters:
//   - d: The dispatch to install
//   - opts: Logger options such as WithErrorHandler
//
// Returns:
//   - error: ErrAlreadyInstalled when a logger is already in place
//
// Example:
//
//	err := relay.New().
//		WithLevel(relay.LevelInfo).
//		WithFormat(formatters.LevelPrefix).
//		Chain(relay.Stdout()).
//		Install()
//	if errors.Is(err, relay.ErrAlreadyInstalled) {
//		// someone else got there first
//	}
func Install(d *Dispatch, opts ...LoggerOption) error {
	if installed.Load() {
		return ErrAlreadyInstalled
	}
	gate, l := d.IntoLogger(opts...)
	return SetLogger(l, gate)
}

// SetLogger installs any Logger as the global logger with the given gate.
func SetLogger(l Logger, gate types.Level) error {
	if l == nil {
		l = nopLogger{}
		gate = types.LevelOff
	}
	if !installed.CompareAndSwap(false, true) {
		return ErrAlreadyInstalled
	}
	globalLogger.Store(&loggerHolder{l: l})
	globalMax.Store(int32(gate))
	return nil
}

// Default returns the installed logger, or a logger that discards
// everything when none has been installed.
func Default() Logger {
	if h := globalLogger.Load(); h != nil {
		return h.l
	}
	return nopLogger{}
}

// MaxLevel returns the global gate: the most verbose level that may be
// logged. It is LevelOff until a logger is installed.
func MaxLevel() types.Level {
	return types.Level(globalMax.Load())
}

// Enabled reports whether a record at level for target would be logged.
func Enabled(level types.Level, target string) bool {
	if !level.Allows(MaxLevel()) {
		return false
	}
	return Default().Enabled(types.Metadata{Level: level, Target: target})
}

// Log hands rec to the global logger when it passes the global gate.
func Log(rec *types.Record) {
	if rec == nil || !rec.Level().Allows(MaxLevel()) {
		return
	}
	Default().Log(rec)
}

// Flush flushes the global logger.
func Flush() {
	Default().Flush()
}

// nopLogger is used before installation.
type nopLogger struct{}

func (nopLogger) Enabled(types.Metadata) bool { return false }
func (nopLogger) Log(*types.Record)           {}
func (nopLogger) Flush()                      {}
