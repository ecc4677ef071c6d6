package relay

import (
	"github.com/wayneeseguin/relay/internal/metrics"
	"github.com/wayneeseguin/relay/pkg/types"
)

// LoggerMetrics is a point-in-time snapshot of logger activity.
type LoggerMetrics = metrics.Metrics

// DispatchLogger adapts a sealed dispatch tree to the Logger interface.
// It gates records on the tree's max level before traversal and routes
// delivery failures to an ErrorHandler.
type DispatchLogger struct {
	root         *Node
	maxLevel     types.Level
	errorHandler ErrorHandler
	metrics      *metrics.Collector
}

// LoggerOption configures a DispatchLogger.
type LoggerOption func(*DispatchLogger)

// WithErrorHandler sets the handler for delivery and flush failures.
// A nil handler restores the default.
func WithErrorHandler(h ErrorHandler) LoggerOption {
	return func(l *DispatchLogger) {
		if h == nil {
			h = getDefaultErrorHandler()
		}
		l.errorHandler = h
	}
}

// NewLogger creates a logger over root.
//
// Parameters:
//   - root: The sealed dispatch tree
//   - opts: Optional settings such as WithErrorHandler
//
// Returns:
//   - *DispatchLogger: The logger
//
// Example:
//
//	root := relay.New().WithLevel(relay.LevelInfo).Chain(relay.Stderr()).Seal()
//	logger := relay.NewLogger(root, relay.WithErrorHandler(relay.SilentErrorHandler))
func NewLogger(root *Node, opts ...LoggerOption) *DispatchLogger {
	if root == nil {
		root = New().Seal()
	}
	l := &DispatchLogger{
		root:         root,
		maxLevel:     root.MaxLevel(),
		errorHandler: getDefaultErrorHandler(),
		metrics:      metrics.NewCollector(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// MaxLevel returns the most verbose level any sink of the tree may accept.
func (l *DispatchLogger) MaxLevel() types.Level {
	return l.maxLevel
}

// Root returns the sealed dispatch tree.
func (l *DispatchLogger) Root() *Node {
	return l.root
}

// Enabled reports whether a record with meta would reach at least one sink.
func (l *DispatchLogger) Enabled(meta types.Metadata) bool {
	return meta.Level.Allows(l.maxLevel) && l.root.Enabled(meta)
}

// Log delivers rec through the dispatch tree. Failures are reported to the
// error handler; Log itself never fails.
func (l *DispatchLogger) Log(rec *types.Record) {
	if rec == nil || !rec.Level().Valid() {
		l.metrics.TrackRejected()
		return
	}
	if !rec.Level().Allows(l.maxLevel) {
		l.metrics.TrackGated()
		return
	}

	l.metrics.TrackRecord(rec.Level())
	if err := l.root.Handle(rec); err != nil {
		l.report(rec, err)
	}
}

// Flush flushes every sink, reporting failures to the error handler.
func (l *DispatchLogger) Flush() {
	if err := l.FlushErr(); err != nil {
		l.errorHandler(nil, err)
	}
}

// FlushErr flushes every sink and returns all failures together.
func (l *DispatchLogger) FlushErr() error {
	err := l.root.Flush()
	l.metrics.TrackFlush(err != nil)
	if err != nil {
		for _, se := range SinkErrors(err) {
			l.metrics.TrackError(se.Sink)
		}
	}
	return err
}

// Metrics returns a snapshot of the logger's counters.
func (l *DispatchLogger) Metrics() LoggerMetrics {
	return l.metrics.GetMetrics()
}

// ResetMetrics zeroes all counters.
func (l *DispatchLogger) ResetMetrics() {
	l.metrics.Reset()
}

func (l *DispatchLogger) report(rec *types.Record, err error) {
	for _, se := range SinkErrors(err) {
		l.metrics.TrackError(se.Sink)
	}
	l.errorHandler(rec, err)
}
