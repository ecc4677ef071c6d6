package relay

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/wayneeseguin/relay/pkg/types"
)

var (
	// ErrAlreadyInstalled is returned when a global logger is installed twice.
	// The logger installed first stays in place.
	ErrAlreadyInstalled = errors.New("relay: global logger already installed")

	// ErrDisconnected is returned by a queue sink whose receiver has gone away.
	ErrDisconnected = errors.New("relay: queue receiver disconnected")
)

// Operations reported in SinkError.Op.
const (
	OpAccept = "accept"
	OpFlush  = "flush"
)

// SinkError reports one failed delivery or flush at one sink.
type SinkError struct {
	Op    string // OpAccept or OpFlush
	Index int    // Position of the sink within its dispatch node
	Sink  string // Sink name, see SinkName
	Err   error  // The underlying error
}

// Error implements the error interface
func (e *SinkError) Error() string {
	return fmt.Sprintf("relay: %s %s[%d]: %v", e.Op, e.Sink, e.Index, e.Err)
}

// Unwrap returns the underlying error
func (e *SinkError) Unwrap() error {
	return e.Err
}

// Cause returns the underlying error for github.com/pkg/errors.Cause.
func (e *SinkError) Cause() error {
	return e.Err
}

// SinkErrors flattens err into the individual sink failures it carries.
// Errors that are not SinkErrors are returned as a SinkError with an
// empty Sink name.
//
// Parameters:
//   - err: An error returned by Node.Accept or Node.Flush
//
// Returns:
//   - []*SinkError: One entry per failing sink, in fan-out order
func SinkErrors(err error) []*SinkError {
	if err == nil {
		return nil
	}

	var errs []error
	if merr, ok := err.(*multierror.Error); ok {
		errs = merr.Errors
	} else {
		errs = []error{err}
	}

	out := make([]*SinkError, 0, len(errs))
	for _, e := range errs {
		var se *SinkError
		if errors.As(e, &se) {
			out = append(out, se)
			continue
		}
		out = append(out, &SinkError{Err: e})
	}
	return out
}

// ErrorHandler receives delivery failures that a logging call could not
// return to its caller. rec is nil for failures raised while flushing.
type ErrorHandler func(rec *types.Record, err error)

// SilentErrorHandler discards all errors (used in tests)
var SilentErrorHandler ErrorHandler = func(*types.Record, error) {}

// StderrErrorHandler writes errors to stderr
var StderrErrorHandler ErrorHandler = func(rec *types.Record, err error) {
	if rec == nil {
		fmt.Fprintf(os.Stderr, "relay: error flushing logger: %v\n", err)
		return
	}
	fmt.Fprintf(os.Stderr, "relay: error performing logging: attempted to log %s %q from %q: %v\n",
		rec.Level(), rec.Message(), rec.Target(), err)
}

// getDefaultErrorHandler returns the appropriate error handler based on environment
func getDefaultErrorHandler() ErrorHandler {
	if isTestMode() {
		return SilentErrorHandler
	}
	return StderrErrorHandler
}

// sinkFailure wraps an error raised by the sink at index i.
func sinkFailure(op string, i int, s Sink, err error) error {
	// Nested nodes already report their own sinks.
	if _, nested := s.(*Node); nested {
		return err
	}
	return &SinkError{Op: op, Index: i, Sink: SinkName(s), Err: err}
}
