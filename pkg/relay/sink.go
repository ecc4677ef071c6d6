package relay

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"

	"github.com/wayneeseguin/relay/pkg/backends"
	"github.com/wayneeseguin/relay/pkg/types"
)

// Sink is a destination for rendered log lines. Implementations must be
// safe for concurrent use; Accept must not retain rec after it returns.
type Sink interface {
	// Accept delivers one rendered line for rec
	Accept(line string, rec *types.Record) error

	// Flush commits anything the sink has buffered
	Flush() error
}

// Logger is the logging capability consumed by call sites.
// All methods are safe for concurrent use.
type Logger interface {
	// Enabled reports whether a record with this metadata could be logged
	Enabled(meta types.Metadata) bool

	// Log delivers a record
	Log(rec *types.Record)

	// Flush commits all buffered output
	Flush()
}

// namedSink is implemented by sinks that describe themselves in errors and metrics.
type namedSink interface {
	Name() string
}

// leveledSink is implemented by sinks that know the most verbose level
// they can accept. Sinks without it are assumed to accept everything.
type leveledSink interface {
	MaxLevel() types.Level
}

// SinkName returns the name used for s in errors and metrics.
func SinkName(s Sink) string {
	if n, ok := s.(namedSink); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", s)
}

// sinkMaxLevel returns the most verbose level s may accept.
func sinkMaxLevel(s Sink) types.Level {
	if l, ok := s.(leveledSink); ok {
		return l.MaxLevel()
	}
	return types.LevelTrace
}

// flusher matches writers with their own buffering, such as *bufio.Writer.
type flusher interface {
	Flush() error
}

// WriterSink writes each line to an io.Writer followed by a separator.
// A line and its separator go out in a single Write under a mutex, so
// concurrent records never interleave. A slow writer blocks the caller.
type WriterSink struct {
	mu   sync.Mutex
	w    io.Writer
	sep  string
	name string
	buf  []byte
}

// Writer creates a sink that writes to w. An empty sep means "\n".
//
// Parameters:
//   - w: The destination stream
//   - sep: The line terminator appended to every line
//
// Returns:
//   - *WriterSink: The sink
//
// Example:
//
//	var buf bytes.Buffer
//	d := relay.New().Chain(relay.Writer(&buf, "\r\n"))
func Writer(w io.Writer, sep string) *WriterSink {
	if sep == "" {
		sep = "\n"
	}
	return &WriterSink{w: w, sep: sep, name: fmt.Sprintf("writer(%T)", w)}
}

// Stdout creates a sink writing to standard output.
func Stdout() *WriterSink {
	s := Writer(os.Stdout, "\n")
	s.name = "stdout"
	return s
}

// Stderr creates a sink writing to standard error.
func Stderr() *WriterSink {
	s := Writer(os.Stderr, "\n")
	s.name = "stderr"
	return s
}

// Accept writes line and the separator.
func (s *WriterSink) Accept(line string, _ *types.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buf = append(s.buf[:0], line...)
	s.buf = append(s.buf, s.sep...)
	if _, err := s.w.Write(s.buf); err != nil {
		return errors.Wrap(err, "write")
	}
	return nil
}

// Flush flushes the underlying writer when it buffers.
func (s *WriterSink) Flush() error {
	f, ok := s.w.(flusher)
	if !ok {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return errors.Wrap(f.Flush(), "flush")
}

// Name implements namedSink
func (s *WriterSink) Name() string {
	return s.name
}

// LogFile opens path for appending and returns a process-safe file sink.
// The caller owns the sink and should Close it when done.
//
// Parameters:
//   - path: The log file path; parent directories are created
//
// Returns:
//   - *backends.FileBackend: The file sink
//   - error: If the file cannot be opened
//
// Example:
//
//	file, err := relay.LogFile("/var/log/app.log")
//	if err != nil {
//		return err
//	}
//	defer file.Close()
//	relay.New().WithLevel(relay.LevelInfo).Chain(file)
func LogFile(path string) (*backends.FileBackend, error) {
	fb, err := backends.NewFileBackend(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open log file %s", path)
	}
	return fb, nil
}

// loggerSink forwards rendered lines to another Logger.
type loggerSink struct {
	l Logger
}

// LoggerSink forwards records to l. The forwarded record is a copy whose
// message is the rendered line; the original record is left untouched.
// Records l reports as disabled are skipped. Use it to plug in third-party
// loggers or verification hooks.
func LoggerSink(l Logger) Sink {
	return &loggerSink{l: l}
}

func (s *loggerSink) Accept(line string, rec *types.Record) error {
	derived := rec.WithMessage(line)
	if s.l.Enabled(derived.Metadata()) {
		s.l.Log(&derived)
	}
	return nil
}

func (s *loggerSink) Flush() error {
	s.l.Flush()
	return nil
}

func (s *loggerSink) Name() string {
	return fmt.Sprintf("logger(%T)", s.l)
}

// callSink hands each line to a function.
type callSink struct {
	fn func(line string, rec *types.Record)
}

// Call creates a sink that invokes fn for every line. fn runs on the
// logging goroutine and must be safe for concurrent use.
func Call(fn func(line string, rec *types.Record)) Sink {
	return &callSink{fn: fn}
}

func (s *callSink) Accept(line string, rec *types.Record) error {
	s.fn(line, rec)
	return nil
}

func (s *callSink) Flush() error { return nil }

func (s *callSink) Name() string { return "call" }

// panicSink panics with every line it receives.
type panicSink struct{}

// Panic creates a sink that panics with the rendered line. Chain it under
// a node filtered to the levels that should abort the program.
func Panic() Sink {
	return panicSink{}
}

func (panicSink) Accept(line string, _ *types.Record) error {
	panic(line)
}

func (panicSink) Flush() error { return nil }

func (panicSink) Name() string { return "panic" }
