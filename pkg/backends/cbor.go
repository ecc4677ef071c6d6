package backends

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/wayneeseguin/relay/pkg/types"
)

// Event is one record as stored by CBORBackend.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp of the record (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// Level of the record.
	Level types.Level `cbor:"2,keyasint"`

	// Target of the record.
	Target string `cbor:"3,keyasint"`

	// Message is the call-site message before formatting.
	Message string `cbor:"4,keyasint"`

	// Line is the text rendered by the dispatch tree.
	Line string `cbor:"5,keyasint"`

	// Source location, when known.
	Module string `cbor:"6,keyasint,omitempty"`
	File   string `cbor:"7,keyasint,omitempty"`
	LineNo int    `cbor:"8,keyasint,omitempty"`
}

// NewEvent captures rec and its rendered line.
func NewEvent(line string, rec *types.Record) Event {
	ev := Event{
		Timestamp: rec.Time(),
		Level:     rec.Level(),
		Target:    rec.Target(),
		Message:   rec.Message(),
		Line:      line,
		Module:    rec.ModulePath(),
		File:      rec.File(),
	}
	if ln, ok := rec.Line(); ok {
		ev.LineNo = ln
	}
	return ev
}

// eventEncMode is the CBOR encoder mode for events.
// Configured for nanosecond-precision timestamps and deterministic encoding.
var eventEncMode cbor.EncMode

// eventDecMode is the CBOR decoder mode for events.
var eventDecMode cbor.DecMode

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}
	eventEncMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create event CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}
	eventDecMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create event CBOR decoder mode: %v", err))
	}
}

// EncodeEvent encodes an Event to CBOR bytes.
func EncodeEvent(ev Event) ([]byte, error) {
	return eventEncMode.Marshal(ev)
}

// DecodeEvent decodes CBOR bytes into an Event.
func DecodeEvent(data []byte) (Event, error) {
	var ev Event
	if err := eventDecMode.Unmarshal(data, &ev); err != nil {
		return Event{}, err
	}
	return ev, nil
}

// CBORBackend writes each record as a CBOR-encoded Event, one after
// another, to a stream. It is safe for concurrent use.
type CBORBackend struct {
	mu     sync.Mutex
	name   string
	closer io.Closer
	writer *bufio.Writer
	closed bool
	stats  counters
}

// NewCBORBackend creates a backend encoding events to w. If w is an
// io.Closer it is closed by Close.
func NewCBORBackend(w io.Writer) *CBORBackend {
	cb := &CBORBackend{
		name:   fmt.Sprintf("cbor(%T)", w),
		writer: bufio.NewWriter(w),
	}
	if c, ok := w.(io.Closer); ok {
		cb.closer = c
	}
	return cb
}

// NewCBORFileBackend appends events to the file at path. If the file
// exists, new events are appended.
func NewCBORFileBackend(path string) (*CBORBackend, error) {
	cleanPath := filepath.Clean(path)
	// #nosec G301 - log directories need to be accessible by other processes
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	f, err := os.OpenFile(cleanPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644) // #nosec G302 - log files need to be readable
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	cb := NewCBORBackend(f)
	cb.name = "cbor://" + cleanPath
	return cb, nil
}

// Accept encodes one event for rec.
func (cb *CBORBackend) Accept(line string, rec *types.Record) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.closed {
		return ErrClosed
	}

	data, err := EncodeEvent(NewEvent(line, rec))
	if err != nil {
		cb.stats.failed()
		return fmt.Errorf("encode event: %w", err)
	}
	n, err := cb.writer.Write(data)
	if err != nil {
		cb.stats.failed()
		return fmt.Errorf("write event: %w", err)
	}
	cb.stats.wrote(n)
	return nil
}

// Flush writes buffered events to the stream.
func (cb *CBORBackend) Flush() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.closed {
		return nil
	}
	if err := cb.writer.Flush(); err != nil {
		cb.stats.failed()
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

// Close flushes and closes the stream. It is safe to call Close multiple times.
func (cb *CBORBackend) Close() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.closed {
		return nil
	}
	cb.closed = true

	err := cb.writer.Flush()
	if cb.closer != nil {
		if cerr := cb.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Name implements Backend
func (cb *CBORBackend) Name() string {
	return cb.name
}

// Stats implements Backend
func (cb *CBORBackend) Stats() BackendStats {
	return cb.stats.snapshot(cb.name)
}

// EventFilter selects events read by a CBORReader.
// Zero fields match every event.
type EventFilter struct {
	// MinLevel keeps events at or above this level.
	MinLevel types.Level

	// Target keeps events for this target and its subtree.
	Target string

	// TimeStart keeps events at or after this time.
	TimeStart time.Time

	// TimeEnd keeps events before this time.
	TimeEnd time.Time
}

func (f *EventFilter) matches(ev Event) bool {
	if ev.Level < f.MinLevel {
		return false
	}
	if f.Target != "" && ev.Target != f.Target && !strings.HasPrefix(ev.Target, f.Target+"/") {
		return false
	}
	if !f.TimeStart.IsZero() && ev.Timestamp.Before(f.TimeStart) {
		return false
	}
	if !f.TimeEnd.IsZero() && !ev.Timestamp.Before(f.TimeEnd) {
		return false
	}
	return true
}

// CBORReader streams events back from a CBOR log.
type CBORReader struct {
	closer  io.Closer
	decoder *cbor.Decoder
	filter  EventFilter
}

// NewCBORReader reads events from r.
func NewCBORReader(r io.Reader, filter EventFilter) *CBORReader {
	cr := &CBORReader{
		decoder: eventDecMode.NewDecoder(r),
		filter:  filter,
	}
	if c, ok := r.(io.Closer); ok {
		cr.closer = c
	}
	return cr
}

// OpenCBORFile opens a CBOR log written by NewCBORFileBackend.
func OpenCBORFile(path string, filter EventFilter) (*CBORReader, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	return NewCBORReader(f, filter), nil
}

// Next returns the next event that matches the filter.
// Returns io.EOF when no more events are available.
func (r *CBORReader) Next() (Event, error) {
	for {
		var ev Event
		if err := r.decoder.Decode(&ev); err != nil {
			if errors.Is(err, io.EOF) {
				return Event{}, io.EOF
			}
			return Event{}, err
		}
		if r.filter.matches(ev) {
			return ev, nil
		}
	}
}

// Close closes the underlying reader if it is closable.
func (r *CBORReader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
