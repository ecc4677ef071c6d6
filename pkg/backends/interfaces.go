package backends

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/wayneeseguin/relay/pkg/types"
)

// Backend is an output that owns an external resource such as a file,
// a socket or a broker connection. Every backend is also a relay sink.
type Backend interface {
	// Accept writes one rendered line for rec
	Accept(line string, rec *types.Record) error

	// Flush ensures all buffered data is written
	Flush() error

	// Close flushes and releases the resource
	Close() error

	// Name identifies the backend in errors and metrics
	Name() string

	// Stats returns backend statistics
	Stats() BackendStats
}

// BackendStats represents statistics for a backend
type BackendStats struct {
	Name         string
	WriteCount   uint64
	BytesWritten uint64
	ErrorCount   uint64
	LastWrite    time.Time
	LastError    time.Time
}

// counters tracks BackendStats for a backend.
type counters struct {
	writes    atomic.Uint64
	bytes     atomic.Uint64
	errors    atomic.Uint64
	mu        sync.Mutex
	lastWrite time.Time
	lastError time.Time
}

func (c *counters) wrote(n int) {
	c.writes.Add(1)
	if n > 0 {
		c.bytes.Add(uint64(n))
	}
	c.mu.Lock()
	c.lastWrite = time.Now()
	c.mu.Unlock()
}

func (c *counters) failed() {
	c.errors.Add(1)
	c.mu.Lock()
	c.lastError = time.Now()
	c.mu.Unlock()
}

func (c *counters) snapshot(name string) BackendStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return BackendStats{
		Name:         name,
		WriteCount:   c.writes.Load(),
		BytesWritten: c.bytes.Load(),
		ErrorCount:   c.errors.Load(),
		LastWrite:    c.lastWrite,
		LastError:    c.lastError,
	}
}
