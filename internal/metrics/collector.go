package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/wayneeseguin/relay/pkg/types"
)

// Collector counts what happens to records passing through a logger.
// All methods are safe for concurrent use.
type Collector struct {
	// Record counts by level
	recordsByLevel  sync.Map // map[types.Level]*atomic.Uint64
	recordsGated    atomic.Uint64
	recordsRejected atomic.Uint64

	// Delivery failures
	errorCount   atomic.Uint64
	errorsBySink sync.Map // map[string]*atomic.Uint64

	// Flushes
	flushCount      atomic.Uint64
	flushErrorCount atomic.Uint64

	startTime time.Time
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

// Metrics is a point-in-time copy of the collector counters.
type Metrics struct {
	// Records handed to the root dispatch, by level
	RecordsLogged map[types.Level]uint64 `json:"records_logged"`
	// Records stopped by the max-level gate before reaching the tree
	RecordsGated uint64 `json:"records_gated"`
	// Records with an invalid level handed to Log
	RecordsRejected uint64 `json:"records_rejected"`

	ErrorCount   uint64            `json:"error_count"`
	ErrorsBySink map[string]uint64 `json:"errors_by_sink"`

	FlushCount      uint64 `json:"flush_count"`
	FlushErrorCount uint64 `json:"flush_error_count"`

	Uptime time.Duration `json:"uptime"`
}

// GetMetrics returns the current metrics snapshot.
func (c *Collector) GetMetrics() Metrics {
	m := Metrics{
		RecordsLogged:   make(map[types.Level]uint64),
		RecordsGated:    c.recordsGated.Load(),
		RecordsRejected: c.recordsRejected.Load(),
		ErrorCount:      c.errorCount.Load(),
		ErrorsBySink:    make(map[string]uint64),
		FlushCount:      c.flushCount.Load(),
		FlushErrorCount: c.flushErrorCount.Load(),
		Uptime:          time.Since(c.startTime),
	}

	c.recordsByLevel.Range(func(key, value interface{}) bool {
		if count := value.(*atomic.Uint64).Load(); count > 0 {
			m.RecordsLogged[key.(types.Level)] = count
		}
		return true
	})

	c.errorsBySink.Range(func(key, value interface{}) bool {
		if count := value.(*atomic.Uint64).Load(); count > 0 {
			m.ErrorsBySink[key.(string)] = count
		}
		return true
	})

	return m
}

// Reset sets every counter back to zero.
func (c *Collector) Reset() {
	c.recordsByLevel.Range(func(_, value interface{}) bool {
		value.(*atomic.Uint64).Store(0)
		return true
	})
	c.errorsBySink.Range(func(_, value interface{}) bool {
		value.(*atomic.Uint64).Store(0)
		return true
	})

	c.recordsGated.Store(0)
	c.recordsRejected.Store(0)
	c.errorCount.Store(0)
	c.flushCount.Store(0)
	c.flushErrorCount.Store(0)
}

// TrackRecord counts a record that entered the dispatch tree.
func (c *Collector) TrackRecord(level types.Level) {
	val, _ := c.recordsByLevel.LoadOrStore(level, &atomic.Uint64{})
	val.(*atomic.Uint64).Add(1)
}

// TrackGated counts a record stopped by the fast-path gate.
func (c *Collector) TrackGated() {
	c.recordsGated.Add(1)
}

// TrackRejected counts a record carrying an invalid level.
func (c *Collector) TrackRejected() {
	c.recordsRejected.Add(1)
}

// TrackError counts one delivery failure at the named sink.
func (c *Collector) TrackError(sink string) {
	c.errorCount.Add(1)

	val, _ := c.errorsBySink.LoadOrStore(sink, &atomic.Uint64{})
	val.(*atomic.Uint64).Add(1)
}

// TrackFlush counts a flush; failed marks flushes that reported errors.
func (c *Collector) TrackFlush(failed bool) {
	c.flushCount.Add(1)
	if failed {
		c.flushErrorCount.Add(1)
	}
}

// GetRecordCount returns the number of records logged at a level.
func (c *Collector) GetRecordCount(level types.Level) uint64 {
	if val, ok := c.recordsByLevel.Load(level); ok {
		return val.(*atomic.Uint64).Load()
	}
	return 0
}

// GetErrorCount returns the total delivery failure count.
func (c *Collector) GetErrorCount() uint64 {
	return c.errorCount.Load()
}

// GetErrorCountBySink returns the failure count for one sink name.
func (c *Collector) GetErrorCountBySink(sink string) uint64 {
	if val, ok := c.errorsBySink.Load(sink); ok {
		return val.(*atomic.Uint64).Load()
	}
	return 0
}
