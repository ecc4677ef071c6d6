package metrics

import (
	"sync"
	"testing"

	"github.com/wayneeseguin/relay/pkg/types"
)

func TestNewCollector(t *testing.T) {
	c := NewCollector()
	if c == nil {
		t.Fatal("NewCollector() returned nil")
	}

	if c.GetRecordCount(types.LevelInfo) != 0 {
		t.Error("Expected initial record count to be 0")
	}
	if c.GetErrorCount() != 0 {
		t.Error("Expected initial error count to be 0")
	}
}

func TestTrackRecord(t *testing.T) {
	c := NewCollector()

	tests := []struct {
		name  string
		level types.Level
		count int
	}{
		{"single debug", types.LevelDebug, 1},
		{"several info", types.LevelInfo, 5},
		{"many error", types.LevelError, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < tt.count; i++ {
				c.TrackRecord(tt.level)
			}
			if got := c.GetRecordCount(tt.level); got != uint64(tt.count) {
				t.Errorf("GetRecordCount(%s) = %d, want %d", tt.level, got, tt.count)
			}
		})
	}

	m := c.GetMetrics()
	if m.RecordsLogged[types.LevelInfo] != 5 {
		t.Errorf("RecordsLogged[INFO] = %d, want 5", m.RecordsLogged[types.LevelInfo])
	}
	if _, ok := m.RecordsLogged[types.LevelTrace]; ok {
		t.Error("levels that never logged should be absent from the snapshot")
	}
}

func TestTrackErrorBySink(t *testing.T) {
	c := NewCollector()

	c.TrackError("file:///tmp/a.log")
	c.TrackError("file:///tmp/a.log")
	c.TrackError("queue")

	if got := c.GetErrorCount(); got != 3 {
		t.Errorf("GetErrorCount() = %d, want 3", got)
	}
	if got := c.GetErrorCountBySink("file:///tmp/a.log"); got != 2 {
		t.Errorf("file errors = %d, want 2", got)
	}
	if got := c.GetErrorCountBySink("missing"); got != 0 {
		t.Errorf("unknown sink errors = %d, want 0", got)
	}

	m := c.GetMetrics()
	if m.ErrorsBySink["queue"] != 1 {
		t.Errorf("ErrorsBySink[queue] = %d, want 1", m.ErrorsBySink["queue"])
	}
}

func TestTrackGatedAndFlush(t *testing.T) {
	c := NewCollector()

	c.TrackGated()
	c.TrackGated()
	c.TrackRejected()
	c.TrackFlush(false)
	c.TrackFlush(true)

	m := c.GetMetrics()
	if m.RecordsGated != 2 {
		t.Errorf("RecordsGated = %d, want 2", m.RecordsGated)
	}
	if m.RecordsRejected != 1 {
		t.Errorf("RecordsRejected = %d, want 1", m.RecordsRejected)
	}
	if m.FlushCount != 2 || m.FlushErrorCount != 1 {
		t.Errorf("flushes = %d/%d, want 2/1", m.FlushCount, m.FlushErrorCount)
	}
}

func TestReset(t *testing.T) {
	c := NewCollector()
	c.TrackRecord(types.LevelWarn)
	c.TrackError("stdout")
	c.TrackGated()
	c.TrackFlush(true)

	c.Reset()

	m := c.GetMetrics()
	if len(m.RecordsLogged) != 0 || len(m.ErrorsBySink) != 0 {
		t.Errorf("expected empty maps after reset, got %v %v", m.RecordsLogged, m.ErrorsBySink)
	}
	if m.ErrorCount != 0 || m.RecordsGated != 0 || m.FlushCount != 0 || m.FlushErrorCount != 0 {
		t.Errorf("expected zero counters after reset, got %+v", m)
	}
}

func TestConcurrentTracking(t *testing.T) {
	c := NewCollector()

	const goroutines = 10
	const perGoroutine = 1000

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				c.TrackRecord(types.LevelInfo)
				c.TrackError("shared")
			}
		}()
	}
	wg.Wait()

	want := uint64(goroutines * perGoroutine)
	if got := c.GetRecordCount(types.LevelInfo); got != want {
		t.Errorf("GetRecordCount = %d, want %d", got, want)
	}
	if got := c.GetErrorCountBySink("shared"); got != want {
		t.Errorf("GetErrorCountBySink = %d, want %d", got, want)
	}
}
