package relay

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/wayneeseguin/relay/pkg/types"
)

const thisPackage = "github.com/wayneeseguin/relay/pkg/relay"

// countingStringer records how often it was formatted.
type countingStringer struct {
	calls *int
}

func (c countingStringer) String() string {
	*c.calls++
	return "value"
}

func installMemLogger(t *testing.T, floor Level) *memLogger {
	t.Helper()
	resetGlobal(t)

	mem := &memLogger{min: floor}
	if err := SetLogger(mem, floor); err != nil {
		t.Fatalf("SetLogger() error = %v", err)
	}
	return mem
}

func TestCallHelpersCaptureCaller(t *testing.T) {
	mem := installMemLogger(t, LevelTrace)

	Infof("listening on %s:%d", "localhost", 8080)

	recs := mem.Records()
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	rec := recs[0]
	if rec.Message() != "listening on localhost:8080" {
		t.Errorf("Message() = %q", rec.Message())
	}
	if rec.Level() != LevelInfo {
		t.Errorf("Level() = %s", rec.Level())
	}
	if rec.Target() != thisPackage || rec.ModulePath() != thisPackage {
		t.Errorf("Target() = %q, ModulePath() = %q", rec.Target(), rec.ModulePath())
	}
	if filepath.Base(rec.File()) != "calls_test.go" {
		t.Errorf("File() = %q", rec.File())
	}
	if line, ok := rec.Line(); !ok || line == 0 {
		t.Errorf("Line() = %d, %v", line, ok)
	}
}

func TestCallHelperLevels(t *testing.T) {
	mem := installMemLogger(t, LevelTrace)

	Tracef("t")
	Debugf("d")
	Infof("i")
	Warnf("w")
	Errorf("e")
	Logf(LevelWarn, "l %d", 1)
	Logf(LevelOff, "never")

	var got []string
	for _, r := range mem.Records() {
		got = append(got, r.Level().String()+":"+r.Message())
	}
	want := "TRACE:t DEBUG:d INFO:i WARN:w ERROR:e WARN:l 1"
	if strings.Join(got, " ") != want {
		t.Errorf("records = %q, want %q", strings.Join(got, " "), want)
	}
}

func TestCallHelpersSkipFormattingWhenDisabled(t *testing.T) {
	mem := installMemLogger(t, LevelWarn)

	calls := 0
	Debugf("expensive %s", countingStringer{&calls})
	if calls != 0 {
		t.Errorf("disabled record formatted its arguments %d times", calls)
	}
	Errorf("expensive %s", countingStringer{&calls})
	if calls != 1 {
		t.Errorf("enabled record formatted its arguments %d times, want 1", calls)
	}
	if len(mem.Records()) != 1 {
		t.Errorf("got %d records, want 1", len(mem.Records()))
	}
}

func TestForTarget(t *testing.T) {
	resetGlobal(t)

	sink := &recordingSink{name: "rec"}
	err := New().
		WithLevel(LevelInfo).
		WithLevelFor("app/db", LevelDebug).
		WithFormat(func(msg string, rec *types.Record) string { return rec.Target() + ": " + msg }).
		Chain(sink).
		Install()
	if err != nil {
		t.Fatalf("Install() error = %v", err)
	}

	db := For("app/db")
	if db.Target() != "app/db" {
		t.Errorf("Target() = %q", db.Target())
	}
	if !db.Enabled(LevelDebug) || db.Enabled(LevelTrace) {
		t.Error("Enabled() does not honor the target override")
	}

	db.Debugf("query took %dms", 12)
	db.Tracef("dropped")
	For("app/http").Debugf("dropped too")
	For("app/http").Logf(LevelError, "kept")

	got := strings.Join(sink.Lines(), "|")
	if got != "app/db: query took 12ms|app/http: kept" {
		t.Errorf("lines = %q", got)
	}
}
