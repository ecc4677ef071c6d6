package formatters

import (
	"os"
	"strconv"
	"testing"

	"github.com/wayneeseguin/relay/pkg/colors"
	"github.com/wayneeseguin/relay/pkg/types"
)

func TestTemplate(t *testing.T) {
	located := types.NewRecord(types.LevelWarn, "app/db", "").
		WithTime(fixedTime).
		WithSource("example.com/app/db", "db.go", 42)

	tests := []struct {
		name    string
		pattern string
		rec     *types.Record
		want    string
	}{
		{"level and message", "[{level}] {message}", testRecord(types.LevelInfo, "app"), "[INFO] hello"},
		{"fern layout", "{time}[{target}][{level}] {message}", testRecord(types.LevelDebug, "app"), "2023-01-01T12:00:00Z[app][DEBUG] hello"},
		{"time layout", "{time:2006-01-02 15:04:05} {message}", testRecord(types.LevelInfo, "app"), "2023-01-01 12:00:00 hello"},
		{"source", "{module} {file}:{line} {message}", &located, "example.com/app/db db.go:42 hello"},
		{"unknown source", "{file}:{line}|{message}", testRecord(types.LevelInfo, "app"), ":|hello"},
		{"unknown placeholder", "{nope} {message}", testRecord(types.LevelInfo, "app"), "{nope} hello"},
		{"unclosed brace", "{message} {level", testRecord(types.LevelInfo, "app"), "hello {level"},
		{"nested brace", "{a{level}", testRecord(types.LevelError, "app"), "{aERROR"},
		{"literal only", "constant", testRecord(types.LevelInfo, "app"), "constant"},
		{"repeated", "{message}{message}", testRecord(types.LevelInfo, "app"), "hellohello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Template(tt.pattern)("hello", tt.rec); got != tt.want {
				t.Errorf("Template(%q) = %q, want %q", tt.pattern, got, tt.want)
			}
		})
	}
}

func TestTemplate_Process(t *testing.T) {
	got := Template("{host} {pid}")("", testRecord(types.LevelInfo, "app"))
	host, _ := os.Hostname()
	if got != host+" "+strconv.Itoa(os.Getpid()) {
		t.Errorf("Template() = %q", got)
	}
}

func TestTemplateWith_Colors(t *testing.T) {
	cfg := colors.Default()
	opts := DefaultFormatOptions()
	opts.Colors = &cfg

	got := TemplateWith("{level}: {message}", opts)("disk full", testRecord(types.LevelWarn, "app"))
	if got != "\x1b[33mWARN\x1b[0m: disk full" {
		t.Errorf("TemplateWith() = %q", got)
	}
}

func TestFactory(t *testing.T) {
	f := NewFactory()

	names := f.List()
	if len(names) != 3 || names[0] != "json" || names[1] != "level" || names[2] != "text" {
		t.Errorf("List() = %v", names)
	}

	rec := testRecord(types.LevelInfo, "app")
	opts := DefaultFormatOptions()
	opts.IncludeTime = false

	tests := []struct {
		format string
		want   string
	}{
		{"level", "[INFO] msg"},
		{"text", "[app][INFO] msg"},
		{"{target}: {message}", "app: msg"},
	}
	for _, tt := range tests {
		format, err := f.Parse(tt.format, opts)
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", tt.format, err)
		}
		if got := format("msg", rec); got != tt.want {
			t.Errorf("Parse(%q) = %q, want %q", tt.format, got, tt.want)
		}
	}

	if _, err := f.Parse("xml", opts); err == nil {
		t.Error("Parse(xml) should fail")
	}
}

func TestFactory_Register(t *testing.T) {
	f := NewFactory()

	upper := func(FormatOptions) Func {
		return func(msg string, _ *types.Record) string { return msg + "!" }
	}

	tests := []struct {
		name    string
		format  string
		ctor    Constructor
		wantErr bool
	}{
		{"valid registration", "loud", upper, false},
		{"empty name", "", upper, true},
		{"template-like name", "{x}", upper, true},
		{"nil constructor", "nil", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.Register(tt.format, tt.ctor)
			if (err != nil) != tt.wantErr {
				t.Errorf("Register() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	format, err := f.Create("loud", DefaultFormatOptions())
	if err != nil {
		t.Fatal(err)
	}
	if got := format("hey", testRecord(types.LevelInfo, "app")); got != "hey!" {
		t.Errorf("custom formatter = %q", got)
	}
}
