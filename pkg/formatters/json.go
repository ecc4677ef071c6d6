package formatters

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/wayneeseguin/relay/pkg/types"
)

// JSONFormatter renders each record as one JSON object per line
type JSONFormatter struct {
	Options FormatOptions
}

// jsonEntry fixes the key order of the output.
type jsonEntry struct {
	Time    string `json:"time,omitempty"`
	Level   string `json:"level,omitempty"`
	Target  string `json:"target"`
	Message string `json:"message"`
	Module  string `json:"module,omitempty"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter() *JSONFormatter {
	opts := DefaultFormatOptions()
	opts.TimestampFormat = "2006-01-02T15:04:05.000000000Z07:00"
	return &JSONFormatter{Options: opts}
}

// Format implements Formatter. Colors are never applied to JSON.
func (f *JSONFormatter) Format(msg string, rec *types.Record) string {
	entry := jsonEntry{
		Target:  rec.Target(),
		Message: msg,
		Module:  rec.ModulePath(),
		File:    rec.File(),
	}
	if f.Options.IncludeTime {
		entry.Time = f.Options.timestamp(rec.Time())
	}
	if f.Options.IncludeLevel {
		entry.Level = levelName(rec.Level(), f.Options.LevelFormat)
	}
	if line, ok := rec.Line(); ok {
		entry.Line = line
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(entry); err != nil {
		// Strings and ints always encode; still emit valid JSON if not.
		return `{"message":` + strconv.Quote(msg) + `}`
	}
	return string(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
}
