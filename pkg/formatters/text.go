package formatters

import (
	"strconv"
	"strings"

	"github.com/wayneeseguin/relay/pkg/colors"
	"github.com/wayneeseguin/relay/pkg/types"
)

// LevelPrefix prepends the bracketed level name: "[INFO] msg".
func LevelPrefix(msg string, rec *types.Record) string {
	return "[" + rec.Level().String() + "] " + msg
}

// ColoredLevelPrefix is LevelPrefix with the level name painted by cfg.
func ColoredLevelPrefix(cfg colors.ColoredLevelConfig) Func {
	return func(msg string, rec *types.Record) string {
		return "[" + cfg.Paint(rec.Level()) + "] " + msg
	}
}

// TextFormatter formats records as human-readable text:
//
//	[2024-05-01T10:00:00Z][app/db][INFO] connected
type TextFormatter struct {
	Options FormatOptions
}

// NewTextFormatter creates a new text formatter
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{
		Options: DefaultFormatOptions(),
	}
}

// Format implements Formatter
func (f *TextFormatter) Format(msg string, rec *types.Record) string {
	var result strings.Builder
	result.Grow(len(msg) + 64)

	if f.Options.IncludeTime {
		result.WriteByte('[')
		result.WriteString(f.Options.timestamp(rec.Time()))
		result.WriteByte(']')
	}

	if f.Options.IncludeTarget {
		result.WriteByte('[')
		result.WriteString(rec.Target())
		result.WriteByte(']')
	}

	if f.Options.IncludeLevel {
		result.WriteByte('[')
		result.WriteString(f.Options.level(rec.Level()))
		result.WriteByte(']')
	}

	if f.Options.IncludeSource {
		if line, ok := rec.Line(); ok && rec.File() != "" {
			result.WriteByte('[')
			result.WriteString(rec.File())
			result.WriteByte(':')
			result.WriteString(strconv.Itoa(line))
			result.WriteByte(']')
		}
	}

	if result.Len() > 0 {
		result.WriteByte(' ')
	}
	result.WriteString(msg)
	return result.String()
}
