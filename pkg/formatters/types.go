package formatters

import (
	"strings"
	"time"

	"github.com/wayneeseguin/relay/pkg/colors"
	"github.com/wayneeseguin/relay/pkg/types"
)

// FormatOptions controls the output format
type FormatOptions struct {
	TimestampFormat string
	IncludeTime     bool
	IncludeLevel    bool
	IncludeTarget   bool
	IncludeSource   bool // Whether to include file:line when known
	LevelFormat     LevelFormat
	TimeZone        *time.Location

	// Colors paints level names when non-nil.
	Colors *colors.ColoredLevelConfig
}

// LevelFormat defines level format options
type LevelFormat int

const (
	// LevelFormatName formats levels as their names (DEBUG, INFO, etc)
	LevelFormatName LevelFormat = iota
	// LevelFormatNameUpper formats levels as uppercase names
	LevelFormatNameUpper
	// LevelFormatNameLower formats levels as lowercase names
	LevelFormatNameLower
	// LevelFormatSymbol formats levels as single-character symbols
	LevelFormatSymbol
)

// DefaultFormatOptions returns default formatting options
func DefaultFormatOptions() FormatOptions {
	return FormatOptions{
		TimestampFormat: time.RFC3339,
		IncludeTime:     true,
		IncludeLevel:    true,
		IncludeTarget:   true,
		LevelFormat:     LevelFormatName,
		TimeZone:        time.UTC,
	}
}

// timestamp renders t in the configured zone and layout.
func (o *FormatOptions) timestamp(t time.Time) string {
	layout := o.TimestampFormat
	if layout == "" {
		layout = time.RFC3339
	}
	if o.TimeZone != nil {
		t = t.In(o.TimeZone)
	}
	return t.Format(layout)
}

// level renders a level name, painted when Colors is set.
func (o *FormatOptions) level(level types.Level) string {
	name := levelName(level, o.LevelFormat)
	if o.Colors == nil {
		return name
	}
	return o.Colors.Color(level).Wrap(name)
}

func levelName(level types.Level, format LevelFormat) string {
	name := level.String()
	switch format {
	case LevelFormatNameLower:
		return strings.ToLower(name)
	case LevelFormatSymbol:
		return name[:1]
	}
	return name
}
