// Package colors renders level names with ANSI terminal colors.
//
// A ColoredLevelConfig assigns one foreground color per level:
//
//	cfg := colors.Default().WithInfo(colors.Green)
//	line := cfg.Paint(types.LevelInfo) + " started"
//
// ShouldColor decides whether a writer is worth coloring: it must be a
// terminal and NO_COLOR must be unset.
package colors

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/wayneeseguin/relay/pkg/types"
)

// Color is an ANSI foreground color.
type Color int

// Standard and bright foreground colors.
const (
	Black Color = iota
	Red
	Green
	Yellow
	Blue
	Magenta
	Cyan
	White
	BrightBlack
	BrightRed
	BrightGreen
	BrightYellow
	BrightBlue
	BrightMagenta
	BrightCyan
	BrightWhite
)

var colorNames = map[string]Color{
	"black":          Black,
	"red":            Red,
	"green":          Green,
	"yellow":         Yellow,
	"blue":           Blue,
	"magenta":        Magenta,
	"cyan":           Cyan,
	"white":          White,
	"bright_black":   BrightBlack,
	"bright_red":     BrightRed,
	"bright_green":   BrightGreen,
	"bright_yellow":  BrightYellow,
	"bright_blue":    BrightBlue,
	"bright_magenta": BrightMagenta,
	"bright_cyan":    BrightCyan,
	"bright_white":   BrightWhite,
}

// ParseColor converts a name such as "red" or "bright_blue" to a Color.
// Matching is case-insensitive and accepts '-' or ' ' for '_'.
func ParseColor(name string) (Color, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	if c, ok := colorNames[key]; ok {
		return c, nil
	}
	return Black, fmt.Errorf("unknown color %q", name)
}

// Reset clears all attributes.
const Reset = "\x1b[0m"

// Code returns the SGR parameter for c: 30-37 for standard colors,
// 90-97 for bright ones.
func (c Color) Code() int {
	if c >= BrightBlack && c <= BrightWhite {
		return 90 + int(c-BrightBlack)
	}
	if c < Black || c > White {
		return 39 // default foreground
	}
	return 30 + int(c)
}

// Escape returns the escape sequence switching to c.
func (c Color) Escape() string {
	return "\x1b[" + strconv.Itoa(c.Code()) + "m"
}

// Wrap surrounds s with c and a reset.
func (c Color) Wrap(s string) string {
	return c.Escape() + s + Reset
}

// ColoredLevelConfig holds the color for each level.
type ColoredLevelConfig struct {
	Error Color
	Warn  Color
	Info  Color
	Debug Color
	Trace Color
}

// Default returns red errors, yellow warnings and white for everything else.
func Default() ColoredLevelConfig {
	return ColoredLevelConfig{
		Error: Red,
		Warn:  Yellow,
		Info:  White,
		Debug: White,
		Trace: White,
	}
}

// WithError returns a copy using c for errors.
func (cfg ColoredLevelConfig) WithError(c Color) ColoredLevelConfig {
	cfg.Error = c
	return cfg
}

// WithWarn returns a copy using c for warnings.
func (cfg ColoredLevelConfig) WithWarn(c Color) ColoredLevelConfig {
	cfg.Warn = c
	return cfg
}

// WithInfo returns a copy using c for info.
func (cfg ColoredLevelConfig) WithInfo(c Color) ColoredLevelConfig {
	cfg.Info = c
	return cfg
}

// WithDebug returns a copy using c for debug.
func (cfg ColoredLevelConfig) WithDebug(c Color) ColoredLevelConfig {
	cfg.Debug = c
	return cfg
}

// WithTrace returns a copy using c for trace.
func (cfg ColoredLevelConfig) WithTrace(c Color) ColoredLevelConfig {
	cfg.Trace = c
	return cfg
}

// Set returns a copy using c for level.
func (cfg ColoredLevelConfig) Set(level types.Level, c Color) ColoredLevelConfig {
	switch level {
	case types.LevelError:
		cfg.Error = c
	case types.LevelWarn:
		cfg.Warn = c
	case types.LevelInfo:
		cfg.Info = c
	case types.LevelDebug:
		cfg.Debug = c
	case types.LevelTrace:
		cfg.Trace = c
	}
	return cfg
}

// Color returns the color configured for level.
func (cfg ColoredLevelConfig) Color(level types.Level) Color {
	switch level {
	case types.LevelError:
		return cfg.Error
	case types.LevelWarn:
		return cfg.Warn
	case types.LevelInfo:
		return cfg.Info
	case types.LevelDebug:
		return cfg.Debug
	default:
		return cfg.Trace
	}
}

// Paint returns the level name wrapped in its color.
func (cfg ColoredLevelConfig) Paint(level types.Level) string {
	return cfg.Color(level).Wrap(level.String())
}

type fdWriter interface {
	Fd() uintptr
}

// ShouldColor reports whether output to w should carry color codes.
func ShouldColor(w io.Writer) bool {
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}
	f, ok := w.(fdWriter)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
