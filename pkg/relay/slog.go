package relay

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/wayneeseguin/relay/pkg/types"
)

// SlogHandler is an adapter that implements slog.Handler on top of a Logger,
// so code written against log/slog can feed a dispatch tree.
// Attributes are rendered after the message as key=value pairs; groups
// extend the target ("app" becomes "app/http").
type SlogHandler struct {
	logger Logger
	target string
	attrs  string
}

// NewSlogHandler creates a slog.Handler that logs to l under target.
//
// Example:
//
//	_, logger := relay.New().Chain(relay.Stderr()).IntoLogger()
//	slog.SetDefault(slog.New(relay.NewSlogHandler(logger, "app")))
func NewSlogHandler(l Logger, target string) *SlogHandler {
	return &SlogHandler{logger: l, target: target}
}

// Enabled reports whether the wrapped logger accepts records at level.
func (h *SlogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.logger.Enabled(types.Metadata{Level: slogLevel(level), Target: h.target})
}

// Handle converts r into a record and logs it.
func (h *SlogHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(r.Message)
	b.WriteString(h.attrs)
	r.Attrs(func(a slog.Attr) bool {
		appendAttr(&b, "", a)
		return true
	})

	rec := types.NewRecord(slogLevel(r.Level), h.target, b.String()).WithTime(r.Time)
	if r.PC != 0 {
		if module, file, line, ok := frameSource(r.PC); ok {
			rec = rec.WithSource(module, file, line)
		}
	}
	h.logger.Log(&rec)
	return nil
}

// WithAttrs returns a handler that renders attrs on every record.
func (h *SlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	var b strings.Builder
	b.WriteString(h.attrs)
	for _, a := range attrs {
		appendAttr(&b, "", a)
	}
	return &SlogHandler{logger: h.logger, target: h.target, attrs: b.String()}
}

// WithGroup returns a handler logging under target/name.
func (h *SlogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	target := name
	if h.target != "" {
		target = h.target + "/" + name
	}
	return &SlogHandler{logger: h.logger, target: target, attrs: h.attrs}
}

// slogLevel converts a slog.Level to a relay level.
func slogLevel(level slog.Level) types.Level {
	switch {
	case level >= slog.LevelError:
		return types.LevelError
	case level >= slog.LevelWarn:
		return types.LevelWarn
	case level >= slog.LevelInfo:
		return types.LevelInfo
	case level >= slog.LevelDebug:
		return types.LevelDebug
	default:
		return types.LevelTrace
	}
}

// appendAttr writes " key=value", flattening groups as key.sub=value.
func appendAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	key := a.Key
	switch {
	case key == "":
		key = prefix
	case prefix != "":
		key = prefix + "." + a.Key
	}

	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			appendAttr(b, key, ga)
		}
		return
	}

	b.WriteByte(' ')
	b.WriteString(key)
	b.WriteByte('=')
	val := a.Value.String()
	if strings.ContainsAny(val, " \t\n\"=") {
		fmt.Fprintf(b, "%q", val)
	} else {
		b.WriteString(val)
	}
}
