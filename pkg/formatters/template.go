package formatters

import (
	"strconv"
	"strings"

	"github.com/wayneeseguin/relay/pkg/types"
)

// Template returns a Func that fills pattern's placeholders:
//
//	{time}         record timestamp (RFC3339, UTC)
//	{time:LAYOUT}  record timestamp in a Go time layout
//	{level}        level name
//	{target}       record target
//	{message}      current text
//	{module}       module path of the call site
//	{file} {line}  source location; empty when unknown
//	{host} {pid} {process}
//
// Unknown placeholders are kept verbatim.
func Template(pattern string) Func {
	return TemplateWith(pattern, DefaultFormatOptions())
}

// TemplateWith is Template with explicit options for time zone, level
// format and colors.
func TemplateWith(pattern string, opts FormatOptions) Func {
	parts := parseTemplate(pattern)
	return func(msg string, rec *types.Record) string {
		var b strings.Builder
		b.Grow(len(pattern) + len(msg) + 32)
		for _, p := range parts {
			p.render(&b, &opts, msg, rec)
		}
		return b.String()
	}
}

type templatePart struct {
	literal string
	field   string
	layout  string
}

func (p templatePart) render(b *strings.Builder, opts *FormatOptions, msg string, rec *types.Record) {
	switch p.field {
	case "":
		b.WriteString(p.literal)
	case "time":
		if p.layout == "" {
			b.WriteString(opts.timestamp(rec.Time()))
			break
		}
		t := rec.Time()
		if opts.TimeZone != nil {
			t = t.In(opts.TimeZone)
		}
		b.WriteString(t.Format(p.layout))
	case "level":
		b.WriteString(opts.level(rec.Level()))
	case "target":
		b.WriteString(rec.Target())
	case "message":
		b.WriteString(msg)
	case "module":
		b.WriteString(rec.ModulePath())
	case "file":
		b.WriteString(rec.File())
	case "line":
		if line, ok := rec.Line(); ok {
			b.WriteString(strconv.Itoa(line))
		}
	case "host":
		b.WriteString(getHostname())
	case "pid":
		b.WriteString(strconv.Itoa(getPID()))
	case "process":
		b.WriteString(getProcessName())
	}
}

var templateFields = map[string]bool{
	"time": true, "level": true, "target": true, "message": true,
	"module": true, "file": true, "line": true,
	"host": true, "pid": true, "process": true,
}

func parseTemplate(pattern string) []templatePart {
	var parts []templatePart
	var literal strings.Builder

	flushLiteral := func() {
		if literal.Len() > 0 {
			parts = append(parts, templatePart{literal: literal.String()})
			literal.Reset()
		}
	}

	for len(pattern) > 0 {
		open := strings.IndexByte(pattern, '{')
		if open < 0 {
			literal.WriteString(pattern)
			break
		}
		literal.WriteString(pattern[:open])
		pattern = pattern[open:]

		closing := strings.IndexByte(pattern, '}')
		if closing < 0 {
			literal.WriteString(pattern)
			break
		}

		name := pattern[1:closing]
		if strings.IndexByte(name, '{') >= 0 {
			literal.WriteByte('{')
			pattern = pattern[1:]
			continue
		}
		layout := ""
		if strings.HasPrefix(name, "time:") {
			name, layout = "time", name[len("time:"):]
		}
		if !templateFields[name] {
			literal.WriteString(pattern[:closing+1])
			pattern = pattern[closing+1:]
			continue
		}

		flushLiteral()
		parts = append(parts, templatePart{field: name, layout: layout})
		pattern = pattern[closing+1:]
	}
	flushLiteral()
	return parts
}
