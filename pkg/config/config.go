// Package config builds dispatch trees from YAML documents.
//
// A document describes one node and its outputs; nested "dispatch"
// outputs describe child nodes with the same keys:
//
//	level: info
//	levels:
//	  github.com/acme/app/db: warn
//	format: "[{level}] {message}"
//	color: auto
//	outputs:
//	  - stdout: {}
//	  - file: {path: /var/log/app.log}
//	  - dispatch:
//	      level: error
//	      outputs:
//	        - syslog: {network: udp, address: localhost:514, tag: app}
//
// RELAY_LEVEL, when set, replaces the root level.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/wayneeseguin/relay/pkg/backends"
	"github.com/wayneeseguin/relay/pkg/colors"
	"github.com/wayneeseguin/relay/pkg/formatters"
	"github.com/wayneeseguin/relay/pkg/relay"
	"github.com/wayneeseguin/relay/pkg/types"
)

// LevelEnv overrides the root level of every loaded configuration.
const LevelEnv = "RELAY_LEVEL"

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config describes one dispatch node.
type Config struct {
	// Level is the node's minimum level. The root defaults to info,
	// nested nodes to trace.
	Level string `yaml:"level,omitempty"`

	// Levels overrides Level for targets and their subtrees.
	Levels map[string]string `yaml:"levels,omitempty"`

	// Format is a formatter name ("text", "json", "level") or a
	// template such as "[{level}] {message}". Empty leaves the text as is.
	Format string `yaml:"format,omitempty"`

	// Redact lists regular expressions whose matches are replaced with
	// "[REDACTED]" after the node's formatter runs.
	Redact []string `yaml:"redact,omitempty"`

	// Color is auto, always or never. Nested nodes inherit it.
	Color string `yaml:"color,omitempty"`

	// Colors overrides the per-level colors, e.g. {info: green}.
	Colors map[string]string `yaml:"colors,omitempty"`

	Outputs []Output `yaml:"outputs"`
}

// Output is one sink. Exactly one field is set.
type Output struct {
	Stdout   *StreamOutput `yaml:"stdout,omitempty"`
	Stderr   *StreamOutput `yaml:"stderr,omitempty"`
	File     *FileOutput   `yaml:"file,omitempty"`
	CBOR     *CBOROutput   `yaml:"cbor,omitempty"`
	Syslog   *SyslogOutput `yaml:"syslog,omitempty"`
	NATS     *NATSOutput   `yaml:"nats,omitempty"`
	URI      string        `yaml:"uri,omitempty"`
	Dispatch *Config       `yaml:"dispatch,omitempty"`
}

// StreamOutput configures stdout and stderr.
type StreamOutput struct {
	// Separator terminates every line; defaults to "\n".
	Separator string `yaml:"separator,omitempty"`
}

// FileOutput configures a file backend.
type FileOutput struct {
	Path       string `yaml:"path"`
	Sync       bool   `yaml:"sync,omitempty"`
	BufferSize int    `yaml:"buffer_size,omitempty"`
}

// CBOROutput configures a CBOR event log.
type CBOROutput struct {
	Path string `yaml:"path"`
}

// SyslogOutput configures a syslog backend. Without an address the local
// daemon is used; with one, network defaults to udp.
type SyslogOutput struct {
	Network  string `yaml:"network,omitempty"`
	Address  string `yaml:"address,omitempty"`
	Tag      string `yaml:"tag,omitempty"`
	Facility *int   `yaml:"facility,omitempty"`
}

// NATSOutput configures a NATS backend from its URI.
type NATSOutput struct {
	URL string `yaml:"url"`
}

var outputKinds = map[string]bool{
	"stdout": true, "stderr": true, "file": true, "cbor": true,
	"syslog": true, "nats": true, "uri": true, "dispatch": true,
}

// UnmarshalYAML requires each output to be a single-key mapping naming
// its kind. A kind with no body ("- stdout:") uses defaults.
func (o *Output) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return errors.Errorf("line %d: output must be a mapping", value.Line)
	}
	if len(value.Content) != 2 {
		return errors.Errorf("line %d: output must have exactly one kind, got %d", value.Line, len(value.Content)/2)
	}

	key, body := value.Content[0], value.Content[1]
	if !outputKinds[key.Value] {
		return errors.Errorf("line %d: unknown output kind %q", key.Line, key.Value)
	}

	empty := body.Kind == yaml.ScalarNode && body.Tag == "!!null"
	decode := func(v interface{}) error {
		if empty {
			return nil
		}
		return errors.Wrapf(decodeStrict(body, v), "line %d: %s", body.Line, key.Value)
	}

	switch key.Value {
	case "stdout":
		o.Stdout = &StreamOutput{}
		return decode(o.Stdout)
	case "stderr":
		o.Stderr = &StreamOutput{}
		return decode(o.Stderr)
	case "file":
		o.File = &FileOutput{}
		return decode(o.File)
	case "cbor":
		o.CBOR = &CBOROutput{}
		return decode(o.CBOR)
	case "syslog":
		o.Syslog = &SyslogOutput{}
		return decode(o.Syslog)
	case "nats":
		o.NATS = &NATSOutput{}
		return decode(o.NATS)
	case "uri":
		return decode(&o.URI)
	default:
		o.Dispatch = &Config{}
		return decode(o.Dispatch)
	}
}

// decodeStrict decodes node into v rejecting unknown keys. Node.Decode
// does not inherit KnownFields from the outer decoder, so the body is
// re-encoded and read back through a strict one.
func decodeStrict(node *yaml.Node, v interface{}) error {
	data, err := yaml.Marshal(node)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(v)
}

// Kind returns the name of the set field, or "" when none is set.
func (o *Output) Kind() string {
	switch {
	case o.Stdout != nil:
		return "stdout"
	case o.Stderr != nil:
		return "stderr"
	case o.File != nil:
		return "file"
	case o.CBOR != nil:
		return "cbor"
	case o.Syslog != nil:
		return "syslog"
	case o.NATS != nil:
		return "nats"
	case o.URI != "":
		return "uri"
	case o.Dispatch != nil:
		return "dispatch"
	}
	return ""
}

func (o *Output) kinds() int {
	n := 0
	for _, set := range []bool{
		o.Stdout != nil, o.Stderr != nil, o.File != nil, o.CBOR != nil,
		o.Syslog != nil, o.NATS != nil, o.URI != "", o.Dispatch != nil,
	} {
		if set {
			n++
		}
	}
	return n
}

// Load reads and parses the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	return cfg, nil
}

// Parse decodes a YAML document, applies RELAY_LEVEL and validates the
// result. Unknown top-level keys are rejected. An empty document is a
// root with no outputs.
func Parse(data []byte) (*Config, error) {
	var cfg Config

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "parse config")
	}

	if level := os.Getenv(LevelEnv); level != "" {
		cfg.Level = level
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every node of the tree.
func (c *Config) Validate() error {
	return c.validate("root")
}

func (c *Config) validate(path string) error {
	if c.Level != "" {
		if _, err := types.ParseLevel(c.Level); err != nil {
			return errors.Wrapf(err, "%s: level", path)
		}
	}

	for target, level := range c.Levels {
		if target == "" {
			return errors.Errorf("%s: levels: empty target", path)
		}
		if _, err := types.ParseLevel(level); err != nil {
			return errors.Wrapf(err, "%s: levels[%s]", path, target)
		}
	}

	switch c.Color {
	case "", ColorAuto, ColorAlways, ColorNever:
	default:
		return errors.Errorf("%s: color must be auto, always or never, got %q", path, c.Color)
	}

	if _, err := levelColors(c.Colors, colors.Default()); err != nil {
		return errors.Wrapf(err, "%s: colors", path)
	}

	if c.Format != "" {
		if _, err := formatters.Parse(c.Format, formatters.DefaultFormatOptions()); err != nil {
			return errors.Wrapf(err, "%s: format", path)
		}
	}

	if _, err := formatters.NewRedactor(c.Redact, ""); err != nil {
		return errors.Wrapf(err, "%s: redact", path)
	}

	for i := range c.Outputs {
		if err := c.Outputs[i].validate(fmt.Sprintf("%s.outputs[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}

func (o *Output) validate(path string) error {
	switch o.kinds() {
	case 0:
		return errors.Errorf("%s: no output kind set", path)
	case 1:
	default:
		return errors.Errorf("%s: exactly one output kind may be set", path)
	}

	switch o.Kind() {
	case "file":
		if o.File.Path == "" {
			return errors.Errorf("%s: file: path is required", path)
		}
		if o.File.BufferSize < 0 {
			return errors.Errorf("%s: file: buffer_size must not be negative", path)
		}
	case "cbor":
		if o.CBOR.Path == "" {
			return errors.Errorf("%s: cbor: path is required", path)
		}
	case "syslog":
		if o.Syslog.Network != "" && o.Syslog.Address == "" {
			return errors.Errorf("%s: syslog: address is required with network %s", path, o.Syslog.Network)
		}
		if f := o.Syslog.Facility; f != nil && (*f < 0 || *f > 23) {
			return errors.Errorf("%s: syslog: facility %d out of range 0-23", path, *f)
		}
	case "nats":
		if o.NATS.URL == "" {
			return errors.Errorf("%s: nats: url is required", path)
		}
	case "dispatch":
		return o.Dispatch.validate(path + ".dispatch")
	}
	return nil
}

// levelColors applies overrides such as {info: green} to base.
func levelColors(overrides map[string]string, base colors.ColoredLevelConfig) (colors.ColoredLevelConfig, error) {
	for name, colorName := range overrides {
		level, err := types.ParseLevel(name)
		if err != nil || !level.Valid() {
			return base, errors.Errorf("unknown level %q", name)
		}
		c, err := colors.ParseColor(colorName)
		if err != nil {
			return base, errors.WithStack(err)
		}
		base = base.Set(level, c)
	}
	return base, nil
}

// Built is a dispatch tree together with the backends it opened.
type Built struct {
	Dispatch *relay.Dispatch

	closers []io.Closer
}

// Build validates c and opens every output. On failure, backends opened
// so far are closed.
func (c *Config) Build() (*Built, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	b := &Built{}
	d, err := b.node(c, true, ColorNever, colors.Default())
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	b.Dispatch = d
	return b, nil
}

// Install seals the tree and installs it as the global logger.
func (b *Built) Install(opts ...relay.LoggerOption) error {
	return b.Dispatch.Install(opts...)
}

// Backends returns the number of backends that Close will release.
func (b *Built) Backends() int {
	return len(b.closers)
}

// Close closes every opened backend, in reverse order of opening.
func (b *Built) Close() error {
	var result error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i].Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	b.closers = nil
	return result
}

func (b *Built) node(c *Config, root bool, inheritedColor string, palette colors.ColoredLevelConfig) (*relay.Dispatch, error) {
	level := types.LevelTrace
	if root {
		level = types.LevelInfo
	}
	if c.Level != "" {
		level, _ = types.ParseLevel(c.Level)
	}
	d := relay.New().WithLevel(level)

	targets := make([]string, 0, len(c.Levels))
	for target := range c.Levels {
		targets = append(targets, target)
	}
	sort.Strings(targets)
	for _, target := range targets {
		l, _ := types.ParseLevel(c.Levels[target])
		d.WithLevelFor(target, l)
	}

	mode := inheritedColor
	if c.Color != "" {
		mode = c.Color
	}
	palette, _ = levelColors(c.Colors, palette)

	var format formatters.Func
	if c.Format != "" {
		opts := formatters.DefaultFormatOptions()
		if useColor(mode, c.Outputs) {
			opts.Colors = &palette
		}
		var err error
		format, err = formatters.Parse(c.Format, opts)
		if err != nil {
			return nil, errors.Wrap(err, "format")
		}
		d.WithFormat(format)
	}

	if len(c.Redact) > 0 {
		redactor, err := formatters.NewRedactor(c.Redact, "")
		if err != nil {
			return nil, errors.Wrap(err, "redact")
		}
		d.WithFormat(redactor.Then(format))
	}

	for i := range c.Outputs {
		out := &c.Outputs[i]
		if out.Dispatch != nil {
			child, err := b.node(out.Dispatch, false, mode, palette)
			if err != nil {
				return nil, err
			}
			d.ChainDispatch(child)
			continue
		}

		sink, err := b.sink(out)
		if err != nil {
			return nil, errors.Wrapf(err, "outputs[%d] %s", i, out.Kind())
		}
		d.Chain(sink)
	}
	return d, nil
}

func (b *Built) sink(out *Output) (relay.Sink, error) {
	switch out.Kind() {
	case "stdout":
		if out.Stdout.Separator == "" {
			return relay.Stdout(), nil
		}
		return relay.Writer(os.Stdout, out.Stdout.Separator), nil
	case "stderr":
		if out.Stderr.Separator == "" {
			return relay.Stderr(), nil
		}
		return relay.Writer(os.Stderr, out.Stderr.Separator), nil
	}

	var backend backends.Backend
	var err error
	switch out.Kind() {
	case "file":
		var opts []backends.FileOption
		if out.File.Sync {
			opts = append(opts, backends.WithSync(true))
		}
		if out.File.BufferSize > 0 {
			opts = append(opts, backends.WithBufferSize(out.File.BufferSize))
		}
		backend, err = backends.NewFileBackend(out.File.Path, opts...)
	case "cbor":
		backend, err = backends.NewCBORFileBackend(out.CBOR.Path)
	case "syslog":
		facility := backends.FacilityUser
		if out.Syslog.Facility != nil {
			facility = *out.Syslog.Facility
		}
		network := out.Syslog.Network
		if network == "" && out.Syslog.Address != "" {
			network = "udp"
		}
		backend, err = backends.NewSyslogBackend(network, out.Syslog.Address, facility, out.Syslog.Tag)
	case "nats":
		backend, err = backends.NewNATSBackend(out.NATS.URL)
	case "uri":
		backend, err = backends.Open(out.URI)
	}
	if err != nil {
		return nil, err
	}
	b.closers = append(b.closers, backend)
	return backend, nil
}

// useColor decides whether a node's formatter paints level names. In
// auto mode the first stream output of the node must be a terminal.
func useColor(mode string, outputs []Output) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorAuto:
		for i := range outputs {
			switch {
			case outputs[i].Stdout != nil:
				return colors.ShouldColor(os.Stdout)
			case outputs[i].Stderr != nil:
				return colors.ShouldColor(os.Stderr)
			}
		}
	}
	return false
}
