package formatters

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Factory creates formatters by name
type Factory struct {
	mu         sync.RWMutex
	formatters map[string]Constructor
}

// Constructor builds a formatter from options
type Constructor func(opts FormatOptions) Func

// NewFactory creates a new formatter factory with default formatters registered:
// "text", "json" and "level".
func NewFactory() *Factory {
	f := &Factory{
		formatters: make(map[string]Constructor),
	}

	f.formatters["text"] = func(opts FormatOptions) Func {
		return (&TextFormatter{Options: opts}).Format
	}
	f.formatters["json"] = func(opts FormatOptions) Func {
		jf := NewJSONFormatter()
		jf.Options.TimeZone = opts.TimeZone
		jf.Options.LevelFormat = opts.LevelFormat
		return jf.Format
	}
	f.formatters["level"] = func(opts FormatOptions) Func {
		if opts.Colors != nil {
			return ColoredLevelPrefix(*opts.Colors)
		}
		return LevelPrefix
	}

	return f
}

// Register registers a new formatter constructor
func (f *Factory) Register(name string, constructor Constructor) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if name == "" {
		return fmt.Errorf("formatter name cannot be empty")
	}
	if strings.ContainsRune(name, '{') {
		return fmt.Errorf("formatter name %q cannot contain '{'", name)
	}
	if constructor == nil {
		return fmt.Errorf("formatter constructor cannot be nil")
	}

	f.formatters[name] = constructor
	return nil
}

// Create creates a formatter by name
func (f *Factory) Create(name string, opts FormatOptions) (Func, error) {
	f.mu.RLock()
	constructor, exists := f.formatters[name]
	f.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("formatter %q not registered", name)
	}
	return constructor(opts), nil
}

// Parse resolves format to a formatter. A registered name selects that
// formatter; anything containing '{' is compiled as a Template.
func (f *Factory) Parse(format string, opts FormatOptions) (Func, error) {
	if strings.ContainsRune(format, '{') {
		return TemplateWith(format, opts), nil
	}
	return f.Create(format, opts)
}

// List returns the names of all registered formatters in sorted order
func (f *Factory) List() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	names := make([]string, 0, len(f.formatters))
	for name := range f.formatters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultFactory is the global formatter factory
var DefaultFactory = NewFactory()

// Register registers a formatter with the default factory
func Register(name string, constructor Constructor) error {
	return DefaultFactory.Register(name, constructor)
}

// Parse resolves a formatter using the default factory
func Parse(format string, opts FormatOptions) (Func, error) {
	return DefaultFactory.Parse(format, opts)
}
