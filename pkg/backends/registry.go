package backends

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"sync"
)

// Factory creates a backend from a parsed URI.
type Factory func(u *url.URL) (Backend, error)

// Registry maps URI schemes to backend factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates a registry holding the built-in schemes:
//
//	file:///var/log/app.log?sync=true
//	cbor:///var/log/app.cbor
//	syslog://localhost:514?network=udp&tag=app&facility=1
//	nats://localhost:4222/logs?format=json
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.factories["file"] = openFile
	r.factories["cbor"] = openCBOR
	r.factories["syslog"] = openSyslog
	r.factories["nats"] = openNATS
	return r
}

// Global registry instance
var defaultRegistry = NewRegistry()

// Register adds a factory for scheme. Registering a scheme twice is an error.
func (r *Registry) Register(scheme string, f Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[scheme]; exists {
		return fmt.Errorf("backend scheme %s already registered", scheme)
	}
	r.factories[scheme] = f
	return nil
}

// Open creates a backend for uri.
func (r *Registry) Open(uri string) (Backend, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid URI: %w", err)
	}

	r.mu.RLock()
	f, ok := r.factories[u.Scheme]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no backend registered for scheme %q", u.Scheme)
	}
	return f(u)
}

// Schemes lists registered schemes in sorted order.
func (r *Registry) Schemes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schemes := make([]string, 0, len(r.factories))
	for s := range r.factories {
		schemes = append(schemes, s)
	}
	sort.Strings(schemes)
	return schemes
}

// Register adds a factory to the default registry.
func Register(scheme string, f Factory) error {
	return defaultRegistry.Register(scheme, f)
}

// Open creates a backend for uri using the default registry.
func Open(uri string) (Backend, error) {
	return defaultRegistry.Open(uri)
}

func filePath(u *url.URL) (string, error) {
	path := u.Path
	if u.Host != "" {
		// file://relative/path
		path = u.Host + path
	}
	if path == "" {
		return "", fmt.Errorf("missing path in %s URI", u.Scheme)
	}
	return path, nil
}

func openFile(u *url.URL) (Backend, error) {
	path, err := filePath(u)
	if err != nil {
		return nil, err
	}

	var opts []FileOption
	q := u.Query()
	if s := q.Get("sync"); s != "" {
		enabled, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("invalid sync %q", s)
		}
		opts = append(opts, WithSync(enabled))
	}
	if s := q.Get("buffer"); s != "" {
		size, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("invalid buffer %q", s)
		}
		opts = append(opts, WithBufferSize(size))
	}
	return NewFileBackend(path, opts...)
}

func openCBOR(u *url.URL) (Backend, error) {
	path, err := filePath(u)
	if err != nil {
		return nil, err
	}
	return NewCBORFileBackend(path)
}

func openSyslog(u *url.URL) (Backend, error) {
	q := u.Query()

	network := q.Get("network")
	if network == "" && u.Host != "" {
		network = "udp"
	}

	facility := FacilityUser
	if s := q.Get("facility"); s != "" {
		f, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("invalid facility %q", s)
		}
		facility = f
	}
	return NewSyslogBackend(network, u.Host, facility, q.Get("tag"))
}

func openNATS(u *url.URL) (Backend, error) {
	return NewNATSBackend(u.String())
}
