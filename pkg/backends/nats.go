package backends

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/wayneeseguin/relay/pkg/types"
)

// Message formats for NATSBackend.
const (
	NATSFormatText = "text"
	NATSFormatJSON = "json"
)

// DefaultNATSFlushTimeout bounds how long Flush waits for the server.
const DefaultNATSFlushTimeout = 5 * time.Second

// NATSBackend publishes every line to a NATS subject.
//
// The backend is configured from a URI:
//
//	nats://[user:pass@]host:port/subject?batch=100&format=json&max_reconnect=10&reconnect_wait=2&tls=true
//
// With batch > 1 lines are held until the batch fills or Flush is called.
// Publishing happens on the logging goroutine; no timers run in the
// background.
type NATSBackend struct {
	conn    *nats.Conn
	servers string
	subject string
	options []nats.Option

	batchSize    int
	format       string
	flushTimeout time.Duration

	mu     sync.Mutex
	buffer [][]byte
	stats  counters
}

// natsMessage is the payload published with format=json.
type natsMessage struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level"`
	Target  string    `json:"target"`
	Message string    `json:"message"`
	Line    string    `json:"line"`
	Module  string    `json:"module,omitempty"`
	File    string    `json:"file,omitempty"`
	LineNo  int       `json:"line_no,omitempty"`
}

// NewNATSBackend creates a NATS backend from a URI and connects to the server.
func NewNATSBackend(uri string) (*NATSBackend, error) {
	return NewNATSBackendWithOptions(uri, true)
}

// NewNATSBackendWithOptions creates a NATS backend from a URI. When connect
// is false the URI is only parsed; call Connect before logging.
func NewNATSBackendWithOptions(uri string, connect bool) (*NATSBackend, error) {
	parsedURL, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid URI: %w", err)
	}

	if parsedURL.Scheme != "nats" {
		return nil, fmt.Errorf("invalid scheme: %s (expected 'nats')", parsedURL.Scheme)
	}

	backend := &NATSBackend{
		subject:      strings.TrimPrefix(parsedURL.Path, "/"),
		batchSize:    1,
		format:       NATSFormatText,
		flushTimeout: DefaultNATSFlushTimeout,
	}
	if backend.subject == "" {
		return nil, fmt.Errorf("missing subject in %q", uri)
	}

	query := parsedURL.Query()

	if batchStr := query.Get("batch"); batchStr != "" {
		batch, err := strconv.Atoi(batchStr)
		if err != nil || batch < 1 {
			return nil, fmt.Errorf("invalid batch %q", batchStr)
		}
		backend.batchSize = batch
	}

	if format := query.Get("format"); format != "" {
		switch format {
		case NATSFormatText, NATSFormatJSON:
			backend.format = format
		default:
			return nil, fmt.Errorf("invalid format %q (expected text or json)", format)
		}
	}

	if timeoutStr := query.Get("flush_timeout"); timeoutStr != "" {
		if ms, err := strconv.Atoi(timeoutStr); err == nil && ms > 0 {
			backend.flushTimeout = time.Duration(ms) * time.Millisecond
		}
	}

	backend.options = []nats.Option{
		nats.Name("relay-nats-backend"),
	}

	if maxReconnectStr := query.Get("max_reconnect"); maxReconnectStr != "" {
		if maxReconnect, err := strconv.Atoi(maxReconnectStr); err == nil {
			backend.options = append(backend.options, nats.MaxReconnects(maxReconnect))
		}
	}

	if reconnectWaitStr := query.Get("reconnect_wait"); reconnectWaitStr != "" {
		if reconnectWait, err := strconv.Atoi(reconnectWaitStr); err == nil {
			backend.options = append(backend.options, nats.ReconnectWait(time.Duration(reconnectWait)*time.Second))
		}
	}

	if tlsStr := query.Get("tls"); tlsStr != "" {
		if tls, _ := strconv.ParseBool(tlsStr); tls {
			backend.options = append(backend.options, nats.Secure())
		}
	}

	if parsedURL.User != nil {
		username := parsedURL.User.Username()
		password, _ := parsedURL.User.Password()
		backend.options = append(backend.options, nats.UserInfo(username, password))
	}

	if parsedURL.Host != "" {
		backend.servers = "nats://" + parsedURL.Host
	} else {
		backend.servers = nats.DefaultURL
	}

	if connect {
		if err := backend.Connect(); err != nil {
			return nil, err
		}
	}
	return backend, nil
}

// Connect dials the server if the backend is not yet connected.
func (n *NATSBackend) Connect() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.conn != nil {
		return nil
	}
	conn, err := nats.Connect(n.servers, n.options...)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	n.conn = conn
	return nil
}

// Accept publishes line, or adds it to the current batch.
func (n *NATSBackend) Accept(line string, rec *types.Record) error {
	payload, err := n.encode(line, rec)
	if err != nil {
		n.stats.failed()
		return err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.batchSize <= 1 {
		return n.publishLocked(payload)
	}

	n.buffer = append(n.buffer, payload)
	if len(n.buffer) >= n.batchSize {
		return n.flushBufferLocked()
	}
	return nil
}

func (n *NATSBackend) encode(line string, rec *types.Record) ([]byte, error) {
	if n.format != NATSFormatJSON {
		return []byte(line + "\n"), nil
	}

	msg := natsMessage{
		Time:    rec.Time(),
		Level:   rec.Level().String(),
		Target:  rec.Target(),
		Message: rec.Message(),
		Line:    line,
		Module:  rec.ModulePath(),
		File:    rec.File(),
	}
	if ln, ok := rec.Line(); ok {
		msg.LineNo = ln
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	return data, nil
}

// publishLocked must be called with n.mu held.
func (n *NATSBackend) publishLocked(payload []byte) error {
	if n.conn == nil {
		n.stats.failed()
		return fmt.Errorf("NATS connection not established")
	}
	if err := n.conn.Publish(n.subject, payload); err != nil {
		n.stats.failed()
		return fmt.Errorf("failed to publish: %w", err)
	}
	n.stats.wrote(len(payload))
	return nil
}

// flushBufferLocked publishes the pending batch; n.mu must be held.
// Messages that fail to publish stay buffered for the next attempt.
func (n *NATSBackend) flushBufferLocked() error {
	for i, payload := range n.buffer {
		if err := n.publishLocked(payload); err != nil {
			n.buffer = append(n.buffer[:0], n.buffer[i:]...)
			return err
		}
	}
	n.buffer = n.buffer[:0]
	return nil
}

// Flush publishes any pending batch and waits for the server to
// acknowledge everything sent so far.
func (n *NATSBackend) Flush() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if err := n.flushBufferLocked(); err != nil {
		return err
	}
	if n.conn == nil {
		return nil
	}
	if err := n.conn.FlushTimeout(n.flushTimeout); err != nil {
		n.stats.failed()
		return fmt.Errorf("flush NATS: %w", err)
	}
	return nil
}

// Close flushes and drains the connection.
func (n *NATSBackend) Close() error {
	err := n.Flush()

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.conn != nil {
		n.conn.Close()
		n.conn = nil
	}
	return err
}

// Subject returns the subject lines are published to
func (n *NATSBackend) Subject() string {
	return n.subject
}

// Format returns the message format
func (n *NATSBackend) Format() string {
	return n.format
}

// BatchSize returns the number of lines published together
func (n *NATSBackend) BatchSize() int {
	return n.batchSize
}

// Pending returns the number of buffered lines
func (n *NATSBackend) Pending() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.buffer)
}

// Name implements Backend
func (n *NATSBackend) Name() string {
	return "nats://" + n.subject
}

// Stats implements Backend
func (n *NATSBackend) Stats() BackendStats {
	return n.stats.snapshot(n.Name())
}
