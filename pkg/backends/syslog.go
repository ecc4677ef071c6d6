package backends

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/wayneeseguin/relay/pkg/types"
)

// Syslog severities used for relay levels (RFC 5424).
const (
	SeverityError   = 3
	SeverityWarning = 4
	SeverityInfo    = 6
	SeverityDebug   = 7
)

// FacilityUser is the default syslog facility.
const FacilityUser = 1

var frameEscaper = strings.NewReplacer("\r\n", "\\n", "\n", "\\n", "\r", "\\r")

// SyslogBackend sends lines to a syslog daemon as "<priority>tag: line".
// The priority combines the facility with a severity derived from the
// record level. Stream connections are buffered until Flush; datagram
// connections send one message per record.
type SyslogBackend struct {
	network  string
	address  string
	conn     net.Conn
	writer   *bufio.Writer
	facility int
	tag      string
	mu       sync.Mutex // Protects concurrent access to writer
	stats    counters
}

// NewSyslogBackend connects to a syslog daemon. An empty address uses the
// local syslog socket.
//
// Parameters:
//   - network: "tcp", "udp", "unix" or "unixgram"; ignored for the local socket
//   - address: host:port or socket path
//   - facility: Syslog facility (0-23)
//   - tag: Program tag prepended to every message
//
// Returns:
//   - *SyslogBackend: The backend
//   - error: If no connection could be made
func NewSyslogBackend(network, address string, facility int, tag string) (*SyslogBackend, error) {
	if facility < 0 || facility > 23 {
		return nil, fmt.Errorf("invalid syslog facility %d", facility)
	}
	if tag == "" {
		tag = defaultTag()
	}

	conn, network, address, err := dialSyslog(network, address)
	if err != nil {
		return nil, err
	}

	sb := &SyslogBackend{
		network:  network,
		address:  address,
		conn:     conn,
		facility: facility,
		tag:      tag,
	}
	if !isDatagram(network) {
		sb.writer = bufio.NewWriter(conn)
	}
	return sb, nil
}

func dialSyslog(network, address string) (net.Conn, string, string, error) {
	if address != "" {
		conn, err := net.Dial(network, address)
		if err != nil {
			return nil, "", "", fmt.Errorf("dial syslog: %w", err)
		}
		return conn, network, address, nil
	}

	// Try common Unix socket paths
	for _, path := range []string{"/dev/log", "/var/run/syslog", "/var/run/log"} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		for _, nw := range []string{"unixgram", "unix"} {
			if conn, err := net.Dial(nw, path); err == nil {
				return conn, nw, path, nil
			}
		}
	}
	return nil, "", "", fmt.Errorf("no local syslog socket found")
}

func isDatagram(network string) bool {
	switch network {
	case "udp", "udp4", "udp6", "unixgram":
		return true
	}
	return false
}

func defaultTag() string {
	if len(os.Args) == 0 {
		return "relay"
	}
	name := os.Args[0]
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// Severity maps a relay level to a syslog severity.
func Severity(level types.Level) int {
	switch level {
	case types.LevelError:
		return SeverityError
	case types.LevelWarn:
		return SeverityWarning
	case types.LevelInfo:
		return SeverityInfo
	default:
		return SeverityDebug
	}
}

// Priority returns the syslog priority for a facility and level.
func Priority(facility int, level types.Level) int {
	return facility*8 + Severity(level)
}

// Accept sends one syslog message for rec.
func (sb *SyslogBackend) Accept(line string, rec *types.Record) error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.conn == nil {
		return ErrClosed
	}

	body := strings.TrimRight(line, " \t\r\n")
	if sb.writer != nil {
		// Stream transports frame messages by newline.
		body = frameEscaper.Replace(body)
	}
	message := fmt.Sprintf("<%d>%s: %s\n", Priority(sb.facility, rec.Level()), sb.tag, body)

	var n int
	var err error
	if sb.writer != nil {
		n, err = sb.writer.WriteString(message)
	} else {
		n, err = sb.conn.Write([]byte(message))
	}
	if err != nil {
		sb.stats.failed()
		return fmt.Errorf("write syslog: %w", err)
	}
	sb.stats.wrote(n)
	return nil
}

// Flush flushes buffered data
func (sb *SyslogBackend) Flush() error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.writer == nil || sb.conn == nil {
		return nil
	}
	if err := sb.writer.Flush(); err != nil {
		sb.stats.failed()
		return fmt.Errorf("flush syslog: %w", err)
	}
	return nil
}

// Close flushes and closes the syslog connection
func (sb *SyslogBackend) Close() error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.conn == nil {
		return nil
	}

	var result *multierror.Error
	if sb.writer != nil {
		if err := sb.writer.Flush(); err != nil {
			result = multierror.Append(result, fmt.Errorf("flush: %w", err))
		}
	}
	if err := sb.conn.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("close conn: %w", err))
	}
	sb.conn = nil
	return result.ErrorOrNil()
}

// SetTag sets the syslog tag
func (sb *SyslogBackend) SetTag(tag string) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.tag = tag
}

// Name implements Backend
func (sb *SyslogBackend) Name() string {
	return fmt.Sprintf("syslog://%s/%s", sb.network, sb.address)
}

// Stats implements Backend
func (sb *SyslogBackend) Stats() BackendStats {
	return sb.stats.snapshot(sb.Name())
}
