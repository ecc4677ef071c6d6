package backends

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/hashicorp/go-multierror"

	"github.com/wayneeseguin/relay/pkg/types"
)

// DefaultBufferSize for file operations
const DefaultBufferSize = 32 * 1024 // 32 KB

var (
	// ErrClosed is returned when writing to a closed backend.
	ErrClosed = errors.New("backend closed")

	// ErrDiskFull is wrapped around write failures caused by a full disk.
	ErrDiskFull = errors.New("disk full")
)

// FileBackend appends lines to a file. Writes from several processes are
// serialized with an advisory lock (flock) on the file, and a line is never
// split across two physical writes, so lines from different processes do
// not interleave. Output is buffered until Flush unless sync is enabled.
type FileBackend struct {
	mu      sync.Mutex
	file    *os.File
	writer  *bufio.Writer
	lock    *flock.Flock
	path    string
	size    int64
	syncAll bool
	closed  bool
	stats   counters
}

// FileOption configures a FileBackend.
type FileOption func(*FileBackend)

// WithBufferSize sets the write buffer size. Sizes <= 0 keep the default.
func WithBufferSize(size int) FileOption {
	return func(fb *FileBackend) {
		if size > 0 {
			fb.writer = bufio.NewWriterSize(fb.file, size)
		}
	}
}

// WithSync makes every Accept flush and fsync, trading throughput for
// durability.
func WithSync(enabled bool) FileOption {
	return func(fb *FileBackend) {
		fb.syncAll = enabled
	}
}

// NewFileBackend opens path for appending, creating parent directories.
//
// Parameters:
//   - path: The log file path
//   - opts: Optional settings such as WithSync
//
// Returns:
//   - *FileBackend: The backend
//   - error: If the directory or file cannot be created
//
// Example:
//
//	fb, err := backends.NewFileBackend("/var/log/app.log", backends.WithSync(true))
//	if err != nil {
//		return err
//	}
//	defer fb.Close()
func NewFileBackend(path string, opts ...FileOption) (*FileBackend, error) {
	cleanPath := filepath.Clean(path)

	// #nosec G301 - log directories need to be accessible by other processes
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	file, err := os.OpenFile(cleanPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644) // #nosec G302 - log files need to be readable
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close() // Best effort close on error path
		return nil, fmt.Errorf("stat file: %w", err)
	}

	fb := &FileBackend{
		file:   file,
		writer: bufio.NewWriterSize(file, DefaultBufferSize),
		lock:   flock.New(cleanPath),
		path:   cleanPath,
		size:   info.Size(),
	}
	for _, opt := range opts {
		opt(fb)
	}
	return fb, nil
}

// Accept appends line and a newline.
func (fb *FileBackend) Accept(line string, _ *types.Record) error {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	if fb.closed {
		return ErrClosed
	}

	n, err := fb.writeLine(line)
	if err != nil {
		fb.stats.failed()
		return err
	}
	fb.stats.wrote(n)
	return nil
}

// writeLine must be called with fb.mu held.
func (fb *FileBackend) writeLine(line string) (int, error) {
	if err := fb.lock.Lock(); err != nil {
		return 0, fmt.Errorf("acquire lock: %w", err)
	}
	defer func() {
		_ = fb.lock.Unlock() // Best effort unlock
	}()

	// Keep the line in one physical write.
	entry := line + "\n"
	if len(entry) > fb.writer.Available() && fb.writer.Buffered() > 0 {
		if err := fb.writer.Flush(); err != nil {
			return 0, classify(err)
		}
	}

	n, err := fb.writer.WriteString(entry)
	if err != nil {
		return n, classify(err)
	}
	fb.size += int64(n)

	if fb.syncAll {
		if err := fb.writer.Flush(); err != nil {
			return n, classify(err)
		}
		if err := fb.file.Sync(); err != nil {
			return n, fmt.Errorf("sync: %w", err)
		}
	}
	return n, nil
}

// Flush writes buffered lines to the file.
func (fb *FileBackend) Flush() error {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.flushLocked()
}

func (fb *FileBackend) flushLocked() error {
	if fb.closed || fb.writer.Buffered() == 0 {
		return nil
	}

	if err := fb.lock.Lock(); err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer func() {
		_ = fb.lock.Unlock() // Best effort unlock
	}()

	if err := fb.writer.Flush(); err != nil {
		fb.stats.failed()
		return classify(err)
	}
	return nil
}

// Sync flushes and commits the file to stable storage.
func (fb *FileBackend) Sync() error {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	if err := fb.flushLocked(); err != nil {
		return err
	}
	if fb.closed {
		return nil
	}
	return fb.file.Sync()
}

// Close flushes and closes the file. Closing twice is a no-op.
func (fb *FileBackend) Close() error {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	if fb.closed {
		return nil
	}

	var result *multierror.Error
	if err := fb.flushLocked(); err != nil {
		result = multierror.Append(result, fmt.Errorf("flush: %w", err))
	}
	fb.closed = true

	if err := fb.lock.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("unlock: %w", err))
	}
	if err := fb.file.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("close file: %w", err))
	}
	return result.ErrorOrNil()
}

// Name implements Backend
func (fb *FileBackend) Name() string {
	return "file://" + fb.path
}

// Path returns the file path
func (fb *FileBackend) Path() string {
	return fb.path
}

// Size returns the file size including buffered lines
func (fb *FileBackend) Size() int64 {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.size
}

// Stats implements Backend
func (fb *FileBackend) Stats() BackendStats {
	return fb.stats.snapshot(fb.Name())
}

// classify marks out-of-space failures with ErrDiskFull.
func classify(err error) error {
	if isDiskFullError(err) {
		return fmt.Errorf("write: %w: %w", ErrDiskFull, err)
	}
	return fmt.Errorf("write: %w", err)
}

// isDiskFullError checks if an error indicates disk full condition
func isDiskFullError(err error) bool {
	return errors.Is(err, syscall.ENOSPC) || errors.Is(err, syscall.EDQUOT)
}
