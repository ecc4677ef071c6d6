package relay

import (
	"sync"

	"github.com/wayneeseguin/relay/pkg/types"
)

// QueueSink delivers newline-terminated lines into a FIFO channel read by
// another goroutine.
//
// Full-queue policy: Accept blocks until the receiver takes an item or
// disconnects. Nothing is dropped. Once the receiver has disconnected,
// Accept fails with ErrDisconnected without blocking.
type QueueSink struct {
	ch   chan string
	done chan struct{}
}

// QueueReceiver is the receiving half of a queue sink.
type QueueReceiver struct {
	ch        chan string
	done      chan struct{}
	closeOnce sync.Once
}

// NewQueue creates a connected queue sink and receiver pair.
//
// Parameters:
//   - capacity: Buffered items before senders block; <= 0 uses DefaultQueueCapacity()
//
// Returns:
//   - *QueueSink: The sending half, to chain into a dispatch
//   - *QueueReceiver: The receiving half
//
// Example:
//
//	sink, recv := relay.NewQueue(0)
//	_, logger := relay.New().Chain(sink).IntoLogger()
//	rec := relay.NewRecord(relay.LevelInfo, "app", "hello")
//	logger.Log(&rec)
//	line, _ := recv.Recv() // "hello\n"
func NewQueue(capacity int) (*QueueSink, *QueueReceiver) {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity()
	}
	ch := make(chan string, capacity)
	done := make(chan struct{})
	return &QueueSink{ch: ch, done: done}, &QueueReceiver{ch: ch, done: done}
}

// Accept enqueues line followed by "\n".
func (q *QueueSink) Accept(line string, _ *types.Record) error {
	// Check first so a disconnected receiver fails even when the buffer has room.
	select {
	case <-q.done:
		return ErrDisconnected
	default:
	}

	select {
	case q.ch <- line + "\n":
		return nil
	case <-q.done:
		return ErrDisconnected
	}
}

// Flush is a no-op: every accepted line is already visible to the receiver.
func (q *QueueSink) Flush() error {
	return nil
}

// Name implements namedSink
func (q *QueueSink) Name() string {
	return "queue"
}

// Recv blocks until a line is available. ok is false once the receiver
// has been closed and the buffer is drained.
func (r *QueueReceiver) Recv() (line string, ok bool) {
	select {
	case line = <-r.ch:
		return line, true
	case <-r.done:
	}

	// Closed: hand out whatever is still buffered.
	select {
	case line = <-r.ch:
		return line, true
	default:
		return "", false
	}
}

// TryRecv returns the next line without blocking.
func (r *QueueReceiver) TryRecv() (line string, ok bool) {
	select {
	case line = <-r.ch:
		return line, true
	default:
		return "", false
	}
}

// C exposes the underlying channel for use in select statements.
func (r *QueueReceiver) C() <-chan string {
	return r.ch
}

// Len returns the number of buffered lines.
func (r *QueueReceiver) Len() int {
	return len(r.ch)
}

// Close disconnects the receiver. Blocked and future sends fail with
// ErrDisconnected. It is safe to call Close more than once.
func (r *QueueReceiver) Close() {
	r.closeOnce.Do(func() {
		close(r.done)
	})
}

// senderSink writes into a channel owned by the caller.
type senderSink struct {
	ch chan<- string
}

// Sender creates a sink over a caller-owned channel. Sends block while the
// channel is full. The channel must not be closed while the sink is in use,
// since a send on a closed channel panics; use NewQueue when the receiver
// needs to disconnect.
func Sender(ch chan<- string) Sink {
	return &senderSink{ch: ch}
}

func (s *senderSink) Accept(line string, _ *types.Record) error {
	s.ch <- line + "\n"
	return nil
}

func (s *senderSink) Flush() error { return nil }

func (s *senderSink) Name() string { return "sender" }
