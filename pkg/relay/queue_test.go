package relay

import (
	"fmt"
	"testing"
	"time"

	"github.com/pkg/errors"
)

func TestQueueMultilineMessage(t *testing.T) {
	sink, recv := NewQueue(0)
	_, logger := New().WithLevel(LevelInfo).Chain(sink).IntoLogger()

	for i := 0; i < 2; i++ {
		rec := NewRecord(LevelInfo, "app", "héllo\nworld")
		logger.Log(&rec)
	}

	for i := 0; i < 2; i++ {
		line, ok := recv.TryRecv()
		if !ok {
			t.Fatalf("item %d missing", i)
		}
		if line != "héllo\nworld\n" {
			t.Errorf("item %d = %q, want %q", i, line, "héllo\nworld\n")
		}
	}
	if line, ok := recv.TryRecv(); ok {
		t.Errorf("unexpected extra item %q", line)
	}
}

func TestQueueFIFO(t *testing.T) {
	sink, recv := NewQueue(16)
	node := New().Chain(sink).Seal()

	for i := 0; i < 10; i++ {
		rec := NewRecord(LevelInfo, "app", fmt.Sprintf("msg-%d", i))
		if err := node.Handle(&rec); err != nil {
			t.Fatalf("Handle() error = %v", err)
		}
	}

	if recv.Len() != 10 {
		t.Fatalf("Len() = %d, want 10", recv.Len())
	}
	for i := 0; i < 10; i++ {
		line, ok := recv.Recv()
		if !ok || line != fmt.Sprintf("msg-%d\n", i) {
			t.Errorf("Recv() = %q, %v", line, ok)
		}
	}
}

func TestQueueFlushCompleteness(t *testing.T) {
	sink, recv := NewQueue(100)
	_, logger := New().Chain(sink).IntoLogger()

	for i := 0; i < 50; i++ {
		rec := NewRecord(LevelDebug, "app", "x")
		logger.Log(&rec)
	}
	logger.Flush()

	if recv.Len() != 50 {
		t.Errorf("after Flush Len() = %d, want 50", recv.Len())
	}
}

func TestQueueDisconnect(t *testing.T) {
	sink, recv := NewQueue(4)
	recv.Close()
	recv.Close()

	rec := NewRecord(LevelInfo, "app", "x")
	if err := sink.Accept("x", &rec); !errors.Is(err, ErrDisconnected) {
		t.Errorf("Accept() error = %v, want ErrDisconnected", err)
	}
	if recv.Len() != 0 {
		t.Errorf("Len() = %d, want 0", recv.Len())
	}
}

func TestQueueBlocksUntilReceiverDisconnects(t *testing.T) {
	sink, recv := NewQueue(1)
	rec := NewRecord(LevelInfo, "app", "x")

	if err := sink.Accept("first", &rec); err != nil {
		t.Fatalf("Accept() error = %v", err)
	}

	result := make(chan error, 1)
	go func() {
		result <- sink.Accept("second", &rec)
	}()

	select {
	case err := <-result:
		t.Fatalf("Accept on a full queue returned early: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	recv.Close()

	select {
	case err := <-result:
		if !errors.Is(err, ErrDisconnected) {
			t.Errorf("blocked Accept error = %v, want ErrDisconnected", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("blocked Accept did not return after Close")
	}
}

func TestQueueBlocksUntilReceiverReads(t *testing.T) {
	sink, recv := NewQueue(1)
	rec := NewRecord(LevelInfo, "app", "x")
	_ = sink.Accept("first", &rec)

	done := make(chan error, 1)
	go func() {
		done <- sink.Accept("second", &rec)
	}()

	if line, _ := recv.Recv(); line != "first\n" {
		t.Errorf("first item = %q", line)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Accept() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Accept did not unblock after a read")
	}
	if line, _ := recv.Recv(); line != "second\n" {
		t.Errorf("second item = %q", line)
	}
}

func TestQueueRecvDrainsAfterClose(t *testing.T) {
	sink, recv := NewQueue(4)
	rec := NewRecord(LevelInfo, "app", "x")
	_ = sink.Accept("a", &rec)
	recv.Close()

	if line, ok := recv.Recv(); !ok || line != "a\n" {
		t.Errorf("Recv() = %q, %v; want buffered item", line, ok)
	}
	if _, ok := recv.Recv(); ok {
		t.Error("Recv() after drain should report closed")
	}
}

func TestQueueChannel(t *testing.T) {
	sink, recv := NewQueue(2)
	rec := NewRecord(LevelInfo, "app", "x")
	_ = sink.Accept("via channel", &rec)

	select {
	case line := <-recv.C():
		if line != "via channel\n" {
			t.Errorf("line = %q", line)
		}
	case <-time.After(time.Second):
		t.Fatal("nothing on channel")
	}
}

func TestDefaultQueueCapacity(t *testing.T) {
	t.Setenv("RELAY_QUEUE_SIZE", "")
	if got := DefaultQueueCapacity(); got != defaultQueueCapacity {
		t.Errorf("DefaultQueueCapacity() = %d, want %d", got, defaultQueueCapacity)
	}

	t.Setenv("RELAY_QUEUE_SIZE", "7")
	if got := DefaultQueueCapacity(); got != 7 {
		t.Errorf("DefaultQueueCapacity() = %d, want 7", got)
	}

	_, recv := NewQueue(-1)
	if got := cap(recv.ch); got != 7 {
		t.Errorf("queue capacity = %d, want 7", got)
	}

	t.Setenv("RELAY_QUEUE_SIZE", "not-a-number")
	if got := DefaultQueueCapacity(); got != defaultQueueCapacity {
		t.Errorf("DefaultQueueCapacity() = %d, want %d", got, defaultQueueCapacity)
	}
}

func TestSender(t *testing.T) {
	ch := make(chan string, 2)
	node := New().Chain(Sender(ch)).Seal()

	rec := NewRecord(LevelError, "app", "to channel")
	if err := node.Handle(&rec); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if got := <-ch; got != "to channel\n" {
		t.Errorf("received %q", got)
	}
}
