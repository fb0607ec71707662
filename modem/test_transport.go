package modem

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"time"
)

// TestTransport is an in-memory modem for tests. Replies queued with Reply
// are released when the matching command is written; a read with nothing
// pending waits briefly and returns ErrReadTimeout, like an idle serial
// port with a read timeout.
type TestTransport struct {
	mu       sync.Mutex
	replies  map[string][]string
	pending  bytes.Buffer
	written  []string
	closed   bool
	closes   int
	idleWait time.Duration
}

// NewTestTransport creates a new test transport for testing.
// Exported for use in tests.
func NewTestTransport() *TestTransport {
	return &TestTransport{
		replies:  make(map[string][]string),
		idleWait: time.Millisecond,
	}
}

// Reply queues resp to be read after the next write of cmd. Several replies
// for the same command are used in order.
func (t *TestTransport) Reply(cmd, resp string) *TestTransport {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.replies[cmd] = append(t.replies[cmd], resp)
	return t
}

// SendData queues data to be read by the transport.
// This simulates receiving unsolicited data from the modem.
func (t *TestTransport) SendData(data string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.pending.WriteString(data)
	}
}

func (t *TestTransport) Write(p []byte) (n int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return 0, io.ErrClosedPipe
	}

	cmd := strings.TrimSpace(string(p))
	t.written = append(t.written, cmd)

	if queue := t.replies[cmd]; len(queue) > 0 {
		t.pending.WriteString(queue[0])
		t.replies[cmd] = queue[1:]
	}
	return len(p), nil
}

func (t *TestTransport) Read(p []byte) (n int, err error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return 0, io.EOF
	}
	if t.pending.Len() > 0 {
		defer t.mu.Unlock()
		return t.pending.Read(p)
	}
	t.mu.Unlock()

	time.Sleep(t.idleWait)
	return 0, ErrReadTimeout
}

func (t *TestTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closes++
	t.closed = true
	return nil
}

// Written returns the commands written so far, without line terminators.
func (t *TestTransport) Written() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.written...)
}

// Closes returns how many times Close was called.
func (t *TestTransport) Closes() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closes
}

// Dial implements Dialer by returning the transport itself.
func (t *TestTransport) Dial(_ context.Context) (Transport, error) {
	return t, nil
}
