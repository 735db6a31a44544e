package transport

import (
	"context"
	"sync"
)

// MockTransport simulates a device without any hardware attached. Every
// written packet is acknowledged with an OK status report.
type MockTransport struct {
	mu        sync.Mutex
	connected bool
	written   [][]byte
	pending   []int

	// ConnectErr, when set, is returned by Connect to simulate backend
	// or port failures.
	ConnectErr error
	// RejectNext makes the next packet answer with a rejection status.
	RejectNext bool
}

func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

func (t *MockTransport) Name() string {
	return "mock"
}

func (t *MockTransport) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ConnectErr != nil {
		return t.ConnectErr
	}
	t.connected = true
	return nil
}

func (t *MockTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connected = false
	return nil
}

func (t *MockTransport) WritePacket(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.connected {
		return ErrNotConnected
	}
	if _, err := encodePacket(payload); err != nil {
		return err
	}
	t.written = append(t.written, append([]byte(nil), payload...))

	code := StatusOK
	if t.RejectNext {
		code = StatusError
		t.RejectNext = false
	}
	t.pending = append(t.pending, code)
	return nil
}

func (t *MockTransport) ReadStatus(ctx context.Context) ([6]byte, error) {
	if err := ctx.Err(); err != nil {
		return [6]byte{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.connected {
		return [6]byte{}, ErrNotConnected
	}

	code := StatusOK
	if len(t.pending) > 0 {
		code = t.pending[0]
		t.pending = t.pending[1:]
	}
	return [6]byte{statusSyncByte, byte(code), 0, 0, 0, 0}, nil
}

// Written returns copies of all packet payloads written so far.
func (t *MockTransport) Written() [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([][]byte, len(t.written))
	for i, p := range t.written {
		out[i] = append([]byte(nil), p...)
	}
	return out
}
