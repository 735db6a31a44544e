package transport

import (
	"context"
	"errors"
)

// ErrNoBackend means the serial driver or port enumeration is unavailable.
// Connection attempts are not retried automatically from this condition;
// the operator has to fix the environment and reconnect explicitly.
var ErrNoBackend = errors.New("transport backend unavailable")

// ErrNotConnected is returned for I/O on a transport that has no open link.
var ErrNotConnected = errors.New("transport is not connected")

// Transport is the hardware-facing collaborator of the controller. WritePacket
// frames and transmits one command packet; ReadStatus blocks for the next
// 6-byte status report from the device.
type Transport interface {
	Name() string
	Connect(ctx context.Context) error
	Close() error
	WritePacket(ctx context.Context, payload []byte) error
	ReadStatus(ctx context.Context) ([6]byte, error)
}
