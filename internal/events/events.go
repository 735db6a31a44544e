package events

import "time"

// ConnectionEvent is a bus snapshot of the connection lifecycle state.
type ConnectionEvent struct {
	State         ConnectionState
	Err           string
	TransportName string
	Timestamp     time.Time
}

// ControlEvent is a bus snapshot of the job-execution state.
type ControlEvent struct {
	State     ControlState
	Timestamp time.Time
}

// BufferUpdate carries the pending-buffer depth against its historical peak.
// Producers may throttle submission as Depth approaches MaxSeen.
type BufferUpdate struct {
	Depth   uint32
	MaxSeen uint32
}

// PacketEvent carries an outgoing packet for log/debug views.
type PacketEvent struct {
	Data []byte
	Text string
}

// StatusEvent is a decoded 6-byte status report from the device.
type StatusEvent struct {
	Bytes [6]byte
	Code  int
	Desc  string
}
