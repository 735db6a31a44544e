package events

// ConnectionState describes the transport connection lifecycle. Only the
// controller writes it; observers receive snapshots over the bus.
type ConnectionState string

const (
	ConnectionUninitialized ConnectionState = "uninitialized"
	ConnectionConnecting    ConnectionState = "connecting"
	ConnectionConnected     ConnectionState = "connected"
	ConnectionDisconnecting ConnectionState = "disconnecting"
	ConnectionDisconnected  ConnectionState = "disconnected"
	ConnectionFailed        ConnectionState = "connection_failed"
	ConnectionNoBackend     ConnectionState = "no_backend"
	ConnectionMock          ConnectionState = "mock"
)

// ControlState describes the job-execution phase of the controller,
// independent of the connection lifecycle.
type ControlState string

const (
	ControlInitialize ControlState = "initialize"
	ControlIdle       ControlState = "idle"
	ControlBusy       ControlState = "busy"
	ControlWait       ControlState = "wait"
	ControlPause      ControlState = "pause"
	ControlActive     ControlState = "active"
	ControlTerminate  ControlState = "terminate"
	ControlEnd        ControlState = "end"
)

// Retryable reports whether a later connect attempt is allowed to re-probe
// the transport from this state. Mock counts as established, same as a real
// connection.
func (s ConnectionState) Retryable() bool {
	switch s {
	case ConnectionUninitialized, ConnectionDisconnected, ConnectionFailed:
		return true
	default:
		return false
	}
}
