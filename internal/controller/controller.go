package controller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"laserctl/internal/bus"
	"laserctl/internal/events"
	"laserctl/internal/stats"
	"laserctl/internal/transport"
)

const (
	origin         = "controller"
	writeTimeout   = 8 * time.Second
	statusTimeout  = 5 * time.Second
	connectTimeout = 15 * time.Second
	waitPoll       = 100 * time.Millisecond
)

type command int

const (
	cmdConnect command = iota
	cmdDisconnect
	cmdStart
	cmdHold
	cmdResume
	cmdAbort
	cmdWrite
)

func (c command) String() string {
	switch c {
	case cmdConnect:
		return "connect"
	case cmdDisconnect:
		return "disconnect"
	case cmdStart:
		return "start"
	case cmdHold:
		return "hold"
	case cmdResume:
		return "resume"
	case cmdAbort:
		return "abort"
	case cmdWrite:
		return "write"
	default:
		return "unknown"
	}
}

type request struct {
	cmd  command
	data []byte
}

// Controller owns the device connection and job-execution lifecycle. All
// state lives on a single owner goroutine; public methods marshal requests
// onto it and results surface as bus events, never as cross-component
// errors. EStop is the only request honored while a packet transmission is
// in flight.
type Controller struct {
	logger    *slog.Logger
	bus       bus.MessageBus
	tracker   *stats.Tracker
	transport transport.Transport

	requests chan request
	estopCh  chan struct{}
	estop    atomic.Bool

	bufferLimit int

	stateMu   sync.RWMutex
	connState events.ConnectionState
	ctrlState events.ControlState

	// pending job data, owner goroutine only
	buffer []byte
	// retried marks the head packet as already resent once after rejection
	retried bool
}

func New(logger *slog.Logger, b bus.MessageBus, tracker *stats.Tracker, tr transport.Transport, bufferLimit int) *Controller {
	return &Controller{
		logger:      logger,
		bus:         b,
		tracker:     tracker,
		transport:   tr,
		requests:    make(chan request, 64),
		estopCh:     make(chan struct{}, 1),
		bufferLimit: bufferLimit,
		connState:   events.ConnectionUninitialized,
		ctrlState:   events.ControlInitialize,
	}
}

// Start launches the owner goroutine.
func (c *Controller) Start(ctx context.Context) {
	go c.run(ctx)
}

func (c *Controller) ConnectionState() events.ConnectionState {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.connState
}

func (c *Controller) ControlState() events.ControlState {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.ctrlState
}

func (c *Controller) Connect()    { c.enqueue(request{cmd: cmdConnect}) }
func (c *Controller) Disconnect() { c.enqueue(request{cmd: cmdDisconnect}) }
func (c *Controller) StartJob()   { c.enqueue(request{cmd: cmdStart}) }
func (c *Controller) Hold()       { c.enqueue(request{cmd: cmdHold}) }
func (c *Controller) Resume()     { c.enqueue(request{cmd: cmdResume}) }
func (c *Controller) Abort()      { c.enqueue(request{cmd: cmdAbort}) }

// Write queues job data for transmission.
func (c *Controller) Write(data []byte) {
	c.enqueue(request{cmd: cmdWrite, data: append([]byte(nil), data...)})
}

// EStop requests an emergency stop. Unlike every other request it is
// delivered through a dedicated channel and a flag polled inside the
// transmit loop, so it pre-empts the busy lock.
func (c *Controller) EStop() {
	c.estop.Store(true)
	select {
	case c.estopCh <- struct{}{}:
	default:
	}
}

func (c *Controller) enqueue(req request) {
	select {
	case c.requests <- req:
	default:
		c.logger.Warn("request queue full, dropping", "cmd", req.cmd.String())
	}
}

func (c *Controller) run(ctx context.Context) {
	for {
		if c.ControlState() == events.ControlActive {
			select {
			case <-ctx.Done():
				return
			case <-c.estopCh:
				c.handleEStop()
				continue
			case req := <-c.requests:
				c.handleCommand(ctx, req)
				continue
			default:
			}
			c.transmitNext(ctx)
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-c.estopCh:
			c.handleEStop()
		case req := <-c.requests:
			c.handleCommand(ctx, req)
		}
	}
}

func (c *Controller) handleCommand(ctx context.Context, req request) {
	if c.ControlState() == events.ControlBusy && req.cmd != cmdWrite {
		c.logger.Info("request ignored while busy", "cmd", req.cmd.String())
		return
	}

	switch req.cmd {
	case cmdConnect:
		c.handleConnect(ctx)
	case cmdDisconnect:
		c.handleDisconnect()
	case cmdStart:
		c.handleStart()
	case cmdHold:
		c.handleHold()
	case cmdResume:
		c.handleResume()
	case cmdAbort:
		c.handleAbort()
	case cmdWrite:
		c.handleWrite(req.data)
	}
}

func (c *Controller) handleConnect(ctx context.Context) {
	state := c.ConnectionState()
	if state == events.ConnectionConnected || state == events.ConnectionConnecting || state == events.ConnectionMock {
		c.logger.Info("connect ignored", "state", string(state))
		return
	}
	if !state.Retryable() && state != events.ConnectionNoBackend {
		c.logger.Info("connect ignored", "state", string(state))
		return
	}

	c.setConnectionState(events.ConnectionConnecting, nil)

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	err := c.transport.Connect(connectCtx)
	cancel()
	if err != nil {
		if errors.Is(err, transport.ErrNoBackend) {
			c.setConnectionState(events.ConnectionNoBackend, err)
		} else {
			c.setConnectionState(events.ConnectionFailed, err)
		}
		c.logger.Error("connect failed", "error", err)
		return
	}

	if c.transport.Name() == "mock" {
		c.setConnectionState(events.ConnectionMock, nil)
	} else {
		c.setConnectionState(events.ConnectionConnected, nil)
	}
}

func (c *Controller) handleDisconnect() {
	state := c.ConnectionState()
	if state != events.ConnectionConnected && state != events.ConnectionMock {
		c.logger.Info("disconnect ignored", "state", string(state))
		return
	}

	c.setConnectionState(events.ConnectionDisconnecting, nil)
	if err := c.transport.Close(); err != nil {
		c.logger.Warn("transport close", "error", err)
	}
	c.setConnectionState(events.ConnectionDisconnected, nil)
}

func (c *Controller) handleStart() {
	switch c.ControlState() {
	case events.ControlInitialize, events.ControlEnd, events.ControlIdle:
		c.estop.Store(false)
		c.setControlState(events.ControlActive)
	default:
		c.logger.Info("start ignored", "state", string(c.ControlState()))
	}
}

func (c *Controller) handleHold() {
	if c.ControlState() != events.ControlActive {
		c.logger.Info("hold ignored", "state", string(c.ControlState()))
		return
	}
	c.setControlState(events.ControlPause)
}

func (c *Controller) handleResume() {
	if c.ControlState() != events.ControlPause {
		c.logger.Info("resume ignored", "state", string(c.ControlState()))
		return
	}
	c.setControlState(events.ControlActive)
}

func (c *Controller) handleAbort() {
	switch c.ControlState() {
	case events.ControlWait, events.ControlPause, events.ControlActive, events.ControlTerminate:
		c.discardBuffer()
		c.setControlState(events.ControlIdle)
	default:
		c.logger.Info("abort ignored", "state", string(c.ControlState()))
	}
}

// handleEStop halts the controller from any state, including Busy.
func (c *Controller) handleEStop() {
	c.discardBuffer()
	c.setControlState(events.ControlTerminate)
	c.logger.Warn("emergency stop")
}

func (c *Controller) handleWrite(data []byte) {
	c.buffer = append(c.buffer, data...)
	depth := uint32(len(c.buffer))
	if c.bufferLimit > 0 && len(c.buffer) > c.bufferLimit {
		c.logger.Warn("buffer above limit", "depth", depth, "limit", c.bufferLimit)
	}
	c.tracker.UpdateBufferDepth(depth)
}

func (c *Controller) discardBuffer() {
	if len(c.buffer) == 0 {
		return
	}
	c.buffer = c.buffer[:0]
	c.retried = false
	c.tracker.UpdateBufferDepth(0)
}

// transmitNext sends one packet off the head of the buffer. The controller
// is Busy for the duration; requests arriving mid-transmission are rejected
// instead of queued, except the estop flag, which aborts immediately.
func (c *Controller) transmitNext(ctx context.Context) {
	if len(c.buffer) == 0 {
		c.setControlState(events.ControlEnd)
		return
	}

	state := c.ConnectionState()
	if state != events.ConnectionConnected && state != events.ConnectionMock {
		c.logger.Warn("transmission requires a connection", "state", string(state))
		c.setControlState(events.ControlIdle)
		return
	}

	n := len(c.buffer)
	if n > transport.PacketPayloadSize {
		n = transport.PacketPayloadSize
	}
	payload := append([]byte(nil), c.buffer[:n]...)

	c.setControlState(events.ControlBusy)
	defer c.rejectPending()

	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	err := c.transport.WritePacket(writeCtx, payload)
	cancel()
	if err != nil {
		c.logger.Error("packet write failed", "error", err)
		c.dropConnection(err)
		return
	}

	if c.estop.Load() {
		c.handleEStop()
		return
	}

	status, ok := c.awaitStatus(ctx)
	if !ok {
		return
	}

	switch int(status[1]) {
	case transport.StatusError:
		c.tracker.RecordRejected()
		if c.retried {
			c.logger.Error("packet rejected twice, dropping", "len", n)
			c.buffer = c.buffer[n:]
			c.retried = false
			c.tracker.UpdateBufferDepth(uint32(len(c.buffer)))
		} else {
			c.retried = true
		}
	default:
		c.tracker.RecordSent(payload)
		c.buffer = c.buffer[n:]
		c.retried = false
		c.tracker.UpdateBufferDepth(uint32(len(c.buffer)))
	}

	if c.estop.Load() {
		c.handleEStop()
		return
	}
	c.setControlState(events.ControlActive)
}

// awaitStatus reads the device status for the packet just written. A busy
// report parks the controller in Wait until the device clears or an abort
// or estop arrives.
func (c *Controller) awaitStatus(ctx context.Context) ([6]byte, bool) {
	for {
		statusCtx, cancel := context.WithTimeout(ctx, statusTimeout)
		status, err := c.transport.ReadStatus(statusCtx)
		cancel()
		if err != nil {
			c.logger.Error("status read failed", "error", err)
			c.dropConnection(err)
			return status, false
		}

		c.tracker.RecordStatus(status, transport.StatusDesc(int(status[1])))

		if int(status[1]) != transport.StatusBusy {
			return status, true
		}

		c.setControlState(events.ControlWait)
		if !c.waitForDevice(ctx) {
			return status, false
		}
		c.setControlState(events.ControlBusy)
	}
}

// waitForDevice blocks in Wait state until the next poll interval, honoring
// estop and abort requests. Returns false when the wait was aborted.
func (c *Controller) waitForDevice(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-c.estopCh:
		c.handleEStop()
		return false
	case req := <-c.requests:
		if req.cmd == cmdAbort {
			c.discardBuffer()
			c.setControlState(events.ControlIdle)
			return false
		}
		c.logger.Info("request ignored while waiting", "cmd", req.cmd.String())
		return true
	case <-time.After(waitPoll):
		return true
	}
}

// rejectPending drains requests that arrived during a transmission. They
// are acknowledged as ignored, not queued for later.
func (c *Controller) rejectPending() {
	for {
		select {
		case <-c.estopCh:
			c.handleEStop()
		case req := <-c.requests:
			if req.cmd == cmdWrite {
				c.handleWrite(req.data)
				continue
			}
			c.logger.Info("request ignored while busy", "cmd", req.cmd.String())
		default:
			return
		}
	}
}

func (c *Controller) dropConnection(cause error) {
	_ = c.transport.Close()
	c.setConnectionState(events.ConnectionFailed, cause)
	c.setControlState(events.ControlIdle)
}

func (c *Controller) setConnectionState(state events.ConnectionState, cause error) {
	c.stateMu.Lock()
	if c.connState == state {
		c.stateMu.Unlock()
		return
	}
	c.connState = state
	c.stateMu.Unlock()

	ev := events.ConnectionEvent{
		State:         state,
		TransportName: c.transport.Name(),
		Timestamp:     time.Now(),
	}
	if cause != nil {
		ev.Err = cause.Error()
	}
	c.bus.Publish(events.TopicConnectionState, origin, ev)
	if cause != nil {
		c.bus.Publish(events.TopicConnectionInfo, origin, ev)
	}
}

func (c *Controller) setControlState(state events.ControlState) {
	c.stateMu.Lock()
	if c.ctrlState == state {
		c.stateMu.Unlock()
		return
	}
	c.ctrlState = state
	c.stateMu.Unlock()

	c.bus.Publish(events.TopicControlState, origin, events.ControlEvent{
		State:     state,
		Timestamp: time.Now(),
	})
}
