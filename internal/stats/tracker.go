package stats

import (
	"sync"

	"laserctl/internal/bus"
	"laserctl/internal/events"
)

// PacketStats is a value snapshot of transmission counters.
type PacketStats struct {
	SentCount      uint64
	RejectedCount  uint64
	LastPacket     []byte
	LastStatus     [6]byte
	LastStatusCode int
	BufferDepth    uint32
	BufferMaxSeen  uint32
}

// Tracker accumulates packet and buffer telemetry. The controller goroutine
// is the only writer; Snapshot may be called from anywhere.
type Tracker struct {
	mu     sync.RWMutex
	bus    bus.MessageBus
	origin string

	sent          uint64
	rejected      uint64
	lastPacket    []byte
	lastStatus    [6]byte
	lastCode      int
	bufferDepth   uint32
	bufferMaxSeen uint32
}

func NewTracker(b bus.MessageBus, origin string) *Tracker {
	return &Tracker{bus: b, origin: origin}
}

func (t *Tracker) RecordSent(packet []byte) {
	t.mu.Lock()
	t.sent++
	t.lastPacket = append(t.lastPacket[:0], packet...)
	t.mu.Unlock()

	t.bus.Publish(events.TopicPacket, t.origin, events.PacketEvent{
		Data: append([]byte(nil), packet...),
		Text: string(packet),
	})
}

func (t *Tracker) RecordRejected() {
	t.mu.Lock()
	t.rejected++
	t.mu.Unlock()
}

func (t *Tracker) RecordStatus(status [6]byte, desc string) {
	t.mu.Lock()
	t.lastStatus = status
	t.lastCode = int(status[1])
	t.mu.Unlock()

	t.bus.Publish(events.TopicStatus, t.origin, events.StatusEvent{
		Bytes: status,
		Code:  int(status[1]),
		Desc:  desc,
	})
}

// UpdateBufferDepth raises the historical maximum first, then records the
// new depth, then publishes both. BufferMaxSeen never decreases.
func (t *Tracker) UpdateBufferDepth(n uint32) {
	t.mu.Lock()
	if n > t.bufferMaxSeen {
		t.bufferMaxSeen = n
	}
	t.bufferDepth = n
	depth, maxSeen := t.bufferDepth, t.bufferMaxSeen
	t.mu.Unlock()

	t.bus.Publish(events.TopicBuffer, t.origin, events.BufferUpdate{
		Depth:   depth,
		MaxSeen: maxSeen,
	})
}

func (t *Tracker) Snapshot() PacketStats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return PacketStats{
		SentCount:      t.sent,
		RejectedCount:  t.rejected,
		LastPacket:     append([]byte(nil), t.lastPacket...),
		LastStatus:     t.lastStatus,
		LastStatusCode: t.lastCode,
		BufferDepth:    t.bufferDepth,
		BufferMaxSeen:  t.bufferMaxSeen,
	}
}
