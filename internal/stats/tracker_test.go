package stats

import (
	"io"
	"log/slog"
	"testing"

	"laserctl/internal/bus"
	"laserctl/internal/events"
)

func newTestTracker() (*Tracker, bus.MessageBus) {
	b := bus.New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewTracker(b, "test"), b
}

func TestBufferMaxSeenTracksMaximum(t *testing.T) {
	tracker, b := newTestTracker()
	defer b.Close()

	depths := []uint32{3, 10, 7, 10, 2, 25, 4}
	var lastMax uint32
	for _, n := range depths {
		tracker.UpdateBufferDepth(n)
		snap := tracker.Snapshot()
		if snap.BufferMaxSeen < lastMax {
			t.Fatalf("buffer max decreased: %d -> %d", lastMax, snap.BufferMaxSeen)
		}
		lastMax = snap.BufferMaxSeen
	}

	snap := tracker.Snapshot()
	if snap.BufferMaxSeen != 25 {
		t.Fatalf("expected max seen 25, got %d", snap.BufferMaxSeen)
	}
	if snap.BufferDepth != 4 {
		t.Fatalf("expected final depth 4, got %d", snap.BufferDepth)
	}
}

func TestUpdateBufferDepthPublishesDepthAndMax(t *testing.T) {
	tracker, b := newTestTracker()
	defer b.Close()

	var got events.BufferUpdate
	b.Listen(events.TopicBuffer, func(_, _ string, payload any) {
		got = payload.(events.BufferUpdate)
	})

	tracker.UpdateBufferDepth(12)
	tracker.UpdateBufferDepth(5)

	if got.Depth != 5 || got.MaxSeen != 12 {
		t.Fatalf("unexpected buffer update: %+v", got)
	}
}

func TestSentAndRejectedCounters(t *testing.T) {
	tracker, b := newTestTracker()
	defer b.Close()

	for i := 0; i < 10; i++ {
		tracker.RecordSent([]byte{byte(i)})
	}
	tracker.RecordRejected()
	tracker.RecordRejected()

	snap := tracker.Snapshot()
	if snap.SentCount != 10 {
		t.Fatalf("expected 10 sent, got %d", snap.SentCount)
	}
	if snap.RejectedCount != 2 {
		t.Fatalf("expected 2 rejected, got %d", snap.RejectedCount)
	}
	if len(snap.LastPacket) != 1 || snap.LastPacket[0] != 9 {
		t.Fatalf("unexpected last packet: %v", snap.LastPacket)
	}
}

func TestRecordStatusExtractsCode(t *testing.T) {
	tracker, b := newTestTracker()
	defer b.Close()

	var got events.StatusEvent
	b.Listen(events.TopicStatus, func(_, _ string, payload any) {
		got = payload.(events.StatusEvent)
	})

	tracker.RecordStatus([6]byte{255, 206, 0, 0, 0, 0}, "ok")

	if got.Code != 206 || got.Desc != "ok" {
		t.Fatalf("unexpected status event: %+v", got)
	}
	if tracker.Snapshot().LastStatusCode != 206 {
		t.Fatalf("snapshot code mismatch: %d", tracker.Snapshot().LastStatusCode)
	}
}
