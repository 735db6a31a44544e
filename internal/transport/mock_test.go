package transport

import (
	"context"
	"errors"
	"testing"
)

func TestMockTransportAcknowledgesWrites(t *testing.T) {
	tr := NewMockTransport()
	ctx := context.Background()

	if err := tr.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := tr.WritePacket(ctx, []byte("G0")); err != nil {
		t.Fatalf("write packet: %v", err)
	}

	status, err := tr.ReadStatus(ctx)
	if err != nil {
		t.Fatalf("read status: %v", err)
	}
	if int(status[1]) != StatusOK {
		t.Fatalf("expected ok status, got %d", status[1])
	}
	if len(tr.Written()) != 1 {
		t.Fatalf("expected one recorded packet")
	}
}

func TestMockTransportRejectNext(t *testing.T) {
	tr := NewMockTransport()
	ctx := context.Background()

	if err := tr.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	tr.RejectNext = true
	if err := tr.WritePacket(ctx, []byte("G1")); err != nil {
		t.Fatalf("write packet: %v", err)
	}

	status, err := tr.ReadStatus(ctx)
	if err != nil {
		t.Fatalf("read status: %v", err)
	}
	if int(status[1]) != StatusError {
		t.Fatalf("expected rejection status, got %d", status[1])
	}
}

func TestMockTransportRequiresConnection(t *testing.T) {
	tr := NewMockTransport()

	err := tr.WritePacket(context.Background(), []byte("G0"))
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}
