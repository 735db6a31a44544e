package history

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"laserctl/internal/bus"
	"laserctl/internal/events"
)

// Recorder mirrors bus traffic into the sqlite history log. It is a pure
// observer: the controller does not know it exists.
type Recorder struct {
	db        *sql.DB
	writer    *WriterQueue
	sessionID string
}

func NewRecorder(db *sql.DB, writer *WriterQueue) *Recorder {
	return &Recorder{
		db:        db,
		writer:    writer,
		sessionID: uuid.NewString(),
	}
}

func (r *Recorder) SessionID() string {
	return r.sessionID
}

// Start opens a session row and attaches bus listeners.
func (r *Recorder) Start(ctx context.Context, b bus.MessageBus, transportName string) error {
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions(session_id, transport, started_at) VALUES(?, ?, ?)
	`, r.sessionID, transportName, time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	b.Listen(events.TopicConnectionState, r.onConnectionState)
	b.Listen(events.TopicControlState, r.onControlState)
	b.Listen(events.TopicPacket, r.onPacket)
	b.Listen(events.TopicStatus, r.onStatus)
	return nil
}

func (r *Recorder) onConnectionState(_, _ string, payload any) {
	ev, ok := payload.(events.ConnectionEvent)
	if !ok {
		return
	}
	r.writer.Enqueue("transition", func(ctx context.Context) error {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO transitions(session_id, kind, state, error, at) VALUES(?, ?, ?, ?, ?)
		`, r.sessionID, "connection", string(ev.State), nullableString(ev.Err), ev.Timestamp.UnixMilli())
		return err
	})
}

func (r *Recorder) onControlState(_, _ string, payload any) {
	ev, ok := payload.(events.ControlEvent)
	if !ok {
		return
	}
	r.writer.Enqueue("transition", func(ctx context.Context) error {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO transitions(session_id, kind, state, error, at) VALUES(?, ?, ?, NULL, ?)
		`, r.sessionID, "control", string(ev.State), ev.Timestamp.UnixMilli())
		return err
	})
}

func (r *Recorder) onPacket(_, _ string, payload any) {
	ev, ok := payload.(events.PacketEvent)
	if !ok {
		return
	}
	payloadHex := strings.ToUpper(hex.EncodeToString(ev.Data))
	payloadLen := len(ev.Data)
	r.writer.Enqueue("packet", func(ctx context.Context) error {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO packets(session_id, payload_hex, payload_len, at) VALUES(?, ?, ?, ?)
		`, r.sessionID, payloadHex, payloadLen, time.Now().UnixMilli())
		return err
	})
}

func (r *Recorder) onStatus(_, _ string, payload any) {
	ev, ok := payload.(events.StatusEvent)
	if !ok {
		return
	}
	rawHex := strings.ToUpper(hex.EncodeToString(ev.Bytes[:]))
	code := ev.Code
	r.writer.Enqueue("status", func(ctx context.Context) error {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO status_reports(session_id, code, raw_hex, at) VALUES(?, ?, ?, ?)
		`, r.sessionID, code, rawHex, time.Now().UnixMilli())
		return err
	})
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
