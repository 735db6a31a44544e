package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Transition is one recorded state change.
type Transition struct {
	SessionID string
	Kind      string
	State     string
	Err       string
	At        time.Time
}

// Repo reads the history log back for inspection tooling.
type Repo struct {
	db *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) ListTransitions(ctx context.Context, sessionID string) ([]Transition, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT session_id, kind, state, error, at
		FROM transitions
		WHERE session_id = ?
		ORDER BY at, id
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list transitions: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []Transition
	for rows.Next() {
		var (
			tr     Transition
			errStr sql.NullString
			at     int64
		)
		if err := rows.Scan(&tr.SessionID, &tr.Kind, &tr.State, &errStr, &at); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		tr.Err = errStr.String
		tr.At = time.UnixMilli(at)
		out = append(out, tr)
	}
	return out, rows.Err()
}

func (r *Repo) CountPackets(ctx context.Context, sessionID string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM packets WHERE session_id = ?
	`, sessionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count packets: %w", err)
	}
	return n, nil
}

func (r *Repo) CountStatusReports(ctx context.Context, sessionID string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM status_reports WHERE session_id = ?
	`, sessionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count status reports: %w", err)
	}
	return n, nil
}
