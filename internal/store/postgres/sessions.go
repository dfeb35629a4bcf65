package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/kozaktomas/smartcam/internal/session"
	"github.com/kozaktomas/smartcam/internal/store"
)

// SessionRepository provides PostgreSQL-backed session archiving. The full
// report is kept as JSONB; the columns duplicated out of it exist for list
// views and ordering only.
type SessionRepository struct {
	pool *Pool
}

// NewSessionRepository creates a new PostgreSQL session repository.
func NewSessionRepository(pool *Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// Save stores a finished session report, along with the model-written
// summary when one was generated.
func (r *SessionRepository) Save(ctx context.Context, report session.Report, summary string) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	query := `
		INSERT INTO sessions (id, preset, started_at, ended_at, summary, report)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			ended_at = EXCLUDED.ended_at,
			summary = EXCLUDED.summary,
			report = EXCLUDED.report
	`

	_, err = r.pool.Exec(ctx, query, report.ID, report.Preset, report.StartedAt, report.EndedAt, summary, payload)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Get retrieves an archived report by session ID; nil when not found.
func (r *SessionRepository) Get(ctx context.Context, sessionID string) (*session.Report, string, error) {
	var payload []byte
	var summary string
	err := r.pool.QueryRow(ctx, "SELECT report, summary FROM sessions WHERE id = $1", sessionID).Scan(&payload, &summary)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("get session: %w", err)
	}

	var report session.Report
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, "", fmt.Errorf("unmarshal report: %w", err)
	}
	return &report, summary, nil
}

// List returns archived sessions, newest first.
func (r *SessionRepository) List(ctx context.Context, limit int) ([]store.SessionSummary, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, preset, started_at, COALESCE(ended_at, started_at), summary,
		       COALESCE((report->'kpis'->>'uniqueFaces')::int, 0)
		FROM sessions
		ORDER BY started_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []store.SessionSummary
	for rows.Next() {
		var s store.SessionSummary
		if err := rows.Scan(&s.ID, &s.Preset, &s.StartedAt, &s.EndedAt, &s.Summary, &s.UniqueFaces); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}

// Delete removes an archived session and its identities.
func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM sessions WHERE id = $1", sessionID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
