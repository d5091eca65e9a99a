// Package ledger persists study sessions, the system of record for the room
// timer. The in-memory timer state is a rebuildable cache on top of it.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/studyroom/internal/models"
	"github.com/mcdev12/studyroom/internal/timer"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Verify that Repository satisfies the controller's ledger contract.
var _ timer.Ledger = (*Repository)(nil)

const sessionColumns = `id, room_id, user_id, phase, session_number, total_sessions,
	status, started_at, ended_at, duration, remaining, controlled_by, created_at, updated_at`

func (r *Repository) FindActiveOrPaused(ctx context.Context, roomID uuid.UUID) (*models.StudySession, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+sessionColumns+`
		FROM study_sessions
		WHERE room_id = $1 AND status IN ('ACTIVE', 'PAUSED')
		ORDER BY created_at DESC
		LIMIT 1`, roomID)

	session, err := scanSession(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find live session for room %s: %w", roomID, err)
	}
	return session, nil
}

func (r *Repository) GetSession(ctx context.Context, id uuid.UUID) (*models.StudySession, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+sessionColumns+`
		FROM study_sessions
		WHERE id = $1`, id)

	session, err := scanSession(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("session %s: %w", id, sql.ErrNoRows)
		}
		return nil, fmt.Errorf("failed to get session %s: %w", id, err)
	}
	return session, nil
}

func (r *Repository) CreateSession(ctx context.Context, req timer.CreateSessionRequest) (*models.StudySession, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO study_sessions (
			id, room_id, user_id, phase, session_number, total_sessions,
			status, started_at, duration, remaining, controlled_by
		) VALUES ($1, $2, $3, $4, $5, $6, 'ACTIVE', $7, 0, $8, $3)
		RETURNING `+sessionColumns,
		req.ID, req.RoomID, req.UserID, string(req.Phase),
		req.SessionNumber, req.TotalSessions, req.StartedAt, req.Remaining)

	session, err := scanSession(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

func (r *Repository) PauseSession(ctx context.Context, id uuid.UUID, req timer.PauseSessionRequest) (*models.StudySession, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE study_sessions
		SET status = 'PAUSED', remaining = $2, duration = $3, controlled_by = $4,
			updated_at = now()
		WHERE id = $1 AND status IN ('ACTIVE', 'PAUSED')
		RETURNING `+sessionColumns,
		id, req.Remaining, req.Duration, req.ControlledBy)

	session, err := scanSession(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("session %s is not live: %w", id, sql.ErrNoRows)
		}
		return nil, fmt.Errorf("failed to pause session %s: %w", id, err)
	}
	return session, nil
}

func (r *Repository) ResumeSession(ctx context.Context, id uuid.UUID, req timer.ResumeSessionRequest) (*models.StudySession, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE study_sessions
		SET status = 'ACTIVE', remaining = $2, duration = $3, started_at = $4,
			controlled_by = $5, updated_at = now()
		WHERE id = $1 AND status IN ('ACTIVE', 'PAUSED')
		RETURNING `+sessionColumns,
		id, req.Remaining, req.Duration, req.StartedAt, req.ControlledBy)

	session, err := scanSession(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("session %s is not live: %w", id, sql.ErrNoRows)
		}
		return nil, fmt.Errorf("failed to resume session %s: %w", id, err)
	}
	return session, nil
}

// CompleteSession finalizes a live session. The WHERE clause makes completion
// conditional on the row still being live, so a racing second completion (or
// one from another process) can never overwrite the recorded duration; the
// already-terminal row is fetched and returned unchanged instead.
func (r *Repository) CompleteSession(ctx context.Context, id uuid.UUID, endedAt time.Time, finalDuration int) (*models.StudySession, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE study_sessions
		SET status = 'COMPLETED', ended_at = $2, duration = $3, remaining = 0,
			updated_at = now()
		WHERE id = $1 AND status IN ('ACTIVE', 'PAUSED')
		RETURNING `+sessionColumns,
		id, endedAt, finalDuration)

	session, err := scanSession(row)
	if err == nil {
		return session, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to complete session %s: %w", id, err)
	}
	return r.GetSession(ctx, id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*models.StudySession, error) {
	var (
		session      models.StudySession
		phase        string
		status       string
		endedAt      sql.NullTime
		controlledBy uuid.NullUUID
	)

	err := row.Scan(
		&session.ID, &session.RoomID, &session.UserID, &phase,
		&session.SessionNumber, &session.TotalSessions, &status,
		&session.StartedAt, &endedAt, &session.Duration, &session.Remaining,
		&controlledBy, &session.CreatedAt, &session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	session.Phase = models.Phase(phase)
	session.Status = models.SessionStatus(status)
	if endedAt.Valid {
		t := endedAt.Time
		session.EndedAt = &t
	}
	if controlledBy.Valid {
		id := controlledBy.UUID
		session.ControlledBy = &id
	}
	return &session, nil
}
