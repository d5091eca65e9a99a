package rooms

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/studyroom/internal/models"
	"github.com/sqlc-dev/pqtype"
)

// Repository implements room data access operations.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateRoomRequest carries the fields for a new room. Settings may be nil, in
// which case the stored JSONB is NULL and defaults apply on read.
type CreateRoomRequest struct {
	ID          uuid.UUID
	Name        string
	CreatorID   uuid.UUID
	CreatorRole models.Role
	Settings    *models.RoomSettings
}

const roomColumns = `id, name, creator_id, creator_role, settings, created_at, updated_at`

func (r *Repository) CreateRoom(ctx context.Context, req CreateRoomRequest) (*models.Room, error) {
	var settings pqtype.NullRawMessage
	if req.Settings != nil {
		raw, err := json.Marshal(req.Settings)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal room settings: %w", err)
		}
		settings = pqtype.NullRawMessage{RawMessage: raw, Valid: true}
	}

	row := r.db.QueryRowContext(ctx, `
		INSERT INTO rooms (id, name, creator_id, creator_role, settings)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+roomColumns,
		req.ID, req.Name, req.CreatorID, string(req.CreatorRole), settings)

	room, err := scanRoom(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}
	return room, nil
}

func (r *Repository) GetRoom(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+roomColumns+`
		FROM rooms
		WHERE id = $1`, id)

	room, err := scanRoom(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("room %s: %w", id, sql.ErrNoRows)
		}
		return nil, fmt.Errorf("failed to get room %s: %w", id, err)
	}
	return room, nil
}

func scanRoom(row *sql.Row) (*models.Room, error) {
	var (
		room        models.Room
		creatorRole string
		settings    pqtype.NullRawMessage
	)

	err := row.Scan(&room.ID, &room.Name, &room.CreatorID, &creatorRole,
		&settings, &room.CreatedAt, &room.UpdatedAt)
	if err != nil {
		return nil, err
	}

	room.CreatorRole = models.Role(creatorRole)
	room.Settings = models.DefaultRoomSettings()
	if settings.Valid {
		if err := json.Unmarshal(settings.RawMessage, &room.Settings); err != nil {
			return nil, fmt.Errorf("failed to unmarshal room settings: %w", err)
		}
	}
	return &room, nil
}
