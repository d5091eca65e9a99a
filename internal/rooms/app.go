package rooms

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mcdev12/studyroom/internal/models"
	"github.com/rs/zerolog/log"
)

// RoomsRepository defines what the app layer needs from the repository.
type RoomsRepository interface {
	CreateRoom(ctx context.Context, req CreateRoomRequest) (*models.Room, error)
	GetRoom(ctx context.Context, id uuid.UUID) (*models.Room, error)
}

// App handles room business logic.
type App struct {
	repo RoomsRepository
}

func NewApp(repo RoomsRepository) *App {
	return &App{repo: repo}
}

// CreateRoom creates a new room owned by the given creator.
func (a *App) CreateRoom(ctx context.Context, req CreateRoomRequest) (*models.Room, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("room name is required")
	}
	if req.Settings != nil {
		if err := validateSettings(*req.Settings); err != nil {
			return nil, err
		}
	}
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}

	room, err := a.repo.CreateRoom(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	log.Info().
		Str("room_id", room.ID.String()).
		Str("creator_id", room.CreatorID.String()).
		Str("creator_role", string(room.CreatorRole)).
		Msg("created room")
	return room, nil
}

// GetRoom retrieves a room by ID.
func (a *App) GetRoom(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	return a.repo.GetRoom(ctx, id)
}

func validateSettings(s models.RoomSettings) error {
	if s.FocusSec <= 0 || s.BreakSec <= 0 || s.LongBreakSec <= 0 {
		return fmt.Errorf("phase durations must be positive")
	}
	if s.TotalSessions < 1 {
		return fmt.Errorf("total_sessions must be at least 1")
	}
	return nil
}
