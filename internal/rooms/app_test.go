package rooms_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/mcdev12/studyroom/internal/models"
	"github.com/mcdev12/studyroom/internal/rooms"
)

type fakeRepo struct {
	byID map[uuid.UUID]*models.Room
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byID: make(map[uuid.UUID]*models.Room)}
}

func (f *fakeRepo) CreateRoom(_ context.Context, req rooms.CreateRoomRequest) (*models.Room, error) {
	settings := models.DefaultRoomSettings()
	if req.Settings != nil {
		settings = *req.Settings
	}
	room := &models.Room{
		ID:          req.ID,
		Name:        req.Name,
		CreatorID:   req.CreatorID,
		CreatorRole: req.CreatorRole,
		Settings:    settings,
	}
	f.byID[room.ID] = room
	return room, nil
}

func (f *fakeRepo) GetRoom(_ context.Context, id uuid.UUID) (*models.Room, error) {
	room, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("room %s: %w", id, sql.ErrNoRows)
	}
	return room, nil
}

func TestCreateRoomDefaultsSettings(t *testing.T) {
	app := rooms.NewApp(newFakeRepo())

	room, err := app.CreateRoom(context.Background(), rooms.CreateRoomRequest{
		Name:        "morning focus",
		CreatorID:   uuid.New(),
		CreatorRole: models.RoleUser,
	})
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	if room.ID == uuid.Nil {
		t.Error("room id not assigned")
	}
	if room.Settings != models.DefaultRoomSettings() {
		t.Errorf("settings = %+v, want defaults", room.Settings)
	}
}

func TestCreateRoomRejectsBlankName(t *testing.T) {
	app := rooms.NewApp(newFakeRepo())

	_, err := app.CreateRoom(context.Background(), rooms.CreateRoomRequest{
		Name:        "   ",
		CreatorID:   uuid.New(),
		CreatorRole: models.RoleUser,
	})
	if err == nil {
		t.Fatal("CreateRoom with blank name succeeded, want error")
	}
}

func TestCreateRoomValidatesSettings(t *testing.T) {
	app := rooms.NewApp(newFakeRepo())

	tests := []struct {
		name     string
		settings models.RoomSettings
	}{
		{"zero focus", models.RoomSettings{FocusSec: 0, BreakSec: 300, LongBreakSec: 900, TotalSessions: 4}},
		{"negative break", models.RoomSettings{FocusSec: 1500, BreakSec: -1, LongBreakSec: 900, TotalSessions: 4}},
		{"zero sessions", models.RoomSettings{FocusSec: 1500, BreakSec: 300, LongBreakSec: 900, TotalSessions: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := tt.settings
			_, err := app.CreateRoom(context.Background(), rooms.CreateRoomRequest{
				Name:        "bad settings",
				CreatorID:   uuid.New(),
				CreatorRole: models.RoleUser,
				Settings:    &settings,
			})
			if err == nil {
				t.Fatal("CreateRoom with invalid settings succeeded, want error")
			}
		})
	}
}
