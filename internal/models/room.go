package models

import (
	"github.com/google/uuid"
	"time"
)

// Role defines the permission tier of a user.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleModerator Role = "MODERATOR"
	RoleUser      Role = "USER"
)

// RoomSettings holds JSONB timer configuration for a room.
type RoomSettings struct {
	FocusSec      int `json:"focus_sec"`
	BreakSec      int `json:"break_sec"`
	LongBreakSec  int `json:"long_break_sec"`
	TotalSessions int `json:"total_sessions"`
}

// DefaultRoomSettings returns the standard Pomodoro configuration:
// 25 minute focus, 5 minute break, 15 minute long break, 4 sessions per cycle.
func DefaultRoomSettings() RoomSettings {
	return RoomSettings{
		FocusSec:      1500,
		BreakSec:      300,
		LongBreakSec:  900,
		TotalSessions: 4,
	}
}

// DurationFor returns the configured duration in seconds for a phase.
func (s RoomSettings) DurationFor(phase Phase) int {
	switch phase {
	case PhaseBreak:
		return s.BreakSec
	case PhaseLongBreak:
		return s.LongBreakSec
	default:
		return s.FocusSec
	}
}

// Room represents a study room. A room owns at most one live timer session.
type Room struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	CreatorID   uuid.UUID    `json:"creatorId"`
	CreatorRole Role         `json:"creatorRole"`
	Settings    RoomSettings `json:"settings"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}
