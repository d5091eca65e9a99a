package models

import (
	"github.com/google/uuid"
	"time"
)

// Phase defines the Pomodoro segment type.
type Phase string

const (
	PhaseFocus     Phase = "focus"
	PhaseBreak     Phase = "break"
	PhaseLongBreak Phase = "long_break"
)

// SessionStatus defines the lifecycle status of a study session.
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "ACTIVE"
	SessionStatusPaused    SessionStatus = "PAUSED"
	SessionStatusCompleted SessionStatus = "COMPLETED"
	SessionStatusCancelled SessionStatus = "CANCELLED"
)

// Terminal reports whether the status permits no further mutation.
func (s SessionStatus) Terminal() bool {
	return s == SessionStatusCompleted || s == SessionStatusCancelled
}

// Live reports whether the status counts toward the one-live-session-per-room
// invariant.
func (s SessionStatus) Live() bool {
	return s == SessionStatusActive || s == SessionStatusPaused
}

// StudySession is the durable record of one timer run segment. Duration
// accumulates elapsed seconds across the active periods of the session's life;
// StartedAt is re-anchored on resume so paused intervals never accrue.
type StudySession struct {
	ID            uuid.UUID     `json:"id"`
	RoomID        uuid.UUID     `json:"roomId"`
	UserID        uuid.UUID     `json:"userId"`
	Phase         Phase         `json:"phase"`
	SessionNumber int           `json:"sessionNumber"`
	TotalSessions int           `json:"totalSessions"`
	Status        SessionStatus `json:"status"`
	StartedAt     time.Time     `json:"startedAt"`
	EndedAt       *time.Time    `json:"endedAt,omitempty"`
	Duration      int           `json:"duration"`
	Remaining     int           `json:"remaining"`
	ControlledBy  *uuid.UUID    `json:"controlledBy,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}
