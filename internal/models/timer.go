package models

import "github.com/google/uuid"

// TimerState is the authoritative live snapshot of a room's timer. It is a
// derived, replaceable view: the system of record is the session ledger.
// The snapshot is replaced wholesale on each transition, never mutated in
// place outside the timer controller.
type TimerState struct {
	RoomID        uuid.UUID  `json:"roomId"`
	Phase         Phase      `json:"phase"`
	Remaining     int        `json:"remaining"`
	IsRunning     bool       `json:"isRunning"`
	IsPaused      bool       `json:"isPaused"`
	ControlledBy  *uuid.UUID `json:"controlledBy,omitempty"`
	Session       int        `json:"session"`
	TotalSessions int        `json:"totalSessions"`
}

// IdleTimerState returns the idle snapshot for a room: focus phase at full
// duration, session 1, nothing running.
func IdleTimerState(roomID uuid.UUID, settings RoomSettings) TimerState {
	return TimerState{
		RoomID:        roomID,
		Phase:         PhaseFocus,
		Remaining:     settings.FocusSec,
		IsRunning:     false,
		IsPaused:      false,
		Session:       1,
		TotalSessions: settings.TotalSessions,
	}
}
