package events

import "time"

// Event names broadcast on a room's timer channel.
const (
	EventTimerStart    = "timer-start"
	EventTimerPause    = "timer-pause"
	EventTimerResume   = "timer-resume"
	EventTimerReset    = "timer-reset"
	EventTimerComplete = "timer-complete"
)

// Channel returns the broadcast channel for a room's timer events.
func Channel(roomID string) string {
	return "room-" + roomID + "-timer"
}

// Event pairs an event name with its payload. Controller operations return the
// event they broadcast so the HTTP response can echo it to the caller.
type Event struct {
	Name    string `json:"name"`
	Payload any    `json:"payload"`
}

// StartPayload is the payload for a timer-start event.
type StartPayload struct {
	RoomID        string    `json:"roomId"`
	UserID        string    `json:"userId"`
	SessionID     string    `json:"sessionId"`
	Phase         string    `json:"phase"`
	Duration      int       `json:"duration"`
	SessionNumber int       `json:"sessionNumber"`
	Timestamp     time.Time `json:"timestamp"`
}

// PausePayload is the payload for a timer-pause event.
type PausePayload struct {
	RoomID        string    `json:"roomId"`
	UserID        string    `json:"userId"`
	SessionID     string    `json:"sessionId"`
	Phase         string    `json:"phase"`
	Duration      int       `json:"duration"`
	SessionNumber int       `json:"sessionNumber"`
	RemainingTime int       `json:"remainingTime"`
	Timestamp     time.Time `json:"timestamp"`
}

// ResumePayload is the payload for a timer-resume event.
type ResumePayload struct {
	RoomID        string    `json:"roomId"`
	UserID        string    `json:"userId"`
	SessionID     string    `json:"sessionId"`
	Phase         string    `json:"phase"`
	SessionNumber int       `json:"sessionNumber"`
	RemainingTime int       `json:"remainingTime"`
	Timestamp     time.Time `json:"timestamp"`
}

// ResetPayload is the payload for a timer-reset event. The cycle always resets
// to focus phase, session 1, regardless of where it left off.
type ResetPayload struct {
	RoomID        string    `json:"roomId"`
	UserID        string    `json:"userId"`
	SessionID     *string   `json:"sessionId,omitempty"`
	Phase         string    `json:"phase"`
	SessionNumber int       `json:"sessionNumber"`
	Timestamp     time.Time `json:"timestamp"`
}

// CompletePayload is the payload for a timer-complete event. NextPhase is a
// client-side signal; the server does not enforce phase cycling.
type CompletePayload struct {
	RoomID         string    `json:"roomId"`
	UserID         string    `json:"userId"`
	SessionID      string    `json:"sessionId"`
	CompletedPhase string    `json:"completedPhase"`
	NextPhase      string    `json:"nextPhase"`
	SessionNumber  int       `json:"sessionNumber"`
	Timestamp      time.Time `json:"timestamp"`
}
