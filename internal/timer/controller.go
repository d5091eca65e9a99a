package timer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/studyroom/internal/models"
	"github.com/mcdev12/studyroom/internal/timer/events"
	"github.com/rs/zerolog/log"
)

// RoomApp defines what the controller needs from the rooms application.
type RoomApp interface {
	GetRoom(ctx context.Context, id uuid.UUID) (*models.Room, error)
}

// CreateSessionRequest carries the fields for a new ledger row.
type CreateSessionRequest struct {
	ID            uuid.UUID
	RoomID        uuid.UUID
	UserID        uuid.UUID
	Phase         models.Phase
	SessionNumber int
	TotalSessions int
	Remaining     int
	StartedAt     time.Time
}

// PauseSessionRequest snapshots a paused session. Duration is the accumulated
// elapsed seconds banked up to the pause instant.
type PauseSessionRequest struct {
	Remaining    int
	Duration     int
	ControlledBy uuid.UUID
}

// ResumeSessionRequest re-anchors an active session. StartedAt becomes the new
// elapsed-time anchor; Duration carries the accumulated seconds forward.
type ResumeSessionRequest struct {
	Remaining    int
	Duration     int
	StartedAt    time.Time
	ControlledBy uuid.UUID
}

// Ledger defines what the controller needs from the durable session store.
// FindActiveOrPaused returns (nil, nil) when the room has no live session.
// CompleteSession must be conditional on the row still being live so terminal
// rows are never re-completed; completing an already-terminal session returns
// the row unchanged.
type Ledger interface {
	FindActiveOrPaused(ctx context.Context, roomID uuid.UUID) (*models.StudySession, error)
	GetSession(ctx context.Context, id uuid.UUID) (*models.StudySession, error)
	CreateSession(ctx context.Context, req CreateSessionRequest) (*models.StudySession, error)
	PauseSession(ctx context.Context, id uuid.UUID, req PauseSessionRequest) (*models.StudySession, error)
	ResumeSession(ctx context.Context, id uuid.UUID, req ResumeSessionRequest) (*models.StudySession, error)
	CompleteSession(ctx context.Context, id uuid.UUID, endedAt time.Time, finalDuration int) (*models.StudySession, error)
}

// Publisher defines what the controller needs from the broadcast gateway.
type Publisher interface {
	Publish(ctx context.Context, channel, event string, payload any) error
}

// Principal is the authenticated user issuing a control request.
type Principal struct {
	UserID uuid.UUID
	Role   models.Role
}

// Controller orchestrates timer control operations: permission check, state
// transition, durable ledger write, then broadcast. A per-room mutex
// serializes the read-mutate-write sequence so concurrent control requests on
// the same room cannot interleave; requests for different rooms run
// concurrently.
type Controller struct {
	rooms     RoomApp
	ledger    Ledger
	publisher Publisher
	store     StateStore
	clock     clockwork.Clock

	roomMu   map[uuid.UUID]*sync.Mutex
	roomMuMu sync.Mutex
}

// NewController creates a timer controller. Pass clockwork.NewRealClock() in
// production and a FakeClock in tests.
func NewController(rooms RoomApp, ledger Ledger, publisher Publisher, store StateStore, clock clockwork.Clock) *Controller {
	return &Controller{
		rooms:     rooms,
		ledger:    ledger,
		publisher: publisher,
		store:     store,
		clock:     clock,
		roomMu:    make(map[uuid.UUID]*sync.Mutex),
	}
}

func (c *Controller) lockRoom(roomID uuid.UUID) func() {
	c.roomMuMu.Lock()
	mu, ok := c.roomMu[roomID]
	if !ok {
		mu = &sync.Mutex{}
		c.roomMu[roomID] = mu
	}
	c.roomMuMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

// StartRequest carries the optional parameters for Start. Zero values fall
// back to focus phase, session 1, and the room's configured focus duration.
type StartRequest struct {
	Phase         models.Phase
	SessionNumber int
	Duration      int
}

// Start begins a new session for the room. Any existing live session is
// force-completed first, which enforces the one-live-session-per-room
// invariant.
func (c *Controller) Start(ctx context.Context, roomID uuid.UUID, p Principal, req StartRequest) (*models.StudySession, *events.Event, error) {
	room, err := c.getRoom(ctx, roomID)
	if err != nil {
		return nil, nil, err
	}
	if !CanControl(p.UserID, p.Role, room) {
		return nil, nil, ErrForbidden
	}

	phase := req.Phase
	if phase == "" {
		phase = models.PhaseFocus
	}
	ordinal := req.SessionNumber
	if ordinal < 1 {
		ordinal = 1
	}
	duration := req.Duration
	if duration <= 0 {
		duration = room.Settings.DurationFor(phase)
	}

	unlock := c.lockRoom(roomID)
	defer unlock()

	now := c.clock.Now()

	live, err := c.ledger.FindActiveOrPaused(ctx, roomID)
	if err != nil {
		return nil, nil, fmt.Errorf("find live session: %w", err)
	}
	if live != nil {
		if err := c.forceComplete(ctx, live, now); err != nil {
			return nil, nil, fmt.Errorf("force-complete previous session: %w", err)
		}
	}

	session, err := c.ledger.CreateSession(ctx, CreateSessionRequest{
		ID:            uuid.New(),
		RoomID:        roomID,
		UserID:        p.UserID,
		Phase:         phase,
		SessionNumber: ordinal,
		TotalSessions: room.Settings.TotalSessions,
		Remaining:     duration,
		StartedAt:     now,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create session: %w", err)
	}

	controlledBy := p.UserID
	c.store.Set(models.TimerState{
		RoomID:        roomID,
		Phase:         phase,
		Remaining:     duration,
		IsRunning:     true,
		IsPaused:      false,
		ControlledBy:  &controlledBy,
		Session:       ordinal,
		TotalSessions: room.Settings.TotalSessions,
	})

	event := &events.Event{
		Name: events.EventTimerStart,
		Payload: events.StartPayload{
			RoomID:        roomID.String(),
			UserID:        p.UserID.String(),
			SessionID:     session.ID.String(),
			Phase:         string(phase),
			Duration:      duration,
			SessionNumber: ordinal,
			Timestamp:     now,
		},
	}
	c.broadcast(ctx, roomID, event)

	return session, event, nil
}

// PauseRequest carries the parameters for Pause.
type PauseRequest struct {
	SessionID     uuid.UUID
	RemainingTime int
	Phase         models.Phase
	SessionNumber int
}

// Pause freezes the session countdown. Elapsed seconds since the current
// anchor are banked into the accumulated duration so paused intervals never
// accrue time.
func (c *Controller) Pause(ctx context.Context, roomID uuid.UUID, p Principal, req PauseRequest) (*models.StudySession, *events.Event, error) {
	room, err := c.getRoom(ctx, roomID)
	if err != nil {
		return nil, nil, err
	}
	if !CanControl(p.UserID, p.Role, room) {
		return nil, nil, ErrForbidden
	}

	unlock := c.lockRoom(roomID)
	defer unlock()

	now := c.clock.Now()

	session, err := c.getRoomSession(ctx, roomID, req.SessionID)
	if err != nil {
		return nil, nil, err
	}
	if session.Status.Terminal() {
		return nil, nil, fmt.Errorf("session %s already %s: %w", session.ID, session.Status, ErrNotFound)
	}

	remaining := clampSeconds(req.RemainingTime)
	duration := session.Duration
	if session.Status == models.SessionStatusActive {
		duration += elapsedSeconds(session.StartedAt, now)
	}

	session, err = c.ledger.PauseSession(ctx, session.ID, PauseSessionRequest{
		Remaining:    remaining,
		Duration:     duration,
		ControlledBy: p.UserID,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("pause session: %w", err)
	}

	phase := req.Phase
	if phase == "" {
		phase = session.Phase
	}
	ordinal := req.SessionNumber
	if ordinal < 1 {
		ordinal = session.SessionNumber
	}

	controlledBy := p.UserID
	c.store.Set(models.TimerState{
		RoomID:        roomID,
		Phase:         phase,
		Remaining:     remaining,
		IsRunning:     false,
		IsPaused:      true,
		ControlledBy:  &controlledBy,
		Session:       ordinal,
		TotalSessions: session.TotalSessions,
	})

	event := &events.Event{
		Name: events.EventTimerPause,
		Payload: events.PausePayload{
			RoomID:        roomID.String(),
			UserID:        p.UserID.String(),
			SessionID:     session.ID.String(),
			Phase:         string(phase),
			Duration:      session.Duration,
			SessionNumber: ordinal,
			RemainingTime: remaining,
			Timestamp:     now,
		},
	}
	c.broadcast(ctx, roomID, event)

	return session, event, nil
}

// ResumeRequest carries the parameters for Resume.
type ResumeRequest struct {
	SessionID     uuid.UUID
	RemainingTime int
}

// Resume restarts a paused session's countdown. StartedAt is re-anchored to
// now, so elapsed-time accounting restarts from this instant.
func (c *Controller) Resume(ctx context.Context, roomID uuid.UUID, p Principal, req ResumeRequest) (*models.StudySession, *events.Event, error) {
	room, err := c.getRoom(ctx, roomID)
	if err != nil {
		return nil, nil, err
	}
	if !CanControl(p.UserID, p.Role, room) {
		return nil, nil, ErrForbidden
	}

	unlock := c.lockRoom(roomID)
	defer unlock()

	now := c.clock.Now()

	session, err := c.getRoomSession(ctx, roomID, req.SessionID)
	if err != nil {
		return nil, nil, err
	}
	if session.Status.Terminal() {
		return nil, nil, fmt.Errorf("session %s already %s: %w", session.ID, session.Status, ErrNotFound)
	}

	remaining := clampSeconds(req.RemainingTime)
	duration := session.Duration
	if session.Status == models.SessionStatusActive {
		// Resuming an already-active session re-anchors it; bank the elapsed
		// time first so it is not lost.
		duration += elapsedSeconds(session.StartedAt, now)
	}

	session, err = c.ledger.ResumeSession(ctx, session.ID, ResumeSessionRequest{
		Remaining:    remaining,
		Duration:     duration,
		StartedAt:    now,
		ControlledBy: p.UserID,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("resume session: %w", err)
	}

	controlledBy := p.UserID
	c.store.Set(models.TimerState{
		RoomID:        roomID,
		Phase:         session.Phase,
		Remaining:     remaining,
		IsRunning:     true,
		IsPaused:      false,
		ControlledBy:  &controlledBy,
		Session:       session.SessionNumber,
		TotalSessions: session.TotalSessions,
	})

	event := &events.Event{
		Name: events.EventTimerResume,
		Payload: events.ResumePayload{
			RoomID:        roomID.String(),
			UserID:        p.UserID.String(),
			SessionID:     session.ID.String(),
			Phase:         string(session.Phase),
			SessionNumber: session.SessionNumber,
			RemainingTime: remaining,
			Timestamp:     now,
		},
	}
	c.broadcast(ctx, roomID, event)

	return session, event, nil
}

// ResetRequest carries the optional session reference for Reset.
type ResetRequest struct {
	SessionID *uuid.UUID
}

// Reset returns the room's timer to the idle focus state at session 1. If a
// session id is given and resolves to a live session of this room, it is
// force-completed first; a stale or unknown id is ignored.
func (c *Controller) Reset(ctx context.Context, roomID uuid.UUID, p Principal, req ResetRequest) (*events.Event, error) {
	room, err := c.getRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !CanControl(p.UserID, p.Role, room) {
		return nil, ErrForbidden
	}

	unlock := c.lockRoom(roomID)
	defer unlock()

	now := c.clock.Now()

	var completedID *string
	if req.SessionID != nil {
		session, err := c.ledger.GetSession(ctx, *req.SessionID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			// Stale reference; the reset still proceeds.
		case err != nil:
			return nil, fmt.Errorf("get session: %w", err)
		case session.RoomID == roomID && session.Status.Live():
			if err := c.forceComplete(ctx, session, now); err != nil {
				return nil, fmt.Errorf("force-complete session: %w", err)
			}
			id := session.ID.String()
			completedID = &id
		}
	}

	c.store.Set(models.IdleTimerState(roomID, room.Settings))

	event := &events.Event{
		Name: events.EventTimerReset,
		Payload: events.ResetPayload{
			RoomID:        roomID.String(),
			UserID:        p.UserID.String(),
			SessionID:     completedID,
			Phase:         string(models.PhaseFocus),
			SessionNumber: 1,
			Timestamp:     now,
		},
	}
	c.broadcast(ctx, roomID, event)

	return event, nil
}

// CompleteRequest carries the parameters for Complete. CompletedDuration, when
// positive, overrides the wall-clock computation. NextPhase is relayed to
// clients; phase cycling is their responsibility.
type CompleteRequest struct {
	SessionID         uuid.UUID
	Phase             models.Phase
	SessionNumber     int
	CompletedDuration *int
	NextPhase         models.Phase
}

// Complete finalizes a session after its countdown expired. Unlike the other
// operations there is no permission gate: completion reports wall-clock
// expiry, so any room member may finalize. Completing an already-terminal
// session is a no-op that returns the row unchanged without broadcasting.
func (c *Controller) Complete(ctx context.Context, roomID uuid.UUID, p Principal, req CompleteRequest) (*models.StudySession, *events.Event, error) {
	room, err := c.getRoom(ctx, roomID)
	if err != nil {
		return nil, nil, err
	}

	unlock := c.lockRoom(roomID)
	defer unlock()

	now := c.clock.Now()

	session, err := c.getRoomSession(ctx, roomID, req.SessionID)
	if err != nil {
		return nil, nil, err
	}
	if session.Status.Terminal() {
		return session, nil, nil
	}

	finalDuration := session.Duration
	if session.Status == models.SessionStatusActive {
		finalDuration += elapsedSeconds(session.StartedAt, now)
	}
	if req.CompletedDuration != nil && *req.CompletedDuration > 0 {
		finalDuration = *req.CompletedDuration
	}

	session, err = c.ledger.CompleteSession(ctx, session.ID, now, finalDuration)
	if err != nil {
		return nil, nil, fmt.Errorf("complete session: %w", err)
	}

	completedPhase := req.Phase
	if completedPhase == "" {
		completedPhase = session.Phase
	}
	nextPhase := req.NextPhase
	if nextPhase == "" {
		nextPhase = models.PhaseFocus
	}
	ordinal := req.SessionNumber
	if ordinal < 1 {
		ordinal = session.SessionNumber
	}

	c.store.Set(models.TimerState{
		RoomID:        roomID,
		Phase:         nextPhase,
		Remaining:     room.Settings.DurationFor(nextPhase),
		IsRunning:     false,
		IsPaused:      false,
		Session:       ordinal,
		TotalSessions: session.TotalSessions,
	})

	event := &events.Event{
		Name: events.EventTimerComplete,
		Payload: events.CompletePayload{
			RoomID:         roomID.String(),
			UserID:         p.UserID.String(),
			SessionID:      session.ID.String(),
			CompletedPhase: string(completedPhase),
			NextPhase:      string(nextPhase),
			SessionNumber:  ordinal,
			Timestamp:      now,
		},
	}
	c.broadcast(ctx, roomID, event)

	return session, event, nil
}

// Snapshot returns the room's current timer state. On a store miss the state
// is rebuilt from the most recent live ledger row; a room with no live session
// gets the idle default, so callers never observe "no timer".
func (c *Controller) Snapshot(ctx context.Context, roomID uuid.UUID) (models.TimerState, error) {
	room, err := c.getRoom(ctx, roomID)
	if err != nil {
		return models.TimerState{}, err
	}

	if state, ok := c.store.Get(roomID); ok {
		return state, nil
	}

	live, err := c.ledger.FindActiveOrPaused(ctx, roomID)
	if err != nil {
		return models.TimerState{}, fmt.Errorf("find live session: %w", err)
	}
	if live == nil {
		state := models.IdleTimerState(roomID, room.Settings)
		c.store.Set(state)
		return state, nil
	}

	state := models.TimerState{
		RoomID:        roomID,
		Phase:         live.Phase,
		Remaining:     live.Remaining,
		IsRunning:     live.Status == models.SessionStatusActive,
		IsPaused:      live.Status == models.SessionStatusPaused,
		ControlledBy:  live.ControlledBy,
		Session:       live.SessionNumber,
		TotalSessions: live.TotalSessions,
	}
	if live.Status == models.SessionStatusActive {
		state.Remaining = clampSeconds(live.Remaining - elapsedSeconds(live.StartedAt, c.clock.Now()))
	}
	c.store.Set(state)
	return state, nil
}

// LiveSession returns the room's current ACTIVE or PAUSED session, or nil.
func (c *Controller) LiveSession(ctx context.Context, roomID uuid.UUID) (*models.StudySession, error) {
	if _, err := c.getRoom(ctx, roomID); err != nil {
		return nil, err
	}

	live, err := c.ledger.FindActiveOrPaused(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("find live session: %w", err)
	}
	return live, nil
}

// forceComplete finalizes a live session per the duration accounting rule: an
// active session accrues the elapsed seconds since its anchor, a paused one
// accrues nothing further.
func (c *Controller) forceComplete(ctx context.Context, session *models.StudySession, now time.Time) error {
	finalDuration := session.Duration
	if session.Status == models.SessionStatusActive {
		finalDuration += elapsedSeconds(session.StartedAt, now)
	}
	_, err := c.ledger.CompleteSession(ctx, session.ID, now, finalDuration)
	return err
}

func (c *Controller) getRoom(ctx context.Context, roomID uuid.UUID) (*models.Room, error) {
	room, err := c.rooms.GetRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("room %s: %w", roomID, ErrNotFound)
		}
		return nil, fmt.Errorf("get room: %w", err)
	}
	return room, nil
}

func (c *Controller) getRoomSession(ctx context.Context, roomID, sessionID uuid.UUID) (*models.StudySession, error) {
	session, err := c.ledger.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session.RoomID != roomID {
		return nil, fmt.Errorf("session %s does not belong to room %s: %w", sessionID, roomID, ErrNotFound)
	}
	return session, nil
}

// broadcast publishes the event to the room's channel. Failures are logged and
// swallowed: the durable state change already succeeded, so a broadcast
// failure must not fail the caller's response path.
func (c *Controller) broadcast(ctx context.Context, roomID uuid.UUID, event *events.Event) {
	channel := events.Channel(roomID.String())
	if err := c.publisher.Publish(ctx, channel, event.Name, event.Payload); err != nil {
		log.Error().
			Err(err).
			Str("room_id", roomID.String()).
			Str("channel", channel).
			Str("event", event.Name).
			Msg("failed to broadcast timer event")
	}
}

func elapsedSeconds(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	return int(to.Sub(from) / time.Second)
}

func clampSeconds(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
