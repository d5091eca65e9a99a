package httpapi_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/studyroom/internal/httpapi"
	"github.com/mcdev12/studyroom/internal/models"
	"github.com/mcdev12/studyroom/internal/timer"
)

type fakeRooms struct {
	room *models.Room
}

func (f *fakeRooms) GetRoom(_ context.Context, id uuid.UUID) (*models.Room, error) {
	if f.room == nil || f.room.ID != id {
		return nil, fmt.Errorf("room %s: %w", id, sql.ErrNoRows)
	}
	cp := *f.room
	return &cp, nil
}

type fakeLedger struct {
	sessions map[uuid.UUID]*models.StudySession
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{sessions: make(map[uuid.UUID]*models.StudySession)}
}

func (f *fakeLedger) FindActiveOrPaused(_ context.Context, roomID uuid.UUID) (*models.StudySession, error) {
	for _, s := range f.sessions {
		if s.RoomID == roomID && s.Status.Live() {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeLedger) GetSession(_ context.Context, id uuid.UUID) (*models.StudySession, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, sql.ErrNoRows)
	}
	cp := *s
	return &cp, nil
}

func (f *fakeLedger) CreateSession(_ context.Context, req timer.CreateSessionRequest) (*models.StudySession, error) {
	controlledBy := req.UserID
	s := &models.StudySession{
		ID:            req.ID,
		RoomID:        req.RoomID,
		UserID:        req.UserID,
		Phase:         req.Phase,
		SessionNumber: req.SessionNumber,
		TotalSessions: req.TotalSessions,
		Status:        models.SessionStatusActive,
		StartedAt:     req.StartedAt,
		Remaining:     req.Remaining,
		ControlledBy:  &controlledBy,
		CreatedAt:     req.StartedAt,
		UpdatedAt:     req.StartedAt,
	}
	f.sessions[s.ID] = s
	cp := *s
	return &cp, nil
}

func (f *fakeLedger) PauseSession(_ context.Context, id uuid.UUID, req timer.PauseSessionRequest) (*models.StudySession, error) {
	s, ok := f.sessions[id]
	if !ok || !s.Status.Live() {
		return nil, fmt.Errorf("session %s: %w", id, sql.ErrNoRows)
	}
	controlledBy := req.ControlledBy
	s.Status = models.SessionStatusPaused
	s.Remaining = req.Remaining
	s.Duration = req.Duration
	s.ControlledBy = &controlledBy
	cp := *s
	return &cp, nil
}

func (f *fakeLedger) ResumeSession(_ context.Context, id uuid.UUID, req timer.ResumeSessionRequest) (*models.StudySession, error) {
	s, ok := f.sessions[id]
	if !ok || !s.Status.Live() {
		return nil, fmt.Errorf("session %s: %w", id, sql.ErrNoRows)
	}
	controlledBy := req.ControlledBy
	s.Status = models.SessionStatusActive
	s.Remaining = req.Remaining
	s.Duration = req.Duration
	s.StartedAt = req.StartedAt
	s.ControlledBy = &controlledBy
	cp := *s
	return &cp, nil
}

func (f *fakeLedger) CompleteSession(_ context.Context, id uuid.UUID, endedAt time.Time, finalDuration int) (*models.StudySession, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, sql.ErrNoRows)
	}
	if s.Status.Terminal() {
		cp := *s
		return &cp, nil
	}
	ended := endedAt
	s.Status = models.SessionStatusCompleted
	s.EndedAt = &ended
	s.Duration = finalDuration
	s.Remaining = 0
	cp := *s
	return &cp, nil
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, string, string, any) error { return nil }

type testServer struct {
	mux   *http.ServeMux
	room  *models.Room
	owner uuid.UUID
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	ownerID := uuid.New()
	room := &models.Room{
		ID:          uuid.New(),
		Name:        "evening grind",
		CreatorID:   ownerID,
		CreatorRole: models.RoleUser,
		Settings:    models.DefaultRoomSettings(),
	}

	controller := timer.NewController(
		&fakeRooms{room: room},
		newFakeLedger(),
		noopPublisher{},
		timer.NewMemoryStateStore(),
		clockwork.NewFakeClockAt(time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC)),
	)

	mux := http.NewServeMux()
	httpapi.NewTimerHandler(controller).RegisterRoutes(mux)

	return &testServer{mux: mux, room: room, owner: ownerID}
}

// requestJSON issues a request with the identity headers and decodes the JSON
// response into out (when out is non-nil).
func (ts *testServer) requestJSON(t *testing.T, method, path string, userID uuid.UUID, role models.Role, body any, out any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != uuid.Nil {
		req.Header.Set("X-User-Id", userID.String())
		req.Header.Set("X-User-Role", string(role))
	}

	rec := httptest.NewRecorder()
	ts.mux.ServeHTTP(rec, req)

	if out != nil {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec
}

func (ts *testServer) startSession(t *testing.T) *models.StudySession {
	t.Helper()

	var resp struct {
		Session *models.StudySession `json:"session"`
	}
	rec := ts.requestJSON(t, http.MethodPost, "/rooms/"+ts.room.ID.String()+"/timer/start",
		ts.owner, models.RoleUser, map[string]any{}, &resp)
	if rec.Code != http.StatusCreated {
		t.Fatalf("start: status %d, body %s", rec.Code, rec.Body.String())
	}
	return resp.Session
}

type failureBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func TestTimerRoutesRequireIdentityHeaders(t *testing.T) {
	ts := newTestServer(t)

	var body failureBody
	rec := ts.requestJSON(t, http.MethodGet, "/rooms/"+ts.room.ID.String()+"/timer",
		uuid.Nil, "", nil, &body)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if body.Success {
		t.Error("failure body success = true, want false")
	}
	if body.Error == "" {
		t.Error("failure body missing error message")
	}
}

func TestTimerRoutesRejectUnknownRole(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/rooms/"+ts.room.ID.String()+"/timer", nil)
	req.Header.Set("X-User-Id", ts.owner.String())
	req.Header.Set("X-User-Role", "SUPERUSER")
	rec := httptest.NewRecorder()
	ts.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestStartReturnsSessionAndEvent(t *testing.T) {
	ts := newTestServer(t)

	var resp struct {
		Session *models.StudySession `json:"session"`
		Event   *struct {
			Name string `json:"name"`
		} `json:"event"`
	}
	rec := ts.requestJSON(t, http.MethodPost, "/rooms/"+ts.room.ID.String()+"/timer/start",
		ts.owner, models.RoleUser, map[string]any{"phase": "focus"}, &resp)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body %s", rec.Code, rec.Body.String())
	}
	if resp.Session == nil || resp.Session.Status != models.SessionStatusActive {
		t.Fatalf("session = %+v, want an ACTIVE session", resp.Session)
	}
	if resp.Event == nil || resp.Event.Name != "timer-start" {
		t.Errorf("event = %+v, want timer-start", resp.Event)
	}
}

func TestSnapshotDefaultsForIdleRoom(t *testing.T) {
	ts := newTestServer(t)

	var state models.TimerState
	rec := ts.requestJSON(t, http.MethodGet, "/rooms/"+ts.room.ID.String()+"/timer",
		ts.owner, models.RoleUser, nil, &state)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}
	if state.Phase != models.PhaseFocus || state.Remaining != 1500 {
		t.Errorf("phase=%s remaining=%d, want focus/1500", state.Phase, state.Remaining)
	}
	if state.IsRunning || state.IsPaused {
		t.Errorf("running=%v paused=%v, want idle", state.IsRunning, state.IsPaused)
	}
	if state.Session != 1 || state.TotalSessions != 4 {
		t.Errorf("session=%d totalSessions=%d, want 1/4", state.Session, state.TotalSessions)
	}
}

func TestLiveSessionNullWhenIdle(t *testing.T) {
	ts := newTestServer(t)

	var resp struct {
		Session *models.StudySession `json:"session"`
	}
	rec := ts.requestJSON(t, http.MethodGet, "/rooms/"+ts.room.ID.String()+"/timer/session",
		ts.owner, models.RoleUser, nil, &resp)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if resp.Session != nil {
		t.Errorf("session = %+v, want null", resp.Session)
	}
}

func TestPauseForbiddenForStranger(t *testing.T) {
	ts := newTestServer(t)
	session := ts.startSession(t)

	var body failureBody
	rec := ts.requestJSON(t, http.MethodPost, "/rooms/"+ts.room.ID.String()+"/timer/pause",
		uuid.New(), models.RoleUser,
		map[string]any{"sessionId": session.ID.String(), "remainingTime": 1400}, &body)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403; body %s", rec.Code, rec.Body.String())
	}
	if body.Success {
		t.Error("failure body success = true, want false")
	}
}

func TestPauseUnknownSessionIs404(t *testing.T) {
	ts := newTestServer(t)
	ts.startSession(t)

	rec := ts.requestJSON(t, http.MethodPost, "/rooms/"+ts.room.ID.String()+"/timer/pause",
		ts.owner, models.RoleUser,
		map[string]any{"sessionId": uuid.NewString(), "remainingTime": 1400}, nil)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404; body %s", rec.Code, rec.Body.String())
	}
}

func TestPauseRequiresRemainingTime(t *testing.T) {
	ts := newTestServer(t)
	session := ts.startSession(t)

	rec := ts.requestJSON(t, http.MethodPost, "/rooms/"+ts.room.ID.String()+"/timer/pause",
		ts.owner, models.RoleUser,
		map[string]any{"sessionId": session.ID.String()}, nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body %s", rec.Code, rec.Body.String())
	}
}

func TestMalformedBodyIs400(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/rooms/"+ts.room.ID.String()+"/timer/start",
		bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", ts.owner.String())
	req.Header.Set("X-User-Role", string(models.RoleUser))
	rec := httptest.NewRecorder()
	ts.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body %s", rec.Code, rec.Body.String())
	}
}

func TestInvalidRoomIDIs400(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.requestJSON(t, http.MethodGet, "/rooms/not-a-uuid/timer",
		ts.owner, models.RoleUser, nil, nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body %s", rec.Code, rec.Body.String())
	}
}

func TestUnknownRoomIs404(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.requestJSON(t, http.MethodGet, "/rooms/"+uuid.NewString()+"/timer",
		ts.owner, models.RoleUser, nil, nil)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404; body %s", rec.Code, rec.Body.String())
	}
}

func TestCompleteAllowedForAnyMember(t *testing.T) {
	ts := newTestServer(t)
	session := ts.startSession(t)

	var resp struct {
		Session *models.StudySession `json:"session"`
	}
	rec := ts.requestJSON(t, http.MethodPost, "/rooms/"+ts.room.ID.String()+"/timer/complete",
		uuid.New(), models.RoleUser,
		map[string]any{"sessionId": session.ID.String(), "nextPhase": "break"}, &resp)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}
	if resp.Session == nil || resp.Session.Status != models.SessionStatusCompleted {
		t.Fatalf("session = %+v, want COMPLETED", resp.Session)
	}
}

func TestResetReturnsEvent(t *testing.T) {
	ts := newTestServer(t)
	session := ts.startSession(t)

	var resp struct {
		Event *struct {
			Name    string `json:"name"`
			Payload struct {
				Phase         string `json:"phase"`
				SessionNumber int    `json:"sessionNumber"`
			} `json:"payload"`
		} `json:"event"`
	}
	rec := ts.requestJSON(t, http.MethodPost, "/rooms/"+ts.room.ID.String()+"/timer/reset",
		ts.owner, models.RoleUser,
		map[string]any{"sessionId": session.ID.String()}, &resp)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}
	if resp.Event == nil || resp.Event.Name != "timer-reset" {
		t.Fatalf("event = %+v, want timer-reset", resp.Event)
	}
	if resp.Event.Payload.Phase != "focus" || resp.Event.Payload.SessionNumber != 1 {
		t.Errorf("reset payload phase=%s session=%d, want focus/1",
			resp.Event.Payload.Phase, resp.Event.Payload.SessionNumber)
	}
}
