package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/mcdev12/studyroom/internal/models"
	"github.com/mcdev12/studyroom/internal/timer"
)

// TimerHandler exposes the room timer control surface over HTTP.
type TimerHandler struct {
	controller *timer.Controller
}

func NewTimerHandler(controller *timer.Controller) *TimerHandler {
	return &TimerHandler{controller: controller}
}

// RegisterRoutes registers the timer routes with an HTTP mux.
func (h *TimerHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /rooms/{id}/timer", RequirePrincipal(h.handleSnapshot))
	mux.HandleFunc("GET /rooms/{id}/timer/session", RequirePrincipal(h.handleLiveSession))
	mux.HandleFunc("POST /rooms/{id}/timer/start", RequirePrincipal(h.handleStart))
	mux.HandleFunc("POST /rooms/{id}/timer/pause", RequirePrincipal(h.handlePause))
	mux.HandleFunc("POST /rooms/{id}/timer/resume", RequirePrincipal(h.handleResume))
	mux.HandleFunc("POST /rooms/{id}/timer/reset", RequirePrincipal(h.handleReset))
	mux.HandleFunc("POST /rooms/{id}/timer/complete", RequirePrincipal(h.handleComplete))
}

func (h *TimerHandler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	roomID, err := roomIDFrom(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	state, err := h.controller.Snapshot(r.Context(), roomID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *TimerHandler) handleLiveSession(w http.ResponseWriter, r *http.Request) {
	roomID, err := roomIDFrom(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	session, err := h.controller.LiveSession(r.Context(), roomID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": session})
}

type startBody struct {
	Phase         string `json:"phase"`
	SessionNumber int    `json:"sessionNumber"`
	Duration      int    `json:"duration"`
}

func (h *TimerHandler) handleStart(w http.ResponseWriter, r *http.Request) {
	roomID, err := roomIDFrom(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var body startBody
	if err := decodeBody(r, &body); err != nil {
		writeDomainError(w, err)
		return
	}
	phase, err := parsePhase(body.Phase)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	session, event, err := h.controller.Start(r.Context(), roomID, principalFrom(r), timer.StartRequest{
		Phase:         phase,
		SessionNumber: body.SessionNumber,
		Duration:      body.Duration,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"session": session, "event": event})
}

type pauseBody struct {
	SessionID     string `json:"sessionId"`
	RemainingTime *int   `json:"remainingTime"`
	Phase         string `json:"phase"`
	SessionNumber int    `json:"sessionNumber"`
}

func (h *TimerHandler) handlePause(w http.ResponseWriter, r *http.Request) {
	roomID, err := roomIDFrom(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var body pauseBody
	if err := decodeBody(r, &body); err != nil {
		writeDomainError(w, err)
		return
	}
	sessionID, err := parseSessionID(body.SessionID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if body.RemainingTime == nil {
		writeDomainError(w, fmt.Errorf("remainingTime is required: %w", timer.ErrValidation))
		return
	}
	phase, err := parsePhase(body.Phase)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	session, event, err := h.controller.Pause(r.Context(), roomID, principalFrom(r), timer.PauseRequest{
		SessionID:     sessionID,
		RemainingTime: *body.RemainingTime,
		Phase:         phase,
		SessionNumber: body.SessionNumber,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": session, "event": event})
}

type resumeBody struct {
	SessionID     string `json:"sessionId"`
	RemainingTime *int   `json:"remainingTime"`
}

func (h *TimerHandler) handleResume(w http.ResponseWriter, r *http.Request) {
	roomID, err := roomIDFrom(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var body resumeBody
	if err := decodeBody(r, &body); err != nil {
		writeDomainError(w, err)
		return
	}
	sessionID, err := parseSessionID(body.SessionID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if body.RemainingTime == nil {
		writeDomainError(w, fmt.Errorf("remainingTime is required: %w", timer.ErrValidation))
		return
	}

	session, event, err := h.controller.Resume(r.Context(), roomID, principalFrom(r), timer.ResumeRequest{
		SessionID:     sessionID,
		RemainingTime: *body.RemainingTime,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": session, "event": event})
}

type resetBody struct {
	SessionID string `json:"sessionId"`
}

func (h *TimerHandler) handleReset(w http.ResponseWriter, r *http.Request) {
	roomID, err := roomIDFrom(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var body resetBody
	if err := decodeBody(r, &body); err != nil {
		writeDomainError(w, err)
		return
	}
	req := timer.ResetRequest{}
	if body.SessionID != "" {
		sessionID, err := parseSessionID(body.SessionID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		req.SessionID = &sessionID
	}

	event, err := h.controller.Reset(r.Context(), roomID, principalFrom(r), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"event": event})
}

type completeBody struct {
	SessionID         string `json:"sessionId"`
	Phase             string `json:"phase"`
	SessionNumber     int    `json:"sessionNumber"`
	CompletedDuration *int   `json:"completedDuration"`
	NextPhase         string `json:"nextPhase"`
}

// handleComplete finalizes an expired session. Deliberately ungated beyond
// authentication: completion reports wall-clock expiry, so any room member may
// submit it, not just timer controllers.
func (h *TimerHandler) handleComplete(w http.ResponseWriter, r *http.Request) {
	roomID, err := roomIDFrom(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var body completeBody
	if err := decodeBody(r, &body); err != nil {
		writeDomainError(w, err)
		return
	}
	sessionID, err := parseSessionID(body.SessionID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	phase, err := parsePhase(body.Phase)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	nextPhase, err := parsePhase(body.NextPhase)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	session, event, err := h.controller.Complete(r.Context(), roomID, principalFrom(r), timer.CompleteRequest{
		SessionID:         sessionID,
		Phase:             phase,
		SessionNumber:     body.SessionNumber,
		CompletedDuration: body.CompletedDuration,
		NextPhase:         nextPhase,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": session, "event": event})
}

func roomIDFrom(r *http.Request) (uuid.UUID, error) {
	roomID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid room id: %w", timer.ErrValidation)
	}
	return roomID, nil
}

func parseSessionID(raw string) (uuid.UUID, error) {
	sessionID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid sessionId: %w", timer.ErrValidation)
	}
	return sessionID, nil
}

func parsePhase(raw string) (models.Phase, error) {
	switch models.Phase(raw) {
	case "", models.PhaseFocus, models.PhaseBreak, models.PhaseLongBreak:
		return models.Phase(raw), nil
	default:
		return "", fmt.Errorf("unknown phase %q: %w", raw, timer.ErrValidation)
	}
}

func decodeBody(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("malformed request body: %w", timer.ErrValidation)
	}
	return nil
}
