package httpapi

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/mcdev12/studyroom/internal/models"
	"github.com/mcdev12/studyroom/internal/rooms"
	"github.com/mcdev12/studyroom/internal/timer"
)

// RoomsHandler exposes the room aggregate endpoints the timer surface needs.
type RoomsHandler struct {
	app *rooms.App
}

func NewRoomsHandler(app *rooms.App) *RoomsHandler {
	return &RoomsHandler{app: app}
}

// RegisterRoutes registers the room routes with an HTTP mux.
func (h *RoomsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /rooms", RequirePrincipal(h.handleCreate))
	mux.HandleFunc("GET /rooms/{id}", RequirePrincipal(h.handleGet))
}

type createRoomBody struct {
	Name     string               `json:"name"`
	Settings *models.RoomSettings `json:"settings"`
}

func (h *RoomsHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var body createRoomBody
	if err := decodeBody(r, &body); err != nil {
		writeDomainError(w, err)
		return
	}
	if body.Name == "" {
		writeDomainError(w, fmt.Errorf("name is required: %w", timer.ErrValidation))
		return
	}
	if s := body.Settings; s != nil {
		if s.FocusSec <= 0 || s.BreakSec <= 0 || s.LongBreakSec <= 0 || s.TotalSessions < 1 {
			writeDomainError(w, fmt.Errorf("invalid settings: %w", timer.ErrValidation))
			return
		}
	}

	p := principalFrom(r)
	room, err := h.app.CreateRoom(r.Context(), rooms.CreateRoomRequest{
		Name:        body.Name,
		CreatorID:   p.UserID,
		CreatorRole: p.Role,
		Settings:    body.Settings,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"room": room})
}

func (h *RoomsHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	roomID, err := roomIDFrom(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	room, err := h.app.GetRoom(r.Context(), roomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeDomainError(w, fmt.Errorf("room %s: %w", roomID, timer.ErrNotFound))
			return
		}
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"room": room})
}
