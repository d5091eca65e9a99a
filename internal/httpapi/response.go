package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcdev12/studyroom/internal/timer"
	"github.com/rs/zerolog/log"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Success: false, Error: message})
}

// writeDomainError maps domain errors to the standard failure shape. Anything
// outside the taxonomy is a persistence or internal failure and surfaces as
// 500 with a generic message.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, timer.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, timer.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, timer.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, timer.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Error().Err(err).Msg("internal error")
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
