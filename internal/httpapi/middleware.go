package httpapi

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/mcdev12/studyroom/internal/models"
	"github.com/mcdev12/studyroom/internal/timer"
)

// Session issuance lives upstream; this service trusts the identity headers
// set by the auth proxy.
const (
	headerUserID   = "X-User-Id"
	headerUserRole = "X-User-Role"
)

type contextKey string

const principalKey contextKey = "principal"

// RequirePrincipal resolves the authenticated principal from the identity
// headers and rejects the request with 401 when they are missing or mangled.
func RequirePrincipal(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuid.Parse(r.Header.Get(headerUserID))
		if err != nil {
			writeError(w, http.StatusUnauthorized, timer.ErrUnauthenticated.Error())
			return
		}

		role := models.Role(r.Header.Get(headerUserRole))
		switch role {
		case models.RoleAdmin, models.RoleModerator, models.RoleUser:
		default:
			writeError(w, http.StatusUnauthorized, timer.ErrUnauthenticated.Error())
			return
		}

		ctx := context.WithValue(r.Context(), principalKey, timer.Principal{
			UserID: userID,
			Role:   role,
		})
		next(w, r.WithContext(ctx))
	}
}

func principalFrom(r *http.Request) timer.Principal {
	p, _ := r.Context().Value(principalKey).(timer.Principal)
	return p
}
