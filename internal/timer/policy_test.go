package timer_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/mcdev12/studyroom/internal/models"
	"github.com/mcdev12/studyroom/internal/timer"
)

func TestCanControl(t *testing.T) {
	owner := uuid.New()
	stranger := uuid.New()

	tests := []struct {
		name        string
		userID      uuid.UUID
		role        models.Role
		creatorRole models.Role
		want        bool
	}{
		{"admin controls own room", owner, models.RoleAdmin, models.RoleAdmin, true},
		{"admin controls user room", stranger, models.RoleAdmin, models.RoleUser, true},
		{"admin controls moderator room", stranger, models.RoleAdmin, models.RoleModerator, true},
		{"moderator controls own room", owner, models.RoleModerator, models.RoleModerator, true},
		{"moderator controls user room", stranger, models.RoleModerator, models.RoleUser, true},
		{"moderator cannot control peer moderator room", stranger, models.RoleModerator, models.RoleModerator, false},
		{"moderator cannot control admin room", stranger, models.RoleModerator, models.RoleAdmin, false},
		{"user controls own room", owner, models.RoleUser, models.RoleUser, true},
		{"user cannot control another user room", stranger, models.RoleUser, models.RoleUser, false},
		{"user cannot control admin room", stranger, models.RoleUser, models.RoleAdmin, false},
		{"unknown role never controls", owner, models.Role("GUEST"), models.RoleUser, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			room := &models.Room{
				ID:          uuid.New(),
				CreatorID:   owner,
				CreatorRole: tt.creatorRole,
			}
			if got := timer.CanControl(tt.userID, tt.role, room); got != tt.want {
				t.Fatalf("CanControl(%s, %s, creator=%s) = %v, want %v",
					tt.userID, tt.role, tt.creatorRole, got, tt.want)
			}
		})
	}
}
