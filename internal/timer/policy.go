package timer

import (
	"github.com/google/uuid"
	"github.com/mcdev12/studyroom/internal/models"
)

// CanControl reports whether a user may issue control actions against a
// room's timer. Admins control everything. Moderators control their own rooms
// and rooms created by plain users, but never rooms created by a peer
// moderator or an admin. Users control only their own rooms.
//
// The check is evaluated fresh on every control request; room ownership and
// roles can change between requests, so results are never cached.
func CanControl(userID uuid.UUID, role models.Role, room *models.Room) bool {
	switch role {
	case models.RoleAdmin:
		return true
	case models.RoleModerator:
		return userID == room.CreatorID || room.CreatorRole == models.RoleUser
	case models.RoleUser:
		return userID == room.CreatorID
	default:
		return false
	}
}
