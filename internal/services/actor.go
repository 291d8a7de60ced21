package services

import "rental-service/internal/models"

// Actor is the authenticated principal invoking an operation. Role gating
// happens upstream; services only check ownership.
type Actor struct {
	ID    int64
	Roles []string
}

// HasRole reports whether the actor carries the role.
func (a Actor) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the actor may act on records they do not own.
func (a Actor) IsAdmin() bool {
	return a.HasRole(models.RoleAdmin)
}
