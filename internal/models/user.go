package models

import "github.com/lib/pq"

const (
	RoleStudent  = "student"
	RoleLandlord = "Landlord"
	RoleAdmin    = "Admin"
)

// User is an account as seen by the messaging core.
type User struct {
	ID     int64          `db:"id" json:"id"`
	Name   string         `db:"name" json:"name"`
	Avatar string         `db:"avatar" json:"avatar"`
	Roles  pq.StringArray `db:"roles" json:"roles"`
}

// UserSummary is the public identity shown next to messages and conversations.
type UserSummary struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// Summary returns the public identity of the user.
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Avatar: u.Avatar}
}
