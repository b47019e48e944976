package model

import (
	"strings"
	"time"
)

// User is a registered account. Users are created once and never mutated.
type User struct {
	ID           string    `json:"_id"`
	UserName     string    `json:"userName"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Profile      string    `json:"profile,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// MatchesName reports whether query is a case-insensitive substring of the user name.
// An empty query matches nothing.
func (u *User) MatchesName(query string) bool {
	if query == "" {
		return false
	}
	return strings.Contains(strings.ToLower(u.UserName), strings.ToLower(query))
}
