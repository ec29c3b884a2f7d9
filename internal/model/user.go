// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// Follows holds USERNAMES, not ids. Entries are never cleaned up when the
// followed account disappears, so a follow set may name users that no longer
// exist.
//
// WHY `json:"-"` ON PASSWORD?
// The password is stored exactly as the user typed it (see auth.PlaintextPasswords).
// The "-" tag makes encoding/json skip the field entirely, so no handler can
// leak it by accident when it serialises a User.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	FullName  string    `json:"fullName"`
	Follows   []string  `json:"follows"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsFollowing reports whether username is in the user's follow set.
func (u *User) IsFollowing(username string) bool {
	for _, f := range u.Follows {
		if f == username {
			return true
		}
	}
	return false
}
