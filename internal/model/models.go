// Package model defines data structure.
package model

// User is a registered account. PasswordHash never leaves the server.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
}

// Public returns the fields of u that may be shown to other users.
func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username}
}

// PublicUser holds the minimal user fields sent to clients.
type PublicUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// NewUser holds the data needed to create a user.
type NewUser struct {
	Username     string
	PasswordHash string
}

// Room is a named chat room.
type Room struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// NewRoom holds the data needed to create a room.
type NewRoom struct {
	Name        string  `json:"name" validate:"required,max=64"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=256"`
}
