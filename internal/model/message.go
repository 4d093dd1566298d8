package model

import "time"

// Message holds information about a single persisted chat turn.
type Message struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	RoomID    int64     `json:"roomId"`
	UserID    *int64    `json:"userId"`
	IsBot     bool      `json:"isBot"`
	CreatedAt time.Time `json:"createdAt"`
}

// MessageWithUser is a Message joined with its author. User is nil when the
// author no longer exists.
type MessageWithUser struct {
	Message
	User *PublicUser `json:"user"`
}

// NewMessage holds the data needed to persist a message.
type NewMessage struct {
	Content string
	RoomID  int64
	UserID  *int64
	IsBot   bool
}
