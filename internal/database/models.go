package database

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type User struct {
	ID           int64
	Username     string
	PasswordHash string
}

type Room struct {
	ID          int64
	Name        string
	Description pgtype.Text
}

type Message struct {
	ID        int64
	Content   string
	RoomID    int64
	UserID    pgtype.Int8
	IsBot     bool
	CreatedAt pgtype.Timestamptz
}
