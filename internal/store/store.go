// Package store is the persistence gateway for users, rooms and messages.
package store

import (
	"context"
	"errors"

	"github.com/johndosdos/chatroom/internal/model"
)

// DefaultHistoryLimit is the page size used for room history.
const DefaultHistoryLimit = 50

var (
	ErrNotFound      = errors.New("store: not found")
	ErrRoomExists    = errors.New("store: room already exists")
	ErrUsernameTaken = errors.New("store: username already exists")
	ErrEmptyMessage  = errors.New("store: message content is empty")
)

// Store is the durable store consumed by the chat core.
type Store interface {
	GetUser(ctx context.Context, id int64) (model.User, error)
	GetUserByUsername(ctx context.Context, username string) (model.User, error)
	CreateUser(ctx context.Context, user model.NewUser) (model.User, error)

	GetRoom(ctx context.Context, id int64) (model.Room, error)
	GetRoomByName(ctx context.Context, name string) (model.Room, error)
	GetAllRooms(ctx context.Context) ([]model.Room, error)
	CreateRoom(ctx context.Context, room model.NewRoom) (model.Room, error)

	// GetMessagesByRoom returns at most limit of the newest messages of the
	// room, oldest first. A limit <= 0 uses DefaultHistoryLimit.
	GetMessagesByRoom(ctx context.Context, roomID int64, limit int) ([]model.MessageWithUser, error)
	// CreateMessage persists msg and returns it joined with its author.
	CreateMessage(ctx context.Context, msg model.NewMessage) (model.MessageWithUser, error)
}

func historyLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	return limit
}
