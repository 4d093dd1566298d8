package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/johndosdos/chatroom/internal/model"
)

// Memory is an in-process Store. It is used by tests and when no database is
// configured.
type Memory struct {
	mu       sync.RWMutex
	users    []model.User
	rooms    []model.Room
	messages []model.Message
	userSeq  int64
	lastAt   time.Time
	now      func() time.Time
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{now: time.Now}
}

func (m *Memory) GetUser(_ context.Context, id int64) (model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.userByID(id)
	if !ok {
		return model.User{}, ErrNotFound
	}
	return u, nil
}

func (m *Memory) GetUserByUsername(_ context.Context, username string) (model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return model.User{}, ErrNotFound
}

func (m *Memory) CreateUser(_ context.Context, user model.NewUser) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Username == user.Username {
			return model.User{}, ErrUsernameTaken
		}
	}

	m.userSeq++
	u := model.User{
		ID:           m.userSeq,
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
	}
	m.users = append(m.users, u)
	return u, nil
}

// DeleteUser removes a user. Messages keep their userId but lose their
// author.
func (m *Memory) DeleteUser(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.users = slices.DeleteFunc(m.users, func(u model.User) bool { return u.ID == id })
}

func (m *Memory) GetRoom(_ context.Context, id int64) (model.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.rooms {
		if r.ID == id {
			return r, nil
		}
	}
	return model.Room{}, ErrNotFound
}

func (m *Memory) GetRoomByName(_ context.Context, name string) (model.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.rooms {
		if r.Name == name {
			return r, nil
		}
	}
	return model.Room{}, ErrNotFound
}

func (m *Memory) GetAllRooms(_ context.Context) ([]model.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Clone(m.rooms), nil
}

func (m *Memory) CreateRoom(_ context.Context, room model.NewRoom) (model.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.rooms {
		if r.Name == room.Name {
			return model.Room{}, ErrRoomExists
		}
	}

	r := model.Room{ID: int64(len(m.rooms) + 1), Name: room.Name, Description: room.Description}
	m.rooms = append(m.rooms, r)
	return r, nil
}

func (m *Memory) GetMessagesByRoom(_ context.Context, roomID int64, limit int) ([]model.MessageWithUser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	limit = historyLimit(limit)

	var out []model.MessageWithUser
	for i := len(m.messages) - 1; i >= 0 && len(out) < limit; i-- {
		if m.messages[i].RoomID == roomID {
			out = append(out, m.withUser(m.messages[i]))
		}
	}
	slices.Reverse(out)
	return out, nil
}

func (m *Memory) CreateMessage(_ context.Context, msg model.NewMessage) (model.MessageWithUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if msg.Content == "" {
		return model.MessageWithUser{}, ErrEmptyMessage
	}
	if !slices.ContainsFunc(m.rooms, func(r model.Room) bool { return r.ID == msg.RoomID }) {
		return model.MessageWithUser{}, ErrNotFound
	}

	// createdAt never goes backwards, so insertion order is chronological.
	at := m.now().UTC()
	if at.Before(m.lastAt) {
		at = m.lastAt
	}
	m.lastAt = at

	stored := model.Message{
		ID:        int64(len(m.messages) + 1),
		Content:   msg.Content,
		RoomID:    msg.RoomID,
		UserID:    msg.UserID,
		IsBot:     msg.IsBot,
		CreatedAt: at,
	}
	m.messages = append(m.messages, stored)
	return m.withUser(stored), nil
}

func (m *Memory) withUser(msg model.Message) model.MessageWithUser {
	out := model.MessageWithUser{Message: msg}
	if msg.UserID != nil {
		if u, ok := m.userByID(*msg.UserID); ok {
			pub := u.Public()
			out.User = &pub
		}
	}
	return out
}

func (m *Memory) userByID(id int64) (model.User, bool) {
	for _, u := range m.users {
		if u.ID == id {
			return u, true
		}
	}
	return model.User{}, false
}
