package chat

import (
	"context"
	"fmt"

	"github.com/johndosdos/chatroom/internal/hub"
	"github.com/johndosdos/chatroom/internal/model"
	"github.com/johndosdos/chatroom/internal/wire"
)

// CreateRoom creates a room and announces it to every session. A duplicate
// name returns store.ErrRoomExists and leaves the room set unchanged.
func (s *Service) CreateRoom(ctx context.Context, room model.NewRoom) (model.Room, error) {
	created, err := s.store.CreateRoom(ctx, room)
	if err != nil {
		return model.Room{}, fmt.Errorf("chat: create room %q: %w", room.Name, err)
	}

	s.rooms.BroadcastAll(wire.NewRoomCreated(created), hub.None)
	return created, nil
}

// Rooms lists every room.
func (s *Service) Rooms(ctx context.Context) ([]model.Room, error) {
	rooms, err := s.store.GetAllRooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("chat: list rooms: %w", err)
	}
	if rooms == nil {
		rooms = []model.Room{}
	}
	return rooms, nil
}

// History returns the newest messages of a room, oldest first.
func (s *Service) History(ctx context.Context, roomID int64, limit int) ([]model.MessageWithUser, error) {
	if limit <= 0 || limit > s.historyLimit {
		limit = s.historyLimit
	}

	if _, err := s.store.GetRoom(ctx, roomID); err != nil {
		return nil, fmt.Errorf("chat: get room %d: %w", roomID, err)
	}

	msgs, err := s.store.GetMessagesByRoom(ctx, roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("chat: list messages of room %d: %w", roomID, err)
	}
	if msgs == nil {
		msgs = []model.MessageWithUser{}
	}
	return msgs, nil
}
