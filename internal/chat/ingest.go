package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/johndosdos/chatroom/internal/bot"
	"github.com/johndosdos/chatroom/internal/hub"
	"github.com/johndosdos/chatroom/internal/model"
	"github.com/johndosdos/chatroom/internal/wire"
)

var (
	ErrNotBound     = errors.New("chat: session is not identified or not in a room")
	ErrEmptyContent = errors.New("chat: message content is empty")
	ErrPersist      = errors.New("chat: failed to persist message")
)

// Submit validates, persists and broadcasts a chat message from session h.
// Sender and room come from the registry only. Trigger messages schedule a
// bot reply; Submit does not wait for it.
func (s *Service) Submit(ctx context.Context, h hub.Handle, content string) (model.MessageWithUser, error) {
	rec, ok := s.registry.Lookup(h)
	if !ok || !rec.Identified() || !rec.InRoom() {
		return model.MessageWithUser{}, ErrNotBound
	}

	// We need to sanitize incoming messages to prevent XSS.
	clean := strings.TrimSpace(s.sanitizer.Sanitize(content))
	if clean == "" {
		return model.MessageWithUser{}, ErrEmptyContent
	}

	userID := rec.UserID
	msg, err := s.store.CreateMessage(ctx, model.NewMessage{
		Content: clean,
		RoomID:  rec.RoomID,
		UserID:  &userID,
		IsBot:   false,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to store message",
			"error", err,
			"user_id", rec.UserID,
			"room_id", rec.RoomID)
		return model.MessageWithUser{}, fmt.Errorf("%w: %w", ErrPersist, err)
	}

	s.rooms.Broadcast(rec.RoomID, wire.NewNewMessage(msg), hub.None)

	if s.sink != nil {
		if err := s.sink.Publish(ctx, msg); err != nil {
			s.logger.WarnContext(ctx, "failed to publish message", "error", err, "message_id", msg.ID)
		}
	}

	if bot.IsTrigger(content) && s.bots != nil {
		s.bots.Schedule(bot.Trigger{Content: content, RoomID: rec.RoomID})
	}

	return msg, nil
}
