// Package chat routes client messages for live sessions: identity, room
// membership, message ingest and typing indicators.
package chat

import (
	"context"
	"errors"
	"log/slog"

	"github.com/microcosm-cc/bluemonday"

	"github.com/johndosdos/chatroom/internal/bot"
	"github.com/johndosdos/chatroom/internal/hub"
	"github.com/johndosdos/chatroom/internal/model"
	"github.com/johndosdos/chatroom/internal/store"
	"github.com/johndosdos/chatroom/internal/wire"
)

// Client-facing error texts.
const (
	msgNotBound       = "Not properly connected to room"
	msgEmptyContent   = "Message content cannot be empty"
	msgSendFailed     = "Failed to send message"
	msgRoomNotFound   = "Room not found"
	msgHistoryFailed  = "Failed to load messages"
	msgInvalidSession = "Invalid user"
)

// Store is the persistence the chat core needs.
type Store interface {
	GetRoom(ctx context.Context, id int64) (model.Room, error)
	GetAllRooms(ctx context.Context) ([]model.Room, error)
	CreateRoom(ctx context.Context, room model.NewRoom) (model.Room, error)
	GetMessagesByRoom(ctx context.Context, roomID int64, limit int) ([]model.MessageWithUser, error)
	CreateMessage(ctx context.Context, msg model.NewMessage) (model.MessageWithUser, error)
}

// Scheduler starts a bot reply task without waiting for it.
type Scheduler interface {
	Schedule(t bot.Trigger)
}

// MessageSink receives every persisted user message.
type MessageSink interface {
	Publish(ctx context.Context, msg model.MessageWithUser) error
}

type sanitizer interface {
	Sanitize(s string) string
}

// Options configures a Service. The zero value is usable.
type Options struct {
	HistoryLimit int
	Sink         MessageSink
	Logger       *slog.Logger
}

// Service is the single entry point for session traffic.
type Service struct {
	registry     *hub.Registry
	rooms        *hub.Broadcaster
	store        Store
	bots         Scheduler
	sink         MessageSink
	sanitizer    sanitizer
	historyLimit int
	logger       *slog.Logger
}

// NewService returns a Service.
func NewService(registry *hub.Registry, rooms *hub.Broadcaster, s Store, bots Scheduler, opts Options) *Service {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = store.DefaultHistoryLimit
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Service{
		registry:     registry,
		rooms:        rooms,
		store:        s,
		bots:         bots,
		sink:         opts.Sink,
		sanitizer:    bluemonday.StrictPolicy(),
		historyLimit: opts.HistoryLimit,
		logger:       opts.Logger,
	}
}

// Connect registers a new session.
func (s *Service) Connect(sender hub.Sender) hub.Handle {
	h := s.registry.Register(sender)
	s.logger.Debug("session connected", "handle", h.String())
	return h
}

// Disconnect removes the session and tells its last room the user left. The
// session is gone from the registry before the notification is sent.
func (s *Service) Disconnect(h hub.Handle) {
	rec, ok := s.registry.Unregister(h)
	if !ok {
		return
	}
	s.logger.Debug("session disconnected", "handle", h.String(), "username", rec.Username)

	if rec.Identified() && rec.InRoom() {
		s.rooms.Broadcast(rec.RoomID, wire.NewUserLeft(rec.Username), h)
	}
}

// Reject sends an error event to a single session.
func (s *Service) Reject(h hub.Handle, message string) {
	if err := s.rooms.Send(h, wire.NewError(message)); err != nil {
		s.logger.Warn("failed to send error to session",
			"error", err,
			"handle", h.String())
	}
}

// Dispatch handles one decoded client message.
func (s *Service) Dispatch(ctx context.Context, h hub.Handle, msg wire.Inbound) {
	switch m := msg.(type) {
	case wire.Join:
		s.join(h, m)
	case wire.JoinRoom:
		s.joinRoom(ctx, h, m)
	case wire.SendMessage:
		s.sendMessage(ctx, h, m)
	case wire.TypingStart:
		s.typing(h, true)
	case wire.TypingStop:
		s.typing(h, false)
	default:
		s.Reject(h, "Unknown message type")
	}
}

func (s *Service) join(h hub.Handle, m wire.Join) {
	if err := s.registry.Identify(h, m.UserID, m.Username); err != nil {
		s.logger.Warn("failed to identify session", "error", err, "handle", h.String())
		s.Reject(h, msgInvalidSession)
		return
	}

	s.send(h, wire.NewJoined(m.UserID, m.Username))
	s.send(h, wire.NewOnlineUsers(s.registry.OnlineUsers()))
}

func (s *Service) joinRoom(ctx context.Context, h hub.Handle, m wire.JoinRoom) {
	if _, err := s.store.GetRoom(ctx, m.RoomID); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.ErrorContext(ctx, "failed to look up room", "error", err, "room_id", m.RoomID)
		}
		s.Reject(h, msgRoomNotFound)
		return
	}

	if err := s.registry.SetRoom(h, m.RoomID); err != nil {
		s.logger.WarnContext(ctx, "failed to bind session to room", "error", err, "handle", h.String())
		return
	}

	history, err := s.store.GetMessagesByRoom(ctx, m.RoomID, s.historyLimit)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load room history", "error", err, "room_id", m.RoomID)
		s.Reject(h, msgHistoryFailed)
	} else {
		s.send(h, wire.NewRoomMessages(m.RoomID, history))
	}

	if rec, ok := s.registry.Lookup(h); ok && rec.Identified() {
		s.rooms.Broadcast(m.RoomID, wire.NewUserJoinedRoom(rec.Username), h)
	}
}

func (s *Service) sendMessage(ctx context.Context, h hub.Handle, m wire.SendMessage) {
	_, err := s.Submit(ctx, h, m.Content)
	switch {
	case err == nil:
	case errors.Is(err, ErrNotBound):
		s.Reject(h, msgNotBound)
	case errors.Is(err, ErrEmptyContent):
		s.Reject(h, msgEmptyContent)
	default:
		s.Reject(h, msgSendFailed)
	}
}

func (s *Service) typing(h hub.Handle, start bool) {
	rec, ok := s.registry.Lookup(h)
	if !ok || !rec.Identified() || !rec.InRoom() {
		return
	}

	var ev wire.Event = wire.NewTypingStop(rec.Username)
	if start {
		ev = wire.NewTypingStart(rec.Username)
	}
	s.rooms.Broadcast(rec.RoomID, ev, h)
}

func (s *Service) send(h hub.Handle, ev wire.Event) {
	if err := s.rooms.Send(h, ev); err != nil {
		s.logger.Warn("failed to send event to session",
			"error", err,
			"event_type", ev.EventType(),
			"handle", h.String())
	}
}

// OnlineCount returns the number of live sessions.
func (s *Service) OnlineCount() int {
	return s.registry.Len()
}
