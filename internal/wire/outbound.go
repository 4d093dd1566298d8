package wire

import "github.com/johndosdos/chatroom/internal/model"

// Message type tags.
const (
	TypeJoin        = "join"
	TypeJoinRoom    = "join_room"
	TypeSendMessage = "send_message"
	TypeTypingStart = "typing_start"
	TypeTypingStop  = "typing_stop"

	TypeJoined         = "joined"
	TypeOnlineUsers    = "online_users"
	TypeRoomMessages   = "room_messages"
	TypeUserJoinedRoom = "user_joined_room"
	TypeUserLeft       = "user_left"
	TypeNewMessage     = "new_message"
	TypeRoomCreated    = "room_created"
	TypeError          = "error"
)

// Event is a server-produced message.
type Event interface {
	EventType() string
}

type Joined struct {
	Type     string `json:"type"`
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
}

type OnlineUsers struct {
	Type  string             `json:"type"`
	Users []model.PublicUser `json:"users"`
}

type RoomMessages struct {
	Type     string                  `json:"type"`
	RoomID   int64                   `json:"roomId"`
	Messages []model.MessageWithUser `json:"messages"`
}

// UserPresence is used by user_joined_room, user_left, typing_start and
// typing_stop.
type UserPresence struct {
	Type     string `json:"type"`
	Username string `json:"username"`
}

type NewMessage struct {
	Type    string                `json:"type"`
	Message model.MessageWithUser `json:"message"`
}

type RoomCreated struct {
	Type string     `json:"type"`
	Room model.Room `json:"room"`
}

type Error struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (e Joined) EventType() string       { return e.Type }
func (e OnlineUsers) EventType() string  { return e.Type }
func (e RoomMessages) EventType() string { return e.Type }
func (e UserPresence) EventType() string { return e.Type }
func (e NewMessage) EventType() string   { return e.Type }
func (e RoomCreated) EventType() string  { return e.Type }
func (e Error) EventType() string        { return e.Type }

func NewJoined(userID int64, username string) Joined {
	return Joined{Type: TypeJoined, UserID: userID, Username: username}
}

func NewOnlineUsers(users []model.PublicUser) OnlineUsers {
	if users == nil {
		users = []model.PublicUser{}
	}
	return OnlineUsers{Type: TypeOnlineUsers, Users: users}
}

func NewRoomMessages(roomID int64, messages []model.MessageWithUser) RoomMessages {
	if messages == nil {
		messages = []model.MessageWithUser{}
	}
	return RoomMessages{Type: TypeRoomMessages, RoomID: roomID, Messages: messages}
}

func NewUserJoinedRoom(username string) UserPresence {
	return UserPresence{Type: TypeUserJoinedRoom, Username: username}
}

func NewUserLeft(username string) UserPresence {
	return UserPresence{Type: TypeUserLeft, Username: username}
}

func NewTypingStart(username string) UserPresence {
	return UserPresence{Type: TypeTypingStart, Username: username}
}

func NewTypingStop(username string) UserPresence {
	return UserPresence{Type: TypeTypingStop, Username: username}
}

func NewNewMessage(msg model.MessageWithUser) NewMessage {
	return NewMessage{Type: TypeNewMessage, Message: msg}
}

func NewRoomCreated(room model.Room) RoomCreated {
	return RoomCreated{Type: TypeRoomCreated, Room: room}
}

func NewError(message string) Error {
	return Error{Type: TypeError, Message: message}
}
