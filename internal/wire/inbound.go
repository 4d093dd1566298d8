// Package wire defines the JSON messages exchanged with websocket clients.
package wire

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var (
	ErrMalformed   = errors.New("wire: malformed message")
	ErrUnknownType = errors.New("wire: unknown message type")
)

var validate = validator.New()

// Inbound is a decoded client message. The set of implementations is closed.
type Inbound interface {
	inbound()
}

// Join identifies the session.
type Join struct {
	UserID   int64  `json:"userId" validate:"required,gt=0"`
	Username string `json:"username" validate:"required,max=64"`
}

// JoinRoom binds the session to a room.
type JoinRoom struct {
	RoomID int64 `json:"roomId" validate:"required,gt=0"`
}

// SendMessage submits a chat message. Any identity fields in the payload are
// ignored.
type SendMessage struct {
	Content string `json:"content"`
}

type TypingStart struct{}

type TypingStop struct{}

func (Join) inbound()        {}
func (JoinRoom) inbound()    {}
func (SendMessage) inbound() {}
func (TypingStart) inbound() {}
func (TypingStop) inbound()  {}

type envelope struct {
	Type string `json:"type"`
}

// Decode parses one client frame into its Inbound variant.
func Decode(data []byte) (Inbound, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var msg Inbound
	switch env.Type {
	case TypeJoin:
		msg = &Join{}
	case TypeJoinRoom:
		msg = &JoinRoom{}
	case TypeSendMessage:
		msg = &SendMessage{}
	case TypeTypingStart:
		return TypingStart{}, nil
	case TypeTypingStop:
		return TypingStop{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}

	if err := json.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := validate.Struct(msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch m := msg.(type) {
	case *Join:
		return *m, nil
	case *JoinRoom:
		return *m, nil
	case *SendMessage:
		return *m, nil
	}
	return msg, nil
}

// ErrorText returns the client-facing text for a Decode error.
func ErrorText(err error) string {
	if errors.Is(err, ErrUnknownType) {
		return "Unknown message type"
	}
	return "Invalid message format"
}
