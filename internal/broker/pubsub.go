// Package broker publishes persisted chat messages to NATS JetStream.
package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/johndosdos/chatroom/internal/model"
)

var ErrNoJetStream = errors.New("broker: jetstream is nil")

type publisher interface {
	Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// Publisher sends messages to their room subject. It satisfies the message
// sink of both the chat service and the bot orchestrator.
type Publisher struct {
	js     publisher
	logger *slog.Logger
}

func NewPublisher(js jetstream.JetStream, logger *slog.Logger) (*Publisher, error) {
	if js == nil {
		return nil, ErrNoJetStream
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{js: js, logger: logger}, nil
}

// EnsureStream creates or updates the message stream.
func EnsureStream(ctx context.Context, js jetstream.JetStream) (jetstream.Stream, error) {
	if js == nil {
		return nil, ErrNoJetStream
	}

	stream, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     StreamName,
		Subjects: []string{SubjectAllRooms},
		MaxBytes: 1 << 30, // 1GB max storage
	})
	if err != nil {
		return nil, fmt.Errorf("broker: create or update stream [%s]: %w", StreamName, err)
	}
	return stream, nil
}

func (p *Publisher) Publish(ctx context.Context, msg model.MessageWithUser) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("broker: encode message %d: %w", msg.ID, err)
	}

	subject := RoomSubject(msg.RoomID)
	ack, err := p.js.Publish(ctx, subject, data, jetstream.WithMsgID(uuid.NewString()))
	if err != nil {
		return fmt.Errorf("broker: publish to [%s]: %w", subject, err)
	}

	p.logger.DebugContext(ctx, "message published",
		"subject", subject,
		"message_id", msg.ID,
		"sequence", ack.Sequence)
	return nil
}
