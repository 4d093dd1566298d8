package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/johndosdos/chatroom/internal/hub"
	"github.com/johndosdos/chatroom/internal/model"
	"github.com/johndosdos/chatroom/internal/wire"
)

// Defaults for Orchestrator options.
const (
	DefaultReplyDelay = time.Second
	DefaultMaxTokens  = 200
)

// State is a step of a reply task.
type State int

const (
	Idle State = iota
	TypingStarted
	Composing
	TypingStopped
	Fallback
	Delivered
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case TypingStarted:
		return "typing_started"
	case Composing:
		return "composing"
	case TypingStopped:
		return "typing_stopped"
	case Fallback:
		return "fallback"
	case Delivered:
		return "delivered"
	case Done:
		return "done"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Trigger is a message that asked for a bot reply.
type Trigger struct {
	Content string
	RoomID  int64
}

// Result describes a finished task.
type Result struct {
	Path    []State
	Message *model.MessageWithUser
}

// Store is the persistence the orchestrator needs.
type Store interface {
	GetUserByUsername(ctx context.Context, username string) (model.User, error)
	CreateMessage(ctx context.Context, msg model.NewMessage) (model.MessageWithUser, error)
}

// Broadcaster fans events out to a room.
type Broadcaster interface {
	Broadcast(roomID int64, ev wire.Event, exclude hub.Handle) int
}

// MessageSink receives every persisted bot message.
type MessageSink interface {
	Publish(ctx context.Context, msg model.MessageWithUser) error
}

// Orchestrator runs one independent reply task per trigger. Tasks are not
// capped, queued or serialized per room, and nothing cancels them once
// scheduled.
type Orchestrator struct {
	store     Store
	rooms     Broadcaster
	provider  Provider
	sink      MessageSink
	logger    *slog.Logger
	delay     time.Duration
	maxTokens int64

	wg sync.WaitGroup
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithProvider sets the generative provider. Without one every generated
// reply takes the fallback path.
func WithProvider(p Provider) Option {
	return func(o *Orchestrator) { o.provider = p }
}

// WithReplyDelay sets how long a task waits before it starts.
func WithReplyDelay(d time.Duration) Option {
	return func(o *Orchestrator) { o.delay = d }
}

// WithMaxTokens bounds the generated reply length.
func WithMaxTokens(n int64) Option {
	return func(o *Orchestrator) { o.maxTokens = n }
}

// WithSink publishes persisted bot messages to sink.
func WithSink(sink MessageSink) Option {
	return func(o *Orchestrator) { o.sink = sink }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// NewOrchestrator returns an Orchestrator.
func NewOrchestrator(s Store, rooms Broadcaster, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:     s,
		rooms:     rooms,
		logger:    slog.Default(),
		delay:     DefaultReplyDelay,
		maxTokens: DefaultMaxTokens,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Schedule starts a detached reply task for t after the reply delay. It
// returns immediately.
func (o *Orchestrator) Schedule(t Trigger) {
	o.wg.Add(1)
	time.AfterFunc(o.delay, func() {
		defer o.wg.Done()
		o.Run(context.Background(), t)
	})
}

// Wait blocks until every scheduled task has finished or ctx is done.
func (o *Orchestrator) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type task struct {
	Trigger
	logger *slog.Logger
	path   []State
}

func (t *task) advance(s State) {
	t.path = append(t.path, s)
	t.logger.Debug("bot task state", "state", s.String())
}

// Run executes one reply task synchronously.
func (o *Orchestrator) Run(ctx context.Context, trig Trigger) Result {
	t := &task{
		Trigger: trig,
		logger:  o.logger.With("room_id", trig.RoomID),
		path:    []State{Idle},
	}

	botUser, err := o.store.GetUserByUsername(ctx, Username)
	if err != nil {
		t.logger.WarnContext(ctx, "bot user not available; dropping trigger", "error", err)
		t.advance(Done)
		return Result{Path: t.path}
	}

	o.rooms.Broadcast(t.RoomID, wire.NewTypingStart(botUser.Username), hub.None)
	t.advance(TypingStarted)

	t.advance(Composing)
	reply, composeErr := o.compose(ctx, t.Content)

	o.rooms.Broadcast(t.RoomID, wire.NewTypingStop(botUser.Username), hub.None)
	t.advance(TypingStopped)

	if composeErr == nil {
		msg, err := o.deliver(ctx, botUser, t.RoomID, reply)
		if err == nil {
			t.advance(Delivered)
			t.advance(Done)
			return Result{Path: t.path, Message: &msg}
		}
		composeErr = err
	}

	t.logger.ErrorContext(ctx, "bot reply failed; sending fallback", "error", composeErr)
	t.advance(Fallback)

	msg, err := o.deliver(ctx, botUser, t.RoomID, FallbackText)
	if err != nil {
		t.logger.ErrorContext(ctx, "failed to send bot fallback message", "error", err)
		t.advance(Done)
		return Result{Path: t.path}
	}

	t.advance(Delivered)
	t.advance(Done)
	return Result{Path: t.path, Message: &msg}
}

func (o *Orchestrator) compose(ctx context.Context, content string) (string, error) {
	if reply, ok := cannedReply(content); ok {
		return reply, nil
	}
	if o.provider == nil {
		return "", ErrNoProvider
	}

	reply, err := o.provider.Complete(ctx, CompletionRequest{
		System:    systemInstruction,
		Prompt:    prompt(content),
		MaxTokens: o.maxTokens,
	})
	if err != nil {
		return "", err
	}
	if reply == "" {
		return emptyReplyText, nil
	}
	return reply, nil
}

var errPersistReply = errors.New("bot: failed to persist reply")

func (o *Orchestrator) deliver(ctx context.Context, botUser model.User, roomID int64, content string) (model.MessageWithUser, error) {
	msg, err := o.store.CreateMessage(ctx, model.NewMessage{
		Content: content,
		RoomID:  roomID,
		UserID:  &botUser.ID,
		IsBot:   true,
	})
	if err != nil {
		return model.MessageWithUser{}, fmt.Errorf("%w: %w", errPersistReply, err)
	}

	o.rooms.Broadcast(roomID, wire.NewNewMessage(msg), hub.None)

	if o.sink != nil {
		if err := o.sink.Publish(ctx, msg); err != nil {
			o.logger.WarnContext(ctx, "failed to publish bot message", "error", err, "message_id", msg.ID)
		}
	}
	return msg, nil
}
