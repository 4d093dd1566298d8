package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johndosdos/chatroom/internal/hub"
	"github.com/johndosdos/chatroom/internal/model"
	"github.com/johndosdos/chatroom/internal/store"
	"github.com/johndosdos/chatroom/internal/wire"
)

type sent struct {
	roomID int64
	event  wire.Event
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []sent
}

func (r *recordingBroadcaster) Broadcast(roomID int64, ev wire.Event, _ hub.Handle) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, sent{roomID: roomID, event: ev})
	return 1
}

func (r *recordingBroadcaster) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []string
	for _, e := range r.events {
		out = append(out, e.event.EventType())
	}
	return out
}

// failingStore fails CreateMessage for the first failures calls.
type failingStore struct {
	*store.Memory
	mu       sync.Mutex
	failures int
}

func (f *failingStore) CreateMessage(ctx context.Context, msg model.NewMessage) (model.MessageWithUser, error) {
	f.mu.Lock()
	fail := f.failures > 0
	if fail {
		f.failures--
	}
	f.mu.Unlock()

	if fail {
		return model.MessageWithUser{}, errors.New("disk on fire")
	}
	return f.Memory.CreateMessage(ctx, msg)
}

type recordingSink struct {
	mu   sync.Mutex
	msgs []model.MessageWithUser
}

func (s *recordingSink) Publish(_ context.Context, msg model.MessageWithUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
	return nil
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func setup(t *testing.T, withBot bool) (*store.Memory, model.Room, model.User) {
	t.Helper()

	ctx := context.Background()
	mem := store.NewMemory()
	room, err := mem.CreateRoom(ctx, model.NewRoom{Name: "general"})
	require.NoError(t, err)

	var botUser model.User
	if withBot {
		botUser, err = EnsureIdentity(ctx, mem)
		require.NoError(t, err)
	}
	return mem, room, botUser
}

func TestRunCommand(t *testing.T) {
	mem, room, botUser := setup(t, true)
	rb := &recordingBroadcaster{}
	sink := &recordingSink{}

	provider := ProviderFunc(func(context.Context, CompletionRequest) (string, error) {
		t.Fatal("commands must not reach the provider")
		return "", nil
	})
	o := NewOrchestrator(mem, rb, WithProvider(provider), WithSink(sink), WithLogger(discard))

	res := o.Run(context.Background(), Trigger{Content: "/joke", RoomID: room.ID})

	assert.Equal(t, []State{Idle, TypingStarted, Composing, TypingStopped, Delivered, Done}, res.Path)
	assert.Equal(t, []string{wire.TypeTypingStart, wire.TypeTypingStop, wire.TypeNewMessage}, rb.types())

	start := rb.events[0].event.(wire.UserPresence)
	assert.Equal(t, Username, start.Username)

	for _, e := range rb.events {
		assert.Equal(t, room.ID, e.roomID)
	}

	msg := rb.events[2].event.(wire.NewMessage).Message
	assert.Equal(t, jokeText, msg.Content)
	assert.True(t, msg.IsBot)
	require.NotNil(t, msg.UserID)
	assert.Equal(t, botUser.ID, *msg.UserID)
	assert.Len(t, sink.msgs, 1)
}

func TestRunGenerated(t *testing.T) {
	mem, room, _ := setup(t, true)
	rb := &recordingBroadcaster{}

	var got CompletionRequest
	provider := ProviderFunc(func(_ context.Context, req CompletionRequest) (string, error) {
		got = req
		return "Paris!", nil
	})
	o := NewOrchestrator(mem, rb, WithProvider(provider), WithMaxTokens(64), WithLogger(discard))

	res := o.Run(context.Background(), Trigger{Content: "@AI what is the capital of France?", RoomID: room.ID})

	require.NotNil(t, res.Message)
	assert.Equal(t, "Paris!", res.Message.Content)
	assert.Equal(t, "what is the capital of France?", got.Prompt)
	assert.Equal(t, systemInstruction, got.System)
	assert.Equal(t, int64(64), got.MaxTokens)
}

func TestRunEmptyGeneratedReply(t *testing.T) {
	mem, room, _ := setup(t, true)
	provider := ProviderFunc(func(context.Context, CompletionRequest) (string, error) { return "", nil })
	o := NewOrchestrator(mem, &recordingBroadcaster{}, WithProvider(provider), WithLogger(discard))

	res := o.Run(context.Background(), Trigger{Content: "@AI hi", RoomID: room.ID})

	require.NotNil(t, res.Message)
	assert.Equal(t, emptyReplyText, res.Message.Content)
}

func TestRunProviderFailure(t *testing.T) {
	tests := []struct {
		name     string
		provider Provider
	}{
		{"provider_error", ProviderFunc(func(context.Context, CompletionRequest) (string, error) {
			return "", errors.New("quota exceeded")
		})},
		{"no_provider", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem, room, _ := setup(t, true)
			rb := &recordingBroadcaster{}
			o := NewOrchestrator(mem, rb, WithProvider(tt.provider), WithLogger(discard))

			res := o.Run(context.Background(), Trigger{Content: "@AI tell me something", RoomID: room.ID})

			assert.Equal(t, []State{Idle, TypingStarted, Composing, TypingStopped, Fallback, Delivered, Done}, res.Path)
			assert.Equal(t, []string{wire.TypeTypingStart, wire.TypeTypingStop, wire.TypeNewMessage}, rb.types())
			require.NotNil(t, res.Message)
			assert.Equal(t, FallbackText, res.Message.Content)
			assert.True(t, res.Message.IsBot)

			history, _ := mem.GetMessagesByRoom(context.Background(), room.ID, 50)
			assert.Len(t, history, 1)
		})
	}
}

func TestRunReplyPersistFailure(t *testing.T) {
	mem, room, _ := setup(t, true)
	fs := &failingStore{Memory: mem, failures: 1}
	rb := &recordingBroadcaster{}
	o := NewOrchestrator(fs, rb, WithLogger(discard))

	res := o.Run(context.Background(), Trigger{Content: "/help", RoomID: room.ID})

	assert.Contains(t, res.Path, Fallback)
	require.NotNil(t, res.Message)
	assert.Equal(t, FallbackText, res.Message.Content)
	assert.Equal(t, []string{wire.TypeTypingStart, wire.TypeTypingStop, wire.TypeNewMessage}, rb.types())
}

func TestRunFallbackPersistFailure(t *testing.T) {
	mem, room, _ := setup(t, true)
	fs := &failingStore{Memory: mem, failures: 2}
	rb := &recordingBroadcaster{}
	o := NewOrchestrator(fs, rb, WithLogger(discard))

	res := o.Run(context.Background(), Trigger{Content: "@AI hello", RoomID: room.ID})

	assert.Equal(t, []State{Idle, TypingStarted, Composing, TypingStopped, Fallback, Done}, res.Path)
	assert.Nil(t, res.Message)
	assert.Equal(t, []string{wire.TypeTypingStart, wire.TypeTypingStop}, rb.types())
}

func TestRunWithoutBotUser(t *testing.T) {
	mem, room, _ := setup(t, false)
	rb := &recordingBroadcaster{}
	o := NewOrchestrator(mem, rb, WithLogger(discard))

	res := o.Run(context.Background(), Trigger{Content: "/joke", RoomID: room.ID})

	assert.Equal(t, []State{Idle, Done}, res.Path)
	assert.Empty(t, rb.types())
}

func TestScheduleRunsConcurrently(t *testing.T) {
	mem, room, _ := setup(t, true)
	rb := &recordingBroadcaster{}

	release := make(chan struct{})
	var inFlight sync.WaitGroup
	inFlight.Add(3)
	provider := ProviderFunc(func(context.Context, CompletionRequest) (string, error) {
		inFlight.Done()
		<-release
		return "ok", nil
	})
	o := NewOrchestrator(mem, rb, WithProvider(provider), WithReplyDelay(time.Millisecond), WithLogger(discard))

	for range 3 {
		o.Schedule(Trigger{Content: "@AI go", RoomID: room.ID})
	}

	// All three tasks reach the provider before any of them finishes.
	inFlight.Wait()
	close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, o.Wait(ctx))

	history, _ := mem.GetMessagesByRoom(context.Background(), room.ID, 50)
	assert.Len(t, history, 3)
	assert.Len(t, rb.types(), 9)
}

func TestIsTrigger(t *testing.T) {
	tests := []struct {
		content string
		want    bool
	}{
		{"hello", false},
		{"@AI hi", true},
		{"hey @AI what's up", true},
		{"/joke", true},
		{"/unknown", true},
		{" /joke", false},
		{"@ai lowercase", false},
		{"path a/b", false},
	}

	for _, tt := range tests {
		t.Run(tt.content, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTrigger(tt.content))
		})
	}
}

func TestEnsureIdentity(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	first, err := EnsureIdentity(ctx, mem)
	require.NoError(t, err)
	assert.Equal(t, Username, first.Username)

	second, err := EnsureIdentity(ctx, mem)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}
