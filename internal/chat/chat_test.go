package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/johndosdos/chatroom/internal/bot"
	"github.com/johndosdos/chatroom/internal/hub"
	"github.com/johndosdos/chatroom/internal/model"
	"github.com/johndosdos/chatroom/internal/store"
)

var errDown = errors.New("database down")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type frame struct {
	Type     string                  `json:"type"`
	Username string                  `json:"username"`
	Message  json.RawMessage         `json:"message"`
	Messages []model.MessageWithUser `json:"messages"`
	Room     model.Room              `json:"room"`
	Users    []model.PublicUser      `json:"users"`
}

type fakeSender struct {
	mu     sync.Mutex
	frames []frame
	closed bool
}

func (f *fakeSender) Enqueue(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		panic("enqueue after close")
	}
	var fr frame
	if err := json.Unmarshal(data, &fr); err != nil {
		return err
	}
	f.frames = append(f.frames, fr)
	return nil
}

func (f *fakeSender) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeSender) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := []string{}
	for _, fr := range f.frames {
		out = append(out, fr.Type)
	}
	return out
}

func (f *fakeSender) last() frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frames[len(f.frames)-1]
}

func (f *fakeSender) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = nil
}

func (f *fakeSender) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type recordingScheduler struct {
	mu       sync.Mutex
	triggers []bot.Trigger
}

func (r *recordingScheduler) Schedule(t bot.Trigger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.triggers = append(r.triggers, t)
}

type recordingSink struct {
	mu   sync.Mutex
	msgs []model.MessageWithUser
}

func (r *recordingSink) Publish(_ context.Context, msg model.MessageWithUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return nil
}

type brokenStore struct {
	*store.Memory
}

func (brokenStore) CreateMessage(context.Context, model.NewMessage) (model.MessageWithUser, error) {
	return model.MessageWithUser{}, errDown
}

type fixture struct {
	store    *store.Memory
	registry *hub.Registry
	rooms    *hub.Broadcaster
	bots     *recordingScheduler
	sink     *recordingSink
	svc      *Service
	general  model.Room
	random   model.Room
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:    store.NewMemory(),
		registry: hub.NewRegistry(),
		bots:     &recordingScheduler{},
		sink:     &recordingSink{},
	}
	f.rooms = hub.NewBroadcaster(f.registry, discardLogger())
	f.svc = NewService(f.registry, f.rooms, f.store, f.bots, Options{
		Sink:   f.sink,
		Logger: discardLogger(),
	})

	var err error
	f.general, err = f.store.CreateRoom(context.Background(), model.NewRoom{Name: "general"})
	require.NoError(t, err)
	f.random, err = f.store.CreateRoom(context.Background(), model.NewRoom{Name: "random"})
	require.NoError(t, err)
	return f
}

// member creates a user, connects it and binds it to roomID.
func (f *fixture) member(t *testing.T, username string, roomID int64) (hub.Handle, *fakeSender) {
	t.Helper()
	ctx := context.Background()

	u, err := f.store.CreateUser(ctx, model.NewUser{Username: username, PasswordHash: "x"})
	require.NoError(t, err)

	s := &fakeSender{}
	h := f.svc.Connect(s)
	require.NoError(t, f.registry.Identify(h, u.ID, u.Username))
	if roomID != 0 {
		require.NoError(t, f.registry.SetRoom(h, roomID))
	}
	return h, s
}
