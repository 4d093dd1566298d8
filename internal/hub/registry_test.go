package hub

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johndosdos/chatroom/internal/wire"
)

func TestRegistryIdentify(t *testing.T) {
	r := NewRegistry()
	h := r.Register(&fakeSender{})

	rec, ok := r.Lookup(h)
	require.True(t, ok)
	assert.False(t, rec.Identified())
	assert.False(t, rec.InRoom())

	require.NoError(t, r.Identify(h, 1, "alice"))
	require.NoError(t, r.Identify(h, 2, "bob"))

	rec, _ = r.Lookup(h)
	assert.Equal(t, Record{UserID: 2, Username: "bob"}, rec)

	t.Run("half_identity", func(t *testing.T) {
		assert.ErrorIs(t, r.Identify(h, 3, ""), ErrInvalidIdentity)
		assert.ErrorIs(t, r.Identify(h, 0, "carol"), ErrInvalidIdentity)

		rec, _ := r.Lookup(h)
		assert.Equal(t, "bob", rec.Username)
	})

	t.Run("unknown_handle", func(t *testing.T) {
		assert.ErrorIs(t, r.Identify(None, 1, "x"), ErrUnknownHandle)
		assert.ErrorIs(t, r.SetRoom(None, 1), ErrUnknownHandle)
	})
}

func TestRegistrySetRoom(t *testing.T) {
	r := NewRegistry()
	a := r.Register(&fakeSender{})
	b := r.Register(&fakeSender{})

	require.NoError(t, r.SetRoom(a, 1))
	require.NoError(t, r.SetRoom(b, 1))
	assert.ElementsMatch(t, []Handle{a, b}, r.Snapshot(1))

	// A session is in at most one room.
	require.NoError(t, r.SetRoom(a, 2))
	assert.Equal(t, []Handle{b}, r.Snapshot(1))
	assert.Equal(t, []Handle{a}, r.Snapshot(2))
	assert.ElementsMatch(t, []Handle{a, b}, r.All())

	assert.ErrorIs(t, r.SetRoom(a, 0), ErrInvalidRoom)
}

func TestRegistryUnregister(t *testing.T) {
	r := NewRegistry()
	sender := &fakeSender{}
	h := r.Register(sender)
	require.NoError(t, r.Identify(h, 4, "dave"))
	require.NoError(t, r.SetRoom(h, 3))

	rec, ok := r.Unregister(h)
	require.True(t, ok)
	assert.Equal(t, Record{UserID: 4, Username: "dave", RoomID: 3}, rec)
	assert.True(t, sender.closed)
	assert.Empty(t, r.Snapshot(3))
	assert.Zero(t, r.Len())

	_, ok = r.Unregister(h)
	assert.False(t, ok)
}

// Broadcasting while sessions disconnect must never enqueue on a closed sender.
func TestRegistryConcurrentUnregisterAndBroadcast(t *testing.T) {
	r := NewRegistry()
	b := NewBroadcaster(r, nil)

	handles := make([]Handle, 200)
	for i := range handles {
		handles[i] = r.Register(&fakeSender{})
		if err := r.SetRoom(handles[i], 1); err != nil {
			t.Fatalf("SetRoom() error = %+v", err)
		}
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for _, h := range handles {
			r.Unregister(h)
		}
	}()
	go func() {
		defer wg.Done()
		for range 500 {
			b.Broadcast(1, wire.NewTypingStart("x"), None)
		}
	}()
	wg.Wait()

	assert.Empty(t, r.Snapshot(1))
	err := b.Send(handles[0], wire.NewError("gone"))
	assert.True(t, errors.Is(err, ErrUnknownHandle))
}
