// Package hub tracks live sessions and fans events out to them.
package hub

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrUnknownHandle   = errors.New("hub: unknown handle")
	ErrInvalidIdentity = errors.New("hub: user id and username must both be set")
	ErrInvalidRoom     = errors.New("hub: invalid room id")
)

// Handle identifies one live transport session.
type Handle uuid.UUID

// None is the zero Handle. Passing it as an exclude argument excludes nobody.
var None Handle

func (h Handle) String() string { return uuid.UUID(h).String() }

// Sender is the outbound side of a session. Enqueue must not block. The
// registry calls Close exactly once, when the session is unregistered, and
// never calls Enqueue afterwards.
type Sender interface {
	Enqueue(data []byte) error
	Close()
}

// Record is the identity and room binding of a session. Zero values mean unset.
type Record struct {
	UserID   int64
	Username string
	RoomID   int64
}

// Identified reports whether both identity fields are set.
func (r Record) Identified() bool { return r.UserID != 0 && r.Username != "" }

// InRoom reports whether the session is bound to a room.
func (r Record) InRoom() bool { return r.RoomID != 0 }

type session struct {
	Record
	sender Sender
}

// Registry owns every live session. All mutations and fan-out iterations go
// through mu.
type Registry struct {
	mu       sync.RWMutex
	sessions map[Handle]*session
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[Handle]*session)}
}

// Register creates an empty record for a new session.
func (r *Registry) Register(sender Sender) Handle {
	h := Handle(uuid.New())

	r.mu.Lock()
	r.sessions[h] = &session{sender: sender}
	r.mu.Unlock()

	return h
}

// Identify sets the session identity. A later call overwrites an earlier one.
func (r *Registry) Identify(h Handle, userID int64, username string) error {
	if userID <= 0 || username == "" {
		return ErrInvalidIdentity
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[h]
	if !ok {
		return ErrUnknownHandle
	}
	s.UserID = userID
	s.Username = username
	return nil
}

// SetRoom binds the session to roomID, replacing any previous binding.
func (r *Registry) SetRoom(h Handle, roomID int64) error {
	if roomID <= 0 {
		return ErrInvalidRoom
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[h]
	if !ok {
		return ErrUnknownHandle
	}
	s.RoomID = roomID
	return nil
}

// Unregister removes the session and closes its sender. It returns the
// record as it was at removal time.
func (r *Registry) Unregister(h Handle) (Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[h]
	if !ok {
		return Record{}, false
	}
	delete(r.sessions, h)
	s.sender.Close()

	return s.Record, true
}

// Lookup returns a copy of the session record.
func (r *Registry) Lookup(h Handle) (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[h]
	if !ok {
		return Record{}, false
	}
	return s.Record, true
}

// Snapshot returns the handles currently bound to roomID.
func (r *Registry) Snapshot(roomID int64) []Handle {
	var handles []Handle
	r.each(roomID, func(h Handle, _ *session) {
		handles = append(handles, h)
	})
	return handles
}

// All returns every live handle.
func (r *Registry) All() []Handle {
	return r.Snapshot(0)
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// each calls fn for every session bound to roomID, or every session when
// roomID is 0, while holding the read lock.
func (r *Registry) each(roomID int64, fn func(Handle, *session)) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for h, s := range r.sessions {
		if roomID != 0 && s.RoomID != roomID {
			continue
		}
		fn(h, s)
	}
}
