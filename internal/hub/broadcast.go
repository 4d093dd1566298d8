package hub

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/johndosdos/chatroom/internal/wire"
)

// Broadcaster delivers events to sessions in the registry. Delivery is
// fire-and-forget: a failing recipient is logged and skipped.
type Broadcaster struct {
	registry *Registry
	logger   *slog.Logger
}

// NewBroadcaster returns a Broadcaster over registry. A nil logger uses
// slog.Default().
func NewBroadcaster(registry *Registry, logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{registry: registry, logger: logger}
}

// Broadcast delivers ev to every session bound to roomID except exclude and
// returns the number of sessions it was queued for.
func (b *Broadcaster) Broadcast(roomID int64, ev wire.Event, exclude Handle) int {
	if roomID <= 0 {
		return 0
	}
	return b.fanOut(roomID, ev, exclude)
}

// BroadcastAll delivers ev to every session except exclude.
func (b *Broadcaster) BroadcastAll(ev wire.Event, exclude Handle) int {
	return b.fanOut(0, ev, exclude)
}

// Send delivers ev to a single session.
func (b *Broadcaster) Send(h Handle, ev wire.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("hub: failed to encode %s event: %w", ev.EventType(), err)
	}

	b.registry.mu.RLock()
	defer b.registry.mu.RUnlock()

	s, ok := b.registry.sessions[h]
	if !ok {
		return ErrUnknownHandle
	}
	return s.sender.Enqueue(data)
}

func (b *Broadcaster) fanOut(roomID int64, ev wire.Event, exclude Handle) int {
	data, err := json.Marshal(ev)
	if err != nil {
		b.logger.Error("failed to encode event",
			"error", err,
			"event_type", ev.EventType())
		return 0
	}

	delivered := 0
	b.registry.each(roomID, func(h Handle, s *session) {
		if h == exclude {
			return
		}
		if err := s.sender.Enqueue(data); err != nil {
			b.logger.Warn("skipping event for session",
				"error", err,
				"event_type", ev.EventType(),
				"handle", h.String(),
				"room_id", roomID)
			return
		}
		delivered++
	})

	return delivered
}
