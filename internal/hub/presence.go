package hub

import (
	"github.com/samber/lo"

	"github.com/johndosdos/chatroom/internal/model"
)

// OnlineUsers returns one entry per identified session. Two sessions of the
// same user produce two entries.
func (r *Registry) OnlineUsers() []model.PublicUser {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.FilterMap(lo.Values(r.sessions), func(s *session, _ int) (model.PublicUser, bool) {
		if !s.Identified() {
			return model.PublicUser{}, false
		}
		return model.PublicUser{ID: s.UserID, Username: s.Username}, true
	})
}
