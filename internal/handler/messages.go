package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/johndosdos/chatroom/internal/model"
	"github.com/johndosdos/chatroom/internal/store"
)

type historyService interface {
	History(ctx context.Context, roomID int64, limit int) ([]model.MessageWithUser, error)
}

// ServeMessages returns the recent history of a room, oldest first. An
// optional ?limit= narrows it further.
func ServeMessages(svc historyService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		roomID, err := strconv.ParseInt(chi.URLParam(r, "roomID"), 10, 64)
		if err != nil || roomID <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid room id")
			return
		}

		limit := 0
		if s := r.URL.Query().Get("limit"); s != "" {
			if limit, err = strconv.Atoi(s); err != nil {
				writeError(w, http.StatusBadRequest, "Invalid limit")
				return
			}
		}

		msgs, err := svc.History(ctx, roomID, limit)
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "Room not found")
			return
		case err != nil:
			if ctx.Err() != nil {
				return
			}
			logger.ErrorContext(ctx, "failed to load messages", "error", err, "room_id", roomID)
			writeError(w, http.StatusInternalServerError, "Failed to fetch messages")
			return
		}

		writeJSON(w, http.StatusOK, msgs)
	}
}
