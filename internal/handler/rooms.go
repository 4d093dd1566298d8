package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/johndosdos/chatroom/internal/model"
	"github.com/johndosdos/chatroom/internal/store"
)

type roomService interface {
	Rooms(ctx context.Context) ([]model.Room, error)
	CreateRoom(ctx context.Context, room model.NewRoom) (model.Room, error)
}

func ServeRooms(svc roomService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rooms, err := svc.Rooms(r.Context())
		if err != nil {
			logger.ErrorContext(r.Context(), "failed to list rooms", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to fetch rooms")
			return
		}
		writeJSON(w, http.StatusOK, rooms)
	}
}

// SubmitRoom creates a room and announces it to connected sessions.
func SubmitRoom(svc roomService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req model.NewRoom
		if err := decode(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid room data")
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid room data")
			return
		}

		room, err := svc.CreateRoom(ctx, req)
		switch {
		case errors.Is(err, store.ErrRoomExists):
			writeError(w, http.StatusBadRequest, "Room already exists")
			return
		case err != nil:
			logger.ErrorContext(ctx, "failed to create room", "error", err, "name", req.Name)
			writeError(w, http.StatusBadRequest, "Invalid room data")
			return
		}

		logger.InfoContext(ctx, "room created", "room_id", room.ID, "name", room.Name)
		writeJSON(w, http.StatusOK, room)
	}
}
