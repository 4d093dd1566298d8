package handler

import (
	"log/slog"
	"net/http"

	"github.com/coder/websocket"

	ws "github.com/johndosdos/chatroom/internal/websocket"
)

// ServeWs upgrades the connection and runs the session until it ends.
func ServeWs(d ws.Dispatcher, opts ws.Options, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.WarnContext(r.Context(), "websocket upgrade failed", "error", err)
			return
		}

		// We block here because the request context is canceled as soon as
		// ServeWs returns.
		ws.Serve(r.Context(), conn, d, opts)
	}
}
