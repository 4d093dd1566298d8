package handler

import "net/http"

type counter interface {
	OnlineCount() int
}

// ServeHealth reports liveness and the number of connected sessions.
func ServeHealth(c counter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":      "ok",
			"connections": c.OnlineCount(),
		})
	}
}
