package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/johndosdos/chatroom/internal"
	"github.com/johndosdos/chatroom/internal/chat"
	ratelimiter "github.com/johndosdos/chatroom/internal/rate_limiter"
	ws "github.com/johndosdos/chatroom/internal/websocket"
)

type Deps struct {
	Chat      *chat.Service
	Users     userStore
	Limiter   *ratelimiter.IPRateLimiter
	WSOptions ws.Options
	Logger    *slog.Logger
}

// NewRouter wires every route. The rate limiter only guards the JSON API.
func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(internal.Middleware(logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", ServeHealth(d.Chat))
	r.Get("/ws", ServeWs(d.Chat, d.WSOptions, logger))

	r.Route("/api", func(r chi.Router) {
		if d.Limiter != nil {
			r.Use(d.Limiter.Middleware)
		}
		r.Use(middleware.Timeout(15 * time.Second))

		r.Post("/users", SubmitSignup(d.Users, logger))
		r.Post("/auth/login", SubmitLogin(d.Users, logger))

		r.Get("/rooms", ServeRooms(d.Chat, logger))
		r.Post("/rooms", SubmitRoom(d.Chat, logger))
		r.Get("/rooms/{roomID}/messages", ServeMessages(d.Chat, logger))
	})

	return r
}
