package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/johndosdos/chatroom/internal/auth"
	"github.com/johndosdos/chatroom/internal/model"
)

type userStore interface {
	GetUserByUsername(ctx context.Context, username string) (model.User, error)
	CreateUser(ctx context.Context, user model.NewUser) (model.User, error)
}

type credentials struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,min=1,max=256"`
}

// SubmitSignup creates a user account.
func SubmitSignup(users userStore, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req credentials
		if err := decode(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid user data")
			return
		}
		req.Username = strings.TrimSpace(req.Username)
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid user data")
			return
		}

		user, err := auth.Register(ctx, users, req.Username, req.Password)
		switch {
		case errors.Is(err, auth.ErrUsernameTaken):
			writeError(w, http.StatusBadRequest, "Username already exists")
			return
		case err != nil:
			logger.ErrorContext(ctx, "failed to create user", "error", err)
			writeError(w, http.StatusBadRequest, "Invalid user data")
			return
		}

		writeJSON(w, http.StatusOK, user.Public())

		logger.InfoContext(ctx, "user signed up",
			slog.String("username", user.Username))
	}
}

// SubmitLogin checks a username and password.
func SubmitLogin(users userStore, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req credentials
		if err := decode(w, r, &req); err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}

		user, err := auth.Login(ctx, users, req.Username, req.Password)
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		case err != nil:
			logger.ErrorContext(ctx, "login failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Login failed")
			return
		}

		writeJSON(w, http.StatusOK, user.Public())

		logger.InfoContext(ctx, "user logged in",
			slog.String("username", user.Username))
	}
}
