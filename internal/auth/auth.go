// Package auth handles account passwords.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"

	"github.com/johndosdos/chatroom/internal/model"
	"github.com/johndosdos/chatroom/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid username or password")
	ErrUsernameTaken      = errors.New("auth: username already taken")
)

func HashPassword(password string) (string, error) {
	hashedPw, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return "", fmt.Errorf("internal/auth: pw hash failed: %w", err)
	}

	return hashedPw, nil
}

func CheckPasswordHash(password, hash string) (bool, error) {
	isMatch, err := argon2id.ComparePasswordAndHash(password, hash)
	if err != nil {
		return false, fmt.Errorf("internal/auth: pw and hash comparison failed: %w", err)
	}

	return isMatch, nil
}

type userStore interface {
	GetUserByUsername(ctx context.Context, username string) (model.User, error)
	CreateUser(ctx context.Context, user model.NewUser) (model.User, error)
}

// Register creates an account with a hashed password.
func Register(ctx context.Context, users userStore, username, password string) (model.User, error) {
	username = strings.TrimSpace(username)

	hashedPw, err := HashPassword(password)
	if err != nil {
		return model.User{}, err
	}

	user, err := users.CreateUser(ctx, model.NewUser{Username: username, PasswordHash: hashedPw})
	if err != nil {
		if errors.Is(err, store.ErrUsernameTaken) {
			return model.User{}, ErrUsernameTaken
		}
		return model.User{}, fmt.Errorf("internal/auth: create user %q: %w", username, err)
	}
	return user, nil
}

// Login returns the account matching username and password. Unknown users and
// wrong passwords both give ErrInvalidCredentials.
func Login(ctx context.Context, users userStore, username, password string) (model.User, error) {
	user, err := users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.User{}, ErrInvalidCredentials
		}
		return model.User{}, fmt.Errorf("internal/auth: get user %q: %w", username, err)
	}

	ok, err := CheckPasswordHash(password, user.PasswordHash)
	if err != nil {
		// Accounts without a usable hash, such as the bot, cannot log in.
		return model.User{}, ErrInvalidCredentials
	}
	if !ok {
		return model.User{}, ErrInvalidCredentials
	}
	return user, nil
}
