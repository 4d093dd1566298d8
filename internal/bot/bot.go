// Package bot produces automated replies to trigger messages.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/johndosdos/chatroom/internal/model"
	"github.com/johndosdos/chatroom/internal/store"
)

// Username is the display name of the bot account.
const Username = "AI Assistant"

// MentionToken addresses the bot inside a message.
const MentionToken = "@AI"

// CommandPrefix starts a bot command.
const CommandPrefix = "/"

const (
	systemInstruction = "You are a helpful AI assistant in a chat room. Be friendly, concise, and engaging. " +
		"Use emojis occasionally. If someone asks about weather or real-time data, explain that you " +
		"don't have access to that information but offer to help with other things."

	helpText = "Here are some commands you can use:\n" +
		"• @AI [question] - Ask me anything\n" +
		"• /help - Show this help message\n" +
		"• /joke - Get a random joke\n" +
		"• /weather - Ask about weather (I'll explain my limitations)\n\n" +
		"I'm here to help with questions, creative writing, programming, and general knowledge!"

	jokeText = "Why don't scientists trust atoms? Because they make up everything! 😄\n\nWant another joke? Just ask!"

	emptyReplyText = "I'm sorry, I couldn't generate a response right now. Please try again!"

	// FallbackText replaces a generated reply when the provider fails.
	FallbackText = "I'm experiencing some technical difficulties right now. Please try again later! 🤖"
)

// commands maps command prefixes to canned replies. Matching is by prefix, so
// "/helpme" also gets the help text.
var commands = []struct {
	prefix string
	reply  string
}{
	{"/help", helpText},
	{"/joke", jokeText},
}

// IsTrigger reports whether content should cause a bot reply.
func IsTrigger(content string) bool {
	return strings.Contains(content, MentionToken) || strings.HasPrefix(content, CommandPrefix)
}

// cannedReply returns the fixed reply for a recognized command.
func cannedReply(content string) (string, bool) {
	for _, c := range commands {
		if strings.HasPrefix(content, c.prefix) {
			return c.reply, true
		}
	}
	return "", false
}

// prompt derives the provider input from a trigger message.
func prompt(content string) string {
	return strings.TrimSpace(strings.ReplaceAll(content, MentionToken, ""))
}

type userStore interface {
	GetUserByUsername(ctx context.Context, username string) (model.User, error)
	CreateUser(ctx context.Context, user model.NewUser) (model.User, error)
}

// EnsureIdentity returns the bot account, creating it if needed. The account
// gets a random password hash that no login can match.
func EnsureIdentity(ctx context.Context, users userStore) (model.User, error) {
	u, err := users.GetUserByUsername(ctx, Username)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return model.User{}, fmt.Errorf("bot: failed to look up bot user: %w", err)
	}

	u, err = users.CreateUser(ctx, model.NewUser{
		Username:     Username,
		PasswordHash: "!" + uuid.NewString(),
	})
	if errors.Is(err, store.ErrUsernameTaken) {
		return users.GetUserByUsername(ctx, Username)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("bot: failed to create bot user: %w", err)
	}
	return u, nil
}
