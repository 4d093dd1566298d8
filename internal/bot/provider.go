package bot

import (
	"context"
	"errors"
)

// ErrNoProvider is returned when no generative provider is configured.
var ErrNoProvider = errors.New("bot: generative provider not configured")

// CompletionRequest is the input of a generated reply.
type CompletionRequest struct {
	System    string
	Prompt    string
	MaxTokens int64
}

// Provider generates reply text.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, req CompletionRequest) (string, error)

func (f ProviderFunc) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	return f(ctx, req)
}
