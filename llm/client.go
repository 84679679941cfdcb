// Package llm defines the provider-neutral token source used by the brief
// processor.
package llm

import (
	"context"
)

// Client is the provider-agnostic chat streaming interface.
type Client interface {
	// ChatStream opens a token stream for the request. The caller owns the
	// returned Stream and must Close it.
	ChatStream(ctx context.Context, req *ChatRequest) (Stream, error)
	Model() string
}

// Role values accepted in Message.Role.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single role/content entry in a chat.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the normalized chat request sent to providers.
type ChatRequest struct {
	Messages     []Message `json:"messages"`
	Model        string    `json:"model,omitempty"`
	SystemPrompt string    `json:"system_prompt,omitempty"`
}

// PickModel returns the request's model override or fallback.
func PickModel(req *ChatRequest, fallback string) string {
	if req != nil && req.Model != "" {
		return req.Model
	}
	return fallback
}
