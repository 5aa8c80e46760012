package model

import (
	"context"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// Provider abstracts LLM provider implementations (Ollama, OpenAI, Anthropic,
// OpenRouter) using provider-agnostic types from the model layer.
//
// The interface lives in the model package (not provider) to avoid import
// cycles: provider implementations import model, and the orchestrator can use
// the Provider interface without importing the provider package.
type Provider interface {
	// Chat sends messages and streams responses back via callback.
	Chat(ctx context.Context, messages []Message, callback StreamCallback) error

	// ChatWithTools sends messages with available tools and streams responses.
	// Tool calls requested by the model are delivered through the callback
	// once the provider has fully accumulated them.
	ChatWithTools(ctx context.Context, messages []Message, tools []mcptypes.Tool, callback StreamCallback) error

	// ListModels returns available models for this provider.
	ListModels(ctx context.Context) ([]ModelInfo, error)

	// GetModel returns the currently selected model name.
	GetModel() string

	// SetModel changes the active model.
	SetModel(model string)

	// Ping checks if the provider is reachable.
	Ping(ctx context.Context) error
}

// StreamCallback is called for each chunk of streamed response. Text deltas
// arrive with toolCalls nil; completed tool calls arrive with chunk empty.
type StreamCallback func(chunk string, toolCalls []ToolCall) error

// ModelInfo describes one model offered by a provider.
type ModelInfo struct {
	Name     string
	Size     int64
	Provider string // provider ID: "ollama", "openrouter", "openai", "anthropic"
}
