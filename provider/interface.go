// Package provider implements model.Provider for the supported LLM backends
// (Ollama, OpenRouter, OpenAI, Anthropic).
//
// The Provider interface and StreamCallback live in the model package
// (model/provider.go) to avoid import cycles; this package implements them
// and owns all conversions between navi's provider-agnostic types and each
// SDK's wire types. The orchestrator talks to model.Provider only and never
// sees an SDK type.
package provider

// ProviderType identifies the provider implementation.
type ProviderType string

const (
	ProviderTypeOllama     ProviderType = "ollama"
	ProviderTypeOpenRouter ProviderType = "openrouter"
	ProviderTypeOpenAI     ProviderType = "openai"
	ProviderTypeAnthropic  ProviderType = "anthropic"
)

// Config holds provider-specific configuration.
type Config struct {
	Type    ProviderType
	BaseURL string
	Model   string
	APIKey  string // unused for Ollama
}
