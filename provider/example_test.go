package provider_test

import (
	"context"
	"fmt"
	"log"

	"navi/model"
	"navi/provider"
)

// ExampleNewProvider demonstrates creating an Ollama provider using the factory.
func ExampleNewProvider() {
	cfg := provider.Config{
		Type:    provider.ProviderTypeOllama,
		BaseURL: "http://localhost:11434",
		Model:   "llama3.1",
	}

	p, err := provider.NewProvider(cfg)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Provider created: %T\n", p)
	// Output: Provider created: *provider.OllamaProvider
}

// ExampleNewOllamaProvider demonstrates creating an Ollama provider directly.
func ExampleNewOllamaProvider() {
	p, err := provider.NewOllamaProvider("http://localhost:11434", "llama3.1")
	if err != nil {
		log.Fatal(err)
	}

	currentModel := p.GetModel()
	fmt.Printf("Current model: %s\n", currentModel)

	p.SetModel("llama3.2:latest")
	fmt.Printf("New model: %s\n", p.GetModel())

	// Output:
	// Current model: llama3.1
	// New model: llama3.2:latest
}

// ExampleOllamaProvider_ChatWithTools demonstrates chat with tool calling.
//
// Note: This example doesn't actually run because it requires a live Ollama
// server. It's provided for documentation purposes.
func ExampleOllamaProvider_ChatWithTools() {
	p, err := provider.NewOllamaProvider("http://localhost:11434", "llama3.1")
	if err != nil {
		log.Fatal(err)
	}

	messages := []model.Message{
		{Role: "user", Content: "Search the web for Go release notes"},
	}

	// Tool definitions come from the catalog builder in real usage.
	ctx := context.Background()
	err = p.ChatWithTools(ctx, messages, nil, func(chunk string, toolCalls []model.ToolCall) error {
		if len(toolCalls) > 0 {
			for _, call := range toolCalls {
				fmt.Printf("\nTool called: %s\n", call.Name)
				fmt.Printf("Arguments: %v\n", call.Arguments)
			}
			return nil
		}

		fmt.Print(chunk)
		return nil
	})

	if err != nil {
		log.Fatal(err)
	}
}

// ExampleConfig demonstrates the provider configurations.
func ExampleConfig() {
	ollamaCfg := provider.Config{
		Type:    provider.ProviderTypeOllama,
		BaseURL: "http://localhost:11434",
		Model:   "llama3.1",
		// APIKey is not used for Ollama
	}

	openaiCfg := provider.Config{
		Type:    provider.ProviderTypeOpenAI,
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o-mini",
		APIKey:  "sk-...",
	}

	anthropicCfg := provider.Config{
		Type:    provider.ProviderTypeAnthropic,
		BaseURL: "https://api.anthropic.com",
		Model:   "claude-sonnet-4-5-20250929",
		APIKey:  "sk-ant-...",
	}

	fmt.Printf("Ollama: %s\n", ollamaCfg.Type)
	fmt.Printf("OpenAI: %s\n", openaiCfg.Type)
	fmt.Printf("Anthropic: %s\n", anthropicCfg.Type)

	// Output:
	// Ollama: ollama
	// OpenAI: openai
	// Anthropic: anthropic
}
