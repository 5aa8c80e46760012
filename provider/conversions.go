package provider

import (
	"encoding/json"

	"navi/model"

	"github.com/ollama/ollama/api"
)

// ConvertToOllamaMessages converts navi messages to Ollama api.Message.
//
// Assistant turns carry their tool calls; tool turns expand into one
// role:"tool" message per result, which is how the Ollama chat API expects
// results to be fed back. Timestamps are dropped since the API has no field
// for them.
func ConvertToOllamaMessages(messages []model.Message) []api.Message {
	result := make([]api.Message, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == "tool" {
			for _, tr := range msg.ToolResults {
				result = append(result, api.Message{
					Role:    "tool",
					Content: tr.Content,
				})
			}
			continue
		}

		result = append(result, api.Message{
			Role:      msg.Role,
			Content:   msg.Content,
			ToolCalls: ConvertFromProviderToolCalls(msg.ToolCalls),
		})
	}
	return result
}

// ConvertFromOllamaMessages converts Ollama api.Message to navi messages.
// Timestamps are not set; callers stamp messages when they enter a session.
func ConvertFromOllamaMessages(messages []api.Message) []model.Message {
	result := make([]model.Message, len(messages))
	for i, msg := range messages {
		result[i] = model.Message{
			Role:      msg.Role,
			Content:   msg.Content,
			ToolCalls: ConvertToProviderToolCalls(msg.ToolCalls),
		}
	}
	return result
}

// ParseToolArguments parses a JSON arguments string into a map. Used by the
// OpenAI and OpenRouter providers, which deliver arguments as raw JSON text.
// Unparseable input yields an empty map rather than an error; schema
// validation downstream reports the problem to the model.
func ParseToolArguments(argsJSON string) map[string]any {
	var args map[string]any
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
		return make(map[string]any)
	}
	return args
}

// ConvertToProviderToolCalls converts Ollama api.ToolCall to provider-agnostic
// model.ToolCall. Returns nil for empty input, matching the API's semantics.
func ConvertToProviderToolCalls(ollamaCalls []api.ToolCall) []model.ToolCall {
	if len(ollamaCalls) == 0 {
		return nil
	}

	result := make([]model.ToolCall, len(ollamaCalls))
	for i, call := range ollamaCalls {
		result[i] = model.ToolCall{
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments,
		}
	}
	return result
}

// ConvertFromProviderToolCalls converts model.ToolCall back to Ollama format.
func ConvertFromProviderToolCalls(providerCalls []model.ToolCall) []api.ToolCall {
	if len(providerCalls) == 0 {
		return nil
	}

	result := make([]api.ToolCall, len(providerCalls))
	for i, call := range providerCalls {
		result[i] = api.ToolCall{
			Function: api.ToolCallFunction{
				Name:      call.Name,
				Arguments: call.Arguments,
			},
		}
	}
	return result
}
