package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"navi/capability"
	"navi/config"
	"navi/model"
)

const (
	// Results longer than this are compressed before re-entering model context.
	defaultCompressionThreshold = 50000

	// Fallback truncation length when compression is unavailable or fails.
	defaultTruncationBudget = 8000
)

const compressionPrompt = `Summarize the following tool output for an AI assistant that will act on it. Preserve every identifier exactly as written: IDs, URLs, file paths, issue keys, numbers, names. Drop boilerplate and repetition. Output only the summary.`

// Normalizer converts raw capability results into the strings stored in tool
// result turns. Oversized results are compressed through a cheaper auxiliary
// model; if that is unconfigured or fails the result is truncated instead,
// so normalization itself never fails a run.
type Normalizer struct {
	aux       model.Provider
	threshold int
	budget    int
}

// NewNormalizer creates a normalizer. aux may be nil, in which case oversized
// results are always truncated.
func NewNormalizer(aux model.Provider) *Normalizer {
	return &Normalizer{
		aux:       aux,
		threshold: defaultCompressionThreshold,
		budget:    defaultTruncationBudget,
	}
}

// Normalize serializes a capability result, surfaces its context note and
// bounds its size.
func (n *Normalizer) Normalize(ctx context.Context, result *capability.Result) string {
	text := serializeResult(result.Data)

	if result.ContextNote != "" {
		text = "IMPORTANT CONTEXT: " + result.ContextNote + "\n\n" + text
	}

	if len(text) <= n.threshold {
		return text
	}

	if compressed := n.compress(ctx, text); compressed != "" {
		return compressed
	}
	return truncate(text, n.budget)
}

// serializeResult renders result data canonically: strings pass through,
// everything else becomes indented JSON. Unserializable data falls back to
// fmt formatting rather than failing.
func serializeResult(data any) string {
	if s, ok := data.(string); ok {
		return s
	}
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(raw)
}

// compress asks the auxiliary model for a summary. Returns "" on any failure.
func (n *Normalizer) compress(ctx context.Context, text string) string {
	if n.aux == nil {
		return ""
	}

	messages := []model.Message{
		{Role: "system", Content: compressionPrompt},
		{Role: "user", Content: text},
	}

	var out strings.Builder
	err := n.aux.Chat(ctx, messages, func(chunk string, toolCalls []model.ToolCall) error {
		out.WriteString(chunk)
		return nil
	})
	if err != nil {
		if config.Debug {
			config.DebugLog.Printf("[Normalizer] Compression failed, truncating: %v", err)
		}
		return ""
	}

	summary := strings.TrimSpace(out.String())
	if summary == "" || len(summary) >= len(text) {
		return ""
	}
	return summary
}

func truncate(text string, budget int) string {
	if len(text) <= budget {
		return text
	}
	return text[:budget] + fmt.Sprintf("\n[truncated, %d chars originally]", len(text))
}
