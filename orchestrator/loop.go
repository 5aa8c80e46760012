// Package orchestrator runs the agentic loop: send the conversation and the
// tool catalog to the model, dispatch requested tool calls, feed results
// back, and repeat until the model answers in plain text or the iteration
// ceiling is hit.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"navi/capability"
	"navi/catalog"
	"navi/config"
	"navi/model"
)

// limitDisclaimer is appended exactly once when a run stops at the iteration
// ceiling instead of a model-chosen answer.
const limitDisclaimer = "I stopped after reaching the tool-use limit for a single request, so the answer above may be incomplete. Ask me to continue if you need more."

// Config bounds one orchestration run.
type Config struct {
	// IterationLimit caps model round-trips per run. Zero means the default.
	IterationLimit int

	// MaxConcurrency caps parallel tool dispatch. Zero means the default.
	MaxConcurrency int

	// SystemPrompt, when set, is prepended to conversations that lack one.
	SystemPrompt string
}

// RunResult is the outcome of one orchestration run. Messages always holds
// the full transcript accumulated so far, including on error returns.
type RunResult struct {
	Messages   []model.Message
	FinalText  string
	Iterations int
	LimitHit   bool
}

// Loop drives tool-augmented model turns against a catalog.
type Loop struct {
	provider   model.Provider
	normalizer *Normalizer
	cfg        Config
}

// NewLoop creates an orchestration loop.
func NewLoop(provider model.Provider, normalizer *Normalizer, cfg Config) *Loop {
	if cfg.IterationLimit <= 0 {
		cfg.IterationLimit = config.DefaultIterationLimit
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = config.DefaultMaxConcurrency
	}
	return &Loop{provider: provider, normalizer: normalizer, cfg: cfg}
}

// Run executes one user turn. The returned transcript extends history with
// the user turn and everything the run produced. A model-call failure or
// cancellation aborts the run; the transcript up to that point is returned
// alongside the error so the conversation stays intact.
func (l *Loop) Run(ctx context.Context, cat *catalog.Catalog, history []model.Message, userText string) (*RunResult, error) {
	messages := make([]model.Message, 0, len(history)+2)
	if l.cfg.SystemPrompt != "" && (len(history) == 0 || history[0].Role != "system") {
		messages = append(messages, model.Message{Role: "system", Content: l.cfg.SystemPrompt, Timestamp: time.Now()})
	}
	messages = append(messages, history...)
	messages = append(messages, model.Message{Role: "user", Content: userText, Timestamp: time.Now()})

	result := &RunResult{}

	for i := 1; i <= l.cfg.IterationLimit; i++ {
		if err := ctx.Err(); err != nil {
			result.Messages = messages
			return result, err
		}

		var text strings.Builder
		var calls []model.ToolCall

		err := l.provider.ChatWithTools(ctx, messages, cat.Tools(), func(chunk string, toolCalls []model.ToolCall) error {
			text.WriteString(chunk)
			for _, call := range toolCalls {
				if call.ID == "" {
					call.ID = uuid.NewString()
				}
				calls = append(calls, call)
			}
			return nil
		})
		if err != nil {
			result.Messages = messages
			return result, fmt.Errorf("model call failed: %w", err)
		}

		result.Iterations = i
		messages = append(messages, model.Message{
			Role:      "assistant",
			Content:   text.String(),
			ToolCalls: calls,
			Timestamp: time.Now(),
		})

		if len(calls) == 0 {
			result.Messages = messages
			result.FinalText = text.String()
			return result, nil
		}

		if config.Debug {
			config.DebugLog.Printf("[Orchestrator] Iteration %d: dispatching %d tool calls", i, len(calls))
		}

		toolResults := l.dispatch(ctx, cat, calls)
		messages = append(messages, model.Message{
			Role:        "tool",
			ToolResults: toolResults,
			Timestamp:   time.Now(),
		})
	}

	messages = append(messages, model.Message{
		Role:      "assistant",
		Content:   limitDisclaimer,
		Timestamp: time.Now(),
	})
	result.Messages = messages
	result.FinalText = limitDisclaimer
	result.LimitHit = true
	return result, nil
}

// dispatch runs all requested tool calls in parallel, bounded by
// MaxConcurrency, and returns exactly one result per call in request order.
// Failures of any kind become error results; they never abort the run.
func (l *Loop) dispatch(ctx context.Context, cat *catalog.Catalog, calls []model.ToolCall) []model.ToolResult {
	results := make([]model.ToolResult, len(calls))
	sem := make(chan struct{}, l.cfg.MaxConcurrency)
	var wg sync.WaitGroup

	for i, call := range calls {
		wg.Add(1)
		go func(i int, call model.ToolCall) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			defer func() {
				if r := recover(); r != nil {
					results[i] = model.ToolResult{
						ToolCallID: call.ID,
						Content:    fmt.Sprintf("tool %s panicked: %v", call.Name, r),
						IsError:    true,
					}
				}
			}()

			results[i] = l.invoke(ctx, cat, call)
		}(i, call)
	}

	wg.Wait()
	return results
}

func (l *Loop) invoke(ctx context.Context, cat *catalog.Catalog, call model.ToolCall) model.ToolResult {
	res, err := cat.Execute(ctx, call.Name, call.Arguments)
	if err != nil {
		content := err.Error()
		if errors.Is(err, catalog.ErrUnknownTool) {
			content = fmt.Sprintf("tool not found: %s", call.Name)
		}
		if config.Debug {
			config.DebugLog.Printf("[Orchestrator] Tool %s failed: %v", call.Name, err)
		}
		return model.ToolResult{ToolCallID: call.ID, Content: content, IsError: true}
	}

	return model.ToolResult{
		ToolCallID: call.ID,
		Content:    l.normalizeResult(ctx, res),
	}
}

func (l *Loop) normalizeResult(ctx context.Context, res *capability.Result) string {
	if res == nil {
		return ""
	}
	if l.normalizer == nil {
		return serializeResult(res.Data)
	}
	return l.normalizer.Normalize(ctx, res)
}
