package testutil

import (
	"context"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"navi/model"
)

// MockProvider implements model.Provider for testing with per-method
// overridable behavior.
type MockProvider struct {
	ChatFunc          func(ctx context.Context, messages []model.Message, callback model.StreamCallback) error
	ChatWithToolsFunc func(ctx context.Context, messages []model.Message, tools []mcptypes.Tool, callback model.StreamCallback) error
	ListModelsFunc    func(ctx context.Context) ([]model.ModelInfo, error)
	PingFunc          func(ctx context.Context) error

	currentModel string
}

// NewMockProvider creates a mock provider with default implementations.
func NewMockProvider(modelName string) *MockProvider {
	mock := &MockProvider{
		currentModel: modelName,
	}
	mock.ChatFunc = mock.defaultChat
	mock.ChatWithToolsFunc = mock.defaultChatWithTools
	mock.ListModelsFunc = mock.defaultListModels
	mock.PingFunc = mock.defaultPing
	return mock
}

func (m *MockProvider) defaultChat(ctx context.Context, messages []model.Message, callback model.StreamCallback) error {
	if len(messages) > 0 {
		return callback("Mock response", nil)
	}
	return nil
}

func (m *MockProvider) defaultChatWithTools(ctx context.Context, messages []model.Message, tools []mcptypes.Tool, callback model.StreamCallback) error {
	return callback("Mock response with tools", nil)
}

func (m *MockProvider) defaultListModels(ctx context.Context) ([]model.ModelInfo, error) {
	return []model.ModelInfo{
		{Name: "mock-model-1", Size: 1000},
		{Name: "mock-model-2", Size: 2000},
	}, nil
}

func (m *MockProvider) defaultPing(ctx context.Context) error {
	return nil
}

func (m *MockProvider) Chat(ctx context.Context, messages []model.Message, callback model.StreamCallback) error {
	return m.ChatFunc(ctx, messages, callback)
}

func (m *MockProvider) ChatWithTools(ctx context.Context, messages []model.Message, tools []mcptypes.Tool, callback model.StreamCallback) error {
	return m.ChatWithToolsFunc(ctx, messages, tools, callback)
}

func (m *MockProvider) ListModels(ctx context.Context) ([]model.ModelInfo, error) {
	return m.ListModelsFunc(ctx)
}

func (m *MockProvider) GetModel() string {
	return m.currentModel
}

func (m *MockProvider) SetModel(modelName string) {
	m.currentModel = modelName
}

func (m *MockProvider) Ping(ctx context.Context) error {
	return m.PingFunc(ctx)
}

// ScriptTurn is one scripted model response: text streamed first, then any
// tool calls.
type ScriptTurn struct {
	Text      string
	ToolCalls []model.ToolCall
}

// ScriptedProvider implements model.Provider by replaying a fixed sequence
// of turns, one per ChatWithTools call. When the script runs out it repeats
// the last turn if Repeat is set, otherwise returns empty text. Useful for
// driving the orchestration loop through multi-iteration scenarios,
// including a model that never stops calling tools.
type ScriptedProvider struct {
	Turns  []ScriptTurn
	Repeat bool

	// Calls records the messages of every ChatWithTools invocation.
	Calls [][]model.Message

	turn int
}

func (s *ScriptedProvider) Chat(ctx context.Context, messages []model.Message, callback model.StreamCallback) error {
	return s.ChatWithTools(ctx, messages, nil, callback)
}

func (s *ScriptedProvider) ChatWithTools(ctx context.Context, messages []model.Message, tools []mcptypes.Tool, callback model.StreamCallback) error {
	s.Calls = append(s.Calls, messages)

	var turn ScriptTurn
	switch {
	case s.turn < len(s.Turns):
		turn = s.Turns[s.turn]
		s.turn++
	case s.Repeat && len(s.Turns) > 0:
		turn = s.Turns[len(s.Turns)-1]
	}

	if turn.Text != "" {
		if err := callback(turn.Text, nil); err != nil {
			return err
		}
	}
	if len(turn.ToolCalls) > 0 {
		return callback("", turn.ToolCalls)
	}
	return nil
}

func (s *ScriptedProvider) ListModels(ctx context.Context) ([]model.ModelInfo, error) {
	return []model.ModelInfo{{Name: "scripted-model"}}, nil
}

func (s *ScriptedProvider) GetModel() string { return "scripted-model" }

func (s *ScriptedProvider) SetModel(modelName string) {}

func (s *ScriptedProvider) Ping(ctx context.Context) error { return nil }
