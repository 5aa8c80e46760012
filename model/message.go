package model

import "time"

// Message represents one conversation turn. A turn is either plain text
// (user/assistant/system), an assistant turn that requested tool calls,
// or a tool turn carrying the results for a previous assistant turn.
type Message struct {
	Role        string
	Content     string
	ToolCalls   []ToolCall   // set on assistant turns that requested tools
	ToolResults []ToolResult // set on tool turns
	Timestamp   time.Time
}

// ToolCall is a single tool invocation requested by the model.
type ToolCall struct {
	ID        string // correlates the call to its result
	Name      string
	Arguments map[string]any
}

// ToolResult is the outcome of one tool call, success or error.
type ToolResult struct {
	ToolCallID string
	Content    string
	IsError    bool
}
