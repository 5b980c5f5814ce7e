// Package llm defines the chat capability contract consumed by the
// pipeline. Implementations live in subpackages.
package llm

import "context"

// Client is a chat-completion capability with optional tool declarations.
type Client interface {
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
	Model() string
}

// ChatRequest is one model invocation
type ChatRequest struct {
	Messages []Message
	Tools    []*ToolDefinition
}

// ChatResponse carries either direct content or requested tool calls
type ChatResponse struct {
	Message Message
}

// ToolDefinition declares a callable capability to the model
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}
