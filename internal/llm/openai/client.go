// Package openai implements the llm.Client contract on top of any
// OpenAI-compatible chat endpoint, including Ollama's /v1 API.
package openai

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Yaswanth-Vempuluru-7916/ollama-tools/internal/llm"
)

// Client talks to an OpenAI-compatible chat completion endpoint
type Client struct {
	client *openai.Client
	model  string
}

// NewClient creates a client for the given model. baseURL points at the
// OpenAI-compatible endpoint; Ollama ignores the API key but the SDK
// requires one.
func NewClient(baseURL, apiKey, model string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	return &Client{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

// Chat performs one chat completion call
func (c *Client) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: convertMessages(req.Messages),
		Tools:    convertTools(req.Tools),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("model %s returned no choices", c.model)
	}

	return convertResponse(resp), nil
}

// Model returns the configured model identifier
func (c *Client) Model() string {
	return c.model
}

func convertMessages(msgs []llm.Message) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, len(msgs))
	for i, msg := range msgs {
		result[i] = openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		}
	}
	return result
}

func convertTools(tools []*llm.ToolDefinition) []openai.Tool {
	if len(tools) == 0 {
		return nil
	}
	result := make([]openai.Tool, len(tools))
	for i, t := range tools {
		result[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		}
	}
	return result
}

func convertResponse(resp openai.ChatCompletionResponse) *llm.ChatResponse {
	msg := resp.Choices[0].Message

	result := &llm.ChatResponse{
		Message: llm.Message{
			Role:    llm.Role(msg.Role),
			Content: msg.Content,
		},
	}

	if len(msg.ToolCalls) > 0 {
		result.Message.ToolCalls = make([]*llm.ToolCall, len(msg.ToolCalls))
		for i, tc := range msg.ToolCalls {
			result.Message.ToolCalls[i] = &llm.ToolCall{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			}
		}
	}

	return result
}
