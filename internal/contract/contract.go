// Package contract declares the single retrievable capability offered to
// the model: fetch_logs.
package contract

import (
	"github.com/Yaswanth-Vempuluru-7916/ollama-tools/internal/llm"
)

// FetchLogsName is the capability name the model invokes
const FetchLogsName = "fetch_logs"

// Contract is the static schema of the fetch_logs capability. Built once
// at startup from the container enumeration and never mutated.
type Contract struct {
	definition *llm.ToolDefinition
}

// New builds the contract for a container enumeration and limit cap
func New(containers []string, maxLimit int) *Contract {
	enum := make([]any, len(containers))
	for i, c := range containers {
		enum[i] = c
	}

	return &Contract{
		definition: &llm.ToolDefinition{
			Name: FetchLogsName,
			Description: "Fetch logs from a specified container in the staging environment. " +
				"If not specified, uses the last hour as the time range and 100 as the limit. " +
				"Times should be in Unix seconds.",
			Parameters: map[string]any{
				"type":     "object",
				"required": []any{"container"},
				"properties": map[string]any{
					"container": map[string]any{
						"type":        "string",
						"enum":        enum,
						"description": "The container to fetch logs from",
					},
					"start_time": map[string]any{
						"type":        "integer",
						"description": "Start time in Unix seconds (optional, defaults to 1 hour ago)",
					},
					"end_time": map[string]any{
						"type":        "integer",
						"description": "End time in Unix seconds (optional, defaults to now)",
					},
					"limit": map[string]any{
						"type":        "integer",
						"maximum":     maxLimit,
						"description": "Maximum number of log entries",
					},
				},
			},
		},
	}
}

// Definition returns the tool declaration passed to the model
func (c *Contract) Definition() *llm.ToolDefinition {
	return c.definition
}

// Invocation is a structured request emitted by the model: the capability
// name plus its raw, untyped argument mapping.
type Invocation struct {
	ID        string
	Name      string
	Arguments map[string]any
}
