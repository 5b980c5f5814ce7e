// Package interpret runs the intent step: one model call that turns a
// free-text prompt into either a direct answer or structured fetch_logs
// invocations.
package interpret

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Yaswanth-Vempuluru-7916/ollama-tools/internal/contract"
	perrors "github.com/Yaswanth-Vempuluru-7916/ollama-tools/internal/errors"
	"github.com/Yaswanth-Vempuluru-7916/ollama-tools/internal/llm"
)

// Interpreter submits the prompt and the declared contract to the model
type Interpreter struct {
	client     llm.Client
	contract   *contract.Contract
	containers []string
	timeout    time.Duration
	logger     *zap.Logger
}

// New creates an interpreter
func New(client llm.Client, c *contract.Contract, containers []string, timeout time.Duration, logger *zap.Logger) *Interpreter {
	return &Interpreter{
		client:     client,
		contract:   c,
		containers: containers,
		timeout:    timeout,
		logger:     logger,
	}
}

// Outcome is the result of the intent step: a direct answer when no
// retrieval is needed, otherwise the requested invocations in response
// order.
type Outcome struct {
	Answer      string
	Invocations []contract.Invocation
}

// Answered reports whether the model answered directly without retrieval
func (o *Outcome) Answered() bool {
	return len(o.Invocations) == 0
}

// Interpret performs the single intent model call. The prompt is prefixed
// with the container enumeration so the model picks from the closed set.
// Failures surface as InterpretationError; there is no retry here.
func (i *Interpreter) Interpret(ctx context.Context, prompt string) (*Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	enhanced := fmt.Sprintf("Available containers: %s\nUser query: %s",
		strings.Join(i.containers, ", "), prompt)

	start := time.Now()
	resp, err := i.client.Chat(ctx, &llm.ChatRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: enhanced}},
		Tools:    []*llm.ToolDefinition{i.contract.Definition()},
	})
	if err != nil {
		return nil, perrors.NewInterpretation(err)
	}

	i.logger.Debug("Intent step completed",
		zap.Duration("duration", time.Since(start)),
		zap.Int("tool_calls", len(resp.Message.ToolCalls)),
	)

	if len(resp.Message.ToolCalls) == 0 {
		return &Outcome{Answer: resp.Message.Content}, nil
	}

	invocations := make([]contract.Invocation, 0, len(resp.Message.ToolCalls))
	for _, call := range resp.Message.ToolCalls {
		if call.Name != contract.FetchLogsName {
			return nil, perrors.NewInterpretation(fmt.Errorf("unknown tool requested: %s", call.Name))
		}

		args := map[string]any{}
		if call.Arguments != "" {
			if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
				return nil, perrors.NewInterpretation(fmt.Errorf("malformed tool arguments: %w", err))
			}
		}

		invocations = append(invocations, contract.Invocation{
			ID:        call.ID,
			Name:      call.Name,
			Arguments: args,
		})
	}

	return &Outcome{Invocations: invocations}, nil
}
