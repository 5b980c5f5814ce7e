// Package analyze summarizes normalized log records in bounded-size
// batches through the model, under a no-fabrication instruction.
package analyze

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	perrors "github.com/Yaswanth-Vempuluru-7916/ollama-tools/internal/errors"
	"github.com/Yaswanth-Vempuluru-7916/ollama-tools/internal/llm"
	"github.com/Yaswanth-Vempuluru-7916/ollama-tools/internal/normalize"
)

// Separator joins per-batch segments in order
const Separator = "\n\n"

// Keyword families gating the extraction directive
var (
	specificVerbs   = []string{"find", "get", "extract", "show", "list"}
	extractionTerms = []string{"id", "code", "error", "status", "number"}
)

// Analyzer partitions records and asks the model to summarize each batch
type Analyzer struct {
	client    llm.Client
	batchSize int
	timeout   time.Duration // per batch call
	logger    *zap.Logger
}

// New creates an analyzer
func New(client llm.Client, batchSize int, timeout time.Duration, logger *zap.Logger) *Analyzer {
	return &Analyzer{
		client:    client,
		batchSize: batchSize,
		timeout:   timeout,
		logger:    logger,
	}
}

// Analyze summarizes the records in contiguous order-preserving batches,
// sequentially, and concatenates each batch's result in order. A failed
// batch call aborts the rest and surfaces an AnalysisError embedding all
// raw records, so retrieved data is never lost.
func (a *Analyzer) Analyze(ctx context.Context, records []normalize.Record, prompt string) (string, error) {
	batches := Partition(records, a.batchSize)
	segments := make([]string, 0, len(batches))

	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			return "", perrors.NewAnalysis(normalize.RenderLines(records), i, err)
		}

		start := time.Now()
		segment, err := a.analyzeBatch(ctx, batch, prompt)
		if err != nil {
			a.logger.Error("Batch analysis failed",
				zap.Int("batch", i+1),
				zap.Int("batches_total", len(batches)),
				zap.Error(err),
			)
			return "", perrors.NewAnalysis(normalize.RenderLines(records), i, err)
		}

		a.logger.Debug("Batch analyzed",
			zap.Int("batch", i+1),
			zap.Int("batches_total", len(batches)),
			zap.Int("records", len(batch)),
			zap.Duration("duration", time.Since(start)),
		)

		segments = append(segments, segment)
	}

	return strings.TrimRight(strings.Join(segments, Separator), " \t\r\n"), nil
}

func (a *Analyzer) analyzeBatch(ctx context.Context, batch []normalize.Record, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	resp, err := a.client.Chat(ctx, &llm.ChatRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: buildPrompt(batch, prompt)}},
	})
	if err != nil {
		return "", err
	}
	return resp.Message.Content, nil
}

// buildPrompt renders the batch as readable lines, restates the original
// intent, and forbids fabricating data absent from the batch.
func buildPrompt(batch []normalize.Record, prompt string) string {
	var b strings.Builder
	b.WriteString("Here are the logs:\n\n")
	b.WriteString(normalize.RenderLines(batch))
	b.WriteString(fmt.Sprintf("\n\nThe original query was: '%s'. Provide a human-readable summary. ", prompt))
	b.WriteString("Only reference what is in the logs. Do not hallucinate or invent responses.")

	if term, ok := extractionTerm(prompt); ok {
		b.WriteString(fmt.Sprintf("\n\nPlease extract any %ss if available. Otherwise, report that they weren't found.", term))
	}

	return b.String()
}

// extractionTerm returns the first extraction term present when the
// prompt signals a request for specific fields.
func extractionTerm(prompt string) (string, bool) {
	promptLower := strings.ToLower(prompt)

	specific := false
	for _, verb := range specificVerbs {
		if strings.Contains(promptLower, verb) {
			specific = true
			break
		}
	}
	if !specific {
		return "", false
	}

	for _, term := range extractionTerms {
		if strings.Contains(promptLower, term) {
			return term, true
		}
	}
	return "", false
}

// Partition splits records into contiguous batches of at most size,
// preserving order. The last batch may be shorter.
func Partition(records []normalize.Record, size int) [][]normalize.Record {
	if size < 1 || len(records) == 0 {
		return nil
	}

	batches := make([][]normalize.Record, 0, (len(records)+size-1)/size)
	for start := 0; start < len(records); start += size {
		end := min(start+size, len(records))
		batches = append(batches, records[start:end])
	}
	return batches
}
