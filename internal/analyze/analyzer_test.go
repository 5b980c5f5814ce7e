package analyze

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	perrors "github.com/Yaswanth-Vempuluru-7916/ollama-tools/internal/errors"
	"github.com/Yaswanth-Vempuluru-7916/ollama-tools/internal/llm"
	"github.com/Yaswanth-Vempuluru-7916/ollama-tools/internal/normalize"
)

// fakeClient replays canned responses and records every prompt it saw
type fakeClient struct {
	prompts   []string
	responses []string
	failAt    int // 1-based call index to fail at; 0 disables
}

func (f *fakeClient) Chat(_ context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	f.prompts = append(f.prompts, req.Messages[0].Content)
	if f.failAt > 0 && len(f.prompts) == f.failAt {
		return nil, errors.New("model unavailable")
	}
	reply := fmt.Sprintf("summary %d", len(f.prompts))
	if len(f.responses) >= len(f.prompts) {
		reply = f.responses[len(f.prompts)-1]
	}
	return &llm.ChatResponse{Message: llm.Message{Role: llm.RoleAssistant, Content: reply}}, nil
}

func (f *fakeClient) Model() string { return "fake" }

func makeRecords(n int) []normalize.Record {
	records := make([]normalize.Record, n)
	for i := range records {
		records[i] = normalize.Record{Timestamp: int64(1744002400 + i), Message: fmt.Sprintf("entry %d", i)}
	}
	return records
}

func TestPartition(t *testing.T) {
	tests := []struct {
		name      string
		records   int
		size      int
		wantSizes []int
	}{
		{"120 records in batches of 50", 120, 50, []int{50, 50, 20}},
		{"exact multiple", 100, 50, []int{50, 50}},
		{"single short batch", 7, 50, []int{7}},
		{"empty", 0, 50, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batches := Partition(makeRecords(tt.records), tt.size)
			require.Len(t, batches, len(tt.wantSizes))
			for i, want := range tt.wantSizes {
				assert.Len(t, batches[i], want)
			}
		})
	}
}

// Concatenating all batches must reproduce the original sequence.
func TestPartitionExhaustive(t *testing.T) {
	records := makeRecords(123)
	batches := Partition(records, 50)

	var flattened []normalize.Record
	for _, batch := range batches {
		flattened = append(flattened, batch...)
	}
	assert.Equal(t, records, flattened)
}

func TestAnalyzeBatchOrder(t *testing.T) {
	client := &fakeClient{}
	a := New(client, 50, time.Minute, zaptest.NewLogger(t))

	result, err := a.Analyze(context.Background(), makeRecords(120), "analyze the logs")
	require.NoError(t, err)

	// Three batches, analyzed sequentially, concatenated in order
	require.Len(t, client.prompts, 3)
	assert.Equal(t, "summary 1"+Separator+"summary 2"+Separator+"summary 3", result)

	// Each batch prompt carries its own slice of the records
	assert.Contains(t, client.prompts[0], "entry 0")
	assert.Contains(t, client.prompts[0], "entry 49")
	assert.NotContains(t, client.prompts[0], "entry 50")
	assert.Contains(t, client.prompts[2], "entry 119")
}

func TestAnalyzeTrimsTrailingWhitespace(t *testing.T) {
	client := &fakeClient{responses: []string{"summary with trailing space \n"}}
	a := New(client, 50, time.Minute, zaptest.NewLogger(t))

	result, err := a.Analyze(context.Background(), makeRecords(3), "analyze")
	require.NoError(t, err)
	assert.Equal(t, "summary with trailing space", result)
}

func TestAnalyzeEmptyRecordsMakesNoCalls(t *testing.T) {
	client := &fakeClient{}
	a := New(client, 50, time.Minute, zaptest.NewLogger(t))

	result, err := a.Analyze(context.Background(), nil, "analyze")
	require.NoError(t, err)
	assert.Equal(t, "", result)
	assert.Empty(t, client.prompts)
}

func TestAnalyzeMidBatchFailure(t *testing.T) {
	client := &fakeClient{failAt: 2}
	a := New(client, 50, time.Minute, zaptest.NewLogger(t))
	records := makeRecords(120)

	_, err := a.Analyze(context.Background(), records, "analyze")
	require.Error(t, err)

	var aerr *perrors.AnalysisError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, 1, aerr.CompletedBatches)
	// All raw records survive the failed summarization, not just the
	// failed batch.
	assert.Equal(t, normalize.RenderLines(records), aerr.RawLogs)

	// Remaining batches are aborted
	assert.Len(t, client.prompts, 2)
}

func TestAnalyzeGroundingInstruction(t *testing.T) {
	client := &fakeClient{}
	a := New(client, 50, time.Minute, zaptest.NewLogger(t))

	_, err := a.Analyze(context.Background(), makeRecords(1), "summarize recent activity")
	require.NoError(t, err)

	require.Len(t, client.prompts, 1)
	prompt := client.prompts[0]
	assert.Contains(t, prompt, "summarize recent activity")
	assert.Contains(t, prompt, "Do not hallucinate or invent responses.")
}

func TestAnalyzeExtractionDirective(t *testing.T) {
	tests := []struct {
		name       string
		prompt     string
		wantAbsent bool
	}{
		{"find errors", "find the errors in these logs", false},
		{"extract ids", "extract any id values", false},
		{"show status", "show me the status codes", false},
		{"no verb", "errors happened maybe", true},
		{"verb without term", "show me what happened", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{}
			a := New(client, 50, time.Minute, zaptest.NewLogger(t))

			_, err := a.Analyze(context.Background(), makeRecords(1), tt.prompt)
			require.NoError(t, err)
			require.Len(t, client.prompts, 1)

			hasDirective := strings.Contains(client.prompts[0], "Please extract any")
			assert.Equal(t, !tt.wantAbsent, hasDirective)
		})
	}
}

func TestAnalyzeHonorsCancellation(t *testing.T) {
	client := &fakeClient{}
	a := New(client, 50, time.Minute, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Analyze(ctx, makeRecords(10), "analyze")
	require.Error(t, err)

	var aerr *perrors.AnalysisError
	require.ErrorAs(t, err, &aerr)
	assert.Empty(t, client.prompts, "no batch call may start after cancellation")
}
