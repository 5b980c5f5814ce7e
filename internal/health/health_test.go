package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Yaswanth-Vempuluru-7916/ollama-tools/internal/llm"
	"github.com/Yaswanth-Vempuluru-7916/ollama-tools/internal/logstore"
	"github.com/Yaswanth-Vempuluru-7916/ollama-tools/internal/resolve"
)

type fakeProber struct {
	err     error
	queries []*resolve.Query
}

func (f *fakeProber) FetchLogs(_ context.Context, q *resolve.Query) (*logstore.QueryResponse, error) {
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	return &logstore.QueryResponse{Status: "success"}, nil
}

type fakeModel struct {
	err error
}

func (f *fakeModel) Chat(_ context.Context, _ *llm.ChatRequest) (*llm.ChatResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &llm.ChatResponse{Message: llm.Message{Role: llm.RoleAssistant, Content: "OK"}}, nil
}

func (f *fakeModel) Model() string { return "fake" }

func TestCheckAllHealthy(t *testing.T) {
	store := &fakeProber{}
	checker := New(store, &fakeModel{}, "/staging-cobi-v2", zaptest.NewLogger(t))

	status, checks := checker.CheckAll(context.Background())

	assert.Equal(t, StatusHealthy, status)
	require.Len(t, checks, 2)
	assert.Equal(t, "log_store", checks[0].Name)
	assert.Equal(t, "model", checks[1].Name)
	for _, check := range checks {
		assert.Equal(t, StatusHealthy, check.Status)
	}

	// The store probe must stay bounded
	require.Len(t, store.queries, 1)
	probe := store.queries[0]
	assert.Equal(t, "/staging-cobi-v2", probe.Container)
	assert.Equal(t, 1, probe.Limit)
	assert.Equal(t, int64(300), probe.End-probe.Start)
}

func TestCheckAllStoreDown(t *testing.T) {
	store := &fakeProber{err: errors.New("connection refused")}
	checker := New(store, &fakeModel{}, "/staging-cobi-v2", zaptest.NewLogger(t))

	status, checks := checker.CheckAll(context.Background())

	assert.Equal(t, StatusUnhealthy, status)
	assert.Equal(t, StatusUnhealthy, checks[0].Status)
	assert.Contains(t, checks[0].Message, "connection refused")
}

func TestCheckAllModelDown(t *testing.T) {
	checker := New(&fakeProber{}, &fakeModel{err: errors.New("no such model")}, "/staging-cobi-v2", zaptest.NewLogger(t))

	status, checks := checker.CheckAll(context.Background())

	assert.Equal(t, StatusUnhealthy, status)
	assert.Equal(t, StatusHealthy, checks[0].Status)
	assert.Equal(t, StatusUnhealthy, checks[1].Status)
}

func TestHealthEndpoint(t *testing.T) {
	checker := New(&fakeProber{}, &fakeModel{}, "/staging-cobi-v2", zaptest.NewLogger(t))
	server := NewServer(checker, zaptest.NewLogger(t), "127.0.0.1:0")

	rec := httptest.NewRecorder()
	server.healthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
	assert.Contains(t, rec.Body.String(), `"log_store"`)
}

func TestHealthEndpointUnhealthy(t *testing.T) {
	checker := New(&fakeProber{err: errors.New("boom")}, &fakeModel{}, "/staging-cobi-v2", zaptest.NewLogger(t))
	server := NewServer(checker, zaptest.NewLogger(t), "127.0.0.1:0")

	rec := httptest.NewRecorder()
	server.healthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestReadinessProbe(t *testing.T) {
	checker := New(&fakeProber{}, &fakeModel{}, "/staging-cobi-v2", zaptest.NewLogger(t))
	server := NewServer(checker, zaptest.NewLogger(t), "127.0.0.1:0")

	rec := httptest.NewRecorder()
	server.readyHandler(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	server.SetReady(true)
	rec = httptest.NewRecorder()
	server.readyHandler(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"status":"ready"}`, rec.Body.String())
}

func TestLivenessProbe(t *testing.T) {
	checker := New(&fakeProber{}, &fakeModel{}, "/staging-cobi-v2", zaptest.NewLogger(t))
	server := NewServer(checker, zaptest.NewLogger(t), "127.0.0.1:0")

	rec := httptest.NewRecorder()
	server.liveHandler(rec, httptest.NewRequest(http.MethodGet, "/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	server.liveHandler(rec, httptest.NewRequest(http.MethodPost, "/live", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
