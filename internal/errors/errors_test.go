package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestKindOf(t *testing.T) {
	cause := stderrors.New("boom")

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"configuration", NewConfiguration("missing BASE_URL"), KindConfiguration},
		{"interpretation", NewInterpretation(cause), KindInterpretation},
		{"invalid container", NewInvalidContainer("/nope", "/staging-cobi-v2", 42), KindInvalidContainer},
		{"invalid argument", NewInvalidArgument("limit", "lots"), KindInvalidArgument},
		{"retrieval", NewRetrievalStatus(500, "internal error"), KindRetrieval},
		{"analysis", NewAnalysis("raw", 2, cause), KindAnalysis},
		{"wrapped configuration", fmt.Errorf("startup failed: %w", NewConfiguration("TOKEN is required")), KindConfiguration},
		{"foreign", cause, Kind("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInvalidContainerMessage(t *testing.T) {
	err := NewInvalidContainer("/cobi", "/staging-cobi-v2", 67)
	msg := err.Error()
	if !strings.Contains(msg, "/staging-cobi-v2") || !strings.Contains(msg, "67") {
		t.Errorf("message must name the closest candidate and score, got %q", msg)
	}
}

func TestRetrievalTransportDistinction(t *testing.T) {
	rejected := NewRetrievalStatus(500, "boom")
	if rejected.Transport() {
		t.Error("status error must not report as transport failure")
	}

	transport := NewRetrievalTransport(fmt.Errorf("connection refused"))
	if !transport.Transport() {
		t.Error("transport error must report as transport failure")
	}
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("model unavailable")

	var ierr *InterpretationError
	wrapped := fmt.Errorf("processing failed: %w", NewInterpretation(cause))
	if !stderrors.As(wrapped, &ierr) {
		t.Fatal("errors.As must find InterpretationError through wrapping")
	}
	if !stderrors.Is(wrapped, cause) {
		t.Error("errors.Is must reach the original cause")
	}

	aerr := NewAnalysis("Timestamp: 1, Message: m", 1, cause)
	if !stderrors.Is(aerr, cause) {
		t.Error("AnalysisError must unwrap to its cause")
	}
	if aerr.RawLogs == "" || aerr.CompletedBatches != 1 {
		t.Error("AnalysisError must preserve raw logs and completed batch count")
	}
}
