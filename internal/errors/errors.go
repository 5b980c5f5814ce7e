// Package errors defines the typed failure kinds of the pipeline.
// Every failure that reaches the caller maps to exactly one kind.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies a pipeline failure
type Kind string

const (
	// KindConfiguration indicates missing credentials or endpoints; fatal
	// before any network call
	KindConfiguration Kind = "CONFIGURATION"
	// KindInterpretation indicates the model call failed during the intent step
	KindInterpretation Kind = "INTERPRETATION"
	// KindInvalidContainer indicates the fuzzy score fell below the threshold
	KindInvalidContainer Kind = "INVALID_CONTAINER"
	// KindInvalidArgument indicates a non-conforming invocation argument
	// rejected at the resolver boundary
	KindInvalidArgument Kind = "INVALID_ARGUMENT"
	// KindRetrieval indicates a log store HTTP or transport failure
	KindRetrieval Kind = "RETRIEVAL"
	// KindAnalysis indicates a model call failed mid-batch
	KindAnalysis Kind = "ANALYSIS"
)

// ConfigurationError aborts the pipeline before any network call.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("[%s] %s", KindConfiguration, e.Message)
}

// NewConfiguration creates a configuration error
func NewConfiguration(message string) *ConfigurationError {
	return &ConfigurationError{Message: message}
}

// InterpretationError wraps a failed intent-step model call. Surfaced
// verbatim, never retried.
type InterpretationError struct {
	Err error
}

func (e *InterpretationError) Error() string {
	return fmt.Sprintf("[%s] intent interpretation failed: %v", KindInterpretation, e.Err)
}

func (e *InterpretationError) Unwrap() error { return e.Err }

// NewInterpretation wraps an intent-step failure
func NewInterpretation(err error) *InterpretationError {
	return &InterpretationError{Err: err}
}

// InvalidContainerError reports a container that matched nothing in the
// enumeration closely enough, naming the closest candidate and its score.
type InvalidContainerError struct {
	Input   string
	Closest string
	Score   int
}

func (e *InvalidContainerError) Error() string {
	return fmt.Sprintf("[%s] invalid container: %s. Closest match: %s (score: %d)",
		KindInvalidContainer, e.Input, e.Closest, e.Score)
}

// NewInvalidContainer creates an invalid container error
func NewInvalidContainer(input, closest string, score int) *InvalidContainerError {
	return &InvalidContainerError{Input: input, Closest: closest, Score: score}
}

// InvalidArgumentError reports an invocation argument the resolver could
// not convert into the typed query.
type InvalidArgumentError struct {
	Field string
	Value any
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("[%s] invalid value for %s: %v", KindInvalidArgument, e.Field, e.Value)
}

// NewInvalidArgument creates an invalid argument error
func NewInvalidArgument(field string, value any) *InvalidArgumentError {
	return &InvalidArgumentError{Field: field, Value: value}
}

// RetrievalError reports a log store failure, distinguishing a rejected
// request (Status > 0) from a transport failure (Status == 0).
type RetrievalError struct {
	Status int
	Body   string
	Err    error
}

func (e *RetrievalError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("[%s] log store request failed: HTTP %d - %s", KindRetrieval, e.Status, e.Body)
	}
	return fmt.Sprintf("[%s] log store request failed: %v", KindRetrieval, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// Transport reports whether the failure happened before a status code
// was received
func (e *RetrievalError) Transport() bool { return e.Status == 0 }

// NewRetrievalStatus creates a retrieval error from a non-success response
func NewRetrievalStatus(status int, body string) *RetrievalError {
	return &RetrievalError{Status: status, Body: body}
}

// NewRetrievalTransport creates a retrieval error from a transport failure
func NewRetrievalTransport(err error) *RetrievalError {
	return &RetrievalError{Err: err}
}

// AnalysisError reports a model failure mid-batch. It embeds the rendered
// raw records so retrieved data survives a failed summarization.
type AnalysisError struct {
	RawLogs          string
	CompletedBatches int
	Err              error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("[%s] analysis failed after %d batch(es): %v",
		KindAnalysis, e.CompletedBatches, e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// NewAnalysis wraps a mid-batch analysis failure
func NewAnalysis(rawLogs string, completed int, err error) *AnalysisError {
	return &AnalysisError{RawLogs: rawLogs, CompletedBatches: completed, Err: err}
}

// KindOf returns the kind of a pipeline error, or "" for foreign errors.
// Wrapped errors classify by their innermost typed kind.
func KindOf(err error) Kind {
	var (
		configErr    *ConfigurationError
		interpErr    *InterpretationError
		containerErr *InvalidContainerError
		argumentErr  *InvalidArgumentError
		retrievalErr *RetrievalError
		analysisErr  *AnalysisError
	)
	switch {
	case stderrors.As(err, &configErr):
		return KindConfiguration
	case stderrors.As(err, &interpErr):
		return KindInterpretation
	case stderrors.As(err, &containerErr):
		return KindInvalidContainer
	case stderrors.As(err, &argumentErr):
		return KindInvalidArgument
	case stderrors.As(err, &retrievalErr):
		return KindRetrieval
	case stderrors.As(err, &analysisErr):
		return KindAnalysis
	default:
		return ""
	}
}
