// Package pipeline orchestrates one request end to end: interpret the
// prompt, resolve the invocation into a bounded query, retrieve and
// normalize the logs, and analyze them in batches.
package pipeline

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/Yaswanth-Vempuluru-7916/ollama-tools/internal/analyze"
	"github.com/Yaswanth-Vempuluru-7916/ollama-tools/internal/config"
	"github.com/Yaswanth-Vempuluru-7916/ollama-tools/internal/contract"
	perrors "github.com/Yaswanth-Vempuluru-7916/ollama-tools/internal/errors"
	"github.com/Yaswanth-Vempuluru-7916/ollama-tools/internal/interpret"
	"github.com/Yaswanth-Vempuluru-7916/ollama-tools/internal/llm"
	"github.com/Yaswanth-Vempuluru-7916/ollama-tools/internal/logstore"
	"github.com/Yaswanth-Vempuluru-7916/ollama-tools/internal/metrics"
	"github.com/Yaswanth-Vempuluru-7916/ollama-tools/internal/normalize"
	"github.com/Yaswanth-Vempuluru-7916/ollama-tools/internal/resolve"
	"github.com/Yaswanth-Vempuluru-7916/ollama-tools/internal/tracing"
)

// Stage names a step of the per-request state machine
type Stage string

const (
	StageInterpreting Stage = "interpreting"
	StageResolving    Stage = "resolving"
	StageRetrieving   Stage = "retrieving"
	StageNormalizing  Stage = "normalizing"
	StageAnalyzing    Stage = "analyzing"
)

// Result is the three-part contract exposed upward: the effective
// arguments actually used, the raw flattened log text, and the final
// analysis text (or the fixed empty-result message).
type Result struct {
	Arguments string
	RawLogs   string
	Analysis  string
}

// Fetcher executes a bounded query against the log store
type Fetcher interface {
	FetchLogs(ctx context.Context, query *resolve.Query) (*logstore.QueryResponse, error)
}

// Pipeline processes prompts. Safe for concurrent use: all shared state
// (contract, enumeration, thresholds) is read-only after construction.
type Pipeline struct {
	cfg         *config.Config
	interpreter *interpret.Interpreter
	resolver    *resolve.Resolver
	store       Fetcher
	normalizer  *normalize.Normalizer
	analyzer    *analyze.Analyzer
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

// New wires the pipeline from its collaborators
func New(cfg *config.Config, llmClient llm.Client, store Fetcher, m *metrics.Metrics, logger *zap.Logger) *Pipeline {
	c := contract.New(cfg.Containers, cfg.MaxLimit)
	return &Pipeline{
		cfg:         cfg,
		interpreter: interpret.New(llmClient, c, cfg.Containers, cfg.InterpretTimeout, logger),
		resolver:    resolve.New(cfg, logger),
		store:       store,
		normalizer:  normalize.New(cfg.TimestampUnit),
		analyzer:    analyze.New(llmClient, cfg.BatchSize, cfg.AnalyzeTimeout, logger),
		metrics:     m,
		logger:      logger,
	}
}

// Resolver exposes the resolver for clock injection in tests
func (p *Pipeline) Resolver() *resolve.Resolver {
	return p.resolver
}

// Process runs one request through the state machine. Each request is
// strictly sequential; cancellation is honored at stage and batch
// boundaries.
func (p *Pipeline) Process(ctx context.Context, prompt string) (*Result, error) {
	p.metrics.RecordRequest()

	outcome, err := p.interpretStage(ctx, prompt)
	if err != nil {
		return nil, p.fail(StageInterpreting, err)
	}

	if outcome.Answered() {
		p.logger.Info("Prompt answered directly, no retrieval needed")
		return &Result{Analysis: outcome.Answer}, nil
	}

	invocations := outcome.Invocations
	if p.cfg.InvocationMode == config.FirstOnly && len(invocations) > 1 {
		// Documented simplification: later invocations are discarded, not
		// silently - each discard is logged and counted.
		for _, discarded := range invocations[1:] {
			p.logger.Warn("Discarding extra tool invocation",
				zap.String("id", discarded.ID),
				zap.Any("arguments", discarded.Arguments),
			)
			p.metrics.RecordInvocation("discarded")
		}
		invocations = invocations[:1]
	}

	parts := make([]*Result, 0, len(invocations))
	for _, inv := range invocations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p.metrics.RecordInvocation("processed")

		part, err := p.runInvocation(ctx, inv, prompt)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}

	return merge(parts), nil
}

// runInvocation runs the resolve -> retrieve -> normalize -> analyze leg
// for one invocation.
func (p *Pipeline) runInvocation(ctx context.Context, inv contract.Invocation, prompt string) (*Result, error) {
	query, err := p.resolveStage(ctx, inv, prompt)
	if err != nil {
		return nil, p.fail(StageResolving, err)
	}

	raw, err := p.retrieveStage(ctx, query)
	if err != nil {
		return nil, p.fail(StageRetrieving, err)
	}

	records := p.normalizeStage(ctx, raw)
	p.metrics.ObserveRecords(len(records))

	if len(records) == 0 {
		p.logger.Info("No records after normalization, skipping analysis",
			zap.String("arguments", query.Display()),
		)
		return &Result{
			Arguments: query.Display(),
			Analysis:  normalize.EmptyResultMessage,
		}, nil
	}

	analysis, err := p.analyzeStage(ctx, records, prompt)
	if err != nil {
		return nil, p.fail(StageAnalyzing, err)
	}

	return &Result{
		Arguments: query.Display(),
		RawLogs:   normalize.RenderLines(records),
		Analysis:  analysis,
	}, nil
}

func (p *Pipeline) interpretStage(ctx context.Context, prompt string) (*interpret.Outcome, error) {
	ctx, span := tracing.StartSpan(ctx, "pipeline.interpret")
	defer span.End()

	start := time.Now()
	outcome, err := p.interpreter.Interpret(ctx, prompt)
	p.metrics.ObserveStage(string(StageInterpreting), time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return outcome, nil
}

func (p *Pipeline) resolveStage(ctx context.Context, inv contract.Invocation, prompt string) (*resolve.Query, error) {
	_, span := tracing.StartSpan(ctx, "pipeline.resolve")
	defer span.End()

	start := time.Now()
	query, err := p.resolver.Resolve(inv.Arguments, prompt)
	p.metrics.ObserveStage(string(StageResolving), time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("container", query.Container))
	return query, nil
}

func (p *Pipeline) retrieveStage(ctx context.Context, query *resolve.Query) (*logstore.QueryResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "pipeline.retrieve",
		attribute.String("container", query.Container),
	)
	defer span.End()

	start := time.Now()
	raw, err := p.store.FetchLogs(ctx, query)
	p.metrics.ObserveStage(string(StageRetrieving), time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		if rerr, ok := err.(*perrors.RetrievalError); ok && rerr.Transport() {
			p.metrics.RecordRetrieval("transport")
		} else {
			p.metrics.RecordRetrieval("rejected")
		}
		return nil, err
	}
	p.metrics.RecordRetrieval("ok")
	return raw, nil
}

func (p *Pipeline) normalizeStage(ctx context.Context, raw *logstore.QueryResponse) []normalize.Record {
	_, span := tracing.StartSpan(ctx, "pipeline.normalize")
	defer span.End()

	start := time.Now()
	records := p.normalizer.Flatten(raw)
	p.metrics.ObserveStage(string(StageNormalizing), time.Since(start).Seconds())
	span.SetAttributes(attribute.Int("records", len(records)))
	return records
}

func (p *Pipeline) analyzeStage(ctx context.Context, records []normalize.Record, prompt string) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "pipeline.analyze",
		attribute.Int("records", len(records)),
	)
	defer span.End()

	start := time.Now()
	analysis, err := p.analyzer.Analyze(ctx, records, prompt)
	p.metrics.ObserveStage(string(StageAnalyzing), time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	p.metrics.RecordBatches(len(analyze.Partition(records, p.cfg.BatchSize)))
	return analysis, nil
}

func (p *Pipeline) fail(stage Stage, err error) error {
	p.metrics.RecordFailure(string(stage))
	p.logger.Error("Pipeline stage failed",
		zap.String("stage", string(stage)),
		zap.String("kind", string(perrors.KindOf(err))),
		zap.Error(err),
	)
	return err
}

// merge concatenates per-invocation results in invocation order. With a
// single invocation this is the identity.
func merge(parts []*Result) *Result {
	if len(parts) == 1 {
		return parts[0]
	}

	arguments := make([]string, 0, len(parts))
	rawLogs := make([]string, 0, len(parts))
	analyses := make([]string, 0, len(parts))
	for _, part := range parts {
		arguments = append(arguments, part.Arguments)
		if part.RawLogs != "" {
			rawLogs = append(rawLogs, part.RawLogs)
		}
		analyses = append(analyses, part.Analysis)
	}

	return &Result{
		Arguments: strings.Join(arguments, "; "),
		RawLogs:   strings.Join(rawLogs, "\n"),
		Analysis:  strings.Join(analyses, analyze.Separator),
	}
}
