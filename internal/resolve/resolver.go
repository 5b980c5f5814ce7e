// Package resolve validates and normalizes raw invocation arguments into
// a safe, bounded query. It is the single boundary between the model's
// untyped output and the retrieval client.
package resolve

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
	"go.uber.org/zap"

	"github.com/Yaswanth-Vempuluru-7916/ollama-tools/internal/config"
	perrors "github.com/Yaswanth-Vempuluru-7916/ollama-tools/internal/errors"
)

// Keyword families signaling the user meant to specify a field. Arguments
// for fields the user never mentioned are discarded rather than trusted.
var (
	startKeywords = []string{"start", "from", "beginning"}
	endKeywords   = []string{"end", "to", "until"}
	limitKeyword  = "limit"
)

// Query is a validated, bounded log store query.
// Invariants: Start <= End, End-Start <= max lookback, 1 <= Limit <= max.
type Query struct {
	Container string
	Start     int64 // unix seconds
	End       int64 // unix seconds
	Limit     int
}

// Display renders the effective values actually used, never the raw
// unvalidated model output.
func (q *Query) Display() string {
	return fmt.Sprintf("container=%q start=%d end=%d limit=%d", q.Container, q.Start, q.End, q.Limit)
}

// Resolver turns raw invocation arguments into a Query
type Resolver struct {
	containers       []string
	defaultContainer string
	threshold        int
	defaultRange     time.Duration
	maxLookback      time.Duration
	defaultLimit     int
	maxLimit         int
	now              func() time.Time
	logger           *zap.Logger
}

// New creates a resolver from the immutable configuration
func New(cfg *config.Config, logger *zap.Logger) *Resolver {
	return &Resolver{
		containers:       cfg.Containers,
		defaultContainer: cfg.DefaultContainer,
		threshold:        cfg.FuzzyThreshold,
		defaultRange:     cfg.DefaultTimeRange,
		maxLookback:      cfg.MaxLookback,
		defaultLimit:     cfg.DefaultLimit,
		maxLimit:         cfg.MaxLimit,
		now:              time.Now,
		logger:           logger,
	}
}

// WithClock overrides the time source. For tests.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	r.now = now
	return r
}

// Resolve validates the raw argument mapping against the prompt text and
// produces a bounded query. Model-supplied start/end/limit are honored
// only when the prompt signals intent to specify them.
func (r *Resolver) Resolve(args map[string]any, prompt string) (*Query, error) {
	container, err := r.resolveContainer(args)
	if err != nil {
		return nil, err
	}

	promptLower := strings.ToLower(prompt)
	hasStart := containsAny(promptLower, startKeywords)
	hasEnd := containsAny(promptLower, endKeywords)
	hasLimit := strings.Contains(promptLower, limitKeyword)

	now := r.now().Unix()
	start := now - int64(r.defaultRange.Seconds())
	end := now
	limit := r.defaultLimit

	if hasStart {
		if v, ok, err := coerceInt(args["start_time"]); err != nil {
			return nil, perrors.NewInvalidArgument("start_time", args["start_time"])
		} else if ok {
			start = v
		}
	}
	if hasEnd {
		if v, ok, err := coerceInt(args["end_time"]); err != nil {
			return nil, perrors.NewInvalidArgument("end_time", args["end_time"])
		} else if ok {
			end = v
		}
	}
	if hasLimit {
		if v, ok, err := coerceInt(args["limit"]); err != nil {
			return nil, perrors.NewInvalidArgument("limit", args["limit"])
		} else if ok {
			limit = int(v)
		}
	}

	if start > end {
		start, end = end, start
	}
	if maxWindow := int64(r.maxLookback.Seconds()); end-start > maxWindow {
		start = end - maxWindow
	}
	if limit < 1 {
		limit = 1
	}
	if limit > r.maxLimit {
		limit = r.maxLimit
	}

	q := &Query{Container: container, Start: start, End: end, Limit: limit}
	r.logger.Debug("Resolved query", zap.String("arguments", q.Display()))
	return q, nil
}

// resolveContainer canonicalizes the raw container name and matches it
// against the closed enumeration with approximate string similarity.
func (r *Resolver) resolveContainer(args map[string]any) (string, error) {
	raw, _ := args["container"].(string)
	if raw == "" {
		raw = r.defaultContainer
	}

	canonical := strings.ReplaceAll(raw, " ", "-")
	if !strings.HasPrefix(canonical, "/") {
		canonical = "/" + canonical
	}

	match, err := fuzzy.ExtractOne(canonical, r.containers)
	if err != nil {
		return "", perrors.NewInvalidContainer(canonical, "", 0)
	}
	if match.Score < r.threshold {
		return "", perrors.NewInvalidContainer(canonical, match.Match, match.Score)
	}

	return match.Match, nil
}

// coerceInt converts an argument value to int64. Digit-only strings
// convert; absent values report ok=false; anything else is an error for
// the caller to reject.
func coerceInt(v any) (int64, bool, error) {
	switch val := v.(type) {
	case nil:
		return 0, false, nil
	case float64:
		return int64(val), true, nil
	case int:
		return int64(val), true, nil
	case int64:
		return val, true, nil
	case string:
		if val == "" {
			return 0, false, nil
		}
		if !isDigits(val) {
			return 0, false, fmt.Errorf("not a digit-only string: %q", val)
		}
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return 0, false, err
		}
		return n, true, nil
	default:
		return 0, false, fmt.Errorf("unsupported value type %T", v)
	}
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
