package health

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Yaswanth-Vempuluru-7916/ollama-tools/internal/llm"
	"github.com/Yaswanth-Vempuluru-7916/ollama-tools/internal/logstore"
	"github.com/Yaswanth-Vempuluru-7916/ollama-tools/internal/resolve"
)

// Status represents the health status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// Check represents a health check result
type Check struct {
	Name      string        `json:"name"`
	Status    Status        `json:"status"`
	Message   string        `json:"message,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"duration"`
}

// Prober executes a bounded probe query against the log store
type Prober interface {
	FetchLogs(ctx context.Context, query *resolve.Query) (*logstore.QueryResponse, error)
}

// Checker performs health checks against the two external dependencies:
// the log store and the model endpoint.
type Checker struct {
	store     Prober
	model     llm.Client
	container string
	logger    *zap.Logger
}

// New creates a new health checker. container is the container used for
// the store probe query.
func New(store Prober, model llm.Client, container string, logger *zap.Logger) *Checker {
	return &Checker{
		store:     store,
		model:     model,
		container: container,
		logger:    logger,
	}
}

// CheckAll performs all health checks
func (c *Checker) CheckAll(ctx context.Context) (Status, []Check) {
	checks := []Check{
		c.checkLogStore(ctx),
		c.checkModel(ctx),
	}

	// Determine overall status
	overallStatus := StatusHealthy
	for _, check := range checks {
		if check.Status == StatusUnhealthy {
			overallStatus = StatusUnhealthy
			break
		} else if check.Status == StatusDegraded && overallStatus == StatusHealthy {
			overallStatus = StatusDegraded
		}
	}

	return overallStatus, checks
}

// checkLogStore verifies log store connectivity with a one-record probe
// over the last five minutes.
func (c *Checker) checkLogStore(ctx context.Context) Check {
	start := time.Now()
	check := Check{
		Name:      "log_store",
		Timestamp: start,
	}

	now := start.Unix()
	query := &resolve.Query{
		Container: c.container,
		Start:     now - 300,
		End:       now,
		Limit:     1,
	}

	// Use a short timeout for health checks
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := c.store.FetchLogs(checkCtx, query)
	check.Duration = time.Since(start)

	if err != nil {
		// Degraded if the store is slow but has not outright refused us
		if check.Duration > 3*time.Second {
			check.Status = StatusDegraded
			check.Message = "Log store responding slowly"
		} else {
			check.Status = StatusUnhealthy
			check.Message = fmt.Sprintf("Log store unreachable: %v", err)
		}
		c.logger.Warn("Health check failed: log store",
			zap.Error(err),
			zap.Duration("duration", check.Duration),
		)
	} else {
		check.Status = StatusHealthy
		check.Message = "Log store reachable"
		c.logger.Debug("Health check passed: log store",
			zap.Duration("duration", check.Duration),
		)
	}

	return check
}

// checkModel verifies the model endpoint answers a trivial exchange
func (c *Checker) checkModel(ctx context.Context) Check {
	start := time.Now()
	check := Check{
		Name:      "model",
		Timestamp: start,
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := c.model.Chat(checkCtx, &llm.ChatRequest{
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: "Reply with OK."},
		},
	})
	check.Duration = time.Since(start)

	if err != nil {
		if check.Duration > 5*time.Second {
			check.Status = StatusDegraded
			check.Message = "Model responding slowly"
		} else {
			check.Status = StatusUnhealthy
			check.Message = fmt.Sprintf("Model unreachable: %v", err)
		}
		c.logger.Warn("Health check failed: model",
			zap.Error(err),
			zap.String("model", c.model.Model()),
			zap.Duration("duration", check.Duration),
		)
	} else {
		check.Status = StatusHealthy
		check.Message = "Model reachable"
		c.logger.Debug("Health check passed: model",
			zap.Duration("duration", check.Duration),
		)
	}

	return check
}
