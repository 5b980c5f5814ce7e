// Command ollama-tools turns free-text operator requests into bounded
// log store queries and grounded natural-language analyses.
//
// Configuration is provided through environment variables:
//   - BASE_URL: log store range-query endpoint (required)
//   - TOKEN: bearer token for the log store (required)
//   - OLLAMA_BASE_URL: OpenAI-compatible model endpoint (default http://localhost:11434/v1)
//   - OLLAMA_MODEL: model identifier (default qwen2.5:14b)
//   - CONTAINERS_FILE: optional YAML file overriding the container enumeration
//   - METRICS_ADDR: listen address for the health and metrics endpoints
//   - ENVIRONMENT: set to "production" for production logging
//
// Example usage:
//
//	export BASE_URL="https://logs.example.com/loki/api/v1/query_range"
//	export TOKEN="<token>"
//	./ollama-tools
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Yaswanth-Vempuluru-7916/ollama-tools/internal/config"
	"github.com/Yaswanth-Vempuluru-7916/ollama-tools/internal/health"
	"github.com/Yaswanth-Vempuluru-7916/ollama-tools/internal/llm/openai"
	"github.com/Yaswanth-Vempuluru-7916/ollama-tools/internal/logstore"
	"github.com/Yaswanth-Vempuluru-7916/ollama-tools/internal/metrics"
	"github.com/Yaswanth-Vempuluru-7916/ollama-tools/internal/pipeline"
	"github.com/Yaswanth-Vempuluru-7916/ollama-tools/internal/tracing"
)

// Build information - set at build time via ldflags
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	// Load .env file if it exists (optional, for development)
	_ = godotenv.Load()

	logger, err := initLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync() // Ignore error on cleanup
	}()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	logger.Info("Starting log analysis pipeline",
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("endpoint", cfg.BaseURL),
		zap.String("model", cfg.Model),
		zap.String("token", config.MaskToken(cfg.Token)),
		zap.Int("containers", len(cfg.Containers)),
	)

	shutdownTracing, err := tracing.Init(tracing.Config{
		ServiceName:    "log-pipeline",
		ServiceVersion: version,
		Environment:    cfg.Environment,
		Enabled:        cfg.EnableTracing,
	})
	if err != nil {
		logger.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	m := metrics.New(prometheus.DefaultRegisterer, logger)

	llmClient := openai.NewClient(cfg.LLMBaseURL, "ollama", cfg.Model)
	store, err := logstore.New(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create log store client", zap.Error(err))
	}
	defer func() {
		_ = store.Close()
	}()

	pipe := pipeline.New(cfg, llmClient, store, m, logger)

	var ops *health.Server
	if cfg.MetricsAddr != "" {
		checker := health.New(store, llmClient, cfg.DefaultContainer, logger)
		ops = health.NewServer(checker, logger, cfg.MetricsAddr)
		go func() {
			if err := ops.Start(); err != nil {
				logger.Error("Operational server failed", zap.Error(err))
			}
		}()
		ops.SetReady(true)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runLoop(ctx, pipe, logger)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if ops != nil {
		if err := ops.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Operational server shutdown failed", zap.Error(err))
		}
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("Tracing shutdown failed", zap.Error(err))
	}
}

// runLoop reads prompts from stdin until "quit" or cancellation
func runLoop(ctx context.Context, pipe *pipeline.Pipeline, logger *zap.Logger) {
	fmt.Println("Prompt examples: 'Fetch logs from /staging-cobi-v2', or 'quit' to exit.")

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("\nPrompt: ")
		if !scanner.Scan() {
			return
		}
		if ctx.Err() != nil {
			return
		}

		prompt := strings.TrimSpace(scanner.Text())
		if prompt == "" {
			continue
		}
		if strings.EqualFold(prompt, "quit") {
			return
		}

		start := time.Now()
		result, err := pipe.Process(ctx, prompt)
		total := time.Since(start)

		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			fmt.Printf("\nError: %v\n", err)
			continue
		}

		fmt.Printf("\nArguments: %s\n", result.Arguments)
		fmt.Printf("Raw Logs:\n%s\n", result.RawLogs)
		fmt.Printf("Result:\n%s\n", result.Analysis)
		fmt.Printf("\nTotal time: %.2fs\n", total.Seconds())
		logger.Debug("Request completed", zap.Duration("total", total))
	}
}

// initLogger creates a production logger if ENVIRONMENT=production,
// otherwise a development logger with more verbose output.
func initLogger() (*zap.Logger, error) {
	if os.Getenv("ENVIRONMENT") == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
