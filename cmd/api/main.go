// Package main is the entry point for the SheGymZ API server.
//
// It loads configuration, wires the PayFast intent builder and notification
// verifier into the HTTP handlers, and serves the API either as a standard
// HTTP server or, when started by the Lambda runtime, as a Lambda function
// behind a function URL or an API Gateway HTTP API.
//
// Graceful shutdown in HTTP mode is handled via OS signal interception
// (SIGINT, SIGTERM).
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"shegymz/internal/api/handlers"
	"shegymz/internal/config"
	"shegymz/internal/core"
	"shegymz/internal/payfast"
	"shegymz/internal/telemetry"
)

// shutdownTimeout bounds graceful shutdown in HTTP mode.
const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so that main() can cleanly exit on error.
func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("shegymz API starting",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
		"commit", cfg.Build.Commit,
		"port", cfg.Server.Port,
		"payfast_sandbox", cfg.PayFast.Sandbox,
	)

	ctx := context.Background()

	var metrics *telemetry.CloudWatchMetrics
	if cfg.Observability.EnableMetrics {
		metrics, err = newCloudWatchMetrics(ctx, cfg, logger)
		if err != nil {
			return err
		}
	}

	srv, err := buildServer(cfg, logger, metrics)
	if err != nil {
		return err
	}

	if isLambdaEnvironment() {
		return runLambda(srv, metrics, logger)
	}

	return runHTTPServer(srv, cfg, logger)
}

// buildServer wires handlers into the core chassis and mounts all routes.
// metrics may be nil, in which case no telemetry is recorded.
func buildServer(cfg *config.Config, logger *slog.Logger, metrics *telemetry.CloudWatchMetrics) (*core.Server, error) {
	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("creating server: %w", err)
	}

	var recorder handlers.NotificationRecorder
	if metrics != nil {
		srv.Metrics = metrics
		recorder = metrics
	}

	merchant := cfg.PayFast.MerchantConfig()
	if merchant.Passphrase == "" {
		logger.Warn("PAYFAST_PASSPHRASE is not set; signatures are computed without a passphrase")
	}

	subscribeHandler := handlers.NewSubscribeHandler(
		payfast.NewIntentBuilder(merchant),
		srv.Validator,
		logger,
	)
	webhookHandler := handlers.NewPayFastWebhookHandler(
		payfast.NewVerifier(merchant.MerchantID, merchant.Passphrase),
		recorder,
		logger,
	)

	srv.APIRouteRegistrars = append(srv.APIRouteRegistrars,
		func(r chi.Router) { subscribeHandler.RegisterRoutes(r) },
		func(r chi.Router) { webhookHandler.RegisterRoutes(r) },
	)

	srv.MountRoutes()
	return srv, nil
}

// newCloudWatchMetrics builds the CloudWatch publisher from the default AWS
// credential chain.
func newCloudWatchMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*telemetry.CloudWatchMetrics, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Observability.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := cloudwatch.NewFromConfig(awsCfg)
	return telemetry.NewCloudWatchMetrics(client, cfg.Observability.MetricNamespace, logger), nil
}

// isLambdaEnvironment returns true if the process is running inside AWS Lambda.
func isLambdaEnvironment() bool {
	_, hasRuntimeAPI := os.LookupEnv("AWS_LAMBDA_RUNTIME_API")
	_, hasServerPort := os.LookupEnv("_LAMBDA_SERVER_PORT")
	return hasRuntimeAPI || hasServerPort
}

// runLambda serves the router through the Lambda runtime. Buffered metrics
// are flushed at the end of every invocation because the execution
// environment may be frozen between invocations.
func runLambda(srv *core.Server, metrics *telemetry.CloudWatchMetrics, logger *slog.Logger) error {
	logger.Info("starting in Lambda mode")

	lambda.Start(newLambdaEntry(core.NewLambdaHandler(srv.Handler()), metrics, logger))
	return nil
}

type lambdaEntry func(ctx context.Context, event events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error)

func newLambdaEntry(h *core.LambdaHandler, metrics *telemetry.CloudWatchMetrics, logger *slog.Logger) lambdaEntry {
	return func(ctx context.Context, event events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		resp, err := h.Handle(ctx, event)
		if metrics != nil {
			if flushErr := metrics.Flush(ctx); flushErr != nil {
				logger.Error("failed to flush metrics", "error", flushErr)
			}
		}
		return resp, err
	}
}

// runHTTPServer starts the server in standard HTTP mode with graceful shutdown.
func runHTTPServer(srv *core.Server, cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := ":" + cfg.Server.Port
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("initiating graceful shutdown")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "error", err)
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("server stopped cleanly")
	return nil
}

// newLogger creates a structured slog.Logger configured for the given log level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
