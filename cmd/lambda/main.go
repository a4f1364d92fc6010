// Package main is the entry point of the learning API Lambda function. One
// binary serves every feature; the FEATURE variable selects which routes a
// deployment exposes.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/lingualoop/learning-api/internal/config"
	"github.com/lingualoop/learning-api/internal/logging"
	"github.com/lingualoop/learning-api/internal/router"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(logging.Options{
		Level:       cfg.LogLevel,
		Environment: cfg.Environment,
		Feature:     cfg.Feature,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	a, err := build(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("cold start failed", zap.Error(err))
	}
	logger.Info("cold start complete", zap.Strings("resources", a.router.Resources()))

	lambda.Start(a.handleRequest)
}

// app is everything built once per cold start.
type app struct {
	router *router.Router
	warmer *warmer
	logger *zap.Logger
}

func (a *app) handleRequest(ctx context.Context, event json.RawMessage) (any, error) {
	// Warmup detection must run before the event is parsed as a request.
	if warmup, ok := IsWarmupEvent(event); ok {
		return a.warmer.Handle(ctx, warmup)
	}

	var req events.APIGatewayProxyRequest
	if err := json.Unmarshal(event, &req); err != nil {
		a.logger.Error("undecodable event", zap.Error(err))
		return nil, fmt.Errorf("decode request: %w", err)
	}
	return a.router.Handle(ctx, req)
}
