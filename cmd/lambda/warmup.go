package main

// Scheduled warmup events keep instances of the function alive. An event
// with a concurrency above zero makes this instance invoke the function
// that many more times asynchronously, so several instances stay warm.

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	lambdasdk "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// WarmupSource identifies warmup events from EventBridge.
	WarmupSource = "warmup"

	// WarmupDelay keeps this instance busy long enough for the invocations
	// it sent to land on other instances.
	WarmupDelay = 75 * time.Millisecond
)

// WarmupEvent is the scheduled warmup payload.
type WarmupEvent struct {
	Source      string `json:"source"`
	Concurrency int    `json:"concurrency"`
}

// WarmupResponse reports how many instances a warmup reached.
type WarmupResponse struct {
	Status          string `json:"status"`
	InstancesWarmed int    `json:"instancesWarmed"`
}

type warmupResult struct {
	StatusCode int            `json:"statusCode"`
	Body       WarmupResponse `json:"body"`
}

// InvokeAPI is the subset of *lambda.Client used for self invocation.
type InvokeAPI interface {
	Invoke(ctx context.Context, params *lambdasdk.InvokeInput, optFns ...func(*lambdasdk.Options)) (*lambdasdk.InvokeOutput, error)
}

// IsWarmupEvent reports whether event is a warmup event. API Gateway
// events never carry a "source" field.
func IsWarmupEvent(event json.RawMessage) (*WarmupEvent, bool) {
	var probe struct {
		Source      string   `json:"source"`
		Concurrency *float64 `json:"concurrency"`
	}
	if err := json.Unmarshal(event, &probe); err != nil || probe.Source != WarmupSource {
		return nil, false
	}

	warmup := &WarmupEvent{Source: probe.Source}
	if probe.Concurrency != nil && *probe.Concurrency > 0 {
		warmup.Concurrency = int(*probe.Concurrency)
	}
	return warmup, true
}

type warmer struct {
	client         InvokeAPI
	functionName   string
	maxConcurrency int
	delay          time.Duration
	logger         *zap.Logger
}

// Handle answers a warmup event, fanning out to at most maxConcurrency
// asynchronous self invocations.
func (w *warmer) Handle(ctx context.Context, warmup *WarmupEvent) (warmupResult, error) {
	count := min(warmup.Concurrency, w.maxConcurrency)
	warmed := 1 // this instance
	if count > 0 && w.functionName != "" {
		warmed += w.invoke(ctx, count)
	}

	w.logger.Info("warmup handled",
		zap.Int("requested", warmup.Concurrency),
		zap.Int("instances_warmed", warmed))

	select {
	case <-ctx.Done():
	case <-time.After(w.delay):
	}

	return warmupResult{
		StatusCode: http.StatusOK,
		Body:       WarmupResponse{Status: "warm", InstancesWarmed: warmed},
	}, nil
}

// invoke sends count asynchronous invocations and returns how many were
// accepted. Children get concurrency zero so they never fan out again.
func (w *warmer) invoke(ctx context.Context, count int) int {
	payload, err := json.Marshal(WarmupEvent{Source: WarmupSource})
	if err != nil {
		w.logger.Error("encode warmup payload", zap.Error(err))
		return 0
	}

	var accepted atomic.Int64
	var g errgroup.Group
	g.SetLimit(count)
	for range count {
		g.Go(func() error {
			_, err := w.client.Invoke(ctx, &lambdasdk.InvokeInput{
				FunctionName:   aws.String(w.functionName),
				InvocationType: types.InvocationTypeEvent,
				Payload:        payload,
			})
			if err != nil {
				w.logger.Warn("warmup invocation failed", zap.Error(err))
				return nil
			}
			accepted.Add(1)
			return nil
		})
	}
	_ = g.Wait()
	return int(accepted.Load())
}
