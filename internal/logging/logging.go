// Package logging builds the structured JSON logger shared by the handlers.
package logging

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Field names used across packages.
const (
	FieldRequestID   = "aws_request_id"
	FieldFeature     = "feature"
	FieldUserID      = "user_id"
	FieldNative      = "native_language"
	FieldTarget      = "target_language"
	FieldLocale      = "locale"
	FieldErrorKind   = "error_kind"
	FieldStatus      = "status"
	FieldMethod      = "method"
	FieldJobName     = "job_name"
	FieldObjectKey   = "object_key"
	FieldEnvironment = "environment"
)

// Options describes logger construction parameters.
type Options struct {
	Level       string
	Environment string
	Feature     string
}

// New constructs a JSON zap logger writing to stdout, which Lambda ships
// to CloudWatch.
func New(opts Options) (*zap.Logger, error) {
	level, err := parseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	fields := []zap.Field{zap.String(FieldEnvironment, opts.Environment)}
	if opts.Feature != "" {
		fields = append(fields, zap.String(FieldFeature, opts.Feature))
	}
	return logger.With(fields...), nil
}

// WithRequest returns logger annotated with the Lambda request id of ctx,
// when there is one.
func WithRequest(ctx context.Context, logger *zap.Logger) *zap.Logger {
	if lc, ok := lambdacontext.FromContext(ctx); ok && lc.AwsRequestID != "" {
		return logger.With(zap.String(FieldRequestID, lc.AwsRequestID))
	}
	return logger
}

type loggerKey struct{}

// NewContext returns a copy of ctx carrying logger.
func NewContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the logger stored by NewContext, or fallback.
func FromContext(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*zap.Logger); ok && l != nil {
		return l
	}
	if fallback == nil {
		return zap.NewNop()
	}
	return fallback
}

func parseLevel(s string) (zapcore.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return zapcore.InfoLevel, nil
	}
	if s == "warning" {
		s = "warn"
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("log level: unsupported value %q", s)
	}
	return level, nil
}
