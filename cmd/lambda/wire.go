package main

import (
	"context"
	"fmt"

	"github.com/aws/aws-lambda-go/lambdacontext"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	lambdasdk "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
	"github.com/lingualoop/learning-api/internal/config"
	"github.com/lingualoop/learning-api/internal/detect"
	"github.com/lingualoop/learning-api/internal/handler"
	"github.com/lingualoop/learning-api/internal/langcache"
	"github.com/lingualoop/learning-api/internal/provider"
	"github.com/lingualoop/learning-api/internal/resolver"
	"github.com/lingualoop/learning-api/internal/router"
	"github.com/lingualoop/learning-api/internal/store"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// build creates the AWS clients, stores, providers and router for cfg.
func build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	if err := cfg.Validate(cfg.Feature); err != nil {
		return nil, err
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	db := dynamodb.NewFromConfig(awsCfg)
	users := store.NewUsers(db, cfg.UsersTable, cfg.StoreTimeout)

	opts := []resolver.Option{
		resolver.WithLogger(logger),
		resolver.WithStoreTimeout(cfg.StoreTimeout),
	}
	if cache := newCache(cfg, logger); cache != nil {
		opts = append(opts, resolver.WithCache(cache))
	}

	objects := s3.NewFromConfig(awsCfg)
	jobs := transcribe.NewFromConfig(awsCfg)
	transcribeOpts := func(prefix string) provider.TranscribeOptions {
		return provider.TranscribeOptions{
			Bucket:       cfg.MediaBucket,
			KeyPrefix:    prefix,
			Timeout:      cfg.TranscribeTimeout,
			PollInterval: cfg.TranscribePollInterval,
			Logger:       logger,
		}
	}

	bedrock := bedrockruntime.NewFromConfig(awsCfg, func(o *bedrockruntime.Options) {
		if cfg.BedrockRegion != "" {
			o.Region = cfg.BedrockRegion
		}
	})

	deps := handler.Deps{
		Resolver:   resolver.New(users, opts...),
		Users:      users,
		Lessons:    store.NewLessons(db, cfg.LessonsTable, cfg.StoreTimeout),
		Vocabulary: store.NewVocabulary(db, cfg.VocabularyTable, cfg.StoreTimeout),

		Generator:     provider.NewBedrock(bedrock, cfg.BedrockModelID, cfg.BedrockMaxTokens, cfg.ProviderTimeout),
		Labels:        provider.NewRekognition(rekognition.NewFromConfig(awsCfg), cfg.ProviderTimeout),
		Transcriber:   provider.NewTranscribe(jobs, objects, transcribeOpts("audio/")),
		Pronunciation: provider.NewTranscribe(jobs, objects, transcribeOpts("pronunciation/")),
		Speech:        provider.NewPolly(polly.NewFromConfig(awsCfg), cfg.ProviderTimeout),

		Logger: logger,
	}
	// The detector loads language models for every supported language, so
	// only deployments serving translation pay for it.
	if cfg.Feature == "" || cfg.Feature == config.FeatureTranslate {
		deps.Detector = detect.New()
	}

	r, err := router.New(handler.New(deps), cfg.Feature, logger)
	if err != nil {
		return nil, err
	}

	return &app{
		router: r,
		warmer: &warmer{
			client:         lambdasdk.NewFromConfig(awsCfg),
			functionName:   lambdacontext.FunctionName,
			maxConcurrency: cfg.WarmupConcurrencyMax,
			delay:          WarmupDelay,
			logger:         logger,
		},
		logger: logger,
	}, nil
}

// newCache returns the shared Redis cache when REDIS_ADDR is set, else a
// per-instance LRU, else nil when caching is disabled.
func newCache(cfg *config.Config, logger *zap.Logger) resolver.Cache {
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return langcache.NewRedis(client, cfg.LanguageCacheTTL, logger)
	}
	if cfg.LanguageCacheSize > 0 {
		return langcache.NewMemory(cfg.LanguageCacheSize, cfg.LanguageCacheTTL)
	}
	return nil
}
