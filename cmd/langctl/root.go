package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/lingualoop/learning-api/internal/config"
	"github.com/lingualoop/learning-api/internal/langcache"
	"github.com/lingualoop/learning-api/internal/resolver"
	"github.com/lingualoop/learning-api/internal/store"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// userResolver resolves one user's language pair.
type userResolver interface {
	ResolveForUser(ctx context.Context, userID string) (resolver.Context, error)
}

// sharedCache is the Redis language cache the Lambda instances share.
type sharedCache interface {
	Delete(ctx context.Context, userID string) (int64, error)
	Purge(ctx context.Context) (int64, error)
}

var errNoRedis = errors.New("REDIS_ADDR is not set; instance caches expire on their own after LANGUAGE_CACHE_TTL")

type commandContext struct {
	configOnce sync.Once
	config     *config.Config
	configErr  error

	newResolver func(ctx context.Context, cfg *config.Config) (userResolver, error)
	newCache    func(cfg *config.Config) (sharedCache, error)
}

func newCommandContext() *commandContext {
	return &commandContext{
		newResolver: dynamoResolver,
		newCache:    redisCache,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		c.config, c.configErr = config.Load()
	})
	return c.config, c.configErr
}

func (c *commandContext) resolver(ctx context.Context) (userResolver, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return c.newResolver(ctx, cfg)
}

func (c *commandContext) cache() (sharedCache, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return c.newCache(cfg)
}

// dynamoResolver reads the users table directly, bypassing every cache.
func dynamoResolver(ctx context.Context, cfg *config.Config) (userResolver, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	users := store.NewUsers(dynamodb.NewFromConfig(awsCfg), cfg.UsersTable, cfg.StoreTimeout)
	return resolver.New(users, resolver.WithStoreTimeout(cfg.StoreTimeout)), nil
}

func redisCache(cfg *config.Config) (sharedCache, error) {
	if cfg.RedisAddr == "" {
		return nil, errNoRedis
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return langcache.NewRedis(client, cfg.LanguageCacheTTL, nil), nil
}

func newRootCommand(ctx *commandContext) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "langctl",
		Short:         "Inspect learning API languages and language caches",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(newLanguagesCommand())
	rootCmd.AddCommand(newResolveCommand(ctx))
	rootCmd.AddCommand(newInvalidateCommand(ctx))

	return rootCmd
}
