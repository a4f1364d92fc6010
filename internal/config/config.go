// Package config loads the per-deployment settings of the learning API
// from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Feature names, one per deployed handler.
const (
	FeatureUsers       = "users"
	FeatureLessons     = "lessons"
	FeatureQuiz        = "quiz"
	FeatureTranslate   = "translate"
	FeatureVocabulary  = "vocabulary"
	FeatureVoice       = "voice"
	FeatureTranscribe  = "voice-transcribe"
	FeatureObjects     = "objects"
	FeatureDescription = "description-check"
)

// Features lists every feature in route order.
var Features = []string{
	FeatureUsers, FeatureLessons, FeatureQuiz, FeatureTranslate, FeatureVocabulary,
	FeatureVoice, FeatureTranscribe, FeatureObjects, FeatureDescription,
}

// Config holds the settings of one deployment.
type Config struct {
	Environment string
	Feature     string
	LogLevel    string

	UsersTable      string
	LessonsTable    string
	VocabularyTable string
	MediaBucket     string

	BedrockModelID   string
	BedrockRegion    string
	BedrockMaxTokens int32

	StoreTimeout           time.Duration
	ProviderTimeout        time.Duration
	TranscribeTimeout      time.Duration
	TranscribePollInterval time.Duration

	LanguageCacheSize int
	LanguageCacheTTL  time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	WarmupConcurrencyMax int
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	return FromLookup(os.LookupEnv)
}

// FromLookup reads the configuration through lookup.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	r := reader{lookup: lookup}

	cfg := &Config{
		Environment: r.str("ENVIRONMENT", "dev"),
		Feature:     strings.ToLower(r.str("FEATURE", "")),
		LogLevel:    r.str("LOG_LEVEL", "info"),

		UsersTable:      r.str("USERS_TABLE", "language-learning-users"),
		LessonsTable:    r.str("LESSONS_TABLE", "language-learning-lessons"),
		VocabularyTable: r.str("VOCABULARY_TABLE", "language-learning-vocabulary"),
		MediaBucket:     r.str("MEDIA_BUCKET", ""),

		BedrockModelID:   r.str("BEDROCK_MODEL_ID", "amazon.nova-pro-v1:0"),
		BedrockRegion:    r.str("BEDROCK_REGION", ""),
		BedrockMaxTokens: int32(r.integer("BEDROCK_MAX_TOKENS", 2048)),

		StoreTimeout:           r.duration("STORE_TIMEOUT", 5*time.Second),
		ProviderTimeout:        r.duration("PROVIDER_TIMEOUT", 25*time.Second),
		TranscribeTimeout:      r.duration("TRANSCRIBE_TIMEOUT", 30*time.Second),
		TranscribePollInterval: r.duration("TRANSCRIBE_POLL_INTERVAL", time.Second),

		LanguageCacheSize: r.integer("LANGUAGE_CACHE_SIZE", 1024),
		LanguageCacheTTL:  r.duration("LANGUAGE_CACHE_TTL", 5*time.Minute),

		RedisAddr:     r.str("REDIS_ADDR", ""),
		RedisPassword: r.str("REDIS_PASSWORD", ""),
		RedisDB:       r.integer("REDIS_DB", 0),

		WarmupConcurrencyMax: r.integer("WARMUP_CONCURRENCY_MAX", 10),
	}

	if r.err != nil {
		return nil, r.err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings a feature needs. An empty feature checks
// the union of all features.
func (c *Config) Validate(feature string) error {
	switch feature {
	case FeatureVoice, FeatureTranscribe:
		if c.MediaBucket == "" {
			return fmt.Errorf("MEDIA_BUCKET is required for %s", feature)
		}
	case "":
		if c.MediaBucket == "" {
			return fmt.Errorf("MEDIA_BUCKET is required when serving all features")
		}
	}
	return nil
}

func (c *Config) validate() error {
	if c.Feature != "" && !isFeature(c.Feature) {
		return fmt.Errorf("FEATURE: unknown feature %q", c.Feature)
	}
	if c.BedrockMaxTokens <= 0 {
		return fmt.Errorf("BEDROCK_MAX_TOKENS must be positive")
	}
	if c.LanguageCacheSize < 0 {
		return fmt.Errorf("LANGUAGE_CACHE_SIZE must not be negative")
	}
	if c.TranscribePollInterval <= 0 || c.TranscribeTimeout < c.TranscribePollInterval {
		return fmt.Errorf("TRANSCRIBE_TIMEOUT must be at least TRANSCRIBE_POLL_INTERVAL")
	}
	if c.StoreTimeout <= 0 || c.ProviderTimeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT and PROVIDER_TIMEOUT must be positive")
	}
	if c.WarmupConcurrencyMax < 0 {
		return fmt.Errorf("WARMUP_CONCURRENCY_MAX must not be negative")
	}
	return nil
}

func isFeature(name string) bool {
	for _, f := range Features {
		if f == name {
			return true
		}
	}
	return false
}

// reader keeps the first parse error so Load can report it once.
type reader struct {
	lookup func(string) (string, bool)
	err    error
}

func (r *reader) str(key, def string) string {
	if v, ok := r.lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (r *reader) integer(key string, def int) int {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(fmt.Errorf("%s: invalid integer %q", key, v))
		return def
	}
	return n
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(fmt.Errorf("%s: invalid duration %q", key, v))
		return def
	}
	return d
}

func (r *reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}
