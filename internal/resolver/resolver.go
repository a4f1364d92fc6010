// Package resolver turns a user id into the validated language pair every
// feature handler works with.
//
// A resolved Context is a plain value created once per request. It is
// passed explicitly or carried on the request context.Context, never kept
// in package state, so concurrent requests for different users cannot see
// each other's languages.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/lingualoop/learning-api/internal/domain"
	"github.com/lingualoop/learning-api/internal/language"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultStoreTimeout bounds a single user store read.
const DefaultStoreTimeout = 5 * time.Second

// UserStore reads the language fields of a user profile.
// It returns an error matching domain.ErrUserNotFound when no record exists.
type UserStore interface {
	GetUserRecord(ctx context.Context, userID string) (*domain.UserLanguageRecord, error)
}

// Cache memoizes resolved pairs by exact user id.
// Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, userID string) (language.Pair, bool)
	Set(ctx context.Context, userID string, pair language.Pair)
	Invalidate(ctx context.Context, userID string)
	InvalidateAll(ctx context.Context)
}

// Context is the language context of one request.
type Context struct {
	UserID       string        `json:"userId"`
	NativeCode   language.Code `json:"nativeCode"`
	TargetCode   language.Code `json:"targetCode"`
	NativeName   string        `json:"nativeName"`
	TargetName   string        `json:"targetName"`
	NativeLocale string        `json:"nativeLocale"`
	TargetLocale string        `json:"targetLocale"`
}

// Pair returns the codes of c.
func (c Context) Pair() language.Pair {
	return language.Pair{Native: c.NativeCode, Target: c.TargetCode}
}

// SameLanguage reports whether native and target are the same language.
func (c Context) SameLanguage() bool {
	return c.NativeCode == c.TargetCode
}

// Service resolves user languages.
type Service struct {
	store        UserStore
	cache        Cache
	logger       *zap.Logger
	storeTimeout time.Duration

	// mu guards group and generation. generation is bumped by every
	// invalidation; a fetch that started in an older generation does not
	// populate the cache.
	mu         sync.Mutex
	group      *singleflight.Group
	generation uint64
}

// Option configures a Service.
type Option func(*Service)

// WithCache enables memoization.
func WithCache(c Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithStoreTimeout bounds each user store read.
func WithStoreTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.storeTimeout = d
		}
	}
}

// New creates a Service reading from store.
func New(store UserStore, opts ...Option) *Service {
	s := &Service{
		store:        store,
		logger:       zap.NewNop(),
		storeTimeout: DefaultStoreTimeout,
		group:        &singleflight.Group{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ResolveForUser resolves the languages of userID.
//
// Missing records or fields fail with domain.ErrMissingLanguagePreferences
// (a missing record additionally matches domain.ErrUserNotFound); values
// outside the supported table fail with domain.ErrUnsupportedLanguage. No
// default language is ever substituted.
func (s *Service) ResolveForUser(ctx context.Context, userID string) (Context, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Context{}, domain.ErrMissingUserID
	}

	if s.cache != nil {
		if pair, ok := s.cache.Get(ctx, userID); ok && language.IsSupported(pair.Native) && language.IsSupported(pair.Target) {
			return s.build(userID, pair)
		}
	}

	pair, err := s.fetch(ctx, userID)
	if err != nil {
		return Context{}, err
	}
	return s.build(userID, pair)
}

// Invalidate drops the memoized pair of userID.
func (s *Service) Invalidate(ctx context.Context, userID string) {
	s.mu.Lock()
	s.generation++
	s.group.Forget(userID)
	s.mu.Unlock()

	if s.cache != nil {
		s.cache.Invalidate(ctx, userID)
	}
}

// InvalidateAll drops every memoized pair. Resolves already in flight
// finish on their own, but later calls never join them.
func (s *Service) InvalidateAll(ctx context.Context) {
	s.mu.Lock()
	s.generation++
	s.group = &singleflight.Group{}
	s.mu.Unlock()

	if s.cache != nil {
		s.cache.InvalidateAll(ctx)
	}
}

// fetch reads and validates the user's record. Concurrent fetches for the
// same user id share one store read; the read runs on a context detached
// from any single caller and bounded by the store timeout.
func (s *Service) fetch(ctx context.Context, userID string) (language.Pair, error) {
	s.mu.Lock()
	gen, group := s.generation, s.group
	s.mu.Unlock()

	ch := group.DoChan(userID, func() (any, error) {
		readCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.storeTimeout)
		defer cancel()

		rec, err := s.store.GetUserRecord(readCtx, userID)
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				return nil, fmt.Errorf("%w: %w", domain.ErrMissingLanguagePreferences, err)
			}
			return nil, fmt.Errorf("read user %s: %w", userID, err)
		}

		pair, err := pairFromRecord(rec)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			s.storeIfCurrent(readCtx, gen, userID, pair)
		}
		return pair, nil
	})

	select {
	case <-ctx.Done():
		return language.Pair{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return language.Pair{}, res.Err
		}
		return res.Val.(language.Pair), nil
	}
}

// storeIfCurrent caches pair unless an invalidation happened since gen.
// The check and the write hold the lock invalidations take.
func (s *Service) storeIfCurrent(ctx context.Context, gen uint64, userID string, pair language.Pair) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation == gen {
		s.cache.Set(ctx, userID, pair)
	}
}

func (s *Service) build(userID string, pair language.Pair) (Context, error) {
	nativeName, err := language.DisplayName(pair.Native)
	if err != nil {
		return Context{}, err
	}
	targetName, err := language.DisplayName(pair.Target)
	if err != nil {
		return Context{}, err
	}
	nativeLocale, err := language.ProviderLocale(pair.Native)
	if err != nil {
		return Context{}, err
	}
	targetLocale, err := language.ProviderLocale(pair.Target)
	if err != nil {
		return Context{}, err
	}

	rc := Context{
		UserID:       userID,
		NativeCode:   pair.Native,
		TargetCode:   pair.Target,
		NativeName:   nativeName,
		TargetName:   targetName,
		NativeLocale: nativeLocale,
		TargetLocale: targetLocale,
	}
	if rc.SameLanguage() {
		s.logger.Warn("native and target language are the same",
			zap.String("user_id", userID), zap.String("language", string(pair.Native)))
	}
	return rc, nil
}

func pairFromRecord(rec *domain.UserLanguageRecord) (language.Pair, error) {
	if rec == nil {
		return language.Pair{}, fmt.Errorf("%w: %w", domain.ErrMissingLanguagePreferences, domain.ErrUserNotFound)
	}
	if isBlank(rec.NativeLanguage) {
		return language.Pair{}, fmt.Errorf("%w: native language not set", domain.ErrMissingLanguagePreferences)
	}
	if isBlank(rec.TargetLanguage) {
		return language.Pair{}, fmt.Errorf("%w: target language not set", domain.ErrMissingLanguagePreferences)
	}

	native, err := language.NormalizeValue(rec.NativeLanguage)
	if err != nil {
		return language.Pair{}, fmt.Errorf("native language: %w", err)
	}
	target, err := language.NormalizeValue(rec.TargetLanguage)
	if err != nil {
		return language.Pair{}, fmt.Errorf("target language: %w", err)
	}
	return language.Pair{Native: native, Target: target}, nil
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

type contextKey struct{}

// WithContext returns a copy of ctx carrying rc.
func WithContext(ctx context.Context, rc Context) context.Context {
	return context.WithValue(ctx, contextKey{}, rc)
}

// FromContext returns the Context stored by WithContext.
func FromContext(ctx context.Context) (Context, bool) {
	rc, ok := ctx.Value(contextKey{}).(Context)
	return rc, ok
}
