package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/lingualoop/learning-api/internal/config"
	"github.com/lingualoop/learning-api/internal/domain"
	"github.com/lingualoop/learning-api/internal/resolver"
)

type fakeResolver map[string]resolver.Context

func (f fakeResolver) ResolveForUser(_ context.Context, userID string) (resolver.Context, error) {
	rc, ok := f[userID]
	if !ok {
		return resolver.Context{}, fmt.Errorf("%w: %w", domain.ErrMissingLanguagePreferences, domain.ErrUserNotFound)
	}
	return rc, nil
}

type fakeCache struct {
	invalidated []string
	purged      int64
	deleteErr   error
}

func (f *fakeCache) Delete(_ context.Context, userID string) (int64, error) {
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	f.invalidated = append(f.invalidated, userID)
	return 1, nil
}

func (f *fakeCache) Purge(context.Context) (int64, error) {
	return f.purged, nil
}

func testContext(cache *fakeCache) *commandContext {
	ctx := &commandContext{
		newResolver: func(context.Context, *config.Config) (userResolver, error) {
			return fakeResolver{
				"u-1": {UserID: "u-1", NativeCode: "en", TargetCode: "ms", NativeName: "English", TargetName: "Malay", NativeLocale: "en-US", TargetLocale: "ms-MY"},
			}, nil
		},
		newCache: func(*config.Config) (sharedCache, error) {
			if cache == nil {
				return nil, errNoRedis
			}
			return cache, nil
		},
	}
	ctx.configOnce.Do(func() { ctx.config = &config.Config{} })
	return ctx
}

func runCLI(t *testing.T, ctx *commandContext, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand(ctx)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func requireContains(t *testing.T, out string, parts ...string) {
	t.Helper()
	for _, p := range parts {
		if !strings.Contains(out, p) {
			t.Fatalf("output %q does not contain %q", out, p)
		}
	}
}

func TestLanguages(t *testing.T) {
	out, err := runCLI(t, testContext(nil), "languages")
	if err != nil {
		t.Fatalf("languages: %v", err)
	}
	requireContains(t, out, "CODE", "Malay", "ms-MY", "Aditi (en-IN)", "Thai")
	if lines := strings.Count(out, "\n"); lines != 17 {
		t.Errorf("printed %d lines, want header and 16 languages", lines)
	}
}

func TestResolve(t *testing.T) {
	out, err := runCLI(t, testContext(nil), "resolve", "u-1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	var rc resolver.Context
	if err := json.Unmarshal([]byte(out), &rc); err != nil {
		t.Fatalf("resolve output is not JSON: %v\n%s", err, out)
	}
	if rc.NativeCode != "en" || rc.TargetLocale != "ms-MY" || rc.TargetName != "Malay" {
		t.Errorf("resolved = %+v", rc)
	}

	_, err = runCLI(t, testContext(nil), "resolve", "u-2")
	if !errors.Is(err, domain.ErrMissingLanguagePreferences) {
		t.Errorf("resolve unknown user error = %v, want ErrMissingLanguagePreferences", err)
	}

	if _, err := runCLI(t, testContext(nil), "resolve"); err == nil {
		t.Error("resolve without USER_ID succeeded")
	}
}

func TestInvalidate(t *testing.T) {
	cache := &fakeCache{purged: 3}

	out, err := runCLI(t, testContext(cache), "invalidate", "u-1")
	if err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	requireContains(t, out, "Invalidated u-1")
	if len(cache.invalidated) != 1 || cache.invalidated[0] != "u-1" {
		t.Errorf("invalidated = %v", cache.invalidated)
	}

	out, err = runCLI(t, testContext(cache), "invalidate", "--all")
	if err != nil {
		t.Fatalf("invalidate --all: %v", err)
	}
	requireContains(t, out, "Removed 3 cached language pairs")
}

func TestInvalidate_Errors(t *testing.T) {
	tests := []struct {
		name  string
		cache *fakeCache
		args  []string
		want  error
	}{
		{"no redis", nil, []string{"invalidate", "u-1"}, errNoRedis},
		{"neither user nor all", &fakeCache{}, []string{"invalidate"}, nil},
		{"both user and all", &fakeCache{}, []string{"invalidate", "u-1", "--all"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, testContext(tt.cache), tt.args...)
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestInvalidate_ReportsCacheFailure(t *testing.T) {
	refused := errors.New("dial tcp 127.0.0.1:6379: connection refused")
	cache := &fakeCache{deleteErr: refused}

	out, err := runCLI(t, testContext(cache), "invalidate", "u-1")
	if !errors.Is(err, refused) {
		t.Fatalf("error = %v, want %v", err, refused)
	}
	if strings.Contains(out, "Invalidated") {
		t.Errorf("output = %q, want no success message", out)
	}
}

func TestRedisCacheRequiresAddress(t *testing.T) {
	if _, err := redisCache(&config.Config{}); !errors.Is(err, errNoRedis) {
		t.Errorf("redisCache() error = %v, want errNoRedis", err)
	}
	c, err := redisCache(&config.Config{RedisAddr: "localhost:6379"})
	if err != nil || c == nil {
		t.Errorf("redisCache() = %v, %v", c, err)
	}
}
