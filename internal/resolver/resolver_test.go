package resolver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lingualoop/learning-api/internal/domain"
	"github.com/lingualoop/learning-api/internal/langcache"
	"github.com/lingualoop/learning-api/internal/language"
)

type fakeStore struct {
	mu      sync.Mutex
	records map[string]*domain.UserLanguageRecord
	reads   atomic.Int64
	err     error
	delay   time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[string]*domain.UserLanguageRecord{}}
}

func (f *fakeStore) put(userID string, native, target any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[userID] = &domain.UserLanguageRecord{UserID: userID, NativeLanguage: native, TargetLanguage: target}
}

func (f *fakeStore) GetUserRecord(ctx context.Context, userID string) (*domain.UserLanguageRecord, error) {
	f.reads.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[userID]
	if !ok {
		return nil, fmt.Errorf("get user %s: %w", userID, domain.ErrUserNotFound)
	}
	cp := *rec
	return &cp, nil
}

func TestResolveForUser_Scenarios(t *testing.T) {
	store := newFakeStore()
	store.put("canonical", "en", "ms")
	store.put("aliases", "bahasa melayu", "english")
	store.put("missing-target", "en", nil)
	store.put("blank-native", "  ", "ms")
	store.put("klingon", "en", "klingon")
	store.put("numeric", 42, "ms")

	svc := New(store)
	ctx := context.Background()

	tests := []struct {
		name    string
		userID  string
		want    Context
		wantErr error
	}{
		{
			name:   "canonical codes",
			userID: "canonical",
			want: Context{
				UserID: "canonical", NativeCode: "en", TargetCode: "ms",
				NativeName: "English", TargetName: "Malay",
				NativeLocale: "en-US", TargetLocale: "ms-MY",
			},
		},
		{
			name:   "aliases normalize",
			userID: "aliases",
			want: Context{
				UserID: "aliases", NativeCode: "ms", TargetCode: "en",
				NativeName: "Malay", TargetName: "English",
				NativeLocale: "ms-MY", TargetLocale: "en-US",
			},
		},
		{name: "missing target", userID: "missing-target", wantErr: domain.ErrMissingLanguagePreferences},
		{name: "blank native", userID: "blank-native", wantErr: domain.ErrMissingLanguagePreferences},
		{name: "unsupported target", userID: "klingon", wantErr: domain.ErrUnsupportedLanguage},
		{name: "non-string native", userID: "numeric", wantErr: domain.ErrInvalidInput},
		{name: "unknown user", userID: "ghost", wantErr: domain.ErrMissingLanguagePreferences},
		{name: "empty user id", userID: "", wantErr: domain.ErrMissingUserID},
		{name: "blank user id", userID: "   ", wantErr: domain.ErrMissingUserID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ResolveForUser(ctx, tt.userID)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ResolveForUser(%q) error = %v, want %v", tt.userID, err, tt.wantErr)
				}
				if got != (Context{}) {
					t.Errorf("ResolveForUser(%q) returned %+v alongside an error", tt.userID, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveForUser(%q) unexpected error: %v", tt.userID, err)
			}
			if got != tt.want {
				t.Errorf("ResolveForUser(%q) = %+v, want %+v", tt.userID, got, tt.want)
			}
		})
	}
}

func TestResolveForUser_UnknownUserIsAlsoUserNotFound(t *testing.T) {
	svc := New(newFakeStore())
	_, err := svc.ResolveForUser(context.Background(), "ghost")
	if !errors.Is(err, domain.ErrUserNotFound) || !errors.Is(err, domain.ErrMissingLanguagePreferences) {
		t.Errorf("error = %v, want both ErrUserNotFound and ErrMissingLanguagePreferences", err)
	}
	if domain.Kind(err) != "MissingLanguagePreferences" {
		t.Errorf("Kind = %q, want MissingLanguagePreferences", domain.Kind(err))
	}
}

func TestResolveForUser_StoreFailurePropagates(t *testing.T) {
	store := newFakeStore()
	store.err = fmt.Errorf("%w: throttled", domain.ErrProviderFailure)
	svc := New(store)

	_, err := svc.ResolveForUser(context.Background(), "u1")
	if !errors.Is(err, domain.ErrProviderFailure) {
		t.Errorf("error = %v, want ErrProviderFailure", err)
	}
	if errors.Is(err, domain.ErrMissingLanguagePreferences) {
		t.Error("a store failure must not look like missing preferences")
	}
}

func TestResolveForUser_Idempotent(t *testing.T) {
	store := newFakeStore()
	store.put("u1", "English", "ms")

	for _, cache := range []Cache{nil, langcache.NewMemory(8, 0)} {
		svc := New(store, WithCache(cache))
		first, err := svc.ResolveForUser(context.Background(), "u1")
		if err != nil {
			t.Fatalf("first resolve: %v", err)
		}
		second, err := svc.ResolveForUser(context.Background(), "u1")
		if err != nil {
			t.Fatalf("second resolve: %v", err)
		}
		if first != second {
			t.Errorf("resolve not idempotent: %+v != %+v", first, second)
		}
	}
}

func TestResolveForUser_CacheAndInvalidate(t *testing.T) {
	store := newFakeStore()
	store.put("u1", "en", "ms")
	svc := New(store, WithCache(langcache.NewMemory(8, 0)))
	ctx := context.Background()

	if _, err := svc.ResolveForUser(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ResolveForUser(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	if n := store.reads.Load(); n != 1 {
		t.Fatalf("store reads = %d, want 1 (second resolve should hit the cache)", n)
	}

	// Change the record; the cached pair is stale until invalidated.
	store.put("u1", "en", "es")
	svc.Invalidate(ctx, "u1")

	got, err := svc.ResolveForUser(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if got.TargetCode != "es" {
		t.Errorf("TargetCode after invalidate = %q, want es", got.TargetCode)
	}
	if n := store.reads.Load(); n != 2 {
		t.Errorf("store reads = %d, want 2", n)
	}

	store.put("u1", "fr", "es")
	svc.InvalidateAll(ctx)
	got, err = svc.ResolveForUser(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if got.NativeCode != "fr" {
		t.Errorf("NativeCode after InvalidateAll = %q, want fr", got.NativeCode)
	}
}

func TestResolveForUser_FailuresAreNotCached(t *testing.T) {
	store := newFakeStore()
	store.put("u1", "en", nil)
	svc := New(store, WithCache(langcache.NewMemory(8, 0)))
	ctx := context.Background()

	if _, err := svc.ResolveForUser(ctx, "u1"); !errors.Is(err, domain.ErrMissingLanguagePreferences) {
		t.Fatalf("error = %v, want ErrMissingLanguagePreferences", err)
	}
	store.put("u1", "en", "ms")
	if _, err := svc.ResolveForUser(ctx, "u1"); err != nil {
		t.Errorf("resolve after fixing record: %v", err)
	}
}

// gatedStore copies the record when a read starts. The first read then
// blocks until release is closed; later reads answer immediately.
type gatedStore struct {
	*fakeStore
	started chan struct{}
	release chan struct{}
}

func newGatedStore() *gatedStore {
	return &gatedStore{
		fakeStore: newFakeStore(),
		started:   make(chan struct{}),
		release:   make(chan struct{}),
	}
}

func (g *gatedStore) GetUserRecord(ctx context.Context, userID string) (*domain.UserLanguageRecord, error) {
	rec, err := g.fakeStore.GetUserRecord(ctx, userID)
	if g.reads.Load() == 1 {
		close(g.started)
		select {
		case <-g.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return rec, err
}

func TestResolveForUser_InvalidationDuringRead(t *testing.T) {
	tests := []struct {
		name       string
		invalidate func(*Service)
	}{
		{
			name:       "single user",
			invalidate: func(s *Service) { s.Invalidate(context.Background(), "u1") },
		},
		{
			name:       "all users",
			invalidate: func(s *Service) { s.InvalidateAll(context.Background()) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newGatedStore()
			store.put("u1", "en", "ms")
			svc := New(store, WithCache(langcache.NewMemory(8, 0)))
			ctx := context.Background()

			inflight := make(chan Context, 1)
			go func() {
				rc, err := svc.ResolveForUser(ctx, "u1")
				if err != nil {
					t.Errorf("in-flight resolve: %v", err)
				}
				inflight <- rc
			}()
			<-store.started

			store.put("u1", "en", "es")
			tt.invalidate(svc)

			got, err := svc.ResolveForUser(ctx, "u1")
			if err != nil {
				t.Fatal(err)
			}
			if got.TargetCode != "es" {
				t.Errorf("TargetCode after invalidation = %q, want es", got.TargetCode)
			}

			close(store.release)
			if old := <-inflight; old.TargetCode != "ms" {
				t.Errorf("in-flight TargetCode = %q, want ms", old.TargetCode)
			}

			got, err = svc.ResolveForUser(ctx, "u1")
			if err != nil {
				t.Fatal(err)
			}
			if got.TargetCode != "es" {
				t.Errorf("cached TargetCode = %q, want es (stale read must not be cached)", got.TargetCode)
			}
			if n := store.reads.Load(); n != 2 {
				t.Errorf("store reads = %d, want 2", n)
			}
		})
	}
}

func TestResolveForUser_ConcurrentUsersNeverMix(t *testing.T) {
	store := newFakeStore()
	codes := language.Codes()
	const users = 40
	want := make(map[string]language.Pair, users)
	for i := 0; i < users; i++ {
		id := fmt.Sprintf("user-%02d", i)
		p := language.Pair{Native: codes[i%len(codes)], Target: codes[(i+3)%len(codes)]}
		store.put(id, string(p.Native), string(p.Target))
		want[id] = p
	}
	store.delay = time.Millisecond

	for _, cache := range []Cache{nil, langcache.NewMemory(16, 0)} {
		svc := New(store, WithCache(cache))

		var wg sync.WaitGroup
		for round := 0; round < 5; round++ {
			for id, p := range want {
				wg.Add(1)
				go func(id string, p language.Pair) {
					defer wg.Done()
					rc, err := svc.ResolveForUser(context.Background(), id)
					if err != nil {
						t.Errorf("resolve %s: %v", id, err)
						return
					}
					if rc.UserID != id || rc.Pair() != p {
						t.Errorf("resolve %s observed %+v, want %v", id, rc, p)
					}
				}(id, p)
			}
		}
		wg.Wait()
	}
}

func TestResolveForUser_CollapsesConcurrentReadsOfSameUser(t *testing.T) {
	store := newFakeStore()
	store.put("u1", "en", "ms")
	store.delay = 50 * time.Millisecond
	svc := New(store)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.ResolveForUser(context.Background(), "u1"); err != nil {
				t.Errorf("resolve: %v", err)
			}
		}()
	}
	wg.Wait()

	if n := store.reads.Load(); n >= 10 {
		t.Errorf("store reads = %d, want concurrent resolves to share reads", n)
	}
}

func TestResolveForUser_CallerCancellation(t *testing.T) {
	store := newFakeStore()
	store.put("u1", "en", "ms")
	store.delay = time.Second
	svc := New(store)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := svc.ResolveForUser(ctx, "u1")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want context.DeadlineExceeded", err)
	}
}

func TestResolveForUser_StoreTimeout(t *testing.T) {
	store := newFakeStore()
	store.put("u1", "en", "ms")
	store.delay = time.Second
	svc := New(store, WithStoreTimeout(10*time.Millisecond))

	_, err := svc.ResolveForUser(context.Background(), "u1")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want context.DeadlineExceeded", err)
	}
}

func TestSameLanguageIsResolvedNotRejected(t *testing.T) {
	store := newFakeStore()
	store.put("u1", "ms", "malay")
	svc := New(store)

	rc, err := svc.ResolveForUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rc.SameLanguage() {
		t.Error("SameLanguage() = false, want true")
	}
}

func TestContextCarrier(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Error("FromContext on a bare context should report false")
	}

	rc := Context{UserID: "u1", NativeCode: "en", TargetCode: "ms"}
	ctx := WithContext(context.Background(), rc)
	got, ok := FromContext(ctx)
	if !ok || got != rc {
		t.Errorf("FromContext = %+v, %v, want %+v", got, ok, rc)
	}
}
