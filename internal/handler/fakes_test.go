package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/lingualoop/learning-api/internal/domain"
	"github.com/lingualoop/learning-api/internal/language"
	"github.com/lingualoop/learning-api/internal/provider"
	"github.com/lingualoop/learning-api/internal/resolver"
	"github.com/lingualoop/learning-api/internal/store"
)

// fakeResolver resolves users from a fixed table of pairs.
type fakeResolver struct {
	mu          sync.Mutex
	pairs       map[string]language.Pair
	err         error
	calls       int
	invalidated []string
}

func (f *fakeResolver) ResolveForUser(_ context.Context, userID string) (resolver.Context, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if userID == "" {
		return resolver.Context{}, domain.ErrMissingUserID
	}
	if f.err != nil {
		return resolver.Context{}, f.err
	}
	pair, ok := f.pairs[userID]
	if !ok {
		return resolver.Context{}, fmt.Errorf("%w: %w", domain.ErrMissingLanguagePreferences, domain.ErrUserNotFound)
	}
	return contextFor(userID, pair), nil
}

func (f *fakeResolver) Invalidate(_ context.Context, userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, userID)
}

func contextFor(userID string, pair language.Pair) resolver.Context {
	nn, _ := language.DisplayName(pair.Native)
	tn, _ := language.DisplayName(pair.Target)
	nl, _ := language.ProviderLocale(pair.Native)
	tl, _ := language.ProviderLocale(pair.Target)
	return resolver.Context{
		UserID: userID, NativeCode: pair.Native, TargetCode: pair.Target,
		NativeName: nn, TargetName: tn, NativeLocale: nl, TargetLocale: tl,
	}
}

// fakeGenerator answers prompts through reply and records them.
type fakeGenerator struct {
	mu      sync.Mutex
	prompts []string
	reply   func(prompt string) (string, error)
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.reply == nil {
		return "", fmt.Errorf("%w: no reply configured", domain.ErrProviderFailure)
	}
	return f.reply(prompt)
}

func (f *fakeGenerator) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func replyWith(text string) func(string) (string, error) {
	return func(string) (string, error) { return text, nil }
}

type fakeUsers struct {
	users     map[string]*domain.User
	createErr error
	created   *domain.User
	update    *store.UserUpdate
}

func (f *fakeUsers) GetUser(_ context.Context, userID string) (*domain.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, domain.ErrUserNotFound)
	}
	return u, nil
}

func (f *fakeUsers) CreateUser(_ context.Context, user *domain.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = user
	return nil
}

func (f *fakeUsers) UpdateUserRecord(_ context.Context, userID string, update store.UserUpdate) (*domain.User, error) {
	f.update = &update
	u := domain.User{UserID: userID}
	if existing, ok := f.users[userID]; ok {
		u = *existing
	}
	if update.TargetLanguage != nil {
		u.TargetLanguage = *update.TargetLanguage
	}
	if update.NativeLanguage != nil {
		u.NativeLanguage = *update.NativeLanguage
	}
	return &u, nil
}

type fakeLessons struct{ saved *domain.Lesson }

func (f *fakeLessons) Save(_ context.Context, lesson *domain.Lesson) error {
	f.saved = lesson
	return nil
}

type fakeVocabulary struct {
	items []domain.VocabularyItem
	added *domain.VocabularyItem
}

func (f *fakeVocabulary) List(context.Context, string) ([]domain.VocabularyItem, error) {
	return f.items, nil
}

func (f *fakeVocabulary) Add(_ context.Context, item *domain.VocabularyItem) error {
	f.added = item
	return nil
}

type fakeTranscriber struct {
	locale string
	audio  []byte
	result provider.Transcript
	err    error
}

func (f *fakeTranscriber) Transcribe(_ context.Context, audio []byte, locale string) (provider.Transcript, error) {
	f.audio, f.locale = audio, locale
	return f.result, f.err
}

type fakeSpeech struct {
	text, voice, locale string
	err                 error
}

func (f *fakeSpeech) Synthesize(_ context.Context, text, voiceID, locale string) ([]byte, error) {
	f.text, f.voice, f.locale = text, voiceID, locale
	if f.err != nil {
		return nil, f.err
	}
	return []byte("ID3mp3"), nil
}

type fakeLabels struct {
	labels []provider.Label
	err    error
}

func (f *fakeLabels) DetectLabels(context.Context, []byte) ([]provider.Label, error) {
	return f.labels, f.err
}

type fakeDetector struct{ reverse bool }

func (f fakeDetector) Direction(_ string, pair language.Pair) (language.Code, language.Code) {
	if f.reverse {
		return pair.Target, pair.Native
	}
	return pair.Native, pair.Target
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// newTestHandler builds a Handler whose resolver knows u-en-ms (English
// speaker learning Malay), u-fr-ja and u-es-es.
func newTestHandler(deps Deps) (*Handler, *fakeResolver) {
	r, ok := deps.Resolver.(*fakeResolver)
	if !ok || r == nil {
		r = &fakeResolver{pairs: map[string]language.Pair{
			"u-en-ms": {Native: "en", Target: "ms"},
			"u-fr-ja": {Native: "fr", Target: "ja"},
			"u-es-es": {Native: "es", Target: "es"},
			"u-en-th": {Native: "en", Target: "th"},
		}}
		deps.Resolver = r
	}
	deps.Now = func() time.Time { return fixedNow }
	deps.NewID = func() string { return "id-1" }
	return New(deps), r
}

func jsonRequest(t *testing.T, method string, body any) events.APIGatewayProxyRequest {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	return events.APIGatewayProxyRequest{
		HTTPMethod: method,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(data),
	}
}

// multipartRequest builds a multipart request; files maps field to content.
func multipartRequest(t *testing.T, values map[string]string, files map[string][]byte) events.APIGatewayProxyRequest {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range values {
		if err := w.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	for k, v := range files {
		fw, err := w.CreateFormFile(k, k+".bin")
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(v)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return events.APIGatewayProxyRequest{
		HTTPMethod: "POST",
		Headers:    map[string]string{"content-type": w.FormDataContentType()},
		Body:       buf.String(),
	}
}

func decodeBody(t *testing.T, resp events.APIGatewayProxyResponse, v any) {
	t.Helper()
	if err := json.Unmarshal([]byte(resp.Body), v); err != nil {
		t.Fatalf("decode body %q: %v", resp.Body, err)
	}
}

func errorCode(t *testing.T, resp events.APIGatewayProxyResponse) string {
	t.Helper()
	var body ErrorBody
	decodeBody(t, resp, &body)
	return body.Code
}

func assertStatus(t *testing.T, resp events.APIGatewayProxyResponse, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("status = %d, want %d (body %s)", resp.StatusCode, want, resp.Body)
	}
}

func containsAll(s string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}
