// Package handler implements the API Gateway feature handlers of the
// learning API. Every handler resolves the caller's language pair first
// and passes it explicitly to the prompts and providers it uses.
package handler

import (
	"context"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"github.com/lingualoop/learning-api/internal/domain"
	"github.com/lingualoop/learning-api/internal/language"
	"github.com/lingualoop/learning-api/internal/logging"
	"github.com/lingualoop/learning-api/internal/provider"
	"github.com/lingualoop/learning-api/internal/resolver"
	"github.com/lingualoop/learning-api/internal/store"
	"go.uber.org/zap"
)

// DefaultLabelConcurrency bounds concurrent label translations.
const DefaultLabelConcurrency = 4

// Func handles one API Gateway proxy request.
type Func func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

// Resolver resolves and invalidates user language pairs.
type Resolver interface {
	ResolveForUser(ctx context.Context, userID string) (resolver.Context, error)
	Invalidate(ctx context.Context, userID string)
}

// UserStore reads and writes learner profiles.
type UserStore interface {
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	CreateUser(ctx context.Context, user *domain.User) error
	UpdateUserRecord(ctx context.Context, userID string, update store.UserUpdate) (*domain.User, error)
}

// LessonStore persists generated lessons.
type LessonStore interface {
	Save(ctx context.Context, lesson *domain.Lesson) error
}

// VocabularyStore reads and writes saved words.
type VocabularyStore interface {
	List(ctx context.Context, userID string) ([]domain.VocabularyItem, error)
	Add(ctx context.Context, item *domain.VocabularyItem) error
}

// DirectionDetector picks the translation direction of text within a pair.
type DirectionDetector interface {
	Direction(text string, pair language.Pair) (from, to language.Code)
}

// Deps are the collaborators of the handlers. Only the ones used by the
// deployed feature need to be set.
type Deps struct {
	Resolver   Resolver
	Users      UserStore
	Lessons    LessonStore
	Vocabulary VocabularyStore

	Generator     provider.TextGenerator
	Labels        provider.LabelDetector
	Transcriber   provider.Transcriber // free transcription
	Pronunciation provider.Transcriber // pronunciation practice
	Speech        provider.SpeechSynthesizer
	Detector      DirectionDetector

	Logger           *zap.Logger
	LabelConcurrency int
	Now              func() time.Time
	NewID            func() string
}

// Handler serves the feature endpoints.
type Handler struct {
	Deps
}

// New creates a Handler, filling in defaults for optional dependencies.
func New(deps Deps) *Handler {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.LabelConcurrency <= 0 {
		deps.LabelConcurrency = DefaultLabelConcurrency
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	if deps.Pronunciation == nil {
		deps.Pronunciation = deps.Transcriber
	}
	return &Handler{Deps: deps}
}

// resolve resolves userID and annotates the request logger with the pair.
func (h *Handler) resolve(ctx context.Context, userID string) (resolver.Context, context.Context, error) {
	rc, err := h.Resolver.ResolveForUser(ctx, userID)
	if err != nil {
		return resolver.Context{}, ctx, err
	}
	logger := h.logger(ctx).With(
		zap.String(logging.FieldUserID, rc.UserID),
		zap.String(logging.FieldNative, string(rc.NativeCode)),
		zap.String(logging.FieldTarget, string(rc.TargetCode)),
	)
	ctx = logging.NewContext(resolver.WithContext(ctx, rc), logger)
	return rc, ctx, nil
}

func (h *Handler) logger(ctx context.Context) *zap.Logger {
	return logging.FromContext(ctx, h.Logger)
}

func (h *Handler) timestamp() string {
	return h.Now().UTC().Format(time.RFC3339)
}
