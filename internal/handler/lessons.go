package handler

import (
	"context"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/lingualoop/learning-api/internal/domain"
	"github.com/lingualoop/learning-api/internal/provider"
	"go.uber.org/zap"
)

type lessonRequest struct {
	UserID string `json:"userId"`
	Topic  string `json:"topic"`
	Level  string `json:"level"`
}

// lessonContent is the part of a lesson produced by the model.
type lessonContent struct {
	Title        string              `json:"title"`
	Content      string              `json:"content"`
	Vocabulary   []domain.LessonWord `json:"vocabulary"`
	CulturalNote string              `json:"cultural_note"`
	Exercises    []string            `json:"exercises"`
}

// PostLesson generates a lesson in the user's target language, explained
// for a speaker of their native language, and stores it.
func (h *Handler) PostLesson(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	var in lessonRequest
	if err := decodeJSON(req, &in); err != nil {
		return h.fail(ctx, err)
	}
	if err := required(in.Topic, "topic"); err != nil {
		return h.fail(ctx, err)
	}
	topic := strings.TrimSpace(in.Topic)
	level := orDefault(in.Level, "beginner")

	rc, ctx, err := h.resolve(ctx, in.UserID)
	if err != nil {
		return h.fail(ctx, err)
	}

	reply, err := h.Generator.Generate(ctx, lessonPrompt(rc, topic, level))
	if err != nil {
		return h.fail(ctx, err)
	}

	method := methodGenerated
	var content lessonContent
	if err := provider.DecodeJSON(reply, &content); err != nil || strings.TrimSpace(content.Title) == "" {
		h.logger(ctx).Warn("lesson reply not usable, serving fallback lesson", zap.Error(err))
		content = fallbackLesson(rc, topic)
		method = methodFallback
	}

	lesson := &domain.Lesson{
		LessonID:       h.NewID(),
		UserID:         rc.UserID,
		Topic:          topic,
		Level:          level,
		TargetLanguage: string(rc.TargetCode),
		NativeLanguage: string(rc.NativeCode),
		Title:          content.Title,
		Content:        content.Content,
		Vocabulary:     content.Vocabulary,
		CulturalNote:   content.CulturalNote,
		Exercises:      content.Exercises,
		Method:         method,
		CreatedAt:      h.timestamp(),
	}
	if lesson.Vocabulary == nil {
		lesson.Vocabulary = []domain.LessonWord{}
	}
	if lesson.Exercises == nil {
		lesson.Exercises = []string{}
	}

	if err := h.Lessons.Save(ctx, lesson); err != nil {
		return h.fail(ctx, err)
	}
	return ok(map[string]any{"lesson": lesson})
}
