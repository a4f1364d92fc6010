package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/lingualoop/learning-api/internal/domain"
	"github.com/lingualoop/learning-api/internal/language"
	"github.com/lingualoop/learning-api/internal/provider"
	"go.uber.org/zap"
)

// Quiz sizing.
const (
	DefaultQuestionCount = 10
	MaxQuestionCount     = 20

	dontKnow = "I don't know"
)

type quizRequest struct {
	UserID        string `json:"userId"`
	Difficulty    string `json:"difficulty"`
	Level         string `json:"level"`
	QuestionCount *int   `json:"questionCount"`
}

type quizResponse struct {
	Questions      []domain.QuizQuestion `json:"questions"`
	Level          string                `json:"level"`
	TargetLanguage language.Code         `json:"targetLanguage"`
	NativeLanguage language.Code         `json:"nativeLanguage"`
	GeneratedAt    string                `json:"generatedAt"`
	Method         string                `json:"method"`
}

// PostQuiz generates a placement quiz for the user's target language.
func (h *Handler) PostQuiz(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	var in quizRequest
	if err := decodeJSON(req, &in); err != nil {
		return h.fail(ctx, err)
	}
	level := orDefault(in.Difficulty, orDefault(in.Level, "beginner"))
	count := questionCount(in.QuestionCount)

	rc, ctx, err := h.resolve(ctx, in.UserID)
	if err != nil {
		return h.fail(ctx, err)
	}

	reply, err := h.Generator.Generate(ctx, quizPrompt(rc, level, count))
	if err != nil {
		return h.fail(ctx, err)
	}

	var raw []domain.QuizQuestion
	if err := provider.DecodeJSON(reply, &raw); err != nil {
		return h.fail(ctx, err)
	}
	questions := normalizeQuestions(raw, count)
	if len(questions) == 0 {
		return h.fail(ctx, fmt.Errorf("%w: quiz reply has no usable questions", domain.ErrProviderFailure))
	}
	if len(questions) < count {
		h.logger(ctx).Warn("quiz shorter than requested", zap.Int("requested", count), zap.Int("returned", len(questions)))
	}

	return ok(quizResponse{
		Questions:      questions,
		Level:          level,
		TargetLanguage: rc.TargetCode,
		NativeLanguage: rc.NativeCode,
		GeneratedAt:    h.timestamp(),
		Method:         methodGenerated,
	})
}

func questionCount(n *int) int {
	switch {
	case n == nil:
		return DefaultQuestionCount
	case *n < 1:
		return 1
	case *n > MaxQuestionCount:
		return MaxQuestionCount
	default:
		return *n
	}
}

// normalizeQuestions forces "I don't know" as the fourth option, drops
// questions with fewer than three answers or whose correct answer is not
// among them, and keeps at most count questions.
func normalizeQuestions(raw []domain.QuizQuestion, count int) []domain.QuizQuestion {
	out := make([]domain.QuizQuestion, 0, count)
	for _, q := range raw {
		if len(out) == count {
			break
		}
		if strings.TrimSpace(q.Question) == "" || len(q.Options) < 3 {
			continue
		}
		options := append(append([]string(nil), q.Options[:3]...), dontKnow)
		if q.Correct < 0 || q.Correct > 2 {
			continue
		}
		out = append(out, domain.QuizQuestion{Question: q.Question, Options: options, Correct: q.Correct})
	}
	return out
}
