package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/lingualoop/learning-api/internal/provider"
	"github.com/lingualoop/learning-api/internal/resolver"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	xlanguage "golang.org/x/text/language"
)

type descriptionRequest struct {
	UserID           string   `json:"userId"`
	UserDescription  string   `json:"userDescription"`
	ExpectedElements []string `json:"expectedElements"`
	ImageContext     string   `json:"imageContext"`
}

// DescriptionResult is the grade of a learner's image description.
type DescriptionResult struct {
	Accuracy    float64  `json:"accuracy"`
	Feedback    string   `json:"feedback"`
	Suggestions []string `json:"suggestions"`
	Timestamp   string   `json:"timestamp"`
	Method      string   `json:"method"`
}

// PostDescriptionCheck grades an image description written in the user's
// target language, with feedback in their native language.
func (h *Handler) PostDescriptionCheck(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	var in descriptionRequest
	if err := decodeJSON(req, &in); err != nil {
		return h.fail(ctx, err)
	}
	if err := required(in.UserDescription, "userDescription"); err != nil {
		return h.fail(ctx, err)
	}

	rc, ctx, err := h.resolve(ctx, in.UserID)
	if err != nil {
		return h.fail(ctx, err)
	}

	result, err := h.gradeDescription(ctx, rc, in)
	if err != nil {
		h.logger(ctx).Warn("description grading failed, using keyword scoring", zap.Error(err))
		result = scoreByKeywords(rc, in.UserDescription, in.ExpectedElements)
	}
	result.Timestamp = h.timestamp()
	return ok(result)
}

func (h *Handler) gradeDescription(ctx context.Context, rc resolver.Context, in descriptionRequest) (DescriptionResult, error) {
	reply, err := h.Generator.Generate(ctx, descriptionPrompt(rc, in.UserDescription, in.ExpectedElements, in.ImageContext))
	if err != nil {
		return DescriptionResult{}, err
	}

	var graded struct {
		Accuracy    float64  `json:"accuracy"`
		Feedback    string   `json:"feedback"`
		Suggestions []string `json:"suggestions"`
	}
	if err := provider.DecodeJSON(reply, &graded); err != nil {
		return DescriptionResult{}, err
	}

	result := DescriptionResult{
		Accuracy:    clamp(graded.Accuracy, 0, 100),
		Feedback:    orDefault(graded.Feedback, "Good effort!"),
		Suggestions: nonNil(graded.Suggestions),
		Method:      methodGenerated,
	}
	return result, nil
}

// scoreByKeywords grades by how many expected elements appear in the
// description. Matching is case insensitive for the target language.
func scoreByKeywords(rc resolver.Context, description string, expected []string) DescriptionResult {
	lower := cases.Lower(xlanguage.Make(string(rc.TargetCode)))
	words := strings.Fields(lower.String(description))

	matches := 0
	for _, element := range expected {
		e := lower.String(strings.TrimSpace(element))
		if e == "" {
			continue
		}
		for _, w := range words {
			if strings.Contains(e, w) || strings.Contains(w, e) {
				matches++
				break
			}
		}
	}

	accuracy := 50.0
	if len(expected) > 0 {
		accuracy = float64(matches) / float64(len(expected)) * 100
	}
	suggestions := expected
	if len(suggestions) > 3 {
		suggestions = suggestions[:3]
	}

	return DescriptionResult{
		Accuracy:    accuracy,
		Feedback:    fmt.Sprintf("Found %d out of %d expected elements.", matches, len(expected)),
		Suggestions: nonNil(suggestions),
		Method:      methodScoring,
	}
}

func clamp(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}
