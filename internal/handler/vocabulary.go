package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/lingualoop/learning-api/internal/domain"
)

type vocabularyRequest struct {
	UserID      string `json:"userId"`
	Word        string `json:"word"`
	Translation string `json:"translation"`
	Context     string `json:"context"`
}

// GetVocabulary lists the saved words of the userId query parameter.
func (h *Handler) GetVocabulary(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	userID := strings.TrimSpace(req.QueryStringParameters["userId"])
	if userID == "" {
		return h.fail(ctx, domain.ErrMissingUserID)
	}

	items, err := h.Vocabulary.List(ctx, userID)
	if err != nil {
		return h.fail(ctx, err)
	}
	return ok(map[string]any{"vocabulary": items})
}

// PostVocabulary saves a word tagged with the user's language pair.
func (h *Handler) PostVocabulary(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	var in vocabularyRequest
	if err := decodeJSON(req, &in); err != nil {
		return h.fail(ctx, err)
	}
	if err := required(in.Word, "word"); err != nil {
		return h.fail(ctx, err)
	}
	if err := required(in.Translation, "translation"); err != nil {
		return h.fail(ctx, err)
	}

	rc, ctx, err := h.resolve(ctx, in.UserID)
	if err != nil {
		return h.fail(ctx, err)
	}

	item := &domain.VocabularyItem{
		UserID:         rc.UserID,
		WordID:         h.NewID(),
		Word:           strings.TrimSpace(in.Word),
		Translation:    strings.TrimSpace(in.Translation),
		Context:        in.Context,
		Language:       string(rc.TargetCode),
		NativeLanguage: string(rc.NativeCode),
		AddedAt:        h.timestamp(),
		MasteryLevel:   1,
	}
	if err := h.Vocabulary.Add(ctx, item); err != nil {
		return h.fail(ctx, err)
	}
	return JSON(http.StatusCreated, map[string]any{
		"message": "Vocabulary added successfully",
		"word":    item,
	}), nil
}
