package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/lingualoop/learning-api/internal/domain"
	"github.com/lingualoop/learning-api/internal/language"
	"github.com/lingualoop/learning-api/internal/provider"
)

type translateRequest struct {
	UserID string `json:"userId"`
	Text   string `json:"text"`
}

type translateResponse struct {
	TranslatedText string        `json:"translatedText"`
	SourceLanguage string        `json:"sourceLanguage"`
	TargetLanguage string        `json:"targetLanguage"`
	NativeLanguage string        `json:"nativeLanguage"`
	SourceCode     language.Code `json:"sourceCode"`
	TargetCode     language.Code `json:"targetCode"`
	Timestamp      string        `json:"timestamp"`
	Method         string        `json:"method"`
}

// PostTranslate translates text between the user's two languages. Text in
// the native language goes to the target language and vice versa.
func (h *Handler) PostTranslate(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	var in translateRequest
	if err := decodeJSON(req, &in); err != nil {
		return h.fail(ctx, err)
	}
	if err := required(in.Text, "text"); err != nil {
		return h.fail(ctx, err)
	}
	text := strings.TrimSpace(in.Text)

	rc, ctx, err := h.resolve(ctx, in.UserID)
	if err != nil {
		return h.fail(ctx, err)
	}
	if rc.SameLanguage() {
		return h.fail(ctx, fmt.Errorf("%w: native and target language are both %s", domain.ErrInvalidInput, rc.NativeName))
	}

	from, to := rc.NativeCode, rc.TargetCode
	if h.Detector != nil {
		from, to = h.Detector.Direction(text, rc.Pair())
	}
	fromName, err := language.DisplayName(from)
	if err != nil {
		return h.fail(ctx, err)
	}
	toName, err := language.DisplayName(to)
	if err != nil {
		return h.fail(ctx, err)
	}

	reply, err := h.Generator.Generate(ctx, translatePrompt(text, fromName, toName))
	if err != nil {
		return h.fail(ctx, err)
	}

	return ok(translateResponse{
		TranslatedText: cleanTranslation(provider.StripCodeFence(reply)),
		SourceLanguage: fromName,
		TargetLanguage: toName,
		NativeLanguage: rc.NativeName,
		SourceCode:     from,
		TargetCode:     to,
		Timestamp:      h.timestamp(),
		Method:         methodGenerated,
	})
}
