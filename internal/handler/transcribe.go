package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/lingualoop/learning-api/internal/domain"
	"github.com/lingualoop/learning-api/internal/language"
	"github.com/lingualoop/learning-api/internal/logging"
	"go.uber.org/zap"
)

var errMissingAudio = fmt.Errorf("%w: audio is required", domain.ErrInvalidInput)

type transcriptionResponse struct {
	Transcription string  `json:"transcription"`
	Confidence    float64 `json:"confidence"`
	Language      string  `json:"language"`
	Timestamp     string  `json:"timestamp"`
	Method        string  `json:"method"`
}

// PostTranscribe transcribes an uploaded recording in the user's native
// language, or in the language form field when present.
func (h *Handler) PostTranscribe(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if !isMultipart(req) {
		return h.fail(ctx, fmt.Errorf("%w: multipart/form-data body is required", domain.ErrInvalidInput))
	}
	f, err := parseMultipart(req)
	if err != nil {
		return h.fail(ctx, err)
	}
	audio := f.file("audio")
	if len(audio) == 0 {
		return h.fail(ctx, errMissingAudio)
	}

	code, ctx, err := h.languageFor(ctx, f.value("userId"), f.value("language"), nativeSide)
	if err != nil {
		return h.fail(ctx, err)
	}
	locale, err := language.ProviderLocale(code)
	if err != nil {
		return h.fail(ctx, err)
	}

	tr, err := h.Transcriber.Transcribe(ctx, audio, locale)
	if errors.Is(err, domain.ErrTranscriptionTimeout) {
		h.logger(ctx).Warn("transcription timed out, serving fallback",
			zap.String(logging.FieldLocale, locale), zap.Error(err))
		return ok(transcriptionResponse{
			Transcription: fallbackTranscription(locale),
			Confidence:    fallbackConfidence,
			Language:      locale,
			Timestamp:     h.timestamp(),
			Method:        methodFallback,
		})
	}
	if err != nil {
		return h.fail(ctx, err)
	}

	return ok(transcriptionResponse{
		Transcription: tr.Text,
		Confidence:    tr.Confidence,
		Language:      locale,
		Timestamp:     h.timestamp(),
		Method:        methodTranscribe,
	})
}
