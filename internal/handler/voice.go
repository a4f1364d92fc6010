package handler

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/lingualoop/learning-api/internal/domain"
	"github.com/lingualoop/learning-api/internal/language"
	"github.com/lingualoop/learning-api/internal/logging"
	"go.uber.org/zap"
)

type speechRequest struct {
	UserID   string `json:"userId"`
	Text     string `json:"text"`
	Language string `json:"language"`
}

type speechResponse struct {
	AudioData   string        `json:"audioData"`
	AudioFormat string        `json:"audioFormat"`
	Text        string        `json:"text"`
	Voice       string        `json:"voice"`
	Language    language.Code `json:"language"`
	Timestamp   string        `json:"timestamp"`
	Method      string        `json:"method"`
}

type practiceResponse struct {
	Transcription string        `json:"transcription"`
	Confidence    float64       `json:"confidence"`
	Feedback      string        `json:"feedback"`
	Suggestions   string        `json:"suggestions"`
	Language      language.Code `json:"language"`
	Timestamp     string        `json:"timestamp"`
	Method        string        `json:"method"`
}

// PostVoice serves speech synthesis for JSON bodies and pronunciation
// practice for multipart audio uploads.
func (h *Handler) PostVoice(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if isMultipart(req) {
		return h.practice(ctx, req)
	}
	return h.speak(ctx, req)
}

// speak synthesizes text in the requested language, or the user's target
// language when none is given.
func (h *Handler) speak(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	var in speechRequest
	if err := decodeJSON(req, &in); err != nil {
		return h.fail(ctx, err)
	}
	if err := required(in.Text, "text"); err != nil {
		return h.fail(ctx, err)
	}

	code, ctx, err := h.languageFor(ctx, in.UserID, in.Language, targetSide)
	if err != nil {
		return h.fail(ctx, err)
	}
	voice, err := language.SpeechVoice(code)
	if err != nil {
		return h.fail(ctx, err)
	}

	audio, err := h.Speech.Synthesize(ctx, in.Text, voice.ID, voice.Locale)
	if err != nil {
		return h.fail(ctx, err)
	}

	return ok(speechResponse{
		AudioData:   base64.StdEncoding.EncodeToString(audio),
		AudioFormat: "mp3",
		Text:        in.Text,
		Voice:       voice.ID,
		Language:    code,
		Timestamp:   h.timestamp(),
		Method:      methodPolly,
	})
}

// practice transcribes a learner's recording in their target language and
// grades it by the transcription confidence.
func (h *Handler) practice(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	f, err := parseMultipart(req)
	if err != nil {
		return h.fail(ctx, err)
	}
	audio := f.file("audio")
	if len(audio) == 0 {
		return h.fail(ctx, errMissingAudio)
	}

	override := f.value("language", "targetLanguage")
	code, ctx, err := h.languageFor(ctx, f.value("userId"), override, targetSide)
	if err != nil {
		return h.fail(ctx, err)
	}
	locale, err := language.ProviderLocale(code)
	if err != nil {
		return h.fail(ctx, err)
	}

	tr, err := h.Pronunciation.Transcribe(ctx, audio, locale)
	if errors.Is(err, domain.ErrTranscriptionTimeout) {
		h.logger(ctx).Warn("pronunciation transcription timed out, serving fallback",
			zap.String(logging.FieldLocale, locale), zap.Error(err))
		fb := practiceFallbackFor(locale)
		return ok(practiceResponse{
			Transcription: fb.transcription,
			Confidence:    fallbackConfidence,
			Feedback:      fb.feedback,
			Suggestions:   fb.suggestions,
			Language:      code,
			Timestamp:     h.timestamp(),
			Method:        methodFallback,
		})
	}
	if err != nil {
		return h.fail(ctx, err)
	}

	return ok(practiceResponse{
		Transcription: tr.Text,
		Confidence:    tr.Confidence,
		Feedback:      pronunciationFeedback(tr.Confidence),
		Suggestions:   pronunciationSuggestions(tr.Confidence),
		Language:      code,
		Timestamp:     h.timestamp(),
		Method:        methodTranscribe,
	})
}

type side int

const (
	nativeSide side = iota
	targetSide
)

// languageFor returns the normalized override when one is given, otherwise
// one side of the user's resolved pair.
func (h *Handler) languageFor(ctx context.Context, userID, override string, s side) (language.Code, context.Context, error) {
	if strings.TrimSpace(override) != "" {
		code, err := language.Normalize(override)
		return code, ctx, err
	}
	rc, ctx, err := h.resolve(ctx, userID)
	if err != nil {
		return "", ctx, err
	}
	if s == nativeSide {
		return rc.NativeCode, ctx, nil
	}
	return rc.TargetCode, ctx, nil
}
