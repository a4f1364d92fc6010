package handler

import (
	"fmt"

	"github.com/lingualoop/learning-api/internal/domain"
	"github.com/lingualoop/learning-api/internal/language"
	"github.com/lingualoop/learning-api/internal/resolver"
)

// Method names reported in responses.
const (
	methodGenerated  = "amazon_nova_pro"
	methodFallback   = "fallback"
	methodTranscribe = "aws_transcribe"
	methodPolly      = "aws_polly"
	methodLabels     = "aws_rekognition_enhanced"
	methodScoring    = "fallback_scoring"
)

// fallbackConfidence is reported with canned transcriptions.
const fallbackConfidence = 0.8

// canned transcription per provider locale, used when a job times out.
var fallbackTranscriptions = map[string]string{
	"en-US": "Hello, how can I help you today?",
	"ms-MY": "Selamat datang, bagaimana saya boleh membantu anda?",
	"es-ES": "Hola, ¿cómo puedo ayudarte hoy?",
	"fr-FR": "Bonjour, comment puis-je vous aider aujourd'hui?",
	"de-DE": "Hallo, wie kann ich Ihnen heute helfen?",
	"it-IT": "Ciao, come posso aiutarti oggi?",
}

func fallbackTranscription(locale string) string {
	if t, ok := fallbackTranscriptions[locale]; ok {
		return t
	}
	return fallbackTranscriptions["en-US"]
}

type practiceFallback struct {
	transcription string
	feedback      string
	suggestions   string
}

var practiceFallbacks = map[string]practiceFallback{
	"en-US": {
		transcription: "Hello, this is a practice session.",
		feedback:      "Great job practicing! Keep it up.",
		suggestions:   "Continue practicing regularly to improve your pronunciation.",
	},
	"ms-MY": {
		transcription: "Selamat datang ke sesi latihan.",
		feedback:      "Bagus! Teruskan berlatih.",
		suggestions:   "Teruskan berlatih secara berkala untuk meningkatkan sebutan anda.",
	},
	"es-ES": {
		transcription: "Hola, esta es una sesión de práctica.",
		feedback:      "¡Buen trabajo practicando!",
		suggestions:   "Continúa practicando regularmente para mejorar tu pronunciación.",
	},
}

func practiceFallbackFor(locale string) practiceFallback {
	if p, ok := practiceFallbacks[locale]; ok {
		return p
	}
	return practiceFallbacks["en-US"]
}

func pronunciationFeedback(confidence float64) string {
	switch {
	case confidence > 0.9:
		return "Excellent pronunciation! Your accent is very clear."
	case confidence > 0.8:
		return "Good pronunciation! Keep practicing to improve clarity."
	case confidence > 0.6:
		return "Fair pronunciation. Focus on speaking more clearly."
	default:
		return "Keep practicing! Try speaking more slowly and clearly."
	}
}

func pronunciationSuggestions(confidence float64) string {
	switch {
	case confidence < 0.7:
		return "Try speaking more slowly and emphasize each syllable clearly."
	case confidence < 0.8:
		return "Good effort! Practice the pronunciation of difficult sounds."
	default:
		return "Great job! Continue practicing to maintain this level."
	}
}

// greetings seed the fallback lesson with one word in each language.
var greetings = map[language.Code]string{
	"en": "hello",
	"ms": "helo",
	"es": "hola",
	"fr": "bonjour",
	"de": "hallo",
	"it": "ciao",
	"zh": "你好",
	"ja": "こんにちは",
	"ko": "안녕하세요",
	"th": "สวัสดี",
	"vi": "xin chào",
	"id": "halo",
	"ar": "مرحبا",
	"hi": "नमस्ते",
	"pt": "olá",
	"ru": "привет",
}

// fallbackLesson is served when the generated lesson cannot be decoded.
// It is built from the resolved pair, never from fixed languages.
func fallbackLesson(rc resolver.Context, topic string) lessonContent {
	return lessonContent{
		Title:   fmt.Sprintf("%s Lesson: %s", rc.TargetName, topic),
		Content: fmt.Sprintf("Learn %s vocabulary about %s", rc.TargetName, topic),
		Vocabulary: []domain.LessonWord{{
			Word:        greetings[rc.TargetCode],
			Translation: greetings[rc.NativeCode],
		}},
		CulturalNote: fmt.Sprintf("Greetings are an important part of everyday %s conversation.", rc.TargetName),
		Exercises:    []string{"Practice pronunciation", "Use in sentences"},
	}
}
