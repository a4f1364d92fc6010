// Package detect guesses which language of a learner's pair a text is
// written in, so free text can be translated in the right direction.
package detect

import (
	"strings"

	"github.com/lingualoop/learning-api/internal/language"
	lingua "github.com/pemistahl/lingua-go"
)

var linguaByCode = map[language.Code]lingua.Language{
	"en": lingua.English,
	"ms": lingua.Malay,
	"es": lingua.Spanish,
	"fr": lingua.French,
	"de": lingua.German,
	"it": lingua.Italian,
	"zh": lingua.Chinese,
	"ja": lingua.Japanese,
	"ko": lingua.Korean,
	"th": lingua.Thai,
	"vi": lingua.Vietnamese,
	"id": lingua.Indonesian,
	"ar": lingua.Arabic,
	"hi": lingua.Hindi,
	"pt": lingua.Portuguese,
	"ru": lingua.Russian,
}

// MaxTextLength caps the text inspected per detection.
const MaxTextLength = 512

// Detector wraps a lingua detector restricted to the supported languages.
// Language models load lazily on first use and are shared afterwards; a
// Detector is safe for concurrent use.
type Detector struct {
	detector lingua.LanguageDetector
	codes    map[lingua.Language]language.Code
}

// New builds a detector over every supported language.
func New() *Detector {
	langs := make([]lingua.Language, 0, len(linguaByCode))
	codes := make(map[lingua.Language]language.Code, len(linguaByCode))
	for _, code := range language.Codes() {
		l, ok := linguaByCode[code]
		if !ok {
			continue
		}
		langs = append(langs, l)
		codes[l] = code
	}

	return &Detector{
		detector: lingua.NewLanguageDetectorBuilder().FromLanguages(langs...).Build(),
		codes:    codes,
	}
}

// Language returns the supported language text is most likely written in.
func (d *Detector) Language(text string) (language.Code, bool) {
	text = clip(text)
	if text == "" {
		return "", false
	}
	l, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return "", false
	}
	code, ok := d.codes[l]
	return code, ok
}

// Direction returns the source and destination for translating text within
// pair. Text that reads as the target language is translated into the
// native language; anything else is translated into the target language.
func (d *Detector) Direction(text string, pair language.Pair) (from, to language.Code) {
	if pair.Native == pair.Target {
		return pair.Native, pair.Target
	}
	native, okN := linguaByCode[pair.Native]
	target, okT := linguaByCode[pair.Target]
	text = clip(text)
	if !okN || !okT || text == "" {
		return pair.Native, pair.Target
	}

	if d.detector.ComputeLanguageConfidence(text, target) > d.detector.ComputeLanguageConfidence(text, native) {
		return pair.Target, pair.Native
	}
	return pair.Native, pair.Target
}

func clip(text string) string {
	text = strings.TrimSpace(text)
	if r := []rune(text); len(r) > MaxTextLength {
		text = string(r[:MaxTextLength])
	}
	return text
}
