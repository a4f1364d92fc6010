// Package language holds the supported language table and the
// normalization of user supplied language preferences.
//
// The table is package data built once at init and never mutated, so every
// function here is safe for concurrent use without locking.
package language

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lingualoop/learning-api/internal/domain"
	"golang.org/x/text/cases"
	xlanguage "golang.org/x/text/language"
)

// Code is a canonical language code such as "en" or "ms".
type Code string

// Pair is a user's native and target language.
type Pair struct {
	Native Code `json:"native"`
	Target Code `json:"target"`
}

// Voice is a speech synthesis voice and the locale it speaks.
type Voice struct {
	ID     string
	Locale string
}

type entry struct {
	code    Code
	name    string
	locale  xlanguage.Tag
	voice   *Voice
	aliases []string
}

var languages = []entry{
	{"en", "English", xlanguage.MustParse("en-US"), &Voice{"Joanna", "en-US"},
		[]string{"english", "eng", "inggeris", "bahasa inggeris"}},
	{"ms", "Malay", xlanguage.MustParse("ms-MY"), &Voice{"Aditi", "en-IN"},
		[]string{"malay", "bm", "bahasa melayu", "bahasa malaysia", "melayu", "msa", "may", "zsm"}},
	{"es", "Spanish", xlanguage.MustParse("es-ES"), &Voice{"Conchita", "es-ES"},
		[]string{"spanish", "español", "espanol", "castellano", "spa"}},
	{"fr", "French", xlanguage.MustParse("fr-FR"), &Voice{"Celine", "fr-FR"},
		[]string{"french", "français", "francais", "fra", "fre"}},
	{"de", "German", xlanguage.MustParse("de-DE"), &Voice{"Marlene", "de-DE"},
		[]string{"german", "deutsch", "deu", "ger"}},
	{"it", "Italian", xlanguage.MustParse("it-IT"), &Voice{"Carla", "it-IT"},
		[]string{"italian", "italiano", "ita"}},
	{"zh", "Chinese", xlanguage.MustParse("zh-CN"), &Voice{"Zhiyu", "cmn-CN"},
		[]string{"chinese", "mandarin", "中文", "zho", "chi", "cmn"}},
	{"ja", "Japanese", xlanguage.MustParse("ja-JP"), &Voice{"Mizuki", "ja-JP"},
		[]string{"japanese", "日本語", "jpn"}},
	{"ko", "Korean", xlanguage.MustParse("ko-KR"), &Voice{"Seoyeon", "ko-KR"},
		[]string{"korean", "한국어", "kor"}},
	{"th", "Thai", xlanguage.MustParse("th-TH"), nil,
		[]string{"thai", "ภาษาไทย", "tha"}},
	{"vi", "Vietnamese", xlanguage.MustParse("vi-VN"), nil,
		[]string{"vietnamese", "tiếng việt", "vie"}},
	{"id", "Indonesian", xlanguage.MustParse("id-ID"), nil,
		[]string{"indonesian", "bahasa indonesia", "ind"}},
	{"ar", "Arabic", xlanguage.MustParse("ar-SA"), &Voice{"Zeina", "arb"},
		[]string{"arabic", "العربية", "ara"}},
	{"hi", "Hindi", xlanguage.MustParse("hi-IN"), &Voice{"Aditi", "hi-IN"},
		[]string{"hindi", "हिन्दी", "hin"}},
	{"pt", "Portuguese", xlanguage.MustParse("pt-BR"), &Voice{"Camila", "pt-BR"},
		[]string{"portuguese", "português", "portugues", "por"}},
	{"ru", "Russian", xlanguage.MustParse("ru-RU"), &Voice{"Tatyana", "ru-RU"},
		[]string{"russian", "русский", "rus"}},
}

// Index maps built at init time.
var (
	byCode  map[Code]*entry
	byAlias map[string]*entry
)

func init() {
	byCode = make(map[Code]*entry, len(languages))
	byAlias = make(map[string]*entry, len(languages)*5)
	for i := range languages {
		e := &languages[i]
		byCode[e.code] = e
		for _, a := range e.aliases {
			byAlias[a] = e
		}
	}
}

// Normalize maps a raw language preference (a code, an alias, or a BCP 47
// tag whose base language is supported) to its canonical code.
func Normalize(raw string) (Code, error) {
	key := fold(raw)
	if key == "" {
		return "", fmt.Errorf("%w: empty language", domain.ErrUnsupportedLanguage)
	}
	if e, ok := byCode[Code(key)]; ok {
		return e.code, nil
	}
	if e, ok := byAlias[key]; ok {
		return e.code, nil
	}
	// Region or script qualified tags: "en-US", "pt_BR", "zh-Hant".
	if strings.ContainsAny(key, "-_") {
		if tag, err := xlanguage.Parse(strings.ReplaceAll(key, "_", "-")); err == nil {
			base, _ := tag.Base()
			if e, ok := byCode[Code(base.String())]; ok {
				return e.code, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedLanguage, strings.TrimSpace(raw))
}

// NormalizeValue is Normalize for values of unknown type, as read from a
// schemaless store. Non-string values fail with domain.ErrInvalidInput.
func NormalizeValue(v any) (Code, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: language must be a string, got %T", domain.ErrInvalidInput, v)
	}
	return Normalize(s)
}

// IsSupported reports whether code is a canonical supported code.
func IsSupported(code Code) bool {
	_, ok := byCode[code]
	return ok
}

// DisplayName returns the English name of a supported code.
func DisplayName(code Code) (string, error) {
	e, err := lookup(code)
	if err != nil {
		return "", err
	}
	return e.name, nil
}

// ProviderLocale returns the region qualified tag used by the speech
// services, e.g. "ms-MY".
func ProviderLocale(code Code) (string, error) {
	e, err := lookup(code)
	if err != nil {
		return "", err
	}
	return e.locale.String(), nil
}

// SpeechVoice returns the synthesis voice for code. Languages without a
// voice fail with domain.ErrUnsupportedLanguage.
func SpeechVoice(code Code) (Voice, error) {
	e, err := lookup(code)
	if err != nil {
		return Voice{}, err
	}
	if e.voice == nil {
		return Voice{}, fmt.Errorf("%w: no speech voice for %s", domain.ErrUnsupportedLanguage, e.name)
	}
	return *e.voice, nil
}

// Codes returns all supported codes in sorted order.
func Codes() []Code {
	codes := make([]Code, 0, len(languages))
	for _, e := range languages {
		codes = append(codes, e.code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

func lookup(code Code) (*entry, error) {
	e, ok := byCode[code]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedLanguage, string(code))
	}
	return e, nil
}

// fold case folds, trims and collapses inner whitespace. A Caser holds
// state, so each call builds its own.
func fold(s string) string {
	return strings.Join(strings.Fields(cases.Fold().String(s)), " ")
}
