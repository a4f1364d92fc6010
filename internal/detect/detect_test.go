package detect

import (
	"testing"

	"github.com/lingualoop/learning-api/internal/language"
)

var shared = New()

func TestEverySupportedLanguageIsMapped(t *testing.T) {
	for _, code := range language.Codes() {
		if _, ok := linguaByCode[code]; !ok {
			t.Errorf("no detector language for %s", code)
		}
	}
}

func TestLanguage(t *testing.T) {
	tests := []struct {
		name string
		text string
		want language.Code
		ok   bool
	}{
		{name: "english", text: "The weather is lovely today and I would like to go for a walk.", want: "en", ok: true},
		{name: "french", text: "Je voudrais une tasse de café avec du lait, s'il vous plaît.", want: "fr", ok: true},
		{name: "japanese", text: "今日はとても良い天気ですね。散歩に行きましょう。", want: "ja", ok: true},
		{name: "russian", text: "Сегодня прекрасная погода, давайте пойдём гулять.", want: "ru", ok: true},
		{name: "blank", text: "   ", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := shared.Language(tt.text)
			if ok != tt.ok || got != tt.want {
				t.Errorf("Language(%q) = %q, %v, want %q, %v", tt.text, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestDirection(t *testing.T) {
	enES := language.Pair{Native: "en", Target: "es"}

	tests := []struct {
		name     string
		text     string
		pair     language.Pair
		wantFrom language.Code
		wantTo   language.Code
	}{
		{
			name:     "native text goes to target",
			text:     "Where is the nearest train station, please?",
			pair:     enES,
			wantFrom: "en",
			wantTo:   "es",
		},
		{
			name:     "target text goes to native",
			text:     "¿Dónde está la estación de tren más cercana, por favor?",
			pair:     enES,
			wantFrom: "es",
			wantTo:   "en",
		},
		{
			name:     "empty text keeps default direction",
			text:     "",
			pair:     enES,
			wantFrom: "en",
			wantTo:   "es",
		},
		{
			name:     "same language pair is returned as is",
			text:     "¿Dónde está la estación?",
			pair:     language.Pair{Native: "es", Target: "es"},
			wantFrom: "es",
			wantTo:   "es",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to := shared.Direction(tt.text, tt.pair)
			if from != tt.wantFrom || to != tt.wantTo {
				t.Errorf("Direction() = %s->%s, want %s->%s", from, to, tt.wantFrom, tt.wantTo)
			}
		})
	}
}
