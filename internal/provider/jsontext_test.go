package provider

import (
	"errors"
	"testing"

	"github.com/lingualoop/learning-api/internal/domain"
)

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: `{"a":1}`, want: `{"a":1}`},
		{name: "json fence", in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "bare fence", in: "```\n[1,2]\n```", want: `[1,2]`},
		{name: "fence on one line", in: "```{\"a\":1}```", want: `{"a":1}`},
		{name: "surrounding whitespace", in: "  \n```JSON\n{}\n```\n ", want: `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripCodeFence(tt.in); got != tt.want {
				t.Errorf("StripCodeFence(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	type reply struct {
		Title string `json:"title"`
	}

	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "fenced", in: "```json\n{\"title\":\"Café\"}\n```", want: "Café"},
		{name: "prose around object", in: "Here is the lesson:\n{\"title\":\"Food\"}\nEnjoy!", want: "Food"},
		{name: "not json", in: "I cannot help with that.", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r reply
			err := DecodeJSON(tt.in, &r)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrProviderFailure) {
					t.Errorf("DecodeJSON() error = %v, want ErrProviderFailure", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeJSON() error = %v", err)
			}
			if r.Title != tt.want {
				t.Errorf("Title = %q, want %q", r.Title, tt.want)
			}
		})
	}
}
