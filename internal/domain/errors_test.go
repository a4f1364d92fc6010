package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestKind(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		kind   string
		client bool
	}{
		{"nil", nil, "", false},
		{"missing user id", ErrMissingUserID, "MissingUserId", true},
		{"wrapped missing prefs", fmt.Errorf("resolve: %w", ErrMissingLanguagePreferences), "MissingLanguagePreferences", true},
		{"user not found via resolver", fmt.Errorf("%w: %w", ErrMissingLanguagePreferences, ErrUserNotFound), "MissingLanguagePreferences", true},
		{"bare user not found", ErrUserNotFound, "UserNotFound", true},
		{"unsupported", fmt.Errorf("target language: %w", ErrUnsupportedLanguage), "UnsupportedLanguage", true},
		{"invalid input", ErrInvalidInput, "InvalidInput", true},
		{"provider", fmt.Errorf("%w: bedrock: throttled", ErrProviderFailure), "ProviderFailure", false},
		{"transcription timeout", ErrTranscriptionTimeout, "ProviderFailure", false},
		{"unknown", errors.New("boom"), "InternalError", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Kind(tt.err); got != tt.kind {
				t.Errorf("Kind() = %q, want %q", got, tt.kind)
			}
			if got := IsClientError(tt.err); got != tt.client {
				t.Errorf("IsClientError() = %v, want %v", got, tt.client)
			}
		})
	}
}
