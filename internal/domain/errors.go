package domain

import "errors"

// Error kinds shared by the resolver, stores, providers and handlers.
// Callers wrap them with fmt.Errorf("...: %w", ...) and classify with errors.Is.
var (
	ErrInvalidInput               = errors.New("invalid input")
	ErrMissingUserID              = errors.New("userId is required")
	ErrMissingLanguagePreferences = errors.New("missing language preferences")
	ErrUnsupportedLanguage        = errors.New("unsupported language")
	ErrProviderFailure            = errors.New("provider failure")

	// ErrUserNotFound is always reported together with
	// ErrMissingLanguagePreferences when it comes out of the resolver.
	ErrUserNotFound = errors.New("user not found")

	// ErrTranscriptionTimeout means the transcription job did not finish
	// within the configured ceiling. It is not a provider failure: handlers
	// answer with the canned per-locale fallback.
	ErrTranscriptionTimeout = errors.New("transcription timed out")
)

// Kind returns the public name of the error class of err, as reported in
// the "code" field of error responses.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingUserID):
		return "MissingUserId"
	case errors.Is(err, ErrMissingLanguagePreferences):
		return "MissingLanguagePreferences"
	case errors.Is(err, ErrUnsupportedLanguage):
		return "UnsupportedLanguage"
	case errors.Is(err, ErrInvalidInput):
		return "InvalidInput"
	case errors.Is(err, ErrUserNotFound):
		return "UserNotFound"
	case errors.Is(err, ErrProviderFailure), errors.Is(err, ErrTranscriptionTimeout):
		return "ProviderFailure"
	default:
		return "InternalError"
	}
}

// IsClientError reports whether err was caused by the caller's input.
func IsClientError(err error) bool {
	switch Kind(err) {
	case "MissingUserId", "MissingLanguagePreferences", "UnsupportedLanguage", "InvalidInput", "UserNotFound":
		return true
	}
	return false
}
