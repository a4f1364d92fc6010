// Package provider adapts the AWS AI and media services to the small
// capability interfaces the feature handlers depend on.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
	"github.com/lingualoop/learning-api/internal/domain"
)

// TextGenerator generates text from a prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// LabelDetector detects object labels in an image.
type LabelDetector interface {
	DetectLabels(ctx context.Context, image []byte) ([]Label, error)
}

// Transcriber converts speech audio in the given provider locale to text.
// It fails with domain.ErrTranscriptionTimeout when the job outlives its
// ceiling.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, locale string) (Transcript, error)
}

// SpeechSynthesizer converts text to MP3 audio.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, voiceID, locale string) ([]byte, error)
}

// Label is a detected object.
type Label struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"` // 0..1
}

// Transcript is the result of a transcription job.
type Transcript struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"` // mean word confidence, 0..1
}

// failure wraps err as a provider failure, keeping the AWS error code in
// the message when there is one.
func failure(op string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %s: %s: %w", domain.ErrProviderFailure, op, apiErr.ErrorCode(), err)
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrProviderFailure, op, err)
}
