package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/polly/types"
	"github.com/lingualoop/learning-api/internal/chunker"
	"github.com/lingualoop/learning-api/internal/domain"
)

// SynthesizeSpeechAPI is the subset of *polly.Client used by Polly.
type SynthesizeSpeechAPI interface {
	SynthesizeSpeech(ctx context.Context, params *polly.SynthesizeSpeechInput, optFns ...func(*polly.Options)) (*polly.SynthesizeSpeechOutput, error)
}

// Polly synthesizes MP3 speech with Amazon Polly.
type Polly struct {
	client   SynthesizeSpeechAPI
	timeout  time.Duration
	maxChars int
}

// NewPolly creates a synthesizer.
func NewPolly(client SynthesizeSpeechAPI, timeout time.Duration) *Polly {
	return &Polly{client: client, timeout: timeout, maxChars: chunker.DefaultMaxChars}
}

// Synthesize returns MP3 audio for text. Text longer than one request is
// synthesized chunk by chunk; MP3 frames concatenate into one stream.
func (p *Polly) Synthesize(ctx context.Context, text, voiceID, locale string) ([]byte, error) {
	chunks := chunker.SplitText(text, p.maxChars)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: text is empty", domain.ErrInvalidInput)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	var audio bytes.Buffer
	for i, chunk := range chunks {
		input := &polly.SynthesizeSpeechInput{
			Text:         aws.String(chunk),
			OutputFormat: types.OutputFormatMp3,
			VoiceId:      types.VoiceId(voiceID),
		}
		if locale != "" {
			input.LanguageCode = types.LanguageCode(locale)
		}

		out, err := p.client.SynthesizeSpeech(ctx, input)
		if err != nil {
			return nil, failure(fmt.Sprintf("polly synthesize chunk %d", i+1), err)
		}
		_, err = io.Copy(&audio, out.AudioStream)
		out.AudioStream.Close()
		if err != nil {
			return nil, failure("polly read audio", err)
		}
	}
	return audio.Bytes(), nil
}
