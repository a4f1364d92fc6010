package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/lingualoop/learning-api/internal/domain"
)

// ConverseAPI is the subset of *bedrockruntime.Client used by Bedrock.
type ConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// Bedrock generates text with the Bedrock Converse API.
type Bedrock struct {
	client    ConverseAPI
	modelID   string
	maxTokens int32
	timeout   time.Duration
}

// NewBedrock creates a generator for modelID.
func NewBedrock(client ConverseAPI, modelID string, maxTokens int32, timeout time.Duration) *Bedrock {
	return &Bedrock{client: client, modelID: modelID, maxTokens: maxTokens, timeout: timeout}
}

// Generate sends prompt as a single user turn and returns the trimmed text
// of the reply.
func (b *Bedrock) Generate(ctx context.Context, prompt string) (string, error) {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	input := &bedrockruntime.ConverseInput{
		ModelId: aws.String(b.modelID),
		Messages: []types.Message{{
			Role:    types.ConversationRoleUser,
			Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: prompt}},
		}},
	}
	if b.maxTokens > 0 {
		input.InferenceConfig = &types.InferenceConfiguration{MaxTokens: aws.Int32(b.maxTokens)}
	}

	out, err := b.client.Converse(ctx, input)
	if err != nil {
		return "", failure("bedrock converse", err)
	}

	text, err := replyText(out)
	if err != nil {
		return "", fmt.Errorf("%w: bedrock converse: %w", domain.ErrProviderFailure, err)
	}
	return text, nil
}

func replyText(out *bedrockruntime.ConverseOutput) (string, error) {
	if out == nil {
		return "", errors.New("empty response")
	}
	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return "", errors.New("response has no message")
	}

	var parts []string
	for _, block := range msg.Value.Content {
		if t, ok := block.(*types.ContentBlockMemberText); ok {
			parts = append(parts, t.Value)
		}
	}
	if len(parts) == 0 {
		return "", errors.New("response has no text content")
	}
	return strings.TrimSpace(strings.Join(parts, "")), nil
}
