package provider

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lingualoop/learning-api/internal/domain"
)

// StripCodeFence removes a surrounding markdown code fence, with or without
// a language tag, from model output.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop the info string ("json", "JSON", ...) up to the first newline.
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		if tag := strings.TrimSpace(s[:i]); !strings.ContainsAny(tag, "{[") {
			s = s[i+1:]
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// DecodeJSON decodes model output into v after stripping any code fence.
// When the reply wraps the document in prose, the outermost object or
// array is extracted. Undecodable output is a provider failure.
func DecodeJSON(text string, v any) error {
	body := StripCodeFence(text)
	err := json.Unmarshal([]byte(body), v)
	if err == nil {
		return nil
	}
	if inner, ok := outermostJSON(body); ok {
		if err2 := json.Unmarshal([]byte(inner), v); err2 == nil {
			return nil
		}
	}
	return fmt.Errorf("%w: decode model output: %w", domain.ErrProviderFailure, err)
}

func outermostJSON(s string) (string, bool) {
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return "", false
	}
	closer := byte('}')
	if s[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(s, closer)
	if end <= start {
		return "", false
	}
	return s[start : end+1], true
}
