// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Validator is implemented by structured-output records that can check
// their own invariants beyond what JSON unmarshaling enforces (required
// fields, enum membership, bounds). GenerateStructured calls Validate
// after unmarshaling and treats a non-nil error as a schema validation
// failure eligible for the single retry.
type Validator interface {
	Validate() error
}

// StructuredRequest describes a generate_structured call: a schema-bound
// completion where the caller supplies the prompt messages and receives a
// validated record instead of free text.
type StructuredRequest struct {
	Messages    []Message
	Temperature float32
	MaxTokens   int
}

// GenerateStructured invokes provider with req and unmarshals the JSON
// object found in the response into out (a pointer to a struct). If out
// implements Validator, Validate is also checked. On a parse or validation
// failure the call is retried once with a reminder message appended; a
// second failure returns the underlying error so the caller can wrap it as
// a SchemaValidationError (spec'd retry-once-with-reminder policy).
func GenerateStructured(ctx context.Context, provider Provider, req *StructuredRequest, out any) error {
	if req == nil {
		return fmt.Errorf("structured request is nil")
	}

	err := attemptStructured(ctx, provider, req.Messages, req.Temperature, req.MaxTokens, out)
	if err == nil {
		return nil
	}

	reminder := Message{
		Role: "user",
		Content: "Your previous response did not parse as valid JSON matching the requested " +
			"schema. Respond again with ONLY the JSON object, no markdown fences, no commentary.",
	}
	retryMessages := append(append([]Message{}, req.Messages...), reminder)
	return attemptStructured(ctx, provider, retryMessages, req.Temperature, req.MaxTokens, out)
}

func attemptStructured(ctx context.Context, provider Provider, messages []Message, temperature float32, maxTokens int, out any) error {
	resp, err := provider.Complete(ctx, &CompletionRequest{
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return fmt.Errorf("structured completion failed: %w", err)
	}

	jsonStr, err := extractJSONObject(resp.Content)
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(jsonStr), out); err != nil {
		return fmt.Errorf("unmarshaling structured response: %w", err)
	}

	if v, ok := out.(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("structured response failed validation: %w", err)
		}
	}

	return nil
}

// extractJSONObject finds the first balanced {...} object in text,
// tolerating surrounding markdown fences or commentary the way the
// teacher's schema analyzer does for LLM responses.
func extractJSONObject(text string) (string, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	start := strings.Index(text, "{")
	if start == -1 {
		return "", fmt.Errorf("no JSON object found in response")
	}

	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}

	return "", fmt.Errorf("unbalanced JSON object in response")
}
