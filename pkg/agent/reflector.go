// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

package agent

import (
	"context"
	"fmt"
	"strings"

	"test-smith/pkg/llm"
)

// Reflector summarizes a distilled context into a summary and key
// findings. Used by the analyzer step to turn combined retrieval/web
// content into the prose parts of an Analyzed Note, before source
// provenance is attached. Grounded on the teacher's Reflector; dropped
// the workflow.PlanStep dependency in favor of a plain question string.
type Reflector struct {
	llm         llm.Provider
	temperature float32
	maxTokens   int
}

// ReflectorConfig contains configuration for the reflector agent.
type ReflectorConfig struct {
	Temperature float32
	MaxTokens   int
}

// NewReflector creates a new reflector agent.
func NewReflector(llmProvider llm.Provider, config *ReflectorConfig) *Reflector {
	if config == nil {
		config = &ReflectorConfig{Temperature: 0.4, MaxTokens: 800}
	}
	return &Reflector{llm: llmProvider, temperature: config.Temperature, maxTokens: config.MaxTokens}
}

// Reflect generates a summary and key findings for question from the
// supplied synthesized context.
func (r *Reflector) Reflect(ctx context.Context, question, synthesizedContext string) (string, []string, error) {
	if synthesizedContext == "" {
		return "", nil, fmt.Errorf("no context to reflect on")
	}

	resp, err := r.llm.Complete(ctx, &llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: "system", Content: systemPromptReflector},
			{Role: "user", Content: r.buildPrompt(question, synthesizedContext)},
		},
		Temperature: r.temperature,
		MaxTokens:   r.maxTokens,
	})
	if err != nil {
		return "", nil, fmt.Errorf("LLM reflection failed: %w", err)
	}

	summary, keyFindings := parseReflection(resp.Content)
	return summary, keyFindings, nil
}

func (r *Reflector) buildPrompt(question, synthesizedContext string) string {
	return fmt.Sprintf(`Reflect on the following synthesized findings for the question below.

Question: %s

Synthesized context:
%s

Format your response as:
SUMMARY: [2-3 sentence summary]

KEY FINDINGS:
- [finding 1]
- [finding 2]
- [finding 3]`, question, synthesizedContext)
}

func parseReflection(response string) (string, []string) {
	lines := strings.Split(response, "\n")

	var summary string
	var keyFindings []string
	inFindings := false

	for _, line := range lines {
		line = strings.TrimSpace(line)

		if strings.HasPrefix(strings.ToUpper(line), "SUMMARY:") {
			summary = strings.TrimSpace(strings.TrimPrefix(line, "SUMMARY:"))
			summary = strings.TrimSpace(strings.TrimPrefix(summary, "Summary:"))
			continue
		}

		if strings.Contains(strings.ToUpper(line), "KEY FINDINGS") {
			inFindings = true
			continue
		}

		if inFindings && strings.HasPrefix(line, "-") {
			if finding := strings.TrimSpace(strings.TrimPrefix(line, "-")); finding != "" {
				keyFindings = append(keyFindings, finding)
			}
		}
	}

	if summary == "" {
		summary = strings.TrimSpace(response)
	}

	return summary, keyFindings
}

const systemPromptReflector = `You are a reflection and summarization expert for a research assistant.

Reflect on synthesized findings and extract key insights:
- Provide a concise summary of what was found
- Extract 3-5 specific key findings that answer the question
- Be precise and factual

Always structure your response with:
SUMMARY: [2-3 sentence summary]

KEY FINDINGS:
- [specific finding 1]
- [specific finding 2]
- [specific finding 3]`
