package openrouter

import (
	"fmt"
	"strings"

	"github.com/wikibench/wikibench"
)

// reasoningParams is OpenRouter's normalized "reasoning" request
// object: either an effort level or an explicit token budget
// (Anthropic). Exclude keeps reasoning tokens out of the response.
type reasoningParams struct {
	Effort    string `json:"effort,omitempty"`
	MaxTokens int    `json:"max_tokens,omitempty"`
	Exclude   bool   `json:"exclude"`
}

// modelReasoning maps each benchmarked model to its per-mode reasoning
// settings. Effort vocabularies differ per provider; Anthropic takes a
// token budget instead (min 1024).
var modelReasoning = map[string]map[wikibench.ReasoningMode]reasoningParams{
	"openai/gpt-5.2": {
		wikibench.ReasoningHighest: {Effort: "xhigh", Exclude: true},
		wikibench.ReasoningLowest:  {Effort: "none", Exclude: true},
	},
	"anthropic/claude-opus-4.5": {
		wikibench.ReasoningHighest: {MaxTokens: 16384, Exclude: true},
		wikibench.ReasoningLowest:  {MaxTokens: 1024, Exclude: true},
	},
	"x-ai/grok-4.1-fast": {
		wikibench.ReasoningHighest: {Effort: "high", Exclude: true},
		wikibench.ReasoningLowest:  {Effort: "low", Exclude: true},
	},
	"google/gemini-3-flash-preview": {
		wikibench.ReasoningHighest: {Effort: "high", Exclude: true},
		wikibench.ReasoningLowest:  {Effort: "minimal", Exclude: true},
	},
}

// paramsFor resolves the reasoning settings for a model and mode.
// Unknown models fall back to a generic effort level rather than
// failing, so new models can be benchmarked without a table entry.
func paramsFor(model string, mode wikibench.ReasoningMode) (*reasoningParams, error) {
	if modes, ok := modelReasoning[model]; ok {
		if params, ok := modes[mode]; ok {
			return &params, nil
		}
		return nil, fmt.Errorf("openrouter: model %s has no %s reasoning config", model, mode)
	}
	switch mode {
	case wikibench.ReasoningHighest:
		return &reasoningParams{Effort: "high", Exclude: true}, nil
	case wikibench.ReasoningLowest:
		return &reasoningParams{Effort: "low", Exclude: true}, nil
	}
	return nil, fmt.Errorf("openrouter: unknown reasoning mode %q", mode)
}

// Factory returns a wikibench.ProviderFactory that builds one client
// per (model, condition) with the condition's reasoning mode.
func Factory(apiKey string, opts ...ClientOption) wikibench.ProviderFactory {
	return func(model string, cond wikibench.ConditionConfig) wikibench.DecisionProvider {
		return New(apiKey, model, cond.Reasoning, opts...)
	}
}

// DisplayName shortens a model identifier for scoreboards when no
// explicit display name is configured: "openai/gpt-5.2" -> "gpt-5.2".
func DisplayName(model string) string {
	if i := strings.LastIndexByte(model, '/'); i >= 0 {
		return model[i+1:]
	}
	return model
}
