// Package ai talks to external review-writing AI vendors. Each vendor gets
// one adapter that normalizes its HTTP envelope into []domain.GeneratedReview;
// everything above this package is provider-agnostic.
package ai

import (
	"context"
	"time"

	"reviewloop/pkg/domain"
)

// Adapter generates reviews through exactly one AI vendor. The prompt must
// instruct the model to answer with a JSON array of objects carrying "text",
// "keywords_used" and "seo_score"; the adapter's only structural job is to
// extract the vendor's message content and parse that array.
//
// The API key flows in as an explicit argument per call; adapters hold no
// credentials.
type Adapter interface {
	Provider() domain.Provider
	Generate(ctx context.Context, modelID, prompt, apiKey string, maxTokens int) ([]domain.GeneratedReview, error)
}

const defaultCallTimeout = 60 * time.Second

// DefaultAdapters returns one adapter per supported vendor, keyed by
// provider id, sharing the given per-call timeout (0 means the default).
func DefaultAdapters(timeout time.Duration) map[domain.Provider]Adapter {
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return map[domain.Provider]Adapter{
		domain.ProviderOpenAI:    NewOpenAIAdapter(timeout),
		domain.ProviderGroq:      NewGroqAdapter(timeout),
		domain.ProviderAnthropic: NewAnthropicAdapter(timeout),
		domain.ProviderGoogle:    NewGeminiAdapter(timeout),
	}
}
