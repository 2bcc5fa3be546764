// Package app wires the provider adapters, prompt builder, SEO scorer, and
// storage into the review generation and template lifecycle engine.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"reviewloop/pkg/ai"
	"reviewloop/pkg/domain"
	"reviewloop/pkg/seo"
	"reviewloop/pkg/store"
)

const (
	defaultPoolSize        = 10
	defaultMaxOutputTokens = 2000
)

// defaultWordCountLadder spreads a replenished pool across review lengths.
var defaultWordCountLadder = []int{20, 30, 40, 50, 60, 70, 80, 90, 100, 120}

// defaultModels picks a model per provider when neither the request nor the
// stored provider config names one.
var defaultModels = map[domain.Provider]string{
	domain.ProviderOpenAI:    "gpt-4",
	domain.ProviderAnthropic: "claude-3-sonnet-20240229",
	domain.ProviderGroq:      "llama2-70b-4096",
	domain.ProviderGoogle:    "gemini-pro",
}

// Config holds runtime configuration for the engine.
type Config struct {
	Store     store.Store
	Adapters  map[domain.Provider]ai.Adapter
	Discovery *ai.Discovery
	Logger    *slog.Logger

	// WordCountLadder overrides the default replenishment ladder.
	WordCountLadder []int
	// ReplenishConcurrency bounds concurrent generation calls during pool
	// replenishment. Defaults to 1.
	ReplenishConcurrency int
	MaxOutputTokens      int
}

// App is the engine facade consumed by the HTTP layer and the queue workers.
// Safe for concurrent use.
type App struct {
	store                store.Store
	adapters             map[domain.Provider]ai.Adapter
	discovery            *ai.Discovery
	logger               *slog.Logger
	ladder               []int
	replenishConcurrency int
	maxTokens            int

	// tracks fire-and-forget regenerations so shutdown can drain them
	background sync.WaitGroup
}

// New constructs the engine. Store and at least one adapter are required.
func New(cfg Config) (*App, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store required")
	}
	if len(cfg.Adapters) == 0 {
		return nil, fmt.Errorf("at least one provider adapter required")
	}
	discovery := cfg.Discovery
	if discovery == nil {
		discovery = ai.NewDiscovery()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ladder := cfg.WordCountLadder
	if len(ladder) == 0 {
		ladder = defaultWordCountLadder
	}
	concurrency := cfg.ReplenishConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	maxTokens := cfg.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxOutputTokens
	}
	return &App{
		store:                cfg.Store,
		adapters:             cfg.Adapters,
		discovery:            discovery,
		logger:               logger,
		ladder:               ladder,
		replenishConcurrency: concurrency,
		maxTokens:            maxTokens,
	}, nil
}

// GenerateReviews runs one explicit generation request. The API key comes
// from the request itself or, when absent, from the business's active
// provider config. Every returned review carries a locally computed SEO
// score; the model-reported one is discarded.
func (a *App) GenerateReviews(ctx context.Context, req domain.GenerationRequest) ([]domain.GeneratedReview, error) {
	if len(req.Keywords) == 0 {
		return nil, fmt.Errorf("keywords required")
	}
	if req.Count < 1 {
		return nil, fmt.Errorf("count must be at least 1")
	}
	if req.Provider == "" {
		req.Provider = domain.ProviderOpenAI
	}

	adapter, ok := a.adapters[req.Provider]
	if !ok {
		return nil, unsupportedProvider(req.Provider)
	}

	apiKey := req.APIKey
	model := req.Model
	if apiKey == "" {
		cfg, found, err := a.store.GetActiveProviderConfig(ctx, req.BusinessID)
		if err != nil {
			return nil, fmt.Errorf("load provider config: %w", err)
		}
		if found && cfg.Provider == req.Provider {
			apiKey = cfg.APIKey
			if model == "" {
				model = cfg.Model
			}
		}
	}
	if apiKey == "" {
		return nil, missingCredentials(req.Provider)
	}
	if model == "" {
		model = defaultModels[req.Provider]
	}

	prompt := ai.BuildPrompt(req)
	reviews, err := adapter.Generate(ctx, model, prompt, apiKey, a.maxTokens)
	if err != nil {
		return nil, generationFailed(req.Provider, model, err)
	}

	for i := range reviews {
		reviews[i].SEOScore = seo.Score(reviews[i].Text, req.Keywords)
	}
	return reviews, nil
}

// DiscoverModels lists models for a provider, falling back to the static
// catalog on any failure. Never returns an error.
func (a *App) DiscoverModels(ctx context.Context, provider domain.Provider, apiKey string) []domain.ModelInfo {
	return a.discovery.Models(ctx, provider, apiKey)
}

// AllModels returns the static catalog for every provider, no keys needed.
func (a *App) AllModels() map[domain.Provider][]domain.ModelInfo {
	return a.discovery.AllModels()
}

// ClearModelCache drops cached discovery results for one provider, or for
// all providers when the argument is empty.
func (a *App) ClearModelCache(provider domain.Provider) {
	if provider == "" {
		a.discovery.ClearAll()
		return
	}
	a.discovery.ClearCache(provider)
}

// FallbackTemplate returns a random active template for the business. Used
// when generation is unavailable and as the degraded path for unique-review
// requests. Bumps the template's shown counter best-effort.
func (a *App) FallbackTemplate(ctx context.Context, businessID string) (domain.Template, bool, error) {
	tpl, ok, err := a.store.GetRandomActiveTemplate(ctx, businessID)
	if err != nil || !ok {
		return domain.Template{}, false, err
	}
	if err := a.store.IncrementTemplateShown(ctx, tpl.ID); err != nil {
		a.logger.Warn("increment times_shown failed", "template_id", tpl.ID, "error", err)
	}
	return tpl, true, nil
}

// UniqueReviewMethod reports how a unique review was produced.
type UniqueReviewMethod string

const (
	MethodAI       UniqueReviewMethod = "ai"
	MethodTemplate UniqueReviewMethod = "template"
)

// GenerateUniqueReview rewrites a random active template into fresh wording.
// Any failure along the AI path degrades to returning an existing template
// verbatim; the only hard error is a business with no active templates.
func (a *App) GenerateUniqueReview(ctx context.Context, businessID string) (string, UniqueReviewMethod, error) {
	templates, err := a.store.ListActiveTemplates(ctx, businessID)
	if err != nil {
		return "", "", fmt.Errorf("list templates: %w", err)
	}
	if len(templates) == 0 {
		return "", "", ErrNoTemplates
	}

	cfg, found, err := a.store.GetActiveProviderConfig(ctx, businessID)
	if err != nil || !found {
		if err != nil {
			a.logger.Warn("provider config lookup failed, serving template", "business_id", businessID, "error", err)
		}
		return templates[rand.Intn(len(templates))].Content, MethodTemplate, nil
	}

	base := templates[rand.Intn(len(templates))]
	keywords := base.SEOKeywords
	if len(keywords) > 5 {
		keywords = keywords[:5]
	}

	reviews, err := a.GenerateReviews(ctx, domain.GenerationRequest{
		BusinessID:   businessID,
		Keywords:     keywords,
		Count:        1,
		Tone:         domain.ToneProfessional,
		Provider:     cfg.Provider,
		Model:        cfg.Model,
		APIKey:       cfg.APIKey,
		CustomPrompt: ai.RewritePrompt(base.Content, keywords),
	})
	if err != nil || len(reviews) == 0 {
		if err != nil {
			a.logger.Warn("unique review generation failed, serving template",
				"business_id", businessID, "provider", cfg.Provider, "error", err)
		}
		return templates[rand.Intn(len(templates))].Content, MethodTemplate, nil
	}
	return reviews[0].Text, MethodAI, nil
}

// SaveManualTemplate inserts a curated template as active. The SEO score is
// computed from the supplied content and keywords.
func (a *App) SaveManualTemplate(ctx context.Context, tpl domain.Template) error {
	if tpl.Content == "" {
		return fmt.Errorf("content required")
	}
	if tpl.BusinessID == "" || tpl.CategoryID == "" {
		return fmt.Errorf("business and category required")
	}
	tpl.SEOScore = seo.Score(tpl.Content, tpl.SEOKeywords)
	tpl.IsManual = true
	tpl.Status = domain.StatusActive
	if tpl.CreatedAt.IsZero() {
		tpl.CreatedAt = time.Now().UTC()
	}
	return a.store.InsertTemplate(ctx, tpl)
}

// WaitBackground blocks until in-flight fire-and-forget regenerations
// finish. Called on shutdown.
func (a *App) WaitBackground() {
	a.background.Wait()
}
