package domain

import "time"

type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGroq      Provider = "groq"
	ProviderGoogle    Provider = "google"
)

type Tone string

const (
	ToneProfessional Tone = "professional"
	ToneCasual       Tone = "casual"
	ToneEnthusiastic Tone = "enthusiastic"
)

type ReviewLength string

const (
	LengthShort  ReviewLength = "short"
	LengthMedium ReviewLength = "medium"
	LengthLong   ReviewLength = "long"
)

type TemplateStatus string

const (
	StatusDraft    TemplateStatus = "draft"
	StatusActive   TemplateStatus = "active"
	StatusArchived TemplateStatus = "archived"
)

// GenerationRequest describes one request for AI-written review text.
// Keywords must be non-empty and Count at least 1. TargetWords, when set,
// overrides Length. APIKey, when empty, is resolved from the business's
// active provider config.
type GenerationRequest struct {
	BusinessID      string       `json:"businessId"`
	BusinessContext string       `json:"businessContext"`
	Keywords        []string     `json:"keywords"`
	Count           int          `json:"count"`
	Tone            Tone         `json:"tone"`
	Length          ReviewLength `json:"length,omitempty"`
	TargetWords     int          `json:"targetWords,omitempty"`
	Provider        Provider     `json:"provider"`
	Model           string       `json:"model,omitempty"`
	APIKey          string       `json:"-"`
	CustomPrompt    string       `json:"customPrompt,omitempty"`
}

// GeneratedReview is one normalized review returned by a provider adapter.
// SEOScore is recomputed locally after generation; the model-reported value
// is never trusted. Immutable once produced.
type GeneratedReview struct {
	Text         string   `json:"text"`
	KeywordsUsed []string `json:"keywords_used"`
	SEOScore     int      `json:"seo_score"`
}

// Template is a stored, ready-to-copy review tied to a business category.
// A customer copying it deletes the row and triggers regeneration of a
// replacement with the same WordCountTarget.
type Template struct {
	ID              string         `json:"id"`
	BusinessID      string         `json:"businessId"`
	CategoryID      string         `json:"categoryId"`
	Content         string         `json:"content"`
	SEOKeywords     []string       `json:"seoKeywords"`
	SEOScore        int            `json:"seoScore"`
	WordCountTarget int            `json:"wordCountTarget"`
	IsManual        bool           `json:"isManual"`
	Status          TemplateStatus `json:"status"`
	TimesShown      int            `json:"timesShown"`
	TimesCopied     int            `json:"timesCopied"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// Category owns a pool of templates kept near TargetPoolSize.
type Category struct {
	ID             string    `json:"id"`
	BusinessID     string    `json:"businessId"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	TargetPoolSize int       `json:"targetPoolSize"`
	CreatedAt      time.Time `json:"createdAt"`
}

type Business struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ProviderConfig holds one business's credentials for one AI vendor.
// At most one config per business is expected to be active at a time.
type ProviderConfig struct {
	ID         string    `json:"id"`
	BusinessID string    `json:"businessId"`
	Provider   Provider  `json:"provider"`
	APIKey     string    `json:"-"`
	Model      string    `json:"model"`
	IsActive   bool      `json:"isActive"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ModelInfo is a provider-reported (or fallback catalog) model entry.
type ModelInfo struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Provider      Provider `json:"provider"`
	ContextLength int      `json:"contextLength,omitempty"`
}
