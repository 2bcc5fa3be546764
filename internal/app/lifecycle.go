package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"reviewloop/pkg/domain"
	"reviewloop/pkg/store"
)

// baseKeywords seed every auto-derived keyword list with positive-sentiment
// phrases before category-specific tokens are appended.
var baseKeywords = []string{
	"excellent service",
	"professional",
	"highly recommended",
	"great experience",
	"outstanding results",
}

// variationAngles are cycled during pool replenishment so sibling templates
// approach the business from different directions.
var variationAngles = []string{
	"focusing on the results and outcomes",
	"emphasizing the customer service experience",
	"highlighting the expertise and professionalism",
	"describing the process and journey",
	"focusing on value for money",
	"emphasizing speed and efficiency",
	"highlighting innovation and creativity",
	"focusing on the team and people",
	"describing specific achievements",
	"emphasizing long-term partnership",
}

// DeriveKeywords builds a deterministic keyword list for a category: the
// base phrases, then category-name tokens longer than 2 characters, then
// description tokens longer than 3, truncated to 10 entries.
func DeriveKeywords(c domain.Category) []string {
	keywords := make([]string, 0, 10)
	keywords = append(keywords, baseKeywords...)
	for _, tok := range strings.Fields(strings.ToLower(c.Name)) {
		if len(tok) > 2 {
			keywords = append(keywords, tok)
		}
	}
	for _, tok := range strings.Fields(strings.ToLower(c.Description)) {
		if len(tok) > 3 {
			keywords = append(keywords, tok)
		}
	}
	if len(keywords) > 10 {
		keywords = keywords[:10]
	}
	return keywords
}

func businessContext(b domain.Business) string {
	desc := b.Description
	if desc == "" {
		desc = "Professional services"
	}
	return b.Name + " - " + desc
}

// replenishContext composes the batch-generation instruction fragment for
// one pool slot.
func replenishContext(bctx string, wordCount int, angle string) string {
	return fmt.Sprintf("%s. Generate a UNIQUE review with approximately %d words, %s. Make it different from other reviews by using varied sentence structures and perspectives.", bctx, wordCount, angle)
}

// OnTemplateConsumed handles a customer copying a template: the row is
// deleted synchronously and one replacement generation is dispatched in the
// background. The returned error only reflects the delete; regeneration
// failures never surface here.
func (a *App) OnTemplateConsumed(ctx context.Context, templateID, businessID string) error {
	tpl, cat, ok, err := a.store.GetTemplateWithCategory(ctx, templateID)
	if err != nil {
		return fmt.Errorf("load template: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: template %s", store.ErrNotFound, templateID)
	}
	if err := a.store.IncrementTemplateCopied(ctx, tpl.ID); err != nil {
		a.logger.Warn("increment times_copied failed", "template_id", tpl.ID, "error", err)
	}
	if err := a.store.DeleteTemplate(ctx, tpl.ID); err != nil {
		return fmt.Errorf("delete template: %w", err)
	}

	// The replacement must outlive the consuming request, so it runs on a
	// fresh background context.
	a.background.Add(1)
	go func() {
		defer a.background.Done()
		bg, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := a.regenerateTemplate(bg, businessID, cat, tpl.WordCountTarget); err != nil {
			a.logger.Error("template regeneration failed",
				"business_id", businessID,
				"category_id", cat.ID,
				"word_count", tpl.WordCountTarget,
				"error", err)
		}
	}()
	return nil
}

// regenerateTemplate generates and inserts one replacement template for the
// category at the given word-count target.
func (a *App) regenerateTemplate(ctx context.Context, businessID string, cat domain.Category, wordCount int) error {
	cfg, found, err := a.store.GetActiveProviderConfig(ctx, businessID)
	if err != nil {
		return fmt.Errorf("load provider config: %w", err)
	}
	if !found {
		return fmt.Errorf("no active provider config for business %s", businessID)
	}
	business, ok, err := a.store.GetBusiness(ctx, businessID)
	if err != nil {
		return fmt.Errorf("load business: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: business %s", store.ErrNotFound, businessID)
	}

	keywords := DeriveKeywords(cat)
	bctx := replenishContext(businessContext(business), wordCount, fmt.Sprintf("focusing on %s services", cat.Name))

	reviews, err := a.GenerateReviews(ctx, domain.GenerationRequest{
		BusinessID:      businessID,
		BusinessContext: bctx,
		Keywords:        keywords,
		Count:           1,
		Tone:            domain.ToneProfessional,
		TargetWords:     wordCount,
		Provider:        cfg.Provider,
		Model:           cfg.Model,
		APIKey:          cfg.APIKey,
	})
	if err != nil {
		return err
	}
	if len(reviews) == 0 {
		return fmt.Errorf("provider %s returned no reviews", cfg.Provider)
	}
	return a.insertGenerated(ctx, businessID, cat.ID, wordCount, reviews[0], keywords)
}

// EnsurePoolSize tops a category's active template pool up to its target
// size. Already at or above target is a no-op. Each missing slot is one
// generation call; single failures are logged and skipped so siblings still
// land. Safe to call repeatedly; transient overshoot from concurrent calls
// is acceptable.
func (a *App) EnsurePoolSize(ctx context.Context, categoryID, businessID string) error {
	cat, ok, err := a.store.GetCategory(ctx, categoryID)
	if err != nil {
		return fmt.Errorf("load category: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: category %s", store.ErrNotFound, categoryID)
	}
	target := cat.TargetPoolSize
	if target <= 0 {
		target = defaultPoolSize
	}
	count, err := a.store.CountActiveTemplates(ctx, categoryID)
	if err != nil {
		return fmt.Errorf("count templates: %w", err)
	}
	if count >= target {
		return nil
	}
	shortfall := target - count
	if shortfall > len(a.ladder) {
		shortfall = len(a.ladder)
	}

	cfg, found, err := a.store.GetActiveProviderConfig(ctx, businessID)
	if err != nil {
		return fmt.Errorf("load provider config: %w", err)
	}
	if !found {
		a.logger.Warn("replenishment skipped, no active provider config",
			"business_id", businessID, "category_id", categoryID)
		return nil
	}
	business, ok, err := a.store.GetBusiness(ctx, businessID)
	if err != nil {
		return fmt.Errorf("load business: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: business %s", store.ErrNotFound, businessID)
	}

	keywords := DeriveKeywords(cat)
	bctx := businessContext(business)

	a.logger.Info("replenishing template pool",
		"category_id", categoryID,
		"active", count,
		"target", target,
		"generating", shortfall,
		"provider", cfg.Provider)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.replenishConcurrency)
	for i := 0; i < shortfall; i++ {
		wordCount := a.ladder[i%len(a.ladder)]
		angle := variationAngles[i%len(variationAngles)]
		g.Go(func() error {
			reviews, err := a.GenerateReviews(gctx, domain.GenerationRequest{
				BusinessID:      businessID,
				BusinessContext: replenishContext(bctx, wordCount, angle),
				Keywords:        keywords,
				Count:           1,
				Tone:            domain.ToneProfessional,
				TargetWords:     wordCount,
				Provider:        cfg.Provider,
				Model:           cfg.Model,
				APIKey:          cfg.APIKey,
			})
			if err != nil {
				a.logger.Error("replenishment generation failed",
					"category_id", categoryID,
					"word_count", wordCount,
					"provider", cfg.Provider,
					"error", err)
				return nil
			}
			if len(reviews) == 0 {
				a.logger.Error("replenishment returned no reviews",
					"category_id", categoryID,
					"word_count", wordCount,
					"provider", cfg.Provider)
				return nil
			}
			if err := a.insertGenerated(gctx, businessID, categoryID, wordCount, reviews[0], keywords); err != nil {
				a.logger.Error("replenishment insert failed",
					"category_id", categoryID,
					"word_count", wordCount,
					"error", err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (a *App) insertGenerated(ctx context.Context, businessID, categoryID string, wordCount int, review domain.GeneratedReview, keywords []string) error {
	return a.store.InsertTemplate(ctx, domain.Template{
		BusinessID:      businessID,
		CategoryID:      categoryID,
		Content:         review.Text,
		SEOKeywords:     keywords,
		SEOScore:        review.SEOScore,
		WordCountTarget: wordCount,
		IsManual:        false,
		Status:          domain.StatusActive,
		CreatedAt:       time.Now().UTC(),
	})
}
