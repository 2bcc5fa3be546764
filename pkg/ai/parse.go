package ai

import (
	"encoding/json"
	"strings"

	"reviewloop/pkg/domain"
)

// reviewPayload is the JSON object the prompt instructs every model to emit.
// Mapping happens here, explicitly, so vendor quirks never leak upward.
type reviewPayload struct {
	Text         string   `json:"text"`
	KeywordsUsed []string `json:"keywords_used"`
	SEOScore     int      `json:"seo_score"`
}

// parseReviews decodes the model's message content into normalized reviews.
// Models frequently wrap JSON in a fenced code block; that wrapping is
// stripped before decoding. Anything else unparseable is a malformed
// response carrying the raw text.
func parseReviews(p domain.Provider, content string) ([]domain.GeneratedReview, error) {
	raw := content
	content = stripCodeFence(strings.TrimSpace(content))
	if content == "" {
		return nil, malformedResponse(p, raw, nil)
	}

	var payloads []reviewPayload
	if err := json.Unmarshal([]byte(content), &payloads); err != nil {
		// Some models answer with a single object when count is 1.
		var single reviewPayload
		if err2 := json.Unmarshal([]byte(content), &single); err2 != nil || single.Text == "" {
			return nil, malformedResponse(p, raw, err)
		}
		payloads = []reviewPayload{single}
	}
	if len(payloads) == 0 {
		return nil, malformedResponse(p, raw, nil)
	}

	reviews := make([]domain.GeneratedReview, 0, len(payloads))
	for _, pl := range payloads {
		if strings.TrimSpace(pl.Text) == "" {
			continue
		}
		reviews = append(reviews, domain.GeneratedReview{
			Text:         pl.Text,
			KeywordsUsed: pl.KeywordsUsed,
			SEOScore:     pl.SEOScore,
		})
	}
	if len(reviews) == 0 {
		return nil, malformedResponse(p, raw, nil)
	}
	return reviews, nil
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
