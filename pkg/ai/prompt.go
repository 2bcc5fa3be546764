package ai

import (
	"fmt"
	"strings"

	"reviewloop/pkg/domain"
)

// wordRanges maps the length enum to advisory word-count ranges.
var wordRanges = map[domain.ReviewLength]string{
	domain.LengthShort:  "50-100",
	domain.LengthMedium: "100-150",
	domain.LengthLong:   "150-200",
}

// BuildPrompt renders the generation instruction for a request. Pure and
// deterministic: identical requests always produce byte-identical output.
//
// A non-empty CustomPrompt replaces the whole instruction verbatim; callers
// use that for rewrite requests and batch generation with pre-composed
// variation angles. An explicit TargetWords bypasses the length enum.
func BuildPrompt(req domain.GenerationRequest) string {
	if req.CustomPrompt != "" {
		return req.CustomPrompt
	}

	wordCount := wordRanges[req.Length]
	if req.TargetWords > 0 {
		wordCount = fmt.Sprintf("approximately %d", req.TargetWords)
	} else if wordCount == "" {
		wordCount = wordRanges[domain.LengthMedium]
	}

	return fmt.Sprintf(`You are an expert review writer specializing in SEO-optimized Google reviews. Generate %d authentic, human-like Google reviews for the following business:

Business Context: %s
Keywords to include naturally: %s
Tone: %s
Length: %s words each

Requirements:
- SEO optimized with keywords naturally integrated (2-3%% density)
- Authentic, human-like language (avoid generic phrases like "great service")
- Specific details that show genuine experience
- Vary sentence structure and vocabulary between reviews
- Include emotional connection and personal touches
- 5-star worthy content that sounds like real customers
- Each review should be unique and different
- Include local SEO elements when relevant
- Address common customer questions/concerns

Format your response as a JSON array where each object has:
- "text": the review content
- "keywords_used": array of keywords that were naturally included
- "seo_score": estimated SEO score (0-100)

Generate exactly %d unique reviews.`,
		req.Count, req.BusinessContext, strings.Join(req.Keywords, ", "), req.Tone, wordCount, req.Count)
}

// RewritePrompt renders the instruction for rewriting an existing review
// into a fresh, unique one while keeping its sentiment and keywords.
func RewritePrompt(baseReview string, keywords []string) string {
	return fmt.Sprintf(`Rewrite this review with the same positive sentiment but completely different wording to make it unique and genuine:

"%s"

Requirements:
- Keep the same positive tone and rating (5 stars)
- Include these keywords naturally: %s
- Change the sentence structure and phrasing completely
- Make it sound authentic and personal (150-200 words)
- DO NOT copy any phrases from the original
- Write as if a real customer wrote it

Format your response as a JSON array with a single object that has:
- "text": the rewritten review
- "keywords_used": array of keywords that were naturally included
- "seo_score": estimated SEO score (0-100)`,
		baseReview, strings.Join(keywords, ", "))
}
