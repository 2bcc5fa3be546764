// Package seo scores review text against a fixed set of SEO heuristics.
// Scoring is deterministic: the same text and keywords always produce the
// same result, so callers can re-verify stored scores at any time.
package seo

import (
	"math"
	"strings"
)

// Stock phrases that make a review read as boilerplate. Each occurrence
// lowers the uniqueness sub-score.
var stockPhrases = []string{
	"great service",
	"highly recommend",
	"amazing experience",
	"will definitely return",
	"excellent food",
	"friendly staff",
	"great atmosphere",
	"best place",
	"love this place",
}

// Score computes a 0-100 quality score for text against keywords.
//
// Weighted sub-scores: keyword coverage (30), keyword density with a 2-3%
// optimum (20), length fit around 100-150 words (15), Flesch reading ease
// (20), and stock-phrase uniqueness (15). Empty text scores its text-derived
// sub-scores as zero rather than erroring; unmatched keywords mean 0%
// density, which still feeds the density formula.
func Score(text string, keywords []string) int {
	lower := strings.ToLower(text)
	words := strings.Fields(text)
	totalWords := len(words)

	var score float64

	matched := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			matched = append(matched, strings.ToLower(kw))
		}
	}
	if len(keywords) > 0 {
		score += 30 * float64(len(matched)) / float64(len(keywords))
	}

	if totalWords > 0 {
		occurrences := 0
		for _, kw := range matched {
			occurrences += strings.Count(lower, kw)
		}
		score += densityScore(float64(occurrences) / float64(totalWords) * 100)
	}

	if totalWords > 0 {
		score += lengthScore(totalWords)
	}

	score += Readability(text) / 100 * 20
	score += uniquenessFraction(lower) * 15

	rounded := int(math.Round(score))
	if rounded < 0 {
		return 0
	}
	if rounded > 100 {
		return 100
	}
	return rounded
}

func densityScore(density float64) float64 {
	if density >= 2 && density <= 3 {
		return 20
	}
	return math.Max(0, 20-math.Abs(density-2.5)*4)
}

func lengthScore(words int) float64 {
	if words >= 100 && words <= 150 {
		return 15
	}
	return math.Max(0, 15-math.Abs(float64(words)-125)*0.1)
}

// Readability returns the Flesch reading ease of text clamped to [0,100].
// Sentences are splits on '.', '!' and '?' with empty fragments discarded.
// Text with no sentences or no words scores 0.
func Readability(text string) float64 {
	sentences := 0
	for _, s := range strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	}) {
		if strings.TrimSpace(s) != "" {
			sentences++
		}
	}
	words := strings.Fields(text)
	if sentences == 0 || len(words) == 0 {
		return 0
	}

	syllables := 0
	for _, w := range words {
		syllables += countSyllables(w)
	}

	avgWordsPerSentence := float64(len(words)) / float64(sentences)
	avgSyllablesPerWord := float64(syllables) / float64(len(words))
	score := 206.835 - 1.015*avgWordsPerSentence - 84.6*avgSyllablesPerWord
	return math.Max(0, math.Min(100, score))
}

// countSyllables approximates syllables by counting vowel-group starts.
// Words of up to three letters count as one syllable; a trailing 'e' is
// discounted; the result never drops below one.
func countSyllables(word string) int {
	word = strings.ToLower(word)
	if len(word) <= 3 {
		return 1
	}
	const vowels = "aeiouy"
	count := 0
	prevVowel := false
	for _, r := range word {
		isVowel := strings.ContainsRune(vowels, r)
		if isVowel && !prevVowel {
			count++
		}
		prevVowel = isVowel
	}
	if strings.HasSuffix(word, "e") {
		count--
	}
	if count < 1 {
		return 1
	}
	return count
}

func uniquenessFraction(lowerText string) float64 {
	found := 0
	for _, phrase := range stockPhrases {
		if strings.Contains(lowerText, phrase) {
			found++
		}
	}
	return math.Max(0, 1-float64(found)/float64(len(stockPhrases)))
}
