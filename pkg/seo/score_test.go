package seo

import (
	"math"
	"strings"
	"testing"
)

func TestScoreBounds(t *testing.T) {
	cases := []struct {
		name     string
		text     string
		keywords []string
	}{
		{"empty text", "", []string{"pizza"}},
		{"no keywords", "A perfectly fine review about nothing in particular.", nil},
		{"short match", "pizza", []string{"pizza"}},
		{"long text", strings.Repeat("The team delivered quality work on time. ", 40), []string{"quality", "team"}},
		{"all stock phrases", "great service highly recommend amazing experience will definitely return excellent food friendly staff great atmosphere best place love this place", []string{"service"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Score(tc.text, tc.keywords)
			if got < 0 || got > 100 {
				t.Fatalf("Score(%q, %v) = %d, want within [0,100]", tc.text, tc.keywords, got)
			}
		})
	}
}

func TestScoreEmptyInputsDoNotPanic(t *testing.T) {
	if got := Score("", []string{"x"}); got < 0 {
		t.Fatalf("Score on empty text = %d, want >= 0", got)
	}
	if got := Score("", nil); got < 0 {
		t.Fatalf("Score on empty everything = %d, want >= 0", got)
	}
}

func TestCoverageMonotonicity(t *testing.T) {
	keywords := []string{"dentist", "cleaning", "friendly"}
	base := "The dentist did a wonderful job with my cleaning. I felt comfortable the whole visit and the office ran on time."
	before := Score(base, keywords)
	after := Score(base+" Everyone was friendly.", keywords)
	if after < before {
		t.Fatalf("adding missing keyword lowered score: before=%d after=%d", before, after)
	}
}

func TestDensityScoreOptimum(t *testing.T) {
	// 2.5% density sits at the center of the [2,3] full-credit band.
	if got := densityScore(2.5); got != 20 {
		t.Fatalf("densityScore(2.5) = %v, want 20", got)
	}
	if got := densityScore(2.0); got != 20 {
		t.Fatalf("densityScore(2.0) = %v, want 20", got)
	}
	if got := densityScore(3.0); got != 20 {
		t.Fatalf("densityScore(3.0) = %v, want 20", got)
	}
	if got := densityScore(5.0); got != 10 {
		t.Fatalf("densityScore(5.0) = %v, want 10", got)
	}
	if got := densityScore(10.0); got != 0 {
		t.Fatalf("densityScore(10.0) = %v, want 0", got)
	}
}

func TestScoreZeroKeywordMatchesKeepsDensityBand(t *testing.T) {
	// 0% density still feeds the formula: max(0, 20 - |0-2.5|*4) = 10.
	if got := densityScore(0); got != 10 {
		t.Fatalf("densityScore(0) = %v, want 10", got)
	}

	text := "The appointment ran on schedule and the office felt calm."
	want := int(math.Round(densityScore(0) +
		lengthScore(10) +
		Readability(text)/100*20 +
		uniquenessFraction(strings.ToLower(text))*15))
	if got := Score(text, []string{"pizza"}); got != want {
		t.Fatalf("Score with unmatched keyword = %d, want %d (density band must not be skipped)", got, want)
	}
}

func TestLengthScore(t *testing.T) {
	if got := lengthScore(125); got != 15 {
		t.Fatalf("lengthScore(125) = %v, want 15", got)
	}
	if got := lengthScore(100); got != 15 {
		t.Fatalf("lengthScore(100) = %v, want 15", got)
	}
	if got := lengthScore(150); got != 15 {
		t.Fatalf("lengthScore(150) = %v, want 15", got)
	}
	if got := lengthScore(25); got != 5 {
		t.Fatalf("lengthScore(25) = %v, want 5", got)
	}
	if got := lengthScore(300); got != 0 {
		t.Fatalf("lengthScore(300) = %v, want 0", got)
	}
}

func TestReadabilityZeroOnEmpty(t *testing.T) {
	if got := Readability(""); got != 0 {
		t.Fatalf("Readability(\"\") = %v, want 0", got)
	}
	if got := Readability("..."); got != 0 {
		t.Fatalf("Readability(\"...\") = %v, want 0", got)
	}
}

func TestReadabilityClamped(t *testing.T) {
	texts := []string{
		"Go. Run. Eat. Win.",
		strings.Repeat("extraordinarily incomprehensible multisyllabic terminology ", 10),
	}
	for _, text := range texts {
		got := Readability(text)
		if got < 0 || got > 100 {
			t.Fatalf("Readability(%q) = %v, want within [0,100]", text, got)
		}
	}
}

func TestCountSyllables(t *testing.T) {
	cases := map[string]int{
		"cat":      1, // length <= 3
		"go":       1,
		"table":    1, // ta-ble minus trailing e
		"review":   2,
		"organize": 3,
		"bbbb":     1, // floor at 1
	}
	for word, want := range cases {
		if got := countSyllables(word); got != want {
			t.Fatalf("countSyllables(%q) = %d, want %d", word, got, want)
		}
	}
}

func TestUniquenessPenalizesStockPhrases(t *testing.T) {
	clean := "the hygienist explained each step and the billing was transparent."
	cliched := "great service and amazing experience, highly recommend this best place."
	if uniquenessFraction(clean) <= uniquenessFraction(cliched) {
		t.Fatalf("stock phrases should lower uniqueness: clean=%v cliched=%v",
			uniquenessFraction(clean), uniquenessFraction(cliched))
	}
	if got := uniquenessFraction(clean); got != 1 {
		t.Fatalf("uniquenessFraction(clean) = %v, want 1", got)
	}
}
