package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"reviewloop/pkg/domain"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiAdapter calls the Google Generative Language API. The API key rides
// as a query parameter, not a header.
type GeminiAdapter struct {
	baseURL    string
	httpClient *http.Client
}

// NewGeminiAdapter builds the adapter for generativelanguage.googleapis.com.
func NewGeminiAdapter(timeout time.Duration) *GeminiAdapter {
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return &GeminiAdapter{
		baseURL:    defaultGeminiBaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (a *GeminiAdapter) Provider() domain.Provider { return domain.ProviderGoogle }

// Generate implements Adapter via the generateContent API.
func (a *GeminiAdapter) Generate(ctx context.Context, modelID, prompt, apiKey string, maxTokens int) ([]domain.GeneratedReview, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, missingCredentials(domain.ProviderGoogle)
	}

	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:     0.8,
			MaxOutputTokens: maxTokens,
		},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		a.baseURL, normalizeGeminiModel(modelID), url.QueryEscape(strings.TrimSpace(apiKey)))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, upstreamFailure(domain.ProviderGoogle, 0, "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp geminiErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		return nil, upstreamFailure(domain.ProviderGoogle, resp.StatusCode, firstNonEmpty(errResp.Error.Message, resp.Status), nil)
	}

	var genResp geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return nil, malformedResponse(domain.ProviderGoogle, "", err)
	}
	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return nil, malformedResponse(domain.ProviderGoogle, "", nil)
	}
	return parseReviews(domain.ProviderGoogle, genResp.Candidates[0].Content.Parts[0].Text)
}

func normalizeGeminiModel(model string) string {
	return strings.TrimPrefix(strings.TrimSpace(model), "models/")
}

// Gemini generateContent request/response types.

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

type geminiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}
