package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"reviewloop/pkg/domain"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultGroqBaseURL   = "https://api.groq.com/openai/v1"

	systemInstruction = "You are an expert SEO review writer. Always respond with valid JSON only."
)

// OpenAIAdapter calls an OpenAI-style /chat/completions endpoint with
// bearer-token auth. Groq exposes the same envelope on its own host, so one
// implementation serves both vendors; each instance is still bound to
// exactly one of them.
type OpenAIAdapter struct {
	provider   domain.Provider
	baseURL    string
	httpClient *http.Client
}

// NewOpenAIAdapter builds the adapter for api.openai.com.
func NewOpenAIAdapter(timeout time.Duration) *OpenAIAdapter {
	return newChatCompletionsAdapter(domain.ProviderOpenAI, defaultOpenAIBaseURL, timeout)
}

// NewGroqAdapter builds the adapter for Groq's OpenAI-compatible endpoint.
func NewGroqAdapter(timeout time.Duration) *OpenAIAdapter {
	return newChatCompletionsAdapter(domain.ProviderGroq, defaultGroqBaseURL, timeout)
}

func newChatCompletionsAdapter(p domain.Provider, baseURL string, timeout time.Duration) *OpenAIAdapter {
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return &OpenAIAdapter{
		provider:   p,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (a *OpenAIAdapter) Provider() domain.Provider { return a.provider }

// Generate implements Adapter via the chat completions API.
func (a *OpenAIAdapter) Generate(ctx context.Context, modelID, prompt, apiKey string, maxTokens int) ([]domain.GeneratedReview, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, missingCredentials(a.provider)
	}

	reqBody := oaiChatRequest{
		Model: modelID,
		Messages: []oaiMessage{
			{Role: "system", Content: systemInstruction},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.8,
		MaxTokens:   maxTokens,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(apiKey))

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, upstreamFailure(a.provider, 0, "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp oaiErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		return nil, upstreamFailure(a.provider, resp.StatusCode, firstNonEmpty(errResp.Error.Message, resp.Status), nil)
	}

	var chatResp oaiChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, malformedResponse(a.provider, "", err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, malformedResponse(a.provider, "", nil)
	}
	return parseReviews(a.provider, chatResp.Choices[0].Message.Content)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// OpenAI-compatible request/response types.

type oaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type oaiChatRequest struct {
	Model       string       `json:"model"`
	Messages    []oaiMessage `json:"messages"`
	Temperature float64      `json:"temperature,omitempty"`
	MaxTokens   int          `json:"max_tokens,omitempty"`
}

type oaiChatResponse struct {
	Choices []struct {
		Message oaiMessage `json:"message"`
	} `json:"choices"`
}

type oaiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}
