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
	defaultAnthropicBaseURL = "https://api.anthropic.com/v1"
	anthropicVersion        = "2023-06-01"
)

// AnthropicAdapter calls the Anthropic messages endpoint. Auth is a custom
// x-api-key header plus a pinned anthropic-version header.
type AnthropicAdapter struct {
	baseURL    string
	httpClient *http.Client
}

// NewAnthropicAdapter builds the adapter for api.anthropic.com.
func NewAnthropicAdapter(timeout time.Duration) *AnthropicAdapter {
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return &AnthropicAdapter{
		baseURL:    defaultAnthropicBaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (a *AnthropicAdapter) Provider() domain.Provider { return domain.ProviderAnthropic }

// Generate implements Adapter via the messages API.
func (a *AnthropicAdapter) Generate(ctx context.Context, modelID, prompt, apiKey string, maxTokens int) ([]domain.GeneratedReview, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, missingCredentials(domain.ProviderAnthropic)
	}

	reqBody := anthropicRequest{
		Model:     modelID,
		MaxTokens: maxTokens,
		Messages: []anthropicMessage{
			{Role: "user", Content: prompt},
		},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", strings.TrimSpace(apiKey))
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, upstreamFailure(domain.ProviderAnthropic, 0, "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp anthropicErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		return nil, upstreamFailure(domain.ProviderAnthropic, resp.StatusCode, firstNonEmpty(errResp.Error.Message, resp.Status), nil)
	}

	var msgResp anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&msgResp); err != nil {
		return nil, malformedResponse(domain.ProviderAnthropic, "", err)
	}
	if len(msgResp.Content) == 0 {
		return nil, malformedResponse(domain.ProviderAnthropic, "", nil)
	}
	return parseReviews(domain.ProviderAnthropic, msgResp.Content[0].Text)
}

// Anthropic messages request/response types.

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

type anthropicErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}
