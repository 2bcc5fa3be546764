package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"reviewloop/pkg/domain"
)

const discoveryCacheTTL = time.Hour

// Discovery lists the models a vendor currently offers. Listing is advisory
// only (the generation path never depends on it) and never fails: any live
// lookup error silently falls back to the static catalog.
//
// Results are cached in-process for an hour keyed by provider plus the
// first 10 characters of the API key, so different tenants' keys do not
// share entries. Safe for concurrent use.
type Discovery struct {
	httpClient *http.Client
	now        func() time.Time

	mu    sync.RWMutex
	cache map[string]discoveryEntry

	// endpoints are overridable for tests.
	openAIModelsURL string
	groqModelsURL   string
	googleModelsURL string
}

type discoveryEntry struct {
	models  []domain.ModelInfo
	fetched time.Time
}

// NewDiscovery constructs a Discovery with sane endpoint defaults.
func NewDiscovery() *Discovery {
	return &Discovery{
		httpClient:      &http.Client{Timeout: 15 * time.Second},
		now:             time.Now,
		cache:           make(map[string]discoveryEntry),
		openAIModelsURL: defaultOpenAIBaseURL + "/models",
		groqModelsURL:   defaultGroqBaseURL + "/models",
		googleModelsURL: defaultGeminiBaseURL + "/models",
	}
}

// Models returns the available models for provider, live when possible and
// from the static catalog otherwise. It never returns an error.
func (d *Discovery) Models(ctx context.Context, provider domain.Provider, apiKey string) []domain.ModelInfo {
	key := cacheKey(provider, apiKey)

	d.mu.RLock()
	entry, ok := d.cache[key]
	d.mu.RUnlock()
	if ok && d.now().Sub(entry.fetched) < discoveryCacheTTL {
		return entry.models
	}

	var models []domain.ModelInfo
	switch provider {
	case domain.ProviderOpenAI:
		models = d.fetchOpenAIModels(ctx, apiKey)
	case domain.ProviderGroq:
		models = d.fetchGroqModels(ctx, apiKey)
	case domain.ProviderGoogle:
		models = d.fetchGoogleModels(ctx, apiKey)
	case domain.ProviderAnthropic:
		models = fallbackModels(domain.ProviderAnthropic)
	default:
		return nil
	}

	d.mu.Lock()
	d.cache[key] = discoveryEntry{models: models, fetched: d.now()}
	d.mu.Unlock()
	return models
}

// AllModels returns the static catalog for every supported provider; no
// API keys required.
func (d *Discovery) AllModels() map[domain.Provider][]domain.ModelInfo {
	all := make(map[domain.Provider][]domain.ModelInfo, 4)
	for _, p := range []domain.Provider{
		domain.ProviderOpenAI,
		domain.ProviderAnthropic,
		domain.ProviderGroq,
		domain.ProviderGoogle,
	} {
		all[p] = fallbackModels(p)
	}
	return all
}

// ClearCache drops cached entries for one provider.
func (d *Discovery) ClearCache(provider domain.Provider) {
	prefix := string(provider) + "-"
	d.mu.Lock()
	defer d.mu.Unlock()
	for key := range d.cache {
		if strings.HasPrefix(key, prefix) {
			delete(d.cache, key)
		}
	}
}

// ClearAll drops every cached entry.
func (d *Discovery) ClearAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cache = make(map[string]discoveryEntry)
}

func cacheKey(provider domain.Provider, apiKey string) string {
	prefix := apiKey
	if len(prefix) > 10 {
		prefix = prefix[:10]
	}
	return string(provider) + "-" + prefix
}

func (d *Discovery) fetchOpenAIModels(ctx context.Context, apiKey string) []domain.ModelInfo {
	var payload struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := d.getJSON(ctx, d.openAIModelsURL, apiKey, &payload); err != nil {
		return fallbackModels(domain.ProviderOpenAI)
	}

	models := make([]domain.ModelInfo, 0, len(payload.Data))
	for _, m := range payload.Data {
		// Only chat-completion capable models are useful here.
		if !strings.Contains(m.ID, "gpt") || strings.Contains(m.ID, "instruct") || strings.Contains(m.ID, "search") {
			continue
		}
		models = append(models, domain.ModelInfo{ID: m.ID, Name: m.ID, Provider: domain.ProviderOpenAI})
	}
	if len(models) == 0 {
		return fallbackModels(domain.ProviderOpenAI)
	}
	sortModelsDesc(models)
	return models
}

func (d *Discovery) fetchGroqModels(ctx context.Context, apiKey string) []domain.ModelInfo {
	var payload struct {
		Data []struct {
			ID            string `json:"id"`
			ContextWindow int    `json:"context_window"`
		} `json:"data"`
	}
	if err := d.getJSON(ctx, d.groqModelsURL, apiKey, &payload); err != nil {
		return fallbackModels(domain.ProviderGroq)
	}

	models := make([]domain.ModelInfo, 0, len(payload.Data))
	for _, m := range payload.Data {
		if m.ID == "" || strings.Contains(m.ID, "whisper") {
			continue
		}
		models = append(models, domain.ModelInfo{ID: m.ID, Name: m.ID, Provider: domain.ProviderGroq, ContextLength: m.ContextWindow})
	}
	if len(models) == 0 {
		return fallbackModels(domain.ProviderGroq)
	}
	sortModelsDesc(models)
	return models
}

func (d *Discovery) fetchGoogleModels(ctx context.Context, apiKey string) []domain.ModelInfo {
	endpoint := d.googleModelsURL + "?key=" + url.QueryEscape(apiKey)
	var payload struct {
		Models []struct {
			Name                       string   `json:"name"`
			DisplayName                string   `json:"displayName"`
			InputTokenLimit            int      `json:"inputTokenLimit"`
			SupportedGenerationMethods []string `json:"supportedGenerationMethods"`
		} `json:"models"`
	}
	if err := d.getJSON(ctx, endpoint, "", &payload); err != nil {
		return fallbackModels(domain.ProviderGoogle)
	}

	models := make([]domain.ModelInfo, 0, len(payload.Models))
	for _, m := range payload.Models {
		if !strings.Contains(m.Name, "gemini") || !containsString(m.SupportedGenerationMethods, "generateContent") {
			continue
		}
		id := strings.TrimPrefix(m.Name, "models/")
		name := m.DisplayName
		if name == "" {
			name = id
		}
		models = append(models, domain.ModelInfo{ID: id, Name: name, Provider: domain.ProviderGoogle, ContextLength: m.InputTokenLimit})
	}
	if len(models) == 0 {
		return fallbackModels(domain.ProviderGoogle)
	}
	return models
}

func (d *Discovery) getJSON(ctx context.Context, endpoint, bearer string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("models endpoint status %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func sortModelsDesc(models []domain.ModelInfo) {
	sort.Slice(models, func(i, j int) bool { return models[i].ID > models[j].ID })
}

func containsString(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
