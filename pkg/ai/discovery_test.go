package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"reviewloop/pkg/domain"
)

func TestDiscoveryFallsBackOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	d := NewDiscovery()
	d.openAIModelsURL = srv.URL

	models := d.Models(context.Background(), domain.ProviderOpenAI, "sk-bad")
	if len(models) == 0 {
		t.Fatalf("expected fallback catalog, got none")
	}
	if models[0].ID != "gpt-4-turbo" {
		t.Fatalf("unexpected first fallback model: %s", models[0].ID)
	}
}

func TestDiscoveryFiltersOpenAIModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[
			{"id":"gpt-4o"},
			{"id":"gpt-4"},
			{"id":"gpt-3.5-turbo-instruct"},
			{"id":"gpt-4-search-preview"},
			{"id":"whisper-1"},
			{"id":"text-embedding-3-small"}
		]}`))
	}))
	defer srv.Close()

	d := NewDiscovery()
	d.openAIModelsURL = srv.URL

	models := d.Models(context.Background(), domain.ProviderOpenAI, "sk-good")
	if len(models) != 2 {
		t.Fatalf("got %d models, want 2: %+v", len(models), models)
	}
	// Sorted descending by id.
	if models[0].ID != "gpt-4o" || models[1].ID != "gpt-4" {
		t.Fatalf("unexpected order: %+v", models)
	}
}

func TestDiscoveryFiltersGroqModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[
			{"id":"llama-3.3-70b-versatile","context_window":32768},
			{"id":"whisper-large-v3","context_window":0}
		]}`))
	}))
	defer srv.Close()

	d := NewDiscovery()
	d.groqModelsURL = srv.URL

	models := d.Models(context.Background(), domain.ProviderGroq, "gsk-good")
	if len(models) != 1 || models[0].ID != "llama-3.3-70b-versatile" {
		t.Fatalf("unexpected models: %+v", models)
	}
	if models[0].ContextLength != 32768 {
		t.Fatalf("context length not carried: %+v", models[0])
	}
}

func TestDiscoveryFiltersGoogleModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "g-good" {
			t.Errorf("missing key param")
		}
		_, _ = w.Write([]byte(`{"models":[
			{"name":"models/gemini-1.5-pro","displayName":"Gemini 1.5 Pro","inputTokenLimit":1000000,"supportedGenerationMethods":["generateContent"]},
			{"name":"models/gemini-embedding","supportedGenerationMethods":["embedContent"]},
			{"name":"models/aqa","supportedGenerationMethods":["generateAnswer"]}
		]}`))
	}))
	defer srv.Close()

	d := NewDiscovery()
	d.googleModelsURL = srv.URL

	models := d.Models(context.Background(), domain.ProviderGoogle, "g-good")
	if len(models) != 1 || models[0].ID != "gemini-1.5-pro" {
		t.Fatalf("unexpected models: %+v", models)
	}
}

func TestDiscoveryAnthropicIsAlwaysStatic(t *testing.T) {
	d := NewDiscovery()
	models := d.Models(context.Background(), domain.ProviderAnthropic, "ak-any")
	if len(models) != 5 {
		t.Fatalf("got %d anthropic models, want 5", len(models))
	}
}

func TestDiscoveryCachesForAnHour(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt64(&calls, 1)
		_, _ = w.Write([]byte(`{"data":[{"id":"gpt-4"}]}`))
	}))
	defer srv.Close()

	current := time.Now()
	d := NewDiscovery()
	d.openAIModelsURL = srv.URL
	d.now = func() time.Time { return current }

	ctx := context.Background()
	d.Models(ctx, domain.ProviderOpenAI, "sk-aaaaaaaaaaaa")
	d.Models(ctx, domain.ProviderOpenAI, "sk-aaaaaaaaaaaa")
	if n := atomic.LoadInt64(&calls); n != 1 {
		t.Fatalf("expected 1 upstream call, got %d", n)
	}

	// Another key prefix gets its own entry.
	d.Models(ctx, domain.ProviderOpenAI, "sk-bbbbbbbbbbbb")
	if n := atomic.LoadInt64(&calls); n != 2 {
		t.Fatalf("expected 2 upstream calls after second key, got %d", n)
	}

	// Expiry forces a refetch.
	current = current.Add(discoveryCacheTTL + time.Minute)
	d.Models(ctx, domain.ProviderOpenAI, "sk-aaaaaaaaaaaa")
	if n := atomic.LoadInt64(&calls); n != 3 {
		t.Fatalf("expected refetch after TTL, got %d calls", n)
	}
}

func TestDiscoveryClearCache(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt64(&calls, 1)
		_, _ = w.Write([]byte(`{"data":[{"id":"gpt-4"}]}`))
	}))
	defer srv.Close()

	d := NewDiscovery()
	d.openAIModelsURL = srv.URL

	ctx := context.Background()
	d.Models(ctx, domain.ProviderOpenAI, "sk-aaaaaaaaaaaa")
	d.ClearCache(domain.ProviderOpenAI)
	d.Models(ctx, domain.ProviderOpenAI, "sk-aaaaaaaaaaaa")
	if n := atomic.LoadInt64(&calls); n != 2 {
		t.Fatalf("expected refetch after clear, got %d calls", n)
	}

	d.ClearAll()
	d.Models(ctx, domain.ProviderOpenAI, "sk-aaaaaaaaaaaa")
	if n := atomic.LoadInt64(&calls); n != 3 {
		t.Fatalf("expected refetch after clear all, got %d calls", n)
	}
}

func TestAllModelsCoversEveryProvider(t *testing.T) {
	all := NewDiscovery().AllModels()
	for _, p := range []domain.Provider{
		domain.ProviderOpenAI,
		domain.ProviderAnthropic,
		domain.ProviderGroq,
		domain.ProviderGoogle,
	} {
		if len(all[p]) == 0 {
			t.Fatalf("no catalog for %s", p)
		}
	}
}
