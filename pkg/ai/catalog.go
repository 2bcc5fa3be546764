package ai

import "reviewloop/pkg/domain"

// Static model catalogs returned when live discovery is unavailable or
// fails. Anthropic publishes no models endpoint, so its catalog is always
// static.

func openAIFallbackModels() []domain.ModelInfo {
	return []domain.ModelInfo{
		{ID: "gpt-4-turbo", Name: "GPT-4 Turbo", Provider: domain.ProviderOpenAI, ContextLength: 128000},
		{ID: "gpt-4", Name: "GPT-4", Provider: domain.ProviderOpenAI, ContextLength: 8192},
		{ID: "gpt-3.5-turbo", Name: "GPT-3.5 Turbo", Provider: domain.ProviderOpenAI, ContextLength: 16385},
		{ID: "gpt-3.5-turbo-16k", Name: "GPT-3.5 Turbo 16K", Provider: domain.ProviderOpenAI, ContextLength: 16385},
	}
}

func anthropicModels() []domain.ModelInfo {
	return []domain.ModelInfo{
		{ID: "claude-3-5-sonnet-20241022", Name: "Claude 3.5 Sonnet (Latest)", Provider: domain.ProviderAnthropic, ContextLength: 200000},
		{ID: "claude-3-5-haiku-20241022", Name: "Claude 3.5 Haiku (Latest)", Provider: domain.ProviderAnthropic, ContextLength: 200000},
		{ID: "claude-3-opus-20240229", Name: "Claude 3 Opus", Provider: domain.ProviderAnthropic, ContextLength: 200000},
		{ID: "claude-3-sonnet-20240229", Name: "Claude 3 Sonnet", Provider: domain.ProviderAnthropic, ContextLength: 200000},
		{ID: "claude-3-haiku-20240307", Name: "Claude 3 Haiku", Provider: domain.ProviderAnthropic, ContextLength: 200000},
	}
}

func groqFallbackModels() []domain.ModelInfo {
	return []domain.ModelInfo{
		{ID: "llama-3.3-70b-versatile", Name: "Llama 3.3 70B Versatile", Provider: domain.ProviderGroq, ContextLength: 32768},
		{ID: "llama-3.1-70b-versatile", Name: "Llama 3.1 70B Versatile", Provider: domain.ProviderGroq, ContextLength: 32768},
		{ID: "llama-3.1-8b-instant", Name: "Llama 3.1 8B Instant", Provider: domain.ProviderGroq, ContextLength: 8192},
		{ID: "mixtral-8x7b-32768", Name: "Mixtral 8x7B", Provider: domain.ProviderGroq, ContextLength: 32768},
		{ID: "gemma2-9b-it", Name: "Gemma 2 9B IT", Provider: domain.ProviderGroq, ContextLength: 8192},
	}
}

func googleFallbackModels() []domain.ModelInfo {
	return []domain.ModelInfo{
		{ID: "gemini-1.5-pro", Name: "Gemini 1.5 Pro", Provider: domain.ProviderGoogle, ContextLength: 1000000},
		{ID: "gemini-1.5-flash", Name: "Gemini 1.5 Flash", Provider: domain.ProviderGoogle, ContextLength: 1000000},
		{ID: "gemini-pro", Name: "Gemini Pro", Provider: domain.ProviderGoogle, ContextLength: 32768},
	}
}

func fallbackModels(p domain.Provider) []domain.ModelInfo {
	switch p {
	case domain.ProviderOpenAI:
		return openAIFallbackModels()
	case domain.ProviderAnthropic:
		return anthropicModels()
	case domain.ProviderGroq:
		return groqFallbackModels()
	case domain.ProviderGoogle:
		return googleFallbackModels()
	default:
		return nil
	}
}
