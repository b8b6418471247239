package config

import (
	"strconv"
	"time"
)

type LLMProvider string

const (
	LLMProviderOllama LLMProvider = "ollama"
	LLMProviderOpenAI LLMProvider = "openai"
	LLMProviderMock   LLMProvider = "mock"
)

type LLMConfig struct {
	Provider    LLMProvider
	Model       string
	BaseURL     string
	APIKey      string
	Temperature float32
	Timeout     time.Duration
}

func loadLLMConfig() LLMConfig {
	provider := LLMProvider(getEnv("LLM_PROVIDER", string(LLMProviderOllama)))

	var defaultModel, defaultBaseURL string
	switch provider {
	case LLMProviderOllama:
		defaultModel = "qwen3:0.6b"
		defaultBaseURL = "http://localhost:11434/v1"
	case LLMProviderOpenAI:
		defaultModel = "gpt-4o-mini"
	}

	return LLMConfig{
		Provider:    provider,
		Model:       getEnv("LLM_MODEL", defaultModel),
		BaseURL:     getEnv("LLM_BASE_URL", defaultBaseURL),
		APIKey:      getEnv("LLM_API_KEY", ""),
		Temperature: getEnvFloat32("LLM_TEMPERATURE", 0),
		Timeout:     getEnvDuration("LLM_TIMEOUT", 2*time.Minute),
	}
}

func getEnvFloat32(key string, defaultValue float32) float32 {
	if value := getEnv(key, ""); value != "" {
		if f, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(f)
		}
	}
	return defaultValue
}
