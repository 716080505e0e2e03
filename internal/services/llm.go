package services

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

type LLMService interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	GenerateText(ctx context.Context, prompt string, temperature float32) (string, error)
	GenerateTextWithRetry(ctx context.Context, prompt string, temperature float32, maxRetries int) (string, error)
}

const (
	ProviderGemini  = "gemini"
	ProviderOpenAI  = "openai"
	ProviderMistral = "mistral"

	mistralBaseURL = "https://api.mistral.ai/v1"
	// maxEmbeddingChars keeps embedding input well under provider token limits.
	maxEmbeddingChars = 30000
)

// NewLLMService builds the client for provider. Empty model names fall back
// to the provider's defaults.
func NewLLMService(provider, apiKey, model, embeddingModel string) (LLMService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("missing API key for LLM provider %q", provider)
	}

	switch provider {
	case ProviderOpenAI:
		return NewOpenAIService(apiKey, "", orDefault(model, "gpt-4o-mini"), orDefault(embeddingModel, "text-embedding-3-small")), nil
	case ProviderMistral:
		return NewOpenAIService(apiKey, mistralBaseURL, orDefault(model, "mistral-small-latest"), orDefault(embeddingModel, "mistral-embed")), nil
	case ProviderGemini, "":
		return NewGeminiService(apiKey, orDefault(model, "gemini-2.5-flash"), orDefault(embeddingModel, "text-embedding-004"))
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", provider)
	}
}

// generateWithRetry calls generate until it succeeds, the attempts run out
// or ctx is done. Waits grow linearly between attempts.
func generateWithRetry(ctx context.Context, maxRetries int, generate func() (string, error)) (string, error) {
	if maxRetries < 1 {
		maxRetries = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		result, err := generate()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == maxRetries {
			break
		}

		log.Warnf("⚠️  Attempt %d failed: %v. Retrying...", attempt, err)

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("context cancelled: %w", ctx.Err())
		case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
		}
	}

	return "", fmt.Errorf("failed after %d attempts: %w", maxRetries, lastErr)
}

func truncateRunes(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
