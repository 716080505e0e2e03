package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLLMService(t *testing.T) {
	_, err := NewLLMService(ProviderOpenAI, "", "", "")
	assert.Error(t, err)

	_, err = NewLLMService("claude", "key", "", "")
	assert.Error(t, err)

	for _, provider := range []string{ProviderOpenAI, ProviderMistral} {
		llm, err := NewLLMService(provider, "key", "", "")
		require.NoError(t, err, provider)
		assert.NotNil(t, llm)
	}
}

func TestGenerateWithRetry(t *testing.T) {
	t.Run("succeeds after a failure", func(t *testing.T) {
		calls := 0
		result, err := generateWithRetry(context.Background(), 3, func() (string, error) {
			calls++
			if calls == 1 {
				return "", errors.New("overloaded")
			}
			return "ok", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "ok", result)
		assert.Equal(t, 2, calls)
	})

	t.Run("exhausted", func(t *testing.T) {
		calls := 0
		_, err := generateWithRetry(context.Background(), 0, func() (string, error) {
			calls++
			return "", errors.New("overloaded")
		})
		require.Error(t, err)
		assert.Equal(t, 1, calls)
		assert.Contains(t, err.Error(), "overloaded")
	})

	t.Run("cancelled while waiting", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		_, err := generateWithRetry(ctx, 5, func() (string, error) {
			calls++
			cancel()
			return "", errors.New("overloaded")
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "héll", truncateRunes("héllo", 4))
	assert.Equal(t, "short", truncateRunes("short", 10))
}
