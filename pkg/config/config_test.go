package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("CHATBOT_BASE_URL", "https://llm.internal/")
	t.Setenv("REQUESTS_APPLY_DROP_SWAP", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, "https://llm.internal", cfg.Chatbot.BaseURL)
	assert.Equal(t, 500, cfg.Chatbot.MaxTokens)
	assert.Equal(t, 5, cfg.Chatbot.HistorySize)
	assert.Equal(t, 10*time.Minute, cfg.Cache.CatalogTTL)
	assert.True(t, cfg.Requests.ApplyDropSwap)
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("soon", time.Minute))
	assert.Equal(t, 2*time.Second, parseDuration("2s", time.Minute))
}

func TestSplitAndTrim(t *testing.T) {
	assert.Nil(t, splitAndTrim(""))
	assert.Equal(t, []string{"http://a", "http://b"}, splitAndTrim(" http://a , ,http://b"))
}
