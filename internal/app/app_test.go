package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"propsearch/internal/config"
)

func TestNewCompleter(t *testing.T) {
	ctx := context.Background()

	_, err := NewCompleter(ctx, &config.Config{Extractor: config.ExtractorConfig{Provider: config.ProviderOpenAI}})
	require.ErrorContains(t, err, "OPENAI_API_KEY")

	_, err = NewCompleter(ctx, &config.Config{Extractor: config.ExtractorConfig{Provider: config.ProviderGemini}})
	require.ErrorContains(t, err, "GEMINI_API_KEY")

	_, err = NewCompleter(ctx, &config.Config{Extractor: config.ExtractorConfig{Provider: "claude"}})
	require.ErrorContains(t, err, "unknown extractor provider")

	c, err := NewCompleter(ctx, &config.Config{
		Extractor: config.ExtractorConfig{Provider: config.ProviderOpenAI},
		OpenAI:    config.OpenAIConfig{APIKey: "sk-test", ChatModel: "gpt-4o-mini", Timeout: 5},
	})
	require.NoError(t, err)
	assert.Equal(t, "openai", c.Name())
}

func TestNewGeo_DisabledWithoutKey(t *testing.T) {
	geo, err := NewGeo(&config.Config{}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, geo)
	geo.Close()
}

func TestNewSearchService_WithoutGeo(t *testing.T) {
	cfg := &config.Config{Search: config.SearchConfig{DefaultLimit: 20, MaxLimit: 100}}
	vocab, err := LoadVocabulary(cfg)
	require.NoError(t, err)
	assert.NotEmpty(t, vocab.DomainKeywords)

	svc := NewSearchService(cfg, nil, vocab, nil, nil, zap.NewNop())
	require.NotNil(t, svc)
}
