package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, "embeddinggemma", cfg.EmbeddingModel)
	require.NoError(t, cfg.Validate())
}

func TestNewConfig_Options(t *testing.T) {
	cfg := NewConfig(
		WithHost("http://embed.internal:9100"),
		WithEmbeddingModel("text-embedding-3-small"),
	)
	require.NoError(t, cfg.Validate())
	// Normalize appends the /v1 suffix required by OpenAI-compatible APIs
	assert.Equal(t, "http://embed.internal:9100/v1", cfg.EmbeddingHost)
	assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
}

func TestNormalize_TrailingSlash(t *testing.T) {
	cfg := NewConfig(WithHost("http://localhost:11434/"))
	cfg.Normalize()
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
}

func TestValidate_MissingFields(t *testing.T) {
	cfg := &Config{EmbeddingModel: "m"}
	assert.Error(t, cfg.Validate())

	cfg = &Config{EmbeddingHost: "http://localhost:11434/v1"}
	assert.Error(t, cfg.Validate())
}
