package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("INDEX_PATH", "/tmp/idx.bleve")
	t.Setenv("API_PORT", "")
	t.Setenv("WORD_BATCH_SIZE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/idx.bleve", cfg.IndexPath)
	assert.Equal(t, defaultAPIPort, cfg.APIPort)
	assert.Equal(t, defaultWordBatchSize, cfg.WordBatchSize)
	assert.EqualValues(t, defaultIndexHeapSize, cfg.IndexHeapSize)
}

func TestLoadRequiresIndexPath(t *testing.T) {
	t.Setenv("INDEX_PATH", "")
	_, err := Load()
	require.Error(t, err)
}

func TestLoadReadsOverrides(t *testing.T) {
	t.Setenv("INDEX_PATH", "/tmp/idx.bleve")
	t.Setenv("API_PORT", "9000")
	t.Setenv("WORD_BATCH_SIZE", "250")
	t.Setenv("REDIS_URL", "redis://localhost:6379")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.APIPort)
	assert.Equal(t, 250, cfg.WordBatchSize)
	assert.Equal(t, "redis://localhost:6379", cfg.RedisURL)
}
