// Package config loads the environment-variable configuration described
// in spec §6, matching the teacher's plain os.Getenv-with-defaults style.
package config

import (
	"fmt"
	"os"

	"github.com/domainforge/domainforge-core/internal/core/domain"
)

// Config holds every environment-sourced setting the core needs.
type Config struct {
	WordSplitterURL  string
	WordSplitterUser string
	WordSplitterPass string

	ZonefileToken  string
	ZonefileAPIURL string

	IndexPath string
	RedisURL  string // optional; "" means locallock + no result cache

	APIPort int

	IndexHeapSize  int64
	WordBatchSize  int
	IndexBatchSize int
}

const (
	defaultAPIPort        = 3000
	defaultIndexHeapSize  = 4 << 30 // 4 GiB
	defaultWordBatchSize  = 500
	defaultIndexBatchSize = 1_000_000
)

// Load reads the core-relevant environment variables from spec §6,
// returning a *domain.CodedError of Kind KindConfig if INDEX_PATH, the
// only variable it requires, is missing.
func Load() (Config, error) {
	cfg := Config{
		WordSplitterURL:  os.Getenv("WORD_SPLITTER_URL"),
		WordSplitterUser: os.Getenv("WORD_SPLITTER_USER"),
		WordSplitterPass: os.Getenv("WORD_SPLITTER_PASS"),
		ZonefileToken:    os.Getenv("ZONEFILE_TOKEN"),
		ZonefileAPIURL:   os.Getenv("ZONEFILE_API_URL"),
		IndexPath:        os.Getenv("INDEX_PATH"),
		RedisURL:         os.Getenv("REDIS_URL"),
		APIPort:          getEnvInt("API_PORT", defaultAPIPort),
		IndexHeapSize:    getEnvInt64("INDEX_HEAP_SIZE", defaultIndexHeapSize),
		WordBatchSize:    getEnvInt("WORD_BATCH_SIZE", defaultWordBatchSize),
		IndexBatchSize:   getEnvInt("INDEX_BATCH_SIZE", defaultIndexBatchSize),
	}

	if cfg.IndexPath == "" {
		return Config{}, domain.NewError(domain.KindConfig, fmt.Errorf("INDEX_PATH is required"))
	}

	return cfg, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		var result int64
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
