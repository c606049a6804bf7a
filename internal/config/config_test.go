package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{"dataset":{"data":{"dir":"data"}}}`))
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "info", cfg.LogConfig.Level)
	require.Equal(t, "local", cfg.Dataset.Type)
	require.Equal(t, 5, cfg.Recommend.DefaultTopK)
	require.Equal(t, 100, cfg.Recommend.MaxTopK)
	require.Equal(t, 300, cfg.Recommend.CacheTTLSeconds)
	require.Equal(t, 1024, cfg.Recommend.CacheSize)
	require.False(t, cfg.Recommend.DedupClicks)
}

func TestLoadCacheDisabled(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{"recommend":{"cache_size":-1}}`))
	require.NoError(t, err)
	require.Equal(t, -1, cfg.Recommend.CacheSize)
	require.Equal(t, 300, cfg.Recommend.CacheTTLSeconds)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "bad json", body: `{`},
		{name: "unknown dataset type", body: `{"dataset":{"type":"ftp"}}`},
		{name: "default above max", body: `{"recommend":{"default_top_k":10,"max_top_k":3}}`},
		{name: "negative rate limit", body: `{"rate_limit_ms":-1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
