package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func TestParseJSON(t *testing.T) {
	dir := t.TempDir()
	path := writeTempJSON(t, dir, "cfg.json", map[string]any{
		"api_base_url":          "https://api.example.com/api/v1",
		"online_check_interval": "10s",
		"upload_step_timeout":   int64(30 * time.Second),
		"min_free_bytes":        2048,
	})

	t.Run("loads from -config", func(t *testing.T) {
		cfg := defaults()
		require.NoError(t, parseJSON(&cfg, []string{"-config", path}))

		assert.Equal(t, "https://api.example.com/api/v1", cfg.APIBaseURL)
		assert.Equal(t, 10*time.Second, cfg.OnlineCheckInterval)
		assert.Equal(t, 30*time.Second, cfg.UploadStepTimeout)
		assert.EqualValues(t, 2048, cfg.MinFreeBytes)
		assert.Equal(t, defaults().DataDir, cfg.DataDir, "absent keys keep their value")
	})

	t.Run("no flag leaves config unchanged", func(t *testing.T) {
		cfg := defaults()
		require.NoError(t, parseJSON(&cfg, []string{"-d", "x"}))
		assert.Equal(t, defaults(), cfg)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		cfg := defaults()
		assert.Error(t, parseJSON(&cfg, []string{"-c", bad}))
	})

	t.Run("missing file", func(t *testing.T) {
		cfg := defaults()
		assert.Error(t, parseJSON(&cfg, []string{"-c", filepath.Join(dir, "nope.json")}))
	})

	t.Run("bad storage mode", func(t *testing.T) {
		p := writeTempJSON(t, dir, "mode.json", map[string]any{"storage_mode": "hardlink"})
		cfg := defaults()
		assert.ErrorContains(t, parseJSON(&cfg, []string{"-c", p}), "storage mode")
	})
}
