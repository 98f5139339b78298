package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapLookup(m map[string]string) lookupFunc {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestParseEnv(t *testing.T) {
	cfg := defaults()
	err := parseEnv(&cfg, mapLookup(map[string]string{
		"JK_API_BASE_URL":          "https://api.example.com/api/v1",
		"JK_HEALTH_URL":            "https://api.example.com/healthz",
		"JK_ONLINE_CHECK_INTERVAL": "10s",
		"JK_UPLOAD_STEP_TIMEOUT":   "45s",
		"JK_CLEANUP_AGE":           "168h",
		"JK_UPLOADS_PER_SECOND":    "0.5",
		"JK_MIN_FREE_BYTES":        "1024",
		"JK_STORAGE_MODE":          "MOVE",
	}))
	require.NoError(t, err)

	want := defaults()
	want.APIBaseURL = "https://api.example.com/api/v1"
	want.HealthURL = "https://api.example.com/healthz"
	want.OnlineCheckInterval = 10 * time.Second
	want.UploadStepTimeout = 45 * time.Second
	want.CleanupAge = 7 * 24 * time.Hour
	want.UploadsPerSecond = 0.5
	want.MinFreeBytes = 1024
	want.StorageMode = "move"
	assert.Empty(t, cmp.Diff(want, cfg))
}

func TestParseEnv_Errors(t *testing.T) {
	for key, val := range map[string]string{
		"JK_ONLINE_CHECK_INTERVAL": "often",
		"JK_UPLOADS_PER_SECOND":    "fast",
		"JK_MIN_FREE_BYTES":        "-1",
		"JK_STORAGE_MODE":          "symlink",
	} {
		t.Run(key, func(t *testing.T) {
			cfg := defaults()
			err := parseEnv(&cfg, mapLookup(map[string]string{key: val}))
			require.ErrorContains(t, err, key)
		})
	}
}

func TestLoadDotEnv_DoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("JK_DOTENV_ONLY=from-file\nJK_DOTENV_BOTH=from-file\n"), 0o600))

	t.Setenv("JK_DOTENV_BOTH", "from-env")
	t.Setenv("JK_DOTENV_ONLY", "")
	require.NoError(t, os.Unsetenv("JK_DOTENV_ONLY"))

	loadDotEnv(path)
	t.Cleanup(func() { _ = os.Unsetenv("JK_DOTENV_ONLY") })

	assert.Equal(t, "from-file", os.Getenv("JK_DOTENV_ONLY"))
	assert.Equal(t, "from-env", os.Getenv("JK_DOTENV_BOTH"))

	loadDotEnv(filepath.Join(dir, "missing.env"))
}
