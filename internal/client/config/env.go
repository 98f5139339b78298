package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/journeykeeper/internal/client/blobstore"
	"github.com/joho/godotenv"
)

const envPrefix = "JK_"

type lookupFunc func(key string) (string, bool)

func lookupEnv(key string) (string, bool) { return os.LookupEnv(key) }

// loadDotEnv seeds the process environment from path. Variables already set
// win, and a missing file is ignored.
func loadDotEnv(path string) {
	_ = godotenv.Load(path)
}

// parseEnv overlays cfg with JK_* variables.
func parseEnv(cfg *Config, lookup lookupFunc) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok {
			*dst = v
		}
	}
	dur := func(name string, dst *time.Duration) error {
		v, ok := lookup(envPrefix + name)
		if !ok {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, name, err)
		}
		*dst = d
		return nil
	}

	str("API_BASE_URL", &cfg.APIBaseURL)
	str("HEALTH_URL", &cfg.HealthURL)
	str("DATA_DIR", &cfg.DataDir)
	str("LOG_LEVEL", &cfg.LogLevel)

	if v, ok := lookup(envPrefix + "STORAGE_MODE"); ok {
		m, err := blobstore.ParseMode(v)
		if err != nil {
			return fmt.Errorf("%sSTORAGE_MODE: %w", envPrefix, err)
		}
		cfg.StorageMode = m
	}

	for name, dst := range map[string]*time.Duration{
		"ONLINE_CHECK_INTERVAL": &cfg.OnlineCheckInterval,
		"UPLOAD_STEP_TIMEOUT":   &cfg.UploadStepTimeout,
		"CLEANUP_AGE":           &cfg.CleanupAge,
	} {
		if err := dur(name, dst); err != nil {
			return err
		}
	}

	if v, ok := lookup(envPrefix + "UPLOADS_PER_SECOND"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%sUPLOADS_PER_SECOND: %w", envPrefix, err)
		}
		cfg.UploadsPerSecond = f
	}
	if v, ok := lookup(envPrefix + "MIN_FREE_BYTES"); ok {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%sMIN_FREE_BYTES: %w", envPrefix, err)
		}
		cfg.MinFreeBytes = n
	}
	return nil
}
