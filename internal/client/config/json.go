package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/journeykeeper/internal/client/blobstore"
	"github.com/dmitrijs2005/journeykeeper/internal/flagx"
	"github.com/dmitrijs2005/journeykeeper/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer
// fields distinguish "absent" from zero so a partial file only overrides
// what it names.
type JsonConfig struct {
	APIBaseURL          *string         `json:"api_base_url"`
	HealthURL           *string         `json:"health_url"`
	DataDir             *string         `json:"data_dir"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
	UploadStepTimeout   *timex.Duration `json:"upload_step_timeout"`
	UploadsPerSecond    *float64        `json:"uploads_per_second"`
	MinFreeBytes        *uint64         `json:"min_free_bytes"`
	CleanupAge          *timex.Duration `json:"cleanup_age"`
	LogLevel            *string         `json:"log_level"`
	StorageMode         *string         `json:"storage_mode"`
}

// parseJSON overlays cfg with the JSON file named by -c/-config, if any.
func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&cfg.APIBaseURL, jc.APIBaseURL)
	setString(&cfg.HealthURL, jc.HealthURL)
	setString(&cfg.DataDir, jc.DataDir)
	setString(&cfg.LogLevel, jc.LogLevel)
	setDuration(&cfg.OnlineCheckInterval, jc.OnlineCheckInterval)
	setDuration(&cfg.UploadStepTimeout, jc.UploadStepTimeout)
	setDuration(&cfg.CleanupAge, jc.CleanupAge)
	if jc.UploadsPerSecond != nil {
		cfg.UploadsPerSecond = *jc.UploadsPerSecond
	}
	if jc.MinFreeBytes != nil {
		cfg.MinFreeBytes = *jc.MinFreeBytes
	}
	if jc.StorageMode != nil {
		m, err := blobstore.ParseMode(*jc.StorageMode)
		if err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
		cfg.StorageMode = m
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
