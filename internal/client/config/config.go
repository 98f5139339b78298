package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/journeykeeper/internal/client/blobstore"
	"github.com/dmitrijs2005/journeykeeper/internal/logging"
)

// Config holds runtime settings for the journeykeeper client.
type Config struct {
	APIBaseURL string
	// HealthURL is probed for connectivity. Empty means {scheme}://{host}/healthz
	// of APIBaseURL.
	HealthURL string
	DataDir   string

	OnlineCheckInterval time.Duration
	UploadStepTimeout   time.Duration
	// UploadsPerSecond paces uploads within a sync pass; 0 disables pacing.
	UploadsPerSecond float64
	MinFreeBytes     uint64
	CleanupAge       time.Duration

	LogLevel    string
	StorageMode blobstore.Mode
}

const (
	dbFileName     = "journeykeeper.db"
	recordingsName = "recordings"
)

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://localhost:8000/api/v1"
	c.HealthURL = ""
	c.DataDir = "journeykeeper-data"
	c.OnlineCheckInterval = 3 * time.Second
	c.UploadStepTimeout = 2 * time.Minute
	c.UploadsPerSecond = 0
	c.MinFreeBytes = 50 << 20
	c.CleanupAge = 30 * 24 * time.Hour
	c.LogLevel = "info"
	c.StorageMode = blobstore.ModeCopy
}

// DBPath is the SQLite file inside DataDir.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, dbFileName)
}

// RecordingsDir is where persisted recording files live.
func (c *Config) RecordingsDir() string {
	return filepath.Join(c.DataDir, recordingsName)
}

func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("api base url %q must be absolute", c.APIBaseURL))
	}
	if c.HealthURL != "" {
		if u, err := url.Parse(c.HealthURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("health url %q must be absolute", c.HealthURL))
		}
	}
	if c.DataDir == "" {
		errs = append(errs, errors.New("data dir is required"))
	}
	if c.OnlineCheckInterval <= 0 {
		errs = append(errs, errors.New("online check interval must be positive"))
	}
	if c.UploadStepTimeout <= 0 {
		errs = append(errs, errors.New("upload step timeout must be positive"))
	}
	if c.UploadsPerSecond < 0 {
		errs = append(errs, errors.New("uploads per second must not be negative"))
	}
	if c.CleanupAge <= 0 {
		errs = append(errs, errors.New("cleanup age must be positive"))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if _, err := blobstore.ParseMode(string(c.StorageMode)); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// LoadConfig constructs a Config, applies defaults, then overlays the
// environment (optionally seeded from a .env file), a JSON file and
// command-line flags. Later sources take precedence over earlier ones.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	loadDotEnv(".env")
	if err := parseEnv(cfg, lookupEnv); err != nil {
		return nil, err
	}
	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	parseFlags(cfg, args)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
