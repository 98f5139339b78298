// Package config loads runtime configuration for the journeykeeper client.
//
// Sources, later ones overriding earlier ones:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment variables prefixed with JK_, optionally seeded from a
//     .env file in the working directory.
//  3. Optional JSON file selected with -c or -config.
//  4. Command-line flags.
//
// # Environment
//
//	JK_API_BASE_URL, JK_HEALTH_URL, JK_DATA_DIR, JK_LOG_LEVEL, JK_STORAGE_MODE,
//	JK_ONLINE_CHECK_INTERVAL, JK_UPLOAD_STEP_TIMEOUT, JK_CLEANUP_AGE (Go durations),
//	JK_UPLOADS_PER_SECOND, JK_MIN_FREE_BYTES
//
// # JSON schema
//
// Durations may be strings like "3s" or integer nanoseconds:
//
//	{
//	  "api_base_url": "http://localhost:8000/api/v1",
//	  "data_dir": "/var/lib/journeykeeper",
//	  "online_check_interval": "3s",
//	  "storage_mode": "move"
//	}
package config
