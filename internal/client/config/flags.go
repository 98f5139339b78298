package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/journeykeeper/internal/client/blobstore"
	"github.com/dmitrijs2005/journeykeeper/internal/flagx"
)

var knownFlags = []string{"-a", "-d", "-i", "-l", "-m", "-r"}

// parseFlags populates selected Config fields from command-line flags.
//
//	-a string   backend API base URL
//	-d string   data directory
//	-i int      online check interval (seconds)
//	-l string   log level
//	-m string   storage mode: copy or move
//	-r float    uploads per second (0 disables pacing)
//
// Unknown arguments are filtered out first. Invalid values panic.
func parseFlags(cfg *Config, args []string) {
	fs := flag.NewFlagSet("journeykeeper", flag.ContinueOnError)

	fs.StringVar(&cfg.APIBaseURL, "a", cfg.APIBaseURL, "backend API base URL")
	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "data directory")
	interval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	mode := fs.String("m", string(cfg.StorageMode), "storage mode (copy|move)")
	fs.Float64Var(&cfg.UploadsPerSecond, "r", cfg.UploadsPerSecond, "uploads per second")

	if err := fs.Parse(flagx.FilterArgs(args, knownFlags)); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*interval) * time.Second
	m, err := blobstore.ParseMode(*mode)
	if err != nil {
		panic(err)
	}
	cfg.StorageMode = m
}
