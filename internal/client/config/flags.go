package config

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/gophstore/internal/flagx"
)

// parseFlags overlays cfg with the flags it owns; anything else in args is
// ignored so other loaders can share the command line.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.Filter(args, "-a", "-g", "-i", "-t", "-f", "-p", "-r", "-reset", "-l")

	fs := flag.NewFlagSet("client", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the backend HTTP API")
	fs.StringVar(&cfg.HealthAddr, "g", cfg.HealthAddr, "address and port of the gRPC health endpoint")
	interval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.DurationVar(&cfg.RequestTimeout, "t", cfg.RequestTimeout, "timeout of a single HTTP request")
	fs.StringVar(&cfg.UploadFolder, "f", cfg.UploadFolder, "destination folder for uploaded assets")
	fs.IntVar(&cfg.MaxParallelUploads, "p", cfg.MaxParallelUploads, "maximum parallel uploads (0 = unlimited)")
	fs.IntVar(&cfg.UploadRetries, "r", cfg.UploadRetries, "automatic retries per retryable upload failure")
	fs.BoolVar(&cfg.ResetAfterSubmit, "reset", cfg.ResetAfterSubmit, "clear the draft after a successful submit")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	cfg.OnlineCheckInterval = time.Duration(*interval) * time.Second
	if cfg.MaxParallelUploads < 0 || cfg.UploadRetries < 0 {
		return fmt.Errorf("parse flags: -p and -r must not be negative")
	}
	return nil
}
