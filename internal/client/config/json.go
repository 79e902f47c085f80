package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gophstore/internal/flagx"
	"github.com/dmitrijs2005/gophstore/internal/timex"
)

// jsonConfig is the file DTO. Pointers tell absent keys from zero values so
// a partial file only overrides what it names.
type jsonConfig struct {
	ServerURL           *string         `json:"server_url"`
	HealthAddr          *string         `json:"health_addr"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
	RequestTimeout      *timex.Duration `json:"request_timeout"`
	UploadFolder        *string         `json:"upload_folder"`
	UniqueFileNames     *bool           `json:"unique_file_names"`
	MaxParallelUploads  *int            `json:"max_parallel_uploads"`
	UploadRetries       *int            `json:"upload_retries"`
	ResetAfterSubmit    *bool           `json:"reset_after_submit"`
	LogLevel            *string         `json:"log_level"`
}

// parseJSON overlays cfg with the file named by -c/-config or
// GOPHSTORE_CONFIG. No file means no change.
func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var jc jsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	set(&cfg.ServerURL, jc.ServerURL)
	set(&cfg.HealthAddr, jc.HealthAddr)
	if jc.OnlineCheckInterval != nil {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	set(&cfg.UploadFolder, jc.UploadFolder)
	set(&cfg.UniqueFileNames, jc.UniqueFileNames)
	set(&cfg.MaxParallelUploads, jc.MaxParallelUploads)
	set(&cfg.UploadRetries, jc.UploadRetries)
	set(&cfg.ResetAfterSubmit, jc.ResetAfterSubmit)
	set(&cfg.LogLevel, jc.LogLevel)
	return nil
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
