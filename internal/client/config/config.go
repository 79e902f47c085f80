package config

import (
	"os"
	"time"
)

// Config holds runtime settings for the gophstore client.
type Config struct {
	ServerURL           string
	HealthAddr          string
	OnlineCheckInterval time.Duration
	RequestTimeout      time.Duration
	UploadFolder        string
	UniqueFileNames     bool
	MaxParallelUploads  int
	UploadRetries       int
	ResetAfterSubmit    bool
	LogLevel            string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.HealthAddr = "127.0.0.1:50051"
	c.OnlineCheckInterval = 3 * time.Second
	c.RequestTimeout = 30 * time.Second
	c.UploadFolder = "/products"
	c.UniqueFileNames = true
	c.MaxParallelUploads = 0
	c.UploadRetries = 0
	c.ResetAfterSubmit = false
	c.LogLevel = "info"
}

// LoadConfig builds a Config from defaults, the JSON file and os.Args, in
// that order.
func LoadConfig() (*Config, error) {
	return load(os.Args[1:])
}

func load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
