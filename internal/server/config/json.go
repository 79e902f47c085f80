package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gophstore/internal/flagx"
	"github.com/dmitrijs2005/gophstore/internal/timex"
)

// jsonConfig is the file DTO. Durations accept "5m" as well as integer
// nanoseconds via timex.Duration.
type jsonConfig struct {
	HTTPAddr         *string         `json:"http_addr"`
	GRPCAddr         *string         `json:"grpc_addr"`
	DatabaseDSN      *string         `json:"database_dsn"`
	UploadPublicKey  *string         `json:"upload_public_key"`
	UploadPrivateKey *string         `json:"upload_private_key"`
	TokenSecret      *string         `json:"token_secret"`
	CredentialTTL    *timex.Duration `json:"credential_ttl"`
	MaxUploadSize    *int64          `json:"max_upload_size"`
	S3RootUser       *string         `json:"s3_root_user"`
	S3RootPassword   *string         `json:"s3_root_password"`
	S3Bucket         *string         `json:"s3_bucket"`
	S3Region         *string         `json:"s3_region"`
	S3BaseEndpoint   *string         `json:"s3_base_endpoint"`
	PublicBaseURL    *string         `json:"public_base_url"`
	LogLevel         *string         `json:"log_level"`
}

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

	set(&cfg.HTTPAddr, jc.HTTPAddr)
	set(&cfg.GRPCAddr, jc.GRPCAddr)
	set(&cfg.DatabaseDSN, jc.DatabaseDSN)
	set(&cfg.UploadPublicKey, jc.UploadPublicKey)
	set(&cfg.UploadPrivateKey, jc.UploadPrivateKey)
	set(&cfg.TokenSecret, jc.TokenSecret)
	if jc.CredentialTTL != nil {
		cfg.CredentialTTL = jc.CredentialTTL.Duration
	}
	set(&cfg.MaxUploadSize, jc.MaxUploadSize)
	set(&cfg.S3RootUser, jc.S3RootUser)
	set(&cfg.S3RootPassword, jc.S3RootPassword)
	set(&cfg.S3Bucket, jc.S3Bucket)
	set(&cfg.S3Region, jc.S3Region)
	set(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)
	set(&cfg.PublicBaseURL, jc.PublicBaseURL)
	set(&cfg.LogLevel, jc.LogLevel)
	return nil
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
