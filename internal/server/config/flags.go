package config

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/gophstore/internal/flagx"
)

// parseFlags overlays cfg with the server flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-grpc string gRPC health bind address
//	-d string   PostgreSQL DSN
//	-k string   upload public key
//	-s string   upload private key
//	-j string   JWT HMAC secret
//	-t int      credential validity, seconds
//	-m int      max upload size, bytes
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint
//	-url string public base URL of stored assets
//	-l string   log level
func parseFlags(cfg *Config, args []string) error {
	args = flagx.Filter(args, "-a", "-grpc", "-d", "-k", "-s", "-j", "-t", "-m",
		"-u", "-p", "-b", "-g", "-e", "-url", "-l")

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.HTTPAddr, "a", cfg.HTTPAddr, "address and port to run the HTTP API")
	fs.StringVar(&cfg.GRPCAddr, "grpc", cfg.GRPCAddr, "address and port to run the gRPC health service")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.UploadPublicKey, "k", cfg.UploadPublicKey, "upload public key")
	fs.StringVar(&cfg.UploadPrivateKey, "s", cfg.UploadPrivateKey, "upload private key")
	fs.StringVar(&cfg.TokenSecret, "j", cfg.TokenSecret, "upload token secret")
	ttl := fs.Int("t", int(cfg.CredentialTTL.Seconds()), "credential validity (in seconds)")
	fs.Int64Var(&cfg.MaxUploadSize, "m", cfg.MaxUploadSize, "max upload size (in bytes)")
	fs.StringVar(&cfg.S3RootUser, "u", cfg.S3RootUser, "S3 root user")
	fs.StringVar(&cfg.S3RootPassword, "p", cfg.S3RootPassword, "S3 root password")
	fs.StringVar(&cfg.S3Bucket, "b", cfg.S3Bucket, "S3 bucket")
	fs.StringVar(&cfg.S3Region, "g", cfg.S3Region, "S3 region")
	fs.StringVar(&cfg.S3BaseEndpoint, "e", cfg.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&cfg.PublicBaseURL, "url", cfg.PublicBaseURL, "public base URL of stored assets")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	cfg.CredentialTTL = time.Duration(*ttl) * time.Second
	if cfg.CredentialTTL <= 0 {
		return fmt.Errorf("parse flags: credential validity must be positive")
	}
	if cfg.MaxUploadSize <= 0 {
		return fmt.Errorf("parse flags: max upload size must be positive")
	}
	return nil
}
