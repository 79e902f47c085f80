// Package config loads runtime configuration for the gophstore client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c / -config, or GOPHSTORE_CONFIG.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the backend HTTP API
//	-g string   host:port of the backend gRPC health endpoint
//	-i int      online status check interval (seconds)
//	-t duration timeout of a single HTTP request
//	-f string   destination folder for uploaded assets
//	-p int      maximum parallel uploads, 0 for no limit
//	-r int      automatic retries of a retryable upload failure
//	-reset      clear the draft after a successful submit
//	-l string   log level (debug, info, warn, error)
//
// # JSON schema
//
// Durations accept "3s" or integer nanoseconds:
//
//	{
//	  "server_url": "http://127.0.0.1:8080",
//	  "health_addr": "127.0.0.1:50051",
//	  "online_check_interval": "3s",
//	  "request_timeout": "30s",
//	  "upload_folder": "/products",
//	  "unique_file_names": true,
//	  "max_parallel_uploads": 4,
//	  "upload_retries": 2,
//	  "reset_after_submit": false,
//	  "log_level": "info"
//	}
package config
