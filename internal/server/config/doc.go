// Package config loads server settings.
//
// Sources are applied in order, each overriding the previous one:
//
//  1. LoadDefaults
//  2. a JSON file named by -c/-config or GOPHSTORE_CONFIG
//  3. command-line flags
//
// JSON keys:
//
//	{
//	  "http_addr": ":8080",
//	  "grpc_addr": ":50051",
//	  "database_dsn": "postgres://...",
//	  "upload_public_key": "public_dev",
//	  "upload_private_key": "private_dev",
//	  "token_secret": "secretKey",
//	  "credential_ttl": "5m",
//	  "max_upload_size": 10485760,
//	  "s3_root_user": "admin",
//	  "s3_root_password": "secretpassword",
//	  "s3_bucket": "assets",
//	  "s3_region": "us-east-1",
//	  "s3_base_endpoint": "http://127.0.0.1:9000/",
//	  "public_base_url": "http://127.0.0.1:9000/assets",
//	  "log_level": "info"
//	}
package config
