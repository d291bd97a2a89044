// Package config loads runtime configuration for the verifyctl admin CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   address:port of the backend gRPC endpoint
//	-k string   access token sent with every call
//	-t int      request timeout (seconds)
//	-s string   signing secret, only needed by the "token" command
//	-d int      validity of tokens issued by the "token" command (minutes)
//
// # JSON schema
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "access_token": "eyJ...",
//	  "request_timeout": "10s",
//	  "secret_key": "secretKey",
//	  "token_validity": "1h"
//	}
//
// An empty access token makes the CLI prompt for one when a command needs it.
package config
