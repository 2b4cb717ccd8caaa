// Package config loads runtime configuration for the Agile command-line
// tools.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// # JSON schema
//
//	{
//	  "api_url": "https://agile.example.com",
//	  "user": "alice",
//	  "timeout": "30s",
//	  "max_tries": 5,
//	  "piece_size": 10485760,
//	  "concurrency": 4,
//	  "manifest_path": "agilesync.db",
//	  "log_level": "debug"
//	}
//
// The password may be stored in the file or passed with -P; the tools prompt
// for it when it is empty.
package config
