// Package config loads runtime configuration for the gopanel console.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. GOPANEL_* environment variables.
//  4. Command-line flags, which override everything else.
//
// Supported flags
//
//	-b string   backend: supabase, postgres or memory
//	-u string   Supabase project URL
//	-k string   Supabase anon key
//	-d string   Postgres DSN for the postgres backend
//	-s string   path of the local storage database
//	-t string   table shown on the crud pages
//	-r int      session refresh check interval (seconds)
//	-l string   log level
//
// # JSON schema
//
// Durations use timex.Duration, so they may be strings like "30s" or integer
// nanoseconds:
//
//	{
//	  "backend": "supabase",
//	  "supabase_url": "https://xyzcompany.supabase.co",
//	  "supabase_key": "public-anon-key",
//	  "crud_table": "products",
//	  "refresh_interval": "30s",
//	  "s3": {"endpoint": "https://xyzcompany.supabase.co/storage/v1/s3", "bucket": "attachments"}
//	}
package config
