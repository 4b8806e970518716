package config

import (
	"fmt"
	"os"
	"slices"
	"time"
)

const (
	BackendSupabase = "supabase"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config holds runtime settings for the console.
type Config struct {
	Backend          string        `env:"GOPANEL_BACKEND"`
	SupabaseURL      string        `env:"GOPANEL_SUPABASE_URL"`
	SupabaseKey      string        `env:"GOPANEL_SUPABASE_KEY"`
	DatabaseDSN      string        `env:"GOPANEL_DATABASE_DSN"`
	LocalStoragePath string        `env:"GOPANEL_LOCAL_STORAGE"`
	CrudTable        string        `env:"GOPANEL_CRUD_TABLE"`
	RefreshInterval  time.Duration `env:"GOPANEL_REFRESH_INTERVAL"`
	LogLevel         string        `env:"GOPANEL_LOG_LEVEL"`

	S3Endpoint  string `env:"GOPANEL_S3_ENDPOINT"`
	S3Region    string `env:"GOPANEL_S3_REGION"`
	S3AccessKey string `env:"GOPANEL_S3_ACCESS_KEY"`
	S3SecretKey string `env:"GOPANEL_S3_SECRET_KEY"`
	S3Bucket    string `env:"GOPANEL_S3_BUCKET"`

	// AdminEmails are granted admin on sign-up with the memory backend.
	AdminEmails []string `env:"GOPANEL_ADMIN_EMAILS" envSeparator:","`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.Backend = BackendSupabase
	c.LocalStoragePath = "gopanel.db"
	c.CrudTable = "products"
	c.RefreshInterval = 30 * time.Second
	c.LogLevel = "warn"
	c.S3Region = "us-east-1"
}

// Validate checks that the selected backend has what it needs.
func (c *Config) Validate() error {
	if !slices.Contains([]string{BackendSupabase, BackendPostgres, BackendMemory}, c.Backend) {
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.Backend == BackendSupabase && (c.SupabaseURL == "" || c.SupabaseKey == "") {
		return fmt.Errorf("backend %s needs a project URL and anon key", c.Backend)
	}
	if c.Backend == BackendPostgres && c.DatabaseDSN == "" {
		return fmt.Errorf("backend %s needs a database DSN", c.Backend)
	}
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("refresh interval must be positive, got %s", c.RefreshInterval)
	}
	return nil
}

// Load builds a Config from defaults, the JSON file, the environment and
// args, in that order.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig is Load applied to the process arguments.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}
