package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gopanel/internal/flagx"
	"github.com/dmitrijs2005/gopanel/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Fields left
// out of the file keep their previous values.
type JsonConfig struct {
	Backend          string         `json:"backend"`
	SupabaseURL      string         `json:"supabase_url"`
	SupabaseKey      string         `json:"supabase_key"`
	DatabaseDSN      string         `json:"database_dsn"`
	LocalStoragePath string         `json:"local_storage"`
	CrudTable        string         `json:"crud_table"`
	RefreshInterval  timex.Duration `json:"refresh_interval"`
	LogLevel         string         `json:"log_level"`
	AdminEmails      []string       `json:"admin_emails"`
	S3               struct {
		Endpoint  string `json:"endpoint"`
		Region    string `json:"region"`
		AccessKey string `json:"access_key"`
		SecretKey string `json:"secret_key"`
		Bucket    string `json:"bucket"`
	} `json:"s3"`
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// parseJson overlays cfg with the file named by -c or -config, if any.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigFileFromArgs(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setIf(&cfg.Backend, jc.Backend)
	setIf(&cfg.SupabaseURL, jc.SupabaseURL)
	setIf(&cfg.SupabaseKey, jc.SupabaseKey)
	setIf(&cfg.DatabaseDSN, jc.DatabaseDSN)
	setIf(&cfg.LocalStoragePath, jc.LocalStoragePath)
	setIf(&cfg.CrudTable, jc.CrudTable)
	setIf(&cfg.LogLevel, jc.LogLevel)
	setIf(&cfg.S3Endpoint, jc.S3.Endpoint)
	setIf(&cfg.S3Region, jc.S3.Region)
	setIf(&cfg.S3AccessKey, jc.S3.AccessKey)
	setIf(&cfg.S3SecretKey, jc.S3.SecretKey)
	setIf(&cfg.S3Bucket, jc.S3.Bucket)
	if jc.RefreshInterval.Duration != 0 {
		cfg.RefreshInterval = jc.RefreshInterval.Duration
	}
	if jc.AdminEmails != nil {
		cfg.AdminEmails = jc.AdminEmails
	}
	return nil
}
