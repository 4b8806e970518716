package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/gopanel/internal/flagx"
)

var knownFlags = []string{"-b", "-u", "-k", "-d", "-s", "-t", "-r", "-l"}

// parseFlags populates Config fields from command-line flags. Arguments it
// does not know about, such as -c, are filtered out first.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, knownFlags)

	fs := flag.NewFlagSet("gopanel", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.Backend, "b", cfg.Backend, "backend: supabase, postgres or memory")
	fs.StringVar(&cfg.SupabaseURL, "u", cfg.SupabaseURL, "Supabase project URL")
	fs.StringVar(&cfg.SupabaseKey, "k", cfg.SupabaseKey, "Supabase anon key")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "Postgres DSN")
	fs.StringVar(&cfg.LocalStoragePath, "s", cfg.LocalStoragePath, "local storage database path")
	fs.StringVar(&cfg.CrudTable, "t", cfg.CrudTable, "table shown on the crud pages")
	refresh := fs.Int("r", int(cfg.RefreshInterval.Seconds()), "session refresh check interval (in seconds)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "r" {
			cfg.RefreshInterval = time.Duration(*refresh) * time.Second
		}
	})
	return nil
}
