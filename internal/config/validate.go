package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/rotisserie/eris"
)

// Validate reports every invalid setting at once.
func Validate(cfg Config) error {
	var errs []string

	if strings.TrimSpace(cfg.App.Addr) == "" {
		errs = append(errs, "app.addr is required")
	}
	if strings.TrimSpace(cfg.App.SitesFile) == "" {
		errs = append(errs, "app.sites_file is required")
	}

	switch cfg.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Sprintf("log.format must be console or json, got %q", cfg.Log.Format))
	}

	switch cfg.Store.Driver {
	case "file", "sqlite":
	case "postgres":
		if strings.TrimSpace(cfg.Store.DatabaseURL) == "" {
			errs = append(errs, "store.database_url is required when store.driver=postgres")
		}
	default:
		errs = append(errs, fmt.Sprintf("store.driver must be file, sqlite or postgres, got %q", cfg.Store.Driver))
	}

	if cfg.Scrape.TimeoutSecs <= 0 {
		errs = append(errs, "scrape.timeout_secs must be > 0")
	}
	if cfg.Scrape.Concurrency <= 0 {
		errs = append(errs, "scrape.concurrency must be > 0")
	}
	if cfg.Scrape.HostRPS <= 0 {
		errs = append(errs, "scrape.host_rps must be > 0")
	}
	if cfg.Scrape.HostBurst <= 0 {
		errs = append(errs, "scrape.host_burst must be > 0")
	}
	if cfg.Scrape.MaxBodyBytes <= 0 {
		errs = append(errs, "scrape.max_body_bytes must be > 0")
	}

	if cfg.Schedule.Enabled {
		if _, err := cron.ParseStandard(cfg.Schedule.Cron); err != nil {
			errs = append(errs, fmt.Sprintf("schedule.cron is invalid: %v", err))
		}
	}

	if len(errs) > 0 {
		return eris.New("config validation failed:\n- " + strings.Join(errs, "\n- "))
	}
	return nil
}
