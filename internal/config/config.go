// engine/internal/config/config.go
package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
)

// DefaultUserAgent is a desktop browser UA; several boards serve a stripped
// page or a 403 to obvious bots.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

type Config struct {
	App      AppConfig      `yaml:"app" mapstructure:"app"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Scrape   ScrapeConfig   `yaml:"scrape" mapstructure:"scrape"`
	Schedule ScheduleConfig `yaml:"schedule" mapstructure:"schedule"`
}

type AppConfig struct {
	Addr      string `yaml:"addr" mapstructure:"addr"`
	DataDir   string `yaml:"data_dir" mapstructure:"data_dir"`
	SitesFile string `yaml:"sites_file" mapstructure:"sites_file"`
	// DefaultSites is copied to SitesFile on first start when SitesFile is missing.
	DefaultSites string `yaml:"default_sites" mapstructure:"default_sites"`
}

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // console | json
	File   string `yaml:"file" mapstructure:"file"`
}

// StoreConfig selects the job store backend: file | sqlite | postgres.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

type ScrapeConfig struct {
	TimeoutSecs  int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Concurrency  int     `yaml:"concurrency" mapstructure:"concurrency"`
	HostRPS      float64 `yaml:"host_rps" mapstructure:"host_rps"`
	HostBurst    int     `yaml:"host_burst" mapstructure:"host_burst"`
	UserAgent    string  `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64   `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
}

type ScheduleConfig struct {
	Enabled    bool   `yaml:"enabled" mapstructure:"enabled"`
	Cron       string `yaml:"cron" mapstructure:"cron"`
	RunOnStart bool   `yaml:"run_on_start" mapstructure:"run_on_start"`
}

func (s ScrapeConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSecs) * time.Second
}

// SitesPath resolves the registry snapshot location against the data dir.
func (c Config) SitesPath() string {
	return resolve(c.App.DataDir, c.App.SitesFile)
}

// StorePath resolves the file/sqlite store location against the data dir.
func (c Config) StorePath() string {
	p := c.Store.Path
	if p == "" {
		switch c.Store.Driver {
		case "sqlite":
			p = "jobs.db"
		default:
			p = "jobs.json"
		}
	}
	return resolve(c.App.DataDir, p)
}

// LockPath is the cross-process run lock.
func (c Config) LockPath() string {
	return resolve(c.App.DataDir, "engine.lock")
}

func resolve(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// Load reads config.yml (or the explicit path) and JOBSCRAPE_* env overrides.
// A missing config file is not an error; defaults apply.
func Load(path string) (Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("JOBSCRAPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app.addr", "127.0.0.1:38471")
	v.SetDefault("app.data_dir", ".")
	v.SetDefault("app.sites_file", "sites.yml")
	v.SetDefault("app.default_sites", filepath.Join("config", "sites.yml"))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")
	v.SetDefault("store.driver", "file")
	v.SetDefault("store.path", "")
	v.SetDefault("store.database_url", "")
	v.SetDefault("scrape.timeout_secs", 10)
	v.SetDefault("scrape.concurrency", 4)
	v.SetDefault("scrape.host_rps", 2.0)
	v.SetDefault("scrape.host_burst", 2)
	v.SetDefault("scrape.user_agent", DefaultUserAgent)
	v.SetDefault("scrape.max_body_bytes", 5<<20)
	v.SetDefault("schedule.enabled", true)
	v.SetDefault("schedule.cron", "0 */6 * * *")
	v.SetDefault("schedule.run_on_start", false)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, eris.Wrap(err, "config: unmarshal")
	}
	return cfg, nil
}
