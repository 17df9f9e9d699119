// Package config holds the restock application configuration. Values come
// from a YAML file and environment variables through infrastructure/config.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	infraconfig "github.com/jonesrussell/north-cloud/restock/infrastructure/config"
	"github.com/jonesrussell/north-cloud/restock/infrastructure/logger"
	infraredis "github.com/jonesrussell/north-cloud/restock/infrastructure/redis"
	"github.com/jonesrussell/north-cloud/restock/internal/crawler"
	"github.com/jonesrussell/north-cloud/restock/internal/database"
	"github.com/jonesrussell/north-cloud/restock/internal/extractor"
	"github.com/jonesrussell/north-cloud/restock/internal/frontier"
	"github.com/jonesrussell/north-cloud/restock/internal/notify"
)

const (
	defaultSeedURL         = "https://www.lego.com/de-de/themes"
	defaultRetentionMaxAge = 30 * 24 * time.Hour
	defaultServerAddress   = ":8080"
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 30 * time.Second

	defaultDiscoverSchedule = "0 3 * * *"
	defaultRefreshSchedule  = "*/15 * * * *"
	defaultPruneSchedule    = "30 4 * * *"
)

// DefaultPaths are searched when no config file is given.
var DefaultPaths = []string{"config.yml", "config.yaml", "/etc/restock/config.yml"}

// Config represents the application configuration.
type Config struct {
	Logging   logger.Config         `yaml:"logging"`
	Database  database.Config       `yaml:"database"`
	Crawler   crawler.Config        `yaml:"crawler"`
	Catalog   CatalogConfig         `yaml:"catalog"`
	Telegram  notify.TelegramConfig `yaml:"telegram"`
	Retention RetentionConfig       `yaml:"retention"`
	Schedule  ScheduleConfig        `yaml:"schedule"`
	Server    ServerConfig          `yaml:"server"`
	Redis     RedisConfig           `yaml:"redis"`
}

// CatalogConfig describes the storefront being monitored.
type CatalogConfig struct {
	SeedURL string `env:"CATALOG_SEED_URL" yaml:"seed_url"`
	// Allow and Deny are regular expressions over absolute URLs. Deny wins.
	Allow     []string            `yaml:"allow"`
	Deny      []string            `yaml:"deny"`
	Selectors extractor.Selectors `yaml:"selectors"`
}

// RetentionConfig bounds how long availability history is kept.
type RetentionConfig struct {
	MaxAge time.Duration `env:"RETENTION_MAX_AGE" yaml:"max_age"`
}

// ScheduleConfig holds standard five-field cron specs for `restock serve`.
// An empty spec disables the job.
type ScheduleConfig struct {
	Discover string `env:"SCHEDULE_DISCOVER" yaml:"discover"`
	Refresh  string `env:"SCHEDULE_REFRESH"  yaml:"refresh"`
	Prune    string `env:"SCHEDULE_PRUNE"    yaml:"prune"`
}

// ServerConfig is the health and metrics endpoint.
type ServerConfig struct {
	Address      string        `env:"SERVER_ADDRESS" yaml:"address"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// RedisConfig enables notification dedup.
type RedisConfig struct {
	infraredis.Config `yaml:",inline"`

	DedupTTL time.Duration `env:"REDIS_DEDUP_TTL" yaml:"dedup_ttl"`
}

// Load reads the config at path, or the first of DefaultPaths that exists.
// Without a file the config is built from defaults and the environment.
func Load(path string) (*Config, error) {
	resolved := infraconfig.ResolvePath(path, DefaultPaths...)
	cfg, err := infraconfig.LoadWithDefaults[Config](resolved, setDefaults)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

func setDefaults(cfg *Config) {
	cfg.Logging.SetDefaults()
	cfg.Database.SetDefaults()
	cfg.Crawler.SetDefaults()
	cfg.Telegram.SetDefaults()
	cfg.Catalog.Selectors.SetDefaults()

	if cfg.Catalog.SeedURL == "" {
		cfg.Catalog.SeedURL = defaultSeedURL
	}
	if cfg.Catalog.Allow == nil {
		cfg.Catalog.Allow = append([]string(nil), frontier.DefaultAllow...)
	}
	if cfg.Catalog.Deny == nil {
		cfg.Catalog.Deny = append([]string(nil), frontier.DefaultDeny...)
	}

	if cfg.Retention.MaxAge == 0 {
		cfg.Retention.MaxAge = defaultRetentionMaxAge
	}

	if cfg.Schedule == (ScheduleConfig{}) {
		cfg.Schedule = ScheduleConfig{
			Discover: defaultDiscoverSchedule,
			Refresh:  defaultRefreshSchedule,
			Prune:    defaultPruneSchedule,
		}
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = defaultServerAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultWriteTimeout
	}

	if cfg.Redis.DedupTTL == 0 {
		cfg.Redis.DedupTTL = notify.DefaultDedupTTL
	}
}

// Validate checks the settings every command needs. Telegram credentials are
// checked by ValidateNotify because dry runs do without them.
func (c *Config) Validate() error {
	errs := []error{
		infraconfig.ValidateLogLevel(c.Logging.Level),
		infraconfig.ValidateLogFormat(c.Logging.Format),
		infraconfig.ValidateRequired("database.host", c.Database.Host),
		infraconfig.ValidatePort("database.port", c.Database.Port),
		infraconfig.ValidateRequired("database.dbname", c.Database.DBName),
		infraconfig.ValidateAbsoluteURL("catalog.seed_url", c.Catalog.SeedURL),
		infraconfig.ValidatePatterns("catalog.allow", c.Catalog.Allow),
		infraconfig.ValidatePatterns("catalog.deny", c.Catalog.Deny),
		infraconfig.ValidateRequired("catalog.selectors.product_path", c.Catalog.Selectors.ProductPath),
		validatePositive("retention.max_age", c.Retention.MaxAge),
		validatePositiveInt("crawler.parallelism", c.Crawler.Parallelism),
		validatePositiveInt("crawler.max_depth", c.Crawler.MaxDepth),
		validateSchedule("schedule.discover", c.Schedule.Discover),
		validateSchedule("schedule.refresh", c.Schedule.Refresh),
		validateSchedule("schedule.prune", c.Schedule.Prune),
	}
	if c.Redis.Enabled {
		errs = append(errs, infraconfig.ValidateRequired("redis.address", c.Redis.Address))
	}
	return errors.Join(errs...)
}

// ValidateNotify checks the Telegram settings needed to send messages.
func (c *Config) ValidateNotify() error {
	return errors.Join(
		infraconfig.ValidateRequired("telegram.token", c.Telegram.Token),
		infraconfig.ValidateRequired("telegram.channel_id", c.Telegram.ChannelID),
		infraconfig.ValidateAbsoluteURL("telegram.api_url", c.Telegram.APIURL),
	)
}

func validatePositive(field string, d time.Duration) error {
	if d <= 0 {
		return &infraconfig.ValidationError{Field: field, Message: "must be positive"}
	}
	return nil
}

func validatePositiveInt(field string, n int) error {
	if n <= 0 {
		return &infraconfig.ValidationError{Field: field, Message: "must be positive"}
	}
	return nil
}

func validateSchedule(field, spec string) error {
	if spec == "" {
		return nil
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return &infraconfig.ValidationError{Field: field, Message: fmt.Sprintf("invalid cron spec %q: %v", spec, err)}
	}
	return nil
}
