package crawler

import "time"

const (
	defaultParallelism    = 4
	defaultMaxDepth       = 4
	defaultRequestTimeout = 30 * time.Second
	defaultUserAgent      = "restock-monitor/1.0 (+https://github.com/jonesrussell/north-cloud)"
)

// Config holds fetch-engine settings.
type Config struct {
	// Parallelism is the number of concurrent fetches.
	Parallelism int `env:"CRAWLER_PARALLELISM" yaml:"parallelism"`
	// MaxDepth bounds link following from the seed page (seed = 1).
	MaxDepth       int           `env:"CRAWLER_MAX_DEPTH" yaml:"max_depth"`
	Delay          time.Duration `yaml:"delay"`
	RandomDelay    time.Duration `yaml:"random_delay"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	UserAgent      string        `env:"CRAWLER_USER_AGENT" yaml:"user_agent"`
	// RespectRobotsTxt makes colly fetch and honour robots.txt.
	RespectRobotsTxt bool `yaml:"respect_robots_txt"`
	// MaxBodySize in bytes; 0 keeps colly's default.
	MaxBodySize int `yaml:"max_body_size"`
}

// SetDefaults fills unset values.
func (c *Config) SetDefaults() {
	if c.Parallelism <= 0 {
		c.Parallelism = defaultParallelism
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = defaultMaxDepth
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
}
