package config

import (
	"errors"
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DefaultUserAgent is sent with every request unless overridden.
const DefaultUserAgent = "Mozilla/5.0 (compatible; WebsiteCrawler)"

// Config stores all configuration for a crawl run. Values come from
// command-line flags, the environment and an optional .env file, in
// that order of precedence.
type Config struct {
	// Positional arguments.
	SeedURL   string
	TargetDir string

	Workers           int     `mapstructure:"CRAWL_WORKERS"`
	MaxRetries        int     `mapstructure:"MAX_RETRIES"`
	FetchTimeout      int     `mapstructure:"FETCH_TIMEOUT"` // seconds
	RequestsPerSecond float64 `mapstructure:"REQUESTS_PER_SECOND"`
	UserAgent         string  `mapstructure:"USER_AGENT"`
	ProxyURL          string  `mapstructure:"PROXY_URL"`

	IncludeHyperlinks  bool `mapstructure:"INCLUDE_HYPERLINKS"`
	IncludeStylesheets bool `mapstructure:"INCLUDE_STYLESHEETS"`
	IncludeJavascript  bool `mapstructure:"INCLUDE_JAVASCRIPT"`

	ASCIIOnly         bool `mapstructure:"ASCII_ONLY"`
	LoweredPaths      bool `mapstructure:"LOWERED_PATHS"`
	AllowOverwrites   bool `mapstructure:"ALLOW_OVERWRITES"`
	MentionOverwrites bool `mapstructure:"MENTION_OVERWRITES"`

	StatusAddr    string `mapstructure:"STATUS_ADDR"`
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisTTLHours int    `mapstructure:"REDIS_TTL_HOURS"`
	PostgresURL   string `mapstructure:"POSTGRES_URL"`

	Verbose bool `mapstructure:"VERBOSE"`
}

// Load parses flags and reads configuration from the environment or a
// .env file. args are the command-line arguments without the program
// name.
func Load(args []string) (*Config, error) {
	flags := pflag.NewFlagSet("crawler", pflag.ContinueOnError)
	flags.Int("workers", 4, "number of parallel download workers")
	flags.Int("max-retries", 2, "retry budget per resource for transient failures")
	flags.Int("timeout", 30, "fetch timeout in seconds")
	flags.Float64("rate", 0, "request rate limit per second, 0 disables")
	flags.String("user-agent", DefaultUserAgent, "user agent header")
	flags.String("proxy", "", "HTTP proxy URL")
	flags.Bool("hyperlinks", true, "follow anchor hyperlinks")
	flags.Bool("stylesheets", true, "fetch linked stylesheets")
	flags.Bool("javascript", true, "fetch referenced scripts")
	flags.Bool("ascii-only", false, "transliterate local paths to ASCII")
	flags.Bool("lowered", false, "lower-case all local paths")
	flags.Bool("overwrite", true, "overwrite existing local files")
	flags.Bool("mention-overwrites", true, "log when files are overwritten")
	flags.String("status-addr", "", "listen address for the status/metrics server, empty disables")
	flags.String("redis", "", "Redis address for the incremental-mirror cache, empty disables")
	flags.Int("redis-ttl-hours", 48, "hours a mirrored URL stays cached in Redis")
	flags.String("postgres", "", "PostgreSQL URL for crawl records, empty disables")
	flags.BoolP("verbose", "v", false, "enable debug logging")

	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// The .env file is optional; environment variables alone are fine.
	_ = v.ReadInConfig()

	v.SetDefault("CRAWL_WORKERS", 4)
	v.SetDefault("MAX_RETRIES", 2)
	v.SetDefault("FETCH_TIMEOUT", 30)
	v.SetDefault("REQUESTS_PER_SECOND", 0)
	v.SetDefault("USER_AGENT", DefaultUserAgent)
	// Empty defaults so Unmarshal picks these up from the environment;
	// AutomaticEnv alone does not surface unregistered keys.
	v.SetDefault("PROXY_URL", "")
	v.SetDefault("STATUS_ADDR", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("POSTGRES_URL", "")
	v.SetDefault("INCLUDE_HYPERLINKS", true)
	v.SetDefault("INCLUDE_STYLESHEETS", true)
	v.SetDefault("INCLUDE_JAVASCRIPT", true)
	v.SetDefault("ASCII_ONLY", false)
	v.SetDefault("LOWERED_PATHS", false)
	v.SetDefault("ALLOW_OVERWRITES", true)
	v.SetDefault("MENTION_OVERWRITES", true)
	v.SetDefault("REDIS_TTL_HOURS", 48)
	v.SetDefault("VERBOSE", false)

	bindings := map[string]string{
		"CRAWL_WORKERS":       "workers",
		"MAX_RETRIES":         "max-retries",
		"FETCH_TIMEOUT":       "timeout",
		"REQUESTS_PER_SECOND": "rate",
		"USER_AGENT":          "user-agent",
		"PROXY_URL":           "proxy",
		"INCLUDE_HYPERLINKS":  "hyperlinks",
		"INCLUDE_STYLESHEETS": "stylesheets",
		"INCLUDE_JAVASCRIPT":  "javascript",
		"ASCII_ONLY":          "ascii-only",
		"LOWERED_PATHS":       "lowered",
		"ALLOW_OVERWRITES":    "overwrite",
		"MENTION_OVERWRITES":  "mention-overwrites",
		"STATUS_ADDR":         "status-addr",
		"REDIS_ADDR":          "redis",
		"REDIS_TTL_HOURS":     "redis-ttl-hours",
		"POSTGRES_URL":        "postgres",
		"VERBOSE":             "verbose",
	}
	for key, flag := range bindings {
		f := flags.Lookup(flag)
		if f.Changed {
			v.Set(key, f.Value.String())
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	positional := flags.Args()
	if len(positional) != 2 {
		return nil, errors.New("usage: crawler [flags] <seed-url> <target-directory>")
	}
	cfg.SeedURL = positional[0]
	cfg.TargetDir = positional[1]

	if cfg.Workers < 1 {
		return nil, fmt.Errorf("worker count must be positive, got %d", cfg.Workers)
	}
	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("retry budget must not be negative, got %d", cfg.MaxRetries)
	}

	return &cfg, nil
}
