package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// validRegions are the Battle.net API regions we accept
var validRegions = map[string]bool{
	"us": true,
	"eu": true,
	"kr": true,
	"tw": true,
}

// Config holds all application configuration
type Config struct {
	// Blizzard game-data API (client credentials)
	BlizzardClientID     string        `envconfig:"BLIZZARD_CLIENT_ID" default:""`
	BlizzardClientSecret string        `envconfig:"BLIZZARD_CLIENT_SECRET" default:""`
	Region               string        `envconfig:"REGION" default:"us"`
	Locale               string        `envconfig:"LOCALE" default:"en_US"`
	APITimeout           time.Duration `envconfig:"API_TIMEOUT" default:"30s"`
	APIPacing            time.Duration `envconfig:"API_PACING" default:"150ms"`

	// Warcraft Logs API (client credentials)
	WCLClientID     string `envconfig:"WCL_CLIENT_ID" default:""`
	WCLClientSecret string `envconfig:"WCL_CLIENT_SECRET" default:""`
	WCLReportPages  int    `envconfig:"WCL_REPORT_PAGES" default:"1"`

	// Guild identity
	GuildName  string `envconfig:"GUILD_NAME" required:"true"`
	GuildRealm string `envconfig:"GUILD_REALM" required:"true"`

	// Gear guide scraping
	GuideBaseURL string `envconfig:"GUIDE_BASE_URL" default:"https://www.wowhead.com/guide"`

	// Database
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// Redis (optional item-detail cache)
	RedisHost     string        `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int           `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	CacheTTL      time.Duration `envconfig:"CACHE_TTL" default:"24h"`

	// Application
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Scheduler
	EnableScheduler    bool   `envconfig:"ENABLE_SCHEDULER" default:"true"`
	InitialSyncEnabled bool   `envconfig:"INITIAL_SYNC_ENABLED" default:"false"`
	RosterCron         string `envconfig:"ROSTER_CRON" default:"0 3 * * *"`
	ItemsCron          string `envconfig:"ITEMS_CRON" default:"30 3 * * *"`
	LogsCron           string `envconfig:"LOGS_CRON" default:"0 4 * * *"`
	GuideCron          string `envconfig:"GUIDE_CRON" default:"0 5 * * 1"`

	// Monitoring
	EnableMetrics bool `envconfig:"ENABLE_METRICS" default:"true"`
	MetricsPort   int  `envconfig:"METRICS_PORT" default:"9090"`
}

// Load loads configuration from environment variables
// It first attempts to load from .env file if present
func Load() (*Config, error) {
	// Try to load .env file (ignore error if doesn't exist)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.GuildName == "" || c.GuildRealm == "" {
		return fmt.Errorf("GUILD_NAME and GUILD_REALM are required")
	}

	c.Region = strings.ToLower(c.Region)
	if !validRegions[c.Region] {
		return fmt.Errorf("REGION %q is not one of us, eu, kr, tw", c.Region)
	}

	return nil
}

// DatabaseDSN returns the PostgreSQL connection string.
// Legacy platform URLs use the postgres:// scheme prefix; pgx and the
// front end both expect postgresql://.
func (c *Config) DatabaseDSN() string {
	if strings.HasPrefix(c.DatabaseURL, "postgres://") {
		return "postgresql://" + strings.TrimPrefix(c.DatabaseURL, "postgres://")
	}
	return c.DatabaseURL
}

// RedisAddr returns the Redis address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// GuildSlug returns the guild name in API slug form (lowercase, dashes)
func (c *Config) GuildSlug() string {
	return slugify(c.GuildName)
}

// RealmSlug returns the realm name in API slug form
func (c *Config) RealmSlug() string {
	return slugify(c.GuildRealm)
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "'", "")
	return strings.ReplaceAll(s, " ", "-")
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// MustLoad loads configuration or exits on error
// Use this in main() where we want to fail fast
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
