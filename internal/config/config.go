// Package config loads service configuration from the environment.
// An optional .env file in the working directory is read first.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Database holds PostgreSQL connection settings. URL wins over the
// individual fields when set.
type Database struct {
	URL      string `envconfig:"DATABASE_URL"`
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD" default:"postgres"`
	Name     string `envconfig:"DB_NAME" default:"ewm"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	MaxConns int32  `envconfig:"DB_MAX_CONNS" default:"20"`
}

// DSN builds a libpq-compatible connection string.
func (c Database) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Log configures the logrus logger.
type Log struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"text"`
}

// Main is the configuration of the main service.
type Main struct {
	Port     string   `envconfig:"PORT" default:"8080"`
	AppName  string   `envconfig:"APP_NAME" default:"ewm-main-service"`
	Database Database `ignored:"true"`
	Log      Log      `ignored:"true"`

	StatsURL     string        `envconfig:"STATS_URL" default:"http://localhost:9090"`
	StatsTimeout time.Duration `envconfig:"STATS_TIMEOUT" default:"2s"`

	// RedisURL enables the view-count cache when set.
	RedisURL      string        `envconfig:"REDIS_URL"`
	ViewsCacheTTL time.Duration `envconfig:"VIEWS_CACHE_TTL" default:"30s"`

	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// Stats is the configuration of the statistics service.
type Stats struct {
	Port string `envconfig:"PORT" default:"9090"`
	DSN  string `envconfig:"STATS_DATABASE_DSN" default:"host=localhost port=5432 user=postgres password=postgres dbname=stats sslmode=disable"`
	Log  Log    `ignored:"true"`

	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// LoadMain reads the main service configuration.
func LoadMain() (Main, error) {
	var c Main
	err := load(&c, &c.Database, &c.Log)
	return c, err
}

// LoadStats reads the statistics service configuration.
func LoadStats() (Stats, error) {
	var c Stats
	err := load(&c, &c.Log)
	return c, err
}

// load fills each section from unprefixed variables. Nested sections are
// processed on their own so their keys stay unprefixed too.
func load(sections ...any) error {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()
	for _, s := range sections {
		if err := envconfig.Process("", s); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	return nil
}
