package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/lisanmuaddib/tweetbook/pkg/db"
	"github.com/lisanmuaddib/tweetbook/pkg/docsearch"
	"github.com/lisanmuaddib/tweetbook/pkg/docstore"
	"github.com/lisanmuaddib/tweetbook/pkg/logging"
	"github.com/lisanmuaddib/tweetbook/pkg/search"
)

// EnvPrefix prefixes every environment override, e.g. TWEETBOOK_DATABASE_DRIVER.
const EnvPrefix = "TWEETBOOK"

// Config holds all configuration for the application
type Config struct {
	Log            LogConfig            `mapstructure:"log" yaml:"log"`
	Database       DatabaseConfig       `mapstructure:"database" yaml:"database"`
	Mongo          MongoConfig          `mapstructure:"mongo" yaml:"mongo"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker" yaml:"circuit_breaker"`
	Search         SearchConfig         `mapstructure:"search" yaml:"search"`
	Loader         LoaderConfig         `mapstructure:"loader" yaml:"loader"`
	Server         ServerConfig         `mapstructure:"server" yaml:"server"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// DatabaseConfig holds the relational backend settings
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver" yaml:"driver"` // sqlite, postgres
	DSN      string `mapstructure:"dsn" yaml:"dsn"`
	Path     string `mapstructure:"path" yaml:"path"`
	Host     string `mapstructure:"host" yaml:"host"`
	Port     string `mapstructure:"port" yaml:"port"`
	User     string `mapstructure:"user" yaml:"user"`
	Password string `mapstructure:"password" yaml:"password"`
	Name     string `mapstructure:"name" yaml:"name"`
	SSLMode  string `mapstructure:"sslmode" yaml:"sslmode"`
	SlowMS   int    `mapstructure:"slow_ms" yaml:"slow_ms"`
}

// MongoConfig holds the document store settings
type MongoConfig struct {
	URI             string `mapstructure:"uri" yaml:"uri"`
	Database        string `mapstructure:"database" yaml:"database"`
	Collection      string `mapstructure:"collection" yaml:"collection"`
	Timeout         int    `mapstructure:"timeout" yaml:"timeout"` // in seconds
	ComposeUsername string `mapstructure:"compose_username" yaml:"compose_username"`
}

// CircuitBreakerConfig holds configuration for circuit breaking
type CircuitBreakerConfig struct {
	Enabled          bool    `mapstructure:"enabled" yaml:"enabled"`
	MaxRequests      uint32  `mapstructure:"max_requests" yaml:"max_requests"`
	MinRequests      uint32  `mapstructure:"min_requests" yaml:"min_requests"`
	Interval         int     `mapstructure:"interval" yaml:"interval"` // in seconds
	Timeout          int     `mapstructure:"timeout" yaml:"timeout"`   // in seconds
	ReadyToTripRatio float64 `mapstructure:"ready_to_trip_ratio" yaml:"ready_to_trip_ratio"`
}

// SearchConfig holds the per-term page sizes of tweet search
type SearchConfig struct {
	HashtagPageSize int `mapstructure:"hashtag_page_size" yaml:"hashtag_page_size"`
	TextPageSize    int `mapstructure:"text_page_size" yaml:"text_page_size"`
}

// LoaderConfig holds bulk load settings
type LoaderConfig struct {
	BatchSize        int     `mapstructure:"batch_size" yaml:"batch_size"`
	BatchesPerSecond float64 `mapstructure:"batches_per_second" yaml:"batches_per_second"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
	Mode string `mapstructure:"mode" yaml:"mode"` // gin mode: debug, release, test
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log: LogConfig{Level: "info", Format: logging.FormatColor},
		Database: DatabaseConfig{
			Driver: db.DriverSQLite,
			Path:   "./tweetbook.db",
			Port:   "5432",
			SlowMS: 200,
		},
		Mongo: MongoConfig{
			URI:             "mongodb://localhost:27017",
			Database:        "291db",
			Collection:      "tweets",
			Timeout:         10,
			ComposeUsername: docsearch.DefaultComposeUsername,
		},
		CircuitBreaker: CircuitBreakerConfig{
			Enabled:          true,
			MaxRequests:      1,
			MinRequests:      3,
			Interval:         60,
			Timeout:          30,
			ReadyToTripRatio: 0.6,
		},
		Search: SearchConfig{
			HashtagPageSize: search.DefaultOptions().HashtagPageSize,
			TextPageSize:    search.DefaultOptions().TextPageSize,
		},
		Loader: LoaderConfig{
			BatchSize: docstore.DefaultBatchSize,
		},
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
			Mode: "release",
		},
	}
}

// legacyEnv maps keys to the unprefixed variables also honored for them.
var legacyEnv = map[string]string{
	"log.level":         "LOG_LEVEL",
	"database.host":     "DB_HOST",
	"database.port":     "DB_PORT",
	"database.user":     "DB_USER",
	"database.password": "DB_PASSWORD",
	"database.name":     "DB_NAME",
	"mongo.uri":         "MONGO_URI",
}

// Load merges defaults, the config file already set on v (if any) and the
// environment, then validates the result.
func Load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every field of Default so that environment
// variables can override keys absent from the config file.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.dsn", d.Database.DSN)
	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("database.host", d.Database.Host)
	v.SetDefault("database.port", d.Database.Port)
	v.SetDefault("database.user", d.Database.User)
	v.SetDefault("database.password", d.Database.Password)
	v.SetDefault("database.name", d.Database.Name)
	v.SetDefault("database.sslmode", d.Database.SSLMode)
	v.SetDefault("database.slow_ms", d.Database.SlowMS)

	v.SetDefault("mongo.uri", d.Mongo.URI)
	v.SetDefault("mongo.database", d.Mongo.Database)
	v.SetDefault("mongo.collection", d.Mongo.Collection)
	v.SetDefault("mongo.timeout", d.Mongo.Timeout)
	v.SetDefault("mongo.compose_username", d.Mongo.ComposeUsername)

	v.SetDefault("circuit_breaker.enabled", d.CircuitBreaker.Enabled)
	v.SetDefault("circuit_breaker.max_requests", d.CircuitBreaker.MaxRequests)
	v.SetDefault("circuit_breaker.min_requests", d.CircuitBreaker.MinRequests)
	v.SetDefault("circuit_breaker.interval", d.CircuitBreaker.Interval)
	v.SetDefault("circuit_breaker.timeout", d.CircuitBreaker.Timeout)
	v.SetDefault("circuit_breaker.ready_to_trip_ratio", d.CircuitBreaker.ReadyToTripRatio)

	v.SetDefault("search.hashtag_page_size", d.Search.HashtagPageSize)
	v.SetDefault("search.text_page_size", d.Search.TextPageSize)

	v.SetDefault("loader.batch_size", d.Loader.BatchSize)
	v.SetDefault("loader.batches_per_second", d.Loader.BatchesPerSecond)

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.mode", d.Server.Mode)
}

// Validate checks the sections every command relies on. Backend specific
// checks run when the backend is opened.
func (c *Config) Validate() error {
	if c.Search.HashtagPageSize < 1 || c.Search.TextPageSize < 1 {
		return fmt.Errorf("search page sizes must be positive")
	}
	if c.Loader.BatchSize < 1 {
		return fmt.Errorf("loader batch size must be positive")
	}
	if c.CircuitBreaker.ReadyToTripRatio < 0 || c.CircuitBreaker.ReadyToTripRatio > 1 {
		return fmt.Errorf("circuit breaker ratio must be between 0 and 1")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	return nil
}

// DB returns the relational store config.
func (c *Config) DB() db.Config {
	return db.Config{
		Driver:        c.Database.Driver,
		DSN:           c.Database.DSN,
		Path:          c.Database.Path,
		Host:          c.Database.Host,
		Port:          c.Database.Port,
		User:          c.Database.User,
		Password:      c.Database.Password,
		Name:          c.Database.Name,
		SSLMode:       c.Database.SSLMode,
		SlowThreshold: time.Duration(c.Database.SlowMS) * time.Millisecond,
	}
}

// Docstore returns the document store connection config.
func (c *Config) Docstore() docstore.Config {
	return docstore.Config{
		URI:        c.Mongo.URI,
		Database:   c.Mongo.Database,
		Collection: c.Mongo.Collection,
		Timeout:    time.Duration(c.Mongo.Timeout) * time.Second,
	}
}

// Breaker returns the circuit breaker settings.
func (c *Config) Breaker() docstore.BreakerConfig {
	return docstore.BreakerConfig{
		Enabled:          c.CircuitBreaker.Enabled,
		MaxRequests:      c.CircuitBreaker.MaxRequests,
		MinRequests:      c.CircuitBreaker.MinRequests,
		Interval:         time.Duration(c.CircuitBreaker.Interval) * time.Second,
		Timeout:          time.Duration(c.CircuitBreaker.Timeout) * time.Second,
		ReadyToTripRatio: c.CircuitBreaker.ReadyToTripRatio,
	}
}

// SearchOptions returns the relational search page sizes.
func (c *Config) SearchOptions() search.Options {
	return search.Options{
		HashtagPageSize: c.Search.HashtagPageSize,
		TextPageSize:    c.Search.TextPageSize,
	}
}

// Logging returns the logger settings.
func (c *Config) Logging() logging.Config {
	return logging.Config{Level: c.Log.Level, Format: c.Log.Format}
}

// Save writes YAML config to path, creating directories as needed.
func Save(path string, cfg Config) error {
	if path == "" {
		return errors.New("empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
