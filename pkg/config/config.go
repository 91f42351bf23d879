// Package config loads and validates harvester configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config captures all harvester configuration knobs.
type Config struct {
	Mongo   MongoConfig   `mapstructure:"mongo"`
	Fetch   FetchConfig   `mapstructure:"fetch"`
	Wanted  WantedConfig  `mapstructure:"wanted"`
	Korea   KoreaConfig   `mapstructure:"jobkorea"`
	Ops     OpsConfig     `mapstructure:"ops"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// MongoConfig controls access to the document store.
type MongoConfig struct {
	URI                   string `mapstructure:"uri"`
	Database              string `mapstructure:"database"`
	LogCollection         string `mapstructure:"log_collection"`
	JobsCollection        string `mapstructure:"jobs_collection"`
	CompanyCollection     string `mapstructure:"company_collection"`
	CoverLetterCollection string `mapstructure:"cover_letter_collection"`
	TimeoutSeconds        int    `mapstructure:"timeout_seconds"`
}

// FetchConfig governs the shared HTTP fetch behavior.
type FetchConfig struct {
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	DelaySeconds   int    `mapstructure:"delay_seconds"`
	Parallelism    int    `mapstructure:"parallelism"`
}

// WantedConfig holds the Wanted site endpoints.
type WantedConfig struct {
	BaseURL string `mapstructure:"base_url"`
	JobSort string `mapstructure:"job_sort"`
}

// KoreaConfig holds the JobKorea site endpoints.
type KoreaConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// OpsConfig controls the operational HTTP server.
type OpsConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk and environment. A .env file in the
// working directory is folded into the environment first, best effort.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("HARVESTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "wanted_db")
	v.SetDefault("mongo.log_collection", "master_crawler_logs")
	v.SetDefault("mongo.jobs_collection", "wanted_job_postings")
	v.SetDefault("mongo.company_collection", "wanted_company_profiles")
	v.SetDefault("mongo.cover_letter_collection", "jobkorea_cover_letters")
	v.SetDefault("mongo.timeout_seconds", 10)
	v.SetDefault("fetch.user_agent", "Mozilla/5.0 (compatible; harvester/0.1)")
	v.SetDefault("fetch.timeout_seconds", 15)
	v.SetDefault("fetch.delay_seconds", 1)
	v.SetDefault("fetch.parallelism", 1)
	v.SetDefault("wanted.base_url", "https://www.wanted.co.kr")
	v.SetDefault("wanted.job_sort", "job.latest_order")
	v.SetDefault("jobkorea.base_url", "https://www.jobkorea.co.kr")
	v.SetDefault("ops.port", 8080)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Mongo.URI == "" {
		return fmt.Errorf("mongo.uri must be set")
	}
	if c.Mongo.Database == "" {
		return fmt.Errorf("mongo.database must be set")
	}
	if c.Mongo.LogCollection == "" {
		return fmt.Errorf("mongo.log_collection must be set")
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch.timeout_seconds must be > 0")
	}
	if c.Ops.Port <= 0 {
		return fmt.Errorf("ops.port must be > 0")
	}
	return nil
}

// FetchTimeout converts the configured timeout into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// FetchDelay converts the configured per-request delay into a duration.
func (c Config) FetchDelay() time.Duration {
	return time.Duration(c.Fetch.DelaySeconds) * time.Second
}

// MongoTimeout converts the configured connect timeout into a duration.
func (c Config) MongoTimeout() time.Duration {
	return time.Duration(c.Mongo.TimeoutSeconds) * time.Second
}
