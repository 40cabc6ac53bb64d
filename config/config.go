// Package config loads server and CLI configuration.
//
// Values come from, in increasing precedence: built-in defaults, an optional
// YAML file, and KEYSTONE_* environment variables (KEYSTONE_SERVER_PORT,
// KEYSTONE_SCORING_MVD_THRESHOLD, ...). The result is validated before use.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/keystone/habit-engine/calendar"
	"github.com/keystone/habit-engine/logger"
	"github.com/keystone/habit-engine/scoring"
)

// EnvPrefix is the prefix of every configuration environment variable.
const EnvPrefix = "KEYSTONE"

var validate = validator.New()

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Log       LogConfig       `mapstructure:"log"`
	Scoring   ScoringConfig   `mapstructure:"scoring"`
	Calendar  CalendarConfig  `mapstructure:"calendar"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Backup    BackupConfig    `mapstructure:"backup"`
}

type ServerConfig struct {
	Port        int      `mapstructure:"port" validate:"gt=0,lt=65536"`
	CORSOrigins []string `mapstructure:"cors_origins" validate:"dive,required"`
}

type StorageConfig struct {
	DBPath string `mapstructure:"db_path" validate:"required"`
}

type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Dir   string `mapstructure:"dir"`
	Debug bool   `mapstructure:"debug"`
}

// ScoringConfig carries the classification thresholds, in percent.
type ScoringConfig struct {
	MVDThreshold    int `mapstructure:"mvd_threshold" validate:"gt=0,ltfield=StrongThreshold"`
	StrongThreshold int `mapstructure:"strong_threshold" validate:"lt=100"`
}

// Thresholds converts the configured values for the engine.
func (c ScoringConfig) Thresholds() scoring.Thresholds {
	return scoring.Thresholds{MVD: c.MVDThreshold, Strong: c.StrongThreshold}
}

// CalendarConfig selects the location that decides what "today" is.
type CalendarConfig struct {
	Timezone string `mapstructure:"timezone" validate:"required"`
}

// Location resolves the configured timezone.
func (c CalendarConfig) Location() (*time.Location, error) {
	return calendar.LoadLocation(c.Timezone)
}

type SchedulerConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	CheckInterval time.Duration `mapstructure:"check_interval" validate:"gte=1s"`
}

type BackupConfig struct {
	Dir        string `mapstructure:"dir" validate:"required"`
	OnRollover bool   `mapstructure:"on_rollover"`
}

// Load reads configuration from configPath (optional) and the environment.
// An empty configPath searches ./keystone.yaml and ./config/keystone.yaml;
// a missing file there is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("keystone")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		logger.Debug("no config file found, using defaults")
	} else {
		logger.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks struct constraints, the thresholds and the timezone.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := c.Scoring.Thresholds().Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.Calendar.Location(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000", "http://localhost:5173"})

	v.SetDefault("storage.db_path", "./data/keystone.db")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.dir", "./data/logs")
	v.SetDefault("log.debug", false)

	v.SetDefault("scoring.mvd_threshold", scoring.DefaultMVDThreshold)
	v.SetDefault("scoring.strong_threshold", scoring.DefaultStrongThreshold)

	v.SetDefault("calendar.timezone", "Local")

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.check_interval", time.Minute)

	v.SetDefault("backup.dir", "./data/backups")
	v.SetDefault("backup.on_rollover", true)
}
