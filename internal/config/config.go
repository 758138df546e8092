/**
 * @description
 * Configuration management for the PayID server. Values come from environment
 * variables, optionally seeded from a .env file in the given path.
 */
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

var versionPattern = regexp.MustCompile(`^\d+\.\d+$`)

// Config holds all configuration for the application.
type Config struct {
	ServerPort               string `mapstructure:"SERVER_PORT"`
	AdminPort                string `mapstructure:"ADMIN_PORT"`
	DatabaseURL              string `mapstructure:"DATABASE_URL"`
	RedisURL                 string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix     string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	LookupRateLimitPerMinute int    `mapstructure:"LOOKUP_RATE_LIMIT_PER_MINUTE"`
	RabbitMQURL              string `mapstructure:"RABBITMQ_URL"`
	EventsExchange           string `mapstructure:"EVENTS_EXCHANGE"`
	InternalAPIKey           string `mapstructure:"INTERNAL_API_KEY"`
	PayIDVersion             string `mapstructure:"PAYID_VERSION"`
	MetricsRefreshSchedule   string `mapstructure:"METRICS_REFRESH_SCHEDULE"`
	LogLevel                 string `mapstructure:"LOG_LEVEL"`
	LogFormat                string `mapstructure:"LOG_FORMAT"`
}

// LoadConfig reads configuration from environment variables and an optional .env in path.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("ADMIN_PORT", "8081")
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "payid:rate_limit")
	viper.SetDefault("LOOKUP_RATE_LIMIT_PER_MINUTE", 600)
	viper.SetDefault("EVENTS_EXCHANGE", "payid.events")
	viper.SetDefault("PAYID_VERSION", "1.1")
	viper.SetDefault("METRICS_REFRESH_SCHEDULE", "@every 1m")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")

	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("ADMIN_PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("LOOKUP_RATE_LIMIT_PER_MINUTE")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("EVENTS_EXCHANGE")
	_ = viper.BindEnv("INTERNAL_API_KEY")
	_ = viper.BindEnv("PAYID_VERSION")
	_ = viper.BindEnv("METRICS_REFRESH_SCHEDULE")
	_ = viper.BindEnv("LOG_LEVEL")
	_ = viper.BindEnv("LOG_FORMAT")

	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("failed to read config file; using environment values", "error", err)
		}
		err = nil
	}

	if err = viper.Unmarshal(&config); err != nil {
		return
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}
	config.DatabaseURL = strings.TrimSpace(config.DatabaseURL)
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RabbitMQURL = strings.TrimSpace(config.RabbitMQURL)
	config.InternalAPIKey = strings.TrimSpace(config.InternalAPIKey)
	config.PayIDVersion = strings.TrimSpace(config.PayIDVersion)

	config.RedisRateLimitPrefix = strings.TrimSpace(config.RedisRateLimitPrefix)
	if config.RedisRateLimitPrefix == "" {
		config.RedisRateLimitPrefix = "payid:rate_limit"
	}
	if config.LookupRateLimitPerMinute < 0 {
		config.LookupRateLimitPerMinute = 0
	}

	if config.DatabaseURL == "" {
		return config, errors.New("DATABASE_URL must be configured")
	}
	if !versionPattern.MatchString(config.PayIDVersion) {
		return config, fmt.Errorf("PAYID_VERSION %q must be of the form major.minor", config.PayIDVersion)
	}
	if config.ServerPort == config.AdminPort {
		return config, fmt.Errorf("SERVER_PORT and ADMIN_PORT must differ (both %s)", config.ServerPort)
	}
	return
}
