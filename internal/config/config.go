/*-------------------------------------------------------------------------
 *
 * config.go
 *    Configuration management for DataGrub
 *
 * Provides server configuration loaded from a YAML file with environment
 * variable overrides.
 *
 * Copyright (c) 2024-2026, opencircle, Inc. <dev@opencircle.dev>
 *
 * IDENTIFICATION
 *    internal/config/config.go
 *
 *-------------------------------------------------------------------------
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Logging    LoggingConfig    `yaml:"logging"`
	Judge      JudgeConfig      `yaml:"judge"`
	Evaluation EvaluationConfig `yaml:"evaluation"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

type RedisConfig struct {
	/* Empty Addr disables the catalog cache */
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type JudgeConfig struct {
	Model       string        `yaml:"model"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
	APIKeyEnv   string        `yaml:"api_key_env"`
}

type EvaluationConfig struct {
	/* AdapterTimeout bounds a single adapter call; 0 disables the bound */
	AdapterTimeout  time.Duration `yaml:"adapter_timeout"`
	OpenAIAPIKeyEnv string        `yaml:"openai_api_key_env"`
	SecretPrefix    string        `yaml:"secret_prefix"`
}

/* DefaultConfig returns the default configuration */
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    300 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "datagrub",
			Database:        "datagrub",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			ConnMaxIdleTime: 10 * time.Minute,
		},
		Redis: RedisConfig{
			TTL: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Judge: JudgeConfig{
			Model:       "claude-sonnet-4-20250514",
			Temperature: 0.0,
			MaxTokens:   4096,
			Timeout:     120 * time.Second,
			APIKeyEnv:   "ANTHROPIC_API_KEY",
		},
		Evaluation: EvaluationConfig{
			AdapterTimeout:  60 * time.Second,
			OpenAIAPIKeyEnv: "OPENAI_API_KEY",
			SecretPrefix:    "DATAGRUB_SECRET_",
		},
	}
}

/* LoadConfig loads configuration from a YAML file on top of the defaults */
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	LoadFromEnv(cfg)
	return cfg, nil
}

/* LoadFromEnv overrides configuration from environment variables */
func LoadFromEnv(cfg *Config) {
	setString(&cfg.Server.Host, "DATAGRUB_SERVER_HOST")
	setInt(&cfg.Server.Port, "DATAGRUB_SERVER_PORT")
	setString(&cfg.Database.Host, "DATAGRUB_DB_HOST")
	setInt(&cfg.Database.Port, "DATAGRUB_DB_PORT")
	setString(&cfg.Database.User, "DATAGRUB_DB_USER")
	setString(&cfg.Database.Password, "DATAGRUB_DB_PASSWORD")
	setString(&cfg.Database.Database, "DATAGRUB_DB_NAME")
	setString(&cfg.Database.SSLMode, "DATAGRUB_DB_SSLMODE")
	setString(&cfg.Redis.Addr, "DATAGRUB_REDIS_ADDR")
	setString(&cfg.Redis.Password, "DATAGRUB_REDIS_PASSWORD")
	setString(&cfg.Logging.Level, "DATAGRUB_LOG_LEVEL")
	setString(&cfg.Logging.Format, "DATAGRUB_LOG_FORMAT")
	setString(&cfg.Judge.Model, "DATAGRUB_JUDGE_MODEL")
	setDuration(&cfg.Evaluation.AdapterTimeout, "DATAGRUB_ADAPTER_TIMEOUT")
}

/* ConnString builds a libpq connection string */
func (c *DatabaseConfig) ConnString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
