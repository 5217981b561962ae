// Package config provides configuration management for the predictive punter.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database" validate:"-"`
	Predictor  PredictorConfig  `mapstructure:"predictor" validate:"required"`
	Value      ValueConfig      `mapstructure:"value" validate:"required"`
	Processing ProcessingConfig `mapstructure:"processing" validate:"required"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Health     HealthConfig     `mapstructure:"health"`
	Secrets    SecretsConfig    `mapstructure:"secrets"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration. It is only
// validated when processing uses the postgres store.
type DatabaseConfig struct {
	Host               string `mapstructure:"host" validate:"required"`
	Port               int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Name               string `mapstructure:"name" validate:"required"`
	User               string `mapstructure:"user" validate:"required"`
	Password           string `mapstructure:"password" validate:"required"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"required,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"required,gt=0"`
}

// PredictorConfig controls candidate generation and selection
type PredictorConfig struct {
	TestFraction  float64 `mapstructure:"test_fraction" validate:"required,gt=0,lt=1"`
	RandomSeed    uint64  `mapstructure:"random_seed"`
	SelectionMode string  `mapstructure:"selection_mode" validate:"required,selectionmode"`
	Grid          string  `mapstructure:"grid" validate:"required,oneof=full compact"`
	BlendMode     string  `mapstructure:"blend_mode" validate:"required,blendmode"`
}

// ValueConfig holds the minimum implied price per leg when valuing predictions
type ValueConfig struct {
	WinFloor    float64 `mapstructure:"win_floor" validate:"required,gt=0"`
	ExoticFloor float64 `mapstructure:"exotic_floor" validate:"required,gt=0"`
}

// ProcessingConfig controls the date processing harness
type ProcessingConfig struct {
	Workers         int    `mapstructure:"workers" validate:"required,gt=0"`
	SubmitRetries   int    `mapstructure:"submit_retries" validate:"gte=0"`
	SubmitBackoffMs int    `mapstructure:"submit_backoff_ms" validate:"required,gt=0"`
	QueueSize       int    `mapstructure:"queue_size" validate:"omitempty,gt=0"`
	BackupEnabled   bool   `mapstructure:"backup_enabled"`
	Store           string `mapstructure:"store" validate:"required,oneof=postgres memory"`
	FixturesPath    string `mapstructure:"fixtures_path"`
}

// SchedulerConfig represents the daily processing schedule used by serve
type SchedulerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Cron    string `mapstructure:"cron" validate:"required_if=Enabled true"`
	Command string `mapstructure:"command" validate:"omitempty,oneof=seed simulate predict"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required_if=Enabled true"`
}

// HealthConfig represents the health server configuration
type HealthConfig struct {
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
}

// SecretsConfig enables the AWS Secrets Manager overlay
type SecretsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Region     string `mapstructure:"region" validate:"required_if=Enabled true"`
	SecretName string `mapstructure:"secret_name" validate:"required_if=Enabled true"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// UsesPostgres reports whether processing reads and writes PostgreSQL
func (c *Config) UsesPostgres() bool {
	return c.Processing.Store == "postgres"
}

// SubmitBackoff returns the fixed delay between saturated submissions
func (c *Config) SubmitBackoff() time.Duration {
	return time.Duration(c.Processing.SubmitBackoffMs) * time.Millisecond
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
