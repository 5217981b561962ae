// Package config provides configuration management for the predictive punter.
package config

import (
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	validConfigPath       = "testdata/valid_config.yaml"
	expansionConfigPath   = "testdata/expansion_config.yaml"
	nonexistentConfigPath = "testdata/nonexistent_config.yaml"
)

func loadValid(t *testing.T) *Config {
	t.Helper()
	cfg, err := Load(validConfigPath)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	return cfg
}

// TestLoadConfigSuccess tests loading a valid configuration file
func TestLoadConfigSuccess(t *testing.T) {
	cfg := loadValid(t)

	assert.Equal(t, "predictive-punter", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 0.25, cfg.Predictor.TestFraction)
	assert.Equal(t, uint64(1), cfg.Predictor.RandomSeed)
	assert.Equal(t, "compact", cfg.Predictor.Grid)
	assert.True(t, cfg.Processing.BackupEnabled)
	assert.Equal(t, 50, cfg.Processing.SubmitBackoffMs)
	assert.Equal(t, "50ms", cfg.SubmitBackoff().String())
	assert.True(t, cfg.UsesPostgres())
	assert.True(t, strings.HasPrefix(cfg.GetDatabaseDSN(), "postgres://"))

	require.NoError(t, Validate(cfg))
}

// TestLoadConfigFileNotFound tests handling of missing configuration file
func TestLoadConfigFileNotFound(t *testing.T) {
	_, err := Load(nonexistentConfigPath)
	assert.Error(t, err)
}

// TestLoadConfigEnvironmentVariables tests environment variable override
func TestLoadConfigEnvironmentVariables(t *testing.T) {
	t.Setenv("PREDICTIVE_PUNTER_APP_NAME", "test-app")
	t.Setenv("PREDICTIVE_PUNTER_PROCESSING_WORKERS", "9")

	cfg := loadValid(t)

	assert.Equal(t, "test-app", cfg.App.Name)
	assert.Equal(t, 9, cfg.Processing.Workers)
}

// TestLoadConfigExpansion tests ${VAR} placeholders in the YAML file
func TestLoadConfigExpansion(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "expanded_secret_value")
	t.Setenv("TEST_FIXTURES_PATH", "/tmp/fixtures.json")

	cfg, err := Load(expansionConfigPath)
	require.NoError(t, err)

	assert.Equal(t, "expanded_secret_value", cfg.Database.Password)
	assert.Equal(t, "/tmp/fixtures.json", cfg.Processing.FixturesPath)
	assert.Equal(t, "best", cfg.Predictor.SelectionMode)
	assert.Equal(t, "consensus", cfg.Predictor.BlendMode)
	assert.False(t, cfg.UsesPostgres())
	require.NoError(t, Validate(cfg))
}

// TestLoadWithDefaults tests that a missing file falls back to defaults
func TestLoadWithDefaults(t *testing.T) {
	cfg, err := LoadWithDefaults(nonexistentConfigPath)
	require.NoError(t, err)

	assert.Equal(t, "predictive-punter", cfg.App.Name)
	assert.Equal(t, 0.25, cfg.Predictor.TestFraction)
	assert.Equal(t, "all", cfg.Predictor.SelectionMode)
	assert.Equal(t, 2.0, cfg.Value.WinFloor)
	assert.Equal(t, 4, cfg.Processing.Workers)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)

	// the default postgres store has no password
	err = Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Password")

	t.Setenv("PREDICTIVE_PUNTER_PROCESSING_STORE", "memory")
	cfg, err = LoadWithDefaults(nonexistentConfigPath)
	require.NoError(t, err)
	assert.NoError(t, Validate(cfg))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "invalid environment",
			mutate:  func(c *Config) { c.App.Environment = "invalid" },
			wantErr: "development, staging, production",
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.App.LogLevel = "verbose" },
			wantErr: "debug, info, warn, error",
		},
		{
			name:    "invalid selection mode",
			mutate:  func(c *Config) { c.Predictor.SelectionMode = "worst" },
			wantErr: "all, best",
		},
		{
			name:    "invalid blend mode",
			mutate:  func(c *Config) { c.Predictor.BlendMode = "average" },
			wantErr: "per_predictor, consensus",
		},
		{
			name:    "test fraction out of range",
			mutate:  func(c *Config) { c.Predictor.TestFraction = 1.5 },
			wantErr: "TestFraction",
		},
		{
			name:    "unknown store",
			mutate:  func(c *Config) { c.Processing.Store = "sqlite" },
			wantErr: "Store",
		},
		{
			name:    "idle exceeds max connections",
			mutate:  func(c *Config) { c.Database.MaxIdleConnections = 20 },
			wantErr: "max_idle_connections",
		},
		{
			name: "production requires ssl",
			mutate: func(c *Config) {
				c.App.Environment = "production"
				c.Database.SSLMode = "disable"
			},
			wantErr: "SSL",
		},
		{
			name:    "fewer connections than workers",
			mutate:  func(c *Config) { c.Processing.Workers = 20 },
			wantErr: "processing.workers",
		},
		{
			name: "secrets need a region",
			mutate: func(c *Config) {
				c.Secrets.Enabled = true
				c.Secrets.SecretName = "punter/db"
			},
			wantErr: "Region",
		},
		{
			name:    "scheduler command",
			mutate:  func(c *Config) { c.Scheduler.Command = "backtest" },
			wantErr: "Command",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := loadValid(t)
			tt.mutate(cfg)

			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_MemoryStoreSkipsDatabase(t *testing.T) {
	cfg := loadValid(t)
	cfg.Processing.Store = "memory"
	cfg.Database = DatabaseConfig{}

	assert.NoError(t, Validate(cfg))
}

func TestParseSecretData(t *testing.T) {
	t.Run("string", func(t *testing.T) {
		secrets, err := parseSecretData(&secretsmanager.GetSecretValueOutput{
			SecretString: aws.String(`{"database_password":"pw","database_user":"svc"}`),
		})
		require.NoError(t, err)
		assert.Equal(t, "pw", secrets.DatabasePassword)
		assert.Equal(t, "svc", secrets.DatabaseUser)
	})

	t.Run("binary", func(t *testing.T) {
		secrets, err := parseSecretData(&secretsmanager.GetSecretValueOutput{
			SecretBinary: []byte(`{"database_password":"pw"}`),
		})
		require.NoError(t, err)
		assert.Equal(t, "pw", secrets.DatabasePassword)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := parseSecretData(&secretsmanager.GetSecretValueOutput{})
		assert.ErrorIs(t, err, errNoSecretDataFound)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := parseSecretData(&secretsmanager.GetSecretValueOutput{SecretString: aws.String("{")})
		assert.Error(t, err)
	})
}

func TestOverlaySecretsOnConfig(t *testing.T) {
	cfg := loadValid(t)

	overlaySecretsOnConfig(cfg, &SecretsOverlay{DatabasePassword: "from-aws"})

	assert.Equal(t, "from-aws", cfg.Database.Password)
	assert.Equal(t, "punter", cfg.Database.User)
}
