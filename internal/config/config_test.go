package config

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProductionConfig() *Config {
	return &Config{
		Env:              "production",
		Port:             "8080",
		JWTSecret:        "secure-secret-at-least-32-chars-long",
		DBPassword:       "secure-password",
		DBSSLMode:        "require",
		CronSecret:       "cron-secret",
		StorageDriver:    StorageDriverS3,
		StorageBucket:    "avatio",
		StoragePublicURL: "https://images.example.com",
		SweepGraceWindow: 24 * time.Hour,
	}
}

func TestConfig_ValidateProduction(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{"valid", func(*Config) {}, false},
		{"default jwt secret", func(c *Config) { c.JWTSecret = defaultJWTSecret }, true},
		{"short jwt secret", func(c *Config) { c.JWTSecret = "short" }, true},
		{"ssl disabled", func(c *Config) { c.DBSSLMode = "disable" }, true},
		{"missing cron secret", func(c *Config) { c.CronSecret = "" }, true},
		{"memory storage", func(c *Config) { c.StorageDriver = StorageDriverMemory }, true},
		{"missing public url", func(c *Config) { c.StoragePublicURL = "" }, true},
		{"unknown storage driver", func(c *Config) { c.StorageDriver = "ftp" }, true},
		{"negative grace window", func(c *Config) { c.SweepGraceWindow = -time.Minute }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validProductionConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateDevelopmentAllowsMemoryStorage(t *testing.T) {
	c := &Config{
		Env:           "development",
		Port:          "8375",
		JWTSecret:     "dev",
		StorageDriver: StorageDriverMemory,
	}
	assert.NoError(t, c.Validate())
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	defer viper.Reset()
	for k, v := range map[string]string{
		"APP_ENV":            "test",
		"STORAGE_DRIVER":     "  MEMORY ",
		"SWEEP_GRACE_WINDOW": "2h",
		"STORAGE_PUBLIC_URL": "http://cdn.local/media/",
	} {
		require.NoError(t, os.Setenv(k, v))
		defer os.Unsetenv(k)
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "test", cfg.Env)
	assert.Equal(t, StorageDriverMemory, cfg.StorageDriver)
	assert.Equal(t, 2*time.Hour, cfg.SweepGraceWindow)
	assert.Equal(t, "http://cdn.local/media", cfg.StoragePublicURL)
	assert.Equal(t, "8375", cfg.Port)
}
