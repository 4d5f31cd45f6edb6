package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg, _ := Load("")
	cfg.Controller.ClusterIDs = []string{"clusterId"}
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "resource-autoscaler", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Mode)
	assert.Equal(t, 30*time.Second, cfg.Controller.SampleInterval)
	assert.Equal(t, 5*time.Minute, cfg.Controller.RefreshInterval)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 8080, cfg.API.Port)
	assert.Equal(t, 5, cfg.Cluster.CircuitBreaker.MaxFailures)
	assert.True(t, cfg.Database.Enabled)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults with cluster id", func(c *Config) {}, false},
		{"no cluster ids", func(c *Config) { c.Controller.ClusterIDs = nil }, true},
		{"missing app name", func(c *Config) { c.App.Name = "" }, true},
		{"bad mode", func(c *Config) { c.App.Mode = "staging" }, true},
		{"bad log level", func(c *Config) { c.App.LogLevel = "trace" }, true},
		{"zero sample interval", func(c *Config) { c.Controller.SampleInterval = 0 }, true},
		{"zero refresh interval", func(c *Config) { c.Controller.RefreshInterval = 0 }, true},
		{
			"request timeout exceeds sample interval",
			func(c *Config) { c.Controller.RequestTimeout = c.Controller.SampleInterval + time.Second },
			true,
		},
		{"missing cluster endpoint", func(c *Config) { c.Cluster.Endpoint = "" }, true},
		{"missing provisioner endpoint", func(c *Config) { c.Provisioner.Endpoint = "" }, true},
		{"bad api port", func(c *Config) { c.API.Port = 0 }, true},
		{
			"default jwt secret in production",
			func(c *Config) { c.App.Mode = "production"; c.API.OperatorKey = "key" },
			true,
		},
		{
			"missing operator key in production",
			func(c *Config) { c.App.Mode = "production"; c.API.JWTSecret = "real-secret" },
			true,
		},
		{
			"database validation skipped when disabled",
			func(c *Config) { c.Database.Enabled = false; c.Database.Host = "" },
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db.internal",
		Port:     5432,
		Name:     "autoscaler",
		User:     "admin",
		Password: "secret",
	}

	assert.Equal(t,
		"host=db.internal port=5432 user=admin password=secret dbname=autoscaler sslmode=disable",
		cfg.DSN(),
	)
}
