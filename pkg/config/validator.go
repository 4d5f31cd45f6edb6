package config

import (
	"errors"
	"fmt"
)

func (c *Config) Validate() error {
	var errs []error

	// App validation
	if c.App.Name == "" {
		errs = append(errs, errors.New("app.name is required"))
	}

	validModes := map[string]bool{"development": true, "production": true, "test": true}
	if !validModes[c.App.Mode] {
		errs = append(errs, fmt.Errorf("app.mode must be one of: development, production, test"))
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.App.LogLevel] {
		errs = append(errs, fmt.Errorf("app.log_level must be one of: debug, info, warn, error"))
	}

	// Database validation
	if c.Database.Enabled {
		if c.Database.Host == "" {
			errs = append(errs, errors.New("database.host is required"))
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, errors.New("database.port must be between 1 and 65535"))
		}
		if c.Database.Name == "" {
			errs = append(errs, errors.New("database.name is required"))
		}
		if c.Database.MaxConnections <= 0 {
			errs = append(errs, errors.New("database.max_connections must be positive"))
		}
	}

	// Controller validation
	if len(c.Controller.ClusterIDs) == 0 {
		errs = append(errs, errors.New("controller.cluster_ids must name at least one cluster"))
	}
	if c.Controller.SampleInterval <= 0 {
		errs = append(errs, errors.New("controller.sample_interval must be positive"))
	}
	if c.Controller.RefreshInterval <= 0 {
		errs = append(errs, errors.New("controller.refresh_interval must be positive"))
	}
	if c.Controller.RequestTimeout > c.Controller.SampleInterval {
		errs = append(errs, errors.New("controller.request_timeout must not exceed controller.sample_interval"))
	}

	// Cluster client validation
	if c.Cluster.Endpoint == "" {
		errs = append(errs, errors.New("cluster.endpoint is required"))
	}
	if c.Cluster.Timeout <= 0 {
		errs = append(errs, errors.New("cluster.timeout must be positive"))
	}

	// Provisioner validation
	if c.Provisioner.Endpoint == "" {
		errs = append(errs, errors.New("provisioner.endpoint is required"))
	}

	// API validation
	if c.API.Port <= 0 || c.API.Port > 65535 {
		errs = append(errs, errors.New("api.port must be between 1 and 65535"))
	}
	if c.App.Mode == "production" && c.API.JWTSecret == "change-me-in-production" {
		errs = append(errs, errors.New("api.jwt_secret must be changed in production"))
	}
	if c.App.Mode == "production" && c.API.OperatorKey == "" {
		errs = append(errs, errors.New("api.operator_key is required in production"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %v", errs)
	}

	return nil
}
