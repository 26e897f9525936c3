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

	// API validation
	if c.API.Port <= 0 || c.API.Port > 65535 {
		errs = append(errs, errors.New("api.port must be between 1 and 65535"))
	}
	if c.API.RateLimit < 0 {
		errs = append(errs, errors.New("api.rate_limit must not be negative"))
	}
	if c.App.Mode == "production" && c.API.JWTSecret == "change-me-in-production" {
		errs = append(errs, errors.New("api.jwt_secret must be changed in production"))
	}

	// Artifact validation
	if c.Artifacts.ScalerPath == "" {
		errs = append(errs, errors.New("artifacts.scaler_path is required"))
	}
	if c.Artifacts.ClassifierPath == "" {
		errs = append(errs, errors.New("artifacts.classifier_path is required"))
	}

	// Dataset validation
	switch c.Datasets.Source {
	case "csv":
		if c.Datasets.SeasonalPath == "" {
			errs = append(errs, errors.New("datasets.seasonal_path is required for csv source"))
		}
		if c.Datasets.DistrictPath == "" {
			errs = append(errs, errors.New("datasets.district_path is required for csv source"))
		}
	case "postgres":
		if !c.Database.Enabled {
			errs = append(errs, errors.New("datasets.source postgres requires database.enabled"))
		}
	default:
		errs = append(errs, errors.New("datasets.source must be one of: csv, postgres"))
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

	// Forecast validation
	if c.Forecast.OnMiss != "compute" && c.Forecast.OnMiss != "fallback" {
		errs = append(errs, errors.New("forecast.on_miss must be one of: compute, fallback"))
	}
	if c.Forecast.TTL <= 0 {
		errs = append(errs, errors.New("forecast.ttl must be positive"))
	}
	errs = append(errs, c.Forecast.Seasonal.validate("forecast.seasonal")...)
	errs = append(errs, c.Forecast.Demand.validate("forecast.demand")...)

	// Scheduler validation
	if c.Scheduler.Enabled {
		if c.Scheduler.Interval <= 0 {
			errs = append(errs, errors.New("scheduler.interval must be positive"))
		}
		if c.Scheduler.Workers <= 0 {
			errs = append(errs, errors.New("scheduler.workers must be positive"))
		}
	}

	// Store validation
	switch c.Store.Type {
	case "memory":
	case "redis":
		if c.Store.Redis.Addr == "" {
			errs = append(errs, errors.New("store.redis.addr is required for redis store"))
		}
	default:
		errs = append(errs, errors.New("store.type must be one of: memory, redis"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %v", errs)
	}

	return nil
}

func (p ProfileConfig) validate(prefix string) []error {
	var errs []error
	if p.TimeSteps <= 0 {
		errs = append(errs, fmt.Errorf("%s.time_steps must be positive", prefix))
	}
	if p.MinHistory <= p.TimeSteps {
		errs = append(errs, fmt.Errorf("%s.min_history must exceed time_steps", prefix))
	}
	if p.HiddenUnits <= 0 {
		errs = append(errs, fmt.Errorf("%s.hidden_units must be positive", prefix))
	}
	if p.Epochs <= 0 {
		errs = append(errs, fmt.Errorf("%s.epochs must be positive", prefix))
	}
	if p.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("%s.batch_size must be positive", prefix))
	}
	if p.LearningRate <= 0 {
		errs = append(errs, fmt.Errorf("%s.learning_rate must be positive", prefix))
	}
	if p.ValidationSplit < 0 || p.ValidationSplit >= 1 {
		errs = append(errs, fmt.Errorf("%s.validation_split must be in [0, 1)", prefix))
	}
	return errs
}
