package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Config file settings
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/crop-advisor")
	}

	// Environment variable settings
	v.SetEnvPrefix("CROPADVISOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "crop-advisor")
	v.SetDefault("app.mode", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.shutdown_timeout", "30s")

	// API defaults
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.read_timeout", "15s")
	v.SetDefault("api.write_timeout", "2m")
	v.SetDefault("api.idle_timeout", "60s")
	v.SetDefault("api.rate_limit", 100)
	v.SetDefault("api.rate_window", "1m")
	v.SetDefault("api.max_body_bytes", 64*1024)
	v.SetDefault("api.jwt_secret", "change-me-in-production")
	v.SetDefault("api.jwt_duration", "24h")
	v.SetDefault("api.jwt_issuer", "crop-advisor")
	v.SetDefault("api.cors.allowed_origins", []string{"*"})

	// Artifact defaults
	v.SetDefault("artifacts.scaler_path", "artifacts/minmax_scaler.json")
	v.SetDefault("artifacts.classifier_path", "artifacts/randomforest_model.json")
	v.SetDefault("artifacts.catalog_path", "")

	// Dataset defaults
	v.SetDefault("datasets.source", "csv")
	v.SetDefault("datasets.seasonal_path", "data/apy.csv")
	v.SetDefault("datasets.district_path", "data/ICRISAT-District Level Data.csv")

	// Database defaults
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "cropadvisor")
	v.SetDefault("database.user", "admin")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.migration_timeout", "60s")
	v.SetDefault("database.statement_timeout", "0s")

	// Forecast defaults
	v.SetDefault("forecast.on_miss", "compute")
	v.SetDefault("forecast.ttl", "24h")
	v.SetDefault("forecast.seed", 0)

	v.SetDefault("forecast.seasonal.time_steps", 3)
	v.SetDefault("forecast.seasonal.min_history", 5)
	v.SetDefault("forecast.seasonal.hidden_units", 50)
	v.SetDefault("forecast.seasonal.epochs", 50)
	v.SetDefault("forecast.seasonal.batch_size", 1)
	v.SetDefault("forecast.seasonal.learning_rate", 0.001)
	v.SetDefault("forecast.seasonal.validation_split", 0.0)
	v.SetDefault("forecast.seasonal.patience", 0)

	v.SetDefault("forecast.demand.time_steps", 5)
	v.SetDefault("forecast.demand.min_history", 6)
	v.SetDefault("forecast.demand.hidden_units", 64)
	v.SetDefault("forecast.demand.epochs", 100)
	v.SetDefault("forecast.demand.batch_size", 8)
	v.SetDefault("forecast.demand.learning_rate", 0.001)
	v.SetDefault("forecast.demand.validation_split", 0.2)
	v.SetDefault("forecast.demand.patience", 10)

	// Scheduler defaults
	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.interval", "24h")
	v.SetDefault("scheduler.run_on_start", true)
	v.SetDefault("scheduler.workers", 4)
	v.SetDefault("scheduler.timeout", "2h")

	// Store defaults
	v.SetDefault("store.type", "memory")
	v.SetDefault("store.redis.addr", "localhost:6379")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.key_prefix", "cropadvisor:forecast:")
	v.SetDefault("store.redis.dial_timeout", "5s")
	v.SetDefault("store.redis.read_timeout", "2s")
	v.SetDefault("store.redis.write_timeout", "2s")
	v.SetDefault("store.circuit_breaker.max_failures", 5)
	v.SetDefault("store.circuit_breaker.timeout", "30s")

	// WebSocket defaults
	v.SetDefault("websocket.ping_interval", "54s")
	v.SetDefault("websocket.pong_timeout", "60s")
	v.SetDefault("websocket.write_timeout", "10s")
	v.SetDefault("websocket.max_message_size", 512)

	// Prometheus defaults
	v.SetDefault("prometheus.enabled", true)
	v.SetDefault("prometheus.port", 9090)

	// Events defaults
	v.SetDefault("events.buffer_size", 100)
}
