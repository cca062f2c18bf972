package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read from environment variables
	v.SetEnvPrefix("")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Optionally read from config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/evalpipe")

	// Ignore error if config file not found
	_ = v.ReadInConfig()

	var cfg Config

	// Server
	cfg.Server.Env = v.GetString("server_env")

	// PostgreSQL
	cfg.Postgres.Host = v.GetString("postgres_host")
	cfg.Postgres.Port = v.GetInt("postgres_port")
	cfg.Postgres.User = v.GetString("postgres_user")
	cfg.Postgres.Password = v.GetString("postgres_password")
	cfg.Postgres.Database = v.GetString("postgres_db")
	cfg.Postgres.SSLMode = v.GetString("postgres_ssl_mode")
	cfg.Postgres.MaxConns = int32(v.GetInt("postgres_max_conns"))
	cfg.Postgres.MinConns = int32(v.GetInt("postgres_min_conns"))

	// ClickHouse
	cfg.ClickHouse.Host = v.GetString("clickhouse_host")
	cfg.ClickHouse.Port = v.GetInt("clickhouse_port")
	cfg.ClickHouse.User = v.GetString("clickhouse_user")
	cfg.ClickHouse.Password = v.GetString("clickhouse_password")
	cfg.ClickHouse.Database = v.GetString("clickhouse_db")

	// Redis
	cfg.Redis.Host = v.GetString("redis_host")
	cfg.Redis.Port = v.GetInt("redis_port")
	cfg.Redis.Password = v.GetString("redis_password")
	cfg.Redis.DB = v.GetInt("redis_db")

	// Worker
	cfg.Worker.Concurrency = v.GetInt("worker_concurrency")
	cfg.Worker.QueueCritical = v.GetString("worker_queue_critical")
	cfg.Worker.QueueDefault = v.GetString("worker_queue_default")
	cfg.Worker.QueueLow = v.GetString("worker_queue_low")

	// Pipeline
	cfg.Pipeline.UnitConcurrency = v.GetInt("pipeline_unit_concurrency")
	cfg.Pipeline.InvokeTimeoutMs = v.GetInt("pipeline_invoke_timeout_ms")

	// LLM
	cfg.LLM.Endpoint = v.GetString("llm_endpoint")
	cfg.LLM.APIKey = v.GetString("llm_api_key")
	cfg.LLM.Model = v.GetString("llm_model")
	cfg.LLM.MaxTokens = v.GetInt("llm_max_tokens")
	cfg.LLM.Temperature = v.GetFloat64("llm_temperature")
	cfg.LLM.TimeoutMs = v.GetInt("llm_timeout_ms")
	cfg.LLM.MaxRetries = v.GetInt("llm_max_retries")

	// Logging
	cfg.Log.Level = v.GetString("log_level")
	cfg.Log.Format = v.GetString("log_format")

	// Sentry
	cfg.Sentry.DSN = v.GetString("sentry_dsn")
	cfg.Sentry.Enabled = v.GetBool("sentry_enabled")

	// Validate required fields
	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server_env", "development")

	// PostgreSQL defaults
	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "evalpipe")
	v.SetDefault("postgres_password", "evalpipe")
	v.SetDefault("postgres_db", "evalpipe")
	v.SetDefault("postgres_ssl_mode", "disable")
	v.SetDefault("postgres_max_conns", 25)
	v.SetDefault("postgres_min_conns", 5)

	// ClickHouse defaults
	v.SetDefault("clickhouse_host", "localhost")
	v.SetDefault("clickhouse_port", 9000)
	v.SetDefault("clickhouse_user", "evalpipe")
	v.SetDefault("clickhouse_password", "evalpipe")
	v.SetDefault("clickhouse_db", "evalpipe")

	// Redis defaults
	v.SetDefault("redis_host", "localhost")
	v.SetDefault("redis_port", 6379)
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)

	// Worker defaults
	v.SetDefault("worker_concurrency", 10)
	v.SetDefault("worker_queue_critical", "critical")
	v.SetDefault("worker_queue_default", "default")
	v.SetDefault("worker_queue_low", "low")

	// Pipeline defaults
	v.SetDefault("pipeline_unit_concurrency", 4)
	v.SetDefault("pipeline_invoke_timeout_ms", 60000)

	// LLM defaults
	v.SetDefault("llm_endpoint", "https://api.openai.com/v1/chat/completions")
	v.SetDefault("llm_model", "gpt-4o-mini")
	v.SetDefault("llm_max_tokens", 5)
	v.SetDefault("llm_temperature", 0.0)
	v.SetDefault("llm_timeout_ms", 30000)
	v.SetDefault("llm_max_retries", 2)

	// Logging defaults
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")

	// Sentry defaults
	v.SetDefault("sentry_enabled", false)
}

func validate(cfg *Config) error {
	if cfg.Pipeline.UnitConcurrency < 1 {
		return fmt.Errorf("pipeline_unit_concurrency must be at least 1")
	}
	if cfg.LLM.MaxRetries < 0 {
		return fmt.Errorf("llm_max_retries must not be negative")
	}
	if cfg.Sentry.Enabled && cfg.Sentry.DSN == "" {
		return fmt.Errorf("sentry_dsn is required when sentry is enabled")
	}
	return nil
}
