package config

import "time"

// Config holds all configuration for the evaluation runner
type Config struct {
	Server     ServerConfig
	Postgres   PostgresConfig
	ClickHouse ClickHouseConfig
	Redis      RedisConfig
	Worker     WorkerConfig
	Pipeline   PipelineConfig
	LLM        LLMConfig
	Log        LogConfig
	Sentry     SentryConfig
}

// ServerConfig holds process-level configuration
type ServerConfig struct {
	Env string `mapstructure:"env"`
}

// PostgresConfig holds PostgreSQL configuration for the evaluator
// catalog and the audit log
type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// ClickHouseConfig holds ClickHouse configuration for traces and
// evaluation records
type ClickHouseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// RedisConfig holds Redis configuration for the task queue
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds background worker configuration
type WorkerConfig struct {
	Concurrency   int    `mapstructure:"concurrency"`
	QueueCritical string `mapstructure:"queue_critical"`
	QueueDefault  string `mapstructure:"queue_default"`
	QueueLow      string `mapstructure:"queue_low"`
}

// PipelineConfig holds evaluation pipeline configuration
type PipelineConfig struct {
	// UnitConcurrency bounds how many (evaluator, trace) units of one
	// evaluator are scored in parallel.
	UnitConcurrency int `mapstructure:"unit_concurrency"`
	// InvokeTimeoutMs bounds a single scoring capability invocation.
	InvokeTimeoutMs int `mapstructure:"invoke_timeout_ms"`
}

// InvokeTimeout returns the scoring invocation timeout
func (c PipelineConfig) InvokeTimeout() time.Duration {
	return time.Duration(c.InvokeTimeoutMs) * time.Millisecond
}

// LLMConfig holds configuration for the remote scoring model
type LLMConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
	TimeoutMs   int     `mapstructure:"timeout_ms"`
	MaxRetries  int     `mapstructure:"max_retries"`
}

// Timeout returns the per-attempt request timeout
func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SentryConfig holds crash reporting configuration
type SentryConfig struct {
	DSN     string `mapstructure:"dsn"`
	Enabled bool   `mapstructure:"enabled"`
}

// IsDevelopment returns true if running in development mode
func (c Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c Config) IsProduction() bool {
	return c.Server.Env == "production"
}
