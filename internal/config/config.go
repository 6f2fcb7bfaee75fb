// internal/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App          AppConfig         `mapstructure:"app"`
	Server       ServerConfig      `mapstructure:"server"`
	Database     DatabaseConfig    `mapstructure:"database"`
	Realtime     RealtimeConfig    `mapstructure:"realtime"`
	Auth         AuthConfig        `mapstructure:"auth"`
	Integrations IntegrationConfig `mapstructure:"integrations"`
	Mail         MailConfig        `mapstructure:"mail"`
	Session      SessionConfig     `mapstructure:"session"`
	Logging      LoggingConfig     `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	CookieSecure   bool     `mapstructure:"cookie_secure"`
	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	TrustProxy     bool     `mapstructure:"trust_proxy"`
}

// Addr returns the listen address for http.Server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address   string `mapstructure:"address"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// RealtimeConfig selects where raw-lead insert events come from.
type RealtimeConfig struct {
	Driver         string `mapstructure:"driver"` // postgres | rabbitmq
	Channel        string `mapstructure:"channel"`
	BufferSize     int    `mapstructure:"buffer_size"`
	RabbitMQURL    string `mapstructure:"rabbitmq_url"`
	Exchange       string `mapstructure:"exchange"`
	Queue          string `mapstructure:"queue"`
	RoutingKey     string `mapstructure:"routing_key"`
	MinReconnectMs int    `mapstructure:"min_reconnect_ms"`
	MaxReconnectMs int    `mapstructure:"max_reconnect_ms"`
}

type AuthConfig struct {
	Supabase struct {
		URL     string `mapstructure:"url"`
		AnonKey string `mapstructure:"anon_key"`
		Timeout int    `mapstructure:"timeout"` // milliseconds
	} `mapstructure:"supabase"`
}

// IntegrationConfig holds settings for the workflow webhook and the inference API.
type IntegrationConfig struct {
	Workflow struct {
		WebhookURL string `mapstructure:"webhook_url"`
	} `mapstructure:"workflow"`

	GenAI struct {
		APIKey           string `mapstructure:"api_key"`
		Model            string `mapstructure:"model"`
		BaseURL          string `mapstructure:"base_url"`
		GreetingTemplate string `mapstructure:"greeting_template"`
	} `mapstructure:"genai"`
}

type MailConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type SessionConfig struct {
	CookieName    string `mapstructure:"cookie_name"`
	SweepInterval int    `mapstructure:"sweep_interval"` // milliseconds
	IdleTimeout   int    `mapstructure:"idle_timeout"`   // milliseconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
