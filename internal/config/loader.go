// internal/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, merges config.<env>.yaml and applies env overrides.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{".env", "../.env", "../../.env"}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// expandEnvVars resolves ${VAR} placeholders left in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig picks secrets up from their conventional env names.
func overrideEmptyConfig(cfg *Config) {
	override := func(dst *string, envKey string) {
		if *dst == "" {
			if val := os.Getenv(envKey); val != "" {
				*dst = val
			}
		}
	}

	override(&cfg.Database.Postgres.User, "DB_USER")
	override(&cfg.Database.Postgres.Password, "DB_PASSWORD")
	override(&cfg.Auth.Supabase.URL, "SUPABASE_URL")
	override(&cfg.Auth.Supabase.AnonKey, "SUPABASE_ANON_KEY")
	override(&cfg.Integrations.GenAI.APIKey, "API_KEY")
	override(&cfg.Integrations.GenAI.APIKey, "GENAI_API_KEY")
	override(&cfg.Integrations.Workflow.WebhookURL, "WORKFLOW_WEBHOOK_URL")
	override(&cfg.Mail.Password, "MAIL_PASS")
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "leadscout"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"http://localhost:5173"}
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 10
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "require"
	}
	if cfg.Database.Redis.KeyPrefix == "" {
		cfg.Database.Redis.KeyPrefix = "leadscout:"
	}

	if cfg.Realtime.Driver == "" {
		cfg.Realtime.Driver = "postgres"
	}
	if cfg.Realtime.Channel == "" {
		cfg.Realtime.Channel = "lead_inserted"
	}
	if cfg.Realtime.BufferSize == 0 {
		cfg.Realtime.BufferSize = 64
	}
	if cfg.Realtime.Exchange == "" {
		cfg.Realtime.Exchange = "ex.leads"
	}
	if cfg.Realtime.Queue == "" {
		cfg.Realtime.Queue = "q.leads.inserted"
	}
	if cfg.Realtime.RoutingKey == "" {
		cfg.Realtime.RoutingKey = "k.lead.inserted"
	}
	if cfg.Realtime.MinReconnectMs == 0 {
		cfg.Realtime.MinReconnectMs = 10000
	}
	if cfg.Realtime.MaxReconnectMs == 0 {
		cfg.Realtime.MaxReconnectMs = 60000
	}

	if cfg.Auth.Supabase.Timeout == 0 {
		cfg.Auth.Supabase.Timeout = 10000
	}

	if cfg.Integrations.GenAI.Model == "" {
		cfg.Integrations.GenAI.Model = "gemini-2.5-flash"
	}
	if cfg.Integrations.GenAI.GreetingTemplate == "" {
		cfg.Integrations.GenAI.GreetingTemplate = "مرحباً [full_name]"
	}

	if cfg.Mail.Port == 0 {
		cfg.Mail.Port = 587
	}

	if cfg.Session.CookieName == "" {
		cfg.Session.CookieName = "leadscout_device"
	}
	if cfg.Session.SweepInterval == 0 {
		cfg.Session.SweepInterval = 60000
	}
	if cfg.Session.IdleTimeout == 0 {
		cfg.Session.IdleTimeout = 1800000
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required")
	}
	if cfg.Auth.Supabase.URL == "" {
		return fmt.Errorf("auth.supabase.url is required")
	}

	switch cfg.Realtime.Driver {
	case "postgres":
	case "rabbitmq":
		if cfg.Realtime.RabbitMQURL == "" {
			return fmt.Errorf("realtime.rabbitmq_url is required for the rabbitmq driver")
		}
	default:
		return fmt.Errorf("realtime.driver %q is not supported", cfg.Realtime.Driver)
	}

	if cfg.Mail.Enabled && cfg.Mail.Host == "" {
		return fmt.Errorf("mail.host is required when mail is enabled")
	}

	return nil
}
