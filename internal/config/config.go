package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Store   StoreConfig   `mapstructure:"store"`
	OAuth   OAuthConfig   `mapstructure:"oauth"`
	Mail    MailConfig    `mapstructure:"mail"`
	Captcha CaptchaConfig `mapstructure:"captcha"`
	Sentry  SentryConfig  `mapstructure:"sentry"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	ClientIPHeader string        `mapstructure:"client_ip_header"`
	BurstRPS       float64       `mapstructure:"burst_rps"`
	Burst          int           `mapstructure:"burst"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// StoreConfig selects and configures the key-value store.
// An empty driver (or "none") leaves rate limiting and audit logging disabled.
type StoreConfig struct {
	Driver        string         `mapstructure:"driver"`
	RedisURL      string         `mapstructure:"redis_url"`
	RedisPassword string         `mapstructure:"redis_password"`
	Database      DatabaseConfig `mapstructure:"database"`
	SweepInterval time.Duration  `mapstructure:"sweep_interval"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// OAuthConfig holds the client-credentials grant used to authorize the mail API
type OAuthConfig struct {
	TenantID     string `mapstructure:"tenant_id"`
	TokenURL     string `mapstructure:"token_url"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	Scope        string `mapstructure:"scope"`
	RefreshToken string `mapstructure:"refresh_token"`
}

// MailConfig holds mail relay configuration
type MailConfig struct {
	Provider  string `mapstructure:"provider"`
	Endpoint  string `mapstructure:"endpoint"`
	Sender    string `mapstructure:"sender"`
	Recipient string `mapstructure:"recipient"`
}

// APIEndpoint returns the mail API base URL. Gmail uses the client library
// default when none is set.
func (c *MailConfig) APIEndpoint() string {
	if c.Endpoint == "" && c.Provider != ProviderGmail {
		return DefaultGraphEndpoint
	}
	return c.Endpoint
}

// CaptchaConfig holds CAPTCHA verification configuration
type CaptchaConfig struct {
	Secret    string `mapstructure:"secret"`
	VerifyURL string `mapstructure:"verify_url"`
}

// SentryConfig holds error reporting configuration
type SentryConfig struct {
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
}

const (
	ProviderGraph = "graph"
	ProviderGmail = "gmail"

	StoreNone   = "none"
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreMySQL  = "mysql"

	DefaultGraphEndpoint = "https://graph.microsoft.com/v1.0"
)

// LoadConfig loads configuration from environment variables and config file
func LoadConfig() (*Config, error) {
	// .env only exists in local development
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.AutomaticEnv()
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg.Server.AllowedOrigins = splitOrigins(cfg.Server.AllowedOrigins)
	if cfg.OAuth.TokenURL == "" && cfg.OAuth.TenantID != "" {
		cfg.OAuth.TokenURL = fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", cfg.OAuth.TenantID)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.client_ip_header", "CF-Connecting-IP")
	v.SetDefault("server.burst_rps", 1.0)
	v.SetDefault("server.burst", 5)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("store.driver", StoreNone)
	v.SetDefault("store.database.host", "localhost")
	v.SetDefault("store.database.port", 3306)
	v.SetDefault("store.sweep_interval", "1h")

	v.SetDefault("oauth.scope", "https://graph.microsoft.com/.default")

	v.SetDefault("mail.provider", ProviderGraph)

	v.SetDefault("captcha.verify_url", "https://challenges.cloudflare.com/turnstile/v0/siteverify")
}

// bindEnvVars binds environment variables to configuration keys
func bindEnvVars(v *viper.Viper) {
	// Server
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.read_timeout", "SERVER_READ_TIMEOUT")
	v.BindEnv("server.write_timeout", "SERVER_WRITE_TIMEOUT")
	v.BindEnv("server.allowed_origins", "ALLOWED_ORIGINS")
	v.BindEnv("server.client_ip_header", "CLIENT_IP_HEADER")
	v.BindEnv("server.burst_rps", "BURST_RPS")
	v.BindEnv("server.burst", "BURST")

	// Log
	v.BindEnv("log.level", "LOG_LEVEL")
	v.BindEnv("log.format", "LOG_FORMAT")

	// Store
	v.BindEnv("store.driver", "STORE_DRIVER")
	v.BindEnv("store.redis_url", "UPSTASH_REDIS_URL")
	v.BindEnv("store.redis_password", "UPSTASH_REDIS_PASSWORD")
	v.BindEnv("store.database.host", "DB_HOST")
	v.BindEnv("store.database.port", "DB_PORT")
	v.BindEnv("store.database.user", "DB_USER")
	v.BindEnv("store.database.password", "DB_PASSWORD")
	v.BindEnv("store.database.dbname", "DB_NAME")
	v.BindEnv("store.sweep_interval", "STORE_SWEEP_INTERVAL")

	// OAuth
	v.BindEnv("oauth.tenant_id", "AZURE_TENANT_ID")
	v.BindEnv("oauth.token_url", "OAUTH_TOKEN_URL")
	v.BindEnv("oauth.client_id", "AZURE_CLIENT_ID")
	v.BindEnv("oauth.client_secret", "AZURE_CLIENT_SECRET")
	v.BindEnv("oauth.scope", "OAUTH_SCOPE")
	v.BindEnv("oauth.refresh_token", "GMAIL_REFRESH_TOKEN")

	// Mail
	v.BindEnv("mail.provider", "MAIL_PROVIDER")
	v.BindEnv("mail.endpoint", "MAIL_ENDPOINT")
	v.BindEnv("mail.sender", "MAIL_SENDER")
	v.BindEnv("mail.recipient", "MAIL_RECIPIENT")

	// Captcha
	v.BindEnv("captcha.secret", "TURNSTILE_SECRET_KEY")
	v.BindEnv("captcha.verify_url", "TURNSTILE_VERIFY_URL")

	// Sentry
	v.BindEnv("sentry.dsn", "SENTRY_DSN")
	v.BindEnv("sentry.environment", "APP_ENV")
}

// splitOrigins accepts both a YAML list and a comma separated env value.
func splitOrigins(in []string) []string {
	var out []string
	for _, item := range in {
		for _, o := range strings.Split(item, ",") {
			if o = strings.TrimSpace(o); o != "" {
				out = append(out, o)
			}
		}
	}
	return out
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		c.User, c.Password, c.Host, c.Port, c.DBName)
}

// StoreConfigured reports whether a key-value store was requested.
func (c *StoreConfig) StoreConfigured() bool {
	return c.Driver != "" && c.Driver != StoreNone
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	switch c.Store.Driver {
	case "", StoreNone, StoreMemory:
	case StoreRedis:
		if c.Store.RedisURL == "" {
			return fmt.Errorf("redis url is required when store driver is redis")
		}
	case StoreMySQL:
		if c.Store.Database.Host == "" || c.Store.Database.User == "" || c.Store.Database.DBName == "" {
			return fmt.Errorf("database host, user, and dbname are required when store driver is mysql")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	if c.Mail.Recipient == "" {
		return fmt.Errorf("mail recipient is required")
	}

	switch c.Mail.Provider {
	case ProviderGraph:
		if c.OAuth.ClientID == "" || c.OAuth.ClientSecret == "" || c.OAuth.TokenURL == "" {
			return fmt.Errorf("OAuth client credentials and token url (or tenant id) are required for graph")
		}
		if c.Mail.Sender == "" {
			return fmt.Errorf("mail sender is required for graph")
		}
	case ProviderGmail:
		if c.OAuth.ClientID == "" || c.OAuth.ClientSecret == "" || c.OAuth.RefreshToken == "" {
			return fmt.Errorf("Gmail OAuth2 credentials are required for gmail")
		}
		if c.Mail.Sender == "" {
			return fmt.Errorf("mail sender is required for gmail")
		}
	default:
		return fmt.Errorf("unknown mail provider %q", c.Mail.Provider)
	}

	return nil
}
