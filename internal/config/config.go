package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config groups the application settings read through Viper.
type Config struct {
	App      AppConfig
	HTTP     HTTPConfig
	Storage  StorageConfig
	JWT      JWTConfig
	RabbitMQ RabbitMQConfig
	Log      LogConfig
}

// AppConfig general application settings.
type AppConfig struct {
	Env  string // development, production
	Name string
}

// IsProduction reports whether internal error details must be hidden from clients.
func (c AppConfig) IsProduction() bool {
	return c.Env == "production"
}

// HTTPConfig HTTP server settings.
type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Addr returns the listen address (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// StorageConfig selects the product store.
type StorageConfig struct {
	Driver        string
	Timeout       time.Duration
	MongoURI      string
	MongoDatabase string
	DSN           string
}

// JWTConfig bearer credential settings.
type JWTConfig struct {
	Secret       string
	Expiration   int // minutes
	Issuer       string
	AdminKeyHash string // bcrypt hash of the static admin key
}

// RabbitMQConfig event publishing settings; an empty URL disables publishing.
type RabbitMQConfig struct {
	URL      string
	Exchange string
}

// LogConfig logger settings.
type LogConfig struct {
	Level string
}

// New returns a Viper instance with defaults and environment binding applied.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads an optional .env or config.env file and builds the Config from v.
// Environment variables and bound flags take precedence over the file.
func Load(v *viper.Viper) (*Config, error) {
	if v == nil {
		v = New()
	}

	for _, name := range []string{".env", "config"} {
		v.SetConfigName(name)
		v.SetConfigType("env")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if err := v.MergeInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config %s: %w", name, err)
			}
		}
	}

	cfg := &Config{
		App: AppConfig{
			Env:  strings.ToLower(v.GetString("APP_ENV")),
			Name: v.GetString("APP_NAME"),
		},
		HTTP: HTTPConfig{
			Host:         v.GetString("HTTP_HOST"),
			Port:         v.GetInt("HTTP_PORT"),
			ReadTimeout:  v.GetDuration("HTTP_READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("HTTP_WRITE_TIMEOUT"),
		},
		Storage: StorageConfig{
			Driver:        strings.ToLower(v.GetString("STORAGE_DRIVER")),
			Timeout:       v.GetDuration("STORAGE_TIMEOUT"),
			MongoURI:      v.GetString("MONGO_URI"),
			MongoDatabase: v.GetString("MONGO_DATABASE"),
			DSN:           v.GetString("DATABASE_DSN"),
		},
		JWT: JWTConfig{
			Secret:       v.GetString("JWT_SECRET"),
			Expiration:   v.GetInt("JWT_EXPIRATION_MINUTES"),
			Issuer:       v.GetString("JWT_ISSUER"),
			AdminKeyHash: v.GetString("ADMIN_API_KEY_HASH"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:      v.GetString("RABBITMQ_URL"),
			Exchange: v.GetString("RABBITMQ_EXCHANGE"),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late at startup.
func (c *Config) Validate() error {
	switch c.App.Env {
	case "development", "production", "test":
	default:
		return fmt.Errorf("config: unknown APP_ENV %q", c.App.Env)
	}
	switch c.Storage.Driver {
	case "mongo", "postgres", "sqlite", "memory":
	default:
		return fmt.Errorf("config: unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("config: invalid HTTP_PORT %d", c.HTTP.Port)
	}
	if c.JWT.Expiration <= 0 {
		return fmt.Errorf("config: JWT_EXPIRATION_MINUTES must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_NAME", "productapi")
	v.SetDefault("HTTP_HOST", "0.0.0.0")
	v.SetDefault("HTTP_PORT", 4000)
	v.SetDefault("HTTP_READ_TIMEOUT", 10*time.Second)
	v.SetDefault("HTTP_WRITE_TIMEOUT", 10*time.Second)
	v.SetDefault("STORAGE_DRIVER", "mongo")
	v.SetDefault("STORAGE_TIMEOUT", 5*time.Second)
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017/products_db")
	v.SetDefault("MONGO_DATABASE", "products_db")
	v.SetDefault("DATABASE_DSN", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_EXPIRATION_MINUTES", 60)
	v.SetDefault("JWT_ISSUER", "productapi")
	v.SetDefault("ADMIN_API_KEY_HASH", "")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_EXCHANGE", "products")
	v.SetDefault("LOG_LEVEL", "")
}
