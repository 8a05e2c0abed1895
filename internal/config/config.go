package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	envPrefix              = "REGISTRY"
	defaultHTTPAddress     = "0.0.0.0:8080"
	defaultDatabasePath    = "registry.db"
	defaultStoragePath     = "storage"
	defaultStorageBaseURL  = "http://localhost:8080/files"
	defaultLogLevel        = "info"
	defaultTokenTTLMinutes = 480
)

// AppConfig captures runtime configuration for the registry API server.
type AppConfig struct {
	HTTPAddress     string
	SigningSecret   string
	TokenTTLMinutes int
	DatabasePath    string
	StoragePath     string
	StorageBaseURL  string
	CacheRedisURL   string
	LogLevel        string
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("storage.path", defaultStoragePath)
	configViper.SetDefault("storage.public_base_url", defaultStorageBaseURL)
	configViper.SetDefault("token.ttl_minutes", defaultTokenTTLMinutes)
	configViper.SetDefault("log.level", defaultLogLevel)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:     configViper.GetString("http.address"),
		SigningSecret:   configViper.GetString("auth.signing_secret"),
		TokenTTLMinutes: configViper.GetInt("token.ttl_minutes"),
		DatabasePath:    configViper.GetString("database.path"),
		StoragePath:     configViper.GetString("storage.path"),
		StorageBaseURL:  configViper.GetString("storage.public_base_url"),
		CacheRedisURL:   configViper.GetString("cache.redis_url"),
		LogLevel:        configViper.GetString("log.level"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.SigningSecret) == "" {
		return fmt.Errorf("auth.signing_secret is required")
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database.path is required")
	}
	if strings.TrimSpace(c.StoragePath) == "" {
		return fmt.Errorf("storage.path is required")
	}
	if strings.TrimSpace(c.StorageBaseURL) == "" {
		return fmt.Errorf("storage.public_base_url is required")
	}
	if c.TokenTTLMinutes <= 0 {
		return fmt.Errorf("token.ttl_minutes must be positive")
	}
	return nil
}
