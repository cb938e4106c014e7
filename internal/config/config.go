package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	envPrefix              = "LUMINA"
	defaultHTTPAddress     = "0.0.0.0:8080"
	defaultDatabasePath    = "lumina.db"
	defaultLogLevel        = "info"
	defaultCookieName      = "token"
	defaultTokenTTLMinutes = 24 * 60
	defaultMediaDir        = "media"
	defaultMediaBaseURL    = "/media"
)

// AppConfig captures runtime configuration for the API server.
type AppConfig struct {
	HTTPAddress     string
	DatabasePath    string
	SigningSecret   string
	CookieName      string
	TokenTTLMinutes int
	LogLevel        string
	MediaDir        string
	MediaBaseURL    string
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
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("auth.cookie_name", defaultCookieName)
	configViper.SetDefault("auth.token_ttl_minutes", defaultTokenTTLMinutes)
	configViper.SetDefault("media.dir", defaultMediaDir)
	configViper.SetDefault("media.base_url", defaultMediaBaseURL)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:     configViper.GetString("http.address"),
		DatabasePath:    configViper.GetString("database.path"),
		SigningSecret:   configViper.GetString("auth.signing_secret"),
		CookieName:      configViper.GetString("auth.cookie_name"),
		TokenTTLMinutes: configViper.GetInt("auth.token_ttl_minutes"),
		LogLevel:        configViper.GetString("log.level"),
		MediaDir:        configViper.GetString("media.dir"),
		MediaBaseURL:    configViper.GetString("media.base_url"),
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
	if strings.TrimSpace(c.CookieName) == "" {
		return fmt.Errorf("auth.cookie_name is required")
	}
	if c.TokenTTLMinutes <= 0 {
		return fmt.Errorf("auth.token_ttl_minutes must be positive")
	}
	if strings.TrimSpace(c.MediaDir) == "" {
		return fmt.Errorf("media.dir is required")
	}
	return nil
}
