package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	envPrefix               = "BEACON"
	defaultHTTPAddress      = "0.0.0.0:8080"
	defaultDatabasePath     = "beacon.db"
	defaultContentStoreRoot = "blobs"
	defaultLogLevel         = "info"
	defaultTokenTTLMinutes  = 60
)

// AppConfig captures runtime configuration for the asset server.
type AppConfig struct {
	HTTPAddress         string
	DatabasePath        string
	ContentStoreRoot    string
	VanillaManifestPath string
	SessionSigningKey   string
	TokenTTLMinutes     int
	LogLevel            string
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
	configViper.SetDefault("content_store.root", defaultContentStoreRoot)
	configViper.SetDefault("vanilla.manifest_path", "")
	configViper.SetDefault("session.ttl_minutes", defaultTokenTTLMinutes)
	configViper.SetDefault("log.level", defaultLogLevel)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:         configViper.GetString("http.address"),
		DatabasePath:        configViper.GetString("database.path"),
		ContentStoreRoot:    configViper.GetString("content_store.root"),
		VanillaManifestPath: configViper.GetString("vanilla.manifest_path"),
		SessionSigningKey:   configViper.GetString("session.signing_secret"),
		TokenTTLMinutes:     configViper.GetInt("session.ttl_minutes"),
		LogLevel:            configViper.GetString("log.level"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.SessionSigningKey) == "" {
		return fmt.Errorf("session.signing_secret is required")
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database.path is required")
	}
	if strings.TrimSpace(c.ContentStoreRoot) == "" {
		return fmt.Errorf("content_store.root is required")
	}
	if c.TokenTTLMinutes <= 0 {
		return fmt.Errorf("session.ttl_minutes must be positive")
	}
	return nil
}
