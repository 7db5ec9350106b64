package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	xdgAppName = "ticktask"
	configFile = "config.yaml"
	envPrefix  = "TICKTASK"
)

// OAuth holds the registered application used for the bearer-token endpoints.
type OAuth struct {
	ClientID     string `mapstructure:"client_id" yaml:"client_id"`
	ClientSecret string `mapstructure:"client_secret" yaml:"client_secret,omitempty"`
	RedirectURI  string `mapstructure:"redirect_uri" yaml:"redirect_uri"`
	Scope        string `mapstructure:"scope" yaml:"scope"`
	State        string `mapstructure:"state" yaml:"state,omitempty"`
	// EnvKey names the variable that may hold a token record.
	EnvKey    string `mapstructure:"env_key" yaml:"env_key"`
	CachePath string `mapstructure:"cache_path" yaml:"cache_path"`
}

type Config struct {
	Username string `mapstructure:"username" yaml:"username"`
	// Password is only read from the environment (TICKTASK_PASSWORD); it is
	// never written to the config file.
	Password string `mapstructure:"password" yaml:"-"`
	OAuth    OAuth  `mapstructure:"oauth" yaml:"oauth"`
	Debug    bool   `mapstructure:"debug" yaml:"debug"`
	// Output is "json" or "yaml".
	Output string `mapstructure:"output" yaml:"output"`
}

func GetConfigDir() (string, error) {
	xdgHome, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(xdgHome, ".config", xdgAppName), nil
}

func GetConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

func setDefaults(v *viper.Viper) {
	cachePath := ".token-oauth"
	if dir, err := GetConfigDir(); err == nil {
		cachePath = filepath.Join(dir, ".token-oauth")
	}
	v.SetDefault("username", "")
	v.SetDefault("password", "")
	v.SetDefault("oauth.client_id", "")
	v.SetDefault("oauth.client_secret", "")
	v.SetDefault("oauth.redirect_uri", "http://127.0.0.1:8080/")
	v.SetDefault("oauth.scope", "tasks:write tasks:read")
	v.SetDefault("oauth.state", "")
	v.SetDefault("oauth.env_key", "TICKTASK_TOKEN")
	v.SetDefault("oauth.cache_path", cachePath)
	v.SetDefault("debug", false)
	v.SetDefault("output", "json")
}

// Load reads the YAML file at path (the default path when empty) and applies
// TICKTASK_* environment overrides, e.g. TICKTASK_OAUTH_CLIENT_ID. A missing
// file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		if path, err = GetConfigPath(); err != nil {
			return nil, err
		}
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		var pathErr *os.PathError
		if !errors.As(err, &notFound) && !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.Output != "json" && cfg.Output != "yaml" {
		return nil, fmt.Errorf("invalid output format %q (must be 'json' or 'yaml')", cfg.Output)
	}
	return &cfg, nil
}

// Save writes cfg to path (the default path when empty). The password is
// left out.
func Save(path string, cfg *Config) error {
	if path == "" {
		var err error
		if path, err = GetConfigPath(); err != nil {
			return err
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.Set("username", cfg.Username)
	v.Set("oauth", map[string]any{
		"client_id":     cfg.OAuth.ClientID,
		"client_secret": cfg.OAuth.ClientSecret,
		"redirect_uri":  cfg.OAuth.RedirectURI,
		"scope":         cfg.OAuth.Scope,
		"state":         cfg.OAuth.State,
		"env_key":       cfg.OAuth.EnvKey,
		"cache_path":    cfg.OAuth.CachePath,
	})
	v.Set("debug", cfg.Debug)
	v.Set("output", cfg.Output)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return os.Chmod(path, 0600)
}
