package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/headline-goat/variant-chrome/internal/engagement"
	"github.com/headline-goat/variant-chrome/internal/language"
)

// EnvPrefix prefixes environment overrides, e.g. VCHROME_SITE_NAME.
const EnvPrefix = "VCHROME"

type Config struct {
	DBPath         string               `mapstructure:"db_path"`
	Port           int                  `mapstructure:"port"`
	Token          string               `mapstructure:"token"`
	ContentTesting ContentTestingConfig `mapstructure:"content_testing"`
	Site           SiteConfig           `mapstructure:"site"`
	Device         DeviceConfig         `mapstructure:"device"`
	Log            LogConfig            `mapstructure:"log"`
}

type ContentTestingConfig struct {
	// AutomaticEnabled gates test variation chrome data.
	AutomaticEnabled bool   `mapstructure:"automatic_enabled"`
	ScoreMode        string `mapstructure:"score_mode"`
}

type SiteConfig struct {
	Name            string `mapstructure:"name"`
	DefaultLanguage string `mapstructure:"default_language"`
}

type DeviceConfig struct {
	Default string `mapstructure:"default"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("db_path", "./vchrome.db")
	v.SetDefault("port", 8080)
	v.SetDefault("token", "")
	v.SetDefault("content_testing.automatic_enabled", true)
	v.SetDefault("content_testing.score_mode", string(engagement.ModeRate))
	v.SetDefault("site.name", "website")
	v.SetDefault("site.default_language", "en")
	v.SetDefault("device.default", "default")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads file (YAML) when given and decodes the merged configuration.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks for invalid configuration values.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db_path must not be empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if _, err := engagement.ParseMode(c.ContentTesting.ScoreMode); err != nil {
		return fmt.Errorf("content_testing.score_mode: %w", err)
	}
	if c.Site.Name == "" {
		return fmt.Errorf("site.name must not be empty")
	}
	if c.Site.DefaultLanguage != "" {
		if _, ok := language.TryParse(c.Site.DefaultLanguage); !ok {
			return fmt.Errorf("site.default_language %q is not a valid language", c.Site.DefaultLanguage)
		}
	}
	return nil
}

// ScoreMode returns the validated score mode.
func (c *Config) ScoreMode() engagement.Mode {
	m, _ := engagement.ParseMode(c.ContentTesting.ScoreMode)
	return m
}
