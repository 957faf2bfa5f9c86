package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	API     APIConfig
	Slots   SlotsConfig
	AltText AltTextConfig
	Log     LogConfig
}

// ServerConfig holds settings for `herobanner serve`.
type ServerConfig struct {
	Port  string
	Token string
}

// StorageConfig picks where image bytes go.
type StorageConfig struct {
	Backend string // "gcs" or "disk"
	Bucket  string
	Project string
	Dir     string
}

// APIConfig is how the admin client reaches the server.
type APIConfig struct {
	URL     string
	Token   string
	Timeout time.Duration
}

// SlotsConfig holds admin screen settings.
type SlotsConfig struct {
	LabelPrefix string `mapstructure:"label_prefix"`
	PreviewDir  string `mapstructure:"preview_dir"`
}

// AltTextConfig enables generated alt text for unlabeled uploads.
type AltTextConfig struct {
	Provider string
	Model    string
	APIKey   string `mapstructure:"api_key"`
	URL      string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string
}

// Load reads configuration from file and env. Env var overrides use prefix HERO_,
// e.g. HERO_STORAGE_BUCKET. GCS_BUCKET_NAME, GCS_PROJECT_ID and OLLAMA_URL are
// honored as well. Without alttext.api_key the provider's own variable is used:
// GEMINI_API_KEY for gemini, OPENAI_API_KEY for openai.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.token", "")
	v.SetDefault("storage.backend", "disk")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.project", "")
	v.SetDefault("storage.dir", "uploads")
	v.SetDefault("api.url", "http://localhost:8080")
	v.SetDefault("api.token", "")
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("slots.label_prefix", "Hero Image")
	v.SetDefault("slots.preview_dir", "")
	v.SetDefault("alttext.provider", "")
	v.SetDefault("alttext.model", "")
	v.SetDefault("alttext.api_key", "")
	v.SetDefault("alttext.url", "")
	v.SetDefault("log.level", "info")

	v.SetConfigType("yaml")
	cfgPath := os.Getenv("HERO_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.SetConfigName("herobanner")
		v.AddConfigPath(".")
		if home, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, "herobanner"))
		}
	}

	v.SetEnvPrefix("HERO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("storage.bucket", "HERO_STORAGE_BUCKET", "GCS_BUCKET_NAME")
	_ = v.BindEnv("storage.project", "HERO_STORAGE_PROJECT", "GCS_PROJECT_ID")
	_ = v.BindEnv("alttext.api_key", "HERO_ALTTEXT_API_KEY")
	_ = v.BindEnv("alttext.url", "HERO_ALTTEXT_URL", "OLLAMA_URL")
	_ = v.BindEnv("server.port", "HERO_SERVER_PORT", "PORT")

	// a missing herobanner.yaml is fine, a missing explicit HERO_CONFIG is not
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgPath != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.AltText.APIKey == "" {
		c.AltText.APIKey = providerKey(c.AltText.Provider)
	}
	return c, c.Validate()
}

// providerKey reads the conventional API key variable of an alt text provider.
func providerKey(provider string) string {
	switch provider {
	case "gemini":
		return os.Getenv("GEMINI_API_KEY")
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	default:
		return ""
	}
}

// Validate checks the combinations Load cannot express as defaults.
func (c Config) Validate() error {
	switch c.Storage.Backend {
	case "disk":
		if c.Storage.Dir == "" {
			return errors.New("storage.dir is required for the disk backend")
		}
	case "gcs":
		if c.Storage.Bucket == "" {
			return errors.New("storage.bucket (or GCS_BUCKET_NAME) is required for the gcs backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q (use gcs or disk)", c.Storage.Backend)
	}

	switch c.AltText.Provider {
	case "", "gemini", "ollama", "openai":
	default:
		return fmt.Errorf("unknown alt text provider %q", c.AltText.Provider)
	}
	return nil
}
