package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	APIKey           string `mapstructure:"api_key" yaml:"api_key"`
	Provider         string `mapstructure:"provider" yaml:"provider"`
	Endpoint         string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	Model            string `mapstructure:"model" yaml:"model"`
	AnthropicVersion string `mapstructure:"anthropic_version" yaml:"anthropic_version"`
	MaxTokens        int    `mapstructure:"max_tokens" yaml:"max_tokens"`

	// HTTP/Retry configuration
	HTTPTimeoutSec    int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RequestTimeoutSec int `mapstructure:"request_timeout_sec" yaml:"request_timeout_sec"`
	RetryMaxAttempts  int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs  int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs   int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`

	// Server
	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

// Keys lists every configuration key `config set` accepts.
var Keys = []string{
	"api_key", "provider", "endpoint", "model", "anthropic_version", "max_tokens",
	"http_timeout_sec", "request_timeout_sec",
	"retry_max_attempts", "retry_base_delay_ms", "retry_max_delay_ms",
	"listen_addr", "log_level", "log_format",
}

const dirName = ".storyteller"

// HTTPTimeout is the transport timeout for model requests.
func (c *Global) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSec) * time.Second
}

// RequestTimeout bounds one whole model call, retries included.
func (c *Global) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSec) * time.Second
}

// Redacted returns a copy safe to print.
func (c *Global) Redacted() Global {
	out := *c
	if out.APIKey != "" {
		if len(out.APIKey) > 8 {
			out.APIKey = out.APIKey[:4] + "..." + out.APIKey[len(out.APIKey)-4:]
		} else {
			out.APIKey = "***"
		}
	}
	return out
}

// DefaultPath returns ~/.storyteller/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, dirName, "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.storyteller/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	// the file may carry an API key
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api_key", "")
	v.SetDefault("provider", "messages")
	v.SetDefault("endpoint", "")
	v.SetDefault("model", "claude-sonnet-4-6")
	v.SetDefault("anthropic_version", "2023-06-01")
	v.SetDefault("max_tokens", 4096)
	// HTTP/retry defaults
	v.SetDefault("http_timeout_sec", 60)
	v.SetDefault("request_timeout_sec", 120)
	v.SetDefault("retry_max_attempts", 1)
	v.SetDefault("retry_base_delay_ms", 500)
	v.SetDefault("retry_max_delay_ms", 4000)
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. A .env file in the working
// directory is loaded into the environment first when present.
func Load(cfgFile string) (*Global, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("STORYTELLER")
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, dirName))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// The key name the original deployment used.
	if c.APIKey == "" {
		c.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	return &c, nil
}

// Set assigns one key by name. Numeric keys accept their decimal text.
func (c *Global) Set(key, value string) error {
	known := false
	for _, k := range Keys {
		if k == key {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown config key %q", key)
	}

	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	var current map[string]any
	if err := yaml.Unmarshal(b, &current); err != nil {
		return fmt.Errorf("unmarshal yaml: %w", err)
	}

	v := viper.New()
	for k, val := range current {
		v.Set(k, val)
	}
	v.Set(key, value)

	var out Global
	if err := v.Unmarshal(&out); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*c = out
	return nil
}
