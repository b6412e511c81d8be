package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Pipeline    PipelineConfig    `toml:"pipeline"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Web         WebConfig         `toml:"web"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	YouTube YouTubeConfig `toml:"youtube"`
}

// YouTubeConfig points at the OAuth client secret and the persisted user token.
type YouTubeConfig struct {
	ClientSecretPath string `toml:"client_secret_path"`
	TokenPath        string `toml:"token_path"`
}

// PipelineConfig tunes the update worker pool.
type PipelineConfig struct {
	Workers           int     `toml:"workers"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	CallTimeout       string  `toml:"call_timeout"`
	DefaultCategory   string  `toml:"default_category"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains the OAuth callback server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// WebConfig contains the live event stream settings.
type WebConfig struct {
	Listen string `toml:"listen"`
}

// Timeout parses CallTimeout. An empty value yields zero (no deadline).
func (p PipelineConfig) Timeout() (time.Duration, error) {
	if p.CallTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(p.CallTimeout)
	if err != nil {
		return 0, fmt.Errorf("%w: call_timeout %q: %v", ErrInvalidConfig, p.CallTimeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: call_timeout must not be negative", ErrInvalidConfig)
	}
	return d, nil
}

// RedirectURL is the loopback callback address registered with the OAuth client.
func (s ServerConfig) RedirectURL() string {
	return fmt.Sprintf("http://%s:%d/callback", s.Host, s.Port)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Credentials.YouTube.TokenPath == "" {
		return fmt.Errorf("%w: credentials.youtube.token_path is empty", ErrInvalidConfig)
	}
	if c.Pipeline.Workers < 1 || c.Pipeline.Workers > 8 {
		return fmt.Errorf("%w: pipeline.workers must be between 1 and 8, got %d", ErrInvalidConfig, c.Pipeline.Workers)
	}
	if c.Pipeline.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: pipeline.requests_per_second must not be negative", ErrInvalidConfig)
	}
	if _, err := c.Pipeline.Timeout(); err != nil {
		return err
	}
	if c.Database.Path == "" {
		return fmt.Errorf("%w: database.path is empty", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig encodes config as TOML and writes it to path.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
