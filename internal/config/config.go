// ABOUTME: Configuration loading and parsing for herald
// ABOUTME: Supports YAML files with environment variable expansion and validation

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete herald configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Discord   DiscordConfig   `yaml:"discord"`
	Database  DatabaseConfig  `yaml:"database"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds the interactions endpoint address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`

	// ReplyWindow bounds interaction handling; the platform discards
	// replies after three seconds, so that is also the default.
	ReplyWindow    time.Duration `yaml:"-"`
	ReplyWindowRaw string        `yaml:"reply_window"`
}

// DiscordConfig holds the platform application credentials
type DiscordConfig struct {
	PublicKey     string `yaml:"public_key"` // hex Ed25519 key for webhook verification
	BotToken      string `yaml:"bot_token"`
	ApplicationID string `yaml:"application_id"`

	// OwnerID, when set, always holds the moderation capability.
	OwnerID string `yaml:"owner_id"`
}

// DatabaseConfig selects and configures the config store backend
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "redis"

	// sqlite
	Path string `yaml:"path"`

	// redis
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// DashboardConfig holds web dashboard session configuration
type DashboardConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	BaseURL   string `yaml:"base_url"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.parseDurations(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment
// variable values. Unset variables expand to the empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

func (c *Config) parseDurations() error {
	if c.Server.ReplyWindowRaw != "" {
		d, err := time.ParseDuration(c.Server.ReplyWindowRaw)
		if err != nil {
			return fmt.Errorf("parsing reply_window %q: %w", c.Server.ReplyWindowRaw, err)
		}
		c.Server.ReplyWindow = d
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = "0.0.0.0:8080"
	}
	if c.Server.ReplyWindow == 0 {
		c.Server.ReplyWindow = 3 * time.Second
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Discord.PublicKey == "" {
		return fmt.Errorf("discord.public_key is required")
	}
	if c.Discord.BotToken == "" {
		return fmt.Errorf("discord.bot_token is required")
	}
	if c.Discord.ApplicationID == "" {
		return fmt.Errorf("discord.application_id is required")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for the sqlite driver")
		}
	case "redis":
		if c.Database.Addr == "" {
			return fmt.Errorf("database.addr is required for the redis driver")
		}
	default:
		return fmt.Errorf("database.driver must be \"sqlite\" or \"redis\", got %q", c.Database.Driver)
	}

	if c.Dashboard.JWTSecret != "" && len(c.Dashboard.JWTSecret) < 32 {
		return fmt.Errorf("dashboard.jwt_secret must be at least 32 bytes")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}

	return nil
}
