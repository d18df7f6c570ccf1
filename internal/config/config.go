package config

import (
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	API             APIConfig           `yaml:"api"`
	Refresh         RefreshConfig       `yaml:"refresh"`
	Database        DatabaseConfig      `yaml:"database"`
	Log             LogConfig           `yaml:"log"`
	Control         ControlConfig       `yaml:"control"`
	Tray            TrayConfig          `yaml:"tray"`
	Ledger          LedgerConfig        `yaml:"ledger"`
	EventBus        EventBusConfig      `yaml:"eventbus"`
	Notifications   NotificationsConfig `yaml:"notifications"`
	ShutdownTimeout Duration            `yaml:"shutdown_timeout"` // General shutdown timeout for graceful stops
}

// APIConfig contains smart-home cloud API settings
type APIConfig struct {
	BaseURL      string   `yaml:"base_url"`
	Timeout      Duration `yaml:"timeout"`        // HTTP timeout for cloud API requests
	RateLimitRPS float64  `yaml:"rate_limit_rps"` // Outbound request rate limit
}

// RefreshConfig contains silent refresh settings
type RefreshConfig struct {
	Interval Duration `yaml:"interval"` // Silent refresh interval
	Backfill bool     `yaml:"backfill"` // Fetch devices referenced by rooms but missing from the bulk snapshot
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level   string `yaml:"level"`
	UseJSON bool   `yaml:"json"`
	Colors  bool   `yaml:"colors"`
}

// GetLevel returns the configured log level with default
func (c *LogConfig) GetLevel() string {
	if c.Level == "" {
		return "info"
	}
	return c.Level
}

// ControlConfig contains local control server settings
type ControlConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// TrayConfig contains the MQTT tray bridge settings.
// The bridge is disabled unless a broker is configured.
type TrayConfig struct {
	Broker    string `yaml:"broker"`
	ClientID  string `yaml:"client_id"`
	TopicRoot string `yaml:"topic_root"`
}

// Enabled reports whether the tray bridge should run
func (c *TrayConfig) Enabled() bool {
	return c.Broker != ""
}

// LedgerConfig contains event ledger settings
type LedgerConfig struct {
	CleanupInterval Duration `yaml:"cleanup_interval"`
	RetentionDays   int      `yaml:"retention_days"`
}

// EventBusConfig contains event bus settings
type EventBusConfig struct {
	Workers   int `yaml:"workers"`    // Number of worker goroutines (default: 2)
	QueueSize int `yaml:"queue_size"` // Event queue size (default: 64)
}

// GetWorkers returns worker count with default
func (c *EventBusConfig) GetWorkers() int {
	if c.Workers <= 0 {
		return 2
	}
	return c.Workers
}

// GetQueueSize returns queue size with default
func (c *EventBusConfig) GetQueueSize() int {
	if c.QueueSize <= 0 {
		return 64
	}
	return c.QueueSize
}

// NotificationsConfig contains toast notification settings
type NotificationsConfig struct {
	DismissAfter Duration `yaml:"dismiss_after"` // Auto-dismiss delay reported to surfaces
}

// Duration is a wrapper around time.Duration for YAML unmarshalling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// GetShutdownTimeout returns the shutdown timeout with default
func (c *Config) GetShutdownTimeout() time.Duration {
	if c.ShutdownTimeout == 0 {
		return 5 * time.Second
	}
	return c.ShutdownTimeout.Duration()
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a configuration with all defaults applied, for running
// without a config file.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Database.Path == "" {
		c.Database.Path = "./homepanel.sqlite"
	}

	// API defaults
	if c.API.BaseURL == "" {
		c.API.BaseURL = "https://api.iot.yandex.net/v1.0"
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = Duration(30 * time.Second)
	}
	if c.API.RateLimitRPS == 0 {
		c.API.RateLimitRPS = 5.0
	}

	// Refresh defaults
	if c.Refresh.Interval == 0 {
		c.Refresh.Interval = Duration(15 * time.Second)
	}

	// Control server defaults
	if c.Control.Port == 0 {
		c.Control.Port = 8490
	}
	if c.Control.Host == "" {
		c.Control.Host = "127.0.0.1"
	}

	// Tray bridge defaults
	if c.Tray.ClientID == "" {
		c.Tray.ClientID = "homepanel"
	}
	if c.Tray.TopicRoot == "" {
		c.Tray.TopicRoot = "homepanel"
	}

	// Ledger defaults
	if c.Ledger.CleanupInterval == 0 {
		c.Ledger.CleanupInterval = Duration(24 * time.Hour)
	}
	if c.Ledger.RetentionDays == 0 {
		c.Ledger.RetentionDays = 30
	}

	// Notification defaults
	if c.Notifications.DismissAfter == 0 {
		c.Notifications.DismissAfter = Duration(5 * time.Second)
	}

	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = Duration(5 * time.Second)
	}
}

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}
func expandEnvVars(input string) string {
	// Match ${VAR} or ${VAR:default}
	re := regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

	return re.ReplaceAllStringFunc(input, func(match string) string {
		parts := re.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultVal := ""
		if len(parts) >= 3 {
			defaultVal = parts[2]
		}

		if val := os.Getenv(varName); val != "" {
			return val
		}
		return defaultVal
	})
}
