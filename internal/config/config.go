// Package config loads mailsheets settings from defaults, an optional YAML
// file, MAILSHEETS_* environment variables and bound command-line flags.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// FileName is the config file looked up in the project root (without extension).
const FileName = "mailsheets"

// Config holds all configuration for mailsheets.
type Config struct {
	Sheet   SheetConfig   `mapstructure:"sheet"`
	Gmail   GmailConfig   `mapstructure:"gmail"`
	Auth    AuthConfig    `mapstructure:"auth"`
	State   StateConfig   `mapstructure:"state"`
	Watch   WatchConfig   `mapstructure:"watch"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Log     LogConfig     `mapstructure:"log"`
}

// SheetConfig names the destination spreadsheet.
type SheetConfig struct {
	ID    string `mapstructure:"id"`
	Range string `mapstructure:"range"`
}

// GmailConfig controls which mailbox is read.
type GmailConfig struct {
	User       string `mapstructure:"user"`
	MaxResults int    `mapstructure:"max_results"`
}

// AuthConfig locates the OAuth client secret and saved token.
type AuthConfig struct {
	Credentials string `mapstructure:"credentials"`
	Token       string `mapstructure:"token"`
}

// StateConfig locates the checkpoint database.
type StateConfig struct {
	Path string `mapstructure:"path"`
}

// WatchConfig holds the cron schedule used by 'ms watch'.
type WatchConfig struct {
	Schedule string `mapstructure:"schedule"`
}

// MetricsConfig enables the Prometheus textfile export.
type MetricsConfig struct {
	File string `mapstructure:"file"`
}

// LogConfig sets the diagnostic log level.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("sheet.id", "")
	v.SetDefault("sheet.range", "Sheet1!A:D")
	v.SetDefault("gmail.user", "me")
	v.SetDefault("gmail.max_results", 0)
	v.SetDefault("auth.credentials", filepath.Join("credentials", "credentials.json"))
	v.SetDefault("auth.token", "")
	v.SetDefault("state.path", "")
	v.SetDefault("watch.schedule", "@every 5m")
	v.SetDefault("metrics.file", "")
	v.SetDefault("log.level", "warn")
}

// BindFlags maps command-line flags onto config keys. Flags missing from fs
// are skipped.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet, keys map[string]string) error {
	for key, flag := range keys {
		f := fs.Lookup(flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	return nil
}

// Load reads configuration. configFile may be empty, in which case
// mailsheets.yaml is looked up in searchDirs and is optional.
func Load(v *viper.Viper, configFile string, searchDirs ...string) (*Config, error) {
	SetDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		for _, dir := range searchDirs {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	// Environment variables override the config file.
	v.SetEnvPrefix("MAILSHEETS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the settings a sync run needs.
func (c *Config) Validate() error {
	if c.Sheet.ID == "" {
		return errors.New("sheet.id is required (set it in mailsheets.yaml or MAILSHEETS_SHEET_ID)")
	}
	if c.Auth.Credentials == "" {
		return errors.New("auth.credentials is required")
	}
	if c.Gmail.MaxResults < 0 {
		return fmt.Errorf("gmail.max_results must be >= 0, got %d", c.Gmail.MaxResults)
	}
	return nil
}

// Resolve makes relative file paths absolute against root.
func (c *Config) Resolve(root string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(root, p)
	}
	c.Auth.Credentials = abs(c.Auth.Credentials)
	c.Auth.Token = abs(c.Auth.Token)
	c.State.Path = abs(c.State.Path)
	c.Metrics.File = abs(c.Metrics.File)
}

// Sample is written by 'ms init'.
const Sample = `# mailsheets configuration
sheet:
  id: ""            # spreadsheet ID from the sheet URL
  range: Sheet1!A:D
gmail:
  user: me
  max_results: 0    # 0 = every unread message
auth:
  credentials: credentials/credentials.json
  token: ""         # default: token.json next to credentials
watch:
  schedule: "@every 5m"
metrics:
  file: ""          # Prometheus textfile, e.g. /var/lib/node_exporter/mailsheets.prom
log:
  level: warn
`
