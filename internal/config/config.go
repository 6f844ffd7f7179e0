package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"

	"bankroll/internal/settings"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for bankroll.
type Config struct {
	// Lenient skips malformed records with a warning instead of failing.
	Lenient bool    `yaml:"lenient"`
	Logging Logging `yaml:"logging"`
	Server  Server  `yaml:"server"`

	// Accounts holds per-source settings: section name -> setting name ->
	// value. Section and setting names match those declared by each source.
	Accounts map[string]map[string]string `yaml:"accounts"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level" default:"info"`
	Format string `yaml:"format" default:"json"`
}

// Server holds network listener configuration for `bankroll serve`.
type Server struct {
	Host     string `yaml:"host" default:"127.0.0.1"`
	Port     int    `yaml:"port" default:"8080"`
	GRPCPort int    `yaml:"grpc_port" default:"9090"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration files in order, later files overriding
// earlier ones (account settings are merged key by key), then applies
// defaults and environment variable overrides.
func Load(paths ...string) (*Config, error) {
	cfg := &Config{}
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}

		accounts := cfg.Accounts
		cfg.Accounts = nil
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		cfg.Accounts = mergeAccounts(accounts, cfg.Accounts)
	}

	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("applying defaults: %w", err)
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func mergeAccounts(base, over map[string]map[string]string) map[string]map[string]string {
	out := make(map[string]map[string]string, len(base)+len(over))
	for _, layer := range []map[string]map[string]string{base, over} {
		for section, values := range layer {
			if out[section] == nil {
				out[section] = make(map[string]string, len(values))
			}
			for k, v := range values {
				out[section][k] = v
			}
		}
	}
	return out
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	if v := os.Getenv("BANKROLL_LENIENT"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("BANKROLL_LENIENT: %w", err)
		}
		cfg.Lenient = b
	}

	// Standard Alpaca env vars, the canonical names used by the SDK.
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.setAccount("Alpaca", "API key", v)
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.setAccount("Alpaca", "API secret", v)
	}
	return nil
}

func (c *Config) setAccount(section, name, value string) {
	if c.Accounts == nil {
		c.Accounts = make(map[string]map[string]string)
	}
	if c.Accounts[section] == nil {
		c.Accounts[section] = make(map[string]string)
	}
	c.Accounts[section][name] = value
}

// Settings flattens the account sections into a settings map and layers the
// given overrides (for example command-line flags) on top, in order.
func (c *Config) Settings(overrides ...settings.Map) settings.Map {
	base := make(settings.Map)
	for section, values := range c.Accounts {
		for name, v := range values {
			base[settings.Key{Section: section, Name: name}] = v
		}
	}
	return settings.Merge(append([]settings.Map{base}, overrides...)...)
}
