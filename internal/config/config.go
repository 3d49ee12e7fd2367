// Package config loads and validates the service configuration.
// Precedence follows the usual viper order: explicit flags, then
// environment, then config file, then defaults. The resulting Config is
// immutable for the process lifetime and passed explicitly to each
// component.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full service configuration.
type Config struct {
	LDAP LDAPConfig `mapstructure:"ldap"`
	HTTP HTTPConfig `mapstructure:"http"`
	Log  LogConfig  `mapstructure:"log"`
}

// LDAPConfig holds the directory connection parameters.
type LDAPConfig struct {
	URL             string        `mapstructure:"url"`
	BaseDN          string        `mapstructure:"base_dn"`
	BindDN          string        `mapstructure:"bind_dn"`
	BindPassword    string        `mapstructure:"bind_password"`
	UserSearchBase  string        `mapstructure:"user_search_base"`
	GroupSearchBase string        `mapstructure:"group_search_base"`
	RequiredGroup   string        `mapstructure:"required_group"`
	Domain          string        `mapstructure:"domain"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
}

// HTTPConfig holds the HTTP listener settings.
type HTTPConfig struct {
	Listen          string        `mapstructure:"listen"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

const envPrefix = "LDAP_REST_AUTH"

// Load reads the configuration from the given file (optional), the
// environment and the defaults, and validates it.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("ldap.connect_timeout", 10*time.Second)
	v.SetDefault("ldap.read_timeout", 30*time.Second)
	v.SetDefault("http.listen", ":8080")
	v.SetDefault("http.shutdown_timeout", 15*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal only sees keys viper knows about, so keys without
	// defaults need an explicit env binding.
	for _, key := range []string{
		"ldap.url", "ldap.base_dn", "ldap.bind_dn", "ldap.bind_password",
		"ldap.user_search_base", "ldap.group_search_base",
		"ldap.required_group", "ldap.domain",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that every parameter the directory client needs is set.
func (c *Config) Validate() error {
	var errs []error

	if c.LDAP.URL == "" {
		errs = append(errs, errors.New("ldap.url is required"))
	}
	if c.LDAP.BaseDN == "" {
		errs = append(errs, errors.New("ldap.base_dn is required"))
	}
	if c.LDAP.BindDN == "" {
		errs = append(errs, errors.New("ldap.bind_dn is required"))
	}
	if c.LDAP.BindPassword == "" {
		errs = append(errs, errors.New("ldap.bind_password is required"))
	}
	if c.LDAP.RequiredGroup == "" {
		errs = append(errs, errors.New("ldap.required_group is required"))
	}
	if c.LDAP.Domain == "" {
		errs = append(errs, errors.New("ldap.domain is required"))
	}

	return errors.Join(errs...)
}
