// Package config loads the campus portal configuration from defaults, an
// optional YAML file, an optional .env file and CAMPUS_ environment variables.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvPrefix  = "CAMPUS"
	ConfigName = "campus"

	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Config holds the portal configuration.
type Config struct {
	Env       string          `mapstructure:"env"`
	API       APIConfig       `mapstructure:"api"`
	Session   SessionConfig   `mapstructure:"session"`
	Store     StoreConfig     `mapstructure:"store"`
	Log       LogConfig       `mapstructure:"log"`
	Simulator SimulatorConfig `mapstructure:"simulator"`
}

// APIConfig points at the account service.
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SessionConfig tunes bootstrap resolution.
type SessionConfig struct {
	ResolveTimeout time.Duration `mapstructure:"resolve_timeout"`
	ResolveRetries int           `mapstructure:"resolve_retries"`
	RetryBackoff   time.Duration `mapstructure:"retry_backoff"`
}

// StoreConfig selects where the bearer token is persisted.
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
	Key    string `mapstructure:"key"`
}

// LogConfig holds the log level.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// SimulatorConfig configures the local account service simulator.
type SimulatorConfig struct {
	Addr       string        `mapstructure:"addr"`
	SigningKey string        `mapstructure:"signing_key"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
	Seed       bool          `mapstructure:"seed"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")
	v.SetDefault("api.base_url", "http://localhost:8000/api")
	v.SetDefault("api.timeout", 10*time.Second)
	v.SetDefault("session.resolve_timeout", 10*time.Second)
	v.SetDefault("session.resolve_retries", 0)
	v.SetDefault("session.retry_backoff", 500*time.Millisecond)
	v.SetDefault("store.driver", StoreFile)
	v.SetDefault("store.path", "")
	v.SetDefault("store.key", "token")
	v.SetDefault("log.level", "info")
	v.SetDefault("simulator.addr", ":8000")
	v.SetDefault("simulator.signing_key", "")
	v.SetDefault("simulator.token_ttl", 24*time.Hour)
	v.SetDefault("simulator.seed", true)
}

// Load reads the configuration. configPath may name a YAML file, when empty
// campus.yaml is searched in the working directory and the user config dir.
// A .env.<env> file next to the config file is loaded first when present.
func Load(configPath string) (*Config, error) {
	env := strings.ToLower(os.Getenv(EnvPrefix + "_ENV"))
	if env == "" {
		env = "dev"
	}

	if err := loadDotEnv(configPath, env); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)
	v.Set("env", env)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, ConfigName))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to read config file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to decode config")
	}

	if cfg.Store.Path == "" {
		cfg.Store.Path = DefaultStorePath(cfg.Store.Driver)
	}
	cfg.Store.Path = expandHome(cfg.Store.Path)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration values.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.API),
		validation.Field(&c.Session),
		validation.Field(&c.Store),
		validation.Field(&c.Log),
	)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid configuration")
	}
	return nil
}

func (a APIConfig) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.BaseURL, validation.Required, is.RequestURL),
		validation.Field(&a.Timeout, validation.Required, validation.Min(time.Millisecond)),
	)
}

func (s SessionConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.ResolveTimeout, validation.Min(time.Duration(0))),
		validation.Field(&s.ResolveRetries, validation.Min(0), validation.Max(10)),
		validation.Field(&s.RetryBackoff, validation.Min(time.Duration(0))),
	)
}

func (s StoreConfig) Validate() error {
	var pathRules []validation.Rule
	if s.Driver != StoreMemory {
		pathRules = append(pathRules, validation.Required)
	}
	return validation.ValidateStruct(&s,
		validation.Field(&s.Driver, validation.Required, validation.In(StoreFile, StoreSQLite, StoreMemory)),
		validation.Field(&s.Path, pathRules...),
		validation.Field(&s.Key, validation.Required),
	)
}

func (l LogConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.In("debug", "info", "error")),
	)
}

func loadDotEnv(configPath, env string) error {
	dir := "."
	if configPath != "" {
		dir = filepath.Dir(configPath)
	}

	path := filepath.Join(dir, ".env."+env)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to stat env file")
	}

	if err := godotenv.Load(path); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to load env file")
	}
	return nil
}

// DefaultStorePath returns the token location used by driver when no path
// is configured.
func DefaultStorePath(driver string) string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	switch driver {
	case StoreSQLite:
		return filepath.Join(dir, ConfigName, "session.db")
	case StoreMemory:
		return ""
	default:
		return filepath.Join(dir, ConfigName, "session.json")
	}
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
