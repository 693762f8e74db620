package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. COCSTATS_SERVER_ADDR.
const EnvPrefix = "COCSTATS"

// DefaultFile is read from the working directory when no path is given.
const DefaultFile = "cocstats.yaml"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

type Config struct {
	Source SourceConfig `mapstructure:"source"`
	Server ServerConfig `mapstructure:"server"`
	View   ViewConfig   `mapstructure:"view"`
	Log    LogConfig    `mapstructure:"log"`
}

type SourceConfig struct {
	// Location is sheets://<id>, s3://bucket/key, an http(s) URL or a local
	// .xlsx or .csv path.
	Location string `mapstructure:"location"`
	// Range is the A1 range for Google Sheets and the sheet name for XLSX.
	Range string `mapstructure:"range"`
	// Credentials is a base64-encoded service-account JSON key.
	Credentials string        `mapstructure:"credentials"`
	Region      string        `mapstructure:"region"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	SessionTTL      time.Duration `mapstructure:"session_ttl"`
}

type ViewConfig struct {
	PageSize      int `mapstructure:"page_size"`
	AutoSelectMax int `mapstructure:"auto_select_max"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source.location", "")
	v.SetDefault("source.range", "")
	v.SetDefault("source.credentials", "")
	v.SetDefault("source.region", "us-east-1")
	v.SetDefault("source.timeout", 30*time.Second)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.session_ttl", 12*time.Hour)
	v.SetDefault("view.page_size", 10)
	v.SetDefault("view.auto_select_max", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Option adjusts the viper instance before the config is decoded.
type Option func(v *viper.Viper) error

// BindFlag lets a command-line flag override key when it is set.
func BindFlag(key string, flag *pflag.Flag) Option {
	return func(v *viper.Viper) error {
		if flag == nil {
			return nil
		}
		return v.BindPFlag(key, flag)
	}
}

// Load reads the config file at path (or DefaultFile when path is empty and
// the file exists), applies COCSTATS_* environment overrides and validates
// the result. GOOGLE_CREDENTIALS is honoured for source.credentials.
func Load(path string, opts ...Option) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("source.credentials", EnvPrefix+"_SOURCE_CREDENTIALS", "GOOGLE_CREDENTIALS"); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigFile(DefaultFile)
		if err := v.ReadInConfig(); err != nil && !isNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func isNotExist(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return true
	}
	return errors.Is(err, fs.ErrNotExist)
}

// Validate reports the first unusable setting.
func (c *Config) Validate() error {
	switch {
	case c.View.PageSize <= 0:
		return fmt.Errorf("%w: view.page_size must be positive, got %d", ErrInvalid, c.View.PageSize)
	case c.View.AutoSelectMax <= 0:
		return fmt.Errorf("%w: view.auto_select_max must be positive, got %d", ErrInvalid, c.View.AutoSelectMax)
	case c.Source.Timeout <= 0:
		return fmt.Errorf("%w: source.timeout must be positive", ErrInvalid)
	case c.Server.ShutdownTimeout <= 0:
		return fmt.Errorf("%w: server.shutdown_timeout must be positive", ErrInvalid)
	case c.Server.SessionTTL <= 0:
		return fmt.Errorf("%w: server.session_ttl must be positive", ErrInvalid)
	case c.Log.Format != "json" && c.Log.Format != "console":
		return fmt.Errorf("%w: log.format must be json or console, got %q", ErrInvalid, c.Log.Format)
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalid, err)
	}
	return nil
}
