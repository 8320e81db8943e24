// Package config loads planner settings from a YAML file, PLANNER_*
// environment variables, and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/signalsfoundry/tasking-planner/internal/htn"
	"github.com/signalsfoundry/tasking-planner/internal/logging"
	"github.com/signalsfoundry/tasking-planner/internal/observability"
)

// EnvPrefix is prepended to every environment override, e.g.
// PLANNER_BATCH_WORKERS.
const EnvPrefix = "PLANNER"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

var validate = validator.New()

// Config is the full planner configuration.
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Planner PlannerConfig `mapstructure:"planner"`
	Batch   BatchConfig   `mapstructure:"batch"`
	Server  ServerConfig  `mapstructure:"server"`
	Tracing TracingConfig `mapstructure:"tracing"`
	Store   StoreConfig   `mapstructure:"store"`
}

// LogConfig selects the log level and handler.
type LogConfig struct {
	Level     string `mapstructure:"level" validate:"oneof=debug info warn warning error"`
	Format    string `mapstructure:"format" validate:"oneof=text json"`
	AddSource bool   `mapstructure:"add_source"`
}

// PlannerConfig tunes the decomposition engine.
type PlannerConfig struct {
	// MaxExpansions caps agenda steps per run. Zero uses the engine default;
	// negative disables the cap.
	MaxExpansions int `mapstructure:"max_expansions"`
}

// BatchConfig controls directory runs.
type BatchConfig struct {
	Workers int    `mapstructure:"workers" validate:"gte=1,lte=256"`
	Pattern string `mapstructure:"pattern" validate:"required"`
	Report  string `mapstructure:"report"`
}

// ServerConfig holds planner-server listen addresses.
type ServerConfig struct {
	Listen        string `mapstructure:"listen" validate:"required"`
	MetricsListen string `mapstructure:"metrics_listen"`
}

// TracingConfig mirrors observability.TracingConfig with file/env keys.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"service_name" validate:"required"`
	Exporter    string  `mapstructure:"exporter" validate:"oneof=stdout otlp otlpgrpc"`
	Endpoint    string  `mapstructure:"endpoint"`
	SampleRatio float64 `mapstructure:"sample_ratio" validate:"gte=0,lte=1"`
}

// StoreConfig points at the run history database. An empty path disables
// history recording.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Planner: PlannerConfig{
			MaxExpansions: htn.DefaultMaxExpansions,
		},
		Batch: BatchConfig{
			Workers: 4,
			Pattern: "problem",
		},
		Server: ServerConfig{
			Listen:        ":50061",
			MetricsListen: ":9091",
		},
		Tracing: TracingConfig{
			ServiceName: "tasking-planner",
			Exporter:    "stdout",
			SampleRatio: 1,
		},
	}
}

// SetDefaults registers default values with v.
func SetDefaults(v *viper.Viper) {
	d := Default()

	// Log
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.add_source", d.Log.AddSource)

	// Planner
	v.SetDefault("planner.max_expansions", d.Planner.MaxExpansions)

	// Batch
	v.SetDefault("batch.workers", d.Batch.Workers)
	v.SetDefault("batch.pattern", d.Batch.Pattern)
	v.SetDefault("batch.report", d.Batch.Report)

	// Server
	v.SetDefault("server.listen", d.Server.Listen)
	v.SetDefault("server.metrics_listen", d.Server.MetricsListen)

	// Tracing
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.endpoint", d.Tracing.Endpoint)
	v.SetDefault("tracing.sample_ratio", d.Tracing.SampleRatio)

	// Store
	v.SetDefault("store.path", d.Store.Path)
}

// NewViper returns a viper instance with defaults and environment overrides
// registered. When file is empty, planner.yaml is looked up in the working
// directory and $HOME/.config/tasking-planner; a missing file is not an
// error. An explicit file must exist.
func NewViper(file string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
		return v, nil
	}

	v.SetConfigName("planner")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/tasking-planner")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Logging converts the log section into a logging.Config.
func (c *Config) Logging() logging.Config {
	return logging.Config{
		Level:     c.Log.Level,
		Format:    c.Log.Format,
		AddSource: c.Log.AddSource,
	}
}

// HTN converts the planner section into an htn.Config.
func (c *Config) HTN() htn.Config {
	return htn.Config{MaxExpansions: c.Planner.MaxExpansions}
}

// TracingConfig converts the tracing section into an observability.TracingConfig.
func (c *Config) TracingConfig() observability.TracingConfig {
	return observability.TracingConfig{
		Enabled:     c.Tracing.Enabled,
		ServiceName: c.Tracing.ServiceName,
		Exporter:    c.Tracing.Exporter,
		Endpoint:    c.Tracing.Endpoint,
		SampleRatio: c.Tracing.SampleRatio,
	}
}
