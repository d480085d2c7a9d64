package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/yashdodwani/gridflow/internal/civiltime"
	"github.com/yashdodwani/gridflow/internal/tariff"
)

// EnvPrefix is prepended to every environment override, e.g. GRIDFLOW_PORT.
const EnvPrefix = "GRIDFLOW"

// Config is the resolved runtime configuration shared by the CLI and daemon.
type Config struct {
	Zone           string        `mapstructure:"zone"`
	Interval       time.Duration `mapstructure:"interval"`
	Granularity    time.Duration `mapstructure:"granularity"`
	EmissionFactor float64       `mapstructure:"emission_factor"` // kg CO2 per kWh
	Currency       string        `mapstructure:"currency"`
	DBPath         string        `mapstructure:"db_path"`
	Port           int           `mapstructure:"port"`
	SimulateEvery  time.Duration `mapstructure:"simulate_every"`
	LogLevel       string        `mapstructure:"log_level"`
	LogFormat      string        `mapstructure:"log_format"`
	Tariff         []BandConfig  `mapstructure:"tariff"`
}

// BandConfig is one tariff band as written in the config file.
type BandConfig struct {
	Start string  `mapstructure:"start" yaml:"start"`
	End   string  `mapstructure:"end" yaml:"end"`
	Price float64 `mapstructure:"price" yaml:"price"`
	Label string  `mapstructure:"label" yaml:"label,omitempty"`
}

// DefaultTariff is the time-of-day table used when none is configured.
var DefaultTariff = []BandConfig{
	{Start: "00:00", End: "06:00", Price: 3, Label: "night"},
	{Start: "06:00", End: "10:00", Price: 6, Label: "morning"},
	{Start: "10:00", End: "18:00", Price: 5, Label: "day"},
	{Start: "18:00", End: "22:00", Price: 10, Label: "peak"},
	{Start: "22:00", End: "24:00", Price: 3, Label: "night"},
}

// Dir returns the per-user config directory ($HOME/.gridflow).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".gridflow"
	}
	return filepath.Join(home, ".gridflow")
}

// New returns a viper instance carrying the defaults and env binding.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("zone", "Asia/Kolkata")
	v.SetDefault("interval", civiltime.DefaultSlot)
	v.SetDefault("granularity", civiltime.DefaultSlot)
	v.SetDefault("emission_factor", 0.82)
	v.SetDefault("currency", "₹")
	v.SetDefault("db_path", filepath.Join(Dir(), "gridflow.db"))
	v.SetDefault("port", 8080)
	v.SetDefault("simulate_every", civiltime.DefaultSlot)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	tariffDefault := make([]map[string]any, len(DefaultTariff))
	for i, b := range DefaultTariff {
		tariffDefault[i] = map[string]any{"start": b.Start, "end": b.End, "price": b.Price, "label": b.Label}
	}
	v.SetDefault("tariff", tariffDefault)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads cfgFile (or config.yaml from Dir() when empty) into v and
// decodes the result. A missing default config file is not an error.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(Dir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the configuration without opening anything.
func (c *Config) Validate() error {
	if _, err := civiltime.LoadZone(c.Zone); err != nil {
		return fmt.Errorf("config zone: %w", err)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("config interval must be positive, got %s", c.Interval)
	}
	if c.Granularity <= 0 {
		return fmt.Errorf("config granularity must be positive, got %s", c.Granularity)
	}
	if c.EmissionFactor < 0 {
		return fmt.Errorf("config emission_factor must not be negative, got %v", c.EmissionFactor)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("config port out of range: %d", c.Port)
	}
	if _, err := c.Schedule(); err != nil {
		return fmt.Errorf("config tariff: %w", err)
	}
	return nil
}

// Bands converts the configured tariff table.
func (c *Config) Bands() ([]tariff.Band, error) {
	bands := make([]tariff.Band, 0, len(c.Tariff))
	for i, bc := range c.Tariff {
		start, err := civiltime.ParseTimeOfDay(bc.Start)
		if err != nil {
			return nil, fmt.Errorf("band %d start: %w", i, err)
		}
		end, err := civiltime.ParseTimeOfDay(bc.End)
		if err != nil {
			return nil, fmt.Errorf("band %d end: %w", i, err)
		}
		bands = append(bands, tariff.Band{Start: start, End: end, PricePerKWh: bc.Price, Label: bc.Label})
	}
	return bands, nil
}

// Schedule builds the configured tariff table into an immutable schedule.
func (c *Config) Schedule() (*tariff.Schedule, error) {
	bands, err := c.Bands()
	if err != nil {
		return nil, err
	}
	return tariff.Build(bands)
}

// Resolver builds the civil-time resolver for the configured zone. A nil
// clock means the system clock.
func (c *Config) Resolver(clock civiltime.Clock) (*civiltime.Resolver, error) {
	loc, err := civiltime.LoadZone(c.Zone)
	if err != nil {
		return nil, err
	}
	return civiltime.NewResolver(loc, clock)
}

// BandConfigs renders bands back into config form, e.g. for export.
func BandConfigs(bands []tariff.Band) []BandConfig {
	out := make([]BandConfig, len(bands))
	for i, b := range bands {
		out[i] = BandConfig{Start: b.Start.String(), End: b.End.String(), Price: b.PricePerKWh, Label: b.Label}
	}
	return out
}
