// Package config loads server configuration from a YAML file and LEDGERLINE_
// environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ledgerline/ledgerline-server/internal/game"
	"github.com/spf13/viper"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is the full server configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Rules   RulesConfig   `mapstructure:"rules"`
	Storage StorageConfig `mapstructure:"storage"`
	Journal JournalConfig `mapstructure:"journal"`
	Catalog CatalogConfig `mapstructure:"catalog"`
}

type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// RulesConfig mirrors game.RulesConfig.
type RulesConfig struct {
	CapMax        int64         `mapstructure:"cap_max"`
	RevenueGoal   int64         `mapstructure:"revenue_goal"`
	BaseCapital   int64         `mapstructure:"base_capital"`
	CapitalGrowth int64         `mapstructure:"capital_growth"`
	OpeningHand   int           `mapstructure:"opening_hand"`
	DrawPerTurn   int           `mapstructure:"draw_per_turn"`
	RecentSaleTTL time.Duration `mapstructure:"recent_sale_ttl"`
}

type StorageConfig struct {
	Driver     string         `mapstructure:"driver"`
	SQLitePath string         `mapstructure:"sqlite_path"`
	Postgres   PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	URL             string        `mapstructure:"url"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

type JournalConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

type CatalogConfig struct {
	// Path to a catalogue file. Empty uses the built-in catalogue.
	Path string `mapstructure:"path"`
}

// Load reads configuration from path, then applies environment overrides.
// An empty path uses defaults and environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("LEDGERLINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := game.DefaultRules()

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("server.allowed_origins", []string{})

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("rules.cap_max", def.CapMax)
	v.SetDefault("rules.revenue_goal", def.RevenueGoal)
	v.SetDefault("rules.base_capital", def.BaseCapital)
	v.SetDefault("rules.capital_growth", def.CapitalGrowth)
	v.SetDefault("rules.opening_hand", def.OpeningHand)
	v.SetDefault("rules.draw_per_turn", def.DrawPerTurn)
	v.SetDefault("rules.recent_sale_ttl", def.RecentSaleTTL)

	v.SetDefault("storage.driver", DriverMemory)
	v.SetDefault("storage.sqlite_path", "data/ledgerline.db")
	v.SetDefault("storage.postgres.url", "")
	v.SetDefault("storage.postgres.max_conns", 10)
	v.SetDefault("storage.postgres.min_conns", 1)
	v.SetDefault("storage.postgres.max_conn_lifetime", time.Hour)
	v.SetDefault("storage.postgres.max_conn_idle_time", 30*time.Minute)

	v.SetDefault("journal.enabled", false)
	v.SetDefault("journal.dir", "data/journals")

	v.SetDefault("catalog.path", "")
}

// Validate checks values that defaults cannot repair.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Address == "" {
		errs = append(errs, errors.New("server.address is required"))
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		errs = append(errs, fmt.Errorf("server.mode must be debug, release or test, got %q", c.Server.Mode))
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level %q is not supported", c.Logging.Level))
	}

	if c.Rules.CapMax <= 0 {
		errs = append(errs, errors.New("rules.cap_max must be positive"))
	}
	if c.Rules.RevenueGoal <= 0 {
		errs = append(errs, errors.New("rules.revenue_goal must be positive"))
	}
	if c.Rules.BaseCapital < 0 || c.Rules.BaseCapital > c.Rules.CapMax {
		errs = append(errs, fmt.Errorf("rules.base_capital must be within [0,%d]", c.Rules.CapMax))
	}
	if c.Rules.OpeningHand < 0 || c.Rules.DrawPerTurn < 0 {
		errs = append(errs, errors.New("rules.opening_hand and rules.draw_per_turn must not be negative"))
	}

	switch c.Storage.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			errs = append(errs, errors.New("storage.sqlite_path is required for the sqlite driver"))
		}
	case DriverPostgres:
		if c.Storage.Postgres.URL == "" {
			errs = append(errs, errors.New("storage.postgres.url is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.driver %q", c.Storage.Driver))
	}

	if c.Journal.Enabled && c.Journal.Dir == "" {
		errs = append(errs, errors.New("journal.dir is required when the journal is enabled"))
	}
	return errors.Join(errs...)
}

// GameRules converts the rules section for the engine.
func (r RulesConfig) GameRules() game.RulesConfig {
	return game.RulesConfig{
		CapMax:        r.CapMax,
		RevenueGoal:   r.RevenueGoal,
		BaseCapital:   r.BaseCapital,
		CapitalGrowth: r.CapitalGrowth,
		OpeningHand:   r.OpeningHand,
		DrawPerTurn:   r.DrawPerTurn,
		RecentSaleTTL: r.RecentSaleTTL,
	}
}
