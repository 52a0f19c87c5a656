package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const EnvPrefix = "MATCHDAY"

// Config holds every configuration value of the application.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Awards     AwardsConfig     `mapstructure:"awards"`
	Finance    FinanceConfig    `mapstructure:"finance"`
	Archive    ArchiveConfig    `mapstructure:"archive"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
	// SavePath is loaded at startup when set.
	SavePath string `mapstructure:"save_path"`
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"`
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type SimulationConfig struct {
	Workers             int           `mapstructure:"workers"`
	MatchTimeout        time.Duration `mapstructure:"match_timeout"`
	MOTMCount           int           `mapstructure:"motm_count"`
	Seed                int64         `mapstructure:"seed"`
	AutoAdvanceInterval time.Duration `mapstructure:"auto_advance_interval"`
}

type AwardsConfig struct {
	MinMatches int `mapstructure:"min_matches"`
}

// FinanceConfig keeps prize money as strings so large amounts survive the
// float conversion viper applies to YAML numbers.
type FinanceConfig struct {
	PrizeLeague      string `mapstructure:"prize_league"`
	PrizeCup         string `mapstructure:"prize_cup"`
	PrizeCombination string `mapstructure:"prize_combination"`
}

type ArchiveConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Bucket          string `mapstructure:"bucket"`
	PublicBaseURL   string `mapstructure:"public_base_url"`
	Prefix          string `mapstructure:"prefix"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
}

// Enabled reports whether season archives should be uploaded.
func (a ArchiveConfig) Enabled() bool {
	return a.Bucket != ""
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Prizes parses the configured prize amounts.
func (f FinanceConfig) Prizes() (league, cup, combination decimal.Decimal, err error) {
	if league, err = decimal.NewFromString(f.PrizeLeague); err != nil {
		return league, cup, combination, fmt.Errorf("invalid finance.prize_league %q: %w", f.PrizeLeague, err)
	}
	if cup, err = decimal.NewFromString(f.PrizeCup); err != nil {
		return league, cup, combination, fmt.Errorf("invalid finance.prize_cup %q: %w", f.PrizeCup, err)
	}
	if combination, err = decimal.NewFromString(f.PrizeCombination); err != nil {
		return league, cup, combination, fmt.Errorf("invalid finance.prize_combination %q: %w", f.PrizeCombination, err)
	}
	return league, cup, combination, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.save_path", "")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "matchday.db")
	v.SetDefault("database.max_open_conns", 25)

	v.SetDefault("simulation.workers", runtime.NumCPU())
	v.SetDefault("simulation.match_timeout", 5*time.Second)
	v.SetDefault("simulation.motm_count", 2)
	v.SetDefault("simulation.seed", 0)
	v.SetDefault("simulation.auto_advance_interval", time.Duration(0))

	v.SetDefault("awards.min_matches", 10)

	v.SetDefault("finance.prize_league", "2000000")
	v.SetDefault("finance.prize_cup", "5000000")
	v.SetDefault("finance.prize_combination", "10000000")

	v.SetDefault("archive.endpoint", "")
	v.SetDefault("archive.region", "auto")
	v.SetDefault("archive.access_key_id", "")
	v.SetDefault("archive.secret_access_key", "")
	v.SetDefault("archive.bucket", "")
	v.SetDefault("archive.public_base_url", "")
	v.SetDefault("archive.prefix", "")
	v.SetDefault("archive.use_path_style", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Load reads .env (if present), then config/config.yaml (if present), then
// MATCHDAY_* environment variables, in increasing priority.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return LoadFrom("./config")
}

// LoadFrom is Load without the .env step, reading config.yaml from dir.
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.Database.Driver)
	}
	if c.Database.Driver == "postgres" && c.Database.DSN == "" {
		return errors.New("database.dsn is required for postgres")
	}
	if c.Simulation.Workers <= 0 {
		return fmt.Errorf("simulation.workers must be positive, got %d", c.Simulation.Workers)
	}
	if c.Simulation.MatchTimeout <= 0 {
		return fmt.Errorf("simulation.match_timeout must be positive, got %s", c.Simulation.MatchTimeout)
	}
	if c.Simulation.MOTMCount < 1 {
		return fmt.Errorf("simulation.motm_count must be at least 1, got %d", c.Simulation.MOTMCount)
	}
	if c.Simulation.AutoAdvanceInterval < 0 {
		return fmt.Errorf("simulation.auto_advance_interval cannot be negative")
	}
	if c.Awards.MinMatches < 1 {
		return fmt.Errorf("awards.min_matches must be at least 1, got %d", c.Awards.MinMatches)
	}
	league, cup, combination, err := c.Finance.Prizes()
	if err != nil {
		return err
	}
	if !(league.LessThan(cup) && cup.LessThan(combination)) {
		return fmt.Errorf("prize tiers must increase league < cup < combination, got %s / %s / %s", league, cup, combination)
	}
	if c.Archive.Enabled() && c.Archive.PublicBaseURL == "" {
		return errors.New("archive.public_base_url is required when archive.bucket is set")
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text, got %q", c.Log.Format)
	}
	return nil
}
