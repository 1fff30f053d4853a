// Package config provides Viper-based configuration loading for the Neonreach engine.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings for campaign persistence.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// ContentConfig holds the directories the engine loads game content from.
type ContentConfig struct {
	// ArchetypesDir contains one YAML file per playable archetype.
	ArchetypesDir string `mapstructure:"archetypes_dir"`
	// SkillsDir contains one YAML file per skill definition.
	SkillsDir string `mapstructure:"skills_dir"`
	// StatusesDir contains one YAML file per status effect definition.
	StatusesDir string `mapstructure:"statuses_dir"`
	// EnemiesDir contains one YAML file per enemy template.
	EnemiesDir string `mapstructure:"enemies_dir"`
	// ScriptsDir contains Lua scripts for skill predicates and status hooks.
	// Empty disables scripting.
	ScriptsDir string `mapstructure:"scripts_dir"`
}

// SimConfig holds settings for the encounter simulator.
type SimConfig struct {
	// Encounters is the number of encounters one sim run plays out.
	Encounters int `mapstructure:"encounters"`
	// MaxRounds aborts an encounter as a draw once exceeded.
	MaxRounds int `mapstructure:"max_rounds"`
	// Workers is the number of encounters simulated concurrently.
	// Each individual encounter remains single-threaded.
	Workers int `mapstructure:"workers"`
	// Seed selects the deterministic dice source. 0 uses crypto randomness.
	Seed int64 `mapstructure:"seed"`
	// Persist enables writing character progression and encounter records
	// to PostgreSQL. When false the database is never touched.
	Persist bool `mapstructure:"persist"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// Config is the top-level application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Content  ContentConfig  `mapstructure:"content"`
	Sim      SimConfig      `mapstructure:"sim"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateDatabase(c.Database); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateContent(c.Content); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateSim(c.Sim); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateContent(c ContentConfig) error {
	var errs []string
	if c.ArchetypesDir == "" {
		errs = append(errs, "content.archetypes_dir must not be empty")
	}
	if c.SkillsDir == "" {
		errs = append(errs, "content.skills_dir must not be empty")
	}
	if c.StatusesDir == "" {
		errs = append(errs, "content.statuses_dir must not be empty")
	}
	if c.EnemiesDir == "" {
		errs = append(errs, "content.enemies_dir must not be empty")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateSim(s SimConfig) error {
	var errs []string
	if s.Encounters < 1 {
		errs = append(errs, fmt.Sprintf("sim.encounters must be >= 1, got %d", s.Encounters))
	}
	if s.MaxRounds < 1 {
		errs = append(errs, fmt.Sprintf("sim.max_rounds must be >= 1, got %d", s.MaxRounds))
	}
	if s.Workers < 1 {
		errs = append(errs, fmt.Sprintf("sim.workers must be >= 1, got %d", s.Workers))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with NEONREACH_ prefix
	v.SetEnvPrefix("NEONREACH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "neonreach")
	v.SetDefault("database.password", "neonreach")
	v.SetDefault("database.name", "neonreach")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("content.archetypes_dir", "content/archetypes")
	v.SetDefault("content.skills_dir", "content/skills")
	v.SetDefault("content.statuses_dir", "content/statuses")
	v.SetDefault("content.enemies_dir", "content/enemies")
	v.SetDefault("content.scripts_dir", "content/scripts")

	v.SetDefault("sim.encounters", 1)
	v.SetDefault("sim.max_rounds", 50)
	v.SetDefault("sim.workers", 1)
	v.SetDefault("sim.seed", 0)
	v.SetDefault("sim.persist", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
