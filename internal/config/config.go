// Package config provides Viper-based configuration loading for the MUD server.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// TelnetConfig holds Telnet acceptor settings.
type TelnetConfig struct {
	// Host is the bind address for the Telnet listener.
	Host string `mapstructure:"host"`
	// Port is the TCP port for the Telnet listener.
	Port int `mapstructure:"port"`
	// ReadTimeout is the per-read timeout for Telnet connections.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the per-write timeout for Telnet connections.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr returns the "host:port" listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (t TelnetConfig) Addr() string {
	return fmt.Sprintf("%s:%d", t.Host, t.Port)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// ContentConfig holds the paths to the content directory tree loaded by
// the TemplateStore at startup.
type ContentConfig struct {
	// ItemsDir holds item template YAML files.
	ItemsDir string `mapstructure:"items_dir"`
	// NPCsDir holds NPC template YAML files.
	NPCsDir string `mapstructure:"npcs_dir"`
	// QuestsDir holds quest template YAML files.
	QuestsDir string `mapstructure:"quests_dir"`
	// EnemiesDir holds enemy template YAML files.
	EnemiesDir string `mapstructure:"enemies_dir"`
	// AreasDir holds one subdirectory per area, each containing room files.
	AreasDir string `mapstructure:"areas_dir"`
}

// StorageConfig holds on-disk character persistence settings.
type StorageConfig struct {
	// CharacterDir is the directory holding one JSON file per character.
	CharacterDir string `mapstructure:"character_dir"`
}

// GameplayConfig holds the tunables referenced throughout spec §4: tick
// cadence, combat pacing, regen, and policy knobs.
type GameplayConfig struct {
	// TickInterval is the period of the global TickDriver.
	TickInterval time.Duration `mapstructure:"tick_interval"`
	// CombatTickInterval is defaulted and validated but not read by the
	// server: CombatEngine advances one round per TickInterval.
	CombatTickInterval time.Duration `mapstructure:"combat_tick_interval"`
	// RegenRatePerTick is the fraction of MaxHealth regenerated per tick.
	RegenRatePerTick float64 `mapstructure:"regen_rate_per_tick"`
	// DamageVariance is the fractional +/- swing applied to rolled damage.
	DamageVariance float64 `mapstructure:"damage_variance"`
	// FleeSuccessChance is the probability (0-1) that a flee attempt succeeds.
	FleeSuccessChance float64 `mapstructure:"flee_success_chance"`
	// DefaultRespawnRoom is the room ID used when a character has no homestone.
	DefaultRespawnRoom string `mapstructure:"default_respawn_room"`
	// EnemyRespawnInterval is the delay between an enemy's death and its respawn.
	EnemyRespawnInterval time.Duration `mapstructure:"enemy_respawn_interval"`
	// InventoryCapacity is the maximum number of distinct inventory entries.
	InventoryCapacity int `mapstructure:"inventory_capacity"`
	// NameMinLength and NameMaxLength bound character name length.
	NameMinLength int `mapstructure:"name_min_length"`
	NameMaxLength int `mapstructure:"name_max_length"`
	// MinPasswordLength is the minimum accepted password length at creation.
	MinPasswordLength int `mapstructure:"min_password_length"`
}

// Config is the top-level application configuration.
type Config struct {
	Telnet   TelnetConfig   `mapstructure:"telnet"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Content  ContentConfig  `mapstructure:"content"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Gameplay GameplayConfig `mapstructure:"gameplay"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateTelnet(c.Telnet); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateContent(c.Content); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateStorage(c.Storage); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateGameplay(c.Gameplay); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateTelnet(t TelnetConfig) error {
	var errs []string
	if t.Port < 1 || t.Port > 65535 {
		errs = append(errs, fmt.Sprintf("telnet.port must be 1-65535, got %d", t.Port))
	}
	if t.Host == "" {
		errs = append(errs, "telnet.host must not be empty")
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
	if l.Format != "json" && l.Format != "console" {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateContent(c ContentConfig) error {
	var errs []string
	if c.ItemsDir == "" {
		errs = append(errs, "content.items_dir must not be empty")
	}
	if c.NPCsDir == "" {
		errs = append(errs, "content.npcs_dir must not be empty")
	}
	if c.QuestsDir == "" {
		errs = append(errs, "content.quests_dir must not be empty")
	}
	if c.EnemiesDir == "" {
		errs = append(errs, "content.enemies_dir must not be empty")
	}
	if c.AreasDir == "" {
		errs = append(errs, "content.areas_dir must not be empty")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateStorage(s StorageConfig) error {
	if s.CharacterDir == "" {
		return errors.New("storage.character_dir must not be empty")
	}
	return nil
}

func validateGameplay(g GameplayConfig) error {
	var errs []string
	if g.TickInterval <= 0 {
		errs = append(errs, "gameplay.tick_interval must be > 0")
	}
	if g.CombatTickInterval <= 0 {
		errs = append(errs, "gameplay.combat_tick_interval must be > 0")
	}
	if g.RegenRatePerTick < 0 || g.RegenRatePerTick > 1 {
		errs = append(errs, "gameplay.regen_rate_per_tick must be within [0,1]")
	}
	if g.DamageVariance < 0 || g.DamageVariance > 1 {
		errs = append(errs, "gameplay.damage_variance must be within [0,1]")
	}
	if g.FleeSuccessChance < 0 || g.FleeSuccessChance > 1 {
		errs = append(errs, "gameplay.flee_success_chance must be within [0,1]")
	}
	if g.DefaultRespawnRoom == "" {
		errs = append(errs, "gameplay.default_respawn_room must not be empty")
	}
	if g.EnemyRespawnInterval <= 0 {
		errs = append(errs, "gameplay.enemy_respawn_interval must be > 0")
	}
	if g.InventoryCapacity <= 0 {
		errs = append(errs, "gameplay.inventory_capacity must be > 0")
	}
	if g.NameMinLength < 1 || g.NameMaxLength < g.NameMinLength {
		errs = append(errs, "gameplay.name_min_length/name_max_length must satisfy 1 <= min <= max")
	}
	if g.MinPasswordLength < 1 {
		errs = append(errs, "gameplay.min_password_length must be >= 1")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
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

	v.SetEnvPrefix("MUD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

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
	v.SetDefault("telnet.host", "0.0.0.0")
	v.SetDefault("telnet.port", 4000)
	v.SetDefault("telnet.read_timeout", "5m")
	v.SetDefault("telnet.write_timeout", "30s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("content.items_dir", "content/items")
	v.SetDefault("content.npcs_dir", "content/npcs")
	v.SetDefault("content.quests_dir", "content/quests")
	v.SetDefault("content.enemies_dir", "content/enemies")
	v.SetDefault("content.areas_dir", "content/areas")

	v.SetDefault("storage.character_dir", "data/characters")

	v.SetDefault("gameplay.tick_interval", "1s")
	v.SetDefault("gameplay.combat_tick_interval", "3s")
	v.SetDefault("gameplay.regen_rate_per_tick", 0.02)
	v.SetDefault("gameplay.damage_variance", 0.2)
	v.SetDefault("gameplay.flee_success_chance", 0.5)
	v.SetDefault("gameplay.default_respawn_room", "")
	v.SetDefault("gameplay.enemy_respawn_interval", "60s")
	v.SetDefault("gameplay.inventory_capacity", 30)
	v.SetDefault("gameplay.name_min_length", 3)
	v.SetDefault("gameplay.name_max_length", 12)
	v.SetDefault("gameplay.min_password_length", 3)
}
