// Package config loads process configuration: YAML file, then environment,
// then command-line flags, each layer overriding the previous one.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/ogunacik/kartbox/internal/domain"
)

// envPrefix namespaces environment overrides. Nesting uses a double
// underscore: KARTBOX_ADDR, KARTBOX_STUDY__DAILY_GOAL.
const envPrefix = "KARTBOX_"

// Config is the full process configuration.
type Config struct {
	DB   string `koanf:"db" validate:"required"`
	Addr string `koanf:"addr" validate:"required"`

	Study StudyConfig  `koanf:"study"`
	Decks []DeckSource `koanf:"decks" validate:"dive"`

	// ReposDir is where imported git deck repositories are checked out.
	ReposDir string `koanf:"repos_dir" validate:"required"`
}

// StudyConfig holds the scheduler and session defaults. They seed the
// persisted settings collection on first run; after that the stored
// settings win.
type StudyConfig struct {
	EasyBonus   float64 `koanf:"easy_bonus" validate:"gte=1"`
	HardPenalty float64 `koanf:"hard_penalty" validate:"gt=0,lte=1"`
	MaxInterval int     `koanf:"max_interval" validate:"gte=1"`
	Fuzz        bool    `koanf:"fuzz"`
	DailyGoal   int     `koanf:"daily_goal" validate:"gte=1"`
	SessionSize int     `koanf:"session_size" validate:"gte=1"`
}

// DeckSource is a markdown deck location: a local directory or a git URL.
type DeckSource struct {
	Path string `koanf:"path" validate:"required"`
	// Tag overrides the per-card T: line for every card in the source.
	Tag string `koanf:"tag"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DB:       "kartbox.db",
		Addr:     ":8080",
		ReposDir: "repos",
		Study: StudyConfig{
			EasyBonus:   1.3,
			HardPenalty: 0.8,
			MaxInterval: 365,
			DailyGoal:   20,
			SessionSize: 20,
		},
	}
}

// Flags registers the command-line overrides on the given flag set.
func Flags(fs *pflag.FlagSet) {
	def := Default()
	fs.String("db", def.DB, "Path to the SQLite database file")
	fs.String("addr", def.Addr, "HTTP listen address")
	fs.String("repos-dir", def.ReposDir, "Checkout directory for git deck sources")
}

// Load layers the YAML file at path (if any), the environment and the
// parsed flag set over the defaults, then validates the result.
func Load(path string, fs *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("failed to load config file %s: %w", path, err)
			}
		}
	}

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil)
	if err != nil {
		return Config{}, fmt.Errorf("failed to load environment config: %w", err)
	}

	if fs != nil {
		if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
			return Config{}, fmt.Errorf("failed to load flag config: %w", err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	// The flag name uses a dash; map it onto the struct field by hand.
	if fs != nil && fs.Changed("repos-dir") {
		if v, err := fs.GetString("repos-dir"); err == nil {
			cfg.ReposDir = v
		}
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Settings converts the study defaults into the persisted settings shape.
func (c Config) Settings() domain.Settings {
	return domain.Settings{
		EasyBonus:   c.Study.EasyBonus,
		HardPenalty: c.Study.HardPenalty,
		MaxInterval: c.Study.MaxInterval,
		Fuzz:        c.Study.Fuzz,
		DailyGoal:   c.Study.DailyGoal,
		SessionSize: c.Study.SessionSize,
	}
}
