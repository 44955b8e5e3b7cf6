package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kartbox.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	def := Default()
	if cfg.DB != def.DB || cfg.Addr != def.Addr || cfg.ReposDir != def.ReposDir {
		t.Errorf("expected defaults, got %+v", cfg)
	}
	if cfg.Study != def.Study {
		t.Errorf("expected default study config, got %+v", cfg.Study)
	}
	if len(cfg.Decks) != 0 {
		t.Errorf("expected no deck sources, got %+v", cfg.Decks)
	}
}

func TestLoadMissingFileIsFine(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yml"), nil); err != nil {
		t.Errorf("missing config file must not fail: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfigFile(t, `
db: /tmp/cards.db
addr: ":9000"
study:
  easy_bonus: 1.4
  daily_goal: 40
decks:
  - path: ./decks
    tag: history
`)
	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DB != "/tmp/cards.db" || cfg.Addr != ":9000" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Study.EasyBonus != 1.4 || cfg.Study.DailyGoal != 40 {
		t.Errorf("study values not applied: %+v", cfg.Study)
	}
	// Unset keys keep their defaults.
	if cfg.Study.HardPenalty != 0.8 || cfg.Study.SessionSize != 20 {
		t.Errorf("defaults lost: %+v", cfg.Study)
	}
	if len(cfg.Decks) != 1 || cfg.Decks[0].Path != "./decks" || cfg.Decks[0].Tag != "history" {
		t.Errorf("decks not applied: %+v", cfg.Decks)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, "addr: \":9000\"\n")
	t.Setenv("KARTBOX_ADDR", ":7000")
	t.Setenv("KARTBOX_STUDY__DAILY_GOAL", "55")

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Addr != ":7000" {
		t.Errorf("expected env addr, got %s", cfg.Addr)
	}
	if cfg.Study.DailyGoal != 55 {
		t.Errorf("expected env daily goal 55, got %d", cfg.Study.DailyGoal)
	}
}

func TestFlagsOverrideAll(t *testing.T) {
	path := writeConfigFile(t, "db: from-file.db\n")
	t.Setenv("KARTBOX_DB", "from-env.db")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	Flags(fs)
	if err := fs.Parse([]string{"--db", "from-flag.db", "--repos-dir", "/srv/decks"}); err != nil {
		t.Fatalf("flag parse failed: %v", err)
	}

	cfg, err := Load(path, fs)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DB != "from-flag.db" {
		t.Errorf("expected flag db, got %s", cfg.DB)
	}
	if cfg.ReposDir != "/srv/decks" {
		t.Errorf("expected flag repos dir, got %s", cfg.ReposDir)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := writeConfigFile(t, `
study:
  hard_penalty: 1.5
`)
	if _, err := Load(path, nil); err == nil {
		t.Error("expected validation error for hard_penalty > 1")
	}
}

func TestSettingsConversion(t *testing.T) {
	cfg := Default()
	cfg.Study.Fuzz = true
	s := cfg.Settings()
	if s.EasyBonus != 1.3 || s.HardPenalty != 0.8 || s.MaxInterval != 365 ||
		s.DailyGoal != 20 || s.SessionSize != 20 || !s.Fuzz {
		t.Errorf("unexpected settings: %+v", s)
	}
}
