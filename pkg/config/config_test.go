package config

import (
	"errors"
	"io/fs"
	"path/filepath"
	"testing"
)

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
version = 15

[rtv]
vote_percentage = 75
min_players = 4

[extend_map]
extend_limit = 1
`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if cfg.Rtv.VotePercentage != 75 {
		t.Fatalf("expected rtv vote percentage 75, got %d", cfg.Rtv.VotePercentage)
	}
	if cfg.Rtv.MinPlayers != 4 {
		t.Fatalf("expected min players 4, got %d", cfg.Rtv.MinPlayers)
	}
	if !cfg.Rtv.Enabled || !cfg.Rtv.NominationEnabled {
		t.Fatalf("expected rtv and nominations enabled by default")
	}
	if cfg.ExtendMap.ExtendLimit != 1 {
		t.Fatalf("expected extend limit 1, got %d", cfg.ExtendMap.ExtendLimit)
	}
	if cfg.ExtendMap.ExtendTimeStep != 15 {
		t.Fatalf("expected default extend step 15, got %d", cfg.ExtendMap.ExtendTimeStep)
	}
	if cfg.Bridge.Port != 27115 {
		t.Fatalf("expected default bridge port, got %d", cfg.Bridge.Port)
	}
	if cfg.Plugin.Locale != "en" {
		t.Fatalf("expected default locale en, got %q", cfg.Plugin.Locale)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestExplicitFalseOverridesDefault(t *testing.T) {
	cfg, err := Parse([]byte(`
version = 15

[end_of_map_vote]
enabled = false
allow_extend = false
`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if cfg.EndOfMapVote.Enabled {
		t.Fatalf("expected end of map vote disabled")
	}
	if cfg.EndOfMapVote.AllowExtend {
		t.Fatalf("expected extend option disabled")
	}
}

func TestValidateRejectsOldVersion(t *testing.T) {
	cfg, err := Parse([]byte("version = 12\n"))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected version 12 to be rejected")
	}

	cfg.Version = MinimumVersion
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected minimum version to be accepted, got %v", err)
	}
}

func TestValidateRanges(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"percentage above 100", func(c *Config) { c.Rtv.VotePercentage = 101 }},
		{"negative percentage", func(c *Config) { c.ExtendMap.VotePercentage = -5 }},
		{"short vote", func(c *Config) { c.EndOfMapVote.VoteDuration = 2 }},
		{"too many maps", func(c *Config) { c.EndOfMapVote.MapsToShow = 10 }},
		{"bad port", func(c *Config) { c.Bridge.Port = 70000 }},
		{"negative cooldown", func(c *Config) { c.MapCooldown.MapsInCooldown = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.applyDefaults()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
