package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// MinimumVersion is the oldest config layout that can still be read.
const (
	CurrentVersion = 15
	MinimumVersion = 13
)

type Config struct {
	Version      int                `toml:"version"`
	Plugin       PluginConfig       `toml:"plugin"`
	Bridge       BridgeConfig       `toml:"bridge"`
	Rtv          RtvConfig          `toml:"rtv"`
	Votemap      VotemapConfig      `toml:"votemap"`
	EndOfMapVote EndOfMapVoteConfig `toml:"end_of_map_vote"`
	ExtendMap    ExtendMapConfig    `toml:"extend_map"`
	MapCooldown  MapCooldownConfig  `toml:"map_cooldown"`
}

type PluginConfig struct {
	MapListPath  string `toml:"maplist"`
	CommandsDir  string `toml:"commands_dir"`
	LangDir      string `toml:"lang_dir"`
	Locale       string `toml:"locale"`
	VoteCooldown int    `toml:"vote_cooldown"`

	// logging configuration
	LogToFile bool `toml:"log_to_file"`

	// players on the spectator team count towards quorums
	CountSpectators bool `toml:"count_spectators"`
}

type BridgeConfig struct {
	Port           int `toml:"port"`
	MaxPeers       int `toml:"max_peers"`
	ServiceTimeout int `toml:"service_timeout_ms"`
}

type RtvConfig struct {
	Enabled              bool `toml:"enabled"`
	EnabledInWarmup      bool `toml:"enabled_in_warmup"`
	NominationEnabled    bool `toml:"nomination_enabled"`
	MinPlayers           int  `toml:"min_players"`
	MinRounds            int  `toml:"min_rounds"`
	VotePercentage       int  `toml:"vote_percentage"`
	ChangeMapImmediately bool `toml:"change_map_immediately"`
	VoteDuration         int  `toml:"vote_duration"`
	MapsToShow           int  `toml:"maps_to_show"`
	HudMenu              bool `toml:"hud_menu"`
}

type VotemapConfig struct {
	Enabled              bool `toml:"enabled"`
	EnabledInWarmup      bool `toml:"enabled_in_warmup"`
	MinPlayers           int  `toml:"min_players"`
	MinRounds            int  `toml:"min_rounds"`
	VotePercentage       int  `toml:"vote_percentage"`
	ChangeMapImmediately bool `toml:"change_map_immediately"`
}

type EndOfMapVoteConfig struct {
	Enabled                 bool `toml:"enabled"`
	MapsToShow              int  `toml:"maps_to_show"`
	VoteDuration            int  `toml:"vote_duration"`
	HudMenu                 bool `toml:"hud_menu"`
	TriggerSecondsBeforeEnd int  `toml:"trigger_seconds_before_end"`
	ChangeMapDelay          int  `toml:"change_map_delay"`
	AllowExtend             bool `toml:"allow_extend"`
}

type ExtendMapConfig struct {
	Enabled         bool `toml:"enabled"`
	EnabledInWarmup bool `toml:"enabled_in_warmup"`
	MinPlayers      int  `toml:"min_players"`
	VotePercentage  int  `toml:"vote_percentage"`
	VoteDuration    int  `toml:"vote_duration"`
	ExtendTimeStep  int  `toml:"extend_time_step"`
	ExtendLimit     int  `toml:"extend_limit"`
	HudMenu         bool `toml:"hud_menu"`
	// extend the round time instead of mp_timelimit
	RoundTime bool `toml:"round_time"`
}

type MapCooldownConfig struct {
	MapsInCooldown int `toml:"maps_in_cooldown"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	config := Default()

	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.applyDefaults()

	return config, nil
}

// Default returns the configuration written for a fresh install.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Rtv: RtvConfig{
			Enabled:              true,
			NominationEnabled:    true,
			ChangeMapImmediately: true,
		},
		Votemap: VotemapConfig{
			Enabled:              true,
			ChangeMapImmediately: true,
		},
		EndOfMapVote: EndOfMapVoteConfig{
			Enabled:     true,
			AllowExtend: true,
		},
		ExtendMap: ExtendMapConfig{
			Enabled: true,
		},
	}
}

func (c *Config) applyDefaults() {
	if c.Plugin.MapListPath == "" {
		c.Plugin.MapListPath = "maplist.txt"
	}
	if c.Plugin.CommandsDir == "" {
		c.Plugin.CommandsDir = "scripts/commands"
	}
	if c.Plugin.LangDir == "" {
		c.Plugin.LangDir = "lang"
	}
	if c.Plugin.Locale == "" {
		c.Plugin.Locale = "en"
	}

	// bridge defaults
	if c.Bridge.Port == 0 {
		c.Bridge.Port = 27115
	}
	if c.Bridge.MaxPeers == 0 {
		c.Bridge.MaxPeers = 1
	}
	if c.Bridge.ServiceTimeout == 0 {
		c.Bridge.ServiceTimeout = 10
	}

	// rtv defaults
	if c.Rtv.VotePercentage == 0 {
		c.Rtv.VotePercentage = 60
	}
	if c.Rtv.VoteDuration == 0 {
		c.Rtv.VoteDuration = 30
	}
	if c.Rtv.MapsToShow == 0 {
		c.Rtv.MapsToShow = 6
	}

	if c.Votemap.VotePercentage == 0 {
		c.Votemap.VotePercentage = 60
	}

	// end of map vote defaults
	if c.EndOfMapVote.MapsToShow == 0 {
		c.EndOfMapVote.MapsToShow = 6
	}
	if c.EndOfMapVote.VoteDuration == 0 {
		c.EndOfMapVote.VoteDuration = 30
	}
	if c.EndOfMapVote.TriggerSecondsBeforeEnd == 0 {
		c.EndOfMapVote.TriggerSecondsBeforeEnd = 120
	}
	if c.EndOfMapVote.ChangeMapDelay == 0 {
		c.EndOfMapVote.ChangeMapDelay = 5
	}

	// extend defaults
	if c.ExtendMap.VotePercentage == 0 {
		c.ExtendMap.VotePercentage = 60
	}
	if c.ExtendMap.VoteDuration == 0 {
		c.ExtendMap.VoteDuration = 30
	}
	if c.ExtendMap.ExtendTimeStep == 0 {
		c.ExtendMap.ExtendTimeStep = 15
	}
	if c.ExtendMap.ExtendLimit == 0 {
		c.ExtendMap.ExtendLimit = 3
	}

	if c.MapCooldown.MapsInCooldown == 0 {
		c.MapCooldown.MapsInCooldown = 3
	}
}

func (c *Config) Validate() error {
	if c.Version < MinimumVersion {
		return fmt.Errorf("config version %d is too old, delete the file and let it be recreated", c.Version)
	}

	if c.Bridge.Port <= 0 || c.Bridge.Port > 65535 {
		return fmt.Errorf("invalid bridge port: %d", c.Bridge.Port)
	}

	if c.Bridge.MaxPeers <= 0 || c.Bridge.MaxPeers > 8 {
		return fmt.Errorf("bridge max_peers must be between 1 and 8")
	}

	for name, pct := range map[string]int{
		"rtv.vote_percentage":        c.Rtv.VotePercentage,
		"votemap.vote_percentage":    c.Votemap.VotePercentage,
		"extend_map.vote_percentage": c.ExtendMap.VotePercentage,
	} {
		if pct < 1 || pct > 100 {
			return fmt.Errorf("%s must be between 1 and 100", name)
		}
	}

	for name, seconds := range map[string]int{
		"rtv.vote_duration":             c.Rtv.VoteDuration,
		"end_of_map_vote.vote_duration": c.EndOfMapVote.VoteDuration,
		"extend_map.vote_duration":      c.ExtendMap.VoteDuration,
	} {
		if seconds < 5 || seconds > 300 {
			return fmt.Errorf("%s must be between 5 and 300 seconds", name)
		}
	}

	if c.EndOfMapVote.MapsToShow < 1 || c.EndOfMapVote.MapsToShow > 9 {
		return fmt.Errorf("end_of_map_vote.maps_to_show must be between 1 and 9")
	}

	if c.Rtv.MapsToShow < 1 || c.Rtv.MapsToShow > 9 {
		return fmt.Errorf("rtv.maps_to_show must be between 1 and 9")
	}

	if c.ExtendMap.ExtendTimeStep <= 0 {
		return fmt.Errorf("extend_map.extend_time_step must be positive")
	}

	if c.ExtendMap.ExtendLimit < 0 {
		return fmt.Errorf("extend_map.extend_limit cannot be negative")
	}

	if c.MapCooldown.MapsInCooldown < 0 {
		return fmt.Errorf("map_cooldown.maps_in_cooldown cannot be negative")
	}

	return nil
}
