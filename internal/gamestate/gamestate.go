package gamestate

import (
	"time"

	"github.com/siohaza/rockthevote/internal/player"
)

// GameRules mirrors the parts of the host's game rules entity the plugin
// reads. It is refreshed from TimeSync events.
type GameRules struct {
	WarmupRunning     bool
	TotalRoundsPlayed int
	// RoundTime in seconds
	RoundTime int
}

// PluginState holds the flags the features use to keep out of each other's way.
type PluginState struct {
	MapChangeScheduled      bool
	EofVoteHappening        bool
	ExtendTimeVoteHappening bool
	CommandsDisabled        bool
	ExtendsLeft             int
}

// DisableCommands reports whether player commands must be refused because a
// vote is running or the map is about to change.
func (s *PluginState) DisableCommands() bool {
	return s.MapChangeScheduled || s.EofVoteHappening || s.ExtendTimeVoteHappening || s.CommandsDisabled
}

// GameState is owned by the server loop and is not safe for concurrent use,
// except for Players which locks internally.
type GameState struct {
	Players      *player.Manager
	Rules        GameRules
	Plugin       PluginState
	MapName      string
	NextMap      string
	MapStartedAt time.Time

	countSpectators bool
}

func New(countSpectators bool) *GameState {
	return &GameState{
		Players:         player.NewManager(),
		countSpectators: countSpectators,
	}
}

// StartMap resets per-map state when the host loads a new map.
func (gs *GameState) StartMap(name string, extendLimit int, now time.Time) {
	gs.MapName = name
	gs.NextMap = ""
	gs.MapStartedAt = now
	gs.Rules = GameRules{}
	gs.Plugin = PluginState{ExtendsLeft: extendLimit}
}

// ValidPlayerCount is the number of players allowed to vote.
func (gs *GameState) ValidPlayerCount() int {
	return gs.Players.ValidCount(gs.countSpectators)
}

// CurrentEligibleCount lets GameState serve as a vote eligibility tracker.
func (gs *GameState) CurrentEligibleCount() int {
	return gs.ValidPlayerCount()
}

func (gs *GameState) ForEachValidPlayer(fn func(*player.Player)) {
	gs.Players.ForEachValid(gs.countSpectators, fn)
}
