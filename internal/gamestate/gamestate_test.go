package gamestate

import (
	"testing"
	"time"

	"github.com/siohaza/rockthevote/internal/player"
)

func TestDisableCommands(t *testing.T) {
	tests := []struct {
		name  string
		state PluginState
		want  bool
	}{
		{"idle", PluginState{ExtendsLeft: 2}, false},
		{"map change scheduled", PluginState{MapChangeScheduled: true}, true},
		{"end of map vote", PluginState{EofVoteHappening: true}, true},
		{"extend vote", PluginState{ExtendTimeVoteHappening: true}, true},
		{"commands disabled", PluginState{CommandsDisabled: true}, true},
	}

	for _, tt := range tests {
		if got := tt.state.DisableCommands(); got != tt.want {
			t.Errorf("%s: DisableCommands() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestStartMapResetsState(t *testing.T) {
	gs := New(false)
	gs.Plugin = PluginState{MapChangeScheduled: true, EofVoteHappening: true, ExtendsLeft: 0}
	gs.NextMap = "de_inferno"
	gs.Rules.WarmupRunning = true

	now := time.Unix(1000, 0)
	gs.StartMap("de_dust2", 3, now)

	if gs.MapName != "de_dust2" || gs.NextMap != "" {
		t.Fatalf("map names not reset: %q %q", gs.MapName, gs.NextMap)
	}
	if gs.Plugin.DisableCommands() {
		t.Fatalf("expected flags cleared")
	}
	if gs.Plugin.ExtendsLeft != 3 {
		t.Fatalf("expected 3 extends, got %d", gs.Plugin.ExtendsLeft)
	}
	if gs.Rules.WarmupRunning {
		t.Fatalf("expected game rules reset")
	}
	if !gs.MapStartedAt.Equal(now) {
		t.Fatalf("map start time not recorded")
	}
}

func TestEligibleCountHonorsSpectatorSetting(t *testing.T) {
	for _, include := range []bool{false, true} {
		gs := New(include)

		p := player.New(1, "alice")
		p.SetTeam(player.TeamCounterTerrorist)
		gs.Players.Add(p)

		spectator := player.New(2, "bob")
		spectator.SetTeam(player.TeamSpectator)
		gs.Players.Add(spectator)

		want := 1
		if include {
			want = 2
		}
		if got := gs.CurrentEligibleCount(); got != want {
			t.Fatalf("include spectators %v: expected %d, got %d", include, want, got)
		}
	}
}
