package features

import (
	"errors"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/siohaza/rockthevote/internal/gamestate"
	"github.com/siohaza/rockthevote/internal/host"
	"github.com/siohaza/rockthevote/internal/i18n"
	"github.com/siohaza/rockthevote/internal/maplist"
	"github.com/siohaza/rockthevote/internal/player"
	"github.com/siohaza/rockthevote/internal/timelimit"
	"github.com/siohaza/rockthevote/internal/vote"
	"github.com/siohaza/rockthevote/pkg/config"
)

// Session names registered with the vote manager.
const (
	SessionEndMap = "endmap"
	SessionExtend = "extend"
)

// Deps bundles what every feature needs. All of it is owned by the server
// loop; nothing here is touched from another goroutine.
type Deps struct {
	Config    *config.Config
	Game      *gamestate.GameState
	Host      host.Host
	Votes     *vote.Manager
	TimeLimit *timelimit.Manager
	Maps      *maplist.List
	Cooldown  *maplist.Cooldown
	Lang      *i18n.Catalog
	Menus     *MenuTracker
	Clock     clockwork.Clock
	Rand      *rand.Rand
	Logger    *slog.Logger
}

func (d *Deps) voter(p *player.Player) vote.VoterID {
	return vote.VoterID(p.UserID)
}

// tell sends a message to a player, or logs it for the console.
func (d *Deps) tell(p *player.Player, message string) {
	if p == nil {
		d.Logger.Info(message)
		return
	}
	d.Host.ChatPlayer(p.UserID, message)
}

// centerValid shows html in the center of every valid player's screen.
func (d *Deps) centerValid(html string) {
	d.Game.ForEachValidPlayer(func(p *player.Player) {
		d.Host.CenterPlayer(p.UserID, html)
	})
}

// gate holds the checks shared by every player command.
type gate struct {
	enabled         bool
	enabledInWarmup bool
	minRounds       int
	minPlayers      int
}

// allowed runs the common command checks and tells the player why a command
// was refused.
func (d *Deps) allowed(p *player.Player, lang *i18n.Localizer, g gate) bool {
	if d.Game.Plugin.DisableCommands() || !g.enabled {
		d.tell(p, lang.LocalizeWithPrefix("general.validation.disabled"))
		return false
	}

	if d.Game.Rules.WarmupRunning {
		if !g.enabledInWarmup {
			d.tell(p, lang.LocalizeWithPrefix("general.validation.warmup"))
			return false
		}
	} else if g.minRounds > 0 && g.minRounds > d.Game.Rules.TotalRoundsPlayed {
		d.tell(p, lang.LocalizeWithPrefix("general.validation.minimum-rounds", g.minRounds))
		return false
	}

	if d.Game.ValidPlayerCount() < g.minPlayers {
		d.tell(p, lang.LocalizeWithPrefix("general.validation.minimum-players", g.minPlayers))
		return false
	}

	return true
}

// resolveMap turns user input into a map from the list, telling the player
// what went wrong otherwise.
func (d *Deps) resolveMap(p *player.Player, lang *i18n.Localizer, input string) (string, bool) {
	name, err := d.Maps.SingleMatch(input)
	if err == nil {
		return name, true
	}

	var ambiguous *maplist.AmbiguousError
	if errors.As(err, &ambiguous) {
		d.tell(p, lang.LocalizeWithPrefix("general.multiple-maps", input, strings.Join(ambiguous.Candidates, ", ")))
	} else {
		d.tell(p, lang.LocalizeWithPrefix("general.invalid-map", input))
	}
	return "", false
}

// selectable reports whether a map may be offered or nominated right now.
func (d *Deps) selectable(name string) bool {
	return !d.Maps.Equal(name, d.Game.MapName) && !d.Cooldown.IsInCooldown(name)
}

func (d *Deps) cooldownMessage(lang *i18n.Localizer, err error) string {
	var cooldown *vote.CooldownError
	if errors.As(err, &cooldown) {
		return lang.LocalizeWithPrefix("vote.cooldown", int(cooldown.Remaining.Round(time.Second)/time.Second))
	}
	return lang.LocalizeWithPrefix("general.apply-failed")
}
