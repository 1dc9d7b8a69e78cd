package features

import (
	"github.com/siohaza/rockthevote/internal/i18n"
	"github.com/siohaza/rockthevote/internal/player"
)

// Info answers timeleft and nextmap.
type Info struct {
	deps *Deps
	lang *i18n.Localizer
}

func NewInfo(d *Deps) *Info {
	return &Info{
		deps: d,
		lang: d.Lang.WithPrefix("rtv.prefix"),
	}
}

func (i *Info) TimeLeftMessage() string {
	tl := i.deps.TimeLimit
	if tl.UnlimitedTime() {
		return i.lang.LocalizeWithPrefix("timeleft.no-time-limit")
	}

	remaining := tl.TimeRemaining()
	if remaining < 60 {
		return i.lang.LocalizeWithPrefix("timeleft.remaining-time-seconds", remaining)
	}
	return i.lang.LocalizeWithPrefix("timeleft.remaining-time-minutes", tl.TimeRemainingMinutes())
}

func (i *Info) TimeLeft(p *player.Player) {
	i.deps.tell(p, i.TimeLeftMessage())
}

func (i *Info) NextMapMessage() string {
	if next := i.deps.Game.NextMap; next != "" {
		return i.lang.LocalizeWithPrefix("nextmap.next-map", next)
	}
	if i.deps.Config.EndOfMapVote.Enabled {
		return i.lang.LocalizeWithPrefix("nextmap.decided-by-vote")
	}
	return i.lang.LocalizeWithPrefix("nextmap.not-decided")
}

func (i *Info) NextMap(p *player.Player) {
	i.deps.tell(p, i.NextMapMessage())
}

// AddMapToCooldown is an admin command. p is nil for the server console.
func (i *Info) AddMapToCooldown(p *player.Player, input string) {
	if input == "" {
		i.deps.tell(p, i.lang.LocalizeWithPrefix("general.error.invalid-command-usage"))
		return
	}

	name, ok := i.deps.resolveMap(p, i.lang, input)
	if !ok {
		return
	}

	if !i.deps.Cooldown.Add(name) {
		i.deps.tell(p, i.lang.LocalizeWithPrefix("mapcooldown.already-in-cooldown", name))
		return
	}

	i.deps.Logger.Info("map added to cooldown", "map", name)
	if p == nil {
		i.deps.tell(nil, i.lang.LocalizeWithPrefix("mapcooldown.added", name))
		return
	}
	i.deps.Host.ChatAll(i.lang.LocalizeWithPrefix("mapcooldown.added", name))
}
