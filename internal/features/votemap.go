package features

import (
	"sort"

	"github.com/siohaza/rockthevote/internal/callbacks"
	"github.com/siohaza/rockthevote/internal/i18n"
	"github.com/siohaza/rockthevote/internal/player"
	"github.com/siohaza/rockthevote/internal/vote"
)

// Votemap changes straight to a map once enough players asked for it.
type Votemap struct {
	callbacks.DefaultCallbacks

	deps      *Deps
	lang      *i18n.Localizer
	changeMap *ChangeMap
	votes     map[string]*vote.ThresholdVote
}

func NewVotemap(d *Deps, changeMap *ChangeMap) *Votemap {
	return &Votemap{
		deps:      d,
		lang:      d.Lang.WithPrefix("rtv.prefix"),
		changeMap: changeMap,
		votes:     make(map[string]*vote.ThresholdVote),
	}
}

func (v *Votemap) CommandHandler(p *player.Player, mapName string) {
	if p == nil {
		return
	}

	cfg := v.deps.Config.Votemap
	if !v.deps.allowed(p, v.lang, gate{
		enabled:         cfg.Enabled,
		enabledInWarmup: cfg.EnabledInWarmup,
		minRounds:       cfg.MinRounds,
		minPlayers:      cfg.MinPlayers,
	}) {
		return
	}

	if mapName == "" {
		v.OpenMenu(p)
		return
	}
	v.Vote(p, mapName)
}

func (v *Votemap) OpenMenu(p *player.Player) {
	var names []string
	for _, name := range v.deps.Maps.Names() {
		if v.deps.selectable(name) {
			names = append(names, name)
		}
	}
	v.deps.Menus.Open(p.UserID, MenuVotemap, v.lang.Localize("votemap.menu-title"), names, names)
}

func (v *Votemap) Vote(p *player.Player, input string) {
	name, ok := v.deps.resolveMap(p, v.lang, input)
	if !ok {
		return
	}

	if v.deps.Maps.Equal(name, v.deps.Game.MapName) {
		v.deps.tell(p, v.lang.LocalizeWithPrefix("general.validation.current-map"))
		return
	}
	if v.deps.Cooldown.IsInCooldown(name) {
		v.deps.tell(p, v.lang.LocalizeWithPrefix("general.validation.map-played-recently"))
		return
	}

	tv, exists := v.votes[name]
	if !exists {
		tv = vote.NewThresholdVote(v.deps.Config.Votemap.VotePercentage, v.deps.Game)
		v.votes[name] = tv
	}

	result := tv.AddVote(v.deps.voter(p))
	switch result.Status {
	case vote.ThresholdAlreadyAdded:
		v.deps.tell(p, v.lang.LocalizeWithPrefix("votemap.already-voted", name, result.Votes, result.Required))
	case vote.ThresholdAdded:
		v.deps.Host.ChatAll(v.lang.LocalizeWithPrefix("votemap.voted", p.GetName(), name, result.Votes, result.Required))
	case vote.ThresholdReached:
		v.deps.Host.ChatAll(v.lang.LocalizeWithPrefix("votemap.voted", p.GetName(), name, result.Votes, result.Required))
		v.changeTo(name)
	}
}

func (v *Votemap) changeTo(name string) {
	v.deps.Host.ChatAll(v.lang.LocalizeWithPrefix("votemap.votes-reached", name))

	cfg := v.deps.Config
	if err := v.changeMap.ScheduleMapChange(name, cfg.Votemap.ChangeMapImmediately, cfg.EndOfMapVote.ChangeMapDelay); err != nil {
		v.deps.Logger.Error("votemap change failed", "map", name, "error", err)
		v.deps.Host.ChatAll(v.lang.LocalizeWithPrefix("general.apply-failed"))
		delete(v.votes, name)
	}
}

// Votes returns the current number of votes for a map.
func (v *Votemap) Votes(name string) int {
	if tv, ok := v.votes[name]; ok {
		return tv.Votes()
	}
	return 0
}

func (v *Votemap) OnMapStart(string) {
	v.votes = make(map[string]*vote.ThresholdVote)
}

func (v *Votemap) OnPlayerDisconnect(p *player.Player) {
	names := make([]string, 0, len(v.votes))
	for name, tv := range v.votes {
		tv.RemoveVote(v.deps.voter(p))
		names = append(names, name)
	}

	if v.deps.Game.Plugin.DisableCommands() {
		return
	}

	sort.Strings(names)
	for _, name := range names {
		if v.votes[name].Recheck() {
			v.changeTo(name)
			return
		}
	}
}
