package features

import (
	"github.com/siohaza/rockthevote/internal/callbacks"
	"github.com/siohaza/rockthevote/internal/i18n"
	"github.com/siohaza/rockthevote/internal/player"
	"github.com/siohaza/rockthevote/internal/vote"
)

// RockTheVote starts an early map vote once enough players typed rtv.
type RockTheVote struct {
	callbacks.DefaultCallbacks

	deps     *Deps
	lang     *i18n.Localizer
	requests *vote.ThresholdVote
	endMap   *EndMapVote
}

func NewRockTheVote(d *Deps, endMap *EndMapVote) *RockTheVote {
	r := &RockTheVote{
		deps:     d,
		lang:     d.Lang.WithPrefix("rtv.prefix"),
		requests: vote.NewThresholdVote(d.Config.Rtv.VotePercentage, d.Game),
		endMap:   endMap,
	}

	endMap.OnFinished(r.voteFinished)
	return r
}

func (r *RockTheVote) settings() VoteSettings {
	cfg := r.deps.Config
	return VoteSettings{
		Duration:       cfg.Rtv.VoteDuration,
		MapsToShow:     cfg.Rtv.MapsToShow,
		HudMenu:        cfg.Rtv.HudMenu,
		Immediate:      cfg.Rtv.ChangeMapImmediately,
		ChangeMapDelay: cfg.EndOfMapVote.ChangeMapDelay,
	}
}

func (r *RockTheVote) CommandHandler(p *player.Player) {
	if p == nil {
		return
	}

	cfg := r.deps.Config.Rtv
	if !r.deps.allowed(p, r.lang, gate{
		enabled:         cfg.Enabled,
		enabledInWarmup: cfg.EnabledInWarmup,
		minRounds:       cfg.MinRounds,
		minPlayers:      cfg.MinPlayers,
	}) {
		return
	}

	result := r.requests.AddVote(r.deps.voter(p))
	switch result.Status {
	case vote.ThresholdAlreadyAdded:
		r.deps.tell(p, r.lang.LocalizeWithPrefix("rtv.already-rocked-the-vote", result.Votes, result.Required))
	case vote.ThresholdAdded:
		r.deps.Host.ChatAll(r.lang.LocalizeWithPrefix("rtv.rocked-the-vote", p.GetName(), result.Votes, result.Required))
	case vote.ThresholdReached:
		r.deps.Host.ChatAll(r.lang.LocalizeWithPrefix("rtv.rocked-the-vote", p.GetName(), result.Votes, result.Required))
		r.startVote(p, r.deps.voter(p))
	}
}

func (r *RockTheVote) startVote(p *player.Player, instigator vote.VoterID) {
	r.deps.Host.ChatAll(r.lang.LocalizeWithPrefix("rtv.votes-reached"))

	if err := r.endMap.StartVote(instigator, r.settings()); err != nil {
		r.deps.Logger.Warn("rtv vote not started", "error", err)
		r.deps.tell(p, r.deps.cooldownMessage(r.lang, err))
		r.requests.Clear()
	}
}

// voteFinished lets players rock the vote again when the map is staying.
func (r *RockTheVote) voteFinished(result vote.Result) {
	if r.deps.Game.Plugin.MapChangeScheduled {
		return
	}
	r.requests.Clear()
}

func (r *RockTheVote) Votes() (int, int) {
	return r.requests.Votes(), r.requests.Required()
}

func (r *RockTheVote) OnMapStart(string) {
	r.requests.Clear()
}

// OnPlayerDisconnect drops the player's request. Fewer players may mean the
// remaining requests are now enough.
func (r *RockTheVote) OnPlayerDisconnect(p *player.Player) {
	r.requests.RemoveVote(r.deps.voter(p))

	if r.deps.Game.Plugin.DisableCommands() {
		return
	}
	if r.requests.Recheck() {
		r.startVote(nil, vote.NoInstigator)
	}
}
