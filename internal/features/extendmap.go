package features

import (
	"fmt"

	"github.com/siohaza/rockthevote/internal/callbacks"
	"github.com/siohaza/rockthevote/internal/i18n"
	"github.com/siohaza/rockthevote/internal/player"
	"github.com/siohaza/rockthevote/internal/vote"
)

const (
	extendYes = "Yes"
	extendNo  = "No"
)

// ExtendMap lets players ask for more time. Once enough players asked, a
// Yes/No vote decides whether the time limit is raised.
type ExtendMap struct {
	callbacks.DefaultCallbacks

	deps      *Deps
	lang      *i18n.Localizer
	requests  *vote.ThresholdVote
	session   *vote.Session
	changeMap *ChangeMap
	endMap    *EndMapVote
}

func NewExtendMap(d *Deps, changeMap *ChangeMap, endMap *EndMapVote) *ExtendMap {
	x := &ExtendMap{
		deps:      d,
		lang:      d.Lang.WithPrefix("extendtime.prefix"),
		requests:  vote.NewThresholdVote(d.Config.ExtendMap.VotePercentage, d.Game),
		changeMap: changeMap,
		endMap:    endMap,
	}

	x.session = vote.NewSession(vote.SessionConfig{
		Name:        SessionExtend,
		RejectLabel: extendNo,
		Eligibility: d.Game,
		Clock:       d.Clock,
		Rand:        d.Rand,
		Logger:      d.Logger,
		OnTick:      x.display,
		OnResolved:  x.resolved,
	})
	d.Votes.Register(x.session)

	return x
}

func (x *ExtendMap) Session() *vote.Session {
	return x.session
}

func (x *ExtendMap) CommandHandler(p *player.Player) {
	if p == nil {
		return
	}

	cfg := x.deps.Config.ExtendMap
	if !x.deps.allowed(p, x.lang, gate{
		enabled:         cfg.Enabled,
		enabledInWarmup: cfg.EnabledInWarmup,
		minPlayers:      cfg.MinPlayers,
	}) {
		return
	}

	if x.deps.Game.Plugin.ExtendsLeft <= 0 {
		x.deps.tell(p, x.lang.LocalizeWithPrefix("extendtime.no-extends-left"))
		return
	}

	if !cfg.RoundTime && x.deps.TimeLimit.UnlimitedTime() {
		x.deps.tell(p, x.lang.LocalizeWithPrefix("extendtime.no-time-limit"))
		return
	}

	result := x.requests.AddVote(x.deps.voter(p))
	switch result.Status {
	case vote.ThresholdAlreadyAdded:
		x.deps.tell(p, x.lang.LocalizeWithPrefix("extendtime.already-rocked", result.Votes, result.Required))
	case vote.ThresholdAdded:
		x.deps.Host.ChatAll(x.lang.LocalizeWithPrefix("extendtime.rocked", p.GetName(), result.Votes, result.Required))
	case vote.ThresholdReached:
		x.deps.Host.ChatAll(x.lang.LocalizeWithPrefix("extendtime.rocked", p.GetName(), result.Votes, result.Required))
		x.deps.Host.ChatAll(x.lang.LocalizeWithPrefix("extendtime.votes-reached"))
		if err := x.StartVote(x.deps.voter(p)); err != nil {
			x.deps.Logger.Warn("extend vote not started", "error", err)
			x.deps.tell(p, x.deps.cooldownMessage(x.lang, err))
		}
	}
}

// StartVote opens the Yes/No vote. The quorum is every valid player.
func (x *ExtendMap) StartVote(instigator vote.VoterID) error {
	cfg := x.deps.Config.ExtendMap
	choices := []string{extendYes, extendNo}

	x.deps.Game.Plugin.ExtendTimeVoteHappening = true
	if err := x.deps.Votes.StartVote(instigator, SessionExtend, choices, cfg.VoteDuration, vote.ApplierFunc(x.apply)); err != nil {
		x.deps.Game.Plugin.ExtendTimeVoteHappening = false
		x.requests.Clear()
		return fmt.Errorf("failed to start extend vote: %w", err)
	}

	title := x.lang.Localize("extendtime.hud.menu-title")
	x.deps.Game.ForEachValidPlayer(func(p *player.Player) {
		x.deps.Menus.Open(p.UserID, MenuVote, title, choices, choices)
	})

	return nil
}

func (x *ExtendMap) apply(string) error {
	cfg := x.deps.Config.ExtendMap

	var err error
	if cfg.RoundTime {
		err = x.deps.TimeLimit.ExtendRoundTime(cfg.ExtendTimeStep)
	} else {
		err = x.deps.TimeLimit.ExtendMapTimeLimit(cfg.ExtendTimeStep)
	}
	if err != nil {
		return err
	}

	state := &x.deps.Game.Plugin
	state.MapChangeScheduled = false
	state.EofVoteHappening = false
	state.CommandsDisabled = false
	state.ExtendsLeft--

	x.changeMap.Cancel()
	x.endMap.ResetTrigger()
	return nil
}

func (x *ExtendMap) display(snap vote.Snapshot) {
	title := x.lang.Localize("extendtime.hud.hud-timer", snap.Remaining)
	x.deps.centerValid(renderVoteHud(title, snap, x.deps.Config.ExtendMap.HudMenu))
}

func (x *ExtendMap) resolved(result vote.Result) {
	x.deps.Game.Plugin.ExtendTimeVoteHappening = false
	x.deps.Menus.CloseAll(MenuVote)
	x.requests.Clear()

	switch result.Kind {
	case vote.ResultPassed:
		minutes := x.deps.Config.ExtendMap.ExtendTimeStep
		x.deps.Host.ChatAll(x.lang.LocalizeWithPrefix("extendtime.vote-ended.passed", minutes, result.Percent(), result.TotalVotes))
		x.deps.centerValid(x.lang.Localize("extendtime.hud.finished-extended"))
	case vote.ResultRejected:
		x.deps.Host.ChatAll(x.lang.LocalizeWithPrefix("extendtime.vote-ended.failed", result.Percent(), result.TotalVotes))
		x.deps.centerValid(x.lang.Localize("extendtime.hud.finished-not-extended"))
	case vote.ResultNoVotes:
		x.deps.Host.ChatAll(x.lang.LocalizeWithPrefix("extendtime.vote-ended-no-votes"))
		x.deps.centerValid(x.lang.Localize("extendtime.hud.finished-not-extended"))
	case vote.ResultApplyFailed:
		x.deps.Logger.Error("extend vote passed but the map was not extended", "error", result.Err)
		x.deps.Host.ChatAll(x.lang.LocalizeWithPrefix("extendtime.extension-failed"))
	}
}

func (x *ExtendMap) OnMapStart(string) {
	x.requests.Clear()
}

func (x *ExtendMap) OnPlayerDisconnect(p *player.Player) {
	x.requests.RemoveVote(x.deps.voter(p))

	if x.deps.Game.Plugin.DisableCommands() {
		return
	}
	if x.requests.Recheck() {
		x.deps.Host.ChatAll(x.lang.LocalizeWithPrefix("extendtime.votes-reached"))
		if err := x.StartVote(vote.NoInstigator); err != nil {
			x.deps.Logger.Warn("extend vote not started", "error", err)
		}
	}
}
