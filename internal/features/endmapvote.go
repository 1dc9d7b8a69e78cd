package features

import (
	"errors"
	"fmt"
	"time"

	"github.com/siohaza/rockthevote/internal/callbacks"
	"github.com/siohaza/rockthevote/internal/i18n"
	"github.com/siohaza/rockthevote/internal/player"
	"github.com/siohaza/rockthevote/internal/vote"
)

// retryDelay is how long the timed vote waits before running again after
// it ended without a map.
const retryDelay = 5 * time.Second

// VoteSettings decides how a map vote runs. RTV and the timed end of map
// vote use different sections of the config.
type VoteSettings struct {
	Duration       int
	MapsToShow     int
	HudMenu        bool
	AllowExtend    bool
	Immediate      bool
	ChangeMapDelay int
}

// EndMapVote runs the vote for the next map, either when the time limit is
// about to run out or when RTV asks for it.
type EndMapVote struct {
	callbacks.DefaultCallbacks

	deps        *Deps
	lang        *i18n.Localizer
	changeMap   *ChangeMap
	nominations *Nominations
	session     *vote.Session

	settings    VoteSettings
	extendLabel string
	triggered   bool
	retryAt     time.Time
	onFinished  []func(vote.Result)
}

func NewEndMapVote(d *Deps, changeMap *ChangeMap, nominations *Nominations) *EndMapVote {
	e := &EndMapVote{
		deps:        d,
		lang:        d.Lang.WithPrefix("rtv.prefix"),
		changeMap:   changeMap,
		nominations: nominations,
		extendLabel: d.Lang.Localize("emv.extend-option"),
	}

	e.session = vote.NewSession(vote.SessionConfig{
		Name:        SessionEndMap,
		Eligibility: d.Game,
		Clock:       d.Clock,
		Rand:        d.Rand,
		Logger:      d.Logger,
		OnTick:      e.display,
		OnResolved:  e.resolved,
	})
	d.Votes.Register(e.session)

	return e
}

// EndOfMapSettings are used for the vote triggered by the time limit.
func (e *EndMapVote) EndOfMapSettings() VoteSettings {
	cfg := e.deps.Config.EndOfMapVote
	return VoteSettings{
		Duration:       cfg.VoteDuration,
		MapsToShow:     cfg.MapsToShow,
		HudMenu:        cfg.HudMenu,
		AllowExtend:    cfg.AllowExtend,
		ChangeMapDelay: cfg.ChangeMapDelay,
	}
}

// OnFinished registers fn to run after every map vote resolved.
func (e *EndMapVote) OnFinished(fn func(vote.Result)) {
	e.onFinished = append(e.onFinished, fn)
}

func (e *EndMapVote) Session() *vote.Session {
	return e.session
}

func (e *EndMapVote) ExtendLabel() string {
	return e.extendLabel
}

// StartVote opens the map vote for every valid player.
func (e *EndMapVote) StartVote(instigator vote.VoterID, settings VoteSettings) error {
	if e.deps.Game.Plugin.EofVoteHappening {
		return vote.ErrAlreadyInProgress
	}

	choices := e.buildChoices(settings)
	if len(choices) == 0 {
		return vote.ErrNoChoices
	}

	e.settings = settings
	e.deps.Game.Plugin.EofVoteHappening = true

	err := e.deps.Votes.StartVote(instigator, SessionEndMap, choices, settings.Duration, vote.ApplierFunc(e.apply))
	if err != nil {
		e.deps.Game.Plugin.EofVoteHappening = false
		return fmt.Errorf("failed to start map vote: %w", err)
	}

	e.deps.Host.ChatAll(e.lang.LocalizeWithPrefix("emv.vote-started"))

	title := e.lang.Localize("emv.hud.menu-title")
	e.deps.Game.ForEachValidPlayer(func(p *player.Player) {
		e.deps.Menus.Open(p.UserID, MenuVote, title, choices, choices)
	})

	return nil
}

// buildChoices puts the most nominated maps first and fills the rest with
// random maps from the list.
func (e *EndMapVote) buildChoices(settings VoteSettings) []string {
	picked := make(map[string]struct{})
	var choices []string

	for _, name := range e.nominations.Winners() {
		if len(choices) == settings.MapsToShow {
			break
		}
		if !e.deps.selectable(name) {
			continue
		}
		picked[name] = struct{}{}
		choices = append(choices, name)
	}

	var pool []string
	for _, name := range e.deps.Maps.Names() {
		if _, ok := picked[name]; ok || !e.deps.selectable(name) {
			continue
		}
		pool = append(pool, name)
	}
	e.deps.Rand.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	for _, name := range pool {
		if len(choices) == settings.MapsToShow {
			break
		}
		choices = append(choices, name)
	}

	if settings.AllowExtend && e.deps.Game.Plugin.ExtendsLeft > 0 && !e.deps.TimeLimit.UnlimitedTime() {
		choices = append(choices, e.extendLabel)
	}

	return choices
}

func (e *EndMapVote) apply(winner string) error {
	if winner == e.extendLabel {
		return e.extend()
	}
	return e.changeMap.ScheduleMapChange(winner, e.settings.Immediate, e.settings.ChangeMapDelay)
}

func (e *EndMapVote) extend() error {
	minutes := e.deps.Config.ExtendMap.ExtendTimeStep
	var err error
	if e.deps.Config.ExtendMap.RoundTime {
		err = e.deps.TimeLimit.ExtendRoundTime(minutes)
	} else {
		err = e.deps.TimeLimit.ExtendMapTimeLimit(minutes)
	}
	if err != nil {
		return err
	}

	state := &e.deps.Game.Plugin
	state.MapChangeScheduled = false
	state.EofVoteHappening = false
	state.CommandsDisabled = false
	state.ExtendsLeft--

	e.changeMap.Cancel()
	e.triggered = false
	return nil
}

func (e *EndMapVote) display(snap vote.Snapshot) {
	title := e.lang.Localize("emv.hud.hud-timer", snap.Remaining)
	e.deps.centerValid(renderVoteHud(title, snap, e.settings.HudMenu))
}

func (e *EndMapVote) resolved(result vote.Result) {
	e.deps.Game.Plugin.EofVoteHappening = false
	e.deps.Menus.CloseAll(MenuVote)

	switch result.Kind {
	case vote.ResultPassed:
		if result.Winner == e.extendLabel {
			minutes := e.deps.Config.ExtendMap.ExtendTimeStep
			e.deps.Host.ChatAll(e.lang.LocalizeWithPrefix("emv.extended", minutes, result.Percent(), result.TotalVotes))
		} else {
			e.deps.Host.ChatAll(e.lang.LocalizeWithPrefix("emv.vote-ended", result.Winner, result.Percent(), result.TotalVotes))
			e.deps.centerValid(e.lang.Localize("emv.hud.finished", result.Winner))
		}
	case vote.ResultNoVotes:
		e.deps.Host.ChatAll(e.lang.LocalizeWithPrefix("emv.vote-ended-no-votes"))
		e.rearm()
	case vote.ResultApplyFailed:
		var applyErr *vote.ApplyError
		if errors.As(result.Err, &applyErr) {
			e.deps.Logger.Error("map vote result not applied", "winner", applyErr.Winner, "error", applyErr.Err)
		}
		e.deps.Host.ChatAll(e.lang.LocalizeWithPrefix("general.apply-failed"))
		e.rearm()
	}

	for _, fn := range e.onFinished {
		fn(result)
	}
}

// rearm lets the timed vote run again once retryDelay passed.
func (e *EndMapVote) rearm() {
	e.triggered = false
	e.retryAt = e.deps.Clock.Now().Add(retryDelay)
}

// OnSecond starts the vote once the remaining time drops below the trigger.
func (e *EndMapVote) OnSecond() {
	cfg := e.deps.Config.EndOfMapVote
	if !cfg.Enabled || e.triggered {
		return
	}
	if e.deps.Clock.Now().Before(e.retryAt) {
		return
	}
	if e.deps.Game.Rules.WarmupRunning || e.deps.TimeLimit.UnlimitedTime() {
		return
	}
	if e.deps.Game.Plugin.DisableCommands() || e.deps.Votes.HasActiveVote() {
		return
	}
	if e.deps.TimeLimit.TimeRemaining() > cfg.TriggerSecondsBeforeEnd {
		return
	}

	e.triggered = true
	if err := e.StartVote(vote.NoInstigator, e.EndOfMapSettings()); err != nil {
		e.deps.Logger.Warn("end of map vote not started", "error", err)
	}
}

// ResetTrigger allows the timed vote to run again, after the map was extended.
func (e *EndMapVote) ResetTrigger() {
	e.triggered = false
}

func (e *EndMapVote) OnMapStart(string) {
	e.triggered = false
	e.retryAt = time.Time{}
	e.settings = VoteSettings{}
}
