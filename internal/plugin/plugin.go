package plugin

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/siohaza/rockthevote/internal/callbacks"
	"github.com/siohaza/rockthevote/internal/features"
	"github.com/siohaza/rockthevote/internal/gamestate"
	"github.com/siohaza/rockthevote/internal/host"
	"github.com/siohaza/rockthevote/internal/i18n"
	"github.com/siohaza/rockthevote/internal/maplist"
	"github.com/siohaza/rockthevote/internal/player"
	"github.com/siohaza/rockthevote/internal/timelimit"
	"github.com/siohaza/rockthevote/internal/vote"
	"github.com/siohaza/rockthevote/pkg/config"
	"github.com/siohaza/rockthevote/pkg/lua"
)

// Plugin turns host events into feature calls. Every method must be called
// from the same goroutine.
type Plugin struct {
	config   *config.Config
	deps     *features.Deps
	features *features.Set
	chain    *callbacks.CallbackChain
	commands *lua.CommandManager
	api      *lua.PluginAPI
	lang     *i18n.Localizer
	logger   *slog.Logger
}

func New(cfg *config.Config, h host.Host, clock clockwork.Clock, logger *slog.Logger) (*Plugin, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	maps, err := maplist.Load(cfg.Plugin.MapListPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load map list: %w", err)
	}

	catalog, err := i18n.Load(cfg.Plugin.LangDir, cfg.Plugin.Locale)
	if err != nil {
		return nil, fmt.Errorf("failed to load translations: %w", err)
	}

	game := gamestate.New(cfg.Plugin.CountSpectators)
	deps := &features.Deps{
		Config:    cfg,
		Game:      game,
		Host:      h,
		Votes:     vote.NewManager(clock, time.Duration(cfg.Plugin.VoteCooldown)*time.Second, logger),
		TimeLimit: timelimit.NewManager(clock, h),
		Maps:      maps,
		Cooldown:  maplist.NewCooldown(cfg.MapCooldown.MapsInCooldown),
		Lang:      catalog,
		Menus:     features.NewMenuTracker(h),
		Clock:     clock,
		Rand:      rand.New(rand.NewSource(clock.Now().UnixNano())),
		Logger:    logger,
	}

	p := &Plugin{
		config:   cfg,
		deps:     deps,
		features: features.New(deps),
		chain:    callbacks.NewCallbackChain(),
		commands: lua.NewCommandManager(logger),
		api:      lua.NewPluginAPI(game),
		lang:     catalog.WithPrefix("rtv.prefix"),
		logger:   logger,
	}
	p.features.Register(p.chain)

	p.api.SetPlugin(p)
	p.api.SetCommandManager(p.commands)
	if err := p.commands.LoadCommands(cfg.Plugin.CommandsDir, p.api); err != nil {
		logger.Warn("failed to load lua commands", "error", err)
	}

	logger.Info("plugin loaded",
		"maps", maps.Len(),
		"locale", catalog.Language().String(),
		"commands", p.commands.Count(),
	)

	return p, nil
}

// RegisterCallbacks adds extra listeners after the built in features.
func (p *Plugin) RegisterCallbacks(cb callbacks.Callbacks) {
	p.chain.Register(cb)
}

func (p *Plugin) Game() *gamestate.GameState {
	return p.deps.Game
}

func (p *Plugin) Features() *features.Set {
	return p.features
}

// OnMapStart drops everything tied to the previous map. timeLimit is
// mp_timelimit in seconds.
func (p *Plugin) OnMapStart(mapName string, timeLimit int) {
	p.deps.Votes.ForceCloseAll()
	p.deps.Menus.Reset()
	p.deps.Game.StartMap(mapName, p.config.ExtendMap.ExtendLimit, p.deps.Clock.Now())
	p.deps.TimeLimit.StartMap(timeLimit)
	p.deps.Cooldown.MapPlayed(mapName)

	p.chain.OnMapStart(mapName)

	p.logger.Info("map started", "map", mapName, "time_limit", timeLimit)
}

// OnSecond is driven by the one second ticker.
func (p *Plugin) OnSecond() {
	p.deps.Votes.Tick()
	p.chain.OnSecond()
}

func (p *Plugin) OnTimeSync(timeLimit, timePlayed, roundTime, roundsPlayed int, warmup bool) {
	p.deps.TimeLimit.Sync(timeLimit, timePlayed, roundTime)
	p.deps.Game.Rules.RoundTime = roundTime
	p.deps.Game.Rules.TotalRoundsPlayed = roundsPlayed
	p.deps.Game.Rules.WarmupRunning = warmup
}

func (p *Plugin) OnPlayerConnect(pl *player.Player) {
	p.deps.Game.Players.Add(pl)
	p.chain.OnPlayerConnect(pl)

	p.logger.Debug("player connected", "user_id", pl.UserID, "name", pl.GetName(), "valid", pl.IsValid())
}

// OnPlayerDisconnect removes the player first so features see the new
// eligible count.
func (p *Plugin) OnPlayerDisconnect(userID int) {
	pl, ok := p.deps.Game.Players.Get(userID)
	if !ok {
		return
	}

	p.deps.Game.Players.Remove(userID)
	p.deps.Votes.HandlePlayerDisconnect(vote.VoterID(userID))
	p.deps.Menus.Forget(userID)

	p.chain.OnPlayerDisconnect(pl)

	p.logger.Debug("player disconnected", "user_id", userID, "name", pl.GetName())
}

func (p *Plugin) OnPlayerTeam(userID int, team player.Team) {
	if pl, ok := p.deps.Game.Players.Get(userID); ok {
		pl.SetTeam(team)
	}
}

func (p *Plugin) OnChatMessage(userID int, message string) {
	pl, ok := p.deps.Game.Players.Get(userID)
	if !ok {
		return
	}

	message = strings.TrimSpace(message)
	if message == "" {
		return
	}

	if !p.chain.OnChatMessage(pl, message) {
		return
	}

	p.handleCommand(pl, message)
}

func (p *Plugin) OnMenuSelect(userID, option int) {
	pl, ok := p.deps.Game.Players.Get(userID)
	if !ok {
		return
	}

	kind, value, ok := p.deps.Menus.Select(userID, option)
	if !ok {
		return
	}

	switch kind {
	case features.MenuVote:
		p.features.Ballot.CastIndex(pl, option)
	case features.MenuNominate:
		p.features.Nominations.Nominate(pl, value)
	case features.MenuVotemap:
		p.features.Votemap.Vote(pl, value)
	}
}

// OnConsoleCommand runs a command for the server console and returns what
// it printed.
func (p *Plugin) OnConsoleCommand(line string) string {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return ""
	}

	result, err := p.commands.Execute(nil, strings.ToLower(parts[0]), parts[1:])
	if err != nil {
		p.logger.Warn("console command failed", "command", parts[0], "error", err)
		return err.Error()
	}
	if result != "" {
		p.logger.Info(result)
	}
	return result
}

// handleCommand runs chat commands. They work with a ! or / prefix or as a
// bare word, "!3" votes for option 3. Unknown words are ordinary chat.
func (p *Plugin) handleCommand(pl *player.Player, message string) bool {
	text := message
	prefixed := strings.HasPrefix(text, "!") || strings.HasPrefix(text, "/")
	if prefixed {
		text = text[1:]
	}

	parts := strings.Fields(text)
	if len(parts) == 0 {
		return false
	}

	if index, err := strconv.Atoi(parts[0]); err == nil {
		if !prefixed || !p.deps.Votes.HasActiveVote() {
			return false
		}
		p.features.Ballot.CastIndex(pl, index)
		return true
	}

	cmdName := strings.ToLower(parts[0])
	if p.commands.Get(cmdName) == nil {
		return false
	}

	result, err := p.commands.Execute(pl, cmdName, parts[1:])
	if err != nil {
		if errors.Is(err, lua.ErrNoPermission) {
			p.SendChatToPlayer(pl, p.lang.LocalizeWithPrefix("general.error.no-permission"))
			return true
		}
		p.logger.Error("lua command error", "command", cmdName, "player", pl.GetName(), "error", err)
		p.SendChatToPlayer(pl, p.lang.LocalizeWithPrefix("general.error.command-failed"))
		return true
	}

	if result != "" {
		p.SendChatToPlayer(pl, result)
	}
	return true
}

func (p *Plugin) RockTheVote(pl *player.Player) {
	p.features.RockTheVote.CommandHandler(pl)
}

func (p *Plugin) Nominate(pl *player.Player, mapName string) {
	p.features.Nominations.CommandHandler(pl, mapName)
}

func (p *Plugin) Votemap(pl *player.Player, mapName string) {
	p.features.Votemap.CommandHandler(pl, mapName)
}

func (p *Plugin) ExtendMap(pl *player.Player) {
	p.features.ExtendMap.CommandHandler(pl)
}

func (p *Plugin) CastVote(pl *player.Player, choice string) error {
	return p.features.Ballot.Cast(pl, choice)
}

func (p *Plugin) TimeLeft(pl *player.Player) {
	p.features.Info.TimeLeft(pl)
}

func (p *Plugin) NextMap(pl *player.Player) {
	p.features.Info.NextMap(pl)
}

func (p *Plugin) AddMapToCooldown(pl *player.Player, mapName string) {
	p.features.Info.AddMapToCooldown(pl, mapName)
}

func (p *Plugin) SendChatToPlayer(pl *player.Player, message string) {
	if pl == nil {
		p.logger.Info(message)
		return
	}
	p.deps.Host.ChatPlayer(pl.UserID, message)
}

func (p *Plugin) SendChatToAll(message string) {
	p.deps.Host.ChatAll(message)
}

func (p *Plugin) HasActiveVote() bool {
	return p.deps.Votes.HasActiveVote()
}

func (p *Plugin) GetVoteChoices() []string {
	session := p.deps.Votes.GetActiveVote()
	if session == nil {
		return nil
	}
	return session.Snapshot().Choices
}

func (p *Plugin) GetCurrentMapName() string {
	return p.deps.Game.MapName
}

func (p *Plugin) GetNextMapName() string {
	return p.deps.Game.NextMap
}

func (p *Plugin) ReloadCommands() error {
	if err := p.commands.Reload(p.config.Plugin.CommandsDir, p.api); err != nil {
		return fmt.Errorf("failed to reload commands: %w", err)
	}
	return nil
}

// Reset closes any running vote without applying it and forgets every
// player. The host resends its players after reconnecting.
func (p *Plugin) Reset() {
	p.deps.Votes.ForceCloseAll()
	p.deps.Menus.Reset()
	p.deps.Game.Players.Clear()
}
