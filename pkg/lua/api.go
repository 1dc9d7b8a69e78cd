package lua

import (
	"github.com/Shopify/go-lua"

	"github.com/siohaza/rockthevote/internal/gamestate"
	"github.com/siohaza/rockthevote/internal/player"
)

// PluginInterface is what command scripts may do. A nil player means the
// server console.
type PluginInterface interface {
	RockTheVote(p *player.Player)
	Nominate(p *player.Player, mapName string)
	Votemap(p *player.Player, mapName string)
	ExtendMap(p *player.Player)
	CastVote(p *player.Player, choice string) error
	TimeLeft(p *player.Player)
	NextMap(p *player.Player)
	AddMapToCooldown(p *player.Player, mapName string)
	SendChatToPlayer(p *player.Player, message string)
	SendChatToAll(message string)
	HasActiveVote() bool
	GetVoteChoices() []string
	GetCurrentMapName() string
	GetNextMapName() string
	ReloadCommands() error
}

type PluginAPI struct {
	gameState      *gamestate.GameState
	plugin         PluginInterface
	commandManager *CommandManager
}

func NewPluginAPI(gs *gamestate.GameState) *PluginAPI {
	return &PluginAPI{
		gameState: gs,
	}
}

func (api *PluginAPI) SetPlugin(p PluginInterface) {
	api.plugin = p
}

func (api *PluginAPI) SetCommandManager(cm *CommandManager) {
	api.commandManager = cm
}

func (api *PluginAPI) RegisterFunctions(vm *VM) {
	state := vm.State()

	state.Register("rock_the_vote", api.rockTheVote)
	state.Register("nominate", api.nominate)
	state.Register("votemap", api.votemap)
	state.Register("extend_map", api.extendMap)
	state.Register("cast_vote", api.castVote)
	state.Register("time_left", api.timeLeft)
	state.Register("next_map", api.nextMap)
	state.Register("add_map_cooldown", api.addMapCooldown)

	state.Register("send_chat", api.sendChat)
	state.Register("broadcast_chat", api.broadcastChat)
	state.Register("get_player", api.getPlayer)
	state.Register("get_player_count", api.getPlayerCount)
	state.Register("has_permission", api.hasPermission)
	state.Register("has_active_vote", api.hasActiveVote)
	state.Register("get_vote_choices", api.getVoteChoices)
	state.Register("get_map_name", api.getMapName)
	state.Register("get_next_map", api.getNextMap)
	state.Register("get_available_commands", api.getAvailableCommands)
	state.Register("reload_commands", api.reloadCommands)
}

// playerArg resolves the player id at idx. Zero or nil is the console.
func (api *PluginAPI) playerArg(state *lua.State, idx int) (*player.Player, bool) {
	if state.IsNoneOrNil(idx) {
		return nil, true
	}
	id, _ := state.ToInteger(idx)
	if id == 0 {
		return nil, true
	}
	return api.gameState.Players.Get(id)
}

func (api *PluginAPI) rockTheVote(state *lua.State) int {
	p, ok := api.playerArg(state, 1)
	if api.plugin == nil || !ok || p == nil {
		return 0
	}
	api.plugin.RockTheVote(p)
	return 0
}

func (api *PluginAPI) nominate(state *lua.State) int {
	p, ok := api.playerArg(state, 1)
	mapName := lua.OptString(state, 2, "")
	if api.plugin == nil || !ok || p == nil {
		return 0
	}
	api.plugin.Nominate(p, mapName)
	return 0
}

func (api *PluginAPI) votemap(state *lua.State) int {
	p, ok := api.playerArg(state, 1)
	mapName := lua.OptString(state, 2, "")
	if api.plugin == nil || !ok || p == nil {
		return 0
	}
	api.plugin.Votemap(p, mapName)
	return 0
}

func (api *PluginAPI) extendMap(state *lua.State) int {
	p, ok := api.playerArg(state, 1)
	if api.plugin == nil || !ok || p == nil {
		return 0
	}
	api.plugin.ExtendMap(p)
	return 0
}

func (api *PluginAPI) castVote(state *lua.State) int {
	if api.plugin == nil {
		state.PushBoolean(false)
		state.PushString("plugin not available")
		return 2
	}

	p, ok := api.playerArg(state, 1)
	if !ok || p == nil {
		state.PushBoolean(false)
		state.PushString("player not found")
		return 2
	}

	var choice string
	switch state.TypeOf(2) {
	case lua.TypeString, lua.TypeNumber:
		choice, _ = state.ToString(2)
	default:
		state.PushBoolean(false)
		state.PushString("invalid choice type")
		return 2
	}

	if err := api.plugin.CastVote(p, choice); err != nil {
		state.PushBoolean(false)
		state.PushString(err.Error())
		return 2
	}

	state.PushBoolean(true)
	state.PushString("")
	return 2
}

func (api *PluginAPI) timeLeft(state *lua.State) int {
	p, ok := api.playerArg(state, 1)
	if api.plugin == nil || !ok {
		return 0
	}
	api.plugin.TimeLeft(p)
	return 0
}

func (api *PluginAPI) nextMap(state *lua.State) int {
	p, ok := api.playerArg(state, 1)
	if api.plugin == nil || !ok {
		return 0
	}
	api.plugin.NextMap(p)
	return 0
}

func (api *PluginAPI) addMapCooldown(state *lua.State) int {
	p, ok := api.playerArg(state, 1)
	mapName := lua.OptString(state, 2, "")
	if api.plugin == nil || !ok {
		return 0
	}
	api.plugin.AddMapToCooldown(p, mapName)
	return 0
}

func (api *PluginAPI) sendChat(state *lua.State) int {
	p, ok := api.playerArg(state, 1)
	message, _ := state.ToString(2)

	if api.plugin == nil || !ok {
		return 0
	}

	api.plugin.SendChatToPlayer(p, message)
	return 0
}

func (api *PluginAPI) broadcastChat(state *lua.State) int {
	message, _ := state.ToString(1)

	if api.plugin == nil {
		return 0
	}

	api.plugin.SendChatToAll(message)
	return 0
}

func (api *PluginAPI) getPlayer(state *lua.State) int {
	id, _ := state.ToInteger(1)

	p, _ := api.gameState.Players.Get(id)
	PushPlayer(state, p)
	return 1
}

func (api *PluginAPI) getPlayerCount(state *lua.State) int {
	state.PushInteger(api.gameState.ValidPlayerCount())
	return 1
}

// PushPlayer pushes p as a table, or nil for the console.
func PushPlayer(state *lua.State, p *player.Player) {
	if p == nil {
		state.PushNil()
		return
	}

	p.RLock()
	defer p.RUnlock()

	state.NewTable()
	state.PushInteger(p.UserID)
	state.SetField(-2, "id")
	state.PushInteger(int(p.Slot))
	state.SetField(-2, "slot")
	state.PushString(p.Name)
	state.SetField(-2, "name")
	state.PushInteger(int(p.Team))
	state.SetField(-2, "team")
	state.PushBoolean(p.IsBot)
	state.SetField(-2, "is_bot")
	state.PushNumber(float64(p.Permissions))
	state.SetField(-2, "permissions")
}

func (api *PluginAPI) hasPermission(state *lua.State) int {
	permissionName, _ := state.ToString(2)

	p, ok := api.playerArg(state, 1)
	if !ok {
		state.PushBoolean(false)
		return 1
	}

	state.PushBoolean(HasPermission(p, parsePermission(permissionName)))
	return 1
}

func (api *PluginAPI) hasActiveVote(state *lua.State) int {
	if api.plugin == nil {
		state.PushBoolean(false)
		return 1
	}

	state.PushBoolean(api.plugin.HasActiveVote())
	return 1
}

func (api *PluginAPI) getVoteChoices(state *lua.State) int {
	if api.plugin == nil {
		state.PushNil()
		return 1
	}

	choices := api.plugin.GetVoteChoices()
	if choices == nil {
		state.PushNil()
		return 1
	}

	state.CreateTable(len(choices), 0)
	for i, choice := range choices {
		state.PushString(choice)
		state.RawSetInt(-2, i+1)
	}
	return 1
}

func (api *PluginAPI) getMapName(state *lua.State) int {
	if api.plugin == nil {
		state.PushString("")
		return 1
	}

	state.PushString(api.plugin.GetCurrentMapName())
	return 1
}

func (api *PluginAPI) getNextMap(state *lua.State) int {
	if api.plugin == nil {
		state.PushString("")
		return 1
	}

	state.PushString(api.plugin.GetNextMapName())
	return 1
}

func (api *PluginAPI) getAvailableCommands(state *lua.State) int {
	if api.commandManager == nil {
		state.NewTable()
		return 1
	}

	p, ok := api.playerArg(state, 1)
	if !ok {
		state.NewTable()
		return 1
	}

	commands := api.commandManager.List(p)

	state.NewTable()
	for i, cmd := range commands {
		state.NewTable()

		state.PushString(cmd.Name)
		state.SetField(-2, "name")

		state.PushString(cmd.Description)
		state.SetField(-2, "description")

		state.PushString(cmd.Usage)
		state.SetField(-2, "usage")

		state.NewTable()
		for j, alias := range cmd.Aliases {
			state.PushString(alias)
			state.RawSetInt(-2, j+1)
		}
		state.SetField(-2, "aliases")

		state.RawSetInt(-2, i+1)
	}

	return 1
}

func (api *PluginAPI) reloadCommands(state *lua.State) int {
	if api.plugin == nil {
		state.PushBoolean(false)
		state.PushString("plugin not available")
		return 2
	}

	if err := api.plugin.ReloadCommands(); err != nil {
		state.PushBoolean(false)
		state.PushString(err.Error())
		return 2
	}

	state.PushBoolean(true)
	state.PushString("")
	return 2
}
