package lua

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/siohaza/rockthevote/internal/player"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrNoPermission   = errors.New("no permission")
)

type CommandPermission int

const (
	PermissionNone CommandPermission = iota
	PermissionVip
	PermissionModerator
	PermissionAdmin
	PermissionRoot
)

// Permission bits sent by the host shim in PlayerConnect. The shim maps the
// game's admin flags onto them (@css/reservation, @css/kick, @css/changemap,
// @css/root).
const (
	PermissionBitVip       uint64 = 1 << 1
	PermissionBitModerator uint64 = 1 << 2
	PermissionBitAdmin     uint64 = 1 << 3
	PermissionBitRoot      uint64 = 1 << 4
)

type LuaCommand struct {
	Name        string
	Aliases     []string
	Permission  CommandPermission
	Description string
	Usage       string
	Handler     string
	VM          *VM
}

type CommandManager struct {
	commands map[string]*LuaCommand
	aliases  map[string]string
	logger   *slog.Logger
}

func NewCommandManager(logger *slog.Logger) *CommandManager {
	if logger == nil {
		logger = slog.Default()
	}

	return &CommandManager{
		commands: make(map[string]*LuaCommand),
		aliases:  make(map[string]string),
		logger:   logger,
	}
}

func (cm *CommandManager) LoadCommands(commandsDir string, api *PluginAPI) error {
	files, err := os.ReadDir(commandsDir)
	if err != nil {
		return fmt.Errorf("failed to read commands directory: %w", err)
	}

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".lua") {
			continue
		}

		commandPath := filepath.Join(commandsDir, file.Name())
		if err := cm.LoadCommandFile(commandPath, api); err != nil {
			cm.logger.Warn("failed to load command file", "file", file.Name(), "error", err)
			continue
		}
	}

	cm.logger.Info("loaded lua commands", "count", len(cm.commands))
	return nil
}

func (cm *CommandManager) Reload(commandsDir string, api *PluginAPI) error {
	cm.commands = make(map[string]*LuaCommand)
	cm.aliases = make(map[string]string)

	return cm.LoadCommands(commandsDir, api)
}

func (cm *CommandManager) LoadCommandFile(path string, api *PluginAPI) error {
	vm := NewVM()

	if api != nil {
		api.RegisterFunctions(vm)
	}

	if err := vm.LoadFile(path); err != nil {
		return err
	}

	name, err := vm.GetGlobalString("name")
	if err != nil {
		return fmt.Errorf("command missing 'name': %w", err)
	}

	cmd := &LuaCommand{
		Name: strings.ToLower(name),
		VM:   vm,
	}

	if aliases, err := vm.GetGlobalString("aliases"); err == nil {
		for _, alias := range strings.Split(aliases, ",") {
			if alias = strings.ToLower(strings.TrimSpace(alias)); alias != "" {
				cmd.Aliases = append(cmd.Aliases, alias)
			}
		}
	}

	if desc, err := vm.GetGlobalString("description"); err == nil {
		cmd.Description = desc
	}

	if usage, err := vm.GetGlobalString("usage"); err == nil {
		cmd.Usage = usage
	}

	if perm, err := vm.GetGlobalString("permission"); err == nil {
		cmd.Permission = parsePermission(perm)
	}

	if handler, err := vm.GetGlobalString("handler"); err == nil {
		cmd.Handler = handler
	} else {
		cmd.Handler = "execute"
	}

	if !vm.HasFunction(cmd.Handler) {
		return fmt.Errorf("command %s has no handler function %s", cmd.Name, cmd.Handler)
	}

	cm.Register(cmd)
	return nil
}

func (cm *CommandManager) Register(cmd *LuaCommand) {
	cm.commands[cmd.Name] = cmd
	for _, alias := range cmd.Aliases {
		cm.aliases[alias] = cmd.Name
	}
}

func (cm *CommandManager) Get(name string) *LuaCommand {
	name = strings.ToLower(name)
	if canonical, ok := cm.aliases[name]; ok {
		return cm.commands[canonical]
	}
	return cm.commands[name]
}

func (cm *CommandManager) Count() int {
	return len(cm.commands)
}

// Execute runs a command for p. A nil player is the server console, which
// may run every command.
func (cm *CommandManager) Execute(p *player.Player, cmdName string, args []string) (string, error) {
	cmd := cm.Get(cmdName)
	if cmd == nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownCommand, cmdName)
	}

	if !HasPermission(p, cmd.Permission) {
		return "", fmt.Errorf("%w: %s", ErrNoPermission, cmd.Name)
	}

	state := cmd.VM.State()
	state.Global(cmd.Handler)
	if !state.IsFunction(-1) {
		state.Pop(1)
		return "", fmt.Errorf("command handler not found: %s", cmd.Handler)
	}

	PushPlayer(state, p)

	state.NewTable()
	state.PushString(cmdName)
	state.RawSetInt(-2, 0)
	for i, arg := range args {
		state.PushString(arg)
		state.RawSetInt(-2, i+1)
	}

	if err := state.ProtectedCall(2, 1, 0); err != nil {
		// drop the error object
		state.Pop(1)
		return "", fmt.Errorf("command execution failed: %w", err)
	}

	result := ""
	if state.IsString(-1) {
		result, _ = state.ToString(-1)
	}
	state.Pop(1)

	return result, nil
}

// List returns the commands p may run, sorted by name.
func (cm *CommandManager) List(p *player.Player) []*LuaCommand {
	var commands []*LuaCommand
	for _, cmd := range cm.commands {
		if HasPermission(p, cmd.Permission) {
			commands = append(commands, cmd)
		}
	}
	sort.Slice(commands, func(i, j int) bool {
		return commands[i].Name < commands[j].Name
	})
	return commands
}

func parsePermission(perm string) CommandPermission {
	switch strings.ToLower(perm) {
	case "vip", "reservation":
		return PermissionVip
	case "moderator", "mod":
		return PermissionModerator
	case "admin", "changemap":
		return PermissionAdmin
	case "root":
		return PermissionRoot
	default:
		return PermissionNone
	}
}

func HasPermission(p *player.Player, required CommandPermission) bool {
	if required == PermissionNone || p == nil {
		return true
	}

	p.RLock()
	perms := p.Permissions
	p.RUnlock()

	return permissionLevel(perms) >= required
}

func permissionLevel(perms uint64) CommandPermission {
	switch {
	case perms&PermissionBitRoot != 0:
		return PermissionRoot
	case perms&PermissionBitAdmin != 0:
		return PermissionAdmin
	case perms&PermissionBitModerator != 0:
		return PermissionModerator
	case perms&PermissionBitVip != 0:
		return PermissionVip
	default:
		return PermissionNone
	}
}
