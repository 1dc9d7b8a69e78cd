package lua

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/siohaza/rockthevote/internal/gamestate"
	"github.com/siohaza/rockthevote/internal/player"
)

type fakePlugin struct {
	calls    []string
	chat     map[int][]string
	choices  []string
	voteErr  error
	reloaded int
}

func (f *fakePlugin) record(call string, p *player.Player, args ...string) {
	id := "console"
	if p != nil {
		id = p.Name
	}
	f.calls = append(f.calls, strings.Join(append([]string{call, id}, args...), " "))
}

func (f *fakePlugin) RockTheVote(p *player.Player)                { f.record("rtv", p) }
func (f *fakePlugin) Nominate(p *player.Player, m string)         { f.record("nominate", p, m) }
func (f *fakePlugin) Votemap(p *player.Player, m string)          { f.record("votemap", p, m) }
func (f *fakePlugin) ExtendMap(p *player.Player)                  { f.record("ext", p) }
func (f *fakePlugin) TimeLeft(p *player.Player)                   { f.record("timeleft", p) }
func (f *fakePlugin) NextMap(p *player.Player)                    { f.record("nextmap", p) }
func (f *fakePlugin) AddMapToCooldown(p *player.Player, m string) { f.record("cooldown", p, m) }
func (f *fakePlugin) CastVote(p *player.Player, choice string) error {
	f.record("vote", p, choice)
	return f.voteErr
}
func (f *fakePlugin) SendChatToPlayer(p *player.Player, message string) {
	id := 0
	if p != nil {
		id = p.UserID
	}
	if f.chat == nil {
		f.chat = make(map[int][]string)
	}
	f.chat[id] = append(f.chat[id], message)
}
func (f *fakePlugin) SendChatToAll(message string) { f.SendChatToPlayer(nil, message) }
func (f *fakePlugin) HasActiveVote() bool          { return f.choices != nil }
func (f *fakePlugin) GetVoteChoices() []string     { return f.choices }
func (f *fakePlugin) GetCurrentMapName() string    { return "de_dust2" }
func (f *fakePlugin) GetNextMapName() string       { return "" }
func (f *fakePlugin) ReloadCommands() error {
	f.reloaded++
	return nil
}

func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func newTestCommands(t *testing.T) (*CommandManager, *fakePlugin, *gamestate.GameState) {
	t.Helper()

	dir := t.TempDir()
	writeScript(t, dir, "nominate.lua", `
name = "Nominate"
aliases = "nom, YD"
description = "Nominate a map"
usage = "/nominate [map]"

function execute(player, args)
    nominate(player.id, args[1] or "")
    return args[0]
end
`)
	writeScript(t, dir, "cooldown.lua", `
name = "mapcooldown"
permission = "changemap"

function execute(player, args)
    add_map_cooldown(player and player.id or 0, args[1])
    return ""
end
`)
	writeScript(t, dir, "vote.lua", `
name = "vote"

function execute(player, args)
    local ok, err = cast_vote(player.id, args[1])
    if not ok then
        return err
    end
    local choices = get_vote_choices()
    return "voted, " .. #choices .. " choices on " .. get_map_name()
end
`)
	writeScript(t, dir, "broken.lua", `
name = "broken"

function execute(player, args)
    error("boom")
end
`)
	writeScript(t, dir, "nohandler.lua", `name = "nohandler"`)
	writeScript(t, dir, "notes.txt", `not a script`)

	game := gamestate.New(false)
	alice := player.New(1, "alice")
	alice.SetTeam(player.TeamTerrorist)
	game.Players.Add(alice)

	plugin := &fakePlugin{}
	api := NewPluginAPI(game)
	api.SetPlugin(plugin)

	cm := NewCommandManager(slog.New(slog.NewTextHandler(io.Discard, nil)))
	api.SetCommandManager(cm)
	if err := cm.LoadCommands(dir, api); err != nil {
		t.Fatalf("load commands: %v", err)
	}

	return cm, plugin, game
}

func TestLoadCommands(t *testing.T) {
	cm, _, _ := newTestCommands(t)

	if cm.Count() != 4 {
		t.Fatalf("expected 4 commands, got %d", cm.Count())
	}
	if cm.Get("nohandler") != nil {
		t.Fatalf("a script without a handler must not load")
	}

	cmd := cm.Get("YD")
	if cmd == nil || cmd.Name != "nominate" {
		t.Fatalf("expected alias lookup to find nominate, got %+v", cmd)
	}
	if len(cmd.Aliases) != 2 || cmd.Aliases[0] != "nom" || cmd.Aliases[1] != "yd" {
		t.Fatalf("unexpected aliases %v", cmd.Aliases)
	}
	if cm.Get("mapcooldown").Permission != PermissionAdmin {
		t.Fatalf("expected changemap to map to admin")
	}
}

func TestExecuteCommand(t *testing.T) {
	cm, plugin, game := newTestCommands(t)
	alice, _ := game.Players.Get(1)

	result, err := cm.Execute(alice, "nom", []string{"de_mirage"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result != "nom" {
		t.Fatalf("expected args[0] to be the typed name, got %q", result)
	}
	if len(plugin.calls) != 1 || plugin.calls[0] != "nominate alice de_mirage" {
		t.Fatalf("unexpected calls %v", plugin.calls)
	}

	if _, err := cm.Execute(alice, "missing", nil); !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("expected unknown command, got %v", err)
	}

	if _, err := cm.Execute(alice, "broken", nil); err == nil {
		t.Fatalf("expected the lua error to be returned")
	}
	if top := cm.Get("broken").VM.State().Top(); top != 0 {
		t.Fatalf("expected a clean stack after an error, got %d values", top)
	}

	// the VM stays usable after an error
	if _, err := cm.Execute(alice, "nominate", nil); err != nil {
		t.Fatalf("execute after error: %v", err)
	}
}

func TestCommandPermissions(t *testing.T) {
	cm, plugin, game := newTestCommands(t)
	alice, _ := game.Players.Get(1)

	if _, err := cm.Execute(alice, "mapcooldown", []string{"de_nuke"}); !errors.Is(err, ErrNoPermission) {
		t.Fatalf("expected no permission, got %v", err)
	}

	alice.Lock()
	alice.Permissions = PermissionBitModerator
	alice.Unlock()
	if _, err := cm.Execute(alice, "mapcooldown", []string{"de_nuke"}); !errors.Is(err, ErrNoPermission) {
		t.Fatalf("moderators must not run admin commands, got %v", err)
	}

	alice.Lock()
	alice.Permissions = PermissionBitRoot
	alice.Unlock()
	if _, err := cm.Execute(alice, "mapcooldown", []string{"de_nuke"}); err != nil {
		t.Fatalf("root should run admin commands: %v", err)
	}

	if _, err := cm.Execute(nil, "mapcooldown", []string{"de_inferno"}); err != nil {
		t.Fatalf("console should run admin commands: %v", err)
	}

	want := []string{"cooldown alice de_nuke", "cooldown console de_inferno"}
	if len(plugin.calls) != 2 || plugin.calls[0] != want[0] || plugin.calls[1] != want[1] {
		t.Fatalf("unexpected calls %v", plugin.calls)
	}

	names := []string{}
	for _, cmd := range cm.List(nil) {
		names = append(names, cmd.Name)
	}
	if strings.Join(names, ",") != "broken,mapcooldown,nominate,vote" {
		t.Fatalf("unexpected sorted list %v", names)
	}

	bob := player.New(2, "bob")
	if len(cm.List(bob)) != 3 {
		t.Fatalf("expected the admin command to be hidden from bob")
	}
}

func TestCastVoteFromLua(t *testing.T) {
	cm, plugin, game := newTestCommands(t)
	alice, _ := game.Players.Get(1)

	plugin.choices = []string{"de_nuke", "de_inferno", "Extend current map"}
	result, err := cm.Execute(alice, "vote", []string{"2"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result != "voted, 3 choices on de_dust2" {
		t.Fatalf("unexpected result %q", result)
	}

	plugin.voteErr = errors.New("vote is not open")
	result, err = cm.Execute(alice, "vote", []string{"2"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result != "vote is not open" {
		t.Fatalf("expected the error string, got %q", result)
	}
}

func TestCallFunctionWithReturn(t *testing.T) {
	vm := NewVM()
	if err := vm.LoadString(`
function add(a, b) return a + b, "sum" end
function greet(name) return "hi " .. name end
`); err != nil {
		t.Fatalf("load: %v", err)
	}

	results, err := vm.CallFunctionWithReturn("add", 2, 2, 3)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if results[0] != float64(5) || results[1] != "sum" {
		t.Fatalf("unexpected results %v", results)
	}

	if _, err := vm.CallFunctionWithReturn("greet", 1, []string{"x"}); err == nil {
		t.Fatalf("expected unsupported argument error")
	}
	if top := vm.State().Top(); top != 0 {
		t.Fatalf("expected a clean stack, got %d values", top)
	}

	if _, err := vm.CallFunctionWithReturn("missing", 1); err == nil {
		t.Fatalf("expected error for a missing function")
	}

	if vm.HasFunction("os") {
		t.Fatalf("os must not be a function")
	}
	if _, err := vm.GetGlobalString("os"); err == nil {
		t.Fatalf("os library must be removed")
	}
}
