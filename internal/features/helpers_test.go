package features

import (
	"io"
	"log/slog"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonboulle/clockwork"

	"github.com/siohaza/rockthevote/internal/gamestate"
	"github.com/siohaza/rockthevote/internal/i18n"
	"github.com/siohaza/rockthevote/internal/maplist"
	"github.com/siohaza/rockthevote/internal/player"
	"github.com/siohaza/rockthevote/internal/timelimit"
	"github.com/siohaza/rockthevote/internal/vote"
	"github.com/siohaza/rockthevote/pkg/config"
)

type fakeHost struct {
	chatAll      []string
	chatPlayer   map[int][]string
	centerAll    []string
	centerPlayer map[int][]string
	menus        map[int][]string
	closed       []int
	changed      []string
	nextMaps     []string
	limits       []int
	roundTimes   []int

	changeErr error
	limitErr  error
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		chatPlayer:   make(map[int][]string),
		centerPlayer: make(map[int][]string),
		menus:        make(map[int][]string),
	}
}

func (h *fakeHost) ChatAll(message string) { h.chatAll = append(h.chatAll, message) }
func (h *fakeHost) ChatPlayer(userID int, message string) {
	h.chatPlayer[userID] = append(h.chatPlayer[userID], message)
}
func (h *fakeHost) CenterAll(html string) { h.centerAll = append(h.centerAll, html) }
func (h *fakeHost) CenterPlayer(userID int, html string) {
	h.centerPlayer[userID] = append(h.centerPlayer[userID], html)
}
func (h *fakeHost) OpenMenu(userID int, title string, options []string) {
	h.menus[userID] = options
}
func (h *fakeHost) CloseMenu(userID int) {
	delete(h.menus, userID)
	h.closed = append(h.closed, userID)
}

func (h *fakeHost) ChangeMap(name, workshopID string) error {
	if h.changeErr != nil {
		return h.changeErr
	}
	h.changed = append(h.changed, name)
	return nil
}

func (h *fakeHost) SetNextMap(name string) error {
	h.nextMaps = append(h.nextMaps, name)
	return nil
}

func (h *fakeHost) SetTimeLimit(seconds int) error {
	if h.limitErr != nil {
		return h.limitErr
	}
	h.limits = append(h.limits, seconds)
	return nil
}

func (h *fakeHost) SetRoundTime(seconds int) error {
	if h.limitErr != nil {
		return h.limitErr
	}
	h.roundTimes = append(h.roundTimes, seconds)
	return nil
}

// saidToAll reports whether any broadcast contains text.
func (h *fakeHost) saidToAll(text string) bool {
	for _, m := range h.chatAll {
		if strings.Contains(m, text) {
			return true
		}
	}
	return false
}

func (h *fakeHost) toldPlayer(userID int, text string) bool {
	for _, m := range h.chatPlayer[userID] {
		if strings.Contains(m, text) {
			return true
		}
	}
	return false
}

var testMaps = []string{
	"de_dust2", "de_inferno", "de_mirage", "de_nuke",
	"de_ancient", "de_anubis", "de_vertigo", "de_overpass",
}

type harness struct {
	deps  *Deps
	host  *fakeHost
	clock *clockwork.FakeClock
	set   *Set
}

func newHarness(t *testing.T, players int, mutate ...func(*config.Config)) *harness {
	t.Helper()

	cfg, err := config.Parse([]byte("version = 15\n"))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	for _, fn := range mutate {
		fn(cfg)
	}

	lang, err := i18n.Load(filepath.Join("..", "..", "lang"), "en")
	if err != nil {
		t.Fatalf("lang: %v", err)
	}

	maps := make([]maplist.Map, len(testMaps))
	for i, name := range testMaps {
		maps[i] = maplist.Map{Name: name}
	}

	h := newFakeHost()
	clock := clockwork.NewFakeClock()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	game := gamestate.New(cfg.Plugin.CountSpectators)
	game.StartMap("de_dust2", cfg.ExtendMap.ExtendLimit, clock.Now())

	tl := timelimit.NewManager(clock, h)
	tl.StartMap(20 * 60)

	d := &Deps{
		Config:    cfg,
		Game:      game,
		Host:      h,
		Votes:     vote.NewManager(clock, 0, logger),
		TimeLimit: tl,
		Maps:      maplist.New(maps),
		Cooldown:  maplist.NewCooldown(cfg.MapCooldown.MapsInCooldown),
		Lang:      lang,
		Menus:     NewMenuTracker(h),
		Clock:     clock,
		Rand:      rand.New(rand.NewSource(1)),
		Logger:    logger,
	}

	names := []string{"alice", "bob", "carol", "dave", "erin", "frank", "grace", "heidi"}
	for i := 1; i <= players; i++ {
		p := player.New(i, names[(i-1)%len(names)])
		p.SetTeam(player.TeamCounterTerrorist)
		game.Players.Add(p)
	}

	return &harness{
		deps:  d,
		host:  h,
		clock: clock,
		set:   New(d),
	}
}

func (h *harness) player(userID int) *player.Player {
	p, ok := h.deps.Game.Players.Get(userID)
	if !ok {
		panic("unknown test player")
	}
	return p
}

func (h *harness) activeChoices(t *testing.T) []string {
	t.Helper()
	session := h.deps.Votes.GetActiveVote()
	if session == nil {
		t.Fatalf("expected an active vote")
	}
	return session.Snapshot().Choices
}
