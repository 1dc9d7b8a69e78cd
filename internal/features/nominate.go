package features

import (
	"sort"

	"github.com/siohaza/rockthevote/internal/callbacks"
	"github.com/siohaza/rockthevote/internal/i18n"
	"github.com/siohaza/rockthevote/internal/player"
)

type nomination struct {
	playerName string
	maps       []string
}

// Nominations collects the maps players want to see in the next map vote.
type Nominations struct {
	callbacks.DefaultCallbacks

	deps    *Deps
	lang    *i18n.Localizer
	byUser  map[int]*nomination
	ordered []int
}

func NewNominations(d *Deps) *Nominations {
	return &Nominations{
		deps:   d,
		lang:   d.Lang.WithPrefix("rtv.prefix"),
		byUser: make(map[int]*nomination),
	}
}

func (n *Nominations) CommandHandler(p *player.Player, mapName string) {
	if p == nil {
		return
	}

	cfg := n.deps.Config.Rtv
	if !n.deps.allowed(p, n.lang, gate{
		enabled:         cfg.NominationEnabled,
		enabledInWarmup: cfg.EnabledInWarmup,
		minRounds:       cfg.MinRounds,
		minPlayers:      cfg.MinPlayers,
	}) {
		return
	}

	if mapName == "" {
		n.OpenMenu(p)
		return
	}
	n.Nominate(p, mapName)
}

// OpenMenu lists every map except the current one. Maps in cooldown are
// listed but refused when picked.
func (n *Nominations) OpenMenu(p *player.Player) {
	var labels, values []string
	for _, name := range n.deps.Maps.Names() {
		if n.deps.Maps.Equal(name, n.deps.Game.MapName) {
			continue
		}
		label := name
		if n.deps.Cooldown.IsInCooldown(name) {
			label = n.lang.Localize("nominate.cooldown-option", name)
		}
		labels = append(labels, label)
		values = append(values, name)
	}

	n.deps.Menus.Open(p.UserID, MenuNominate, n.lang.Localize("nominate.menu-title"), labels, values)
}

func (n *Nominations) Nominate(p *player.Player, input string) {
	name, ok := n.deps.resolveMap(p, n.lang, input)
	if !ok {
		return
	}

	if n.deps.Maps.Equal(name, n.deps.Game.MapName) {
		n.deps.tell(p, n.lang.LocalizeWithPrefix("general.validation.current-map"))
		return
	}

	if n.deps.Cooldown.IsInCooldown(name) {
		n.deps.tell(p, n.lang.LocalizeWithPrefix("general.validation.map-played-recently"))
		return
	}

	entry, exists := n.byUser[p.UserID]
	if !exists {
		entry = &nomination{playerName: p.GetName()}
		n.byUser[p.UserID] = entry
		n.ordered = append(n.ordered, p.UserID)
	}

	alreadyNominated := false
	for _, m := range entry.maps {
		if m == name {
			alreadyNominated = true
			break
		}
	}
	if !alreadyNominated {
		entry.maps = append(entry.maps, name)
	}

	total := n.Count(name)
	if alreadyNominated {
		n.deps.tell(p, n.lang.LocalizeWithPrefix("nominate.already-nominated", name, total))
	} else {
		n.deps.Host.ChatAll(n.lang.LocalizeWithPrefix("nominate.nominated", p.GetName(), name, total))
	}
	n.deps.Menus.Close(p.UserID)
}

// Count returns how many players nominated the map.
func (n *Nominations) Count(name string) int {
	total := 0
	for _, entry := range n.byUser {
		for _, m := range entry.maps {
			if m == name {
				total++
			}
		}
	}
	return total
}

// Winners lists every nominated map, most nominated first. Ties keep the
// order in which the maps were first nominated.
func (n *Nominations) Winners() []string {
	counts := make(map[string]int)
	var order []string
	for _, userID := range n.ordered {
		entry, ok := n.byUser[userID]
		if !ok {
			continue
		}
		for _, m := range entry.maps {
			if _, seen := counts[m]; !seen {
				order = append(order, m)
			}
			counts[m]++
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	return order
}

func (n *Nominations) Reset() {
	n.byUser = make(map[int]*nomination)
	n.ordered = nil
}

func (n *Nominations) OnMapStart(string) {
	n.Reset()
}

func (n *Nominations) OnPlayerDisconnect(p *player.Player) {
	if _, ok := n.byUser[p.UserID]; !ok {
		return
	}
	delete(n.byUser, p.UserID)

	kept := n.ordered[:0]
	for _, id := range n.ordered {
		if id != p.UserID {
			kept = append(kept, id)
		}
	}
	n.ordered = kept
}
