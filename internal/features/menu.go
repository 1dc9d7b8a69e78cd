package features

import "github.com/siohaza/rockthevote/internal/host"

type MenuKind int

const (
	MenuVote MenuKind = iota
	MenuNominate
	MenuVotemap
)

type openMenu struct {
	kind   MenuKind
	values []string
}

// MenuTracker remembers which menu each player has open so a numbered
// selection coming back from the host can be mapped to its value.
type MenuTracker struct {
	host  host.Host
	menus map[int]openMenu
}

func NewMenuTracker(h host.Host) *MenuTracker {
	return &MenuTracker{
		host:  h,
		menus: make(map[int]openMenu),
	}
}

// Open shows a menu. labels are displayed, values are returned on selection.
func (m *MenuTracker) Open(userID int, kind MenuKind, title string, labels, values []string) {
	m.menus[userID] = openMenu{kind: kind, values: values}
	m.host.OpenMenu(userID, title, labels)
}

// Select resolves a 1-based option from the player's open menu and closes it.
func (m *MenuTracker) Select(userID, option int) (MenuKind, string, bool) {
	menu, ok := m.menus[userID]
	if !ok || option < 1 || option > len(menu.values) {
		return 0, "", false
	}

	// vote menus stay open so players can change their mind
	if menu.kind != MenuVote {
		m.Close(userID)
	}
	return menu.kind, menu.values[option-1], true
}

func (m *MenuTracker) Kind(userID int) (MenuKind, bool) {
	menu, ok := m.menus[userID]
	return menu.kind, ok
}

func (m *MenuTracker) Close(userID int) {
	if _, ok := m.menus[userID]; !ok {
		return
	}
	delete(m.menus, userID)
	m.host.CloseMenu(userID)
}

func (m *MenuTracker) CloseAll(kind MenuKind) {
	for userID, menu := range m.menus {
		if menu.kind == kind {
			delete(m.menus, userID)
			m.host.CloseMenu(userID)
		}
	}
}

// Forget drops a disconnected player's menu without telling the host.
func (m *MenuTracker) Forget(userID int) {
	delete(m.menus, userID)
}

func (m *MenuTracker) Reset() {
	m.menus = make(map[int]openMenu)
}
