package player

import (
	"sort"
	"strings"
	"sync"
	"time"
)

type Team uint8

const (
	TeamNone Team = iota
	TeamSpectator
	TeamTerrorist
	TeamCounterTerrorist
)

func (t Team) String() string {
	switch t {
	case TeamSpectator:
		return "spectator"
	case TeamTerrorist:
		return "t"
	case TeamCounterTerrorist:
		return "ct"
	default:
		return "none"
	}
}

type Player struct {
	UserID      int
	Slot        uint8
	Name        string
	SteamID     uint64
	Team        Team
	IsBot       bool
	IsHLTV      bool
	Permissions uint64
	ConnectedAt time.Time

	mu sync.RWMutex
}

func New(userID int, name string) *Player {
	return &Player{
		UserID:      userID,
		Name:        name,
		ConnectedAt: time.Now(),
	}
}

func (p *Player) Lock() {
	p.mu.Lock()
}

func (p *Player) Unlock() {
	p.mu.Unlock()
}

func (p *Player) RLock() {
	p.mu.RLock()
}

func (p *Player) RUnlock() {
	p.mu.RUnlock()
}

func (p *Player) SetTeam(team Team) {
	p.mu.Lock()
	p.Team = team
	p.mu.Unlock()
}

func (p *Player) GetTeam() Team {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Team
}

func (p *Player) GetName() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Name
}

// IsValid reports whether the player is a real human able to vote.
func (p *Player) IsValid() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return !p.IsBot && !p.IsHLTV
}

type Manager struct {
	players map[int]*Player
	mu      sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		players: make(map[int]*Player),
	}
}

func (m *Manager) Add(player *Player) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.players[player.UserID] = player
}

func (m *Manager) Remove(userID int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.players, userID)
}

func (m *Manager) Get(userID int) (*Player, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.players[userID]
	return p, ok
}

// FindByName returns the first player whose name contains the given text,
// ignoring case.
func (m *Manager) FindByName(name string) (*Player, bool) {
	needle := strings.ToLower(name)
	for _, p := range m.GetAll() {
		if strings.Contains(strings.ToLower(p.GetName()), needle) {
			return p, true
		}
	}
	return nil, false
}

// GetAll returns the players ordered by user id.
func (m *Manager) GetAll() []*Player {
	m.mu.RLock()
	players := make([]*Player, 0, len(m.players))
	for _, p := range m.players {
		players = append(players, p)
	}
	m.mu.RUnlock()

	sort.Slice(players, func(i, j int) bool {
		return players[i].UserID < players[j].UserID
	})
	return players
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.players)
}

// ValidCount counts human players. Spectators are only counted when
// includeSpectators is set.
func (m *Manager) ValidCount(includeSpectators bool) int {
	count := 0
	m.ForEachValid(includeSpectators, func(*Player) {
		count++
	})
	return count
}

func (m *Manager) ForEach(fn func(*Player)) {
	for _, p := range m.GetAll() {
		fn(p)
	}
}

func (m *Manager) ForEachValid(includeSpectators bool, fn func(*Player)) {
	m.ForEach(func(p *Player) {
		if !p.IsValid() {
			return
		}
		if !includeSpectators && p.GetTeam() == TeamSpectator {
			return
		}
		fn(p)
	})
}

func (m *Manager) Contains(userID int) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.players[userID]
	return ok
}

func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.players = make(map[int]*Player)
}
