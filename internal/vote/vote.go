package vote

import (
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

// NoInstigator starts a vote on behalf of the server, bypassing cooldowns.
const NoInstigator VoterID = -1

// Manager owns the sessions of every vote kind and makes sure only one of
// them is running at a time.
type Manager struct {
	sessions  map[string]*Session
	order     []string
	cooldowns map[VoterID]time.Time
	cooldown  time.Duration
	clock     clockwork.Clock
	logger    *slog.Logger
}

func NewManager(clock clockwork.Clock, cooldown time.Duration, logger *slog.Logger) *Manager {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		sessions:  make(map[string]*Session),
		cooldowns: make(map[VoterID]time.Time),
		cooldown:  cooldown,
		clock:     clock,
		logger:    logger,
	}
}

func (m *Manager) Register(s *Session) {
	if _, exists := m.sessions[s.Name()]; !exists {
		m.order = append(m.order, s.Name())
	}
	m.sessions[s.Name()] = s
}

func (m *Manager) Session(name string) *Session {
	return m.sessions[name]
}

func (m *Manager) HasActiveVote() bool {
	return m.GetActiveVote() != nil
}

func (m *Manager) GetActiveVote() *Session {
	for _, name := range m.order {
		if s := m.sessions[name]; s.IsActive() {
			return s
		}
	}
	return nil
}

func (m *Manager) StartVote(instigator VoterID, name string, choices []string, seconds int, applier OutcomeApplier) error {
	s, ok := m.sessions[name]
	if !ok {
		return ErrUnknownSession
	}

	if m.HasActiveVote() {
		return ErrAlreadyInProgress
	}

	if instigator != NoInstigator {
		if until, exists := m.cooldowns[instigator]; exists {
			if now := m.clock.Now(); now.Before(until) {
				return &CooldownError{Remaining: until.Sub(now)}
			}
		}
	}

	if err := s.StartVote(choices, seconds, applier); err != nil {
		return err
	}

	if instigator != NoInstigator && m.cooldown > 0 {
		m.cooldowns[instigator] = m.clock.Now().Add(m.cooldown)
	}

	return nil
}

func (m *Manager) CastVote(voter VoterID, choice string) error {
	s := m.GetActiveVote()
	if s == nil {
		return ErrNotOpen
	}
	return s.RecordVote(voter, choice)
}

func (m *Manager) CastVoteIndex(voter VoterID, index int) error {
	s := m.GetActiveVote()
	if s == nil {
		return ErrNotOpen
	}
	return s.RecordVoteIndex(voter, index)
}

// Tick advances every session by one second.
func (m *Manager) Tick() {
	for _, name := range m.order {
		m.sessions[name].Tick()
	}
}

// ForceCloseAll abandons every running vote, e.g. when the map changes.
func (m *Manager) ForceCloseAll() {
	for _, name := range m.order {
		s := m.sessions[name]
		if s.IsActive() {
			m.logger.Info("closing vote on map change", "vote", name)
		}
		s.ForceClose()
	}
}

// HandlePlayerDisconnect forgets the voter's cooldown and takes back their
// vote in the running session.
func (m *Manager) HandlePlayerDisconnect(voter VoterID) {
	delete(m.cooldowns, voter)
	if s := m.GetActiveVote(); s != nil {
		s.DropVoter(voter)
	}
}
