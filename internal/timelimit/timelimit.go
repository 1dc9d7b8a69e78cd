package timelimit

import (
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
)

// ErrRoundTimeUnknown is returned when the round time is extended before the
// server reported one.
var ErrRoundTimeUnknown = errors.New("round time not reported yet")

// Pusher forwards a changed limit to the game server.
type Pusher interface {
	SetTimeLimit(seconds int) error
	SetRoundTime(seconds int) error
}

// Manager tracks mp_timelimit and how long the current map has been played.
type Manager struct {
	clock     clockwork.Clock
	pusher    Pusher
	limit     int
	roundTime int
	// seconds added through round time extensions, unknown to mp_timelimit
	extended  int
	startedAt time.Time
}

func NewManager(clock clockwork.Clock, pusher Pusher) *Manager {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Manager{
		clock:     clock,
		pusher:    pusher,
		startedAt: clock.Now(),
	}
}

// StartMap restarts the played time for a freshly loaded map.
func (m *Manager) StartMap(limitSeconds int) {
	m.limit = limitSeconds
	m.roundTime = 0
	m.extended = 0
	m.startedAt = m.clock.Now()
}

// Sync adopts the values reported by the server.
func (m *Manager) Sync(limitSeconds, playedSeconds, roundTimeSeconds int) {
	m.limit = limitSeconds
	m.roundTime = roundTimeSeconds
	m.startedAt = m.clock.Now().Add(-time.Duration(playedSeconds) * time.Second)
}

// TimeLimitValue is mp_timelimit in seconds. Zero means no limit.
func (m *Manager) TimeLimitValue() int {
	return m.limit
}

func (m *Manager) UnlimitedTime() bool {
	return m.limit <= 0
}

func (m *Manager) RoundTime() int {
	return m.roundTime
}

// TimePlayed in seconds since the map started.
func (m *Manager) TimePlayed() int {
	return int(m.clock.Since(m.startedAt) / time.Second)
}

// TimeRemaining in seconds, never negative.
func (m *Manager) TimeRemaining() int {
	if m.UnlimitedTime() {
		return 0
	}
	remaining := m.limit + m.extended - m.TimePlayed()
	if remaining < 0 {
		return 0
	}
	return remaining
}

// TimeRemainingMinutes counts whole minutes the way the server's timeleft does.
func (m *Manager) TimeRemainingMinutes() int {
	minutes := (m.limit+m.extended)/60 - m.TimePlayed()/60
	if minutes < 0 {
		return 0
	}
	return minutes
}

// ExtendMapTimeLimit raises mp_timelimit by the given minutes. The local value
// is only kept when the server accepted it.
func (m *Manager) ExtendMapTimeLimit(minutes int) error {
	if minutes <= 0 {
		return fmt.Errorf("invalid extension of %d minutes", minutes)
	}

	limit := m.limit + minutes*60
	if m.pusher != nil {
		if err := m.pusher.SetTimeLimit(limit); err != nil {
			return fmt.Errorf("failed to set time limit: %w", err)
		}
	}

	m.limit = limit
	return nil
}

// ExtendRoundTime raises mp_roundtime instead, for modes that play one long
// round. The remaining map time grows by the same amount.
func (m *Manager) ExtendRoundTime(minutes int) error {
	if minutes <= 0 {
		return fmt.Errorf("invalid extension of %d minutes", minutes)
	}
	if m.roundTime <= 0 {
		return ErrRoundTimeUnknown
	}

	roundTime := m.roundTime + minutes*60
	if m.pusher != nil {
		if err := m.pusher.SetRoundTime(roundTime); err != nil {
			return fmt.Errorf("failed to set round time: %w", err)
		}
	}

	m.roundTime = roundTime
	m.extended += minutes * 60
	return nil
}
