package vote

import (
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func newTestManager(clock clockwork.Clock) *Manager {
	m := NewManager(clock, 2*time.Minute, quietLogger())
	for _, name := range []string{"endmap", "extendtime"} {
		m.Register(NewSession(SessionConfig{
			Name:        name,
			RejectLabel: "No",
			Eligibility: EligibilityFunc(func() int { return 4 }),
			Logger:      quietLogger(),
		}))
	}
	return m
}

func TestManagerSingleActiveVote(t *testing.T) {
	m := newTestManager(clockwork.NewFakeClock())

	if err := m.StartVote(NoInstigator, "endmap", []string{"a", "b"}, 10, nil); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := m.StartVote(NoInstigator, "extendtime", []string{"Yes", "No"}, 10, nil); !errors.Is(err, ErrAlreadyInProgress) {
		t.Fatalf("expected ErrAlreadyInProgress, got %v", err)
	}
	if active := m.GetActiveVote(); active == nil || active.Name() != "endmap" {
		t.Fatalf("unexpected active vote %v", active)
	}
	if err := m.StartVote(NoInstigator, "missing", []string{"x"}, 10, nil); !errors.Is(err, ErrUnknownSession) {
		t.Fatalf("expected ErrUnknownSession, got %v", err)
	}

	if err := m.CastVoteIndex(1, 2); err != nil {
		t.Fatalf("vote failed: %v", err)
	}
	if label, _ := m.Session("endmap").VoteOf(1); label != "b" {
		t.Fatalf("expected vote for b, got %q", label)
	}

	m.ForceCloseAll()
	if m.HasActiveVote() {
		t.Fatalf("vote still active after ForceCloseAll")
	}
	if err := m.CastVote(1, "a"); !errors.Is(err, ErrNotOpen) {
		t.Fatalf("expected ErrNotOpen, got %v", err)
	}
}

func TestManagerInstigatorCooldown(t *testing.T) {
	clock := clockwork.NewFakeClock()
	m := newTestManager(clock)

	if err := m.StartVote(5, "extendtime", []string{"Yes", "No"}, 10, nil); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	m.ForceCloseAll()

	var cooldown *CooldownError
	err := m.StartVote(5, "extendtime", []string{"Yes", "No"}, 10, nil)
	if !errors.As(err, &cooldown) {
		t.Fatalf("expected cooldown error, got %v", err)
	}

	if err := m.StartVote(6, "extendtime", []string{"Yes", "No"}, 10, nil); err != nil {
		t.Fatalf("other player blocked by cooldown: %v", err)
	}
	m.ForceCloseAll()

	clock.Advance(2*time.Minute + time.Second)
	if err := m.StartVote(5, "extendtime", []string{"Yes", "No"}, 10, nil); err != nil {
		t.Fatalf("cooldown did not expire: %v", err)
	}
}

func TestManagerTickDrivesSessions(t *testing.T) {
	m := newTestManager(clockwork.NewFakeClock())

	if err := m.StartVote(NoInstigator, "extendtime", []string{"Yes", "No"}, 2, nil); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	m.Tick()
	m.Tick()

	s := m.Session("extendtime")
	if s.State() != StateClosed {
		t.Fatalf("expected closed after timeout, got %s", s.State())
	}
	if r, ok := s.LastResult(); !ok || r.Kind != ResultNoVotes {
		t.Fatalf("expected no votes result, got %+v", r)
	}
}

func TestManagerDisconnectDropsVote(t *testing.T) {
	clock := clockwork.NewFakeClock()
	m := newTestManager(clock)

	if err := m.StartVote(1, "extendtime", []string{"Yes", "No"}, 10, nil); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := m.CastVote(1, "Yes"); err != nil {
		t.Fatalf("vote failed: %v", err)
	}

	m.HandlePlayerDisconnect(1)

	s := m.Session("extendtime")
	if label, voted := s.VoteOf(1); voted {
		t.Fatalf("ballot of a disconnected player still counted: %q", label)
	}
	if total := s.Snapshot().Total; total != 0 {
		t.Fatalf("expected no votes left, got %d", total)
	}

	// the cooldown went with the player
	s.ForceClose()
	if err := m.StartVote(1, "endmap", []string{"a", "b"}, 10, nil); err != nil {
		t.Fatalf("expected no cooldown after reconnect, got %v", err)
	}
}
