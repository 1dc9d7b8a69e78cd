package timelimit

import (
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

type recordingPusher struct {
	limits     []int
	roundTimes []int
	err        error
}

func (p *recordingPusher) SetTimeLimit(seconds int) error {
	if p.err != nil {
		return p.err
	}
	p.limits = append(p.limits, seconds)
	return nil
}

func (p *recordingPusher) SetRoundTime(seconds int) error {
	if p.err != nil {
		return p.err
	}
	p.roundTimes = append(p.roundTimes, seconds)
	return nil
}

func TestTimeRemaining(t *testing.T) {
	clock := clockwork.NewFakeClock()
	m := NewManager(clock, nil)
	m.StartMap(20 * 60)

	clock.Advance(5*time.Minute + 30*time.Second)

	if got := m.TimePlayed(); got != 330 {
		t.Fatalf("expected 330 seconds played, got %d", got)
	}
	if got := m.TimeRemaining(); got != 870 {
		t.Fatalf("expected 870 seconds remaining, got %d", got)
	}
	if got := m.TimeRemainingMinutes(); got != 15 {
		t.Fatalf("expected 15 minutes remaining, got %d", got)
	}

	clock.Advance(time.Hour)
	if got := m.TimeRemaining(); got != 0 {
		t.Fatalf("expected remaining clamped to 0, got %d", got)
	}
}

func TestUnlimitedTime(t *testing.T) {
	m := NewManager(clockwork.NewFakeClock(), nil)
	m.StartMap(0)

	if !m.UnlimitedTime() {
		t.Fatalf("expected unlimited time")
	}
	if m.TimeRemaining() != 0 {
		t.Fatalf("expected no remaining time without a limit")
	}
}

func TestSyncAdoptsServerTime(t *testing.T) {
	clock := clockwork.NewFakeClock()
	m := NewManager(clock, nil)
	m.Sync(30*60, 600, 120)

	if got := m.TimePlayed(); got != 600 {
		t.Fatalf("expected 600 seconds played, got %d", got)
	}
	if got := m.RoundTime(); got != 120 {
		t.Fatalf("expected round time 120, got %d", got)
	}
}

func TestExtendMapTimeLimit(t *testing.T) {
	clock := clockwork.NewFakeClock()
	pusher := &recordingPusher{}
	m := NewManager(clock, pusher)
	m.StartMap(20 * 60)
	clock.Advance(18 * time.Minute)

	if err := m.ExtendMapTimeLimit(15); err != nil {
		t.Fatalf("extend failed: %v", err)
	}

	if m.TimeLimitValue() != 35*60 {
		t.Fatalf("expected limit of 35 minutes, got %d", m.TimeLimitValue())
	}
	if got := m.TimeRemainingMinutes(); got != 17 {
		t.Fatalf("expected 17 minutes remaining, got %d", got)
	}
	if len(pusher.limits) != 1 || pusher.limits[0] != 35*60 {
		t.Fatalf("expected new limit pushed, got %v", pusher.limits)
	}
}

func TestExtendKeepsLimitWhenPushFails(t *testing.T) {
	pusher := &recordingPusher{err: errors.New("not connected")}
	m := NewManager(clockwork.NewFakeClock(), pusher)
	m.StartMap(600)

	if err := m.ExtendMapTimeLimit(10); err == nil {
		t.Fatalf("expected error")
	}
	if m.TimeLimitValue() != 600 {
		t.Fatalf("limit changed despite failure: %d", m.TimeLimitValue())
	}

	m.Sync(600, 0, 300)
	if err := m.ExtendRoundTime(5); err == nil {
		t.Fatalf("expected error")
	}
	if m.RoundTime() != 300 || m.TimeRemaining() != 600 {
		t.Fatalf("round time changed despite failure: %d %d", m.RoundTime(), m.TimeRemaining())
	}
}

func TestExtendRoundTime(t *testing.T) {
	pusher := &recordingPusher{}
	m := NewManager(clockwork.NewFakeClock(), pusher)
	m.Sync(0, 0, 600)

	if err := m.ExtendRoundTime(2); err != nil {
		t.Fatalf("extend failed: %v", err)
	}
	if m.RoundTime() != 720 {
		t.Fatalf("expected round time 720, got %d", m.RoundTime())
	}
	if len(pusher.roundTimes) != 1 || pusher.roundTimes[0] != 720 {
		t.Fatalf("expected round time pushed, got %v", pusher.roundTimes)
	}

	if err := m.ExtendRoundTime(0); err == nil {
		t.Fatalf("expected zero extension to be rejected")
	}
}

func TestExtendRoundTimeMovesRemaining(t *testing.T) {
	clock := clockwork.NewFakeClock()
	pusher := &recordingPusher{}
	m := NewManager(clock, pusher)
	m.Sync(20*60, 18*60+30, 20*60)

	if err := m.ExtendRoundTime(15); err != nil {
		t.Fatalf("extend failed: %v", err)
	}

	if got := m.TimeRemaining(); got != 90+15*60 {
		t.Fatalf("expected remaining to grow by the extension, got %d", got)
	}
	if got := m.TimeRemainingMinutes(); got != 17 {
		t.Fatalf("expected 17 minutes remaining, got %d", got)
	}
	if len(pusher.limits) != 0 {
		t.Fatalf("mp_timelimit must stay untouched, got %v", pusher.limits)
	}

	// a later sync reports the server's own limit, the extension stays
	clock.Advance(time.Minute)
	m.Sync(20*60, 19*60+30, 35*60)
	if got := m.TimeRemaining(); got != 30+15*60 {
		t.Fatalf("expected the extension to survive a sync, got %d", got)
	}

	m.StartMap(20 * 60)
	if got := m.TimeRemaining(); got != 20*60 {
		t.Fatalf("expected a new map to drop the extension, got %d", got)
	}
}

func TestExtendRoundTimeBeforeSync(t *testing.T) {
	pusher := &recordingPusher{}
	m := NewManager(clockwork.NewFakeClock(), pusher)
	m.StartMap(20 * 60)

	if err := m.ExtendRoundTime(15); !errors.Is(err, ErrRoundTimeUnknown) {
		t.Fatalf("expected ErrRoundTimeUnknown, got %v", err)
	}
	if len(pusher.roundTimes) != 0 {
		t.Fatalf("nothing should be pushed without a known round time, got %v", pusher.roundTimes)
	}
	if m.TimeRemaining() != 20*60 {
		t.Fatalf("remaining changed: %d", m.TimeRemaining())
	}
}
