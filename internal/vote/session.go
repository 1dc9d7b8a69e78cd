package vote

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

type State int

const (
	StateIdle State = iota
	StateOpen
	StateResolving
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOpen:
		return "open"
	case StateResolving:
		return "resolving"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Snapshot is a read-only view of a session for display.
type Snapshot struct {
	ID        string
	Name      string
	State     State
	Remaining int
	Quorum    int
	Total     int
	Choices   []string
	Tally     []ChoiceCount
}

type SessionConfig struct {
	Name string
	// RejectLabel names the choice that means "do nothing", e.g. "No".
	RejectLabel string
	// QuorumPercentage of the eligible players that resolves the vote early.
	// Zero means everyone.
	QuorumPercentage int
	Eligibility      EligibilityTracker
	Clock            clockwork.Clock
	Rand             *rand.Rand
	Logger           *slog.Logger
	OnTick           func(Snapshot)
	OnResolved       func(Result)
}

// Session runs one vote at a time: open, collect, resolve, apply, close.
// It is not safe for concurrent use; the host loop is its only caller.
type Session struct {
	id          string
	name        string
	rejectLabel string
	percentage  int
	eligibility EligibilityTracker
	clock       clockwork.Clock
	rand        *rand.Rand
	logger      *slog.Logger
	onTick      func(Snapshot)
	onResolved  func(Result)

	state     State
	tally     *Tally
	quorum    int
	countdown Countdown
	applier   OutcomeApplier
	openedAt  time.Time
	last      *Result
}

func NewSession(config SessionConfig) *Session {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	clock := config.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	rnd := config.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(clock.Now().UnixNano()))
	}

	eligibility := config.Eligibility
	if eligibility == nil {
		eligibility = EligibilityFunc(func() int { return 0 })
	}

	percentage := config.QuorumPercentage
	if percentage <= 0 {
		percentage = 100
	}

	return &Session{
		name:        config.Name,
		rejectLabel: config.RejectLabel,
		percentage:  percentage,
		eligibility: eligibility,
		clock:       clock,
		rand:        rnd,
		logger:      logger.With("vote", config.Name),
		onTick:      config.OnTick,
		onResolved:  config.OnResolved,
		state:       StateIdle,
		tally:       NewTally(),
	}
}

func (s *Session) Name() string {
	return s.name
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) State() State {
	return s.state
}

// IsActive reports whether the session is open or still resolving.
func (s *Session) IsActive() bool {
	return s.state == StateOpen || s.state == StateResolving
}

func (s *Session) Quorum() int {
	return s.quorum
}

// LastResult returns the result of the most recently resolved vote.
func (s *Session) LastResult() (Result, bool) {
	if s.last == nil {
		return Result{}, false
	}
	return *s.last, true
}

// StartVote opens a new vote over the given choices. The eligible player
// count is captured now and used as the quorum for the whole vote.
func (s *Session) StartVote(choices []string, seconds int, applier OutcomeApplier) error {
	if s.IsActive() {
		return ErrAlreadyInProgress
	}
	if len(choices) == 0 {
		return ErrNoChoices
	}

	s.tally.Reset()
	for _, choice := range choices {
		s.tally.Register(choice)
	}

	s.id = uuid.NewString()
	s.quorum = RequiredVotes(s.eligibility.CurrentEligibleCount(), s.percentage)
	s.applier = applier
	s.openedAt = s.clock.Now()
	s.state = StateOpen

	s.countdown.Start(seconds, s.handleTick, func() {
		s.resolve(ResolvedByTimeout)
	})

	s.logger.Info("vote started",
		"session", s.id,
		"choices", len(choices),
		"duration", seconds,
		"quorum", s.quorum,
	)

	return nil
}

// RecordVote casts or changes a vote. Reaching the quorum resolves the vote
// immediately, without waiting for the countdown.
func (s *Session) RecordVote(voter VoterID, label string) error {
	if s.state != StateOpen {
		return ErrNotOpen
	}

	if err := s.tally.CastOrChange(voter, label); err != nil {
		return err
	}

	s.logger.Debug("vote recorded", "session", s.id, "voter", voter, "choice", label)

	if s.tally.TotalVotes() >= s.quorum {
		s.resolve(ResolvedByQuorum)
	}

	return nil
}

// RecordVoteIndex votes for the choice at the 1-based menu position.
func (s *Session) RecordVoteIndex(voter VoterID, index int) error {
	if s.state != StateOpen {
		return ErrNotOpen
	}

	labels := s.tally.Labels()
	if index < 1 || index > len(labels) {
		return fmt.Errorf("%w: option %d", ErrUnknownChoice, index)
	}

	return s.RecordVote(voter, labels[index-1])
}

// DropVoter takes back the vote of a player who left. The quorum keeps the
// value captured at open.
func (s *Session) DropVoter(voter VoterID) {
	if s.state != StateOpen {
		return
	}
	if s.tally.Remove(voter) {
		s.logger.Debug("vote dropped", "session", s.id, "voter", voter)
	}
}

func (s *Session) VoteOf(voter VoterID) (string, bool) {
	return s.tally.VoteOf(voter)
}

// Tick advances the countdown by one second and returns the resulting view.
func (s *Session) Tick() Snapshot {
	s.countdown.Tick()
	return s.Snapshot()
}

// ForceClose abandons an open vote without applying anything. It is used on
// map change and is a no-op unless the session is active.
func (s *Session) ForceClose() {
	if !s.IsActive() {
		return
	}

	s.countdown.Cancel()
	s.tally.Reset()
	s.applier = nil
	s.state = StateClosed

	s.logger.Info("vote force closed", "session", s.id)
}

func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		ID:        s.id,
		Name:      s.name,
		State:     s.state,
		Remaining: s.countdown.Remaining(),
		Quorum:    s.quorum,
		Total:     s.tally.TotalVotes(),
		Choices:   s.tally.Labels(),
		Tally:     s.tally.Ranked(),
	}
}

func (s *Session) handleTick(remaining int) {
	if s.onTick == nil {
		return
	}

	snap := s.Snapshot()
	snap.Remaining = remaining
	s.onTick(snap)
}

func (s *Session) resolve(by Resolution) {
	if s.state != StateOpen {
		return
	}
	s.state = StateResolving
	s.countdown.Cancel()

	result := Result{
		Session:    s.name,
		By:         by,
		TotalVotes: s.tally.TotalVotes(),
		Tally:      s.tally.Ranked(),
	}

	leaders := s.tally.Leader()
	applier := s.applier
	s.applier = nil

	switch {
	case len(leaders) == 0:
		result.Kind = ResultNoVotes
	default:
		result.Winner = leaders[s.rand.Intn(len(leaders))]
		result.WinnerVotes = s.tally.Count(result.Winner)

		if s.rejectLabel != "" && result.Winner == s.rejectLabel {
			result.Kind = ResultRejected
			break
		}

		result.Kind = ResultPassed
		if applier != nil {
			if err := applier.Apply(result.Winner); err != nil {
				result.Kind = ResultApplyFailed
				result.Err = &ApplyError{Session: s.name, Winner: result.Winner, Err: err}
				s.logger.Error("failed to apply vote outcome", "session", s.id, "winner", result.Winner, "error", err)
			}
		}
	}

	// the applier may have force closed us
	if s.state != StateResolving {
		return
	}

	s.countdown.Cancel()
	s.state = StateClosed
	s.last = &result

	s.logger.Info("vote resolved",
		"session", s.id,
		"result", result.Kind,
		"by", by,
		"winner", result.Winner,
		"votes", result.WinnerVotes,
		"total", result.TotalVotes,
		"elapsed", s.clock.Since(s.openedAt).Round(time.Second),
	)

	if s.onResolved != nil {
		s.onResolved(result)
	}
}
