package vote

type ThresholdStatus int

const (
	ThresholdAdded ThresholdStatus = iota
	ThresholdAlreadyAdded
	ThresholdReached
)

type ThresholdResult struct {
	Status   ThresholdStatus
	Votes    int
	Required int
}

// ThresholdVote collects open-ended requests ("rtv", "ext") until a
// percentage of the eligible players agree. It has no timer.
type ThresholdVote struct {
	voters      map[VoterID]struct{}
	percentage  int
	eligibility EligibilityTracker
	reached     bool
}

func NewThresholdVote(percentage int, eligibility EligibilityTracker) *ThresholdVote {
	return &ThresholdVote{
		voters:      make(map[VoterID]struct{}),
		percentage:  percentage,
		eligibility: eligibility,
	}
}

func (t *ThresholdVote) AddVote(voter VoterID) ThresholdResult {
	if _, exists := t.voters[voter]; exists {
		return ThresholdResult{Status: ThresholdAlreadyAdded, Votes: len(t.voters), Required: t.Required()}
	}

	t.voters[voter] = struct{}{}
	result := ThresholdResult{Status: ThresholdAdded, Votes: len(t.voters), Required: t.Required()}
	if !t.reached && result.Votes >= result.Required {
		t.reached = true
		result.Status = ThresholdReached
	}
	return result
}

func (t *ThresholdVote) RemoveVote(voter VoterID) {
	delete(t.voters, voter)
}

// Recheck re-evaluates the threshold after the eligible count changed, e.g.
// when a player left. It reports true only the first time it is reached.
func (t *ThresholdVote) Recheck() bool {
	if t.reached || len(t.voters) == 0 {
		return false
	}
	if len(t.voters) >= t.Required() {
		t.reached = true
		return true
	}
	return false
}

func (t *ThresholdVote) HasVoted(voter VoterID) bool {
	_, ok := t.voters[voter]
	return ok
}

func (t *ThresholdVote) Votes() int {
	return len(t.voters)
}

func (t *ThresholdVote) Required() int {
	return RequiredVotes(t.eligibility.CurrentEligibleCount(), t.percentage)
}

func (t *ThresholdVote) Reached() bool {
	return t.reached
}

func (t *ThresholdVote) Clear() {
	t.voters = make(map[VoterID]struct{})
	t.reached = false
}
