package vote

// EligibilityTracker reports how many participants may currently vote.
type EligibilityTracker interface {
	CurrentEligibleCount() int
}

type EligibilityFunc func() int

func (f EligibilityFunc) CurrentEligibleCount() int {
	return f()
}

// RequiredVotes returns how many of the eligible players must agree for the
// given percentage, rounded up. At least one vote is required whenever
// someone is eligible.
func RequiredVotes(eligible, percentage int) int {
	if eligible <= 0 {
		return 0
	}
	if percentage <= 0 {
		return 1
	}
	if percentage > 100 {
		percentage = 100
	}

	required := (eligible*percentage + 99) / 100
	if required == 0 {
		required = 1
	}
	return required
}
