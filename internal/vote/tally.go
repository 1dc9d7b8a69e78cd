package vote

import (
	"fmt"
	"sort"
)

// VoterID identifies a participant. The host hands out user ids that stay
// stable for the lifetime of a connection.
type VoterID int

// ChoiceCount is one row of a tally snapshot.
type ChoiceCount struct {
	Label string
	Votes int
}

// Tally counts votes per choice label. Labels are fixed once registered and
// every voter holds at most one vote.
type Tally struct {
	labels []string
	counts map[string]int
	voters map[VoterID]string
}

func NewTally() *Tally {
	return &Tally{
		counts: make(map[string]int),
		voters: make(map[VoterID]string),
	}
}

// Register declares a choice with zero votes. Registering a known label is a no-op.
func (t *Tally) Register(label string) {
	if _, exists := t.counts[label]; exists {
		return
	}
	t.labels = append(t.labels, label)
	t.counts[label] = 0
}

// CastOrChange records the voter's choice. A voter that already voted has
// their vote moved from the old label to the new one.
func (t *Tally) CastOrChange(voter VoterID, label string) error {
	if _, exists := t.counts[label]; !exists {
		return fmt.Errorf("%w: %q", ErrUnknownChoice, label)
	}

	if previous, voted := t.voters[voter]; voted {
		if previous == label {
			return nil
		}
		t.counts[previous]--
	}

	t.voters[voter] = label
	t.counts[label]++
	return nil
}

// Remove takes back the voter's vote, if any.
func (t *Tally) Remove(voter VoterID) bool {
	label, voted := t.voters[voter]
	if !voted {
		return false
	}
	delete(t.voters, voter)
	t.counts[label]--
	return true
}

func (t *Tally) VoteOf(voter VoterID) (string, bool) {
	label, ok := t.voters[voter]
	return label, ok
}

func (t *Tally) Has(label string) bool {
	_, ok := t.counts[label]
	return ok
}

func (t *Tally) Count(label string) int {
	return t.counts[label]
}

func (t *Tally) TotalVotes() int {
	total := 0
	for _, count := range t.counts {
		total += count
	}
	return total
}

func (t *Tally) Voters() int {
	return len(t.voters)
}

// Labels returns the choices in registration order.
func (t *Tally) Labels() []string {
	labels := make([]string, len(t.labels))
	copy(labels, t.labels)
	return labels
}

// Leader returns every label tied for the highest count, in registration
// order. It is empty while no votes have been cast.
func (t *Tally) Leader() []string {
	highest := 0
	for _, label := range t.labels {
		if t.counts[label] > highest {
			highest = t.counts[label]
		}
	}
	if highest == 0 {
		return nil
	}

	leaders := make([]string, 0, 2)
	for _, label := range t.labels {
		if t.counts[label] == highest {
			leaders = append(leaders, label)
		}
	}
	return leaders
}

// Ranked returns the tally ordered by votes descending. Equal counts keep
// registration order.
func (t *Tally) Ranked() []ChoiceCount {
	ranked := make([]ChoiceCount, 0, len(t.labels))
	for _, label := range t.labels {
		ranked = append(ranked, ChoiceCount{Label: label, Votes: t.counts[label]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Votes > ranked[j].Votes
	})
	return ranked
}

func (t *Tally) Reset() {
	t.labels = nil
	t.counts = make(map[string]int)
	t.voters = make(map[VoterID]string)
}
