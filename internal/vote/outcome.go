package vote

// OutcomeApplier performs the side effect of a passed vote. The session calls
// it at most once, with the winning label.
type OutcomeApplier interface {
	Apply(winner string) error
}

type ApplierFunc func(winner string) error

func (f ApplierFunc) Apply(winner string) error {
	return f(winner)
}

type ResultKind int

const (
	ResultPassed ResultKind = iota
	ResultRejected
	ResultNoVotes
	ResultApplyFailed
)

func (k ResultKind) String() string {
	switch k {
	case ResultPassed:
		return "passed"
	case ResultRejected:
		return "rejected"
	case ResultNoVotes:
		return "no_votes"
	case ResultApplyFailed:
		return "apply_failed"
	default:
		return "unknown"
	}
}

type Resolution int

const (
	ResolvedByQuorum Resolution = iota
	ResolvedByTimeout
)

func (r Resolution) String() string {
	if r == ResolvedByQuorum {
		return "quorum"
	}
	return "timeout"
}

// Result describes how a session was resolved.
type Result struct {
	Session     string
	Kind        ResultKind
	By          Resolution
	Winner      string
	WinnerVotes int
	TotalVotes  int
	Tally       []ChoiceCount
	Err         error
}

// Percent is the share of cast votes that went to the winner.
func (r Result) Percent() float64 {
	if r.TotalVotes == 0 {
		return 0
	}
	return float64(r.WinnerVotes) / float64(r.TotalVotes) * 100
}
