package vote

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnknownChoice     = errors.New("unknown vote choice")
	ErrNotOpen           = errors.New("voting is closed")
	ErrAlreadyInProgress = errors.New("vote already in progress")
	ErrNoChoices         = errors.New("vote needs at least one choice")
	ErrUnknownSession    = errors.New("unknown vote session")
)

// ApplyError is reported when a vote passed but its outcome could not be applied.
type ApplyError struct {
	Session string
	Winner  string
	Err     error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("vote %s: failed to apply %q: %v", e.Session, e.Winner, e.Err)
}

func (e *ApplyError) Unwrap() error {
	return e.Err
}

type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("please wait %d seconds before starting another vote", int(e.Remaining.Seconds()))
}
