package features

import (
	"errors"
	"strconv"
	"strings"

	"github.com/siohaza/rockthevote/internal/i18n"
	"github.com/siohaza/rockthevote/internal/player"
	"github.com/siohaza/rockthevote/internal/vote"
)

// Ballot casts player votes into whichever session is open, from chat
// (a label or a number) or from a menu selection.
type Ballot struct {
	deps *Deps
	lang *i18n.Localizer
}

func NewBallot(d *Deps) *Ballot {
	return &Ballot{
		deps: d,
		lang: d.Lang.WithPrefix("rtv.prefix"),
	}
}

// Cast votes for choice, which is either a 1-based option number or a label.
func (b *Ballot) Cast(p *player.Player, choice string) error {
	if p == nil {
		return vote.ErrNotOpen
	}

	choice = strings.TrimSpace(choice)
	if index, err := strconv.Atoi(choice); err == nil {
		return b.CastIndex(p, index)
	}

	session := b.deps.Votes.GetActiveVote()
	if session == nil {
		return b.report(p, "", vote.ErrNotOpen)
	}

	label := choice
	for _, candidate := range session.Snapshot().Choices {
		if strings.EqualFold(candidate, choice) {
			label = candidate
			break
		}
	}

	return b.report(p, label, b.deps.Votes.CastVote(b.deps.voter(p), label))
}

func (b *Ballot) CastIndex(p *player.Player, index int) error {
	session := b.deps.Votes.GetActiveVote()
	if session == nil {
		return b.report(p, "", vote.ErrNotOpen)
	}

	label := ""
	if choices := session.Snapshot().Choices; index >= 1 && index <= len(choices) {
		label = choices[index-1]
	}

	return b.report(p, label, b.deps.Votes.CastVoteIndex(b.deps.voter(p), index))
}

func (b *Ballot) report(p *player.Player, label string, err error) error {
	switch {
	case err == nil:
		b.deps.Host.CenterPlayer(p.UserID, b.lang.Localize("vote.you-voted", label))
	case errors.Is(err, vote.ErrNotOpen):
		b.deps.tell(p, b.lang.LocalizeWithPrefix("vote.no-active-vote"))
	case errors.Is(err, vote.ErrUnknownChoice):
		b.deps.tell(p, b.lang.LocalizeWithPrefix("vote.invalid-option"))
	}
	return err
}
