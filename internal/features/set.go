package features

import (
	"github.com/siohaza/rockthevote/internal/callbacks"
)

// Set is every feature wired to the others.
type Set struct {
	ChangeMap   *ChangeMap
	Nominations *Nominations
	EndMapVote  *EndMapVote
	RockTheVote *RockTheVote
	ExtendMap   *ExtendMap
	Votemap     *Votemap
	Info        *Info
	Ballot      *Ballot
}

func New(d *Deps) *Set {
	changeMap := NewChangeMap(d)
	nominations := NewNominations(d)
	endMap := NewEndMapVote(d, changeMap, nominations)

	return &Set{
		ChangeMap:   changeMap,
		Nominations: nominations,
		EndMapVote:  endMap,
		RockTheVote: NewRockTheVote(d, endMap),
		ExtendMap:   NewExtendMap(d, changeMap, endMap),
		Votemap:     NewVotemap(d, changeMap),
		Info:        NewInfo(d),
		Ballot:      NewBallot(d),
	}
}

// Register adds the features that react to host events to chain.
func (s *Set) Register(chain *callbacks.CallbackChain) {
	chain.Register(s.ChangeMap)
	chain.Register(s.Nominations)
	chain.Register(s.EndMapVote)
	chain.Register(s.RockTheVote)
	chain.Register(s.ExtendMap)
	chain.Register(s.Votemap)
}
