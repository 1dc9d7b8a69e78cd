package player

import "testing"

func TestValidCountSkipsBotsAndSpectators(t *testing.T) {
	m := NewManager()

	alice := New(1, "alice")
	alice.SetTeam(TeamTerrorist)
	m.Add(alice)

	bob := New(2, "bob")
	bob.SetTeam(TeamSpectator)
	m.Add(bob)

	bot := New(3, "BOT Kyle")
	bot.IsBot = true
	bot.SetTeam(TeamCounterTerrorist)
	m.Add(bot)

	tv := New(4, "SourceTV")
	tv.IsHLTV = true
	m.Add(tv)

	if got := m.Count(); got != 4 {
		t.Fatalf("expected 4 players, got %d", got)
	}
	if got := m.ValidCount(false); got != 1 {
		t.Fatalf("expected 1 valid player without spectators, got %d", got)
	}
	if got := m.ValidCount(true); got != 2 {
		t.Fatalf("expected 2 valid players with spectators, got %d", got)
	}

	m.Remove(1)
	if m.Contains(1) {
		t.Fatalf("expected player 1 to be removed")
	}
	if got := m.ValidCount(true); got != 1 {
		t.Fatalf("expected 1 valid player after removal, got %d", got)
	}
}

func TestGetAllOrderedByUserID(t *testing.T) {
	m := NewManager()
	for _, id := range []int{7, 2, 5} {
		m.Add(New(id, "p"))
	}

	all := m.GetAll()
	if len(all) != 3 || all[0].UserID != 2 || all[1].UserID != 5 || all[2].UserID != 7 {
		t.Fatalf("unexpected order: %v, %v, %v", all[0].UserID, all[1].UserID, all[2].UserID)
	}
}

func TestFindByName(t *testing.T) {
	m := NewManager()
	m.Add(New(1, "Alice"))
	m.Add(New(2, "Bob"))

	p, ok := m.FindByName("ali")
	if !ok || p.UserID != 1 {
		t.Fatalf("expected to find alice")
	}
	if _, ok := m.FindByName("carol"); ok {
		t.Fatalf("did not expect a match")
	}
}
