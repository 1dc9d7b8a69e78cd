package features

import (
	"fmt"
	"html"
	"strings"

	"github.com/siohaza/rockthevote/internal/vote"
)

const maxOptionsHudMenu = 6

// renderVoteHud builds the center text shown every second while a vote runs.
// Without the hud menu only choices that received votes are listed, most
// voted first. With it every choice is listed with its menu number.
func renderVoteHud(title string, snap vote.Snapshot, hudMenu bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>", html.EscapeString(title))

	if !hudMenu {
		shown := 0
		for _, row := range snap.Tally {
			if shown == maxOptionsHudMenu {
				break
			}
			if row.Votes == 0 {
				continue
			}
			fmt.Fprintf(&b, "<br>%s <font color='green'>(%d)</font>", html.EscapeString(row.Label), row.Votes)
			shown++
		}
		return b.String()
	}

	counts := make(map[string]int, len(snap.Tally))
	for _, row := range snap.Tally {
		counts[row.Label] = row.Votes
	}

	for i, label := range snap.Choices {
		if i == maxOptionsHudMenu {
			break
		}
		fmt.Fprintf(&b, "<br><font color='yellow'>!%d</font> %s <font color='green'>(%d)</font>", i+1, html.EscapeString(label), counts[label])
	}
	return b.String()
}
