package host

// Host is the game server the plugin drives. Messages are fire and forget;
// calls that change the server return an error when they could not be sent.
type Host interface {
	ChatAll(message string)
	ChatPlayer(userID int, message string)
	CenterAll(html string)
	CenterPlayer(userID int, html string)

	OpenMenu(userID int, title string, options []string)
	CloseMenu(userID int)

	ChangeMap(name, workshopID string) error
	SetNextMap(name string) error
	SetTimeLimit(seconds int) error
	SetRoundTime(seconds int) error
}

// Console is the pseudo user id for commands typed into the server console.
const Console = 0
