package user

// User is the bot's view of a chat platform account for the active session.
type User struct {
	// ID is the platform identifier, stable across renames
	ID string

	// Name is the current display name
	Name string

	Admin bool

	// Bot is set when the platform marks the account as automated
	Bot bool
}
