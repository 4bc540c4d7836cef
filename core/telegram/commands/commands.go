package commands

// Command describes an entry of the bot command menu.
type Command struct {
	Description string
	Hidden      bool
}
