// Package command defines the battle console's command set, the alias
// registry that resolves typed words to commands, and the line parser.
package command

// Categories for organizing commands in help output.
const (
	CategoryBattle = "battle"
	CategoryInfo   = "info"
	CategorySystem = "system"
)

// Handler identifiers mapping commands to console actions.
const (
	HandlerBoard   = "board"
	HandlerUnits   = "units"
	HandlerSkills  = "skills"
	HandlerMove    = "move"
	HandlerReserve = "reserve"
	HandlerCast    = "cast"
	HandlerEnd     = "end"
	HandlerNext    = "next"
	HandlerRecords = "records"
	HandlerHelp    = "help"
	HandlerQuit    = "quit"
)

// Command defines a player-invocable command.
type Command struct {
	// Name is the canonical command name.
	Name string
	// Aliases are alternate names for this command.
	Aliases []string
	// Usage shows the argument form, e.g. "move <unit> <x> <y>".
	Usage string
	// Help is the short help text displayed to players.
	Help     string
	Category string
	Handler  string
	// MinArgs is the number of arguments the command requires.
	MinArgs int
}

// BuiltinCommands returns every command the battle console understands.
func BuiltinCommands() []Command {
	return []Command{
		{Name: "board", Aliases: []string{"b", "map"}, Usage: "board", Help: "Draw the battlefield", Category: CategoryInfo, Handler: HandlerBoard},
		{Name: "units", Aliases: []string{"u", "roster"}, Usage: "units", Help: "List every unit on the field", Category: CategoryInfo, Handler: HandlerUnits},
		{Name: "skills", Aliases: []string{"sk"}, Usage: "skills [unit]", Help: "List a hero's skills and whether they are spent", Category: CategoryInfo, Handler: HandlerSkills},
		{Name: "records", Aliases: []string{"rec"}, Usage: "records", Help: "Show your currency and best clear times", Category: CategoryInfo, Handler: HandlerRecords},

		{Name: "move", Aliases: []string{"m", "mv"}, Usage: "move <unit> <x> <y>", Help: "Move one of your units", Category: CategoryBattle, Handler: HandlerMove, MinArgs: 3},
		{Name: "reserve", Aliases: []string{"r", "ready"}, Usage: "reserve <unit> <skill>", Help: "Ready a skill for the hero's next strike", Category: CategoryBattle, Handler: HandlerReserve, MinArgs: 2},
		{Name: "cast", Aliases: []string{"c"}, Usage: "cast <unit> <skill>", Help: "Unleash a skill right now", Category: CategoryBattle, Handler: HandlerCast, MinArgs: 2},
		{Name: "end", Aliases: []string{"e", "done"}, Usage: "end", Help: "Attack with every unit in reach and pass the turn", Category: CategoryBattle, Handler: HandlerEnd},
		{Name: "next", Aliases: []string{"again"}, Usage: "next", Help: "Start the next battle once this one is over", Category: CategoryBattle, Handler: HandlerNext},

		{Name: "help", Aliases: []string{"h", "?"}, Usage: "help", Help: "Show this list", Category: CategorySystem, Handler: HandlerHelp},
		{Name: "quit", Aliases: []string{"q", "exit"}, Usage: "quit", Help: "Leave the battlefield", Category: CategorySystem, Handler: HandlerQuit},
	}
}
